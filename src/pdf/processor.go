// Package pdf fingerprints uploaded documents: a content hash for
// duplicate detection plus the page count that becomes the credit award.
package pdf

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrMalformedPDF indicates the bytes could not be parsed as a PDF with
// at least one page. No hash or page count is produced for such input.
var ErrMalformedPDF = errors.New("pdf: malformed document")

// Process hashes the raw bytes and counts the document's pages. The hash
// is the SHA-256 hex digest of the exact byte sequence, so identical
// files always collide and any byte difference separates them. Stateless
// and safe for concurrent use.
func Process(data []byte) (fileHash string, pageCount int64, err error) {
	// The underlying parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			fileHash = ""
			pageCount = 0
			err = fmt.Errorf("%w: %v", ErrMalformedPDF, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrMalformedPDF, err)
	}

	pages := reader.NumPage()
	if pages <= 0 {
		// A structurally valid PDF reporting zero pages earns nothing
		// and is not worth recording; treat it like any other bad file.
		return "", 0, fmt.Errorf("%w: no pages", ErrMalformedPDF)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), int64(pages), nil
}

// IsPDF reports whether the filename carries a PDF extension. This is a
// pre-filter only; actual content validity is decided by Process.
func IsPDF(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}
