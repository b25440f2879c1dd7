package pdf

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF assembles a minimal but structurally valid PDF with the given
// number of pages, computing the cross-reference table as it goes.
func buildPDF(t *testing.T, pages int) []byte {
	t.Helper()

	var buf bytes.Buffer
	var offsets []int

	addObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, 0, pages)
	for i := 0; i < pages; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", 3+i))
	}

	addObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	addObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n",
		strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		addObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n", 3+i))
	}

	xrefOffset := buf.Len()
	size := len(offsets) + 1
	buf.WriteString("xref\n")
	fmt.Fprintf(&buf, "0 %d\n", size)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", size, xrefOffset)

	return buf.Bytes()
}

func TestProcessCountsPages(t *testing.T) {
	for _, pages := range []int{1, 2, 5} {
		doc := buildPDF(t, pages)
		_, count, err := Process(doc)
		require.NoError(t, err, "pages=%d", pages)
		assert.Equal(t, int64(pages), count)
	}
}

func TestProcessHashIsContentDigest(t *testing.T) {
	doc := buildPDF(t, 2)

	hash, _, err := Process(doc)
	require.NoError(t, err)

	sum := sha256.Sum256(doc)
	assert.Equal(t, hex.EncodeToString(sum[:]), hash)

	// Identical bytes hash identically.
	again, _, err := Process(doc)
	require.NoError(t, err)
	assert.Equal(t, hash, again)

	// A different document hashes differently.
	other, _, err := Process(buildPDF(t, 3))
	require.NoError(t, err)
	assert.NotEqual(t, hash, other)
}

func TestProcessRejectsMalformedInput(t *testing.T) {
	for _, tc := range [][]byte{
		nil,
		[]byte(""),
		[]byte("not a pdf at all"),
		[]byte("%PDF-1.4\ngarbage with no xref"),
	} {
		hash, count, err := Process(tc)
		assert.ErrorIs(t, err, ErrMalformedPDF)
		assert.Empty(t, hash)
		assert.Zero(t, count)
	}
}

func TestProcessRejectsZeroPageDocument(t *testing.T) {
	doc := buildPDF(t, 0)
	_, _, err := Process(doc)
	assert.ErrorIs(t, err, ErrMalformedPDF)
}

func TestIsPDF(t *testing.T) {
	cases := map[string]bool{
		"book.pdf":      true,
		"BOOK.PDF":      true,
		"archive.PdF":   true,
		"book.pdf.txt":  false,
		"book.txt":      false,
		"pdf":           false,
		"":              false,
		"no-extension":  false,
		"trailing.pdf ": false,
	}
	for name, want := range cases {
		assert.Equal(t, want, IsPDF(name), "filename %q", name)
	}
}
