package ledger

import "time"

// Credit stores a user's running point total.
type Credit struct {
	UserID     string `gorm:"primaryKey;size:64"`
	Points     int64  `gorm:"not null;default:0"`
	LastUpload time.Time
}

func (Credit) TableName() string { return "credits" }

// Upload records one accepted document, keyed by content hash for
// duplicate prevention.
type Upload struct {
	FileHash   string `gorm:"primaryKey;size:64"`
	UserID     string `gorm:"size:64;not null;index:idx_user_uploads"`
	FileName   string `gorm:"size:255;not null"`
	PageCount  int64  `gorm:"not null"`
	UploadDate time.Time
}

func (Upload) TableName() string { return "uploads" }

// Setting is a key/value row in the config table.
type Setting struct {
	Key   string `gorm:"primaryKey;column:key;size:64"`
	Value string `gorm:"size:256"`
}

func (Setting) TableName() string { return "config" }

// ListenedChannel marks a channel the bot monitors for uploads.
type ListenedChannel struct {
	GuildID   string `gorm:"primaryKey;size:64;index:idx_listened_channels_guild"`
	ChannelID string `gorm:"primaryKey;size:64"`
	AddedAt   time.Time
}

func (ListenedChannel) TableName() string { return "listened_channels" }

// Entry is one leaderboard row.
type Entry struct {
	UserID string
	Points int64
}

// Book is one upload as shown in a user's stats.
type Book struct {
	FileName  string
	PageCount int64
}

// Stats summarizes a single user's standing.
type Stats struct {
	Points int64
	Rank   int64
	Books  []Book
}
