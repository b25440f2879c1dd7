// Package ledger is the single source of truth for credits, uploads,
// duplicate detection, ranking and channel-watch configuration.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const leaderboardChannelKey = "leaderboard_channel"

var (
	// ErrUserNotFound indicates the queried user has no accepted uploads.
	ErrUserNotFound = errors.New("ledger: user not found")
	// ErrNotSet indicates a config key has never been written.
	ErrNotSet = errors.New("ledger: setting not set")

	errDuplicate = errors.New("ledger: duplicate upload")
)

// Ledger wraps the persistent store. All methods are safe for concurrent
// use; mutations run inside a single transaction.
type Ledger struct {
	db  *gorm.DB
	now func() time.Time
}

// New creates a Ledger over an open gorm connection.
func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// NewWithClock is New with an injectable clock.
func NewWithClock(db *gorm.DB, clock func() time.Time) *Ledger {
	if clock == nil {
		clock = time.Now
	}
	return &Ledger{db: db, now: clock}
}

// Init ensures the schema exists. Safe to call on every startup.
func (l *Ledger) Init(ctx context.Context) error {
	err := l.db.WithContext(ctx).AutoMigrate(
		&Credit{},
		&Upload{},
		&Setting{},
		&ListenedChannel{},
	)
	if err != nil {
		return fmt.Errorf("ledger: migrate schema: %w", err)
	}
	return nil
}

// RecordUpload registers a new upload and credits its owner with one point
// per page. Returns false when the content hash was already accepted; the
// duplicate case performs no mutation and is not an error. The check,
// insert and credit update run in one transaction so concurrent calls with
// the same hash accept at most once.
func (l *Ledger) RecordUpload(ctx context.Context, userID, fileHash, fileName string, pageCount int64) (bool, error) {
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Upload
		err := tx.Where("file_hash = ?", fileHash).First(&existing).Error
		if err == nil {
			return errDuplicate
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := l.now()
		upload := Upload{
			FileHash:   fileHash,
			UserID:     userID,
			FileName:   fileName,
			PageCount:  pageCount,
			UploadDate: now,
		}
		if err := tx.Create(&upload).Error; err != nil {
			// Lost a same-hash race to a concurrent writer.
			if isUniqueViolation(err) {
				return errDuplicate
			}
			return err
		}

		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"points":      gorm.Expr("points + ?", pageCount),
				"last_upload": now,
			}),
		}).Create(&Credit{
			UserID:     userID,
			Points:     pageCount,
			LastUpload: now,
		}).Error
	})

	if errors.Is(err, errDuplicate) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger: record upload: %w", err)
	}
	return true, nil
}

// UserStats returns the user's total points, rank and uploads ordered
// most-recent-first. Ties share a rank: rank = 1 + number of users with
// strictly more points.
func (l *Ledger) UserStats(ctx context.Context, userID string) (*Stats, error) {
	db := l.db.WithContext(ctx)

	var credit Credit
	if err := db.First(&credit, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("ledger: user stats: %w", err)
	}

	var above int64
	if err := db.Model(&Credit{}).Where("points > ?", credit.Points).Count(&above).Error; err != nil {
		return nil, fmt.Errorf("ledger: user rank: %w", err)
	}

	var uploads []Upload
	if err := db.Where("user_id = ?", userID).Order("upload_date DESC").Find(&uploads).Error; err != nil {
		return nil, fmt.Errorf("ledger: user uploads: %w", err)
	}

	books := make([]Book, 0, len(uploads))
	for _, u := range uploads {
		books = append(books, Book{FileName: u.FileName, PageCount: u.PageCount})
	}

	return &Stats{Points: credit.Points, Rank: above + 1, Books: books}, nil
}

// Leaderboard returns the top users by points, descending, ties broken by
// user id for a stable ordering.
func (l *Ledger) Leaderboard(ctx context.Context, limit int) ([]Entry, error) {
	var credits []Credit
	err := l.db.WithContext(ctx).
		Order("points DESC, user_id ASC").
		Limit(limit).
		Find(&credits).Error
	if err != nil {
		return nil, fmt.Errorf("ledger: leaderboard: %w", err)
	}
	return toEntries(credits), nil
}

// AllRanked returns every user ordered like Leaderboard, unbounded.
func (l *Ledger) AllRanked(ctx context.Context) ([]Entry, error) {
	var credits []Credit
	err := l.db.WithContext(ctx).
		Order("points DESC, user_id ASC").
		Find(&credits).Error
	if err != nil {
		return nil, fmt.Errorf("ledger: all ranked: %w", err)
	}
	return toEntries(credits), nil
}

// AllUserIDs returns the ids of every user holding credits.
func (l *Ledger) AllUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := l.db.WithContext(ctx).
		Model(&Credit{}).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("ledger: all user ids: %w", err)
	}
	return ids, nil
}

// SetLeaderboardChannel binds the channel receiving upload notifications
// and leaderboard reposts. Last write wins.
func (l *Ledger) SetLeaderboardChannel(ctx context.Context, channelID string) error {
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&Setting{Key: leaderboardChannelKey, Value: channelID}).Error
	if err != nil {
		return fmt.Errorf("ledger: set leaderboard channel: %w", err)
	}
	return nil
}

// LeaderboardChannel returns the configured notification channel, or
// ErrNotSet when none has been bound yet.
func (l *Ledger) LeaderboardChannel(ctx context.Context) (string, error) {
	var setting Setting
	err := l.db.WithContext(ctx).First(&setting, "key = ?", leaderboardChannelKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotSet
	}
	if err != nil {
		return "", fmt.Errorf("ledger: leaderboard channel: %w", err)
	}
	return setting.Value, nil
}

// WatchChannel adds a channel to the guild's watch list. Adding an
// existing member is a no-op.
func (l *Ledger) WatchChannel(ctx context.Context, guildID, channelID string) error {
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&ListenedChannel{
			GuildID:   guildID,
			ChannelID: channelID,
			AddedAt:   l.now(),
		}).Error
	if err != nil && !isUniqueViolation(err) {
		return fmt.Errorf("ledger: watch channel: %w", err)
	}
	return nil
}

// UnwatchChannel removes a channel from the guild's watch list. Removing
// a non-member is a no-op.
func (l *Ledger) UnwatchChannel(ctx context.Context, guildID, channelID string) error {
	err := l.db.WithContext(ctx).
		Where("guild_id = ? AND channel_id = ?", guildID, channelID).
		Delete(&ListenedChannel{}).Error
	if err != nil {
		return fmt.Errorf("ledger: unwatch channel: %w", err)
	}
	return nil
}

// ClearWatched drops the guild's entire watch list.
func (l *Ledger) ClearWatched(ctx context.Context, guildID string) error {
	err := l.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Delete(&ListenedChannel{}).Error
	if err != nil {
		return fmt.Errorf("ledger: clear watched: %w", err)
	}
	return nil
}

// WatchedChannels lists the guild's watched channels in insertion order.
// An empty list means no channels are configured.
func (l *Ledger) WatchedChannels(ctx context.Context, guildID string) ([]string, error) {
	var ids []string
	err := l.db.WithContext(ctx).
		Model(&ListenedChannel{}).
		Where("guild_id = ?", guildID).
		Order("added_at ASC").
		Pluck("channel_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("ledger: watched channels: %w", err)
	}
	return ids, nil
}

// IsWatched reports whether the channel is on the guild's watch list.
func (l *Ledger) IsWatched(ctx context.Context, guildID, channelID string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&ListenedChannel{}).
		Where("guild_id = ? AND channel_id = ?", guildID, channelID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("ledger: is watched: %w", err)
	}
	return count > 0, nil
}

func toEntries(credits []Credit) []Entry {
	entries := make([]Entry, 0, len(credits))
	for _, c := range credits {
		entries = append(entries, Entry{UserID: c.UserID, Points: c.Points})
	}
	return entries
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
