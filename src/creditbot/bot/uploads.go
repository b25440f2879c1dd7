package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"

	"github.com/bwmarrin/discordgo"
	"github.com/vaahaka/vaahaka-credits/src/data"
	"github.com/vaahaka/vaahaka-credits/src/ledger"
	"github.com/vaahaka/vaahaka-credits/src/pdf"
	"go.uber.org/zap"
)

const (
	reactionAccepted  = "🏆"
	reactionDuplicate = "♻️"
	reactionFailed    = "❌"
)

type uploadOutcome int

const (
	uploadAccepted uploadOutcome = iota
	uploadDuplicate
	uploadMalformed
)

func isPDFAttachment(att *discordgo.MessageAttachment) bool {
	return att.ContentType == "application/pdf" || pdf.IsPDF(att.Filename)
}

func (b *Bot) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	if m.GuildID != "" {
		watched, err := b.ledger.WatchedChannels(b.ctx, m.GuildID)
		if err != nil {
			b.log.Error("watched channels lookup", zap.String("guild_id", m.GuildID), zap.Error(err))
			return
		}
		// An empty watch list means every channel is fair game.
		if len(watched) > 0 && !slices.Contains(watched, m.ChannelID) {
			return
		}
	}

	for _, att := range m.Attachments {
		if !isPDFAttachment(att) {
			continue
		}

		outcome, pageCount, err := b.ingestAttachment(b.ctx, att, m.Author.ID)
		if err != nil {
			b.log.Error("process upload",
				zap.String("file_name", att.Filename),
				zap.String("user_id", m.Author.ID),
				zap.Error(err),
			)
			b.react(s, m.ChannelID, m.ID, reactionFailed)
			continue
		}

		switch outcome {
		case uploadAccepted:
			b.react(s, m.ChannelID, m.ID, reactionAccepted)
			b.send(s, m.ChannelID, fmt.Sprintf("✅ <@%s> earned **%s credits** for uploading `%s`!",
				m.Author.ID, formatCount(pageCount), att.Filename))
			b.sendUploadNotification(s, m.Author, att.Filename, pageCount)
			b.postLeaderboardUpdate(s)
		case uploadDuplicate:
			b.react(s, m.ChannelID, m.ID, reactionDuplicate)
			b.send(s, m.ChannelID, fmt.Sprintf("⚠️ <@%s>, this PDF has already been uploaded. No credits awarded.", m.Author.ID))
		case uploadMalformed:
			b.react(s, m.ChannelID, m.ID, reactionFailed)
		}
	}
}

// ingestAttachment downloads, fingerprints and records one attachment.
// Malformed documents are an outcome, not an error; the error return is
// reserved for download and storage failures.
func (b *Bot) ingestAttachment(ctx context.Context, att *discordgo.MessageAttachment, userID string) (uploadOutcome, int64, error) {
	raw, err := b.downloadAttachment(ctx, att.URL)
	if err != nil {
		return uploadMalformed, 0, fmt.Errorf("download %q: %w", att.Filename, err)
	}

	fileHash, pageCount, err := pdf.Process(raw)
	if err != nil {
		if errors.Is(err, pdf.ErrMalformedPDF) {
			b.log.Warn("malformed pdf", zap.String("file_name", att.Filename), zap.Error(err))
			return uploadMalformed, 0, nil
		}
		return uploadMalformed, 0, err
	}

	accepted, err := b.ledger.RecordUpload(ctx, userID, fileHash, att.Filename, pageCount)
	if err != nil {
		return uploadMalformed, 0, err
	}
	if !accepted {
		return uploadDuplicate, pageCount, nil
	}

	if err := data.PublishUpload(ctx, b.rdb, userID, fileHash, att.Filename, pageCount); err != nil {
		b.log.Warn("publish upload event", zap.String("file_hash", fileHash), zap.Error(err))
	}
	return uploadAccepted, pageCount, nil
}

func (b *Bot) downloadAttachment(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attachment fetch returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// sendUploadNotification pushes the rich "new book" embed to the bound
// leaderboard channel, if one is configured.
func (b *Bot) sendUploadNotification(s *discordgo.Session, user *discordgo.User, fileName string, pageCount int64) {
	channelID, err := b.ledger.LeaderboardChannel(b.ctx)
	if errors.Is(err, ledger.ErrNotSet) {
		return
	}
	if err != nil {
		b.log.Error("leaderboard channel lookup", zap.Error(err))
		return
	}

	stats, err := b.ledger.UserStats(b.ctx, user.ID)
	if err != nil {
		b.log.Error("stats for notification", zap.String("user_id", user.ID), zap.Error(err))
		return
	}

	embed := buildUploadEmbed(user, fileName, pageCount, stats.Points, stats.Rank)
	if _, err := s.ChannelMessageSendEmbed(channelID, embed); err != nil {
		b.log.Error("send upload notification", zap.String("channel_id", channelID), zap.Error(err))
	}
}

// postLeaderboardUpdate reposts the Top-10 embed to the bound channel.
func (b *Bot) postLeaderboardUpdate(s *discordgo.Session) {
	channelID, err := b.ledger.LeaderboardChannel(b.ctx)
	if errors.Is(err, ledger.ErrNotSet) {
		return
	}
	if err != nil {
		b.log.Error("leaderboard channel lookup", zap.Error(err))
		return
	}

	entries, err := b.ledger.Leaderboard(b.ctx, leaderboardSize)
	if err != nil {
		b.log.Error("leaderboard for update", zap.Error(err))
		return
	}
	if len(entries) == 0 {
		return
	}

	iconURL := ""
	if channel, err := s.State.Channel(channelID); err == nil && channel != nil {
		iconURL = b.guildIconURL(s, channel.GuildID)
	}

	embed := buildTopEmbed("🏆 LEADERBOARD UPDATED!", "Top contributors right now:", b.resolveRanked(s, entries), iconURL)
	if _, err := s.ChannelMessageSendEmbed(channelID, embed); err != nil {
		b.log.Error("post leaderboard update", zap.String("channel_id", channelID), zap.Error(err))
	}
}

func (b *Bot) react(s *discordgo.Session, channelID, messageID, emoji string) {
	if err := s.MessageReactionAdd(channelID, messageID, emoji); err != nil {
		b.log.Warn("add reaction", zap.String("emoji", emoji), zap.Error(err))
	}
}

func (b *Bot) send(s *discordgo.Session, channelID, content string) {
	if _, err := s.ChannelMessageSend(channelID, content); err != nil {
		b.log.Warn("send message", zap.String("channel_id", channelID), zap.Error(err))
	}
}
