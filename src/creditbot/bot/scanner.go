package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const scanPageSize = 100

type scanResult struct {
	Scanned    int
	Processed  int
	Duplicates int
	Errors     int
}

// handleScanHistory walks the invoking channel's full history and runs
// every PDF attachment through the normal upload path. Dedup makes the
// scan safe to repeat.
func (b *Bot) handleScanHistory(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		b.log.Error("defer scan response", zap.Error(err))
		return
	}

	channelID := i.ChannelID
	b.followUp(s, i, "🔍 Starting historical scan... This may take a while. I'll report back when finished.")

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		result, err := b.scanChannel(b.ctx, channelID)
		if err != nil {
			b.log.Error("historical scan", zap.String("channel_id", channelID), zap.Error(err))
			b.followUp(s, i, fmt.Sprintf("❌ Error during scan: %v", err))
			return
		}

		summary := fmt.Sprintf(
			"✅ **Historical Scan Complete!**\n\n"+
				"📊 Results for <#%s>:\n"+
				"• Scanned messages: **%d**\n"+
				"• Processed: **%d** new PDFs\n"+
				"• Duplicates: **%d** (skipped)\n"+
				"• Errors: **%d**\n\n"+
				"The leaderboard has been updated with all historical data where applicable.",
			channelID, result.Scanned, result.Processed, result.Duplicates, result.Errors,
		)
		b.followUp(s, i, summary)

		if result.Processed > 0 {
			b.postLeaderboardUpdate(s)
		}
	}()
}

func (b *Bot) scanChannel(ctx context.Context, channelID string) (scanResult, error) {
	var result scanResult
	beforeID := ""

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		messages, err := b.session.ChannelMessages(channelID, scanPageSize, beforeID, "", "")
		if err != nil {
			return result, fmt.Errorf("fetch channel history: %w", err)
		}
		if len(messages) == 0 {
			break
		}

		for _, msg := range messages {
			result.Scanned++
			if msg.Author == nil || msg.Author.Bot {
				continue
			}

			for _, att := range msg.Attachments {
				if !isPDFAttachment(att) {
					continue
				}
				outcome, _, err := b.ingestAttachment(ctx, att, msg.Author.ID)
				if err != nil {
					b.log.Warn("historical upload failed",
						zap.String("file_name", att.Filename),
						zap.String("message_id", msg.ID),
						zap.Error(err),
					)
					result.Errors++
					continue
				}
				switch outcome {
				case uploadAccepted:
					result.Processed++
				case uploadDuplicate:
					result.Duplicates++
				case uploadMalformed:
					result.Errors++
				}
			}
		}

		beforeID = messages[len(messages)-1].ID
		if len(messages) < scanPageSize {
			break
		}
	}

	return result, nil
}

func (b *Bot) followUp(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{Content: content})
	if err != nil {
		b.log.Error("followup message", zap.Error(err))
	}
}
