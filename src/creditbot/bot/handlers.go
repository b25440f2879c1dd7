package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/vaahaka/vaahaka-credits/src/ledger"
	"go.uber.org/zap"
)

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(s, i)
	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		if page, ok := strings.CutPrefix(customID, "alltime:"); ok {
			b.handleAllTimePage(s, i, page)
		}
	}
}

func (b *Bot) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name

	switch name {
	case CommandStats:
		b.handleStats(s, i)
	case CommandLeaderboard:
		b.handleLeaderboard(s, i)
	case CommandAllTime:
		b.handleAllTime(s, i)
	case CommandSetLeaderboardChannel:
		b.adminOnly(s, i, b.handleSetLeaderboardChannel)
	case CommandScanHistory:
		b.adminOnly(s, i, b.handleScanHistory)
	case CommandWatchChannel:
		b.adminOnly(s, i, b.handleWatchChannel)
	case CommandUnwatchChannel:
		b.adminOnly(s, i, b.handleUnwatchChannel)
	case CommandWatchedChannels:
		b.adminOnly(s, i, b.handleWatchedChannels)
	case CommandClearWatched:
		b.adminOnly(s, i, b.handleClearWatched)
	default:
		b.log.Warn("unknown slash command", zap.String("command", name))
	}
}

// adminOnly gates a handler behind administrator permissions. Dev mode
// bypasses the check.
func (b *Bot) adminOnly(s *discordgo.Session, i *discordgo.InteractionCreate, handler func(*discordgo.Session, *discordgo.InteractionCreate)) {
	if !b.devMode {
		if i.Member == nil || i.Member.Permissions&discordgo.PermissionAdministrator == 0 {
			b.respondText(s, i, "❌ You need administrator permissions to use this command.", true)
			return
		}
	}
	handler(s, i)
}

func (b *Bot) handleStats(s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	if user == nil {
		return
	}

	stats, err := b.ledger.UserStats(b.ctx, user.ID)
	if errors.Is(err, ledger.ErrUserNotFound) {
		b.respondText(s, i, "You haven't uploaded any PDFs yet! Upload a PDF to earn credits.", false)
		return
	}
	if err != nil {
		b.log.Error("user stats", zap.String("user_id", user.ID), zap.Error(err))
		b.respondText(s, i, "⚠️ Could not load your stats right now. Please try again.", true)
		return
	}

	books := make([]bookLine, 0, len(stats.Books))
	for _, book := range stats.Books {
		books = append(books, bookLine{Name: book.FileName, Pages: book.PageCount})
	}
	b.respondEmbed(s, i, buildStatsEmbed(user, stats.Points, stats.Rank, books), nil)
}

func (b *Bot) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	entries, err := b.ledger.Leaderboard(b.ctx, leaderboardSize)
	if err != nil {
		b.log.Error("leaderboard", zap.Error(err))
		b.respondText(s, i, "⚠️ Could not load the leaderboard right now. Please try again.", true)
		return
	}
	if len(entries) == 0 {
		b.respondText(s, i, "No one has uploaded any PDFs yet! Be the first to earn credits.", true)
		return
	}

	user := interactionUser(i)
	description := ""
	if user != nil {
		description = fmt.Sprintf("Requested by **%s**", displayNameOf(user))
	}
	embed := buildTopEmbed("🏆 LEADERBOARD", description, b.resolveRanked(s, entries), b.guildIconURL(s, i.GuildID))
	b.respondEmbed(s, i, embed, nil)
}

func (b *Bot) handleAllTime(s *discordgo.Session, i *discordgo.InteractionCreate) {
	entries, err := b.ledger.AllRanked(b.ctx)
	if err != nil {
		b.log.Error("all-time rankings", zap.Error(err))
		b.respondText(s, i, "⚠️ Could not load the rankings right now. Please try again.", true)
		return
	}
	if len(entries) == 0 {
		b.respondText(s, i, "No one has uploaded any PDFs yet! Be the first to earn credits.", true)
		return
	}

	embed, components := b.allTimePage(s, entries, 0, i.GuildID)
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
	if err != nil {
		b.log.Error("respond alltime", zap.Error(err))
	}
}

// handleAllTimePage serves the Previous/Next buttons. The target page is
// carried in the component custom id; rankings are re-read so the page
// reflects the current standings.
func (b *Bot) handleAllTimePage(s *discordgo.Session, i *discordgo.InteractionCreate, rawPage string) {
	page, err := strconv.Atoi(rawPage)
	if err != nil || page < 0 {
		return
	}

	entries, err := b.ledger.AllRanked(b.ctx)
	if err != nil {
		b.log.Error("all-time rankings page", zap.Error(err))
		return
	}
	if max := totalPages(len(entries), allTimePerPage); page >= max {
		page = max - 1
	}

	embed, components := b.allTimePage(s, entries, page, i.GuildID)
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
	if err != nil {
		b.log.Error("update alltime page", zap.Error(err))
	}
}

func (b *Bot) allTimePage(s *discordgo.Session, entries []ledger.Entry, page int, guildID string) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	start, end := pageBounds(len(entries), page, allTimePerPage)
	users := b.resolveRanked(s, entries[start:end])
	embed := buildAllTimePage(users, page, len(entries), b.guildIconURL(s, guildID))
	return embed, buildAllTimeButtons(page, len(entries))
}

func (b *Bot) handleSetLeaderboardChannel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		b.respondText(s, i, "Usage: /"+CommandSetLeaderboardChannel+" channel", true)
		return
	}
	channel := options[0].ChannelValue(nil)

	if err := b.ledger.SetLeaderboardChannel(b.ctx, channel.ID); err != nil {
		b.log.Error("set leaderboard channel", zap.Error(err))
		b.respondText(s, i, "⚠️ Could not save the channel. Please try again.", true)
		return
	}
	b.respondText(s, i, fmt.Sprintf("✅ Leaderboard updates bound to <#%s>", channel.ID), true)
}

func (b *Bot) handleWatchChannel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		b.respondText(s, i, "❌ This command only works inside a guild.", true)
		return
	}
	channelID := optionChannelID(i, i.ChannelID)

	if err := b.ledger.WatchChannel(b.ctx, i.GuildID, channelID); err != nil {
		b.log.Error("watch channel", zap.Error(err))
		b.respondText(s, i, "⚠️ Could not update the watch list. Please try again.", true)
		return
	}
	b.respondText(s, i, fmt.Sprintf("✅ Now watching <#%s> for PDF uploads.", channelID), true)
}

func (b *Bot) handleUnwatchChannel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		b.respondText(s, i, "❌ This command only works inside a guild.", true)
		return
	}
	channelID := optionChannelID(i, i.ChannelID)

	if err := b.ledger.UnwatchChannel(b.ctx, i.GuildID, channelID); err != nil {
		b.log.Error("unwatch channel", zap.Error(err))
		b.respondText(s, i, "⚠️ Could not update the watch list. Please try again.", true)
		return
	}
	b.respondText(s, i, fmt.Sprintf("✅ No longer watching <#%s>.", channelID), true)
}

func (b *Bot) handleWatchedChannels(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		b.respondText(s, i, "❌ This command only works inside a guild.", true)
		return
	}

	ids, err := b.ledger.WatchedChannels(b.ctx, i.GuildID)
	if err != nil {
		b.log.Error("watched channels", zap.Error(err))
		b.respondText(s, i, "⚠️ Could not load the watch list. Please try again.", true)
		return
	}
	if len(ids) == 0 {
		b.respondText(s, i, "No channels are on the watch list; uploads are accepted everywhere.", true)
		return
	}

	var list strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&list, "• <#%s>\n", id)
	}
	b.respondText(s, i, "Watched channels:\n"+strings.TrimRight(list.String(), "\n"), true)
}

func (b *Bot) handleClearWatched(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		b.respondText(s, i, "❌ This command only works inside a guild.", true)
		return
	}

	if err := b.ledger.ClearWatched(b.ctx, i.GuildID); err != nil {
		b.log.Error("clear watched", zap.Error(err))
		b.respondText(s, i, "⚠️ Could not clear the watch list. Please try again.", true)
		return
	}
	b.respondText(s, i, "✅ Watch list cleared; uploads are accepted everywhere again.", true)
}

func (b *Bot) respondText(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Flags: flags},
	})
	if err != nil {
		b.log.Error("interaction respond", zap.Error(err))
	}
}

func (b *Bot) respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
	if err != nil {
		b.log.Error("interaction respond", zap.Error(err))
	}
}

// resolveRanked swaps user ids for display names, falling back to a
// generic label when a user cannot be fetched.
func (b *Bot) resolveRanked(s *discordgo.Session, entries []ledger.Entry) []rankedUser {
	users := make([]rankedUser, 0, len(entries))
	for _, entry := range entries {
		name := "User " + entry.UserID
		if u, err := s.User(entry.UserID); err == nil {
			name = displayNameOf(u)
		} else {
			b.log.Warn("fetch user", zap.String("user_id", entry.UserID), zap.Error(err))
		}
		users = append(users, rankedUser{Name: name, Points: entry.Points})
	}
	return users
}

func (b *Bot) guildIconURL(s *discordgo.Session, guildID string) string {
	if guildID == "" {
		return ""
	}
	guild, err := s.State.Guild(guildID)
	if err != nil || guild == nil || guild.Icon == "" {
		return ""
	}
	return guild.IconURL("")
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

func optionChannelID(i *discordgo.InteractionCreate, fallback string) string {
	options := i.ApplicationCommandData().Options
	if len(options) > 0 {
		if channel := options[0].ChannelValue(nil); channel != nil {
			return channel.ID
		}
	}
	return fallback
}
