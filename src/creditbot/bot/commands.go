package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	CommandStats                 = "stats"
	CommandLeaderboard           = "leaderboard"
	CommandAllTime               = "alltime"
	CommandSetLeaderboardChannel = "setleaderboardchannel"
	CommandScanHistory           = "scanhistory"
	CommandWatchChannel          = "watchchannel"
	CommandUnwatchChannel        = "unwatchchannel"
	CommandWatchedChannels       = "watchedchannels"
	CommandClearWatched          = "clearwatched"
)

var commandDefinitions = map[string]*discordgo.ApplicationCommand{
	CommandStats: {
		Name:        CommandStats,
		Description: "View your personal credits and uploaded books",
	},
	CommandLeaderboard: {
		Name:        CommandLeaderboard,
		Description: "View the top contributors",
	},
	CommandAllTime: {
		Name:        CommandAllTime,
		Description: "View complete all-time rankings of all contributors",
	},
	CommandSetLeaderboardChannel: {
		Name:        CommandSetLeaderboardChannel,
		Description: "Set the channel for upload notifications and leaderboard updates (Admin only)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:         discordgo.ApplicationCommandOptionChannel,
				Name:         "channel",
				Description:  "Channel to post updates in",
				Required:     true,
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
			},
		},
	},
	CommandScanHistory: {
		Name:        CommandScanHistory,
		Description: "Scan this channel's history for existing PDFs (Admin only)",
	},
	CommandWatchChannel: {
		Name:        CommandWatchChannel,
		Description: "Add a channel to the PDF watch list (Admin only)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:         discordgo.ApplicationCommandOptionChannel,
				Name:         "channel",
				Description:  "Channel to watch (defaults to the current one)",
				Required:     false,
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
			},
		},
	},
	CommandUnwatchChannel: {
		Name:        CommandUnwatchChannel,
		Description: "Remove a channel from the PDF watch list (Admin only)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:         discordgo.ApplicationCommandOptionChannel,
				Name:         "channel",
				Description:  "Channel to stop watching (defaults to the current one)",
				Required:     false,
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
			},
		},
	},
	CommandWatchedChannels: {
		Name:        CommandWatchedChannels,
		Description: "List the channels on the PDF watch list (Admin only)",
	},
	CommandClearWatched: {
		Name:        CommandClearWatched,
		Description: "Clear this guild's PDF watch list (Admin only)",
	},
}

var commandOrder = []string{
	CommandStats,
	CommandLeaderboard,
	CommandAllTime,
	CommandSetLeaderboardChannel,
	CommandScanHistory,
	CommandWatchChannel,
	CommandUnwatchChannel,
	CommandWatchedChannels,
	CommandClearWatched,
}

// registerCommands registers every slash command, per-guild when a guild
// id is configured and globally otherwise.
func (b *Bot) registerCommands(s *discordgo.Session) error {
	var failures []string
	for _, name := range commandOrder {
		definition := commandDefinitions[name]
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, b.guildID, definition); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("bot: slash command registration errors: %s", strings.Join(failures, "; "))
	}
	return nil
}
