// Package bot wires the Discord session to the credit ledger: it watches
// channels for PDF uploads, awards points, and serves the slash-command
// surface (stats, leaderboards, channel administration).
package bot

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
	"github.com/vaahaka/vaahaka-credits/src/ledger"
	"go.uber.org/zap"
)

// Config holds the dependencies the bot needs.
type Config struct {
	Token   string
	GuildID string
	DevMode bool
	Ledger  *ledger.Ledger
	Redis   *redis.Client
	Logger  *zap.Logger
}

// Bot is the Discord-facing orchestrator. All persistent state lives in
// the ledger; the bot only renders it.
type Bot struct {
	session    *discordgo.Session
	ledger     *ledger.Ledger
	rdb        *redis.Client
	log        *zap.Logger
	guildID    string
	devMode    bool
	httpClient *http.Client
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// New creates the bot and registers its handlers. Call Start to connect.
func New(cfg Config) (*Bot, error) {
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("bot: ledger is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("bot: create session: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	b := &Bot{
		session:    session,
		ledger:     cfg.Ledger,
		rdb:        cfg.Redis,
		log:        cfg.Logger,
		guildID:    cfg.GuildID,
		devMode:    cfg.DevMode,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		ctx:        ctx,
		cancel:     cancel,
	}

	session.AddHandler(b.handleReady)
	session.AddHandler(b.handleMessageCreate)
	session.AddHandler(b.handleInteraction)

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent

	return b, nil
}

// Start opens the Discord connection.
func (b *Bot) Start() error {
	return b.session.Open()
}

// Stop cancels in-flight work and closes the session.
func (b *Bot) Stop() {
	b.cancel()
	b.wg.Wait()
	if err := b.session.Close(); err != nil {
		b.log.Warn("close discord session", zap.Error(err))
	}
}

func (b *Bot) handleReady(s *discordgo.Session, event *discordgo.Ready) {
	b.log.Info("discord bot logged in",
		zap.String("username", event.User.Username),
		zap.String("guild_id", b.guildID),
	)

	if err := b.registerCommands(s); err != nil {
		b.log.Error("register slash commands", zap.Error(err))
	}
}
