package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vaahaka/vaahaka-credits/src/creditbot/bot"
	"github.com/vaahaka/vaahaka-credits/src/creditbot/config"
	"github.com/vaahaka/vaahaka-credits/src/data"
	"github.com/vaahaka/vaahaka-credits/src/ledger"
	"github.com/vaahaka/vaahaka-credits/src/logging"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "creditbot",
		Short: "Vaahaka Credits Discord bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()

	cmd.PersistentFlags().String("token", "", "Discord bot token (overrides env)")
	cmd.PersistentFlags().String("guild-id", "", "Guild to register slash commands in (global when empty)")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("redis-url", "", "Redis URL for the upload event stream (optional)")
	cmd.PersistentFlags().Bool("dev-mode", false, "Bypass admin permission checks")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")

	bindFlag(cmd, "discord.token", "token")
	bindFlag(cmd, "discord.guild_id", "guild-id")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "redis.url", "redis-url")
	bindFlag(cmd, "dev_mode", "dev-mode")
	bindFlag(cmd, "log.level", "log-level")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := data.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		logger.Error("open database", zap.String("path", cfg.DatabasePath), zap.Error(err))
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	store := ledger.New(db)
	if err := store.Init(ctx); err != nil {
		logger.Error("initialize schema", zap.Error(err))
		return err
	}
	logger.Info("database initialized", zap.String("path", cfg.DatabasePath))

	rdb, err := data.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Error("connect redis", zap.Error(err))
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	b, err := bot.New(bot.Config{
		Token:   cfg.Token,
		GuildID: cfg.GuildID,
		DevMode: cfg.DevMode,
		Ledger:  store,
		Redis:   rdb,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("create bot", zap.Error(err))
		return err
	}

	if err := b.Start(); err != nil {
		logger.Error("start bot", zap.Error(err))
		return err
	}

	logger.Info("credit bot is running, press CTRL-C to exit")

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-signalCtx.Done()

	b.Stop()
	logger.Info("credit bot stopped gracefully")
	return nil
}
