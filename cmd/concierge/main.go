package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/DenDmitriev/ConciergeChatBot/internal/app"
	"github.com/DenDmitriev/ConciergeChatBot/internal/dialog"
	"github.com/DenDmitriev/ConciergeChatBot/internal/store"
	"github.com/DenDmitriev/ConciergeChatBot/internal/telegram"
	"github.com/DenDmitriev/ConciergeChatBot/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for concierge state data
	DefaultStateDir = "/var/lib/concierge"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "concierge.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	telegramOpts := buildTelegramOptions(flags)
	storeOpts := buildStoreOptions(flags)
	var engineOpts []dialog.Option

	slog.Info("Bootstrapping concierge bot")
	slog.Debug("Final configuration", "dsn_set", *flags.dbDSN != "", "token_set", *flags.botToken != "")
	if err := app.Run(telegramOpts, storeOpts, engineOpts); err != nil {
		slog.Error("Concierge bot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Concierge bot exited successfully")
}

// Config holds environment configuration
type Config struct {
	BotToken    string
	DatabaseURL string
	StateDir    string
}

// Flags holds command line flag values
type Flags struct {
	botToken *string
	dbDSN    *string
	stateDir *string
}

// initializeLogger sets up structured logging
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("CONCIERGE_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		BotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    util.GetEnv("CONCIERGE_STATE_DIR", DefaultStateDir),
	}
	return config
}

// parseCommandLineFlags parses flags with environment values as defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		botToken: flag.String("token", config.BotToken, "Telegram bot API token"),
		dbDSN:    flag.String("db-dsn", config.DatabaseURL, "Database DSN (PostgreSQL URL or SQLite file path)"),
		stateDir: flag.String("state-dir", config.StateDir, "Directory for state data"),
	}
	flag.Parse()
	return flags
}

func buildTelegramOptions(flags Flags) []telegram.Option {
	var opts []telegram.Option
	if *flags.botToken != "" {
		opts = append(opts, telegram.WithToken(*flags.botToken))
	}
	opts = append(opts, telegram.WithPollTimeout(util.ParseDurationEnv("TELEGRAM_POLL_TIMEOUT", telegram.DefaultPollTimeout)))
	return opts
}

func buildStoreOptions(flags Flags) []store.Option {
	dsn := *flags.dbDSN
	if dsn == "" && *flags.stateDir != "" {
		dsn = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("No DSN set, defaulting to SQLite in state dir", "path", dsn)
	}
	var opts []store.Option
	if dsn == "" {
		return opts
	}
	if store.DetectDSNType(dsn) == "postgres" {
		opts = append(opts, store.WithPostgresDSN(dsn))
	} else {
		opts = append(opts, store.WithSQLiteDSN(dsn))
	}
	return opts
}
