// Package app wires the concierge bot together: storage backend selection,
// the Telegram transport, the update dispatcher and the dialog engine.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/DenDmitriev/ConciergeChatBot/internal/dialog"
	"github.com/DenDmitriev/ConciergeChatBot/internal/messaging"
	"github.com/DenDmitriev/ConciergeChatBot/internal/store"
	"github.com/DenDmitriev/ConciergeChatBot/internal/telegram"
	"github.com/DenDmitriev/ConciergeChatBot/internal/texts"
	"github.com/DenDmitriev/ConciergeChatBot/internal/util"
)

// Run starts the bot and blocks until the process receives SIGINT or
// SIGTERM, or the transport shuts down.
func Run(telegramOpts []telegram.Option, storeOpts []store.Option, engineOpts []dialog.Option) error {
	st, err := openStore(storeOpts)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	catalog, err := texts.NewCatalog()
	if err != nil {
		return fmt.Errorf("failed to load text catalog: %w", err)
	}

	svc, err := telegram.NewClient(telegramOpts...)
	if err != nil {
		return fmt.Errorf("failed to create telegram client: %w", err)
	}

	listeners := messaging.NewListenerRegistry()
	dispatcher := messaging.NewDispatcher(svc, listeners)
	dispatcher.SetWorkerLimit(util.ParseIntEnv("CONCIERGE_WORKER_LIMIT", messaging.DefaultWorkerLimit))
	engine := dialog.NewEngine(st, svc, listeners, catalog, engineOpts...)
	engine.Register(dispatcher)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start telegram client: %w", err)
	}
	defer svc.Stop()

	slog.Info("Concierge bot running")
	return dispatcher.Run(ctx)
}

// openStore picks the backend from the configured DSN. No DSN means the
// in-memory store, useful for local experiments.
func openStore(storeOpts []store.Option) (store.Store, error) {
	var cfg store.Opts
	for _, opt := range storeOpts {
		opt(&cfg)
	}
	switch {
	case cfg.DSN == "":
		slog.Warn("No database DSN configured, using in-memory store")
		return store.NewInMemoryStore(), nil
	case store.DetectDSNType(cfg.DSN) == "postgres":
		slog.Info("Using PostgreSQL store")
		return store.NewPostgresStore(storeOpts...)
	default:
		slog.Info("Using SQLite store", "path", cfg.DSN)
		return store.NewSQLiteStore(storeOpts...)
	}
}
