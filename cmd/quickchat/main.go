package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"quick-chat/domain"
	"quick-chat/internal"
	"quick-chat/ledger"
	"quick-chat/repositories"
	"quick-chat/services"
	"quick-chat/storage"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and owns their cleanup, so deferred closes always execute.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Sent archive (BadgerDB)
	if err := os.MkdirAll(filepath.Dir(config.BadgerFilepath), 0o755); err != nil {
		return fmt.Errorf("archive directory: %w", err)
	}
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Debug("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Search index (Bluge)
	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Debug("Closing Bluge writer...")
		_ = blugeWriter.Close()
	}()

	// 4. Session
	session := ledger.New()
	service := services.NewMessageService(
		log,
		session,
		storage.NewFileStore(config.StoreDir, log),
		repositories.NewMessageRepository(db, log, config.LimitMessages),
		repositories.NewMessageIndex(blugeWriter, log),
		domain.RandomIDs,
		config.SearchLimit,
	)
	log.Debug("Session started", "session_id", session.SessionID())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Stored messages are loaded once at startup
	if _, err = service.LoadStored(ctx); err != nil {
		log.Warn("Continuing without stored messages", "error", err)
	}

	NewConsole(os.Stdin, os.Stdout, service).Run(ctx)
	log.Debug("Session ended", "session_id", session.SessionID(), "sent", service.TotalSent())
	return nil
}
