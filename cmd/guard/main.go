package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"groupguard/chat"
	"groupguard/chat/ws"
	"groupguard/domain"
	"groupguard/internal"
	"groupguard/observability"
	"groupguard/repositories"
	"groupguard/runtime"
)

// Exit codes to provide meaningful status to the operating system or
// service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Guard terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components and centralizes error reporting, so defers
// (database close, session close) execute before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config validation error: %w", err)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	// 2. Durable state (BadgerDB + corpus file)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	registry, err := runtime.LoadLockRegistry(
		logger,
		repositories.NewLockRepository(db),
		domain.MemberID(config.AdminID),
		config.CommandPrefix,
	)
	if err != nil {
		return exitConfig, fmt.Errorf("lock registry load failed: %w", err)
	}

	corpus := runtime.NewCorpus(logger, repositories.NewCorpusRepository(config.CorpusFilepath))
	if err := corpus.Load(); err != nil {
		return exitConfig, fmt.Errorf("corpus load failed: %w", err)
	}
	logger.Info("State loaded", "admin", registry.Admin(), "prefix", registry.Prefix(),
		"messages", corpus.Len())

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Gateway session. A rejected dial is fatal; nothing else runs.
	session, err := ws.Authenticate(ctx, logger, chat.Credentials{
		URL:   config.GatewayURL,
		Token: config.GatewayToken,
	})
	if err != nil {
		return exitRuntime, err
	}
	defer session.Close()

	// 5. Engine wiring: dispatcher and reconciler share the engine's single
	// event timeline through its Runner.
	engine := runtime.NewEngine(logger, session, config.BufferSize)
	dispatcher := runtime.NewDispatcher(logger, registry, corpus, session, engine)
	reconciler := runtime.NewReconciler(logger, registry, session, runtime.WallClock{}, engine)
	engine.Attach(dispatcher, reconciler)

	errChan := make(chan error, 2)

	go func() {
		logger.Info("Starting guard engine", "gateway", config.GatewayURL)
		if err := engine.Run(ctx); err != nil && ctx.Err() == nil {
			errChan <- fmt.Errorf("engine error: %w", err)
		}
	}()

	heartbeat := observability.NewHeartbeat(logger, config.HeartbeatInterval)
	go func() {
		if err := heartbeat.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("heartbeat stopped", "err", err)
		}
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	logger.Info("Program stopped cleanly")
	return exitOK, nil
}
