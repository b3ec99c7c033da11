package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/rs/cors"

	"alumnet/auth"
	"alumnet/infrastructure/rest"
	"alumnet/infrastructure/ws"
	"alumnet/repositories"
	"alumnet/runtime"
	"alumnet/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so every defer (store cleanup included)
// executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Message store
	store, cleanup, err := openStore(config, log)
	if err != nil {
		return err
	}
	defer cleanup()

	// 3. Core wiring: one registry instance, injected everywhere
	verifier := auth.NewVerifier(config.JWTSecret)
	registry := runtime.NewRegistry(log)
	router := runtime.NewRouter(log, store, registry)

	// The broadcaster needs the session directory, which the websocket
	// server owns, and the service needs the broadcaster: wire bottom-up
	// and attach the directory last.
	broadcaster := runtime.NewPresenceBroadcaster(log, config.BroadcastBufferSize, config.SinkTimeout)
	chat := services.NewChatService(log, router, registry, broadcaster, config.MaxContentLength)
	wsServer := ws.NewServer(log, chat, verifier, splitOrigins(config.AllowedOrigins), config.ConnectionBufferSize)
	broadcaster.Attach(wsServer)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Background workers under supervision
	sup := runtime.NewSupervisor(log)
	sup.Add(broadcaster)
	go sup.Run(ctx)

	// 6. HTTP server: REST history endpoint + websocket upgrade
	restHandler := rest.NewHandler(log, chat, verifier)
	muxRouter := restHandler.SetupRouter()
	muxRouter.Handle("/ws", wsServer).Methods(http.MethodGet)

	corsWrapper := cors.New(cors.Options{
		AllowedOrigins:   splitOrigins(config.AllowedOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: corsWrapper.Handler(muxRouter)}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

// openStore selects the configured message store backend: BadgerDB by
// default, or the platform's MySQL messages table.
func openStore(config Config, log *slog.Logger) (repositories.IMessageRepository, func(), error) {
	switch config.StoreBackend {
	case "mysql":
		dsn := config.MySQLDSN
		if !strings.Contains(dsn, "parseTime") {
			if strings.Contains(dsn, "?") {
				dsn += "&parseTime=true"
			} else {
				dsn += "?parseTime=true"
			}
		}
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("mysql opening failed: %w", err)
		}
		if err = db.Ping(); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("mysql ping failed: %w", err)
		}
		repo := repositories.NewSQLMessageRepository(db, log)
		if err = repo.EnsureSchema(); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repo, func() {
			log.Info("Closing MySQL...")
			_ = db.Close()
		}, nil
	default:
		db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
			WithLoggingLevel(badger.INFO))
		if err != nil {
			return nil, nil, fmt.Errorf("database opening failed: %w", err)
		}
		return repositories.NewMessageRepository(db, log), func() {
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		}, nil
	}
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
