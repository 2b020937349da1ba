package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/materiais/internal/apiclient"
	"github.com/erazemk/materiais/internal/config"
	"github.com/erazemk/materiais/internal/db"
	"github.com/erazemk/materiais/internal/logging"
	"github.com/erazemk/materiais/internal/session"
	"github.com/erazemk/materiais/internal/store"
	"github.com/erazemk/materiais/internal/web"
)

// purgeInterval is how often expired sessions are removed.
const purgeInterval = time.Hour

func main() {
	fs := flag.NewFlagSet("materiais", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: materiais [flags]

Flags:
  -c, -config <path>       YAML config file (env: MATERIAIS_CONFIG)
  -a, -addr <host:port>    listen address (default: :8080)
  -b, -backend <url>       backend API base URL (default: http://localhost:3000/api)
  -d, -db <path>           SQLite session database (default: materiais.sqlite3)
  -l, -log <path>          log file path (default: no file, stdout/stderr only)
  -session-ttl <duration>  lifetime of sessions whose token has no expiry (default: 24h)
  -timeout <duration>      backend request timeout (default: 15s)
  -secure-cookie           mark the session cookie Secure (serve over HTTPS)
  -h, -help                show this help and exit

Every setting can also be given as MATERIAIS_<NAME> in the environment or a .env file.
`)
	}

	cfg, err := config.Load(fs, os.Args[1:], os.Getenv)
	if err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	// Set up structured logging: INFO/WARN → stdout, ERROR → stderr.
	// Optionally also write to a log file.
	closeLog, err := logging.Setup(cfg.LogPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	database, err := db.OpenWithSchema(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()
	slog.Info("database ready", "path", cfg.DBPath)

	ctx := context.Background()

	tokenKey, err := cfg.Key()
	if err != nil {
		return err
	}
	if tokenKey == nil {
		if tokenKey, err = store.GetSecret(ctx, database, store.TokenKeySetting, session.KeySize); err != nil {
			return err
		}
	}
	hashKey, err := store.GetSecret(ctx, database, store.CookieHashKeySetting, 32)
	if err != nil {
		return err
	}
	blockKey, err := store.GetSecret(ctx, database, store.CookieBlockKeySetting, 32)
	if err != nil {
		return err
	}

	manager, err := session.NewManager(database, apiclient.New(cfg.BackendURL, cfg.HTTPTimeout), tokenKey, cfg.SessionTTL)
	if err != nil {
		return err
	}

	router, err := web.NewRouter(manager, web.Options{
		HashKey:  hashKey,
		BlockKey: blockKey,
		Secure:   cfg.CookieSecure,
		MaxAge:   cfg.SessionTTL,
	})
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           web.LoggingMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.HTTPTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go purgeSessions(purgeCtx, manager)

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "backend", cfg.BackendURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	slog.Info("server stopped, closing database")
	return nil
}

// purgeSessions removes expired sessions at startup and then periodically.
func purgeSessions(ctx context.Context, manager *session.Manager) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		n, err := manager.PurgeExpired(ctx)
		if err != nil && ctx.Err() == nil {
			slog.Error("failed to purge expired sessions", "error", err)
		} else if n > 0 {
			slog.Info("purged expired sessions", "count", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
