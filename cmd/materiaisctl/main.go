package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/erazemk/materiais/internal/apiclient"
	"github.com/erazemk/materiais/internal/cli"
	"github.com/erazemk/materiais/internal/config"
	"github.com/erazemk/materiais/internal/db"
	"github.com/erazemk/materiais/internal/logging"
	"github.com/erazemk/materiais/internal/session"
	"github.com/erazemk/materiais/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("materiaisctl", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: materiaisctl [flags] <command> [arguments]

Flags:
  -c, -config <path>       YAML config file (env: MATERIAIS_CONFIG)
  -b, -backend <url>       backend API base URL (default: http://localhost:3000/api)
  -d, -db <path>           SQLite session database (default: materiais.sqlite3)
  -l, -log <path>          log file path
  -session-ttl <duration>  lifetime of sessions whose token has no expiry (default: 24h)
  -timeout <duration>      backend request timeout (default: 15s)
  -h, -help                show this help and exit

Run "materiaisctl help" for the list of commands.
`)
	}

	cfg, err := config.Load(fs, os.Args[1:], os.Getenv)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	// Only errors reach the terminal; command output is the interface.
	closeLog, err := logging.Setup(cfg.LogPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.OpenWithSchema(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		return 1
	}
	defer database.Close()

	key, err := cfg.Key()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if key == nil {
		if key, err = store.GetSecret(ctx, database, store.TokenKeySetting, session.KeySize); err != nil {
			slog.Error("failed to load token key", "error", err)
			return 1
		}
	}

	manager, err := session.NewManager(database, apiclient.New(cfg.BackendURL, cfg.HTTPTimeout), key, cfg.SessionTTL)
	if err != nil {
		slog.Error("failed to create session manager", "error", err)
		return 1
	}

	app := cli.New(database, manager, os.Stdin, os.Stdout)
	if err := app.Restore(ctx); err != nil {
		slog.Error("failed to restore session", "error", err)
		return 1
	}
	return app.Run(ctx, fs.Args())
}
