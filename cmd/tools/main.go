// Command tools is the operator CLI for the pond store.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"duckwatch/internal/config"
	"duckwatch/internal/db"
	"duckwatch/internal/migrate"
)

type Globals struct {
	DB       string `name:"db" env:"SQLITE_PATH" default:"../dev/sqlite/duckwatch.db" help:"Path to the SQLite database file."`
	LogLevel string `name:"log-level" env:"LOG_LEVEL" default:"info" enum:"debug,info,warn,error" help:"Log level."`
}

type cli struct {
	Globals

	Migrate migrateCmd `cmd:"" help:"Apply pending schema migrations."`
	Seed    seedCmd    `cmd:"" help:"Apply migrations, then load demo pond P1 with two lanes."`
}

type runContext struct {
	ctx    context.Context
	logger *slog.Logger
}

type migrateCmd struct{}

func (migrateCmd) Run(g *Globals, rc *runContext) error {
	conn, err := open(rc.ctx, g, rc.logger)
	if err != nil {
		return err
	}
	defer closeDB(conn, rc.logger)

	n, err := migrate.Run(rc.ctx, conn, rc.logger)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Printf("migrations applied: %d\n", n)
	return nil
}

type seedCmd struct{}

func (seedCmd) Run(g *Globals, rc *runContext) error {
	conn, err := open(rc.ctx, g, rc.logger)
	if err != nil {
		return err
	}
	defer closeDB(conn, rc.logger)

	if _, err := migrate.Run(rc.ctx, conn, rc.logger); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := migrate.SeedDemo(rc.ctx, conn); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Println("demo pond P1 seeded")
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	var c cli
	kctx := kong.Parse(&c,
		kong.Name("tools"),
		kong.Description("DuckWatch operator tools."),
		kong.UsageOnError(),
	)

	level := new(slog.LevelVar)
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		kctx.FatalIfErrorf(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := kctx.Run(&c.Globals, &runContext{ctx: ctx, logger: logger})
	kctx.FatalIfErrorf(err)
}

func open(ctx context.Context, g *Globals, logger *slog.Logger) (*sql.DB, error) {
	cfg := config.Config{
		DBDriver:       "sqlite3",
		SQLitePath:     g.DB,
		DBMaxOpenConns: 1,
		DBMaxIdleConns: 1,
	}
	return db.Open(ctx, cfg, logger)
}

func closeDB(conn *sql.DB, logger *slog.Logger) {
	if err := db.Close(conn); err != nil {
		logger.Error("db close", "error", err)
	}
}
