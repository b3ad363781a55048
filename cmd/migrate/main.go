package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Skotchmaster/storefront-fulfillment/internal/config"
	"github.com/Skotchmaster/storefront-fulfillment/internal/db"
	"github.com/Skotchmaster/storefront-fulfillment/internal/logging"
	"github.com/Skotchmaster/storefront-fulfillment/internal/migrate"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	opt := migrate.DefaultOptions()

	var dsn string
	var timeout time.Duration
	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flagSet.StringVar(&dsn, "dsn", cfg.DatabaseURL, "postgres connection string (default: DATABASE_URL)")
	flagSet.BoolVar(&opt.CreateChecks, "checks", opt.CreateChecks, "create CHECK constraints")
	flagSet.BoolVar(&opt.CreateIndexes, "indexes", opt.CreateIndexes, "create secondary indexes")
	flagSet.BoolVar(&opt.CreateFKs, "fks", opt.CreateFKs, "create foreign keys")
	flagSet.DurationVar(&timeout, "timeout", 2*time.Minute, "overall migration timeout")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if dsn == "" {
		return fmt.Errorf("--dsn or DATABASE_URL is required")
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	gdb, err := db.Open(ctx, dsn)
	if err != nil {
		return err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}

	return migrate.Run(ctx, gdb, logger.With(zap.String("component", "migrate")), opt)
}
