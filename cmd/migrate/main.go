package main

import (
	"context"
	"flag"

	"go.uber.org/zap"

	"pharmacy-store/internal/config"
	"pharmacy-store/internal/db"
	"pharmacy-store/internal/logging"
	"pharmacy-store/internal/migrate"
)

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "Print the current schema version and exit")
	flag.Parse()

	cfg := config.FromEnv()
	logger := logging.MustNew("migrate", cfg.Env)
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if !showVersion {
		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Fatal("apply migrations", zap.Error(err))
		}
		logger.Info("migrations applied")
	}

	version, dirty, err := migrate.Version(ctx, pool)
	if err != nil {
		logger.Fatal("read schema version", zap.Error(err))
	}
	logger.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
}
