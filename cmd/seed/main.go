package main

import (
	"context"
	"flag"
	"os"

	"go.uber.org/zap"

	"pharmacy-store/internal/config"
	"pharmacy-store/internal/db"
	"pharmacy-store/internal/logging"
	"pharmacy-store/internal/migrate"
	"pharmacy-store/internal/seed"
)

func main() {
	var opts seed.Options
	flag.StringVar(&opts.AdminEmail, "admin-email", os.Getenv("SEED_ADMIN_EMAIL"), "Email of the admin account to create")
	flag.StringVar(&opts.AdminPassword, "admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "Password of the admin account to create")
	flag.Parse()

	cfg := config.FromEnv()
	logger := logging.MustNew("seed", cfg.Env)
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}
	if opts.AdminEmail == "" || opts.AdminPassword == "" {
		logger.Warn("admin credentials not provided, skipping admin account")
	}
	if err := seed.Apply(ctx, pool, opts, logger); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}
}
