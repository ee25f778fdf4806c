package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"pharmacy-store/internal/config"
	"pharmacy-store/internal/db"
	"pharmacy-store/internal/domain"
	"pharmacy-store/internal/importer"
	"pharmacy-store/internal/logging"
	"pharmacy-store/internal/repository/lookup"
	"pharmacy-store/internal/repository/product"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to the product catalog CSV")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger := logging.MustNew("importer", cfg.Env)
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	lookups := make([]importer.LookupWriter, 0, 3)
	for _, kind := range []domain.LookupKind{domain.KindCategory, domain.KindUnit, domain.KindTrademark} {
		repo, err := lookup.NewPostgres(pool, kind)
		if err != nil {
			logger.Fatal("init lookup repo", zap.String("kind", string(kind)), zap.Error(err))
		}
		lookups = append(lookups, repo)
	}

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, product.NewPostgres(pool, logger), lookups, logger)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatal("import failed", zap.Int("imported", count), zap.Error(err))
	}

	logger.Info("import complete",
		zap.Int("products", count),
		zap.String("file", filePath),
		zap.Duration("took", time.Since(start).Truncate(time.Millisecond)),
	)
}
