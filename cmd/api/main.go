package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pharmacy-store/internal/config"
	"pharmacy-store/internal/db"
	"pharmacy-store/internal/domain"
	"pharmacy-store/internal/httpserver"
	"pharmacy-store/internal/idempotency"
	"pharmacy-store/internal/logging"
	"pharmacy-store/internal/mail"
	"pharmacy-store/internal/metrics"
	"pharmacy-store/internal/migrate"
	"pharmacy-store/internal/payment"
	addressrepo "pharmacy-store/internal/repository/address"
	cartrepo "pharmacy-store/internal/repository/cart"
	locationrepo "pharmacy-store/internal/repository/location"
	lookuprepo "pharmacy-store/internal/repository/lookup"
	orderrepo "pharmacy-store/internal/repository/order"
	productrepo "pharmacy-store/internal/repository/product"
	statusrepo "pharmacy-store/internal/repository/statusorder"
	tokenrepo "pharmacy-store/internal/repository/token"
	userrepo "pharmacy-store/internal/repository/user"
	addresssvc "pharmacy-store/internal/service/address"
	authsvc "pharmacy-store/internal/service/auth"
	"pharmacy-store/internal/service/authz"
	cartsvc "pharmacy-store/internal/service/cart"
	"pharmacy-store/internal/service/catalog"
	ordersvc "pharmacy-store/internal/service/order"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.MustNew("api", cfg.Env)
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	if err := migrate.Apply(ctx, dbpool); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	var sender mail.Sender
	if cfg.SMTP.Host != "" {
		smtpClient := mail.NewSMTPClient(cfg.SMTP, logger)
		if err := smtpClient.Open(ctx); err != nil {
			logger.Fatal("open smtp connection", zap.Error(err))
		}
		defer func() { _ = smtpClient.Close() }()
		sender = smtpClient
	} else {
		logger.Warn("SMTP_HOST not set, emails are only logged")
		sender = mail.NewLogSender(logger)
	}

	var idem idempotency.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatal("connect to redis", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
		idem = idempotency.NewRedis(rdb, "checkout", cfg.IdempotencyTTL)
	} else {
		logger.Warn("REDIS_ADDR not set, checkout retries are not deduplicated")
	}

	payments := payment.NewRouter()
	orderDeps := ordersvc.Deps{
		Orders:      orderrepo.NewPostgres(dbpool, logger),
		Payments:    payments,
		Idempotency: idem,
		Logger:      logger,
	}
	if cfg.StripeSecretKey != "" {
		card := payment.NewStripe(cfg.StripeSecretKey, logger)
		payments.Register(domain.PaymentStripe, card)
		orderDeps.Intents = card
	}

	m := metrics.New("pharmacy")

	users := userrepo.NewPostgres(dbpool, logger)
	products := productrepo.NewPostgres(dbpool, logger)
	statuses := statusrepo.NewPostgres(dbpool)
	addresses := addressrepo.NewPostgres(dbpool)

	newLookup := func(kind domain.LookupKind) lookuprepo.Repository {
		repo, err := lookuprepo.NewPostgres(dbpool, kind)
		if err != nil {
			logger.Fatal("init lookup repo", zap.String("kind", string(kind)), zap.Error(err))
		}
		return repo
	}

	authService := authsvc.New(users, tokenrepo.NewPostgres(dbpool), sender, authsvc.Options{
		BaseURL:   cfg.AppBaseURL,
		AccessTTL: cfg.AccessTokenTTL,
	}, logger)

	orderDeps.Statuses = statuses
	orderDeps.Addresses = addresses
	orderDeps.Metrics = m

	catalogService := catalog.New(products, logger,
		newLookup(domain.KindCategory), newLookup(domain.KindUnit), newLookup(domain.KindTrademark))

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Auth:        authService,
		Guard:       authz.NewGuard(users),
		Catalog:     catalogService,
		Cart:        cartsvc.New(cartrepo.NewPostgres(dbpool, logger), m, logger),
		Addresses:   addresssvc.New(addresses, locationrepo.NewPostgres(dbpool)),
		Orders:      ordersvc.New(orderDeps),
		Metrics:     m,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go purgeTokens(janitorCtx, authService, time.Hour, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			logger.Error("server error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}

// purgeTokens drops expired tokens every interval until ctx is done.
func purgeTokens(ctx context.Context, auth *authsvc.Service, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := auth.PurgeExpiredTokens(ctx); err != nil {
				logger.Warn("purge expired tokens", zap.Error(err))
			}
		}
	}
}
