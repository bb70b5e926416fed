// Package main is the entry point for the payment API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"payway/internal/config"
	"payway/internal/events"
	"payway/internal/handlers"
	"payway/internal/logger"
	"payway/internal/metrics"
	"payway/internal/middleware"
	"payway/internal/repositories"
	"payway/internal/repositories/cache"
	"payway/internal/routes"
	"payway/internal/services/gateway"
	"payway/internal/services/gateway/paymob"
	"payway/internal/services/gateway/razorpay"
	"payway/internal/services/gateway/stripe"
	"payway/internal/services/gateway/tap"
	"payway/internal/services/gateway/transport"
	"payway/internal/services/gateway/types"
	"payway/internal/services/notification"
	"payway/internal/services/otp"
	"payway/internal/services/payment"
	"payway/internal/services/wallet"
	"payway/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	envErr := config.LoadEnv()
	cfg := config.Load()

	if err := logger.Init(cfg.Production); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	lg := logger.L()
	if envErr != nil {
		lg.Info("no .env file loaded", zap.Error(envErr))
	}

	if err := run(cfg, lg); err != nil {
		lg.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, lg *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repositories.Connect(cfg.DatabaseURL, repositories.DBConfig{
		MaxIdleConns:    config.GetIntEnv("DB_MAX_IDLE_CONNS", repositories.DefaultDBConfig.MaxIdleConns),
		MaxOpenConns:    config.GetIntEnv("DB_MAX_OPEN_CONNS", repositories.DefaultDBConfig.MaxOpenConns),
		ConnMaxLifetime: config.GetDurationEnv("DB_CONN_MAX_LIFETIME", repositories.DefaultDBConfig.ConnMaxLifetime),
		ConnMaxIdleTime: config.GetDurationEnv("DB_CONN_MAX_IDLE_TIME", repositories.DefaultDBConfig.ConnMaxIdleTime),
	}, lg)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	defer sqlDB.Close()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if err := repositories.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	lg.Info("connected to database")

	redisStore := cache.NewRedisStore(cache.NewRedisClient(&cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
	}))
	defer redisStore.Close()
	if err := redisStore.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		lg.Info("publishing payment events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}
	defer publisher.Close()

	adapters := buildAdapters(cfg)
	factory := gateway.NewFactory(currencyTable(cfg.CurrencyMap), adapters...)
	gateways := make([]string, 0, len(adapters))
	for _, gw := range factory.Gateways() {
		gateways = append(gateways, string(gw))
	}
	lg.Info("payment gateways configured", zap.Strings("gateways", gateways))

	collector := metrics.Collector{}
	userRepo := repositories.NewUserRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)

	paymentService := payment.NewService(paymentRepo, userRepo, factory, payment.Config{
		CallbackURL:     cfg.CallbackURL,
		RedirectURL:     cfg.RedirectURL,
		ClientStatusURL: cfg.ClientStatusURL,
	}, collector, lg.Named("payment"))
	webhooks := payment.NewWebhookProcessor(paymentRepo, factory, paymentService,
		cfg.ConfirmationKey, publisher, collector, lg.Named("webhook"))

	policy, err := wallet.ParsePolicy(cfg.Wallet.NegativeBalancePolicy)
	if err != nil {
		return err
	}
	reward, err := decimal.NewFromString(cfg.Wallet.ReferralReward)
	if err != nil {
		return fmt.Errorf("invalid WALLET_REFERRAL_REWARD: %w", err)
	}
	walletService := wallet.NewService(repositories.NewWalletRepository(db), userRepo, redisStore, wallet.Config{
		Policy:         policy,
		ReferralReward: reward,
	}, collector, lg.Named("wallet"))

	// Validate has already rejected anything but these two
	var sender notification.Sender
	switch cfg.SMS.Provider {
	case config.SMSProviderHTTP:
		sender = notification.NewSMSSender(notification.SMSConfig{
			URL:    cfg.SMS.URL,
			APIKey: cfg.SMS.APIKey,
			Sender: cfg.SMS.Sender,
		}, transportObserver())
	default:
		lg.Warn("SMS_PROVIDER is log, verification codes are written to the log")
		sender = notification.NewLogSender(lg.Named("sms"))
	}
	limiter := otp.NewLimiter(redisStore, sender, otp.Config{
		CodeLength:  cfg.OTP.CodeLength,
		TTL:         cfg.OTP.TTL,
		MaxAttempts: cfg.OTP.MaxAttempts,
		HourlyLimit: cfg.OTP.HourlyLimit,
		Window:      cfg.OTP.Window,
		HashCost:    cfg.OTP.HashCost,
	}, otp.WithMetrics(collector), otp.WithLogger(lg.Named("otp")))

	app := fiber.New(fiber.Config{
		AppName:      "payway",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: response.Error,
	})
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key, X-Request-ID",
		AllowMethods: "GET,POST,PATCH,HEAD,OPTIONS",
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(middleware.Metrics())

	routes.SetupRoutes(app, routes.Handlers{
		Payment: handlers.NewPaymentHandler(paymentService, webhooks),
		Wallet:  handlers.NewWalletHandler(walletService),
		OTP:     handlers.NewOTPHandler(limiter),
		Health: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"database": handlers.PingFunc(sqlDB.PingContext),
			"redis":    redisStore,
		}),
	}, middleware.NewAuthMiddleware(cfg.JWTSecret))

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + cfg.Port)
	}()
	lg.Info("server started", zap.String("port", cfg.Port))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	if err := app.ShutdownWithTimeout(15 * time.Second); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

func transportObserver() transport.Option {
	return transport.WithObserver(metrics.ObserveGatewayCall)
}

// buildAdapters registers a gateway only when its credentials are present.
func buildAdapters(cfg *config.Config) []types.Adapter {
	var out []types.Adapter
	if cfg.Tap.SecretKey != "" {
		out = append(out, tap.New(tap.Config{
			BaseURL:         cfg.Tap.BaseURL,
			SecretKey:       cfg.Tap.SecretKey,
			ConfirmationKey: cfg.ConfirmationKey,
			Timeout:         cfg.GatewayTimeout,
			Observer:        metrics.ObserveGatewayCall,
		}))
	}
	if cfg.Paymob.SecretKey != "" {
		out = append(out, paymob.New(paymob.Config{
			BaseURL:         cfg.Paymob.BaseURL,
			SecretKey:       cfg.Paymob.SecretKey,
			PublicKey:       cfg.Paymob.PublicKey,
			IntegrationID:   cfg.Paymob.IntegrationID,
			ConfirmationKey: cfg.ConfirmationKey,
			Timeout:         cfg.GatewayTimeout,
			Observer:        metrics.ObserveGatewayCall,
		}))
	}
	if cfg.Stripe.SecretKey != "" {
		out = append(out, stripe.New(stripe.Config{
			BaseURL:         cfg.Stripe.BaseURL,
			SecretKey:       cfg.Stripe.SecretKey,
			ConfirmationKey: cfg.ConfirmationKey,
			Timeout:         cfg.GatewayTimeout,
			Observer:        metrics.ObserveGatewayCall,
		}))
	}
	if cfg.Razorpay.KeyID != "" {
		out = append(out, razorpay.New(razorpay.Config{
			KeyID:           cfg.Razorpay.KeyID,
			KeySecret:       cfg.Razorpay.KeySecret,
			ConfirmationKey: cfg.ConfirmationKey,
			Timeout:         cfg.GatewayTimeout,
			Observer:        metrics.ObserveGatewayCall,
		}))
	}
	return out
}

func currencyTable(m map[string]string) map[string]types.GatewayType {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]types.GatewayType, len(m))
	for cur, gw := range m {
		out[cur] = types.GatewayType(gw)
	}
	return out
}
