package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"lms-commerce/internal/auth"
	"lms-commerce/internal/config"
	"lms-commerce/internal/db"
	"lms-commerce/internal/events"
	"lms-commerce/internal/gateway"
	"lms-commerce/internal/httpserver"
	"lms-commerce/internal/logging"
	cartrepo "lms-commerce/internal/repository/cart"
	catalogrepo "lms-commerce/internal/repository/catalog"
	enrollmentrepo "lms-commerce/internal/repository/enrollment"
	purchaserepo "lms-commerce/internal/repository/purchase"
	userrepo "lms-commerce/internal/repository/user"
	"lms-commerce/internal/service/access"
	cartsvc "lms-commerce/internal/service/cart"
	catalogsvc "lms-commerce/internal/service/catalog"
	"lms-commerce/internal/service/checkout"
	enrollmentsvc "lms-commerce/internal/service/enrollment"
	usersvc "lms-commerce/internal/service/user"

	"github.com/joho/godotenv"
	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "api",
		Usage: "serve the LMS commerce HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address, overrides HTTP_ADDR"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("api exited")
	}
}

func run(c *cli.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if err := cfg.ValidateAPI(); err != nil {
		return err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.HTTPAddr = addr
	}
	logger := logging.New("api", cfg.LogLevel, cfg.LogFormat)

	ctx := c.Context
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		return pkgerrors.Wrap(err, "connect to db")
	}
	defer pool.Close()

	pub, closePub := newPublisher(ctx, cfg, logger)
	defer closePub()

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	catalogRepo := catalogrepo.NewPostgres(pool, logger)
	purchaseRepo := purchaserepo.NewPostgres(pool, logger)

	users := usersvc.New(userrepo.NewPostgres(pool, logger), tokens)
	catalog := catalogsvc.New(catalogRepo, purchaseRepo)
	cart := cartsvc.New(cartrepo.NewPostgres(pool, logger), catalogRepo, purchaseRepo)
	enrollments := enrollmentsvc.New(enrollmentrepo.NewPostgres(pool, logger), catalogRepo)
	orders := checkout.New(
		checkout.NewPostgresStore(pool, logger),
		newGateway(cfg, logger),
		access.NewGrantor(logger),
		pub,
		cfg.Currency,
		logger,
	)

	srv := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		Users:          users,
		Tokens:         tokens,
		Catalog:        catalog,
		Cart:           cart,
		Checkout:       orders,
		Enrollments:    enrollments,
		DB:             pool,
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.WithField("signal", sig.String()).Info("shutting down")
	case err := <-serverErr:
		logger.WithError(err).Error("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return pkgerrors.Wrap(err, "graceful shutdown")
	}
	logger.Info("server stopped")
	return nil
}

func newGateway(cfg config.Config, logger logrus.FieldLogger) gateway.Gateway {
	if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
		logger.Warn("razorpay keys not set, paid checkout disabled")
		return gateway.Disabled{}
	}
	gw, err := gateway.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, logger)
	if err != nil {
		logger.WithError(err).Warn("razorpay init failed, paid checkout disabled")
		return gateway.Disabled{}
	}
	return gw
}

func newPublisher(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (events.Publisher, func()) {
	if cfg.RedisAddr == "" {
		return events.NoopPublisher{}, func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).WithField("addr", cfg.RedisAddr).Warn("redis unavailable, order events disabled")
		_ = client.Close()
		return events.NoopPublisher{}, func() {}
	}
	return events.NewRedisPublisher(client, cfg.EventsChannel, logger), func() { _ = client.Close() }
}
