package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"file-share-api/config"
	"file-share-api/internal/application/ports"
	"file-share-api/internal/application/services"
	"file-share-api/internal/domain/file"
	"file-share-api/internal/domain/user"
	"file-share-api/internal/infrastructure/blobstore"
	"file-share-api/internal/infrastructure/cache"
	"file-share-api/internal/infrastructure/db/postgres"
	fileDB "file-share-api/internal/infrastructure/db/postgres/file"
	userDB "file-share-api/internal/infrastructure/db/postgres/user"
	"file-share-api/internal/infrastructure/jwt"
	"file-share-api/internal/infrastructure/metrics"
	"file-share-api/internal/infrastructure/mq"
	"file-share-api/internal/interface/api/rest"
	"file-share-api/internal/interface/api/rest/middleware"
	"file-share-api/pkg/rmqconsumer"
)

const shutdownTimeout = 5 * time.Second

// App owns every long-lived instance. Nothing here is package level state.
type App struct {
	logger     *zap.Logger
	cfg        config.Config
	db         *pgxpool.Pool
	blobs      *blobstore.Store
	httpSrv    *http.Server
	router     *gin.Engine
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	events     ports.EventPublisher
	mq         ports.RabbitMQ
	mqConsumer ports.RMQConsumer

	fileRepo file.Repository
	userRepo user.Repository
	users    *cache.UserDirectory
	sweeper  *services.ExpirationSweeper
}

func NewApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{
		logger: logger,
		cfg:    cfg,
		events: mq.Noop{},
	}

	// metrics
	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)

	// db
	dbDsn, err := cfg.DBDSN()
	if err != nil {
		return nil, fmt.Errorf("DB config error: %w", err)
	}
	a.db, err = postgres.New(ctx, logger, dbDsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// blob store
	a.blobs, err = blobstore.NewFromConfig(ctx, cfg.Storage, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to init blob store: %w", err)
	}

	// rabbitMQ
	if cfg.MQ.Enabled {
		if err = a.initMQ(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	// repos
	a.fileRepo = fileDB.NewRepository(a.db)
	a.userRepo = userDB.NewRepository(a.db)
	a.users = cache.NewUserDirectory(a.userRepo, a.metrics, cfg.Cache.UserSize, cfg.Cache.UserTTL)

	a.sweeper = services.NewExpirationSweeper(
		a.fileRepo,
		a.blobs,
		a.events,
		a.metrics,
		logger,
		cfg.Sweeper,
		cfg.Upload.Retention,
		cfg.Storage.Prefix,
	)

	return a, nil
}

func (a *App) initMQ(ctx context.Context) error {
	rabbitDsn, err := a.cfg.AMQPDSN()
	if err != nil {
		return fmt.Errorf("RabbitMQ config error: %w", err)
	}

	rbMQ := mq.New(a.cfg.MQ, a.logger.Named("mq"))
	if err = rbMQ.Connect(ctx, rabbitDsn); err != nil {
		return fmt.Errorf("failed to connect to rabbitMQ: %w", err)
	}
	a.mq, a.events = rbMQ, rbMQ
	if err = rbMQ.Init(); err != nil {
		return fmt.Errorf("failed init rabbitMQ: %w", err)
	}

	// the consumer shares the publisher connection
	consumer := rmqconsumer.New(a.cfg.MQ, a.logger.Named("mq_consumer"), rbMQ.GetConn())
	if err = consumer.Init(); err != nil {
		return fmt.Errorf("failed to init rabbitMQ consumer: %w", err)
	}
	a.mqConsumer = consumer

	return nil
}

// InitControllers builds the services and mounts every route.
func (a *App) InitControllers() {
	// router
	switch a.cfg.App.Env {
	case gin.ReleaseMode, "prod", "production":
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogGin(a.logger, a.metrics))
	a.router = r

	// services
	jwtService := jwt.New(a.cfg.App.JWTSecret)
	authService := services.NewAuthService(jwtService, a.cfg.App.TokenTTL)
	userService := services.NewUserService(a.userRepo, a.metrics, a.logger)
	ingestor := services.NewUploadIngestor(
		a.fileRepo,
		a.blobs,
		a.users,
		a.events,
		a.metrics,
		a.logger,
		a.cfg.Upload,
		a.cfg.Storage.Prefix,
	)
	fileService := services.NewFileService(ingestor, a.fileRepo, a.blobs, a.users, a.events, a.metrics, a.logger)

	// controllers
	rest.NewAuthController(r, a.logger, userService, authService)
	rest.NewUserController(r, userService, a.logger, jwtService)
	rest.NewFileController(r, fileService, a.logger, jwtService, a.cfg.Upload.MaxFileBytes)
	rest.NewAdminController(r, a.sweeper, a.logger, jwtService)

	// ops
	r.GET(rest.RouteHealth, a.healthHandler)
	r.GET(rest.RouteMetrics, gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	a.httpSrv = &http.Server{
		Addr:              a.cfg.App.Host + ":" + a.cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (a *App) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		a.logger.Warn("health check: db unreachable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *App) Close() {
	if a.mqConsumer != nil {
		if err := a.mqConsumer.Close(); err != nil {
			a.logger.Warn("rabbitMQ consumer close", zap.Error(err))
		}
	}
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			a.logger.Warn("rabbitMQ close", zap.Error(err))
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// Run - The central place to launch and manage our application and
// parallel processes through a single context.
func (a *App) Run(ctx context.Context) error {
	if a.httpSrv == nil {
		return errors.New("controllers are not initialised")
	}

	// context with os signals cancel chan
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// errgroup cancels every worker once one of them fails
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting "+a.cfg.App.Name, zap.String("addr", a.httpSrv.Addr))
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server "+a.cfg.App.Name+" error: %w", err)
		}

		return nil
	})

	if a.cfg.Sweeper.Enabled {
		g.Go(func() error {
			return a.sweeper.Run(ctx)
		})
	}

	if a.mq != nil {
		g.Go(func() error {
			a.mq.PublisherWorker(ctx)
			return nil
		})
	}
	if a.mqConsumer != nil {
		g.Go(func() error {
			a.mqConsumer.DeliveryWorker(ctx)
			return nil
		})
	}

	<-ctx.Done()

	a.logger.Info("shutting down " + a.cfg.App.Name + " gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown "+a.cfg.App.Name+" error", zap.Error(err))
		return err
	}

	if err := g.Wait(); err != nil {
		a.logger.Error(a.cfg.App.Name+" returning an error", zap.Error(err))
		return err
	}

	// handlers finished during Shutdown, so the buffer holds their last events
	if a.mq != nil {
		if n := a.mq.Flush(shutdownCtx); n > 0 {
			a.logger.Info("flushed pending events", zap.Int("count", n))
		}
	}

	a.logger.Info(a.cfg.App.Name + " gracefully stopped")

	return nil
}

// SweepOnce runs a single expiration pass, for cron style deployments.
func (a *App) SweepOnce(ctx context.Context) (file.SweepReport, error) {
	report, err := a.sweeper.Sweep(ctx)
	if a.mq != nil {
		a.mq.Flush(ctx)
	}
	return report, err
}

func (a *App) Logger() *zap.Logger { return a.logger }

// Migrate applies the embedded schema without starting the app.
func Migrate(cfg config.Config, logger *zap.Logger) error {
	dsn, err := cfg.MigrateDSN()
	if err != nil {
		return fmt.Errorf("DB config error: %w", err)
	}
	return postgres.Migrate(logger, dsn)
}
