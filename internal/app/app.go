package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"gigmarket/internal/config"
	"gigmarket/internal/database"
	"gigmarket/internal/i18n"
	"gigmarket/internal/middleware"
	"gigmarket/internal/modules/applicant"
	"gigmarket/internal/modules/conflict"
	inbox "gigmarket/internal/modules/notification"
	"gigmarket/internal/modules/order"
	"gigmarket/internal/modules/reminder"
	"gigmarket/internal/modules/review"
	"gigmarket/internal/notification"
	"gigmarket/internal/notification/push"
	"gigmarket/internal/pkg/background"
	"gigmarket/internal/pkg/jwt"
	"gigmarket/internal/pkg/lock"
	"gigmarket/internal/pkg/response"
	"gigmarket/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const tokenTTL = 24 * time.Hour

// App holds the wired services of one API process.
type App struct {
	Config  *config.Config
	DB      *gorm.DB
	Router  *gin.Engine
	Tokens  *jwt.Service
	Runner  *background.Runner
	Hub     *notification.Hub
	Bus     *notification.RedisBus
	Sweeper *reminder.Sweeper

	Orders     *order.Service
	Applicants *applicant.Service

	redis  *redis.Client
	logger *slog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := migrate(ctx, cfg, db); err != nil {
		return nil, err
	}

	a := &App{Config: cfg, DB: db, logger: logger}

	var (
		publisher notification.Publisher
		locker    lock.Locker = lock.Local{}
		pusher    notification.Pusher
	)
	a.Hub = notification.NewHub(logger)
	publisher = a.Hub

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		a.redis = redis.NewClient(opts)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			_ = a.redis.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		a.Bus = notification.NewRedisBus(a.redis, a.Hub, logger)
		publisher = a.Bus
		locker = lock.NewRedisLocker(a.redis)
		logger.Info("redis enabled", "addr", opts.Addr)
	}

	if cfg.FCMCredentialsFile != "" {
		fcm, err := push.NewFCMClient(ctx, cfg.FCMCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("init fcm: %w", err)
		}
		pusher = fcm
		logger.Info("push notifications enabled")
	}

	users := repository.NewUserRepository(db)
	orders := repository.NewOrderRepository(db)
	applicants := repository.NewApplicantRepository(db)
	reviews := repository.NewReviewRepository(db)
	reminders := repository.NewReminderRepository(db)
	notifications := repository.NewNotificationRepository(db)
	devices := repository.NewDeviceTokenRepository(db)

	a.Runner = background.NewRunner(logger, cfg.SideEffectTimeout)
	a.Tokens = jwt.New(cfg.JWTSecret, tokenTTL)

	translator := i18n.NewTranslator(users, cfg.DefaultLocale, logger)
	dispatcher := notification.NewDispatcher(notifications, publisher, devices, pusher, logger)
	notifier := notification.NewNotifier(a.Runner, translator, dispatcher, logger)

	resolver := conflict.NewResolver(applicants, cfg.Location)
	scheduler := reminder.NewScheduler(reminders, orders, notifier, reminder.Config{
		Location:       cfg.Location,
		WorkHour:       cfg.WorkReminderHour,
		CompleteHour:   cfg.CompleteReminderHour,
		FastPathWindow: cfg.FastPathWindow,
		SweepWindow:    cfg.SweepInterval,
	}, logger)
	a.Sweeper = reminder.NewSweeper(scheduler, locker, reminder.SweeperConfig{
		Interval:     cfg.SweepInterval,
		InitialDelay: cfg.SweepInitialDelay,
		LockTTL:      cfg.SweepLockTTL,
	}, logger)

	a.Orders = order.NewService(orders, applicants, resolver, scheduler, notifier, a.Runner, logger)
	a.Applicants = applicant.NewService(applicants, orders, a.Orders, resolver, users, scheduler, notifier, a.Runner, logger)
	reviewService := review.NewService(reviews, orders, applicants, logger)
	inboxService := inbox.NewService(notifications, devices)

	a.Router = a.routes(
		order.NewHandler(a.Orders),
		applicant.NewHandler(a.Applicants),
		review.NewHandler(reviewService),
		inbox.NewHandler(inboxService, a.Hub, cfg.CORSOrigins, logger),
		reminder.NewHandler(a.Sweeper),
	)
	return a, nil
}

func migrate(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if !database.IsPostgres(cfg.DatabaseURL) {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}
	if !cfg.AutoMigrate {
		return nil
	}
	sqlDB, err := database.OpenSQL(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer sqlDB.Close()
	if err := database.RunMigrations(ctx, sqlDB); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (a *App) routes(
	orders *order.Handler,
	applicants *applicant.Handler,
	reviews *review.Handler,
	notifications *inbox.Handler,
	reminders *reminder.Handler,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(a.logger))
	r.Use(middleware.CORS(a.Config.CORSOrigins))

	r.GET("/healthz", a.health)

	v1 := r.Group("/api/v1")

	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(a.Tokens))
	{
		orders.RegisterRoutes(protected)
		applicants.RegisterRoutes(protected)
		notifications.RegisterRoutes(protected)
	}
	reviews.RegisterRoutes(v1, protected)

	internal := v1.Group("/internal")
	internal.Use(middleware.InternalTokenAuth(a.Config.InternalToken, a.logger))
	reminders.RegisterRoutes(internal)

	return r
}

func (a *App) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := a.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		a.logger.Error("health check", "error", err)
		response.Error(c, http.StatusServiceUnavailable, "UNAVAILABLE", "database unreachable")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}

// Close releases connections after the HTTP server has stopped. Pending side
// effects are drained first so they can still reach the database.
func (a *App) Close() error {
	a.Runner.Wait()
	a.Hub.Close()

	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	return errors.Join(errs...)
}
