package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"email-reminder/internal/api/http/handler"
	"email-reminder/internal/api/http/route"
	"email-reminder/internal/api/http/view"
	"email-reminder/internal/apperrors"
	"email-reminder/internal/config"
	"email-reminder/internal/model"
	"email-reminder/internal/msg/delivery"
	"email-reminder/internal/repository"
	"email-reminder/internal/scheduler"
	"email-reminder/internal/service"
	"email-reminder/pkg/kafka"
	"email-reminder/pkg/mailer"
	"email-reminder/pkg/postgres"
	"email-reminder/pkg/redis"
	"email-reminder/pkg/server"
	"email-reminder/pkg/sqlite"
)

type ReminderRepository interface {
	Ping(ctx context.Context) error
	Insert(ctx context.Context, reminder *model.Reminder) (uuid.UUID, error)
	SelectDue(ctx context.Context, now time.Time, maxAttempts int) ([]model.Reminder, error)
	SelectAllOrderedBySchedule(ctx context.Context) ([]model.Reminder, error)
	UpdateAsSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	UpdateAttempt(ctx context.Context, id uuid.UUID, attemptedAt time.Time, reason string) error
}

type HealthService interface {
	IsOK(ctx context.Context) (bool, error)
}

type ReminderService interface {
	Create(ctx context.Context, req model.ReminderCreateRequest) (*model.Reminder, error)
	List(ctx context.Context) ([]model.Reminder, error)
}

type HealthHandler interface {
	Ping(c *gin.Context)
	Health(c *gin.Context)
}

type PageHandler interface {
	Home(c *gin.Context)
	About(c *gin.Context)
	ScheduleForm(c *gin.Context)
}

type ReminderHandler interface {
	Create(c *gin.Context)
	List(c *gin.Context)
}

type App struct {
	Cfg        *config.Config
	Log        *zap.Logger
	Handler    *Handler
	Service    *Service
	DB         *Database
	RDB        redis.Redis // nil unless redis.enable
	Mailer     mailer.Mailer
	HTTPServer server.HTTPServer
	Scheduler  *scheduler.Scheduler
	EBus       *EBus
}

// Database holds whichever store driver was opened.
type Database struct {
	Driver   string
	Postgres postgres.Postgres
	SQLite   *gorm.DB
}

func (d *Database) Close() error {
	switch d.Driver {
	case config.DriverSQLite:
		return sqlite.Close(d.SQLite)
	default:
		d.Postgres.Close()
		return nil
	}
}

type Repository struct {
	ReminderRepository ReminderRepository
}

type Service struct {
	HealthService   HealthService
	ReminderService ReminderService
}

type Handler struct {
	HealthHandler   HealthHandler
	PageHandler     PageHandler
	ReminderHandler ReminderHandler
}

// EBus is nil unless kafka.enable.
type EBus struct {
	Producer          kafka.Producer
	DeliveryPublisher *delivery.Publisher
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := initDB(log, &cfg.Database)
	if err != nil {
		log.Error("Failed to initialize database", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	rdb, err := initRedis(log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize redis", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	mlr, err := initMailer(log, &cfg.Mailer)
	if err != nil {
		log.Error("Failed to initialize mailer", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	eBus, err := initEBus(log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize ebus", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize ebus: %w", err)
	}

	repo := initRepository(log, db)

	svc := initService(log, repo)

	hdl := initHandler(log, svc)

	httpServer, err := initHTTPServer(log, cfg, hdl)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize http server: %w", err)
	}

	sch := initScheduler(log, &cfg.Scheduler, repo, mlr, rdb, eBus)

	return &App{
		Cfg:        cfg,
		Log:        log,
		Handler:    hdl,
		Service:    svc,
		DB:         db,
		RDB:        rdb,
		Mailer:     mlr,
		HTTPServer: httpServer,
		Scheduler:  sch,
		EBus:       eBus,
	}, nil
}

func MustNew(cfg *config.Config, log *zap.Logger) *App {
	app, err := New(cfg, log)
	if err != nil {
		panic(err)
	}
	return app
}

// Run serves HTTP and drives the scheduler until ctx is cancelled or the server fails.
// It returns only after the scheduler has stopped, so Shutdown may close the store.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 1)

	go func() {
		a.Log.Info("HTTP server started", zap.String("addr", a.HTTPServer.Addr()))

		if err := a.HTTPServer.Run(); err != nil {
			errs <- err
		}
	}()

	schedulerDone := make(chan struct{})

	go func() {
		defer close(schedulerDone)

		a.Scheduler.Run(ctx)
	}()

	var err error

	select {
	case err = <-errs:
		cancel()
	case <-ctx.Done():
	}

	<-schedulerDone

	return err
}

func (a *App) Shutdown() error {
	var errs []error

	if err := a.HTTPServer.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown http server: %w", err))
	}

	a.Log.Debug("Http server shutdown")

	if err := a.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}

	a.Log.Debug("Database closed")

	if a.RDB != nil {
		if err := a.RDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close RDB: %w", err))
		}

		a.Log.Debug("Redis closed")
	}

	if a.EBus != nil {
		if err := a.EBus.Producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close kafka producer: %w", err))
		}

		a.Log.Debug("Kafka producer closed")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", apperrors.ErrShutdown, errors.Join(errs...))
	}

	return nil
}

func initDB(log *zap.Logger, cfg *config.Database) (*Database, error) {
	switch cfg.Driver {
	case config.DriverPostgres, "":
		db, err := postgres.New(&postgres.Config{
			URL:      cfg.URL,
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			Name:     cfg.Name,
			SSLMode:  cfg.SSLMode,
			MaxConns: cfg.MaxConns,
			MinConns: cfg.MinConns,
			Migration: postgres.Migration{
				Path:      cfg.Migration.Path,
				AutoApply: cfg.Migration.AutoApply,
			},
		})
		if err != nil {
			return nil, err
		}

		log.Debug("Postgres initialized")

		return &Database{Driver: config.DriverPostgres, Postgres: db}, nil
	case config.DriverSQLite:
		db, err := sqlite.Open(&sqlite.Config{
			Path:   cfg.SQLitePath,
			Models: []any{&model.Reminder{}},
		})
		if err != nil {
			return nil, err
		}

		log.Debug("SQLite initialized", zap.String("path", cfg.SQLitePath))

		return &Database{Driver: config.DriverSQLite, SQLite: db}, nil
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownDatabaseDriver, cfg.Driver)
	}
}

func initRedis(log *zap.Logger, cfg *config.Redis) (redis.Redis, error) {
	if !cfg.Enable {
		log.Debug("Redis disabled, scan lock is process-local")
		return nil, nil
	}

	rdb, err := redis.New(&redis.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, err
	}

	log.Debug("Redis initialized")

	return rdb, nil
}

func initMailer(log *zap.Logger, cfg *config.Mailer) (mailer.Mailer, error) {
	driver := cfg.Driver
	if driver == config.MailerSMTP && cfg.Username == "" {
		log.Warn("Mail credentials are not set, reminders will not be delivered")
		driver = config.MailerNone
	}

	mlr, err := mailer.New(&mailer.Config{
		Driver:             driver,
		Host:               cfg.Host,
		Port:               cfg.Port,
		Username:           cfg.Username,
		Password:           cfg.Password,
		From:               cfg.From,
		UseTLS:             cfg.UseTLS,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		SendGridAPIKey:     cfg.SendGridAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUnknownMailerDriver, err)
	}

	log.Debug("Mailer initialized", zap.String("driver", driver), zap.String("from", mlr.From()))

	return mlr, nil
}

func initRepository(log *zap.Logger, db *Database) *Repository {
	var reminderRepo ReminderRepository

	switch db.Driver {
	case config.DriverSQLite:
		reminderRepo = repository.NewReminderGormRepository(db.SQLite)
	default:
		reminderRepo = repository.NewReminderRepository(db.Postgres.Pool())
	}

	log.Debug("Reminder repository initialized", zap.String("driver", db.Driver))

	return &Repository{
		ReminderRepository: reminderRepo,
	}
}

func initService(log *zap.Logger, repo *Repository) *Service {
	healthSvc := service.NewHealthService(log, repo.ReminderRepository)
	log.Debug("Health service initialized")

	reminderSvc := service.NewReminderService(log, repo.ReminderRepository)
	log.Debug("Reminder service initialized")

	return &Service{
		HealthService:   healthSvc,
		ReminderService: reminderSvc,
	}
}

func initHandler(log *zap.Logger, svc *Service) *Handler {
	healthHandler := handler.NewHealthHandler(log, svc.HealthService)
	log.Debug("Health handler initialized")

	pageHandler := handler.NewPageHandler()
	log.Debug("Page handler initialized")

	reminderHandler := handler.NewReminderHandler(log, svc.ReminderService)
	log.Debug("Reminder handler initialized")

	return &Handler{
		HealthHandler:   healthHandler,
		PageHandler:     pageHandler,
		ReminderHandler: reminderHandler,
	}
}

func initHTTPServer(log *zap.Logger, cfg *config.Config, hdl *Handler) (server.HTTPServer, error) {
	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, err
	}

	router := route.SetupRouter(
		log,
		cfg,
		renderer,
		hdl.HealthHandler,
		hdl.PageHandler,
		hdl.ReminderHandler,
	)

	httpServer := server.NewHTTPServer(
		server.WithAddr(cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		server.WithTimeout(cfg.HTTPServer.Timeout.Read, cfg.HTTPServer.Timeout.Write, cfg.HTTPServer.Timeout.Idle),
		server.WithHandler(router),
	)

	return httpServer, nil
}

func initEBus(log *zap.Logger, cfg *config.Kafka) (*EBus, error) {
	if !cfg.Enable {
		log.Debug("Kafka disabled, delivery events are not published")
		return nil, nil
	}

	producer, err := kafka.NewProducer(
		cfg.Brokers,
		kafka.WithBalancer(kafka.Hash),
		kafka.WithRequiredAcks(kafka.RequireAll),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init kafka producer: %w", err)
	}

	log.Debug("Kafka producer initialized")

	return &EBus{
		Producer:          producer,
		DeliveryPublisher: delivery.NewPublisher(log, producer, cfg.Topic),
	}, nil
}

func initScheduler(
	log *zap.Logger,
	cfg *config.Scheduler,
	repo *Repository,
	mlr mailer.Mailer,
	rdb redis.Redis,
	eBus *EBus,
) *scheduler.Scheduler {
	opts := make([]scheduler.Option, 0, 2)

	if rdb != nil {
		ttl := scanLockTTL(cfg)
		if ttl != cfg.LockTTL {
			log.Warn("Scan lock TTL is shorter than one send, raising it",
				zap.Duration("configured", cfg.LockTTL),
				zap.Duration("effective", ttl),
			)
		}

		opts = append(opts, scheduler.WithLocker(scheduler.NewRedisLocker(rdb.Client(), scheduler.DefaultLockKey, ttl)))
	}

	if eBus != nil {
		opts = append(opts, scheduler.WithEventPublisher(eBus.DeliveryPublisher))
	}

	scanner := scheduler.NewScanner(
		log,
		scheduler.Config{
			Subject:      cfg.Subject,
			QueryTimeout: cfg.QueryTimeout,
			SendTimeout:  cfg.SendTimeout,
			MaxAttempts:  cfg.MaxAttempts,
		},
		repo.ReminderRepository,
		mlr,
		opts...,
	)

	log.Debug("Scanner initialized", zap.Duration("interval", cfg.Interval))

	return scheduler.NewScheduler(log, cfg.Interval, scanner)
}

// scanLockTTL is refreshed before every send, so it only has to outlive one send plus
// its status update and event publish.
func scanLockTTL(cfg *config.Scheduler) time.Duration {
	minimum := cfg.SendTimeout + 2*cfg.QueryTimeout
	if cfg.LockTTL < minimum {
		return minimum
	}

	return cfg.LockTTL
}
