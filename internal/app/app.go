package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"relay-back/internal/api/http/handler"
	"relay-back/internal/api/http/route"
	"relay-back/internal/apperrors"
	"relay-back/internal/config"
	"relay-back/internal/model"
	"relay-back/internal/msg/inbox"
	"relay-back/internal/msg/journal"
	"relay-back/internal/msg/outbox"
	"relay-back/internal/repository"
	"relay-back/internal/service"
	"relay-back/pkg/kafka"
	"relay-back/pkg/metrics"
	"relay-back/pkg/postgres"
	"relay-back/pkg/redis"
	"relay-back/pkg/server"
)

type HealthHandler interface {
	Ping(c *gin.Context)
	Health(c *gin.Context)
}

type MessageHandler interface {
	SendMessage(c *gin.Context)
	GetMessages(c *gin.Context)
	AcknowledgeMessage(c *gin.Context)
	RemoveMessage(c *gin.Context)
}

type InboxHandler interface {
	GetInbox(c *gin.Context)
	ClearInbox(c *gin.Context)
	StreamInbox(c *gin.Context)
}

type UserHandler interface {
	CreateUser(c *gin.Context)
	ListUsers(c *gin.Context)
}

type Runner interface {
	Run(ctx context.Context)
}

type App struct {
	Cfg        *config.Config
	Log        *zap.Logger
	Repository *Repository
	Service    *Service
	Handler    *Handler
	DB         postgres.Postgres
	RDB        redis.Redis
	Metrics    *metrics.Metrics
	Journal    *journal.Sink
	EBus       *EBus
	HTTPServer server.HTTPServer

	workers context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type Repository struct {
	MessageRepository   *repository.MessageRepository
	InboxRepository     *repository.InboxRepository
	UserRepository      *repository.UserRepository
	JournalRepository   *repository.JournalRepository
	RateLimitRepository *repository.RateLimitRepository
}

type Service struct {
	RelayService  *service.RelayService
	UserService   *service.UserService
	HealthService *service.HealthService
}

type Handler struct {
	HealthHandler  HealthHandler
	MessageHandler MessageHandler
	InboxHandler   InboxHandler
	UserHandler    UserHandler
}

type EBus struct {
	Producer        kafka.Producer
	Consumer        kafka.ConsumerGroupRunner
	OutboxPublisher Runner
	InboxSubscriber Runner
}

// eventCounter feeds relay transitions into the events_total counter.
type eventCounter struct {
	m *metrics.Metrics
}

func (e eventCounter) Publish(event model.MessageEvent) {
	e.m.IncEvent(string(event.Kind))
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{
		Cfg: cfg,
		Log: log,
	}

	a.workers, a.cancel = context.WithCancel(context.Background())

	if cfg.Metrics.Enable {
		a.Metrics = metrics.New(cfg.Metrics.Namespace)
		log.Debug("Metrics initialized")
	}

	if cfg.Database.Enable {
		db, err := initDB(&cfg.Database)
		if err != nil {
			log.Error("Failed to initialize database", zap.Error(err))
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}

		a.DB = db
		log.Debug("Database initialized")
	}

	if cfg.Redis.Enable {
		rdb, err := initRedis(&cfg.Redis)
		if err != nil {
			_ = a.closeStores()
			log.Error("Failed to initialize redis", zap.Error(err))

			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}

		a.RDB = rdb
		log.Debug("Redis initialized")
	}

	a.Repository = initRepository(log, cfg, a.DB, a.RDB)

	if a.Repository.JournalRepository != nil {
		a.Journal = journal.NewSink(log, journal.Config{
			QueueSize:   cfg.Database.Journal.QueueSize,
			WorkerCount: cfg.Database.Journal.WorkerCount,
			Timeout:     cfg.Database.Journal.Timeout,
		}, a.Repository.JournalRepository)
		log.Debug("Journal sink initialized")
	}

	a.Service = initService(log, cfg, a.Repository, a.Journal, a.Metrics)
	a.Handler = initHandler(log, cfg, a.Service)
	a.HTTPServer = initHTTPServer(log, cfg, a.Handler, a.Repository, a.Service, a.Metrics)

	if cfg.Kafka.Enable {
		eBus, err := initEBus(log, &cfg.Kafka, a.Repository, a.Service, a.Metrics)
		if err != nil {
			_ = a.closeStores()
			return nil, fmt.Errorf("failed to initialize ebus: %w", err)
		}

		a.EBus = eBus
	}

	return a, nil
}

func MustNew(cfg *config.Config, log *zap.Logger) *App {
	app, err := New(cfg, log)
	if err != nil {
		panic(err)
	}

	return app
}

// Run serves HTTP and starts the optional background workers. It returns
// when ctx is done or the HTTP server fails.
func (a *App) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, a.cancel)
	defer stop()

	errs := make(chan error, 1)

	go func() {
		if err := a.HTTPServer.Run(); err != nil {
			errs <- err
		}
	}()

	a.Log.Info("HTTP server started",
		zap.String("host", a.Cfg.HTTPServer.Host),
		zap.Uint16("port", a.Cfg.HTTPServer.Port),
	)

	if a.Journal != nil {
		a.goRun(a.Journal)
	}

	if a.EBus != nil {
		if a.EBus.OutboxPublisher != nil {
			a.goRun(a.EBus.OutboxPublisher)
		}

		if a.EBus.InboxSubscriber != nil {
			a.goRun(a.EBus.InboxSubscriber)
		}
	}

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		return nil
	}
}

func (a *App) goRun(r Runner) {
	a.wg.Add(1)

	go func() {
		defer a.wg.Done()
		r.Run(a.workers)
	}()
}

func (a *App) Shutdown() error {
	err := apperrors.ErrShutdown

	if srvErr := a.HTTPServer.Shutdown(); srvErr != nil {
		err = fmt.Errorf("%w, failed to shutdown http server: %w", err, srvErr)
	}

	a.Log.Debug("Http server shutdown")

	a.Service.RelayService.Close()
	a.Log.Debug("Relay subscriptions closed")

	a.cancel()
	a.wg.Wait()
	a.Log.Debug("Background workers stopped")

	if a.EBus != nil {
		if a.EBus.Consumer != nil {
			if cErr := a.EBus.Consumer.Shutdown(); cErr != nil {
				err = fmt.Errorf("%w, failed to shutdown kafka consumer: %w", err, cErr)
			}
		}

		if a.EBus.Producer != nil {
			if pErr := a.EBus.Producer.Close(); pErr != nil {
				err = fmt.Errorf("%w, failed to close kafka producer: %w", err, pErr)
			}
		}

		a.Log.Debug("Kafka closed")
	}

	if rdbErr := a.closeStores(); rdbErr != nil {
		err = fmt.Errorf("%w, failed to close RDB: %w", err, rdbErr)
	}

	if !errors.Is(err, apperrors.ErrShutdown) {
		return err
	}

	return nil
}

func (a *App) closeStores() error {
	if a.DB != nil {
		a.DB.Close()
		a.Log.Debug("Database closed")
	}

	if a.RDB != nil {
		if err := a.RDB.Close(); err != nil {
			return err
		}

		a.Log.Debug("Redis closed")
	}

	return nil
}

func initDB(cfg *config.Database) (postgres.Postgres, error) {
	postgresCfg := &postgres.Config{
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
	}

	db, err := postgres.New(postgresCfg)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func initRedis(cfg *config.Redis) (redis.Redis, error) {
	redisCfg := &redis.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	rdb, err := redis.New(redisCfg)
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func initRepository(log *zap.Logger, cfg *config.Config, db postgres.Postgres, rdb redis.Redis) *Repository {
	messageRepo := repository.NewMessageRepository()
	log.Debug("Message repository initialized")

	inboxRepo := repository.NewInboxRepository(messageRepo)
	log.Debug("Inbox repository initialized")

	userRepo := repository.NewUserRepository()
	log.Debug("User repository initialized")

	repo := &Repository{
		MessageRepository: messageRepo,
		InboxRepository:   inboxRepo,
		UserRepository:    userRepo,
	}

	if db != nil {
		repo.JournalRepository = repository.NewJournalRepository(db.Pool())
		log.Debug("Journal repository initialized")
	}

	if rdb != nil {
		repo.RateLimitRepository = repository.NewRateLimitRepository(
			rdb.RDB(),
			cfg.Redis.RateLimit.Capacity,
			cfg.Redis.RateLimit.RefillPerSecond,
		)
		log.Debug("Rate limit repository initialized")
	}

	return repo
}

func initService(
	log *zap.Logger,
	cfg *config.Config,
	repo *Repository,
	journalSink *journal.Sink,
	m *metrics.Metrics,
) *Service {
	var opts []service.RelayOption

	if journalSink != nil {
		opts = append(opts, service.WithEventSink(journalSink))
	}

	if m != nil {
		opts = append(opts, service.WithEventSink(eventCounter{m: m}))
	}

	relaySvc := service.NewRelayService(repo.MessageRepository, repo.InboxRepository, service.RelayConfig{
		IdempotencyWindow: cfg.Relay.IdempotencyWindow,
		SubscriberBuffer:  cfg.Relay.SubscriberBuffer,
	}, opts...)
	log.Debug("Relay service initialized")

	userSvc := service.NewUserService(repo.UserRepository)
	log.Debug("User service initialized")

	var journalChecker service.JournalChecker
	if repo.JournalRepository != nil {
		journalChecker = repo.JournalRepository
	}

	healthSvc := service.NewHealthService(log, relaySvc, repo.UserRepository, journalChecker)
	log.Debug("Health service initialized")

	return &Service{
		RelayService:  relaySvc,
		UserService:   userSvc,
		HealthService: healthSvc,
	}
}

func initHandler(log *zap.Logger, cfg *config.Config, svc *Service) *Handler {
	healthHandler := handler.NewHealthHandler(log, svc.HealthService)
	log.Debug("Health handler initialized")

	messageHandler := handler.NewMessageHandler(log, svc.RelayService, cfg.HTTPServer.MaxContentBytes)
	log.Debug("Message handler initialized")

	inboxHandler := handler.NewInboxHandler(log, svc.RelayService)
	log.Debug("Inbox handler initialized")

	userHandler := handler.NewUserHandler(log, svc.UserService)
	log.Debug("User handler initialized")

	return &Handler{
		HealthHandler:  healthHandler,
		MessageHandler: messageHandler,
		InboxHandler:   inboxHandler,
		UserHandler:    userHandler,
	}
}

func initHTTPServer(
	log *zap.Logger,
	cfg *config.Config,
	hdl *Handler,
	repo *Repository,
	svc *Service,
	m *metrics.Metrics,
) server.HTTPServer {
	var opts route.Options

	if repo.RateLimitRepository != nil {
		opts.RateLimiter = repo.RateLimitRepository
	}

	if m != nil {
		opts.MetricsObserver = m
		opts.MetricsHandler = m.Handler(func() metrics.Snapshot {
			health := svc.RelayService.Health()

			return metrics.Snapshot{
				Messages:      health.MessageCount,
				Inboxes:       health.InboxCount,
				Pending:       health.PendingCount,
				Users:         repo.UserRepository.Count(),
				Subscribers:   svc.RelayService.Subscribers(),
				DroppedEvents: svc.RelayService.DroppedEvents(),
			}
		})
	}

	router := route.SetupRouter(
		log,
		cfg,
		hdl.HealthHandler,
		hdl.MessageHandler,
		hdl.InboxHandler,
		hdl.UserHandler,
		opts,
	)

	httpServer := server.NewHTTPServer(
		server.WithAddr(cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		server.WithTimeout(cfg.HTTPServer.Timeout.Read, cfg.HTTPServer.Timeout.Write, cfg.HTTPServer.Timeout.Idle),
		server.WithHandler(router),
	)

	return httpServer
}

func initEBus(log *zap.Logger, cfg *config.Kafka, repo *Repository, svc *Service, m *metrics.Metrics) (*EBus, error) {
	eBus := &EBus{}

	var (
		publishObserver outbox.Observer
		ingestObserver  inbox.Observer
	)

	if m != nil {
		publishObserver = m
		ingestObserver = m
	}

	if repo.JournalRepository != nil {
		producer, err := kafka.NewProducer(
			cfg.Brokers,
			kafka.WithBalancer(kafka.Hash),
			kafka.WithRequiredAcks(kafka.RequireAll),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to init kafka producer: %w", err)
		}

		log.Debug("Kafka producer initialized")

		eBus.Producer = producer
		eBus.OutboxPublisher = outbox.NewPublisher(log, outbox.Config{
			Name:         cfg.Producer.Name,
			Topic:        cfg.Producer.Topic,
			WorkerCount:  cfg.Producer.WorkerCount,
			PollInterval: cfg.Producer.PollInterval,
			BatchSize:    cfg.Producer.BatchSize,
		}, producer, repo.JournalRepository, publishObserver)

		log.Debug("Outbox publisher initialized")
	} else {
		log.Warn("Replication feed disabled: it publishes the journal, which needs the database")
	}

	consumerGroup, err := kafka.NewConsumerGroupRunner(
		cfg.Brokers,
		cfg.Subscriber.GroupID,
		[]string{cfg.Subscriber.Topic},
		cfg.Subscriber.BufferSize,
		kafka.WithBalancerConsumer(kafka.RoundrobinBalanceStrategy),
	)
	if err != nil {
		if eBus.Producer != nil {
			_ = eBus.Producer.Close()
		}

		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	go func() {
		if startAndRunningStr, ok := <-consumerGroup.Info(); ok {
			log.Info(startAndRunningStr)
		}
	}()

	eBus.Consumer = consumerGroup
	eBus.InboxSubscriber = inbox.NewSubscriber(log, inbox.Config{
		Name:        cfg.Subscriber.Name,
		WorkerCount: cfg.Subscriber.WorkerCount,
		Topic:       cfg.Subscriber.Topic,
	}, consumerGroup, svc.RelayService, ingestObserver)

	log.Debug("Inbox subscriber initialized")

	return eBus, nil
}
