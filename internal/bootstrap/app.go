package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"autorag/internal/ai"
	appsvc "autorag/internal/app"
	"autorag/internal/cache"
	"autorag/internal/config"
	"autorag/internal/model"
	"autorag/internal/pkg/password"
	"autorag/internal/platform/logger"
	minioClient "autorag/internal/platform/minio"
	mysqlClient "autorag/internal/platform/mysql"
	postgresClient "autorag/internal/platform/postgres"
	rabbitmqClient "autorag/internal/platform/rabbitmq"
	redisClient "autorag/internal/platform/redis"
	"autorag/internal/repository"
	"autorag/internal/storage"
	"autorag/internal/worker"
)

// Services groups the application services the transport layer routes to.
type Services struct {
	Auth      *appsvc.AuthService
	Accounts  *appsvc.AccountService
	Documents *appsvc.DocumentService
	Configs   *appsvc.ConfigService
	Chat      *appsvc.ChatService
	Share     *appsvc.ShareService
}

type App struct {
	Config      *config.Config
	Log         *zap.Logger
	DB          *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	Objects     storage.ObjectStore
	EventWorker *worker.WorkspaceEventWorker
	Users       *repository.UserRepository
	Services    Services

	StartedAt time.Time
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log, StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		if closeErr := a.Close(); closeErr != nil {
			log.Warn("release resources after failed start", zap.Error(closeErr))
		}
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	db, err := openDatabase(ctx, cfg, a.Log)
	if err != nil {
		return err
	}
	a.DB = db
	if err := db.AutoMigrate(
		&model.User{},
		&model.ShareLink{},
		&model.RagConfig{},
		&model.ChatMessage{},
		&model.DocumentEmbedding{},
	); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}

	if a.Redis, err = redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		return err
	}
	if a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.EventExchange); err != nil {
		return err
	}
	if a.Objects, err = openObjectStore(ctx, cfg); err != nil {
		return err
	}

	processor, generator := remoteServices(cfg)
	events := rabbitmqClient.NewEventPublisher(a.MQConn, cfg.RabbitMQ.EventExchange, cfg.App.InstanceID)
	hasher := password.NewHasher()

	users := repository.NewUserRepository(db)
	a.Users = users
	links := repository.NewShareLinkRepository(db)
	configs := repository.NewRagConfigRepository(db)
	messages := repository.NewChatMessageRepository(db)
	embeddingRows := repository.NewDocumentEmbeddingRepository(db)

	historyCache := cache.NewHistoryCache(
		a.Redis,
		time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)

	documents := appsvc.NewDocumentService(
		a.Objects,
		cache.NewDocumentIndex(),
		events,
		int64(cfg.Storage.MaxUploadMB)<<20,
		a.Log,
	)
	embeddings := appsvc.NewEmbeddingStore(embeddingRows, cache.NewEmbeddingCache(), events, cfg.Embedding.Dimension, a.Log)
	pipeline := appsvc.NewPipeline(documents, processor, embeddings, a.Log)

	a.Services = Services{
		Auth:      appsvc.NewAuthService(users, links, hasher, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute, a.Log),
		Accounts:  appsvc.NewAccountService(users, hasher),
		Documents: documents,
		Configs:   appsvc.NewConfigService(configs, documents, pipeline, a.Log),
		Chat: appsvc.NewChatService(messages, configs, embeddings, generator, historyCache, appsvc.ChatOptions{
			HistoryScope: cfg.Chat.HistoryScope,
			HistoryLimit: cfg.Chat.HistoryLimit,
		}, a.Log),
		Share: appsvc.NewShareService(links, users, hasher, a.Log),
	}

	a.EventWorker = worker.NewWorkspaceEventWorker(
		a.MQConn,
		cfg.RabbitMQ.EventExchange,
		cfg.App.InstanceID,
		cacheInvalidator{documents: documents, embeddings: embeddings},
		a.Log,
	)
	if err := a.EventWorker.Start(ctx); err != nil {
		return fmt.Errorf("start workspace event worker failed: %w", err)
	}
	return nil
}

// HealthChecks returns one check per external dependency.
func (a *App) HealthChecks() map[string]func(ctx context.Context) error {
	return map[string]func(ctx context.Context) error{
		a.Config.Database.Driver: func(ctx context.Context) error {
			sqlDB, err := a.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		},
		"rabbitmq": func(context.Context) error {
			if a.MQConn == nil || a.MQConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		},
		"storage": func(ctx context.Context) error {
			return a.Objects.Ping(ctx)
		},
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.EventWorker != nil {
		a.EventWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = errors.Join(closeErr, err)
		}
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		if err := a.MQConn.Close(); err != nil {
			closeErr = errors.Join(closeErr, err)
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = errors.Join(closeErr, err)
			}
		}
	}
	return closeErr
}

func openDatabase(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	gormLog := logger.Gorm(log, cfg.IsDevelopment())
	switch cfg.Database.Driver {
	case config.DriverMySQL:
		return mysqlClient.New(ctx, cfg.MySQLDSN(), gormLog)
	case config.DriverPostgres:
		return postgresClient.New(ctx, cfg.PostgresDSN(), gormLog)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func openObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		return storage.NewMemoryStore(), nil
	}

	client, err := minioClient.New(ctx, cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.UseSSL)
	if err != nil {
		return nil, err
	}
	store := storage.NewMinIOStore(client, cfg.Storage.Bucket)
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func remoteServices(cfg *config.Config) (ai.Processor, ai.Generator) {
	var processor ai.Processor = ai.StubProcessor{Dimension: cfg.Embedding.Dimension}
	if cfg.Processor.Mode == config.ModeHTTP {
		processor = ai.NewProcessorClient(cfg.Processor.BaseURL, time.Duration(cfg.Processor.TimeoutSeconds)*time.Second)
	}

	var generator ai.Generator = ai.StubGenerator{}
	if cfg.Generation.Mode == config.ModeHTTP {
		generator = ai.NewGenerationClient(cfg.Generation.BaseURL, time.Duration(cfg.Generation.TimeoutSeconds)*time.Second)
	}
	return processor, generator
}

// cacheInvalidator fans workspace events out to the caches that hold them.
type cacheInvalidator struct {
	documents  *appsvc.DocumentService
	embeddings *appsvc.EmbeddingStore
}

func (c cacheInvalidator) InvalidateWorkspace(workspaceID uuid.UUID) {
	c.documents.InvalidateWorkspace(workspaceID)
}

func (c cacheInvalidator) InvalidateDocument(documentID uuid.UUID) {
	c.embeddings.InvalidateDocument(documentID)
}
