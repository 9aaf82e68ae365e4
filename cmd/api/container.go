// Package main provides the API server entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dialog-app/dialog/internal/application/messaging"
	"github.com/dialog-app/dialog/internal/config"
	handlerhttp "github.com/dialog-app/dialog/internal/handler/http"
	"github.com/dialog-app/dialog/internal/infrastructure/auth"
	"github.com/dialog-app/dialog/internal/infrastructure/directory"
	"github.com/dialog-app/dialog/internal/infrastructure/httpserver"
	"github.com/dialog-app/dialog/internal/infrastructure/metrics"
	"github.com/dialog-app/dialog/internal/infrastructure/repository/mongodb"
	"github.com/dialog-app/dialog/internal/middleware"
)

// Container initialization timeouts.
const (
	containerInitTimeout   = 30 * time.Second
	redisPingTimeout       = 5 * time.Second
	mongoDisconnectTimeout = 10 * time.Second
)

// Container holds all application dependencies and manages their lifecycle.
// It implements httpserver.HealthChecker for the readiness endpoints.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Infrastructure
	MongoDB     *mongo.Client
	MongoDBName string
	Redis       *redis.Client

	// Auth
	JWTValidator   auth.Validator
	TokenValidator middleware.TokenValidator

	// Persistence
	MessageStore *mongodb.MongoMessageStore
	UnitOfWork   *mongodb.MongoUnitOfWork
	Directory    messaging.UserDirectory

	// Application
	MessagingService *messaging.Service

	// Observability
	Metrics *metrics.MessagingMetrics

	// Handlers
	MessageHandler *handlerhttp.MessageHandler
}

// Ensure Container implements httpserver.HealthChecker.
var _ httpserver.HealthChecker = (*Container)(nil)

// ContainerOption configures the Container.
type ContainerOption func(*Container)

// WithLogger sets a custom logger for the container.
func WithLogger(logger *slog.Logger) ContainerOption {
	return func(c *Container) {
		c.Logger = logger
	}
}

// NewContainer creates a new dependency injection container.
func NewContainer(cfg *config.Config, opts ...ContainerOption) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.setupInfrastructure(); err != nil {
		return nil, fmt.Errorf("infrastructure: %w", err)
	}

	if err := c.setupAuth(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("auth: %w", err)
	}

	c.setupMetrics()
	c.setupRepositories()
	c.setupService()
	c.setupHandlers()

	return c, nil
}

// setupInfrastructure initializes MongoDB and Redis.
func (c *Container) setupInfrastructure() error {
	ctx, cancel := context.WithTimeout(context.Background(), containerInitTimeout)
	defer cancel()

	if err := c.setupMongoDB(ctx); err != nil {
		return fmt.Errorf("mongodb: %w", err)
	}

	if err := c.setupRedis(ctx); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	return nil
}

// setupMongoDB initializes the MongoDB client and ensures indexes.
func (c *Container) setupMongoDB(ctx context.Context) error {
	clientOpts := options.Client().
		ApplyURI(c.Config.MongoDB.URI).
		SetMaxPoolSize(c.Config.MongoDB.MaxPoolSize)

	client, connectErr := mongo.Connect(clientOpts)
	if connectErr != nil {
		return fmt.Errorf("failed to connect: %w", connectErr)
	}

	pingCtx, cancel := context.WithTimeout(ctx, c.Config.MongoDB.Timeout)
	defer cancel()

	if pingErr := client.Ping(pingCtx, nil); pingErr != nil {
		return fmt.Errorf("failed to ping: %w", pingErr)
	}

	c.MongoDB = client
	c.MongoDBName = c.Config.MongoDB.Database

	c.Logger.InfoContext(ctx, "connected to MongoDB",
		slog.String("database", c.Config.MongoDB.Database),
	)

	db := client.Database(c.Config.MongoDB.Database)
	indexCtx, indexCancel := context.WithTimeout(ctx, c.Config.MongoDB.Timeout)
	defer indexCancel()

	if indexErr := mongodb.EnsureIndexes(indexCtx, db); indexErr != nil {
		return fmt.Errorf("failed to create indexes: %w", indexErr)
	}

	return nil
}

// setupRedis initializes the Redis client.
func (c *Container) setupRedis(ctx context.Context) error {
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Addr,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
		PoolSize: c.Config.Redis.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if pingErr := c.Redis.Ping(pingCtx).Err(); pingErr != nil {
		return fmt.Errorf("failed to ping: %w", pingErr)
	}

	c.Logger.InfoContext(ctx, "connected to Redis",
		slog.String("addr", c.Config.Redis.Addr),
	)

	return nil
}

// setupAuth initializes the JWKS token validator.
func (c *Container) setupAuth() error {
	validator, err := auth.NewValidator(auth.ValidatorConfig{
		JWKSURL:         c.Config.Auth.JWKSURL,
		Issuer:          c.Config.Auth.Issuer,
		Audience:        c.Config.Auth.Audience,
		Leeway:          c.Config.Auth.Leeway,
		RefreshInterval: c.Config.Auth.RefreshInterval,
		Logger:          c.Logger,
	})
	if err != nil {
		return err
	}

	c.JWTValidator = validator
	c.TokenValidator = middleware.NewValidatorAdapter(validator)

	return nil
}

// setupMetrics registers messaging metrics with the default registry so the
// /metrics endpoint picks them up.
func (c *Container) setupMetrics() {
	c.Metrics = metrics.NewMessagingMetrics(prometheus.DefaultRegisterer)
}

// setupRepositories initializes persistence components.
func (c *Container) setupRepositories() {
	db := c.MongoDB.Database(c.MongoDBName)

	c.MessageStore = mongodb.NewMongoMessageStore(db)
	c.UnitOfWork = mongodb.NewMongoUnitOfWork(c.MongoDB)

	// the directory reads the external users collection through a Redis cache
	c.Directory = directory.NewCachedDirectory(
		directory.NewMongoDirectory(db),
		c.Redis,
		c.Config.Redis.DirectoryCacheTTL,
		c.Logger,
	)
}

// setupService wires the messaging use cases.
func (c *Container) setupService() {
	c.MessagingService = messaging.NewService(
		c.MessageStore,
		c.Directory,
		c.UnitOfWork,
		c.Logger,
	)
}

// setupHandlers initializes HTTP handlers.
func (c *Container) setupHandlers() {
	c.MessageHandler = handlerhttp.NewMessageHandler(c.MessagingService, c.Metrics, c.Logger)
}

// Close releases container resources in reverse dependency order.
func (c *Container) Close() error {
	c.Logger.Info("closing container resources...")

	var errs []error

	if c.JWTValidator != nil {
		if err := c.JWTValidator.Close(); err != nil {
			errs = append(errs, fmt.Errorf("jwt validator close: %w", err))
		} else {
			c.Logger.Debug("jwt validator closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		} else {
			c.Logger.Debug("redis connection closed")
		}
	}

	if c.MongoDB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
		defer cancel()

		if err := c.MongoDB.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mongodb disconnect: %w", err))
		} else {
			c.Logger.Debug("mongodb connection closed")
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	c.Logger.Info("all container resources closed")
	return nil
}

// IsReady implements httpserver.HealthChecker.
func (c *Container) IsReady(ctx context.Context) bool {
	if c.MongoDB == nil {
		return false
	}
	if err := c.MongoDB.Ping(ctx, nil); err != nil {
		c.Logger.WarnContext(ctx, "mongodb health check failed", slog.String("error", err.Error()))
		return false
	}

	if c.Redis == nil {
		return false
	}
	if err := c.Redis.Ping(ctx).Err(); err != nil {
		c.Logger.WarnContext(ctx, "redis health check failed", slog.String("error", err.Error()))
		return false
	}

	return true
}

// GetHealthStatus implements httpserver.HealthChecker.
func (c *Container) GetHealthStatus(ctx context.Context) []httpserver.ComponentStatus {
	var statuses []httpserver.ComponentStatus

	mongoStatus := httpserver.ComponentStatus{Name: "mongodb", Status: httpserver.StatusHealthy}
	if c.MongoDB == nil {
		mongoStatus.Status = httpserver.StatusUnhealthy
		mongoStatus.Message = "client not initialized"
	} else if err := c.MongoDB.Ping(ctx, nil); err != nil {
		mongoStatus.Status = httpserver.StatusUnhealthy
		mongoStatus.Message = err.Error()
	}
	statuses = append(statuses, mongoStatus)

	redisStatus := httpserver.ComponentStatus{Name: "redis", Status: httpserver.StatusHealthy}
	if c.Redis == nil {
		redisStatus.Status = httpserver.StatusUnhealthy
		redisStatus.Message = "client not initialized"
	} else if err := c.Redis.Ping(ctx).Err(); err != nil {
		redisStatus.Status = httpserver.StatusUnhealthy
		redisStatus.Message = err.Error()
	}
	statuses = append(statuses, redisStatus)

	return statuses
}
