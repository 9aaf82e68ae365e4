package testutil

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Redis test configuration constants.
const (
	redisCtxTimeout              = 10 * time.Second
	redisPingTimeout             = 2 * time.Second
	redisPingRetryDelay          = 200 * time.Millisecond
	redisContainerStartupTimeout = 30 * time.Second
	redisContainerMemoryLimit    = 128 * 1024 * 1024
)

var (
	sharedRedisContainer *SharedRedisContainer
	sharedRedisOnce      sync.Once
	errSharedRedis       error
)

// SharedRedisContainer represents a reusable Redis container for tests.
type SharedRedisContainer struct {
	Container testcontainers.Container
	Addr      string
}

// GetSharedRedisContainer returns a singleton Redis container.
func GetSharedRedisContainer(ctx context.Context) (*SharedRedisContainer, error) {
	sharedRedisOnce.Do(func() {
		container, err := startRedisContainer(ctx)
		if err != nil {
			errSharedRedis = err
			return
		}
		sharedRedisContainer = container
	})

	return sharedRedisContainer, errSharedRedis
}

// startRedisContainer starts a new Redis container.
func startRedisContainer(ctx context.Context) (*SharedRedisContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		Name:         "dialog-test-redis", // Required for Reuse mode
		ExposedPorts: []string{"6379/tcp"},
		HostConfigModifier: func(hc *container.HostConfig) {
			hc.Memory = redisContainerMemoryLimit
			hc.MemorySwap = redisContainerMemoryLimit
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("Ready to accept connections"),
			wait.ForListeningPort("6379/tcp"),
		).WithStartupTimeoutDefault(redisContainerStartupTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
		Reuse:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Redis container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	return &SharedRedisContainer{
		Container: container,
		Addr:      net.JoinHostPort(host, port.Port()),
	}, nil
}

// SetupTestRedis creates a Redis client against the shared container.
// The database is flushed before the test and the client is closed after.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), redisCtxTimeout)
	defer cancel()

	container, err := GetSharedRedisContainer(ctx)
	if err != nil {
		t.Fatalf("Failed to get shared Redis container: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: container.Addr})

	maxRetries := 5
	for i := range maxRetries {
		pingCtx, pingCancel := context.WithTimeout(context.Background(), redisPingTimeout)
		err = client.Ping(pingCtx).Err()
		pingCancel()
		if err == nil {
			break
		}
		if i < maxRetries-1 {
			time.Sleep(redisPingRetryDelay)
		}
	}
	if err != nil {
		t.Fatalf("Failed to ping Redis after %d retries: %v", maxRetries, err)
	}

	if flushErr := client.FlushDB(ctx).Err(); flushErr != nil {
		t.Fatalf("Failed to flush Redis database: %v", flushErr)
	}

	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), redisCtxTimeout)
		defer cleanupCancel()
		_ = client.FlushDB(cleanupCtx).Err()
		_ = client.Close()
	})

	return client
}

// CleanupSharedRedisContainer terminates the shared Redis container.
func CleanupSharedRedisContainer() {
	if sharedRedisContainer != nil && sharedRedisContainer.Container != nil {
		ctx, cancel := context.WithTimeout(context.Background(), redisCtxTimeout)
		defer cancel()
		_ = sharedRedisContainer.Container.Terminate(ctx)
	}
}
