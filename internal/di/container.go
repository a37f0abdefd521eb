package di

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"admin-console/internal/admin"
	"admin-console/internal/admin/config"
	"admin-console/internal/shared/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Container represents a dependency injection container with lifecycle management
type Container struct {
	mu        sync.RWMutex
	services  map[reflect.Type]interface{}
	factories map[reflect.Type]func() (interface{}, error)
	// Connections
	RedisClient *redis.Client
	// Configuration
	AdminConfig *config.AdminConfig
	// Logger
	Logger logger.Logger
}

// NewContainer creates a new DI container. The zap logger used by the
// realtime and Redis adapters is built on first resolve unless one is
// registered beforehand.
func NewContainer() *Container {
	c := &Container{}
	c.reset()
	return c
}

func (c *Container) reset() {
	c.services = make(map[reflect.Type]interface{})
	c.factories = map[reflect.Type]func() (interface{}, error){
		reflect.TypeOf((*zap.Logger)(nil)): func() (interface{}, error) {
			return logger.NewZapLogger()
		},
	}
}

// InitializeAdmin builds the admin module from cfg. A Redis client is created
// only when notifications are stored in Redis.
func (c *Container) InitializeAdmin(ctx context.Context, cfg *config.AdminConfig) error {
	zlog, err := GetService[*zap.Logger](c)
	if err != nil {
		return fmt.Errorf("failed to build zap logger: %w", err)
	}

	c.mu.Lock()
	if c.Logger == nil {
		c.Logger = logger.NewLogger()
	}
	log := c.Logger
	c.AdminConfig = cfg
	c.mu.Unlock()

	var redisClient *redis.Client
	if cfg.Notifications.Store == config.StoreRedis {
		redisClient = config.NewRedisClient(&cfg.Redis)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Redis.GetAddr(), err)
		}
		log.Info("Redis connection established successfully")
	}

	adminModule, err := admin.NewAdminModule(cfg, redisClient, log, zlog)
	if err != nil {
		if redisClient != nil {
			redisClient.Close()
		}
		return fmt.Errorf("failed to create admin module: %w", err)
	}

	c.mu.Lock()
	c.RedisClient = redisClient
	c.mu.Unlock()
	return c.Register(adminModule)
}

// Register registers a service instance under its exact type, so a pointer
// is resolved with GetService[*T].
func (c *Container) Register(service interface{}) error {
	if service == nil {
		return fmt.Errorf("cannot register a nil service")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.services[reflect.TypeOf(service)] = service
	return nil
}

// RegisterFactory registers a factory function for a service
func (c *Container) RegisterFactory(serviceType reflect.Type, factory func() (interface{}, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.factories[serviceType] = factory
	return nil
}

// Resolve resolves a service by type
func (c *Container) Resolve(serviceType reflect.Type) (interface{}, error) {
	c.mu.RLock()

	if service, exists := c.services[serviceType]; exists {
		c.mu.RUnlock()
		return service, nil
	}

	if factory, exists := c.factories[serviceType]; exists {
		c.mu.RUnlock()

		service, err := factory()
		if err != nil {
			return nil, fmt.Errorf("failed to create service: %w", err)
		}

		c.mu.Lock()
		c.services[serviceType] = service
		c.mu.Unlock()

		return service, nil
	}

	c.mu.RUnlock()
	return nil, fmt.Errorf("service of type %v not registered", serviceType)
}

// GetService is a generic helper for resolving services
func GetService[T any](c *Container) (T, error) {
	var zero T
	serviceType := reflect.TypeOf(zero)

	service, err := c.Resolve(serviceType)
	if err != nil {
		return zero, err
	}

	if typedService, ok := service.(T); ok {
		return typedService, nil
	}

	return zero, fmt.Errorf("service is not of expected type %T", zero)
}

// GetAdminModule returns the admin module, or nil before InitializeAdmin.
func (c *Container) GetAdminModule() *admin.AdminModule {
	m, err := GetService[*admin.AdminModule](c)
	if err != nil {
		return nil
	}
	return m
}

// HealthCheck checks every initialized module
func (c *Container) HealthCheck(ctx context.Context) error {
	if m := c.GetAdminModule(); m != nil {
		return m.HealthCheck(ctx)
	}
	return nil
}

// Cleanup stops modules and services
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error

	// The admin module owns the Redis client once it is built.
	moduleType := reflect.TypeOf((*admin.AdminModule)(nil))
	if m, ok := c.services[moduleType].(*admin.AdminModule); ok {
		if err := m.Stop(); err != nil {
			errs = append(errs, err)
		}
		delete(c.services, moduleType)
		c.RedisClient = nil
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
		c.RedisClient = nil
	}

	for _, service := range c.services {
		if cleaner, ok := service.(interface{ Cleanup(context.Context) error }); ok {
			if err := cleaner.Cleanup(ctx); err != nil {
				errs = append(errs, fmt.Errorf("failed to cleanup service: %w", err))
			}
		}
	}

	if zlog, ok := c.services[reflect.TypeOf((*zap.Logger)(nil))].(*zap.Logger); ok {
		// Sync returns EINVAL when stdout is a terminal.
		_ = zlog.Sync()
	}

	c.reset()

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// Close shuts down all services in the container with a timeout
func (c *Container) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Cleanup(ctx); err != nil {
		if c.Logger != nil {
			c.Logger.Warnf("Cleanup errors occurred: %v", err)
		}
		return err
	}
	return nil
}
