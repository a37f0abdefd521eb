package admin

import (
	"context"
	"fmt"
	"time"

	httpadapter "admin-console/internal/admin/adapter/http"
	"admin-console/internal/admin/adapter/persistence"
	"admin-console/internal/admin/adapter/rest"
	"admin-console/internal/admin/config"
	"admin-console/internal/admin/domain/model"
	"admin-console/internal/admin/domain/repository"
	"admin-console/internal/admin/usecase"
	"admin-console/internal/shared/eventbus"
	"admin-console/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// AdminModule wires the user and page sections to the remote API and exposes
// them over HTTP and WebSocket.
type AdminModule struct {
	Config    *config.AdminConfig
	Logger    logger.Logger
	ZapLogger *zap.Logger
	EventBus  *eventbus.EventBus

	HTTPClient *fasthttp.Client
	Users      *usecase.Section[model.User]
	Pages      *usecase.Section[model.Page]
	Sections   *usecase.SectionRegistry

	NotificationStore repository.NotificationStore
	History           *usecase.NotificationHistory
	RedisClient       *redis.Client

	SectionHandler  *httpadapter.SectionHandler
	NotificationHub *httpadapter.NotificationHub
}

// NewAdminModule builds the module from cfg. When the notification store is
// redis, redisClient must be non-nil. zlog backs the Redis store and the
// WebSocket hub; nil discards their logs.
func NewAdminModule(cfg *config.AdminConfig, redisClient *redis.Client, log logger.Logger, zlog *zap.Logger) (*AdminModule, error) {
	if cfg == nil {
		return nil, fmt.Errorf("admin config is required")
	}
	if log == nil {
		log = logger.NewLogger()
	}
	if zlog == nil {
		zlog = zap.NewNop()
	}
	log.Info("Initializing Admin Module...")

	bus := eventbus.NewEventBus(log)

	httpClient := rest.NewHTTPClient(rest.ClientConfig{
		Timeout:         cfg.Remote.RequestTimeout,
		MaxConnsPerHost: cfg.Remote.MaxConnsPerHost,
	})
	sectionCfg := usecase.SectionConfig{
		RequestTimeout:    cfg.Remote.RequestTimeout,
		ClearOnFetchError: cfg.Remote.ClearOnFetchError,
	}
	users := usecase.NewSection(model.UserSchema(),
		rest.NewClient[model.User](httpClient, cfg.Remote.APIURL, model.ResourceUser, cfg.Remote.RequestTimeout, log),
		bus, log, sectionCfg)
	pages := usecase.NewSection(model.PageSchema(),
		rest.NewClient[model.Page](httpClient, cfg.Remote.APIURL, model.ResourcePage, cfg.Remote.RequestTimeout, log),
		bus, log, sectionCfg)
	sections := usecase.NewSectionRegistry(users, pages)
	log.Infof("Sections registered: %v", sections.Resources())

	var store repository.NotificationStore
	switch cfg.Notifications.Store {
	case config.StoreRedis:
		if redisClient == nil {
			sections.Shutdown()
			return nil, fmt.Errorf("redis notification store requires a redis client")
		}
		store = persistence.NewRedisNotificationStore(redisClient, cfg.Notifications.Stream, cfg.Notifications.History, zlog)
		log.Info("RedisNotificationStore initialized successfully.")
	default:
		store = persistence.NewMemoryNotificationStore(cfg.Notifications.History)
		log.Info("MemoryNotificationStore initialized successfully.")
	}
	history := usecase.NewNotificationHistory(store, bus, log)

	return &AdminModule{
		Config:            cfg,
		Logger:            log,
		ZapLogger:         zlog,
		EventBus:          bus,
		HTTPClient:        httpClient,
		Users:             users,
		Pages:             pages,
		Sections:          sections,
		NotificationStore: store,
		History:           history,
		RedisClient:       redisClient,
		SectionHandler:    httpadapter.NewSectionHandler(sections, history, log),
		NotificationHub:   httpadapter.NewNotificationHub(bus, history, cfg.Realtime.ClientSendChannelBuffer, zlog),
	}, nil
}

// RegisterRoutes registers the REST API under /api and the notification
// WebSocket at the configured path.
func (m *AdminModule) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api", httpadapter.RequestID(), httpadapter.SecurityHeaders(), httpadapter.MutationLimiter(m.Config.API.MutationsPerMinute, time.Minute))
	m.SectionHandler.RegisterRoutes(api)
	m.NotificationHub.RegisterRoutes(app, m.Config.Realtime.WebSocketPath)
	m.Logger.Infof("Admin routes registered (websocket at %s)", m.Config.Realtime.WebSocketPath)
}

// HealthCheck pings Redis when it backs the notification store.
func (m *AdminModule) HealthCheck(ctx context.Context) error {
	if m.RedisClient != nil && m.Config.Notifications.Store == config.StoreRedis {
		if err := m.RedisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis health check failed: %w", err)
		}
	}
	return nil
}

// Stop tears the module down. Requests still in flight finish but their
// results are dropped.
func (m *AdminModule) Stop() error {
	m.Logger.Info("Stopping Admin Module...")
	m.NotificationHub.Close()
	m.Sections.Shutdown()
	if err := m.History.Close(); err != nil {
		return fmt.Errorf("failed to close notification store: %w", err)
	}
	m.HTTPClient.CloseIdleConnections()
	return nil
}
