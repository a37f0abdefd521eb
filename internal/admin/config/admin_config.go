package config

import (
	"errors"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// RemoteConfig points the console at the REST collection it mirrors.
type RemoteConfig struct {
	// APIURL is the base URL; collections live at APIURL/user and APIURL/page.
	APIURL            string        `env:"ADMIN_API_URL,required" json:"api_url"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s" json:"request_timeout"`
	MaxConnsPerHost   int           `env:"MAX_CONNS_PER_HOST" envDefault:"64" json:"max_conns_per_host"`
	ClearOnFetchError bool          `env:"LIST_CLEAR_ON_FETCH_ERROR" envDefault:"false" json:"clear_on_fetch_error"`
}

// RealtimeConfig holds the notification push settings.
type RealtimeConfig struct {
	// WebSocketPath is the endpoint notifications are pushed on.
	WebSocketPath string `env:"WEBSOCKET_PATH" envDefault:"/ws/notifications" json:"websocket_path"`

	// ClientSendChannelBuffer is the per-client queue; slow clients drop
	// notifications once it fills.
	ClientSendChannelBuffer int `env:"CLIENT_SEND_CHANNEL_BUFFER" envDefault:"16" json:"client_send_channel_buffer"`
}

// APIConfig tunes the HTTP API served to the browser.
type APIConfig struct {
	// MutationsPerMinute caps non-GET requests per client; 0 disables the cap.
	MutationsPerMinute int `env:"MUTATIONS_PER_MINUTE" envDefault:"0" json:"mutations_per_minute"`
}

// NotificationConfig selects where notification history is kept.
type NotificationConfig struct {
	Store   string `env:"NOTIFICATION_STORE" envDefault:"memory" json:"store"`
	History int    `env:"NOTIFICATION_HISTORY" envDefault:"100" json:"history"`
	Stream  string `env:"NOTIFICATION_STREAM" envDefault:"admin:notifications" json:"stream"`
}

// RedisConfig holds the Redis connection used by the redis notification store.
type RedisConfig struct {
	Host            string `env:"REDIS_HOST" envDefault:"localhost"`
	Port            string `env:"REDIS_PORT" envDefault:"6379"`
	Password        string `env:"REDIS_PASSWORD"`
	Database        int    `env:"REDIS_DB" envDefault:"0"`
	MaxRetries      int    `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	PoolSize        int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns    int    `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	EnableTLS       bool   `env:"REDIS_TLS" envDefault:"false"`
	ConnMaxIdleTime string `env:"REDIS_CONN_MAX_IDLE_TIME" envDefault:"30m"`
	ConnMaxLifetime string `env:"REDIS_CONN_MAX_LIFETIME" envDefault:"1h"`
}

// GetAddr returns host:port.
func (r *RedisConfig) GetAddr() string {
	return net.JoinHostPort(r.Host, r.Port)
}

// AdminConfig holds all configuration for the admin module.
type AdminConfig struct {
	Remote        RemoteConfig       `json:"remote"`
	API           APIConfig          `json:"api"`
	Realtime      RealtimeConfig     `json:"realtime"`
	Notifications NotificationConfig `json:"notifications"`
	Redis         RedisConfig        `json:"redis"`
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*AdminConfig, error) {
	cfg := &AdminConfig{}

	if err := env.Parse(&cfg.Remote); err != nil {
		return nil, errors.New("failed to load remote configuration from environment: " + err.Error())
	}
	if err := env.Parse(&cfg.API); err != nil {
		return nil, errors.New("failed to load api configuration from environment: " + err.Error())
	}
	if err := env.Parse(&cfg.Realtime); err != nil {
		return nil, errors.New("failed to load realtime configuration from environment: " + err.Error())
	}
	if err := env.Parse(&cfg.Notifications); err != nil {
		return nil, errors.New("failed to load notification configuration from environment: " + err.Error())
	}
	if err := env.Parse(&cfg.Redis); err != nil {
		return nil, errors.New("failed to load redis configuration from environment: " + err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express and fills zero values.
func (c *AdminConfig) Validate() error {
	u, err := url.Parse(c.Remote.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("ADMIN_API_URL must be an absolute http(s) URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("ADMIN_API_URL must use http or https")
	}
	c.Remote.APIURL = strings.TrimRight(c.Remote.APIURL, "/")

	if c.Remote.RequestTimeout <= 0 {
		c.Remote.RequestTimeout = 10 * time.Second
	}
	if c.API.MutationsPerMinute < 0 {
		c.API.MutationsPerMinute = 0
	}
	if c.Realtime.WebSocketPath == "" {
		c.Realtime.WebSocketPath = "/ws/notifications"
	}
	if c.Realtime.ClientSendChannelBuffer <= 0 {
		c.Realtime.ClientSendChannelBuffer = 16
	}
	if c.Notifications.History <= 0 {
		c.Notifications.History = 100
	}
	switch c.Notifications.Store {
	case "":
		c.Notifications.Store = StoreMemory
	case StoreMemory, StoreRedis:
	default:
		return errors.New("NOTIFICATION_STORE must be \"memory\" or \"redis\"")
	}
	return nil
}

// DefaultAdminConfig returns an AdminConfig with default values.
func DefaultAdminConfig() *AdminConfig {
	return &AdminConfig{
		Remote: RemoteConfig{
			APIURL:          "http://localhost:4000",
			RequestTimeout:  10 * time.Second,
			MaxConnsPerHost: 64,
		},
		Realtime: RealtimeConfig{
			WebSocketPath:           "/ws/notifications",
			ClientSendChannelBuffer: 16,
		},
		Notifications: NotificationConfig{
			Store:   StoreMemory,
			History: 100,
			Stream:  "admin:notifications",
		},
		Redis: RedisConfig{
			Host:            "localhost",
			Port:            "6379",
			MaxRetries:      3,
			PoolSize:        10,
			MinIdleConns:    2,
			ConnMaxIdleTime: "30m",
			ConnMaxLifetime: "1h",
		},
	}
}
