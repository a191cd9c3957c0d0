package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "AFRIFURN"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv             = "AFRIFURN_APP_ENV"
	EnvPort               = "AFRIFURN_APP_PORT"
	EnvRedisURL           = "AFRIFURN_REDIS_URL"
	EnvProductServiceURL  = "AFRIFURN_PRODUCT_SERVICE_URL"
	EnvProductTimeout     = "AFRIFURN_PRODUCT_SERVICE_TIMEOUT"
	EnvBrowseDebounce     = "AFRIFURN_BROWSE_DEBOUNCE"
	EnvBrowsePageSize     = "AFRIFURN_BROWSE_PAGE_SIZE"
	EnvBrowseSessionTTL   = "AFRIFURN_BROWSE_SESSION_TTL"
	EnvCacheEnabled       = "AFRIFURN_CACHE_ENABLED"
	EnvCacheFilterTTL     = "AFRIFURN_CACHE_FILTER_TTL"
	EnvHTTPAllowedOrigins = "AFRIFURN_HTTP_ALLOWED_ORIGINS"
)

type Config struct {
	App            AppConfig
	Redis          RedisConfig
	ProductService ProductServiceConfig
	Browse         BrowseConfig
	Cache          CacheConfig
	HTTP           HTTPConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.ProductService.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Browse.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AFRIFURN_APP_ENV" required:"true"`
	Port         string `envconfig:"AFRIFURN_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"AFRIFURN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AFRIFURN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"AFRIFURN_REDIS_URL"`
	Address      string        `envconfig:"AFRIFURN_REDIS_ADDR"`
	Password     string        `envconfig:"AFRIFURN_REDIS_PASSWORD"`
	DB           int           `envconfig:"AFRIFURN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AFRIFURN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AFRIFURN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AFRIFURN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AFRIFURN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AFRIFURN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether any redis endpoint was supplied.
func (r RedisConfig) Configured() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// ProductServiceConfig points at the product microservice behind the API gateway.
type ProductServiceConfig struct {
	BaseURL string        `envconfig:"AFRIFURN_PRODUCT_SERVICE_URL" required:"true"`
	Timeout time.Duration `envconfig:"AFRIFURN_PRODUCT_SERVICE_TIMEOUT" default:"10s"`

	BreakerMaxRequests  uint32        `envconfig:"AFRIFURN_PRODUCT_BREAKER_MAX_REQUESTS" default:"3"`
	BreakerInterval     time.Duration `envconfig:"AFRIFURN_PRODUCT_BREAKER_INTERVAL" default:"1m"`
	BreakerOpenTimeout  time.Duration `envconfig:"AFRIFURN_PRODUCT_BREAKER_OPEN_TIMEOUT" default:"30s"`
	BreakerMinRequests  uint32        `envconfig:"AFRIFURN_PRODUCT_BREAKER_MIN_REQUESTS" default:"10"`
	BreakerFailureRatio float64       `envconfig:"AFRIFURN_PRODUCT_BREAKER_FAILURE_RATIO" default:"0.6"`
}

func (p *ProductServiceConfig) validate() error {
	p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	parsed, err := url.Parse(p.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute url", EnvProductServiceURL)
	}
	if p.Timeout < 0 {
		return fmt.Errorf("%s cannot be negative", EnvProductTimeout)
	}
	if p.BreakerFailureRatio <= 0 || p.BreakerFailureRatio > 1 {
		p.BreakerFailureRatio = 0.6
	}
	return nil
}

// BrowseConfig controls browse sessions and the filter pipeline.
type BrowseConfig struct {
	Debounce      time.Duration `envconfig:"AFRIFURN_BROWSE_DEBOUNCE" default:"300ms"`
	PageSize      int           `envconfig:"AFRIFURN_BROWSE_PAGE_SIZE" default:"12"`
	SessionTTL    time.Duration `envconfig:"AFRIFURN_BROWSE_SESSION_TTL" default:"30m"`
	SweepInterval time.Duration `envconfig:"AFRIFURN_BROWSE_SWEEP_INTERVAL" default:"1m"`
	MaxSessions   int           `envconfig:"AFRIFURN_BROWSE_MAX_SESSIONS" default:"10000"`
}

func (b *BrowseConfig) validate() error {
	if b.Debounce < 0 {
		return fmt.Errorf("%s cannot be negative", EnvBrowseDebounce)
	}
	if b.PageSize <= 0 {
		return fmt.Errorf("%s must be positive", EnvBrowsePageSize)
	}
	if b.SessionTTL <= 0 {
		return fmt.Errorf("%s must be positive", EnvBrowseSessionTTL)
	}
	if b.SweepInterval <= 0 {
		b.SweepInterval = time.Minute
	}
	return nil
}

// CacheConfig controls the redis response cache in front of the product service.
type CacheConfig struct {
	Enabled   bool          `envconfig:"AFRIFURN_CACHE_ENABLED" default:"true"`
	FilterTTL time.Duration `envconfig:"AFRIFURN_CACHE_FILTER_TTL" default:"5m"`
	FacetTTL  time.Duration `envconfig:"AFRIFURN_CACHE_FACET_TTL" default:"15m"`
}

type HTTPConfig struct {
	AllowedOrigins    []string      `envconfig:"AFRIFURN_HTTP_ALLOWED_ORIGINS" default:"http://localhost:3000,https://afrifurn.co.zw"`
	RateLimitRequests int           `envconfig:"AFRIFURN_HTTP_RATE_LIMIT_REQUESTS" default:"120"`
	RateLimitWindow   time.Duration `envconfig:"AFRIFURN_HTTP_RATE_LIMIT_WINDOW" default:"1m"`
	ShutdownTimeout   time.Duration `envconfig:"AFRIFURN_HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
}

// RateLimitEnabled reports whether the per-IP limiter should be installed.
func (h HTTPConfig) RateLimitEnabled() bool {
	return h.RateLimitRequests > 0 && h.RateLimitWindow > 0
}
