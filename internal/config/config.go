package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the application configuration structure.
// It is loaded once at startup and passed explicitly to every component;
// nothing reads configuration from package-level state.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	// HTTP contains all HTTP server related configurations
	HTTP struct {
		// Host is the interface the HTTP server binds to; empty means all interfaces
		Host string `env:"HTTP_HOST" env-default:"" yaml:"host"`
		// Port is the TCP port the HTTP server listens on
		Port int `env:"HTTP_PORT" env-default:"3001" yaml:"port"`
		// StaticDir is the directory the browser UI is served from; empty serves the embedded UI
		StaticDir string `env:"HTTP_STATIC_DIR" env-default:"" yaml:"staticDir"`
		// ReadTimeout is the maximum duration for reading the entire request, including the body
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// RequestTimeout is the maximum time allowed for processing a single request, upstream fetch included
		RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"45s" yaml:"requestTimeout"`
		// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
		MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MaxRequestBytes limits the size of API request bodies
		MaxRequestBytes int64 `env:"HTTP_MAX_REQUEST_BYTES" env-default:"1048576" yaml:"maxRequestBytes"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
		// AllowedOrigins lists the origins allowed to call the API from a browser; "*" allows any
		AllowedOrigins []string `env:"HTTP_ALLOWED_ORIGINS" env-default:"*" yaml:"allowedOrigins"`
		// Pprof exposes net/http/pprof endpoints when set
		Pprof bool `env:"HTTP_PPROF" env-default:"false" yaml:"pprof"`
	} `yaml:"http"`

	// Fetcher configures how upstream pages are retrieved
	Fetcher struct {
		// Timeout bounds a single upstream fetch
		Timeout time.Duration `env:"FETCHER_TIMEOUT" env-default:"30s" yaml:"timeout"`
		// UserAgent is sent to upstream sites
		UserAgent string `env:"FETCHER_USER_AGENT" env-default:"Mozilla/5.0 (compatible; Faleproxy/1.0)" yaml:"userAgent"` //nolint: lll
		// MaxRedirects caps followed redirects
		MaxRedirects int `env:"FETCHER_MAX_REDIRECTS" env-default:"10" yaml:"maxRedirects"`
		// MaxBodyBytes limits accepted upstream bodies
		MaxBodyBytes int64 `env:"FETCHER_MAX_BODY_BYTES" env-default:"10485760" yaml:"maxBodyBytes"`
	} `yaml:"fetcher"`

	// Rewriter configures the word replacement
	Rewriter struct {
		// From is the word being replaced
		From string `env:"REWRITER_FROM" env-default:"Yale" yaml:"from"`
		// To is the replacement word; it must have the same length as From
		To string `env:"REWRITER_TO" env-default:"Fale" yaml:"to"`
		// CaseMode is either "first-letter" or "per-letter"
		CaseMode string `env:"REWRITER_CASE_MODE" env-default:"first-letter" yaml:"caseMode"`
		// SkipElements lists elements whose text is never rewritten
		SkipElements []string `env:"REWRITER_SKIP_ELEMENTS" env-default:"script,style,noscript" yaml:"skipElements"`
	} `yaml:"rewriter"`

	// Auth configures the optional bearer token check on the API
	Auth struct {
		// PublicKey is the PEM encoded RSA key verifying tokens; empty disables authentication
		PublicKey string `env:"AUTH_PUBLIC_KEY" env-default:"" yaml:"publicKey"`
		// PrivateKey is the PEM encoded RSA key used by the jwt command to sign tokens
		PrivateKey string `env:"AUTH_PRIVATE_KEY" env-default:"" yaml:"privateKey"`
	} `yaml:"auth"`

	// GracefulShutdownTimeout is the maximum duration to wait for ongoing requests to complete during shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Addr returns the listen address built from HTTP.Host and HTTP.Port.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.HTTP.Host, strconv.Itoa(c.HTTP.Port))
}

// Load receives the path for yaml config file and returns a filled Config struct.
// When the file does not exist, configuration is read from the environment only.
func Load(configPath string) (*Config, error) {
	var cfg Config

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
				return nil, fmt.Errorf("could not read config: %w", err)
			}

			return &cfg, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("could not stat config file: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("could not read config from environment: %w", err)
	}

	return &cfg, nil
}
