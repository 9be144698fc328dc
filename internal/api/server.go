// Package api configures and exposes the HTTP server of the proxy: the fetch
// API, the browser UI, metrics, docs and related middleware.
package api

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"faleproxy/internal/api/handler/v1handler"
	"faleproxy/internal/config"
	"faleproxy/pkg/controller"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"
)

// v1Spec contains the embedded OpenAPI specification for version 1 of the API.
//
//go:embed specs/v1.yaml
var v1Spec []byte

// publicFS holds the default browser UI, served when no static directory is configured.
//
//go:embed public
var publicFS embed.FS

// Options holds configuration for the HTTP server and its dependencies.
// It is typically created from a config.Config via NewOptions.
type Options struct {
	// SecHandlerOptions configures bearer authentication of the API.
	SecHandlerOptions *v1handler.SecHandlerOptions
	// HandlerOptions tunes request handling of the API.
	HandlerOptions v1handler.Options

	// Addr is the TCP address the server listens on, e.g. ":3001".
	Addr string
	// StaticDir is the directory the browser UI is served from; empty serves the embedded UI.
	StaticDir string
	// ReadTimeout is the maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration
	// ReadHeaderTimeout is the amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration
	// RequestTimeout bounds the handling of a single request via http.TimeoutHandler.
	RequestTimeout time.Duration
	// MaxHeaderBytes controls the maximum number of bytes the server
	// will read parsing the request header's keys and values, including the request line.
	MaxHeaderBytes int
	// MetricsPath is the HTTP path at which Prometheus metrics are served.
	MetricsPath string
	// AllowedOrigins lists the origins allowed to call the API from a browser.
	AllowedOrigins []string
	// Pprof mounts the profiling endpoints.
	Pprof bool
}

// NewOptions constructs an Options value from the provided application configuration.
func NewOptions(cfg *config.Config) Options {
	return Options{
		SecHandlerOptions: v1handler.NewSecHandlerOptions(cfg),
		HandlerOptions:    v1handler.NewOptions(cfg),

		Addr:              cfg.Addr(),
		StaticDir:         cfg.HTTP.StaticDir,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		RequestTimeout:    cfg.HTTP.RequestTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MetricsPath:       cfg.HTTP.MetricsPath,
		AllowedOrigins:    cfg.HTTP.AllowedOrigins,
		Pprof:             cfg.HTTP.Pprof,
	}
}

type Deps struct {
	v1handler.Deps

	// Gatherer is exposed on the metrics path. Nil selects prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// NewServer wires up and returns a configured *http.Server using the provided Options.
// It sets up:
// - the fetch API, unversioned for the bundled UI and under /v1
// - the browser UI from StaticDir or the embedded assets
// - Prometheus metrics endpoint (MetricsPath)
// - Embedded OpenAPI v1 spec and Swagger UI
// - a liveness endpoint and, optionally, pprof endpoints
// It also wraps the mux with CORS, gzip and logging middlewares and applies a request timeout.
func NewServer(deps Deps, opts Options) (*http.Server, error) {
	mux := http.NewServeMux()

	// prometheus metrics
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if opts.MetricsPath != "" {
		mux.Handle("GET "+opts.MetricsPath, promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	// v1 specs file
	mux.HandleFunc("GET /specs/v1.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(v1Spec)
	})
	// v1 api swagger playground
	mux.Handle("GET /v1/docs/", v5emb.New(
		"Faleproxy",
		"/specs/v1.yaml",
		"/v1/docs/",
	))

	// v1 api
	secHandler, err := v1handler.NewSecHandler(opts.SecHandlerOptions)
	if err != nil {
		return nil, fmt.Errorf("could not create sec handler: %w", err)
	}
	v1handler.New(deps.Deps, opts.HandlerOptions).Register(mux, secHandler)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// pprof
	if opts.Pprof {
		mux.Handle(controller.PprofPath, controller.Pprof())
	}

	// browser ui
	static, err := staticFS(opts.StaticDir)
	if err != nil {
		return nil, err
	}
	mux.Handle("/", http.FileServerFS(static))

	// cors
	handler := controller.WithCORS(opts.AllowedOrigins)(mux)

	// gzip
	gzip, err := controller.WithGzip()
	if err != nil {
		return nil, err
	}
	handler = gzip(handler)

	// logger
	handler = controller.WithLogger(handler)

	if opts.RequestTimeout > 0 {
		handler = http.TimeoutHandler(handler, opts.RequestTimeout, `{"error":"request timed out","code":"TIMEOUT"}`)
	}

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
		MaxHeaderBytes:    opts.MaxHeaderBytes,
	}, nil
}

func staticFS(dir string) (fs.FS, error) {
	if dir == "" {
		sub, err := fs.Sub(publicFS, "public")
		if err != nil {
			return nil, fmt.Errorf("could not open embedded ui: %w", err)
		}

		return sub, nil
	}

	// os.DirFS defers errors to the first request, so check the root now.
	root := os.DirFS(dir)
	if _, err := fs.Stat(root, "."); err != nil {
		return nil, fmt.Errorf("could not open static dir: %w", err)
	}

	return root, nil
}
