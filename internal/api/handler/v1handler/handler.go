// Package v1handler implements the version 1 HTTP API of the proxy.
package v1handler

import (
	"context"
	"net/http"

	"faleproxy/internal/config"
	"faleproxy/internal/proxy"
	"faleproxy/pkg/controller"
	"faleproxy/pkg/logger"
	"faleproxy/pkg/serrors"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// DefaultMaxRequestBytes limits request bodies when Options leave it unset.
const DefaultMaxRequestBytes = 1 << 20

// Deps are the services the handlers delegate to.
type Deps struct {
	Proxy proxy.Proxy
}

// Options tune request handling.
type Options struct {
	// MaxRequestBytes limits the size of request bodies.
	MaxRequestBytes int64
}

// NewOptions constructs Options from the application configuration.
func NewOptions(cfg *config.Config) Options {
	return Options{MaxRequestBytes: cfg.HTTP.MaxRequestBytes}
}

type Handler struct {
	deps Deps
	opts Options
}

func New(deps Deps, opts Options) *Handler {
	if opts.MaxRequestBytes <= 0 {
		opts.MaxRequestBytes = DefaultMaxRequestBytes
	}

	return &Handler{deps: deps, opts: opts}
}

// Register mounts the API routes on mux, guarding them with sec.
func (h *Handler) Register(mux *http.ServeMux, sec *SecHandler) {
	fetch := sec.Middleware(http.HandlerFunc(h.Fetch))

	// the unversioned path is what the bundled UI posts to
	mux.Handle("POST /fetch", fetch)
	mux.Handle("POST /v1/fetch", fetch)
}

// ErrorResponse describes a failed API call.
type ErrorResponse struct {
	StatusCode int
	// Code is the machine readable error kind.
	Code string
	// Message is shown to the client.
	Message string
	// RequestID correlates the response with the server logs.
	RequestID string
}

// NewError maps err to the response sent to the client and logs it once.
func NewError(ctx context.Context, err error) *ErrorResponse {
	kind := serrors.KindOf(err)
	if kind == nil {
		kind = serrors.ErrInternal
	}
	res := &ErrorResponse{
		StatusCode: statusOf(kind),
		Code:       kind.Error(),
		Message:    serrors.PublicMessage(err),
		RequestID:  controller.RequestID(ctx),
	}

	if res.StatusCode >= http.StatusInternalServerError {
		logger.Error(ctx, "request failed", zap.Error(err), zap.Int("status_code", res.StatusCode))
	} else {
		logger.Warn(ctx, "request rejected", zap.Error(err), zap.Int("status_code", res.StatusCode))
	}

	return res
}

func statusOf(k serrors.Kind) int {
	switch k {
	case serrors.ErrBadRequest:
		return http.StatusBadRequest
	case serrors.ErrUnauthorized:
		return http.StatusUnauthorized
	case serrors.ErrForbidden:
		return http.StatusForbidden
	case serrors.ErrNotFound:
		return http.StatusNotFound
	case serrors.ErrConflict:
		return http.StatusConflict
	case serrors.ErrRateLimited:
		return http.StatusTooManyRequests
	case serrors.ErrUpstream:
		return http.StatusBadGateway
	case serrors.ErrUnavailable:
		return http.StatusServiceUnavailable
	case serrors.ErrTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends err as a JSON error body:
// {"error": message, "code": kind, "requestId": id}.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	res := NewError(ctx, err)

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("error")
	e.Str(res.Message)
	e.FieldStart("code")
	e.Str(res.Code)
	if res.RequestID != "" {
		e.FieldStart("requestId")
		e.Str(res.RequestID)
	}
	e.ObjEnd()

	writeJSON(w, res.StatusCode, e.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
