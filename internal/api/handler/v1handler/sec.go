package v1handler

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"strings"

	"faleproxy/internal/config"
	"faleproxy/pkg/serrors"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

// SubjectKey is the context key holding the subject of a verified bearer token.
const SubjectKey ctxKey = "Subject"

// Subject returns the authenticated subject stored in ctx, if any.
func Subject(ctx context.Context) string {
	sub, _ := ctx.Value(SubjectKey).(string)

	return sub
}

// SecHandlerOptions configure bearer token verification.
type SecHandlerOptions struct {
	// PublicKey is the PEM encoded RSA public key; empty disables authentication.
	PublicKey string
}

func NewSecHandlerOptions(cfg *config.Config) *SecHandlerOptions {
	return &SecHandlerOptions{PublicKey: cfg.Auth.PublicKey}
}

// SecHandler verifies RS256 signed bearer tokens on API requests.
type SecHandler struct {
	key    *rsa.PublicKey
	parser *jwt.Parser
}

// NewSecHandler creates a SecHandler. Without a public key every request is
// let through unauthenticated.
func NewSecHandler(opts *SecHandlerOptions) (*SecHandler, error) {
	if opts == nil || strings.TrimSpace(opts.PublicKey) == "" {
		return &SecHandler{}, nil
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(opts.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("could not parse public key: %w", err)
	}

	return &SecHandler{
		key: key,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

// Enabled reports whether tokens are checked.
func (s *SecHandler) Enabled() bool {
	return s != nil && s.key != nil
}

// HandleBearerAuth verifies token and returns ctx extended with its subject.
func (s *SecHandler) HandleBearerAuth(ctx context.Context, token string) (context.Context, error) {
	if !s.Enabled() {
		return ctx, nil
	}

	var claims jwt.RegisteredClaims
	_, err := s.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil {
		return ctx, serrors.Wrap(serrors.ErrUnauthorized, err, "invalid token")
	}
	if claims.Subject == "" {
		return ctx, serrors.With(serrors.ErrUnauthorized, "token has no subject")
	}

	return context.WithValue(ctx, SubjectKey, claims.Subject), nil
}

// Middleware rejects requests to next that lack a valid bearer token. It is a
// no-op when authentication is disabled.
func (s *SecHandler) Middleware(next http.Handler) http.Handler {
	if !s.Enabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="faleproxy"`)
			writeError(ctx, w, serrors.With(serrors.ErrUnauthorized, "missing bearer token"))

			return
		}

		ctx, err := s.HandleBearerAuth(ctx, strings.TrimSpace(token))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="faleproxy", error="invalid_token"`)
			writeError(ctx, w, err)

			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
