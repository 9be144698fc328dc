package proxy

import (
	"context"
	"faleproxy/pkg/domain"
)

// Proxy fetches remote pages and returns them with the configured word replaced.
//
//go:generate mockgen -package mockproxy -source=interface.go -destination=mock/mockproxy.go *
type Proxy interface {
	Fetch(ctx context.Context, URL string) (*domain.Page, error)
}
