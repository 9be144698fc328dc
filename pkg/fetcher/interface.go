// Package fetcher defines how remote pages are retrieved for rewriting.
package fetcher

import (
	"context"
)

// Response is a fetched page with its body already decoded to UTF-8.
type Response struct {
	URL         string // URL is the final location after following redirects.
	StatusCode  int    // StatusCode is the upstream HTTP status.
	ContentType string // ContentType is the declared or sniffed media type of the body.
	Body        []byte // Body is the UTF-8 encoded response body.
}

// Client retrieves remote pages.
//
//go:generate mockgen -package mockfetcher -source=interface.go -destination=mock/mockfetcher.go *
type Client interface {
	// Fetch performs a GET request for URL and returns the decoded page.
	// Invalid URLs yield serrors.ErrBadRequest, unusable upstream responses
	// serrors.ErrUpstream and expired deadlines serrors.ErrTimeout.
	Fetch(ctx context.Context, URL string) (*Response, error)
}
