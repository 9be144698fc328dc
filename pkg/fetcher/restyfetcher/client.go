// Package restyfetcher provides a fetcher.Client implementation backed by
// go-resty.
package restyfetcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"faleproxy/pkg/fetcher"
	"faleproxy/pkg/serrors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
)

const (
	// DefaultTimeout bounds a whole fetch, redirects and body included.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the redirect cap used when Options.MaxRedirects is not positive.
	DefaultMaxRedirects = 10
	// DefaultUserAgent is sent when Options.UserAgent is empty.
	DefaultUserAgent = "Mozilla/5.0 (compatible; Faleproxy/1.0)"
)

// Options configure the upstream HTTP client.
type Options struct {
	// Timeout bounds a single fetch. Zero selects DefaultTimeout.
	Timeout time.Duration
	// UserAgent is sent with every request.
	UserAgent string
	// MaxRedirects caps followed redirects.
	MaxRedirects int
	// MaxBodyBytes limits the size of accepted response bodies; zero or less disables the limit.
	MaxBodyBytes int64
	// Transport overrides the HTTP transport, mostly for tests.
	Transport http.RoundTripper
	// Logger receives resty's own diagnostics. *zap.SugaredLogger satisfies it.
	Logger resty.Logger
}

// Client fetches pages over HTTP(S). It is safe for concurrent use.
type Client struct {
	resty        *resty.Client
	maxBodyBytes int64
}

// Ensure Client conforms to the fetcher.Client interface at compile time.
var _ fetcher.Client = (*Client)(nil)

// New constructs a Client from opts.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	// every fetch is anonymous: cookies set by one upstream response must
	// never be replayed on another user's request
	rc := resty.New().
		SetCookieJar(nil).
		SetTimeout(opts.Timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(opts.MaxRedirects)).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if opts.Transport != nil {
		rc.SetTransport(opts.Transport)
	}
	if opts.Logger != nil {
		rc.SetLogger(opts.Logger)
	}

	return &Client{
		resty:        rc,
		maxBodyBytes: opts.MaxBodyBytes,
	}
}

// ValidateURL parses raw and checks that it is an absolute http or https URL.
func ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "invalid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, serrors.With(serrors.ErrBadRequest, "invalid URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, serrors.With(serrors.ErrBadRequest, "invalid URL %q: missing host", raw)
	}

	return u, nil
}

// Fetch retrieves URL, enforces the body limit and decodes the body to UTF-8
// according to the declared or detected charset.
func (c *Client) Fetch(ctx context.Context, URL string) (*fetcher.Response, error) {
	u, err := ValidateURL(URL)
	if err != nil {
		return nil, err
	}

	resp, err := c.resty.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(u.String())
	if err != nil {
		return nil, classify(err, u)
	}
	body := resp.RawBody()
	defer func() {
		_ = body.Close()
	}()

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, serrors.With(serrors.ErrUpstream, "upstream responded with status %d", resp.StatusCode())
	}

	raw, err := c.readBody(body)
	if err != nil {
		return nil, err
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType == "" {
		contentType = mimetype.Detect(raw).String()
	}

	decoded, err := decode(raw, contentType)
	if err != nil {
		return nil, err
	}

	finalURL := u.String()
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		finalURL = resp.RawResponse.Request.URL.String()
	}

	return &fetcher.Response{
		URL:         finalURL,
		StatusCode:  resp.StatusCode(),
		ContentType: contentType,
		Body:        decoded,
	}, nil
}

func (c *Client) readBody(body io.Reader) ([]byte, error) {
	if c.maxBodyBytes <= 0 {
		b, err := io.ReadAll(body)
		if err != nil {
			return nil, serrors.Wrap(serrors.ErrUpstream, err, "could not read response body")
		}

		return b, nil
	}

	b, err := io.ReadAll(io.LimitReader(body, c.maxBodyBytes+1))
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrUpstream, err, "could not read response body")
	}
	if int64(len(b)) > c.maxBodyBytes {
		return nil, serrors.With(serrors.ErrUpstream, "response body exceeds %d bytes", c.maxBodyBytes)
	}

	return b, nil
}

// decode converts raw to UTF-8. The encoding comes from a byte order mark,
// the charset parameter of contentType or a <meta> declaration, in that order.
func decode(raw []byte, contentType string) ([]byte, error) {
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrUpstream, err, "could not detect charset")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrUpstream, err, "could not decode response body")
	}

	return b, nil
}

func classify(err error, u *url.URL) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return serrors.Wrap(serrors.ErrTimeout, err, "timed out fetching %s", u.Redacted())
	}

	return serrors.Wrap(serrors.ErrUpstream, err, "could not fetch %s", u.Redacted())
}
