// Package proxy implements the page proxy: it fetches a remote document,
// rewrites its visible text and hands the result to the transport layer.
package proxy

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"faleproxy/internal/config"
	"faleproxy/pkg/domain"
	"faleproxy/pkg/fetcher"
	"faleproxy/pkg/logger"
	"faleproxy/pkg/metrics"
	"faleproxy/pkg/replacer"
	"faleproxy/pkg/rewriter"
	"faleproxy/pkg/serrors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Options configure the word replacement and instrumentation of a Proxy.
type Options struct {
	// Replacer rewrites page text. Nil selects replacer.Default.
	Replacer *replacer.Replacer
	// SkipElements lists elements whose text is left untouched; nil selects
	// rewriter.DefaultSkipElements.
	SkipElements []string
	// MeterProvider records fetch metrics. Nil selects the global provider.
	MeterProvider metric.MeterProvider
	// TracerProvider records a span per fetch. Nil selects the global provider.
	TracerProvider trace.TracerProvider
	// Now returns the current time. Nil selects time.Now.
	Now func() time.Time
}

// NewOptions constructs Options from the application configuration. It fails
// when the configured word pair or case mode is invalid.
func NewOptions(cfg *config.Config) (Options, error) {
	mode, err := replacer.ParseCaseMode(cfg.Rewriter.CaseMode)
	if err != nil {
		return Options{}, fmt.Errorf("invalid rewriter config: %w", err)
	}
	r, err := replacer.New(cfg.Rewriter.From, cfg.Rewriter.To, mode)
	if err != nil {
		return Options{}, fmt.Errorf("invalid rewriter config: %w", err)
	}

	return Options{
		Replacer:     r,
		SkipElements: cfg.Rewriter.SkipElements,
	}, nil
}

// proxy is the concrete implementation of the Proxy interface.
type proxy struct {
	fetcher  fetcher.Client
	rewriter *rewriter.Rewriter
	tracer   trace.Tracer
	now      func() time.Time

	fetches      metric.Int64Counter
	duration     metric.Float64Histogram
	pageSize     metric.Int64Histogram
	replacements metric.Int64Counter
}

// Fetch retrieves URL, replaces the configured word in its body text and
// title, and returns the rewritten page. An empty URL is rejected with
// serrors.ErrBadRequest; fetch and rewrite failures keep the kind reported by
// the failing step.
func (p *proxy) Fetch(ctx context.Context, URL string) (*domain.Page, error) {
	target := strings.TrimSpace(URL)
	if target == "" {
		return nil, serrors.With(serrors.ErrBadRequest, "URL is required")
	}

	ctx, span := p.tracer.Start(ctx, "proxy.Fetch", trace.WithAttributes(attribute.String("url.full", target)))
	defer span.End()

	start := time.Now()
	page, err := p.fetch(ctx, target)

	outcome := "success"
	if err != nil {
		outcome = "error"
		if k := serrors.KindOf(err); k != nil {
			outcome = strings.ToLower(k.Error())
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	p.fetches.Add(ctx, 1, attrs)
	p.duration.Record(ctx, time.Since(start).Seconds(), attrs)

	if err != nil {
		return nil, err
	}

	page.OriginalURL = URL
	p.pageSize.Record(ctx, int64(len(page.Content)))
	p.replacements.Add(ctx, int64(page.Replacements))
	span.SetAttributes(attribute.Int("proxy.replacements", page.Replacements))

	if logger.IsDebug(ctx) {
		logger.Debug(ctx, "page rewritten",
			zap.String("url", target),
			zap.String("final_url", page.FinalURL),
			zap.String("content_type", page.ContentType),
			zap.Int("size", len(page.Content)),
			zap.Int("replacements", page.Replacements))
	}

	return page, nil
}

func (p *proxy) fetch(ctx context.Context, URL string) (*domain.Page, error) {
	res, err := p.fetcher.Fetch(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("could not fetch page: %w", err)
	}
	fetchedAt := p.now()

	out, err := p.rewriter.Rewrite(bytes.NewReader(res.Body))
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrInternal, err, "could not rewrite page")
	}

	return &domain.Page{
		Content:      out.HTML,
		Title:        out.Title,
		FinalURL:     res.URL,
		StatusCode:   res.StatusCode,
		ContentType:  res.ContentType,
		Replacements: out.Replacements,
		FetchedAt:    fetchedAt,
	}, nil
}

// New creates a Proxy fetching pages with f and rewriting them according to options.
func New(f fetcher.Client, options Options) (Proxy, error) {
	if options.Replacer == nil {
		options.Replacer = replacer.Default
	}
	if options.MeterProvider == nil {
		options.MeterProvider = otel.GetMeterProvider()
	}
	if options.TracerProvider == nil {
		options.TracerProvider = otel.GetTracerProvider()
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	meter := options.MeterProvider.Meter(metrics.InstrumentationName)
	fetches, err := meter.Int64Counter("proxy_fetches",
		metric.WithDescription("Number of proxied page fetches by outcome"))
	if err != nil {
		return nil, fmt.Errorf("could not create fetches counter: %w", err)
	}
	duration, err := meter.Float64Histogram("proxy_fetch_duration",
		metric.WithDescription("Time spent fetching and rewriting a page"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.DefaultBuckets...))
	if err != nil {
		return nil, fmt.Errorf("could not create duration histogram: %w", err)
	}
	pageSize, err := meter.Int64Histogram("proxy_page_size",
		metric.WithDescription("Size of rewritten documents"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(metrics.SizeBuckets...))
	if err != nil {
		return nil, fmt.Errorf("could not create page size histogram: %w", err)
	}
	replacements, err := meter.Int64Counter("proxy_replacements",
		metric.WithDescription("Number of replaced word occurrences"))
	if err != nil {
		return nil, fmt.Errorf("could not create replacements counter: %w", err)
	}

	return &proxy{
		fetcher:      f,
		rewriter:     rewriter.New(options.Replacer, rewriter.Options{SkipElements: options.SkipElements}),
		tracer:       options.TracerProvider.Tracer(metrics.InstrumentationName),
		now:          options.Now,
		fetches:      fetches,
		duration:     duration,
		pageSize:     pageSize,
		replacements: replacements,
	}, nil
}
