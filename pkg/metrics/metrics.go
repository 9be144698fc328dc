// Package metrics holds instrumentation settings shared by the packages that
// record OpenTelemetry metrics.
package metrics

// InstrumentationName is the meter and tracer name used across the service.
const InstrumentationName = "faleproxy"

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30} //nolint: gochecknoglobals

// SizeBuckets provides histogram buckets in bytes for document sizes.
var SizeBuckets = []float64{1 << 10, 8 << 10, 64 << 10, 256 << 10, 1 << 20, 4 << 20, 10 << 20} //nolint: gochecknoglobals
