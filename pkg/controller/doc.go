// Package controller contains HTTP middlewares and helper handlers used by the
// proxy's HTTP server.
//
// Middlewares:
//   - WithLogger: request ID, request-scoped logger and access log.
//   - WithCORS: cross-origin headers and OPTIONS preflight handling.
//   - WithGzip: response compression.
//
// Helpers:
//   - Pprof: net/http/pprof endpoints mounted under PprofPath.
package controller
