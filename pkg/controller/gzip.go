package controller

import (
	"fmt"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// gzipMinSize is the smallest response body worth compressing.
const gzipMinSize = 1024

// WithGzip returns a middleware compressing responses for clients that send
// Accept-Encoding: gzip. Bodies shorter than gzipMinSize are written as is.
func WithGzip() (func(http.Handler) http.Handler, error) {
	wrapper, err := gzhttp.NewWrapper(gzhttp.MinSize(gzipMinSize))
	if err != nil {
		return nil, fmt.Errorf("could not create gzip wrapper: %w", err)
	}

	return func(next http.Handler) http.Handler {
		return wrapper(next)
	}, nil
}
