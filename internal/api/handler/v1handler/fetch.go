package v1handler

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"faleproxy/pkg/domain"
	"faleproxy/pkg/logger"
	"faleproxy/pkg/serrors"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// Fetch handles POST /fetch. The URL is read from a JSON body {"url": "..."}
// or from a form encoded url field. A missing or blank URL is rejected with 400; any
// failure to fetch or rewrite the page is reported as 500 with the cause in
// the message.
func (h *Handler) Fetch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if sub := Subject(ctx); sub != "" {
		ctx = logger.WithFields(ctx, zap.String("subject", sub))
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxRequestBytes)
	URL, err := readURL(r)
	if err != nil {
		writeError(ctx, w, err)

		return
	}
	if strings.TrimSpace(URL) == "" {
		writeError(ctx, w, serrors.With(serrors.ErrBadRequest, "URL is required"))

		return
	}

	page, err := h.deps.Proxy.Fetch(ctx, URL)
	if err != nil {
		writeError(ctx, w, serrors.Wrap(serrors.ErrInternal, err, "Failed to fetch content"))

		return
	}

	writeJSON(w, http.StatusOK, encodePage(page))
}

func readURL(r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return "", bodyError(err)
		}

		return r.PostForm.Get("url"), nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", bodyError(err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return "", nil
	}

	return decodeFetchRequest(body)
}

// decodeFetchRequest extracts the url member of a JSON object. A missing or
// null member yields an empty URL; unknown members are ignored.
func decodeFetchRequest(body []byte) (string, error) {
	var URL string
	err := jx.DecodeBytes(body).ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "url" {
			return d.Skip()
		}

		switch d.Next() {
		case jx.Null:
			return d.Null()
		case jx.String:
			v, err := d.Str()
			URL = v

			return err
		default:
			return serrors.With(serrors.ErrBadRequest, "url must be a string")
		}
	})
	if err != nil {
		if serrors.KindOf(err) != nil {
			return "", err
		}

		return "", serrors.Wrap(serrors.ErrBadRequest, err, "invalid JSON body")
	}

	return URL, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return serrors.With(serrors.ErrBadRequest, "request body exceeds %d bytes", tooLarge.Limit)
	}

	return serrors.Wrap(serrors.ErrBadRequest, err, "could not read request body")
}

// encodePage renders the success body. success, content, title and
// originalUrl are what the bundled UI reads; the rest is informational.
func encodePage(p *domain.Page) []byte {
	var e jx.Encoder

	e.ObjStart()
	e.FieldStart("success")
	e.Bool(true)
	e.FieldStart("content")
	e.Str(p.Content)
	e.FieldStart("title")
	e.Str(p.Title)
	e.FieldStart("originalUrl")
	e.Str(p.OriginalURL)
	e.FieldStart("finalUrl")
	e.Str(p.FinalURL)
	e.FieldStart("statusCode")
	e.Int(p.StatusCode)
	e.FieldStart("contentType")
	e.Str(p.ContentType)
	e.FieldStart("replacements")
	e.Int(p.Replacements)
	if !p.FetchedAt.IsZero() {
		e.FieldStart("fetchedAt")
		e.Str(p.FetchedAt.UTC().Format(time.RFC3339))
	}
	e.ObjEnd()

	return e.Bytes()
}
