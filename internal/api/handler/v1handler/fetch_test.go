package v1handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"faleproxy/internal/api/handler/v1handler"
	mockproxy "faleproxy/internal/proxy/mock"
	"faleproxy/pkg/controller"
	"faleproxy/pkg/domain"
	"faleproxy/pkg/logger"
	"faleproxy/pkg/serrors"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fetchResponse struct {
	Success      bool   `json:"success"`
	Content      string `json:"content"`
	Title        string `json:"title"`
	OriginalURL  string `json:"originalUrl"`
	FinalURL     string `json:"finalUrl"`
	StatusCode   int    `json:"statusCode"`
	Replacements int    `json:"replacements"`
	FetchedAt    string `json:"fetchedAt"`
	Error        string `json:"error"`
	Code         string `json:"code"`
	RequestID    string `json:"requestId"`
}

func newFetchMux(t *testing.T, opts v1handler.Options) (*mockproxy.MockProxy, *http.ServeMux) {
	t.Helper()

	ctrl := gomock.NewController(t)
	p := mockproxy.NewMockProxy(ctrl)
	sec, err := v1handler.NewSecHandler(nil)
	require.NoError(t, err)

	mux := http.NewServeMux()
	v1handler.New(v1handler.Deps{Proxy: p}, opts).Register(mux, sec)

	return p, mux
}

func doFetch(t *testing.T, h http.Handler, path, contentType, body string) (*httptest.ResponseRecorder, fetchResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var res fetchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), "body: %s", rec.Body.String())

	return rec, res
}

func TestFetch_Success(t *testing.T) {
	p, mux := newFetchMux(t, v1handler.Options{})

	page := &domain.Page{
		Content:      "<html><head><title>Fale University</title></head><body><h1>Fale</h1></body></html>",
		Title:        "Fale University",
		OriginalURL:  "https://www.yale.edu/",
		FinalURL:     "https://www.yale.edu/home",
		StatusCode:   200,
		Replacements: 2,
		FetchedAt:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	p.EXPECT().Fetch(gomock.Any(), "https://www.yale.edu/").Return(page, nil)

	rec, res := doFetch(t, mux, "/fetch", "application/json", `{"url":"https://www.yale.edu/"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	require.True(t, res.Success)
	require.Equal(t, page.Content, res.Content)
	require.Equal(t, "Fale University", res.Title)
	require.Equal(t, "https://www.yale.edu/", res.OriginalURL)
	require.Equal(t, "https://www.yale.edu/home", res.FinalURL)
	require.Equal(t, 200, res.StatusCode)
	require.Equal(t, 2, res.Replacements)
	require.Equal(t, "2025-03-01T12:00:00Z", res.FetchedAt)
}

func TestFetch_VersionedPathAndExtraMembers(t *testing.T) {
	p, mux := newFetchMux(t, v1handler.Options{})
	p.EXPECT().Fetch(gomock.Any(), "https://example.com/").Return(&domain.Page{OriginalURL: "https://example.com/"}, nil)

	rec, res := doFetch(t, mux, "/v1/fetch", "application/json",
		`{"mode":"fast","nested":{"url":"ignored"},"url":"https://example.com/"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, res.Success)
	require.Equal(t, "https://example.com/", res.OriginalURL)
}

func TestFetch_FormEncoded(t *testing.T) {
	p, mux := newFetchMux(t, v1handler.Options{})
	p.EXPECT().Fetch(gomock.Any(), "https://example.com/?q=yale").Return(&domain.Page{}, nil)

	form := url.Values{"url": {"https://example.com/?q=yale"}}.Encode()
	rec, res := doFetch(t, mux, "/fetch", "application/x-www-form-urlencoded", form)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, res.Success)
}

func TestFetch_MissingURL(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"empty body", "", ""},
		{"empty object", "application/json", `{}`},
		{"null url", "application/json", `{"url":null}`},
		{"empty url", "application/json", `{"url":""}`},
		{"blank url", "application/json", `{"url":"   "}`},
		{"empty form", "application/x-www-form-urlencoded", "other=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// the proxy must not be called
			_, mux := newFetchMux(t, v1handler.Options{})

			rec, res := doFetch(t, mux, "/fetch", tt.contentType, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Equal(t, "URL is required", res.Error)
			require.Equal(t, serrors.ErrBadRequest.Error(), res.Code)
			require.False(t, res.Success)
		})
	}
}

func TestFetch_MalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"not json", `url=https://example.com`, "invalid JSON body"},
		{"array", `["https://example.com"]`, "invalid JSON body"},
		{"non string url", `{"url":42}`, "url must be a string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mux := newFetchMux(t, v1handler.Options{})

			rec, res := doFetch(t, mux, "/fetch", "application/json", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Contains(t, res.Error, tt.msg)
		})
	}
}

func TestFetch_BodyTooLarge(t *testing.T) {
	_, mux := newFetchMux(t, v1handler.Options{MaxRequestBytes: 16})

	rec, res := doFetch(t, mux, "/fetch", "application/json", `{"url":"https://example.com/a/long/path"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "request body exceeds 16 bytes", res.Error)
}

func TestFetch_ProxyError(t *testing.T) {
	p, mux := newFetchMux(t, v1handler.Options{})

	cause := serrors.With(serrors.ErrUpstream, "upstream responded with status 404")
	p.EXPECT().Fetch(gomock.Any(), "https://example.com/missing").Return(nil, cause)

	rec, res := doFetch(t, mux, "/fetch", "application/json", `{"url":"https://example.com/missing"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code, "every fetch failure is reported as 500")
	require.Equal(t, "Failed to fetch content: upstream responded with status 404", res.Error)
	require.Equal(t, serrors.ErrInternal.Error(), res.Code)
	require.False(t, res.Success)
}

func TestFetch_MethodNotAllowed(t *testing.T) {
	_, mux := newFetchMux(t, v1handler.Options{})

	req := httptest.NewRequest(http.MethodGet, "/fetch", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestFetch_ErrorCarriesRequestIDAndSubject(t *testing.T) {
	p, mux := newFetchMux(t, v1handler.Options{})
	p.EXPECT().Fetch(gomock.Any(), "https://example.com/").Return(nil, errors.New("connection refused"))

	core, logs := observer.New(zapcore.DebugLevel)
	req := httptest.NewRequest(http.MethodPost, "/fetch", strings.NewReader(`{"url":"https://example.com/"}`))
	ctx := logger.WithLogger(req.Context(), zap.New(core))
	ctx = context.WithValue(ctx, v1handler.SubjectKey, "ui-client")
	req = req.WithContext(ctx)
	req.Header.Set(controller.RequestIDHeader, "req-7")

	rec := httptest.NewRecorder()
	controller.WithLogger(mux).ServeHTTP(rec, req)

	var res fetchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Failed to fetch content: connection refused", res.Error)
	require.Equal(t, "req-7", res.RequestID)

	failed := logs.FilterMessage("request failed").All()
	require.Len(t, failed, 1)
	fields := failed[0].ContextMap()
	require.Equal(t, "ui-client", fields["subject"])
	require.Equal(t, "req-7", fields["request_id"])
}
