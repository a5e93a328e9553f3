package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/newshub/internal/article"
	"github.com/hitoshi/newshub/internal/middleware"
	"github.com/hitoshi/newshub/internal/model"
)

// stubSessionFinder はテスト用のSessionFinder。
// "valid"のみ有効なセッションとして扱う。
type stubSessionFinder struct{}

func (stubSessionFinder) FindByID(_ context.Context, id string) (*model.Session, error) {
	if id != "valid" {
		return nil, nil
	}
	return &model.Session{
		ID:        id,
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(1000),
		GeneralBurst:    1000,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(rl.Stop)

	articleSvc := &mockArticleService{
		page:    &article.Page{Articles: []*model.Article{}, Page: 1, PerPage: 20},
		article: sampleArticle(1),
		personalized: &article.PersonalizedPage{
			Configured: true,
			Page:       &article.Page{Articles: []*model.Article{}, Page: 1, PerPage: 20},
		},
		options: &model.FilterOptions{Sources: []string{}, Categories: []string{}, Authors: []string{}},
	}
	prefSvc := &mockPreferenceService{
		pref: &model.UserPreference{UserID: "user-1", Sources: []string{}, Categories: []string{}, Authors: []string{}},
		setPref: &model.UserPreference{
			UserID: "user-1", Sources: []string{}, Categories: []string{}, Authors: []string{},
		},
	}

	return NewRouter(&RouterDeps{
		SessionFinder:     stubSessionFinder{},
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		ArticleService:    articleSvc,
		PreferenceService: prefSvc,
	})
}

func TestRouter_PublicRoutes_NoAuthRequired(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/health"},
		{http.MethodGet, "/api/articles"},
		{http.MethodGet, "/api/articles/filters"},
		{http.MethodGet, "/api/articles/1"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("%s %s status = %d, want 200", tc.method, tc.path, rec.Code)
		}
	}
}

func TestRouter_AuthRoutes_RequireSession(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/articles/personalized/feed"},
		{http.MethodGet, "/api/preferences"},
		{http.MethodPost, "/api/preferences"},
		{http.MethodPut, "/api/preferences"},
		{http.MethodDelete, "/api/preferences"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want 401", tc.method, tc.path, rec.Code)
		}
	}
}

func TestRouter_AuthRoutes_ValidSession(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/articles/personalized/feed", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("personalized feed status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/preferences", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("preferences status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_Health_ReturnsOK(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"status\":\"ok\"}\n" {
		t.Errorf("body = %q", got)
	}
}

func TestRouter_SetsRequestIDHeader(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-IDヘッダーが設定されるべき")
	}
}
