package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/newshub/internal/article"
	"github.com/hitoshi/newshub/internal/middleware"
	"github.com/hitoshi/newshub/internal/model"
)

// ArticleServiceInterface は記事ハンドラーが必要とするサービスインターフェース。
type ArticleServiceInterface interface {
	// List は条件に一致する記事の1ページを返す。
	List(ctx context.Context, criteria model.ListCriteria) (*article.Page, error)
	// Get は指定IDの記事を返す。見つからない場合はARTICLE_NOT_FOUNDエラー。
	Get(ctx context.Context, id int64) (*model.Article, error)
	// ListPersonalized はユーザー設定に基づくフィードを返す。
	ListPersonalized(ctx context.Context, userID string, criteria model.ListCriteria) (*article.PersonalizedPage, error)
	// FilterOptions は選択可能なフィルタ値を返す。
	FilterOptions(ctx context.Context) (*model.FilterOptions, error)
}

// ArticleHandler は記事APIのHTTPハンドラー。
type ArticleHandler struct {
	service ArticleServiceInterface
}

// NewArticleHandler はArticleHandlerを生成する。
func NewArticleHandler(service ArticleServiceInterface) *ArticleHandler {
	return &ArticleHandler{service: service}
}

// --- レスポンス型 ---

// articleResponse は記事1件のJSON表現。
type articleResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Author      string    `json:"author"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
	PublishedAt time.Time `json:"published_at"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"image_url"`
}

// paginationLinks はページネーションのナビゲーションリンク。
// 前後ページが存在しない場合はnullになる。
type paginationLinks struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

// paginationMeta はページネーションのメタ情報。
type paginationMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
}

// articleListResponse は記事一覧のレスポンス。
type articleListResponse struct {
	Data  []articleResponse `json:"data"`
	Links paginationLinks   `json:"links"`
	Meta  paginationMeta    `json:"meta"`
}

// noPreferencesResponse はユーザー設定未登録時のパーソナライズドフィードレスポンス。
// エラーではなく明示的な「設定なし」結果として200で返す。
type noPreferencesResponse struct {
	Message string            `json:"message"`
	Data    []articleResponse `json:"data"`
	Links   []string          `json:"links"`
	Meta    []string          `json:"meta"`
}

// noPreferencesMessage は設定未登録時のメッセージ。
const noPreferencesMessage = "No preferences set. Please set your preferences first."

func toArticleResponse(a *model.Article) articleResponse {
	return articleResponse{
		ID:          a.ID,
		Title:       a.Title,
		Content:     a.Content,
		Author:      a.Author,
		Source:      a.Source,
		Category:    a.Category,
		PublishedAt: a.PublishedAt,
		URL:         a.URL,
		ImageURL:    a.ImageURL,
	}
}

// toListResponse はページをリクエストURLベースのナビゲーションリンク付きレスポンスに変換する。
func toListResponse(r *http.Request, page *article.Page) articleListResponse {
	data := make([]articleResponse, 0, len(page.Articles))
	for _, a := range page.Articles {
		data = append(data, toArticleResponse(a))
	}

	last := page.LastPage()
	links := paginationLinks{
		First: buildPageURL(r, 1),
		Last:  buildPageURL(r, last),
	}
	if page.Page > 1 {
		prev := buildPageURL(r, page.Page-1)
		links.Prev = &prev
	}
	if page.Page < last {
		next := buildPageURL(r, page.Page+1)
		links.Next = &next
	}

	return articleListResponse{
		Data:  data,
		Links: links,
		Meta: paginationMeta{
			CurrentPage: page.Page,
			PerPage:     page.PerPage,
			Total:       page.Total,
		},
	}
}

// buildPageURL はリクエストのクエリを維持したままpageパラメータを差し替えたURLを返す。
func buildPageURL(r *http.Request, page int) string {
	values, _ := url.ParseQuery(r.URL.RawQuery)
	values.Set("page", strconv.Itoa(page))
	return r.URL.Path + "?" + values.Encode()
}

// parseListCriteria はクエリパラメータから検索条件を構築する。
// 不正な値（日付やページ番号）は黙って無視し、デフォルトに委ねる。
func parseListCriteria(r *http.Request) model.ListCriteria {
	q := r.URL.Query()

	criteria := model.ListCriteria{
		Search:     q.Get("search"),
		Category:   q.Get("category"),
		Source:     q.Get("source"),
		Author:     q.Get("author"),
		Sources:    splitCSV(q.Get("sources")),
		Categories: splitCSV(q.Get("categories")),
		Authors:    splitCSV(q.Get("authors")),
		SortBy:     q.Get("sort_by"),
		SortOrder:  q.Get("sort_order"),
	}

	if date := q.Get("date"); date != "" {
		if t, err := time.Parse("2006-01-02", date); err == nil {
			criteria.DateFrom = &t
		}
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		criteria.Page = page
	}
	if perPage, err := strconv.Atoi(q.Get("per_page")); err == nil {
		criteria.PerPage = perPage
	}

	return criteria
}

// splitCSV はカンマ区切り文字列を空白除去済みの要素に分割する。
// 空要素は除去し、入力が空なら nil を返す。
func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// List は記事一覧を取得する。
// GET /api/articles?search=&date=&category=&source=&author=&sources=&categories=&authors=&sort_by=&sort_order=&per_page=&page=
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), parseListCriteria(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toListResponse(r, page))
}

// Get は記事詳細を取得する。
// GET /api/articles/{id}
func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		// 数値でないIDは存在しない記事として扱う
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewArticleNotFoundError(0))
		return
	}

	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]articleResponse{"data": toArticleResponse(a)})
}

// FilterOptions は選択可能なフィルタ値の一覧を取得する。
// GET /api/articles/filters
func (h *ArticleHandler) FilterOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.service.FilterOptions(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]*model.FilterOptions{"data": options})
}

// PersonalizedFeed はユーザー設定に基づくフィードを取得する。
// GET /api/articles/personalized/feed
// 設定未登録の場合はメッセージ付きの空レスポンスを200で返す。
func (h *ArticleHandler) PersonalizedFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	result, err := h.service.ListPersonalized(r.Context(), userID, parseListCriteria(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if !result.Configured {
		json.NewEncoder(w).Encode(noPreferencesResponse{
			Message: noPreferencesMessage,
			Data:    []articleResponse{},
			Links:   []string{},
			Meta:    []string{},
		})
		return
	}

	json.NewEncoder(w).Encode(toListResponse(r, result.Page))
}
