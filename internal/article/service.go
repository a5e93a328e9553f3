// Package article は記事の検索・取得サービスを提供する。
package article

import (
	"context"
	"fmt"

	"github.com/hitoshi/newshub/internal/model"
	"github.com/hitoshi/newshub/internal/repository"
)

const (
	// defaultPerPage はページサイズのデフォルト値。
	defaultPerPage = 20
	// maxPerPage はページサイズの上限。超過分は切り詰められる。
	maxPerPage = 100
	// authorPlaceholder はフィルタ候補から除外する著者名プレースホルダ。
	authorPlaceholder = "Unknown"
	// maxFilterAuthors はフィルタ候補として返す著者数の上限。
	maxFilterAuthors = 100
)

// Page は記事一覧の1ページとページネーション情報を表す。
type Page struct {
	Articles []*model.Article
	Total    int64
	Page     int
	PerPage  int
}

// LastPage は総件数とページサイズから最終ページ番号を返す。最小値は1。
func (p *Page) LastPage() int {
	if p.Total == 0 {
		return 1
	}
	last := int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if last < 1 {
		return 1
	}
	return last
}

// PersonalizedPage はパーソナライズドフィードの結果を表す。
// Configuredがfalseの場合、ユーザー設定が未登録（または全フィールド空）であり、
// Pageは空ページになる。「設定はあるが0件一致」とは区別される。
type PersonalizedPage struct {
	Configured bool
	Page       *Page
}

// Service は記事の検索・取得サービス。
type Service struct {
	articleRepo repository.ArticleRepository
	prefRepo    repository.PreferenceRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(articleRepo repository.ArticleRepository, prefRepo repository.PreferenceRepository) *Service {
	return &Service{articleRepo: articleRepo, prefRepo: prefRepo}
}

// List は条件に一致する記事の1ページを返す。
// ソートフィールドが許可リスト外の場合はpublished_at降順にフォールバックし、
// ページサイズはデフォルト20、上限100に正規化される。
func (s *Service) List(ctx context.Context, criteria model.ListCriteria) (*Page, error) {
	normalizeCriteria(&criteria)

	articles, total, err := s.articleRepo.List(ctx, criteria, nil)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}

	return &Page{
		Articles: articles,
		Total:    total,
		Page:     criteria.Page,
		PerPage:  criteria.PerPage,
	}, nil
}

// Get は指定IDの記事を取得する。見つからない場合はARTICLE_NOT_FOUNDエラーを返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.Article, error) {
	article, err := s.articleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if article == nil {
		return nil, model.NewArticleNotFoundError(id)
	}
	return article, nil
}

// ListPersonalized はユーザー設定に基づくパーソナライズドフィードを返す。
// 設定が未登録または全フィールド空の場合はConfigured=falseの空ページを返す
// （エラーでも全記事でもない）。設定がある場合は非空フィールドのORグループを
// リクエスト条件とANDで結合し、Listと同一のソート・ページネーションを適用する。
func (s *Service) ListPersonalized(ctx context.Context, userID string, criteria model.ListCriteria) (*PersonalizedPage, error) {
	normalizeCriteria(&criteria)

	pref, err := s.prefRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザー設定の取得に失敗しました: %w", err)
	}

	if pref == nil || pref.IsEmpty() {
		return &PersonalizedPage{
			Configured: false,
			Page: &Page{
				Articles: []*model.Article{},
				Total:    0,
				Page:     criteria.Page,
				PerPage:  criteria.PerPage,
			},
		}, nil
	}

	articles, total, err := s.articleRepo.List(ctx, criteria, pref)
	if err != nil {
		return nil, fmt.Errorf("パーソナライズドフィードの取得に失敗しました: %w", err)
	}

	return &PersonalizedPage{
		Configured: true,
		Page: &Page{
			Articles: articles,
			Total:    total,
			Page:     criteria.Page,
			PerPage:  criteria.PerPage,
		},
	}, nil
}

// FilterOptions は記事一覧で選択可能なフィルタ値を返す。
// いずれも昇順で、著者はプレースホルダを除外して最大100件に制限される。
func (s *Service) FilterOptions(ctx context.Context) (*model.FilterOptions, error) {
	sources, err := s.articleRepo.DistinctSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("ソース候補の取得に失敗しました: %w", err)
	}

	categories, err := s.articleRepo.DistinctCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ候補の取得に失敗しました: %w", err)
	}

	authors, err := s.articleRepo.DistinctAuthors(ctx, authorPlaceholder, maxFilterAuthors)
	if err != nil {
		return nil, fmt.Errorf("著者候補の取得に失敗しました: %w", err)
	}

	if sources == nil {
		sources = []string{}
	}
	if categories == nil {
		categories = []string{}
	}
	if authors == nil {
		authors = []string{}
	}

	return &model.FilterOptions{
		Sources:    sources,
		Categories: categories,
		Authors:    authors,
	}, nil
}

// normalizeCriteria はページネーションとソート条件を安全な値域に正規化する。
func normalizeCriteria(criteria *model.ListCriteria) {
	if criteria.Page < 1 {
		criteria.Page = 1
	}
	if criteria.PerPage < 1 {
		criteria.PerPage = defaultPerPage
	}
	if criteria.PerPage > maxPerPage {
		criteria.PerPage = maxPerPage
	}
	if !model.IsValidSortField(criteria.SortBy) {
		criteria.SortBy = string(model.SortByPublishedAt)
		criteria.SortOrder = "desc"
	}
	if criteria.SortOrder != "asc" {
		criteria.SortOrder = "desc"
	}
}
