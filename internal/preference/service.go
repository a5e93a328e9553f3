// Package preference はユーザーごとのフィード設定サービスを提供する。
package preference

import (
	"context"
	"fmt"
	"strings"

	"github.com/hitoshi/newshub/internal/model"
	"github.com/hitoshi/newshub/internal/repository"
)

// Service はユーザー設定の取得・保存・削除サービス。
type Service struct {
	prefRepo repository.PreferenceRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(prefRepo repository.PreferenceRepository) *Service {
	return &Service{prefRepo: prefRepo}
}

// Get は指定ユーザーの設定を返す。
// 未登録の場合は全フィールド空の設定を返す（エラーにしない）。
func (s *Service) Get(ctx context.Context, userID string) (*model.UserPreference, error) {
	pref, err := s.prefRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザー設定の取得に失敗しました: %w", err)
	}
	if pref == nil {
		return &model.UserPreference{
			UserID:     userID,
			Sources:    []string{},
			Categories: []string{},
			Authors:    []string{},
		}, nil
	}
	return pref, nil
}

// Set は設定を全置換保存する（フィールド単位のマージは行わない）。
// 空白のみのエントリは保存前に除去される。
func (s *Service) Set(ctx context.Context, userID string, sources, categories, authors []string) (*model.UserPreference, error) {
	pref := &model.UserPreference{
		UserID:     userID,
		Sources:    filterBlank(sources),
		Categories: filterBlank(categories),
		Authors:    filterBlank(authors),
	}

	if err := s.prefRepo.Upsert(ctx, pref); err != nil {
		return nil, fmt.Errorf("ユーザー設定の保存に失敗しました: %w", err)
	}

	return pref, nil
}

// Delete は指定ユーザーの設定を削除する。存在しない場合もエラーにしない。
func (s *Service) Delete(ctx context.Context, userID string) error {
	if err := s.prefRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザー設定の削除に失敗しました: %w", err)
	}
	return nil
}

// filterBlank は空白のみのエントリを除去した新しいスライスを返す。
// nilにも空スライスを返すため、戻り値は常に非nil。
func filterBlank(values []string) []string {
	filtered := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		filtered = append(filtered, v)
	}
	return filtered
}
