package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/newshub/internal/model"
)

// PostgresPreferenceRepo はPostgreSQLを使用したユーザー設定リポジトリ。
type PostgresPreferenceRepo struct {
	db *sql.DB
}

// NewPostgresPreferenceRepo はPostgresPreferenceRepoを生成する。
func NewPostgresPreferenceRepo(db *sql.DB) *PostgresPreferenceRepo {
	return &PostgresPreferenceRepo{db: db}
}

// FindByUserID は指定ユーザーの設定を取得する。見つからない場合はnilを返す。
func (r *PostgresPreferenceRepo) FindByUserID(ctx context.Context, userID string) (*model.UserPreference, error) {
	pref := &model.UserPreference{UserID: userID}

	err := r.db.QueryRowContext(ctx,
		`SELECT sources, categories, authors, created_at, updated_at
		 FROM user_preferences WHERE user_id = $1`,
		userID,
	).Scan(
		pq.Array(&pref.Sources), pq.Array(&pref.Categories), pq.Array(&pref.Authors),
		&pref.CreatedAt, &pref.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザー設定の取得に失敗しました: %w", err)
	}
	return pref, nil
}

// Upsert は設定をuser_idキーで全置換保存する。
func (r *PostgresPreferenceRepo) Upsert(ctx context.Context, pref *model.UserPreference) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_preferences (user_id, sources, categories, authors, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, now(), now())
		 ON CONFLICT (user_id) DO UPDATE SET
		    sources = EXCLUDED.sources,
		    categories = EXCLUDED.categories,
		    authors = EXCLUDED.authors,
		    updated_at = now()`,
		pref.UserID, pq.Array(pref.Sources), pq.Array(pref.Categories), pq.Array(pref.Authors),
	)
	if err != nil {
		return fmt.Errorf("ユーザー設定の保存に失敗しました: %w", err)
	}
	return nil
}

// DeleteByUserID は指定ユーザーの設定を削除する。存在しない場合もエラーにしない。
func (r *PostgresPreferenceRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_preferences WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("ユーザー設定の削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PreferenceRepository = (*PostgresPreferenceRepo)(nil)
