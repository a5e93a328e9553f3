// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/newshub/internal/model"
)

// ArticleRepository は記事データの永続化インターフェース。
// source_idをナチュラルキーとするUPSERTと、API向けの検索・集計操作を提供する。
type ArticleRepository interface {
	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Article, error)

	// FindBySourceID はsource_idで記事を検索する。見つからない場合はnilを返す。
	FindBySourceID(ctx context.Context, sourceID string) (*model.Article, error)

	// Upsert は正規化済み記事をsource_idキーで冪等にUPSERTする。
	// 既存行がなければINSERT、あればその他のフィールドを上書きする。
	// 1レコード単位でアトミックに実行され、戻り値createdは新規挿入ならtrue。
	Upsert(ctx context.Context, n *model.NormalizedArticle) (article *model.Article, created bool, err error)

	// List は条件に一致する記事のページとフィルタ適用後の総件数を返す。
	// prefが非nilの場合、非空の設定フィールドによるORグループをAND条件として追加する。
	// すべてのフィールドが空のprefを渡してはならない（サービス層で事前に除外する）。
	List(ctx context.Context, criteria model.ListCriteria, pref *model.UserPreference) ([]*model.Article, int64, error)

	// DistinctSources は現在格納されている非空のソース名を昇順で返す。
	DistinctSources(ctx context.Context) ([]string, error)

	// DistinctCategories は現在格納されている非空のカテゴリ名を昇順で返す。
	DistinctCategories(ctx context.Context) ([]string, error)

	// DistinctAuthors は現在格納されている非空の著者名を昇順で返す。
	// excludeに一致する値を除外し、最大limit件を返す。
	DistinctAuthors(ctx context.Context, exclude string, limit int) ([]string, error)

	// Count は記事の総件数を返す。
	Count(ctx context.Context) (int64, error)

	// CountCreatedSince は指定日時以降に取り込まれた記事数を返す。
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
}

// PreferenceRepository はユーザー設定の永続化インターフェース。
type PreferenceRepository interface {
	// FindByUserID は指定ユーザーの設定を取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.UserPreference, error)

	// Upsert は設定をuser_idキーで全置換保存する（フィールド単位のマージは行わない）。
	Upsert(ctx context.Context, pref *model.UserPreference) error

	// DeleteByUserID は指定ユーザーの設定を削除する。存在しない場合もエラーにしない。
	DeleteByUserID(ctx context.Context, userID string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
// セッションは外部の認証プロバイダが発行し、本システムは検証のみを行う。
type SessionRepository interface {
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}
