package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/newshub/internal/model"
)

// PostgresArticleRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresArticleRepo struct {
	db *sql.DB
}

// NewPostgresArticleRepo はPostgresArticleRepoを生成する。
func NewPostgresArticleRepo(db *sql.DB) *PostgresArticleRepo {
	return &PostgresArticleRepo{db: db}
}

// articleColumns はSELECT句で使用するカラムリスト。
const articleColumns = `id, title, content, author, source, source_id, category,
	        published_at, url, image_url, created_at, updated_at`

// scanArticle は1行分の記事をスキャンする。
func scanArticle(scan func(dest ...interface{}) error) (*model.Article, error) {
	a := &model.Article{}
	var content, author, category, imageURL sql.NullString

	if err := scan(
		&a.ID, &a.Title, &content, &author, &a.Source, &a.SourceID, &category,
		&a.PublishedAt, &a.URL, &imageURL, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	a.Content = nullStringValue(content)
	a.Author = nullStringValue(author)
	a.Category = nullStringValue(category)
	a.ImageURL = nullStringValue(imageURL)
	return a, nil
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresArticleRepo) FindByID(ctx context.Context, id int64) (*model.Article, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)

	article, err := scanArticle(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	return article, nil
}

// FindBySourceID はsource_idで記事を検索する。見つからない場合はnilを返す。
func (r *PostgresArticleRepo) FindBySourceID(ctx context.Context, sourceID string) (*model.Article, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE source_id = $1`, sourceID)

	article, err := scanArticle(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("source_id による記事の検索に失敗しました: %w", err)
	}
	return article, nil
}

// Upsert は正規化済み記事をsource_idキーで冪等にUPSERTする。
// INSERT ... ON CONFLICT ... DO UPDATE により1レコード単位のアトミック性を保証する。
// xmax = 0 の判定で新規挿入と更新を区別する。
func (r *PostgresArticleRepo) Upsert(ctx context.Context, n *model.NormalizedArticle) (*model.Article, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO articles (title, content, author, source, source_id, category,
		                       published_at, url, image_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		 ON CONFLICT (source_id) DO UPDATE SET
		    title = EXCLUDED.title,
		    content = EXCLUDED.content,
		    author = EXCLUDED.author,
		    source = EXCLUDED.source,
		    category = EXCLUDED.category,
		    published_at = EXCLUDED.published_at,
		    url = EXCLUDED.url,
		    image_url = EXCLUDED.image_url,
		    updated_at = now()
		 RETURNING id, created_at, updated_at, (xmax = 0) AS inserted`,
		n.Title, nullString(n.Content), nullString(n.Author), n.Source, n.SourceID,
		nullString(n.Category), n.PublishedAt, n.URL, nullString(n.ImageURL),
	)

	article := &model.Article{
		Title:       n.Title,
		Content:     n.Content,
		Author:      n.Author,
		Source:      n.Source,
		SourceID:    n.SourceID,
		Category:    n.Category,
		PublishedAt: n.PublishedAt,
		URL:         n.URL,
		ImageURL:    n.ImageURL,
	}

	var created bool
	if err := row.Scan(&article.ID, &article.CreatedAt, &article.UpdatedAt, &created); err != nil {
		return nil, false, fmt.Errorf("記事のUPSERTに失敗しました: %w", err)
	}

	return article, created, nil
}

// sortColumns はORDER BY句で許可されるカラムの許可リスト。
// 許可リスト外の値はSQLに連結しない（published_at降順にフォールバック）。
var sortColumns = map[string]string{
	"published_at": "published_at",
	"title":        "title",
	"source":       "source",
	"created_at":   "created_at",
}

// List は条件に一致する記事のページとフィルタ適用後の総件数を返す。
func (r *PostgresArticleRepo) List(
	ctx context.Context,
	criteria model.ListCriteria,
	pref *model.UserPreference,
) ([]*model.Article, int64, error) {
	where, args := buildArticleFilters(criteria, pref)

	// 総件数（フィルタ適用後）
	countQuery := `SELECT count(*) FROM articles` + where
	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("記事件数の取得に失敗しました: %w", err)
	}

	// ソート: 許可リスト外はpublished_at降順にフォールバック
	column, ok := sortColumns[criteria.SortBy]
	direction := "DESC"
	if !ok {
		column = "published_at"
	} else if strings.EqualFold(criteria.SortOrder, "asc") {
		direction = "ASC"
	}

	argIndex := len(args) + 1
	query := fmt.Sprintf(
		`SELECT `+articleColumns+` FROM articles%s ORDER BY %s %s, id DESC LIMIT $%d OFFSET $%d`,
		where, column, direction, argIndex, argIndex+1,
	)
	offset := (criteria.Page - 1) * criteria.PerPage
	args = append(args, criteria.PerPage, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var articles []*model.Article
	for rows.Next() {
		article, err := scanArticle(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("記事行の読み取りに失敗しました: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("記事一覧の走査に失敗しました: %w", err)
	}

	return articles, total, nil
}

// buildArticleFilters は検索条件からWHERE句とバインド引数を構築する。
// すべての条件はANDで結合される。複数値フィルタはフィールド内OR（= ANY）、
// prefの非空フィールドは1つのORグループとして追加される。
func buildArticleFilters(criteria model.ListCriteria, pref *model.UserPreference) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	addArg := func(v interface{}) int {
		args = append(args, v)
		i := argIndex
		argIndex++
		return i
	}

	if criteria.Search != "" {
		i := addArg("%" + criteria.Search + "%")
		conditions = append(conditions,
			fmt.Sprintf("(title ILIKE $%d OR content ILIKE $%d)", i, i))
	}

	if criteria.DateFrom != nil {
		i := addArg(*criteria.DateFrom)
		conditions = append(conditions, fmt.Sprintf("published_at >= $%d", i))
	}

	if criteria.Category != "" {
		i := addArg(criteria.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", i))
	}

	if criteria.Source != "" {
		i := addArg(criteria.Source)
		conditions = append(conditions, fmt.Sprintf("source = $%d", i))
	}

	if criteria.Author != "" {
		i := addArg(criteria.Author)
		conditions = append(conditions, fmt.Sprintf("author = $%d", i))
	}

	if len(criteria.Sources) > 0 {
		i := addArg(pq.Array(criteria.Sources))
		conditions = append(conditions, fmt.Sprintf("source = ANY($%d)", i))
	}

	if len(criteria.Categories) > 0 {
		i := addArg(pq.Array(criteria.Categories))
		conditions = append(conditions, fmt.Sprintf("category = ANY($%d)", i))
	}

	if len(criteria.Authors) > 0 {
		i := addArg(pq.Array(criteria.Authors))
		conditions = append(conditions, fmt.Sprintf("author = ANY($%d)", i))
	}

	// ユーザー設定: 非空フィールドのみでORグループを構成し、全体とANDで結合
	if pref != nil {
		var group []string
		if len(pref.Sources) > 0 {
			i := addArg(pq.Array(pref.Sources))
			group = append(group, fmt.Sprintf("source = ANY($%d)", i))
		}
		if len(pref.Categories) > 0 {
			i := addArg(pq.Array(pref.Categories))
			group = append(group, fmt.Sprintf("category = ANY($%d)", i))
		}
		if len(pref.Authors) > 0 {
			i := addArg(pq.Array(pref.Authors))
			group = append(group, fmt.Sprintf("author = ANY($%d)", i))
		}
		if len(group) > 0 {
			conditions = append(conditions, "("+strings.Join(group, " OR ")+")")
		}
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// DistinctSources は現在格納されている非空のソース名を昇順で返す。
func (r *PostgresArticleRepo) DistinctSources(ctx context.Context) ([]string, error) {
	return r.distinctColumn(ctx,
		`SELECT DISTINCT source FROM articles
		 WHERE source IS NOT NULL AND source <> ''
		 ORDER BY source ASC`)
}

// DistinctCategories は現在格納されている非空のカテゴリ名を昇順で返す。
func (r *PostgresArticleRepo) DistinctCategories(ctx context.Context) ([]string, error) {
	return r.distinctColumn(ctx,
		`SELECT DISTINCT category FROM articles
		 WHERE category IS NOT NULL AND category <> ''
		 ORDER BY category ASC`)
}

// DistinctAuthors は現在格納されている非空の著者名を昇順で返す。
// excludeに一致する値（プレースホルダ著者名）を除外し、最大limit件を返す。
func (r *PostgresArticleRepo) DistinctAuthors(ctx context.Context, exclude string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT author FROM articles
		 WHERE author IS NOT NULL AND author <> '' AND author <> $1
		 ORDER BY author ASC
		 LIMIT $2`,
		exclude, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("著者一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectStrings(rows)
}

// distinctColumn は単一カラムのDISTINCTクエリを実行する。
func (r *PostgresArticleRepo) distinctColumn(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("フィルタ候補の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectStrings(rows)
}

// collectStrings は1カラムの結果セットを文字列スライスに集約する。
func collectStrings(rows *sql.Rows) ([]string, error) {
	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("行の読み取りに失敗しました: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("結果セットの走査に失敗しました: %w", err)
	}
	return values, nil
}

// Count は記事の総件数を返す。
func (r *PostgresArticleRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM articles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("記事総数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// CountCreatedSince は指定日時以降に取り込まれた記事数を返す。
func (r *PostgresArticleRepo) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM articles WHERE created_at >= $1`, since,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("取り込み記事数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ ArticleRepository = (*PostgresArticleRepo)(nil)
