package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/portalberita/apiserver/types"
)

// ArticleFilter holds the listing filters accepted by the public articles
// endpoint. Published and Featured carry the raw query-string values because
// their semantics hinge on string literals: Published filters to published
// rows unless the literal "false" is passed (which removes the filter rather
// than inverting it), and Featured filters to featured rows only for the
// literal "true".
type ArticleFilter struct {
	Page       int
	Limit      int
	Category   string
	Department string
	Search     string
	Published  string
	Featured   string
}

// ArticleRepository handles persistence for articles.
type ArticleRepository struct {
	db *sql.DB
}

func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// articleColumns is the join projection shared by every article read. Each
// row carries the article plus the author and category attributes exposed by
// the API.
const articleColumns = `
	a.id, a.title, a.slug, a.content, a.image, a.published, a.featured,
	a.view_count, a.published_at, a.department, a.meta_description, a.tags,
	a.author_id, a.category_id, a.created_at, a.updated_at,
	u.id, u.name, u.avatar,
	c.id, c.name, c.slug`

const articleJoins = `
	FROM articles a
	JOIN users u ON u.id = a.author_id
	JOIN categories c ON c.id = a.category_id`

// buildListConditions translates an ArticleFilter into a WHERE clause and
// its positional arguments.
func buildListConditions(filter ArticleFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Published != "false" {
		conditions = append(conditions, "a.published = TRUE")
	}
	if filter.Featured == "true" {
		conditions = append(conditions, "a.featured = TRUE")
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("c.slug = $%d", len(args)))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		conditions = append(conditions, fmt.Sprintf("a.department = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(a.title ILIKE $%d OR a.content ILIKE $%d)", len(args), len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// List returns a page of articles matching the filter, ordered by creation
// time descending, together with the total match count.
func (r *ArticleRepository) List(ctx context.Context, filter ArticleFilter) ([]types.Article, int, error) {
	where, args := buildListConditions(filter)

	countQuery := "SELECT COUNT(1)" + articleJoins + " " + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	listArgs := append(args, offset, filter.Limit)
	listQuery := fmt.Sprintf(
		"SELECT %s %s %s ORDER BY a.created_at DESC OFFSET $%d LIMIT $%d",
		articleColumns, articleJoins, where, len(args)+1, len(args)+2,
	)

	articles, err := r.queryArticles(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// ListFeatured returns published, featured articles ordered by publication
// time descending.
func (r *ArticleRepository) ListFeatured(ctx context.Context, limit int) ([]types.Article, error) {
	query := fmt.Sprintf(
		`SELECT %s %s
		WHERE a.published = TRUE AND a.featured = TRUE
		ORDER BY a.published_at DESC NULLS LAST
		LIMIT $1`,
		articleColumns, articleJoins,
	)
	return r.queryArticles(ctx, query, limit)
}

// ListByCategory returns a page of published articles in the named category,
// ordered by publication time descending, with the total match count.
func (r *ArticleRepository) ListByCategory(ctx context.Context, categorySlug string, page, limit int) ([]types.Article, int, error) {
	const countQuery = `
		SELECT COUNT(1)
		FROM articles a
		JOIN categories c ON c.id = a.category_id
		WHERE a.published = TRUE AND c.slug = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, categorySlug).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		`SELECT %s %s
		WHERE a.published = TRUE AND c.slug = $1
		ORDER BY a.published_at DESC NULLS LAST
		OFFSET $2 LIMIT $3`,
		articleColumns, articleJoins,
	)
	articles, err := r.queryArticles(ctx, query, categorySlug, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

func (r *ArticleRepository) GetByID(ctx context.Context, id string) (types.Article, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE a.id = $1", articleColumns, articleJoins)
	return r.queryArticle(ctx, query, id)
}

func (r *ArticleRepository) GetBySlug(ctx context.Context, slug string) (types.Article, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE a.slug = $1", articleColumns, articleJoins)
	return r.queryArticle(ctx, query, slug)
}

// SlugExists reports whether another article already uses the slug.
// excludeID may be empty on create. This is only the friendly pre-check; the
// unique index on slug remains the backstop under concurrency.
func (r *ArticleRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM articles WHERE slug = $1 AND id <> $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, slug, excludeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *ArticleRepository) Create(ctx context.Context, article types.Article) (types.Article, error) {
	now := time.Now()
	article.CreatedAt = now
	article.UpdatedAt = now

	const query = `
		INSERT INTO articles (id, title, slug, content, image, published, featured,
			view_count, published_at, department, meta_description, tags,
			author_id, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		article.ID,
		article.Title,
		article.Slug,
		article.Content,
		article.Image,
		article.Published,
		article.Featured,
		article.ViewCount,
		article.PublishedAt,
		article.Department,
		article.MetaDescription,
		article.Tags,
		article.AuthorID,
		article.CategoryID,
		article.CreatedAt,
		article.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Article{}, ErrConflict
		}
		return types.Article{}, err
	}
	return r.GetByID(ctx, article.ID)
}

func (r *ArticleRepository) Update(ctx context.Context, article types.Article) (types.Article, error) {
	article.UpdatedAt = time.Now()

	const query = `
		UPDATE articles
		SET title = $1,
			slug = $2,
			content = $3,
			image = $4,
			published = $5,
			published_at = $6,
			department = $7,
			meta_description = $8,
			tags = $9,
			category_id = $10,
			updated_at = $11
		WHERE id = $12`
	result, err := r.db.ExecContext(
		ctx,
		query,
		article.Title,
		article.Slug,
		article.Content,
		article.Image,
		article.Published,
		article.PublishedAt,
		article.Department,
		article.MetaDescription,
		article.Tags,
		article.CategoryID,
		article.UpdatedAt,
		article.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Article{}, ErrConflict
		}
		return types.Article{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Article{}, err
	}
	if affected == 0 {
		return types.Article{}, ErrNotFound
	}
	return r.GetByID(ctx, article.ID)
}

func (r *ArticleRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM articles WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleFeatured flips the featured flag and returns the new value.
func (r *ArticleRepository) ToggleFeatured(ctx context.Context, id string) (bool, error) {
	const query = `
		UPDATE articles
		SET featured = NOT featured, updated_at = now()
		WHERE id = $1
		RETURNING featured`
	var featured bool
	err := r.db.QueryRowContext(ctx, query, id).Scan(&featured)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, err
	}
	return featured, nil
}

// IncrementViews bumps the view counter for the article with the given slug
// and returns the updated article. The increment runs as a single UPDATE so
// concurrent fetches never lose counts.
func (r *ArticleRepository) IncrementViews(ctx context.Context, slug string) (types.Article, error) {
	const query = `
		UPDATE articles
		SET view_count = view_count + 1
		WHERE slug = $1
		RETURNING id`
	var id string
	err := r.db.QueryRowContext(ctx, query, slug).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Article{}, ErrNotFound
		}
		return types.Article{}, err
	}
	return r.GetByID(ctx, id)
}

// Stats aggregates portal-wide article counters.
func (r *ArticleRepository) Stats(ctx context.Context) (types.ArticleStats, error) {
	const query = `
		SELECT COUNT(1),
			COUNT(1) FILTER (WHERE published),
			COUNT(1) FILTER (WHERE featured),
			COALESCE(SUM(view_count), 0)
		FROM articles`
	var stats types.ArticleStats
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalArticles,
		&stats.PublishedArticles,
		&stats.FeaturedArticles,
		&stats.TotalViews,
	)
	if err != nil {
		return types.ArticleStats{}, err
	}
	return stats, nil
}

// CountByAuthor returns the number of articles attributed to the user.
func (r *ArticleRepository) CountByAuthor(ctx context.Context, authorID string) (int, error) {
	const query = `SELECT COUNT(1) FROM articles WHERE author_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, authorID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ArticleRepository) queryArticle(ctx context.Context, query string, args ...any) (types.Article, error) {
	article, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Article{}, ErrNotFound
		}
		return types.Article{}, err
	}
	return article, nil
}

func (r *ArticleRepository) queryArticles(ctx context.Context, query string, args ...any) ([]types.Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := make([]types.Article, 0)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return articles, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (types.Article, error) {
	var article types.Article
	var author types.ArticleAuthor
	var category types.ArticleCategory
	err := row.Scan(
		&article.ID,
		&article.Title,
		&article.Slug,
		&article.Content,
		&article.Image,
		&article.Published,
		&article.Featured,
		&article.ViewCount,
		&article.PublishedAt,
		&article.Department,
		&article.MetaDescription,
		&article.Tags,
		&article.AuthorID,
		&article.CategoryID,
		&article.CreatedAt,
		&article.UpdatedAt,
		&author.ID,
		&author.Name,
		&author.Avatar,
		&category.ID,
		&category.Name,
		&category.Slug,
	)
	if err != nil {
		return types.Article{}, err
	}
	article.Author = &author
	article.Category = &category
	return article, nil
}
