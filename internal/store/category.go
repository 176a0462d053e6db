package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/portalberita/apiserver/types"
)

// CategoryRepository handles persistence for categories.
type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListWithCounts returns all categories ordered by name, each annotated with
// its published-article count.
func (r *CategoryRepository) ListWithCounts(ctx context.Context) ([]types.Category, error) {
	const query = `
		SELECT c.id, c.name, c.slug, c.description, c.created_at, c.updated_at,
			COUNT(a.id) FILTER (WHERE a.published)
		FROM categories c
		LEFT JOIN articles a ON a.category_id = c.id
		GROUP BY c.id
		ORDER BY c.name ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]types.Category, 0)
	for rows.Next() {
		var category types.Category
		var articleCount int
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Slug,
			&category.Description,
			&category.CreatedAt,
			&category.UpdatedAt,
			&articleCount,
		); err != nil {
			return nil, err
		}
		category.ArticleCount = &articleCount
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (types.Category, error) {
	const query = `
		SELECT id, name, slug, description, created_at, updated_at
		FROM categories
		WHERE id = $1`
	return r.queryCategory(ctx, query, id)
}

// GetBySlug returns the category together with its published articles,
// newest publication first.
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (types.Category, error) {
	const query = `
		SELECT id, name, slug, description, created_at, updated_at
		FROM categories
		WHERE slug = $1`
	category, err := r.queryCategory(ctx, query, slug)
	if err != nil {
		return types.Category{}, err
	}

	const articlesQuery = `
		SELECT id, title, slug, content, image, published, featured, view_count,
			published_at, department, meta_description, tags, author_id,
			category_id, created_at, updated_at
		FROM articles
		WHERE category_id = $1 AND published = TRUE
		ORDER BY published_at DESC NULLS LAST`
	rows, err := r.db.QueryContext(ctx, articlesQuery, category.ID)
	if err != nil {
		return types.Category{}, err
	}
	defer rows.Close()

	articles := make([]types.Article, 0)
	for rows.Next() {
		var article types.Article
		if err := rows.Scan(
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
		); err != nil {
			return types.Category{}, err
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return types.Category{}, err
	}
	category.Articles = articles
	return category, nil
}

// SlugExists reports whether another category already uses the slug.
func (r *CategoryRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM categories WHERE slug = $1 AND id <> $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, slug, excludeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category types.Category) (types.Category, error) {
	now := time.Now()
	category.CreatedAt = now
	category.UpdatedAt = now

	const query = `
		INSERT INTO categories (id, name, slug, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		category.ID,
		category.Name,
		category.Slug,
		category.Description,
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Category{}, ErrConflict
		}
		return types.Category{}, err
	}
	return category, nil
}

func (r *CategoryRepository) Update(ctx context.Context, category types.Category) (types.Category, error) {
	category.UpdatedAt = time.Now()

	const query = `
		UPDATE categories
		SET name = $1,
			slug = $2,
			description = $3,
			updated_at = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(
		ctx,
		query,
		category.Name,
		category.Slug,
		category.Description,
		category.UpdatedAt,
		category.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Category{}, ErrConflict
		}
		return types.Category{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Category{}, err
	}
	if affected == 0 {
		return types.Category{}, ErrNotFound
	}
	return category, nil
}

// DeleteIfEmpty removes the category unless it still has articles. The
// dependent-count check and the delete run in one transaction so a
// concurrent article insert cannot slip between them. On conflict it returns
// the article count alongside ErrConflict so callers can report it.
func (r *CategoryRepository) DeleteIfEmpty(ctx context.Context, id string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	const countQuery = `SELECT COUNT(1) FROM articles WHERE category_id = $1`
	var articleCount int
	if err := tx.QueryRowContext(ctx, countQuery, id).Scan(&articleCount); err != nil {
		return 0, err
	}
	if articleCount > 0 {
		return articleCount, ErrConflict
	}

	const deleteQuery = `DELETE FROM categories WHERE id = $1`
	result, err := tx.ExecContext(ctx, deleteQuery, id)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, ErrNotFound
	}

	return 0, tx.Commit()
}

func (r *CategoryRepository) queryCategory(ctx context.Context, query string, args ...any) (types.Category, error) {
	var category types.Category
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&category.ID,
		&category.Name,
		&category.Slug,
		&category.Description,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Category{}, ErrNotFound
		}
		return types.Category{}, err
	}
	return category, nil
}
