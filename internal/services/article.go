package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/portalberita/apiserver/internal/mq"
	"github.com/portalberita/apiserver/internal/slug"
	"github.com/portalberita/apiserver/internal/store"
	"github.com/portalberita/apiserver/types"
)

const (
	defaultListLimit     = 10
	maxListLimit         = 100
	defaultFeaturedLimit = 6

	// Broker channels notified on publication-state changes.
	channelPublished = "articles.published"
	channelFeatured  = "articles.featured"
)

// ArticleRepository defines persistence operations for articles.
type ArticleRepository interface {
	List(ctx context.Context, filter store.ArticleFilter) ([]types.Article, int, error)
	ListFeatured(ctx context.Context, limit int) ([]types.Article, error)
	ListByCategory(ctx context.Context, categorySlug string, page, limit int) ([]types.Article, int, error)
	GetByID(ctx context.Context, id string) (types.Article, error)
	GetBySlug(ctx context.Context, slug string) (types.Article, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	Create(ctx context.Context, article types.Article) (types.Article, error)
	Update(ctx context.Context, article types.Article) (types.Article, error)
	Delete(ctx context.Context, id string) error
	ToggleFeatured(ctx context.Context, id string) (bool, error)
	IncrementViews(ctx context.Context, slug string) (types.Article, error)
	Stats(ctx context.Context) (types.ArticleStats, error)
}

// CategoryReader is the subset of category persistence the article service
// needs for referential checks.
type CategoryReader interface {
	GetByID(ctx context.Context, id string) (types.Category, error)
}

// ArticleService encapsulates article use-cases: listing, the publishing
// workflow, and the ownership rules on mutation.
type ArticleService struct {
	repo       ArticleRepository
	categories CategoryReader
	broker     *mq.MQ
}

// NewArticleService constructs an ArticleService. broker may be nil, in
// which case publication events are not emitted.
func NewArticleService(repo ArticleRepository, categories CategoryReader, broker *mq.MQ) *ArticleService {
	return &ArticleService{
		repo:       repo,
		categories: categories,
		broker:     broker,
	}
}

// ArticleCreateInput carries the fields accepted on article creation.
// Handlers validate that Title, Content, and CategoryID are present.
type ArticleCreateInput struct {
	Title           string
	Content         string
	CategoryID      string
	Department      string
	MetaDescription string
	Tags            string
	Published       bool
	Image           *string
}

// ArticleUpdateInput carries the fields accepted on article update. String
// fields use the empty value for "not provided": an explicit empty string is
// indistinguishable from absence and keeps the stored value. Published and
// Image use nil for "not provided".
type ArticleUpdateInput struct {
	Title           string
	Content         string
	CategoryID      string
	Department      string
	MetaDescription string
	Tags            string
	Published       *bool
	Image           *string
}

// ListFilter mirrors the public listing query parameters.
type ListFilter = store.ArticleFilter

// ListResult is a page of articles with pagination metadata.
type ListResult struct {
	Items      []types.Article
	Total      int
	Page       int
	TotalPages int
}

// List returns a page of articles matching the filter.
func (s *ArticleService) List(ctx context.Context, filter ListFilter) (ListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}

// ListFeatured returns published, featured articles, newest publication
// first.
func (s *ArticleService) ListFeatured(ctx context.Context, limit int) ([]types.Article, error) {
	if limit < 1 {
		limit = defaultFeaturedLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.ListFeatured(ctx, limit)
}

// ListByCategory returns a page of published articles in the named category.
func (s *ArticleService) ListByCategory(ctx context.Context, categorySlug string, page, limit int) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	items, total, err := s.repo.ListByCategory(ctx, categorySlug, page, limit)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		TotalPages: totalPages(total, limit),
	}, nil
}

// GetBySlug fetches an article for public reading and bumps its view count.
// This is the only path that mutates the view counter.
func (s *ArticleService) GetBySlug(ctx context.Context, articleSlug string) (types.Article, error) {
	return s.repo.IncrementViews(ctx, articleSlug)
}

// Stats aggregates portal-wide article counters.
func (s *ArticleService) Stats(ctx context.Context) (types.ArticleStats, error) {
	return s.repo.Stats(ctx)
}

// Create persists a new article authored by the actor. The slug pre-check
// keeps the common duplicate-title case friendly; the store's unique
// constraint catches the rest.
func (s *ArticleService) Create(ctx context.Context, actor types.Actor, input ArticleCreateInput) (types.Article, error) {
	if _, err := s.categories.GetByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Article{}, ErrCategoryNotFound
		}
		return types.Article{}, err
	}

	articleSlug := slug.Generate(input.Title)
	exists, err := s.repo.SlugExists(ctx, articleSlug, "")
	if err != nil {
		return types.Article{}, err
	}
	if exists {
		return types.Article{}, store.ErrConflict
	}

	article := types.Article{
		ID:              uuid.NewString(),
		Title:           input.Title,
		Slug:            articleSlug,
		Content:         input.Content,
		Image:           input.Image,
		Published:       input.Published,
		Department:      optional(input.Department),
		MetaDescription: optional(input.MetaDescription),
		Tags:            optional(input.Tags),
		AuthorID:        actor.ID,
		CategoryID:      input.CategoryID,
	}
	if input.Published {
		now := time.Now()
		article.PublishedAt = &now
	}

	created, err := s.repo.Create(ctx, article)
	if err != nil {
		return types.Article{}, err
	}
	if created.Published {
		s.publishEvent(ctx, channelPublished, created)
	}
	return created, nil
}

// Update patches an article. Only the author or an admin may update it. The
// slug is recomputed, with a fresh salt, only when the title actually
// changes; publishedAt is set once on the false→true publish transition and
// never cleared afterwards.
func (s *ArticleService) Update(ctx context.Context, actor types.Actor, id string, input ArticleUpdateInput) (types.Article, error) {
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.Article{}, err
	}
	if article.AuthorID != actor.ID && !actor.IsAdmin() {
		return types.Article{}, ErrForbidden
	}

	if input.Title != "" && input.Title != article.Title {
		newSlug := slug.Generate(input.Title)
		exists, err := s.repo.SlugExists(ctx, newSlug, article.ID)
		if err != nil {
			return types.Article{}, err
		}
		if exists {
			return types.Article{}, store.ErrConflict
		}
		article.Title = input.Title
		article.Slug = newSlug
	}
	if input.Content != "" {
		article.Content = input.Content
	}
	if input.CategoryID != "" && input.CategoryID != article.CategoryID {
		if _, err := s.categories.GetByID(ctx, input.CategoryID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return types.Article{}, ErrCategoryNotFound
			}
			return types.Article{}, err
		}
		article.CategoryID = input.CategoryID
	}
	if input.Department != "" {
		article.Department = optional(input.Department)
	}
	if input.MetaDescription != "" {
		article.MetaDescription = optional(input.MetaDescription)
	}
	if input.Tags != "" {
		article.Tags = optional(input.Tags)
	}
	if input.Image != nil {
		article.Image = input.Image
	}

	wasPublished := article.Published
	if input.Published != nil {
		if !wasPublished && *input.Published {
			now := time.Now()
			article.PublishedAt = &now
		}
		article.Published = *input.Published
	}

	updated, err := s.repo.Update(ctx, article)
	if err != nil {
		return types.Article{}, err
	}
	if !wasPublished && updated.Published {
		s.publishEvent(ctx, channelPublished, updated)
	}
	return updated, nil
}

// Delete removes an article. Only the author or an admin may delete it.
func (s *ArticleService) Delete(ctx context.Context, actor types.Actor, id string) error {
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if article.AuthorID != actor.ID && !actor.IsAdmin() {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

// ToggleFeatured flips the featured flag. Route-level middleware restricts
// this to admins.
func (s *ArticleService) ToggleFeatured(ctx context.Context, id string) (bool, error) {
	featured, err := s.repo.ToggleFeatured(ctx, id)
	if err != nil {
		return false, err
	}
	if featured {
		if article, getErr := s.repo.GetByID(ctx, id); getErr == nil {
			s.publishEvent(ctx, channelFeatured, article)
		}
	}
	return featured, nil
}

// publishEvent notifies the broker of a publication-state change. Broker
// failures are logged and swallowed: the write has already committed and the
// API response must not depend on the broker.
func (s *ArticleService) publishEvent(ctx context.Context, channel string, article types.Article) {
	if s.broker == nil {
		return
	}
	payload, err := json.Marshal(map[string]string{
		"id":    article.ID,
		"slug":  article.Slug,
		"title": article.Title,
	})
	if err != nil {
		return
	}
	if _, err := s.broker.Publish(ctx, channel, payload, nil); err != nil {
		slog.Warn("publish event failed", "channel", channel, "article", article.ID, "error", err)
	}
}

func totalPages(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
