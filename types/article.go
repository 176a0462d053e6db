package types

import "time"

// Article represents a news article in the portal.
// It contains the article body, publication state, and references to the
// author and category it belongs to.
type Article struct {
	// ID is the unique identifier of the article (UUID).
	ID string `json:"id" db:"id"`

	// Title is the human-readable headline of the article.
	Title string `json:"title" db:"title"`

	// Slug is the URL-safe identifier derived from the title plus a
	// time salt. It is globally unique and recomputed whenever the
	// title changes.
	Slug string `json:"slug" db:"slug"`

	// Content is the full article body.
	Content string `json:"content" db:"content"`

	// Image is the stored filename of the article's cover image, or the
	// absolute URL of an externally hosted image. Nil when no image has
	// been uploaded. API responses carry the resolved public URL.
	Image *string `json:"image" db:"image"`

	// Published indicates whether the article is visible on the public
	// listing endpoints.
	Published bool `json:"published" db:"published"`

	// Featured marks the article for the featured carousel. Only admins
	// may toggle it.
	Featured bool `json:"featured" db:"featured"`

	// ViewCount is the number of times the article has been fetched
	// through the public single-article endpoint. It only increases.
	ViewCount int `json:"viewCount" db:"view_count"`

	// PublishedAt is set once, on the first false→true transition of
	// Published, and is never cleared by later updates.
	PublishedAt *time.Time `json:"publishedAt" db:"published_at"`

	// Department is an optional tag naming the school department the
	// article belongs to (rpl, tkj, mm, ...). Distinct from Category.
	Department *string `json:"department" db:"department"`

	// MetaDescription is an optional SEO meta description.
	MetaDescription *string `json:"metaDescription" db:"meta_description"`

	// Tags is an optional comma-separated list of free-form labels.
	Tags *string `json:"tags" db:"tags"`

	// AuthorID references the user who created the article.
	AuthorID string `json:"authorId" db:"author_id"`

	// CategoryID references the category the article is filed under.
	CategoryID string `json:"categoryId" db:"category_id"`

	// CreatedAt is the timestamp at which the article was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Author is the joined author projection attached to read responses.
	Author *ArticleAuthor `json:"author,omitempty"`

	// Category is the joined category projection attached to read responses.
	Category *ArticleCategory `json:"category,omitempty"`
}

// ArticleAuthor is the author projection embedded in article responses.
type ArticleAuthor struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
}

// ArticleCategory is the category projection embedded in article responses.
type ArticleCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ArticleStats aggregates portal-wide article counters.
type ArticleStats struct {
	TotalArticles     int `json:"totalArticles"`
	PublishedArticles int `json:"publishedArticles"`
	FeaturedArticles  int `json:"featuredArticles"`
	TotalViews        int `json:"totalViews"`
}
