package types

import "time"

// Category represents a taxonomy entry articles are filed under.
type Category struct {
	// ID is the unique identifier of the category (UUID).
	ID string `json:"id" db:"id"`

	// Name is the unique display name of the category.
	Name string `json:"name" db:"name"`

	// Slug is the unique URL-safe identifier derived from the name.
	Slug string `json:"slug" db:"slug"`

	// Description is an optional free-text description.
	Description *string `json:"description" db:"description"`

	// CreatedAt is the timestamp at which the category was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// ArticleCount is the number of published articles in the category.
	// Populated by the listing endpoint only.
	ArticleCount *int `json:"articleCount,omitempty"`

	// Articles holds the category's published articles, newest first.
	// Populated by the get-by-slug endpoint only.
	Articles []Article `json:"articles,omitempty"`
}
