// Package imageurl maps stored image filenames to public URLs.
package imageurl

import "strings"

// Resolver builds public URLs for stored image filenames. Filenames that are
// already absolute URLs pass through unchanged, so externally hosted images
// keep working.
type Resolver struct {
	BaseURL string
}

// NewResolver constructs a Resolver for the given base URL.
func NewResolver(baseURL string) *Resolver {
	return &Resolver{BaseURL: strings.TrimRight(baseURL, "/")}
}

// Resolve returns the public URL for a stored filename, or nil for empty
// input.
func (r *Resolver) Resolve(filename *string) *string {
	if filename == nil || *filename == "" {
		return nil
	}
	if strings.HasPrefix(*filename, "http://") || strings.HasPrefix(*filename, "https://") {
		return filename
	}
	url := r.BaseURL + "/uploads/" + *filename
	return &url
}

// Filename extracts the bare filename for database storage. Resolved upload
// URLs are reduced to their final path segment; externally hosted URLs pass
// through so Resolve keeps returning them unchanged.
func Filename(value string) string {
	if value == "" {
		return ""
	}
	if idx := strings.Index(value, "/uploads/"); idx >= 0 {
		return value[idx+len("/uploads/"):]
	}
	return value
}
