package services

import "errors"

// ErrForbidden is returned when the acting user is neither the owner of the
// target resource nor an admin.
var ErrForbidden = errors.New("forbidden")

// ErrCategoryNotFound is returned when an article write references a
// category that does not exist.
var ErrCategoryNotFound = errors.New("category not found")
