package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/portalberita/apiserver/internal/imageurl"
	"github.com/portalberita/apiserver/internal/services"
	"github.com/portalberita/apiserver/internal/store"
)

// CategoryHandler provides HTTP handlers for categories.
type CategoryHandler struct {
	categoryService *services.CategoryService
	resolver        *imageurl.Resolver
}

// NewCategoryHandler constructs a handler with the provided dependencies.
func NewCategoryHandler(categoryService *services.CategoryService, resolver *imageurl.Resolver) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		resolver:        resolver,
	}
}

// CategoryRouter registers category routes on the given router. Reads are
// public, mutations are admin only.
func CategoryRouter(
	r chi.Router,
	categoryService *services.CategoryService,
	resolver *imageurl.Resolver,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewCategoryHandler(categoryService, resolver)

	r.Get("/", handler.ListCategories)
	r.Get("/{slug}", handler.GetCategoryBySlug)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware, RequireAdmin)
		r.Post("/", handler.CreateCategory)
		r.Put("/{categoryID}", handler.UpdateCategory)
		r.Delete("/{categoryID}", handler.DeleteCategory)
	})
}

// ListCategories serves every category with its published-article count.
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.List(r.Context())
	if err != nil {
		writeServerError(w, err)
		return
	}
	writeCounted(w, len(categories), categories)
}

// GetCategoryBySlug serves one category with its published articles.
func (h *CategoryHandler) GetCategoryBySlug(w http.ResponseWriter, r *http.Request) {
	category, err := h.categoryService.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Category not found")
			return
		}
		writeServerError(w, err)
		return
	}

	for i := range category.Articles {
		category.Articles[i].Image = h.resolver.Resolve(category.Articles[i].Image)
		if author := category.Articles[i].Author; author != nil {
			author.Avatar = h.resolver.Resolve(author.Avatar)
		}
	}
	writeData(w, http.StatusOK, category)
}

type CategoryCreateRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// CreateCategory creates a category. Admin only.
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Category name is required")
		return
	}

	category, err := h.categoryService.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusBadRequest, "A category with this name already exists")
			return
		}
		writeServerError(w, err)
		return
	}

	writeMessage(w, http.StatusCreated, "Category created successfully", category)
}

// CategoryUpdateRequest patches a category. Description distinguishes an
// absent key from an explicit null or empty string via the pointer.
type CategoryUpdateRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// UpdateCategory patches a category. Admin only.
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	input := services.CategoryUpdateInput{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}

	category, err := h.categoryService.Update(r.Context(), chi.URLParam(r, "categoryID"), input)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Category not found")
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusBadRequest, "A category with this name already exists")
		default:
			writeServerError(w, err)
		}
		return
	}

	writeMessage(w, http.StatusOK, "Category updated successfully", category)
}

// DeleteCategory removes a category unless articles still reference it.
// Admin only.
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	count, err := h.categoryService.Delete(r.Context(), chi.URLParam(r, "categoryID"))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Cannot delete category. It has %d article(s) associated with it.", count))
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Category not found")
		default:
			writeServerError(w, err)
		}
		return
	}

	writeMessage(w, http.StatusOK, "Category deleted successfully", nil)
}
