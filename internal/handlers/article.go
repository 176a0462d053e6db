package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/portalberita/apiserver/internal/imageurl"
	"github.com/portalberita/apiserver/internal/services"
	"github.com/portalberita/apiserver/internal/storage"
	"github.com/portalberita/apiserver/internal/store"
	"github.com/portalberita/apiserver/types"
)

const (
	maxMultipartMemory = 32 << 20
	maxImageBytes      = 5 << 20
	formFieldImage     = "image"
)

// ArticleHandler provides HTTP handlers for articles.
type ArticleHandler struct {
	articleService *services.ArticleService
	uploads        *storage.Storage
	resolver       *imageurl.Resolver
}

// NewArticleHandler constructs a handler with the provided dependencies.
func NewArticleHandler(articleService *services.ArticleService, uploads *storage.Storage, resolver *imageurl.Resolver) *ArticleHandler {
	return &ArticleHandler{
		articleService: articleService,
		uploads:        uploads,
		resolver:       resolver,
	}
}

// ArticleRouter registers article routes on the given router.
func ArticleRouter(
	r chi.Router,
	articleService *services.ArticleService,
	uploads *storage.Storage,
	resolver *imageurl.Resolver,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewArticleHandler(articleService, uploads, resolver)

	r.Get("/", handler.ListArticles)
	r.Get("/featured", handler.ListFeatured)
	r.Get("/stats", handler.GetStats)
	r.Get("/category/{categorySlug}", handler.ListByCategory)
	r.With(authMiddleware).Post("/", handler.CreateArticle)
	// chi allows one wildcard name per position: GET resolves it as a slug,
	// the mutating routes as the article id.
	r.Route("/{articleRef}", func(r chi.Router) {
		r.Get("/", handler.GetArticleBySlug)
		r.With(authMiddleware).Put("/", handler.UpdateArticle)
		r.With(authMiddleware).Delete("/", handler.DeleteArticle)
		r.With(authMiddleware, RequireAdmin).Patch("/featured", handler.ToggleFeatured)
	})
}

// ListArticles serves the public article listing with its filter surface:
// page, limit, category, department, search, published, featured.
func (h *ArticleHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	query := r.URL.Query()
	filter := services.ListFilter{
		Page:       page,
		Limit:      limit,
		Category:   strings.TrimSpace(query.Get("category")),
		Department: strings.TrimSpace(query.Get("department")),
		Search:     strings.TrimSpace(query.Get("search")),
		Published:  strings.TrimSpace(query.Get("published")),
		Featured:   strings.TrimSpace(query.Get("featured")),
	}

	result, err := h.articleService.List(r.Context(), filter)
	if err != nil {
		writeServerError(w, err)
		return
	}

	h.resolveImages(result.Items)
	writePage(w, result.Total, result.TotalPages, result.Page, result.Items)
}

// ListFeatured serves published, featured articles for the homepage
// carousel.
func (h *ArticleHandler) ListFeatured(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	items, err := h.articleService.ListFeatured(r.Context(), limit)
	if err != nil {
		writeServerError(w, err)
		return
	}

	h.resolveImages(items)
	writeCounted(w, len(items), items)
}

// GetStats serves portal-wide article counters.
func (h *ArticleHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.articleService.Stats(r.Context())
	if err != nil {
		writeServerError(w, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}

// ListByCategory serves published articles for one category.
func (h *ArticleHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.articleService.ListByCategory(r.Context(), chi.URLParam(r, "categorySlug"), page, limit)
	if err != nil {
		writeServerError(w, err)
		return
	}

	h.resolveImages(result.Items)
	writePage(w, result.Total, result.TotalPages, result.Page, result.Items)
}

// GetArticleBySlug serves a single article and increments its view count.
func (h *ArticleHandler) GetArticleBySlug(w http.ResponseWriter, r *http.Request) {
	article, err := h.articleService.GetBySlug(r.Context(), chi.URLParam(r, "articleRef"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Article not found")
			return
		}
		writeServerError(w, err)
		return
	}

	h.resolveArticle(&article)
	writeData(w, http.StatusOK, article)
}

// CreateArticle creates an article authored by the acting user. The request
// is multipart with an optional single image file.
func (h *ArticleHandler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	content := strings.TrimSpace(r.FormValue("content"))
	categoryID := strings.TrimSpace(r.FormValue("categoryId"))
	if title == "" || content == "" || categoryID == "" {
		writeError(w, http.StatusBadRequest, "Title, content and categoryId are required")
		return
	}

	image, err := h.saveUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	input := services.ArticleCreateInput{
		Title:           title,
		Content:         content,
		CategoryID:      categoryID,
		Department:      strings.TrimSpace(r.FormValue("department")),
		MetaDescription: strings.TrimSpace(r.FormValue("metaDescription")),
		Tags:            strings.TrimSpace(r.FormValue("tags")),
		Published:       parseFormBool(r.FormValue("published")),
		Image:           image,
	}

	article, err := h.articleService.Create(r.Context(), actor, input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCategoryNotFound):
			writeError(w, http.StatusBadRequest, "Category not found")
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusBadRequest, "An article with this title already exists")
		default:
			writeServerError(w, err)
		}
		return
	}

	h.resolveArticle(&article)
	writeData(w, http.StatusCreated, article)
}

// UpdateArticle patches an article. Only its author or an admin may update
// it. Empty form values leave the stored fields untouched.
func (h *ArticleHandler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	image, err := h.saveUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	input := services.ArticleUpdateInput{
		Title:           strings.TrimSpace(r.FormValue("title")),
		Content:         strings.TrimSpace(r.FormValue("content")),
		CategoryID:      strings.TrimSpace(r.FormValue("categoryId")),
		Department:      strings.TrimSpace(r.FormValue("department")),
		MetaDescription: strings.TrimSpace(r.FormValue("metaDescription")),
		Tags:            strings.TrimSpace(r.FormValue("tags")),
		Image:           image,
	}
	if _, ok := r.MultipartForm.Value["published"]; ok {
		published := parseFormBool(r.FormValue("published"))
		input.Published = &published
	}

	article, err := h.articleService.Update(r.Context(), actor, chi.URLParam(r, "articleRef"), input)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Article not found")
		case errors.Is(err, services.ErrForbidden):
			writeError(w, http.StatusForbidden, "Not authorized to update this article")
		case errors.Is(err, services.ErrCategoryNotFound):
			writeError(w, http.StatusBadRequest, "Category not found")
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusBadRequest, "An article with this title already exists")
		default:
			writeServerError(w, err)
		}
		return
	}

	h.resolveArticle(&article)
	writeData(w, http.StatusOK, article)
}

// DeleteArticle removes an article. Only its author or an admin may delete
// it.
func (h *ArticleHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}

	if err := h.articleService.Delete(r.Context(), actor, chi.URLParam(r, "articleRef")); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Article not found")
		case errors.Is(err, services.ErrForbidden):
			writeError(w, http.StatusForbidden, "Not authorized to delete this article")
		default:
			writeServerError(w, err)
		}
		return
	}

	writeMessage(w, http.StatusOK, "Article deleted successfully", nil)
}

// ToggleFeatured flips the featured flag. Admin only.
func (h *ArticleHandler) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	featured, err := h.articleService.ToggleFeatured(r.Context(), chi.URLParam(r, "articleRef"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Article not found")
			return
		}
		writeServerError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]bool{"featured": featured})
}

// saveUpload stores the optional image file from the multipart form and
// returns the generated filename, or nil when no file was sent.
func (h *ArticleHandler) saveUpload(r *http.Request) (*string, error) {
	file, header, err := r.FormFile(formFieldImage)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, errors.New("invalid image upload")
	}
	defer file.Close()

	if header.Size > maxImageBytes {
		return nil, errors.New("image too large")
	}

	filename := uuid.NewString() + strings.ToLower(filepath.Ext(header.Filename))
	contentType := header.Header.Get("Content-Type")
	if err := h.uploads.Put(r.Context(), filename, io.LimitReader(file, maxImageBytes), header.Size, contentType); err != nil {
		return nil, errors.New("failed to store image")
	}
	return &filename, nil
}

func (h *ArticleHandler) resolveImages(articles []types.Article) {
	for i := range articles {
		h.resolveArticle(&articles[i])
	}
}

func (h *ArticleHandler) resolveArticle(article *types.Article) {
	article.Image = h.resolver.Resolve(article.Image)
	if article.Author != nil {
		article.Author.Avatar = h.resolver.Resolve(article.Author.Avatar)
	}
}

// parseFormBool treats "true" and "1" as true, anything else as false.
func parseFormBool(value string) bool {
	value = strings.TrimSpace(value)
	return value == "true" || value == "1"
}
