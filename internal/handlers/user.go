package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/portalberita/apiserver/internal/imageurl"
	"github.com/portalberita/apiserver/internal/services"
	"github.com/portalberita/apiserver/internal/store"
	"github.com/portalberita/apiserver/types"
)

// UserHandler provides HTTP handlers for user administration.
type UserHandler struct {
	userService *services.UserService
	resolver    *imageurl.Resolver
}

// NewUserHandler constructs a handler with the provided dependencies.
func NewUserHandler(userService *services.UserService, resolver *imageurl.Resolver) *UserHandler {
	return &UserHandler{
		userService: userService,
		resolver:    resolver,
	}
}

// UserRouter registers user management routes. Every route is admin only.
func UserRouter(
	r chi.Router,
	userService *services.UserService,
	resolver *imageurl.Resolver,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewUserHandler(userService, resolver)

	r.Use(authMiddleware, RequireAdmin)
	r.Get("/", handler.ListUsers)
	r.Post("/", handler.CreateUser)
	r.Get("/{userID}", handler.GetUser)
	r.Put("/{userID}", handler.UpdateUser)
	r.Delete("/{userID}", handler.DeleteUser)
}

// UserResponse is the projection exposed to admins. The password hash never
// leaves the store layer.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Avatar    *string   `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListUsers serves all users, optionally filtered by role.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	role := strings.TrimSpace(r.URL.Query().Get("role"))

	users, err := h.userService.List(r.Context(), role)
	if err != nil {
		writeServerError(w, err)
		return
	}

	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, h.toResponse(user))
	}
	writeCounted(w, len(responses), responses)
}

// GetUser serves one user by id.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetByID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeServerError(w, err)
		return
	}
	writeData(w, http.StatusOK, h.toResponse(user))
}

type UserCreateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// CreateUser creates an account with the given role.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req UserCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Role = strings.TrimSpace(req.Role)
	if req.Name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeServerError(w, err)
		return
	}

	user, err := h.userService.Create(r.Context(), types.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusBadRequest, "A user with this email already exists")
			return
		}
		writeServerError(w, err)
		return
	}

	writeData(w, http.StatusCreated, h.toResponse(user))
}

type UserUpdateRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	Avatar   *string `json:"avatar"`
}

// UpdateUser patches a user. Empty fields keep their stored values; a
// non-empty password is rehashed.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UserUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.userService.GetByID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeServerError(w, err)
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		user.Email = email
	}
	if role := strings.TrimSpace(req.Role); role != "" {
		user.Role = role
	}
	if req.Avatar != nil {
		// Clients echo back the resolved URL; store the bare filename.
		filename := imageurl.Filename(*req.Avatar)
		if filename == "" {
			user.Avatar = nil
		} else {
			user.Avatar = &filename
		}
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeServerError(w, err)
			return
		}
		user.PasswordHash = string(hash)
	}

	updated, err := h.userService.Update(r.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusBadRequest, "A user with this email already exists")
		default:
			writeServerError(w, err)
		}
		return
	}

	writeData(w, http.StatusOK, h.toResponse(updated))
}

// DeleteUser removes a user. Users who still have articles cannot be
// removed.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	count, err := h.userService.Delete(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Cannot delete user. They have %d article(s) associated with them.", count))
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			writeServerError(w, err)
		}
		return
	}
	writeMessage(w, http.StatusOK, "User deleted", nil)
}

func (h *UserHandler) toResponse(user types.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		Avatar:    h.resolver.Resolve(user.Avatar),
		CreatedAt: user.CreatedAt,
	}
}
