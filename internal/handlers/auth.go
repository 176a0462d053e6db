package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/portalberita/apiserver/internal/services"
	"github.com/portalberita/apiserver/internal/store"
	"github.com/portalberita/apiserver/types"
)

const defaultTokenTTL = 24 * time.Hour

// TokenClaims is the JWT payload issued on login: the user's id, email, and
// name. The role is intentionally absent; it is re-read from the database
// on every authenticated request so a role change takes effect immediately.
type TokenClaims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// AuthHandler provides JWT authentication endpoints.
type AuthHandler struct {
	userService *services.UserService
	secret      []byte
	tokenTTL    time.Duration
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		secret:      []byte(jwtSecret),
		tokenTTL:    defaultTokenTTL,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, userService *services.UserService, jwtSecret string) {
	handler := NewAuthHandler(userService, jwtSecret)

	r.Post("/login", handler.Login)
}

// RequireAuth enforces JWT authentication and injects the acting user into
// the request context. The actor's role comes from the user record, not the
// token.
func RequireAuth(userService *services.UserService, jwtSecret string) func(http.Handler) http.Handler {
	secret := []byte(jwtSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Not authorized, no token")
				return
			}

			claims, err := parseToken(tokenString, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
				return
			}

			user, err := userService.GetByID(r.Context(), claims.ID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
					return
				}
				writeServerError(w, err)
				return
			}

			actor := types.Actor{ID: user.ID, Role: user.Role}
			ctx := context.WithValue(r.Context(), contextActorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects actors without the admin role. It must run after
// RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}
		if !actor.IsAdmin() {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Login verifies credentials and returns a JWT valid for one day.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email dan password wajib diisi")
		return
	}

	user, err := h.userService.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Email tidak ditemukan")
			return
		}
		writeServerError(w, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "Password salah")
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		writeServerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Success: true,
		Token:   token,
		User: LoginUser{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
		},
	})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginUser is the user projection returned alongside the token.
type LoginUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type LoginResponse struct {
	Success bool      `json:"success"`
	Token   string    `json:"token"`
	User    LoginUser `json:"user"`
}

func (h *AuthHandler) issueToken(user types.User) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.secret)
}

func parseToken(tokenString string, secret []byte) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if strings.TrimSpace(claims.ID) == "" {
		return nil, errors.New("missing user id")
	}
	return claims, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
