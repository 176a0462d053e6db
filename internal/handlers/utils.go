package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/portalberita/apiserver/types"
)

type contextKey string

const contextActorKey contextKey = "actor"

// Response is the uniform JSON envelope returned by every endpoint.
type Response struct {
	Success     bool   `json:"success"`
	Data        any    `json:"data,omitempty"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
	Count       *int   `json:"count,omitempty"`
	TotalPages  *int   `json:"totalPages,omitempty"`
	CurrentPage *int   `json:"currentPage,omitempty"`
}

func actorFromContext(ctx context.Context) (types.Actor, error) {
	actor, ok := ctx.Value(contextActorKey).(types.Actor)
	if !ok || actor.ID == "" {
		return types.Actor{}, errors.New("missing actor")
	}
	return actor, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Response{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Response{Success: true, Message: message, Data: data})
}

func writeCounted(w http.ResponseWriter, count int, data any) {
	writeJSON(w, http.StatusOK, Response{Success: true, Count: &count, Data: data})
}

func writePage(w http.ResponseWriter, total, totalPages, currentPage int, data any) {
	writeJSON(w, http.StatusOK, Response{
		Success:     true,
		Count:       &total,
		TotalPages:  &totalPages,
		CurrentPage: &currentPage,
		Data:        data,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: false, Message: message})
}

// writeServerError reports an unexpected failure. The underlying error
// detail is exposed only outside production, matching the configured ENV.
func writeServerError(w http.ResponseWriter, err error) {
	resp := Response{Success: false, Message: "Server Error"}
	if os.Getenv("ENV") == "dev" && err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, resp)
}

func parsePagination(r *http.Request) (page, limit int, err error) {
	page = 1
	limit = 10

	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, errors.New("invalid page")
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, errors.New("invalid limit")
		}
	}
	return page, limit, nil
}

// Healthz reports process liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
