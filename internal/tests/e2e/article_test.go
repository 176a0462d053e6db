//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/portalberita/apiserver/config"
	"github.com/portalberita/apiserver/internal/db"
	"github.com/portalberita/apiserver/internal/server"
)

const (
	serverPort    = 18080
	adminEmail    = "admin@portalberita.com"
	adminPassword = "admin123"
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runSeed(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed database: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestArticleLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)

	token, err := login(t, baseURL, adminEmail, adminPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	categoryName := fmt.Sprintf("Lifecycle %d", time.Now().UnixNano())
	category, err := createCategory(t, baseURL, token, categoryName)
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	title := fmt.Sprintf("Lifecycle Article %d", time.Now().UnixNano())
	article, err := createArticle(t, baseURL, token, title, category.ID)
	if err != nil {
		t.Fatalf("create article: %v", err)
	}
	if article.Title != title {
		t.Fatalf("unexpected article title: %q", article.Title)
	}
	if article.Published {
		t.Fatalf("expected article to start unpublished")
	}

	published, err := publishArticle(t, baseURL, token, article.ID)
	if err != nil {
		t.Fatalf("publish article: %v", err)
	}
	if !published.Published {
		t.Fatalf("expected article to be published")
	}
	if published.PublishedAt == nil {
		t.Fatalf("expected publishedAt to be set on publish")
	}

	first, err := getArticle(t, baseURL, published.Slug)
	if err != nil {
		t.Fatalf("get article: %v", err)
	}
	second, err := getArticle(t, baseURL, published.Slug)
	if err != nil {
		t.Fatalf("get article again: %v", err)
	}
	if second.ViewCount <= first.ViewCount {
		t.Fatalf("expected view count to increase: %d then %d", first.ViewCount, second.ViewCount)
	}

	if err := expectCategoryDeleteConflict(t, baseURL, token, category.ID); err != nil {
		t.Fatalf("expected category delete conflict: %v", err)
	}

	if err := deleteArticle(t, baseURL, token, article.ID); err != nil {
		t.Fatalf("delete article: %v", err)
	}
	if err := expectArticleNotFound(t, baseURL, published.Slug); err != nil {
		t.Fatalf("expected deleted article to be missing: %v", err)
	}

	if err := deleteCategory(t, baseURL, token, category.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type articleResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Published   bool    `json:"published"`
	ViewCount   int     `json:"viewCount"`
	PublishedAt *string `json:"publishedAt"`
}

type categoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func login(t *testing.T, baseURL, email, password string) (string, error) {
	t.Helper()

	payload, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(baseURL+"/api/auth/login", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if parsed.Token == "" {
		return "", fmt.Errorf("empty token")
	}
	return parsed.Token, nil
}

func createCategory(t *testing.T, baseURL, token, name string) (categoryResponse, error) {
	t.Helper()

	payload, _ := json.Marshal(map[string]string{"name": name})
	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/categories", bytes.NewReader(payload))
	if err != nil {
		return categoryResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return categoryResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return categoryResponse{}, fmt.Errorf("create category status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return categoryResponse{}, err
	}
	var parsed categoryResponse
	if err := json.Unmarshal(env.Data, &parsed); err != nil {
		return categoryResponse{}, err
	}
	return parsed, nil
}

func createArticle(t *testing.T, baseURL, token, title, categoryID string) (articleResponse, error) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	_ = writer.WriteField("title", title)
	_ = writer.WriteField("content", "Liputan lengkap dari ruang redaksi.")
	_ = writer.WriteField("categoryId", categoryID)
	if err := writer.Close(); err != nil {
		return articleResponse{}, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/articles", &body)
	if err != nil {
		return articleResponse{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return articleResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return articleResponse{}, fmt.Errorf("create article status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return articleResponse{}, err
	}
	var parsed articleResponse
	if err := json.Unmarshal(env.Data, &parsed); err != nil {
		return articleResponse{}, err
	}
	return parsed, nil
}

func publishArticle(t *testing.T, baseURL, token, id string) (articleResponse, error) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	_ = writer.WriteField("published", "true")
	if err := writer.Close(); err != nil {
		return articleResponse{}, err
	}

	req, err := http.NewRequest(http.MethodPut, baseURL+"/api/articles/"+id, &body)
	if err != nil {
		return articleResponse{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return articleResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return articleResponse{}, fmt.Errorf("publish article status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return articleResponse{}, err
	}
	var parsed articleResponse
	if err := json.Unmarshal(env.Data, &parsed); err != nil {
		return articleResponse{}, err
	}
	return parsed, nil
}

func getArticle(t *testing.T, baseURL, slug string) (articleResponse, error) {
	t.Helper()

	resp, err := http.Get(baseURL + "/api/articles/" + slug)
	if err != nil {
		return articleResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return articleResponse{}, fmt.Errorf("get article status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return articleResponse{}, err
	}
	var parsed articleResponse
	if err := json.Unmarshal(env.Data, &parsed); err != nil {
		return articleResponse{}, err
	}
	return parsed, nil
}

func deleteArticle(t *testing.T, baseURL, token, id string) error {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, baseURL+"/api/articles/"+id, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete article status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func expectArticleNotFound(t *testing.T, baseURL, slug string) error {
	t.Helper()

	resp, err := http.Get(baseURL + "/api/articles/" + slug)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("expected 404 after delete, got %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func expectCategoryDeleteConflict(t *testing.T, baseURL, token, id string) error {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, baseURL+"/api/categories/"+id, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("expected 400 for non-empty category, got %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func deleteCategory(t *testing.T, baseURL, token, id string) error {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, baseURL+"/api/categories/"+id, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete category status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	dsn := buildPostgresURL(cfg)
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := conn.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	dsn := buildPostgresURL(cfg)
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, dsn)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func runSeed(ctx context.Context) error {
	cfg := config.LoadConfig()
	conn, err := db.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	return db.Seed(ctx, conn)
}

func buildPostgresURL(cfg config.Config) string {
	sslmode := "disable"
	if cfg.Database.UseSSL {
		sslmode = "require"
	}
	host := fmt.Sprintf("%s:%d", cfg.Database.Host, cfg.Database.Port)
	return fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		host,
		cfg.Database.DBName,
		sslmode,
	)
}

func startServer() (*server.Server, error) {
	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("API_BASE_URL", fmt.Sprintf("http://localhost:%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "portalberita")
	_ = os.Setenv("DB_PASSWORD", "password")
	_ = os.Setenv("DB_NAME", "portalberita_db")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("UPLOAD_DRIVER", "local")
	_ = os.Setenv("UPLOAD_DIR", filepath.Join(os.TempDir(), "portalberita-e2e-uploads"))

	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
