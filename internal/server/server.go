package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/portalberita/apiserver/config"
	"github.com/portalberita/apiserver/internal/db"
	"github.com/portalberita/apiserver/internal/handlers"
	"github.com/portalberita/apiserver/internal/imageurl"
	"github.com/portalberita/apiserver/internal/mq"
	"github.com/portalberita/apiserver/internal/services"
	"github.com/portalberita/apiserver/internal/storage"
	"github.com/portalberita/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     *mq.MQ
}

// New constructs a Server with all dependencies wired.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	uploads, err := newStorage(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if err := uploads.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	broker, err := newBroker(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	articleRepo := store.NewArticleRepository(dbConn)
	categoryRepo := store.NewCategoryRepository(dbConn)
	userRepo := store.NewUserRepository(dbConn)

	articleService := services.NewArticleService(articleRepo, categoryRepo, broker)
	categoryService := services.NewCategoryService(categoryRepo)
	userService := services.NewUserService(userRepo, articleRepo)

	resolver := imageurl.NewResolver(cfg.BaseURL)
	authMiddleware := handlers.RequireAuth(userService, jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Portal Berita API"))
	})
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api/articles", func(r chi.Router) {
		handlers.ArticleRouter(r, articleService, uploads, resolver, authMiddleware)
	})
	router.Route("/api/categories", func(r chi.Router) {
		handlers.CategoryRouter(r, categoryService, resolver, authMiddleware)
	})
	router.Route("/api/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, jwtSecret)
	})
	router.Route("/api/users", func(r chi.Router) {
		handlers.UserRouter(r, userService, resolver, authMiddleware)
	})
	if cfg.Upload.Driver == "local" {
		fileServer := http.FileServer(http.Dir(cfg.Upload.Dir))
		router.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 5000
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
	}, nil
}

// newStorage selects the image storage backend from config.
func newStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	switch cfg.Upload.Driver {
	case "", "local":
		backend, err := storage.NewLocalClient(cfg.Upload)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	case "minio":
		backend, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	case "gcs":
		backend, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	default:
		return nil, fmt.Errorf("unknown upload driver %q", cfg.Upload.Driver)
	}
}

// newBroker selects the message broker from config. An empty driver disables
// publication events.
func newBroker(ctx context.Context, cfg config.Config) (*mq.MQ, error) {
	switch cfg.MQ.Driver {
	case "":
		return nil, nil
	case "rabbitmq":
		backend, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	case "pubsub":
		backend, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	default:
		return nil, fmt.Errorf("unknown mq driver %q", cfg.MQ.Driver)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.broker != nil {
		_ = s.broker.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
