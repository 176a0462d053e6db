package services

import (
	"context"

	"github.com/portalberita/apiserver/internal/store"
	"github.com/portalberita/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	List(ctx context.Context, role string) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id string) error
}

// ArticleCounter reports how many articles a user has authored. Articles
// reference their author, so a user with articles cannot be removed.
type ArticleCounter interface {
	CountByAuthor(ctx context.Context, authorID string) (int, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo     UserRepository
	articles ArticleCounter
}

func NewUserService(repo UserRepository, articles ArticleCounter) *UserService {
	return &UserService{repo: repo, articles: articles}
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) List(ctx context.Context, role string) ([]types.User, error) {
	return s.repo.List(ctx, role)
}

func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Create(ctx, user)
}

func (s *UserService) Update(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Update(ctx, user)
}

// Delete removes a user unless they still have articles. On conflict the
// returned count reports how many articles block the delete.
func (s *UserService) Delete(ctx context.Context, id string) (int, error) {
	count, err := s.articles.CountByAuthor(ctx, id)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return count, store.ErrConflict
	}
	return 0, s.repo.Delete(ctx, id)
}
