package services

import (
	"context"
	"errors"
	"testing"

	"github.com/portalberita/apiserver/internal/store"
	"github.com/portalberita/apiserver/types"
)

type fakeUserRepo struct {
	users map[string]types.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) List(ctx context.Context, role string) ([]types.User, error) {
	var users []types.User
	for _, u := range f.users {
		if role == "" || u.Role == role {
			users = append(users, u)
		}
	}
	return users, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user types.User) (types.User, error) {
	if _, ok := f.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeArticleCounter struct {
	counts map[string]int
}

func (f *fakeArticleCounter) CountByAuthor(ctx context.Context, authorID string) (int, error) {
	return f.counts[authorID], nil
}

func TestDeleteUserWithArticles(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]types.User{
		"writer": {ID: "writer", Email: "writer@portalberita.com", Role: types.RoleEditor},
	}}
	counter := &fakeArticleCounter{counts: map[string]int{"writer": 2}}
	svc := NewUserService(repo, counter)

	count, err := svc.Delete(context.Background(), "writer")
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if count != 2 {
		t.Fatalf("expected blocking count 2, got %d", count)
	}

	counter.counts["writer"] = 0
	if _, err := svc.Delete(context.Background(), "writer"); err != nil {
		t.Fatalf("delete without articles: %v", err)
	}
	if _, err := svc.Delete(context.Background(), "writer"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
