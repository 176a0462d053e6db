package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	seedAdminName     = "Admin"
	seedAdminEmail    = "admin@portalberita.com"
	seedAdminPassword = "admin123"
)

// defaultCategories is the initial taxonomy shipped with a fresh portal.
// Seeded slugs carry no time salt so their URLs stay predictable.
var defaultCategories = []struct {
	Name string
	Slug string
}{
	{"Nasional", "nasional"},
	{"Internasional", "internasional"},
	{"Teknologi", "teknologi"},
	{"Olahraga", "olahraga"},
	{"Hiburan", "hiburan"},
}

// Seed provisions the default admin account and category taxonomy.
// It is idempotent: rows that already exist are left untouched.
func Seed(ctx context.Context, conn *sql.DB) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(seedAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	const userQuery = `
		INSERT INTO users (id, name, email, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, 'admin', $4, now(), now())
		ON CONFLICT (email) DO NOTHING`
	if _, err := conn.ExecContext(ctx, userQuery, uuid.NewString(), seedAdminName, seedAdminEmail, string(hashed)); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	const categoryQuery = `
		INSERT INTO categories (id, name, slug, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (slug) DO NOTHING`
	for _, category := range defaultCategories {
		if _, err := conn.ExecContext(ctx, categoryQuery, uuid.NewString(), category.Name, category.Slug); err != nil {
			return fmt.Errorf("seed category %s: %w", category.Name, err)
		}
	}

	return nil
}
