package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jengzang/anchor-locator-go/internal/database"
	"github.com/jengzang/anchor-locator-go/internal/models"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a repository bound to q.
func (r *UserRepository) WithTx(q database.DBTX) *UserRepository {
	return &UserRepository{db: q}
}

// Create inserts a user and returns its ID
func (r *UserRepository) Create(ctx context.Context, u *models.User) (int64, error) {
	ts := now()
	res, err := r.db.ExecContext(ctx, `INSERT INTO users (username, password_hash, is_superuser, created_at)
		VALUES (?, ?, ?, ?)`, u.Username, u.PasswordHash, boolInt(u.IsSuperuser), ts)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get user id: %w", err)
	}
	u.ID, u.CreatedAt = id, ts
	return id, nil
}

func (r *UserRepository) get(ctx context.Context, where string, arg any) (*models.User, error) {
	var (
		u     models.User
		super int
	)
	err := r.db.QueryRowContext(ctx, "SELECT id, username, password_hash, is_superuser, created_at FROM users WHERE "+where, arg).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &super, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.IsSuperuser = super != 0
	return &u, nil
}

// GetByID retrieves a user; it returns nil when none exists
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.get(ctx, "id = ?", id)
}

// GetByUsername retrieves a user by name; it returns nil when none exists
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.get(ctx, "username = ?", username)
}

// Count returns the number of registered users
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
