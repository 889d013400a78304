package repository

import (
	"context"
	"errors"

	"github.com/templui/claimguard/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	ByID(ctx context.Context, id string) (*model.User, error)
	ByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type userRepository struct {
	db DBTX
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, name, email, password_hash, role, avatar, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Avatar,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return MapError(err, nil, ErrDuplicateEmail)
}

func (r *userRepository) ByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE id = $1`

	err := r.db.GetContext(ctx, user, query, id)
	if err != nil {
		return nil, MapError(err, ErrUserNotFound, nil)
	}

	return user, nil
}

func (r *userRepository) ByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE email = $1`

	err := r.db.GetContext(ctx, user, query, email)
	if err != nil {
		return nil, MapError(err, ErrUserNotFound, nil)
	}

	return user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET name = $1, avatar = $2, updated_at = $3 WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, user.Name, user.Avatar, user.UpdatedAt, user.ID)
	if err != nil {
		return err
	}

	return MapError(expectOne(result), ErrUserNotFound, nil)
}
