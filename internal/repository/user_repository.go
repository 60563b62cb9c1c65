package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shop-service/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
)

var validate = validator.New()

type userRepo struct {
	db DBTX
}

// ValidateUser checks the fields a user must carry before it is stored.
func ValidateUser(u *models.User) error {
	if err := validate.Struct(u); err != nil {
		var validationErr validator.ValidationErrors
		if errors.As(err, &validationErr) {
			switch validationErr[0].Field() {
			case "Email":
				return fmt.Errorf("%w: invalid email format", ErrInvalidInput)
			case "Name":
				return fmt.Errorf("%w: name must be 2-150 characters", ErrInvalidInput)
			}
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if u.PasswordHash == "" {
		return fmt.Errorf("%w: password hash required", ErrInvalidInput)
	}
	return nil
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if err := ValidateUser(u); err != nil {
		return err
	}

	sql := `
		INSERT INTO users (
			email,
			name,
			password_hash,
			created_at
	) VALUES ($1, $2, $3, $4)
	RETURNING user_id
	`

	u.CreatedAt = time.Now().UTC()

	err := r.db.QueryRow(ctx, sql,
		u.Email,
		u.Name,
		u.PasswordHash,
		u.CreatedAt,
	).Scan(&u.UserID)
	if err != nil {
		if pgErr, ok := isUniqueViolation(err); ok && strings.Contains(pgErr.ConstraintName, "email") {
			return fmt.Errorf("%w: email already registered", ErrDuplicate)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: ID must be positive", ErrInvalidInput)
	}
	return r.getBy(ctx, "user_id", id)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: email cannot be empty", ErrInvalidInput)
	}
	return r.getBy(ctx, "email", email)
}

func (r *userRepo) getBy(ctx context.Context, column string, value any) (*models.User, error) {
	sql := `SELECT
		user_id,
		email,
		name,
		password_hash,
		created_at
		FROM users WHERE ` + column + ` = $1`

	var u models.User
	err := r.db.QueryRow(ctx, sql, value).Scan(
		&u.UserID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}

	return &u, nil
}
