package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"shop-service/internal/models"
	"shop-service/internal/repository"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

type Registration struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"required,min=2,max=150"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// TokenIssuer mints bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID int64) (string, time.Time, error)
}

type Accounts struct {
	store      repository.Store
	tokens     TokenIssuer
	validate   *validator.Validate
	bcryptCost int
	logger     *slog.Logger
}

func NewAccounts(store repository.Store, tokens TokenIssuer, logger *slog.Logger) *Accounts {
	return &Accounts{
		store:      store,
		tokens:     tokens,
		validate:   validator.New(),
		bcryptCost: bcrypt.DefaultCost,
		logger:     logger,
	}
}

// WithBcryptCost overrides the password hashing cost.
func (a *Accounts) WithBcryptCost(cost int) *Accounts {
	a.bcryptCost = cost
	return a
}

func (a *Accounts) Register(ctx context.Context, reg Registration) (*models.User, error) {
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	reg.Name = strings.TrimSpace(reg.Name)

	if err := a.validate.Struct(reg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, e := range validationErrors {
				switch e.Field() {
				case "Email":
					return nil, fmt.Errorf("%w: invalid email address", repository.ErrInvalidInput)
				case "Name":
					return nil, fmt.Errorf("%w: name must be 2-150 characters", repository.ErrInvalidInput)
				case "Password":
					return nil, fmt.Errorf("%w: password must be 8-72 characters", repository.ErrInvalidInput)
				}
			}
		}
		return nil, fmt.Errorf("%w: %v", repository.ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), a.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        reg.Email,
		Name:         reg.Name,
		PasswordHash: string(hash),
	}
	if err := a.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}

	a.logger.Info("user registered", "user_id", user.UserID)
	return user, nil
}

// Login checks the credentials and returns a fresh bearer token.
func (a *Accounts) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	user, err := a.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidInput) {
			return "", time.Time{}, fmt.Errorf("%w: invalid email or password", repository.ErrUnauthorized)
		}
		return "", time.Time{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, fmt.Errorf("%w: invalid email or password", repository.ErrUnauthorized)
	}

	return a.tokens.Issue(user.UserID)
}

// User returns the account with the given id.
func (a *Accounts) User(ctx context.Context, userID int64) (*models.User, error) {
	return a.store.Users().GetByID(ctx, userID)
}
