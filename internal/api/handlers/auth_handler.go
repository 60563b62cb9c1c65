package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"shop-service/internal/service"
)

type AuthHandler struct {
	accounts *service.Accounts
	logger   *slog.Logger
}

func NewAuthHandler(accounts *service.Accounts, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, logger: logger}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.Registration
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	user, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "failed to register user")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "user created successfully",
		"user":    user,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	token, expires, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "failed to log in")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expires,
	})
}

// Logout only acknowledges the call: tokens are stateless and expire on their own.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, ok := userID(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "successfully logged out"})
}
