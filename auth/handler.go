package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/upb/studio-auth/middleware"
	"github.com/upb/studio-auth/models"
	"github.com/upb/studio-auth/services"
	"github.com/upb/studio-auth/utils"
	"go.uber.org/zap"
)

const (
	// TokenType is reported alongside every issued token
	TokenType = "Bearer"

	msgBadCredentials   = "Bad credentials"
	msgEmailTaken       = "Error: Email is already taken!"
	msgRegistered       = "User registered successfully!"
	msgLoginUnavailable = "Login failed"
)

// Authenticator checks an identity and secret
type Authenticator interface {
	Authenticate(ctx context.Context, identity, secret string) (*services.Principal, error)
}

// Registrar creates accounts
type Registrar interface {
	Register(ctx context.Context, req services.SignupRequest) (*models.User, error)
}

// TokenIssuer signs a token for a subject
type TokenIssuer interface {
	Issue(subject string) (string, error)
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// JwtResponse is returned on a successful login
type JwtResponse struct {
	Token     string `json:"token"`
	Type      string `json:"type"`
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Admin     bool   `json:"admin"`
}

// Handler serves the login, registration and session endpoints
type Handler struct {
	authenticator Authenticator
	registrar     Registrar
	issuer        TokenIssuer
	logger        *zap.Logger
}

// NewHandler creates a new auth handler
func NewHandler(authenticator Authenticator, registrar Registrar, issuer TokenIssuer, logger *zap.Logger) *Handler {
	return &Handler{
		authenticator: authenticator,
		registrar:     registrar,
		issuer:        issuer,
		logger:        logger,
	}
}

// HandleLogin exchanges an email and password for a signed token
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	if err := utils.ValidateStruct(req); err != nil {
		_ = utils.WriteBadRequest(w, "Validation failed", toDetails(utils.GetValidationFields(err)))
		return
	}

	principal, err := h.authenticator.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if services.IsNotFoundError(err) || errors.Is(err, services.ErrBadCredential) {
			_ = utils.WriteUnauthorized(w, msgBadCredentials)
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		_ = utils.WriteInternalServerError(w, msgLoginUnavailable)
		return
	}

	token, err := h.issuer.Issue(principal.Username)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Int64("user_id", principal.ID), zap.Error(err))
		_ = utils.WriteInternalServerError(w, msgLoginUnavailable)
		return
	}

	h.logger.Info("user logged in", zap.Int64("user_id", principal.ID))
	_ = utils.WriteJSON(w, http.StatusOK, JwtResponse{
		Token:     token,
		Type:      TokenType,
		ID:        principal.ID,
		Username:  principal.Username,
		FirstName: principal.FirstName,
		LastName:  principal.LastName,
		Admin:     principal.Admin,
	})
}

// HandleRegister creates a regular account
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req services.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if _, err := h.registrar.Register(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateEmail):
			_ = utils.WriteMessage(w, http.StatusBadRequest, msgEmailTaken)
		case services.IsValidationError(err):
			_ = utils.WriteBadRequest(w, "Validation failed", services.GetErrorDetails(err))
		default:
			h.logger.Error("registration failed", zap.Error(err))
			_ = utils.WriteInternalServerError(w, "Registration failed")
		}
		return
	}

	_ = utils.WriteMessage(w, http.StatusOK, msgRegistered)
}

// HandleMe returns the principal attached to the request
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.CurrentPrincipal(r.Context())
	if !ok {
		_ = utils.WriteUnauthorized(w, "")
		return
	}
	_ = utils.WriteOK(w, principal)
}

func toDetails(fields map[string]string) map[string]interface{} {
	if len(fields) == 0 {
		return nil
	}
	details := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		details[k] = v
	}
	return details
}
