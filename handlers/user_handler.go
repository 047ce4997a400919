package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/upb/studio-auth/internal/observability"
	"github.com/upb/studio-auth/middleware"
	"github.com/upb/studio-auth/models"
	"github.com/upb/studio-auth/services"
	"github.com/upb/studio-auth/utils"
	"go.uber.org/zap"
)

// UserAccounts is the slice of the account service the user endpoints need
type UserAccounts interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// UserHandler handles /api/user requests
type UserHandler struct {
	accounts UserAccounts
	logger   *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(accounts UserAccounts, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// HandleGet handles GET /api/user/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	user, err := h.accounts.GetUser(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, user)
}

// HandleDelete handles DELETE /api/user/{id}.
// Only the account owner or an admin may delete it.
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	principal, ok := middleware.CurrentPrincipal(r.Context())
	if !ok {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	user, err := h.accounts.GetUser(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if !middleware.IsOwnerOrAdmin(principal, user.Email) {
		h.logger.Warn("user deletion refused", append(observability.RequestFields(r.Context()),
			zap.Int64("user_id", id),
			zap.Int64("caller_id", principal.ID),
		)...)
		_ = utils.WriteUnauthorized(w, "Not allowed to delete this user")
		return
	}

	if err := h.accounts.DeleteUser(r.Context(), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteMessage(w, http.StatusOK, "User deleted successfully!")
}

func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid user id", nil)
		return 0, false
	}
	return id, true
}

// ensure the account service satisfies the handler's needs
var _ UserAccounts = (*services.AccountService)(nil)
