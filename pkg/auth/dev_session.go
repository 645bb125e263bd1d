package auth

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/ghuser/bookcirc/pkg/httpx"
	"github.com/ghuser/bookcirc/pkg/logger"
	"github.com/ghuser/bookcirc/pkg/tenancy"
	pkgvalidator "github.com/ghuser/bookcirc/pkg/validator"
)

// DevSessionRequest is the request body for POST /api/dev/session.
type DevSessionRequest struct {
	UserID       string `json:"user_id" validate:"required,min=1,max=255"`
	Role         string `json:"role" validate:"required,oneof=admin staff"`
	HomeTenantID string `json:"home_tenant_id" validate:"omitempty,uuid"`
}

// DevSessionResponse echoes the identity stored in the new session.
type DevSessionResponse struct {
	UserID       string `json:"user_id"`
	Role         string `json:"role"`
	HomeTenantID string `json:"home_tenant_id,omitempty"`
}

// DevSessionHandler issues a session for any identity. Mount it only in development.
type DevSessionHandler struct {
	store sessions.Store
	log   logger.Logger
}

// NewDevSessionHandler returns a DevSessionHandler writing to store.
func NewDevSessionHandler(store sessions.Store, log logger.Logger) *DevSessionHandler {
	return &DevSessionHandler{store: store, log: log}
}

// Execute stores the requested caller in a fresh session.
func (h *DevSessionHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[DevSessionRequest](w, r)
	if !ok {
		return
	}

	caller := tenancy.Caller{UserID: req.UserID, Role: tenancy.ParseRole(req.Role)}
	if req.HomeTenantID != "" {
		caller.HomeTenant = uuid.NullUUID{UUID: uuid.MustParse(req.HomeTenantID), Valid: true}
	}

	if err := SaveCaller(h.store, w, r, caller); err != nil {
		h.log.ErrorContext(r.Context(), "failed to save dev session", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "failed to save session")
		return
	}

	h.log.InfoContext(r.Context(), "dev session issued", "user_id", caller.UserID, "role", caller.Role)
	httpx.JSON(w, http.StatusOK, DevSessionResponse{
		UserID:       caller.UserID,
		Role:         string(caller.Role),
		HomeTenantID: req.HomeTenantID,
	})
}
