package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ghuser/bookcirc/pkg/errhttp"
	"github.com/ghuser/bookcirc/pkg/httpx"
	appsvcs "github.com/ghuser/bookcirc/services/circulation/application/services"
)

// TenantResponse is one branch.
type TenantResponse struct {
	ID   uuid.UUID `json:"id"   example:"7f0c1f4e-3b4a-4c55-9f51-0a6f3f8f2a01"`
	Name string    `json:"name" example:"Central Library"`
	Code string    `json:"code" example:"CEN"`
} // @name Tenant

// TenantsResponse lists the branches visible to the caller.
type TenantsResponse struct {
	Tenants []TenantResponse `json:"tenants"`
} // @name TenantsResponse

// GetTenantsHandler handles GET /circulation/tenants requests.
type GetTenantsHandler struct {
	svc *appsvcs.Services
}

// NewGetTenantsHandler returns a GetTenantsHandler backed by the given services.
func NewGetTenantsHandler(svc *appsvcs.Services) *GetTenantsHandler {
	return &GetTenantsHandler{svc: svc}
}

// Execute lists the branches the caller may see.
//
//	@Summary		List branches
//	@Description	Lists the branches visible to the caller. Staff see their home branch only.
//	@Tags			tenants
//	@Produce		json
//	@Security		SessionCookie
//	@Param			tenant	query		string	false	"Branch id, all or none"
//	@Success		200		{object}	TenantsResponse
//	@Failure		401		{object}	httpx.ErrorBody
//	@Failure		403		{object}	httpx.ErrorBody
//	@Failure		422		{object}	httpx.ErrorBody
//	@Router			/circulation/tenants [get]
func (h *GetTenantsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	tenants, err := h.svc.Tenants.List(r.Context(), c, r.URL.Query().Get("tenant"))
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	resp := TenantsResponse{Tenants: make([]TenantResponse, 0, len(tenants))}
	for _, t := range tenants {
		resp.Tenants = append(resp.Tenants, TenantResponse{ID: t.ID, Name: t.Name, Code: t.Code})
	}
	httpx.JSON(w, http.StatusOK, resp)
}
