package handlers

import (
	"net/http"

	"github.com/ghuser/bookcirc/pkg/errhttp"
	"github.com/ghuser/bookcirc/pkg/httpx"
	pkgvalidator "github.com/ghuser/bookcirc/pkg/validator"
	appsvcs "github.com/ghuser/bookcirc/services/circulation/application/services"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
	domainsvcs "github.com/ghuser/bookcirc/services/circulation/domain/services"
)

// UpdatePolicyRequest is the request body for PUT /circulation/policy.
// Omitted fields keep their current value.
type UpdatePolicyRequest struct {
	DefaultLoanDays   *int   `json:"default_loan_days" validate:"omitempty,gte=1,lte=365" example:"21"`
	DefaultExtendDays *int   `json:"default_extend_days" validate:"omitempty,gte=1,lte=365" example:"14"`
	MaxActiveLoans    *int   `json:"max_active_loans" validate:"omitempty,gte=0" example:"10"`
	BlockOnOverdue    *bool  `json:"block_on_overdue" example:"true"`
	FinesEnabled      *bool  `json:"fines_enabled" example:"true"`
	FinePerDayCents   *int64 `json:"fine_per_day_cents" validate:"omitempty,gte=0" example:"25"`
	FuzzySuffixLength *int   `json:"fuzzy_suffix_length" validate:"omitempty,gte=0,lte=32" example:"4"`
} // @name UpdatePolicyRequest

// PolicyResponse is the circulation policy in force.
type PolicyResponse struct {
	DefaultLoanDays   int   `json:"default_loan_days"   example:"15"`
	DefaultExtendDays int   `json:"default_extend_days" example:"15"`
	MaxActiveLoans    int   `json:"max_active_loans"    example:"0"`
	BlockOnOverdue    bool  `json:"block_on_overdue"    example:"false"`
	FinesEnabled      bool  `json:"fines_enabled"       example:"false"`
	FinePerDayCents   int64 `json:"fine_per_day_cents"  example:"0"`
	FuzzySuffixLength int   `json:"fuzzy_suffix_length" example:"0"`
} // @name Policy

func policyResponse(p models.PolicyConfig) PolicyResponse {
	return PolicyResponse(p)
}

// GetPolicyHandler handles GET /circulation/policy requests.
type GetPolicyHandler struct {
	svc *appsvcs.Services
}

// NewGetPolicyHandler returns a GetPolicyHandler backed by the given services.
func NewGetPolicyHandler(svc *appsvcs.Services) *GetPolicyHandler {
	return &GetPolicyHandler{svc: svc}
}

// Execute returns the policy in force.
//
//	@Summary		Get policy
//	@Description	Returns the circulation policy in force: configured defaults overlaid with stored settings.
//	@Tags			policy
//	@Produce		json
//	@Security		SessionCookie
//	@Success		200	{object}	PolicyResponse
//	@Failure		401	{object}	httpx.ErrorBody
//	@Router			/circulation/policy [get]
func (h *GetPolicyHandler) Execute(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	p, ok := policy(w, r, h.svc)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, policyResponse(p))
}

// PutPolicyHandler handles PUT /circulation/policy requests. Admins only.
type PutPolicyHandler struct {
	svc *appsvcs.Services
}

// NewPutPolicyHandler returns a PutPolicyHandler backed by the given services.
func NewPutPolicyHandler(svc *appsvcs.Services) *PutPolicyHandler {
	return &PutPolicyHandler{svc: svc}
}

// Execute patches the stored policy.
//
//	@Summary		Update policy
//	@Description	Patches the stored policy. Omitted fields keep their value. Admins only.
//	@Tags			policy
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			request	body		UpdatePolicyRequest	true	"Policy fields to change"
//	@Success		200		{object}	PolicyResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		401		{object}	httpx.ErrorBody
//	@Failure		403		{object}	httpx.ErrorBody
//	@Failure		422		{object}	pkgvalidator.ValidationErrorBody
//	@Router			/circulation/policy [put]
func (h *PutPolicyHandler) Execute(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[UpdatePolicyRequest](w, r)
	if !ok {
		return
	}

	next, err := h.svc.Policy.Update(r.Context(), c, domainsvcs.PolicyPatch{
		DefaultLoanDays:   req.DefaultLoanDays,
		DefaultExtendDays: req.DefaultExtendDays,
		MaxActiveLoans:    req.MaxActiveLoans,
		BlockOnOverdue:    req.BlockOnOverdue,
		FinesEnabled:      req.FinesEnabled,
		FinePerDayCents:   req.FinePerDayCents,
		FuzzySuffixLength: req.FuzzySuffixLength,
	})
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, policyResponse(next))
}
