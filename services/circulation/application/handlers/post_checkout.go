package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ghuser/bookcirc/pkg/errhttp"
	"github.com/ghuser/bookcirc/pkg/httpx"
	pkgvalidator "github.com/ghuser/bookcirc/pkg/validator"
	appsvcs "github.com/ghuser/bookcirc/services/circulation/application/services"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
)

// CheckoutRequest is the request body for POST /circulation/loans/checkout.
// Item and member are named by id or by natural key (ISBN, member number).
type CheckoutRequest struct {
	ItemID    string `json:"item_id" validate:"omitempty,uuid" example:"5e9a3c1d-2b4f-4e6a-8c7d-1f0e9b8a7c65"`
	ItemKey   string `json:"item_key" validate:"required_without=ItemID,max=64" example:"978-1-4020-9462-6"`
	MemberID  string `json:"member_id" validate:"omitempty,uuid" example:"9c8b7a65-4d3e-4f21-b0a9-8e7d6c5b4a39"`
	MemberKey string `json:"member_key" validate:"required_without=MemberID,max=64" example:"CEN-0001"`
	DueDate   string `json:"due_date" validate:"max=32" example:"2025-03-25"`
	Tenant    string `json:"tenant" validate:"omitempty,tenant_ref" example:"7f0c1f4e-3b4a-4c55-9f51-0a6f3f8f2a01"`
} // @name CheckoutRequest

// CheckoutResponse is returned on a successful checkout.
type CheckoutResponse struct {
	LoanID                 uuid.UUID    `json:"loan_id"                  example:"0b5f6a52-8c1e-4d2b-9a57-3f1c2e4d5a60"`
	DueDate                string       `json:"due_date"                 example:"2025-03-25"`
	Available              int          `json:"available"                example:"0"`
	FuzzyMatch             bool         `json:"fuzzy_match"              example:"false"`
	FulfilledReservationID *uuid.UUID   `json:"fulfilled_reservation_id" example:"c3d2e1f0-a9b8-4c7d-86e5-f4a3b2c1d0e9"`
	Loan                   LoanResponse `json:"loan"`
} // @name CheckoutResponse

// PostCheckoutHandler handles POST /circulation/loans/checkout requests.
type PostCheckoutHandler struct {
	svc *appsvcs.Services
}

// NewPostCheckoutHandler returns a PostCheckoutHandler backed by the given services.
func NewPostCheckoutHandler(svc *appsvcs.Services) *PostCheckoutHandler {
	return &PostCheckoutHandler{svc: svc}
}

// Execute lends an item to a member.
//
//	@Summary		Check out an item
//	@Description	Lends an item to a member. A member at the head of the item's reservation queue has that reservation fulfilled.
//	@Tags			loans
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			request	body		CheckoutRequest	true	"Item and member, by id or natural key"
//	@Success		201		{object}	CheckoutResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		401		{object}	httpx.ErrorBody
//	@Failure		403		{object}	httpx.ErrorBody
//	@Failure		404		{object}	httpx.ErrorBody
//	@Failure		409		{object}	httpx.ErrorBody	"out_of_stock, member_blocked, overdue_block, loan_limit or queue_conflict"
//	@Failure		422		{object}	pkgvalidator.ValidationErrorBody
//	@Router			/circulation/loans/checkout [post]
func (h *PostCheckoutHandler) Execute(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[CheckoutRequest](w, r)
	if !ok {
		return
	}
	p, ok := policy(w, r, h.svc)
	if !ok {
		return
	}

	item, err := ref(req.ItemID, req.ItemKey)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	member, err := ref(req.MemberID, req.MemberKey)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	res, err := h.svc.Loans.Checkout(r.Context(), c, p, appsvcs.CheckoutCommand{
		Item:    item,
		Member:  member,
		DueDate: req.DueDate,
		Tenant:  req.Tenant,
	})
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, CheckoutResponse{
		LoanID:                 res.Loan.ID,
		DueDate:                models.FormatDate(res.Loan.DueDate),
		Available:              res.Available,
		FuzzyMatch:             res.FuzzyMatch,
		FulfilledReservationID: res.FulfilledReservationID,
		Loan:                   loanResponse(res.Loan),
	})
}
