package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ghuser/bookcirc/pkg/errhttp"
	"github.com/ghuser/bookcirc/pkg/httpx"
	pkgvalidator "github.com/ghuser/bookcirc/pkg/validator"
	appsvcs "github.com/ghuser/bookcirc/services/circulation/application/services"
)

// ReturnRequest is the request body for POST /circulation/loans/return.
// Either loan_id, or an item and a member reference, must be given.
type ReturnRequest struct {
	LoanID    string `json:"loan_id" validate:"omitempty,uuid" example:"0b5f6a52-8c1e-4d2b-9a57-3f1c2e4d5a60"`
	ItemID    string `json:"item_id" validate:"omitempty,uuid"`
	ItemKey   string `json:"item_key" validate:"max=64"`
	MemberID  string `json:"member_id" validate:"omitempty,uuid"`
	MemberKey string `json:"member_key" validate:"max=64"`
} // @name ReturnRequest

// ReturnResponse is returned on a successful return.
type ReturnResponse struct {
	LoanID    uuid.UUID    `json:"loan_id"    example:"0b5f6a52-8c1e-4d2b-9a57-3f1c2e4d5a60"`
	DaysLate  int          `json:"days_late"  example:"3"`
	FineCents int64        `json:"fine_cents" example:"75"`
	Available int          `json:"available"  example:"1"`
	Loan      LoanResponse `json:"loan"`
} // @name ReturnResponse

// PostReturnHandler handles POST /circulation/loans/return requests.
type PostReturnHandler struct {
	svc *appsvcs.Services
}

// NewPostReturnHandler returns a PostReturnHandler backed by the given services.
func NewPostReturnHandler(svc *appsvcs.Services) *PostReturnHandler {
	return &PostReturnHandler{svc: svc}
}

// Execute closes an open loan.
//
//	@Summary		Return an item
//	@Description	Closes an open loan, by loan id or by item and member, and charges any fine.
//	@Tags			loans
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			request	body		ReturnRequest	true	"Loan id, or item and member"
//	@Success		200		{object}	ReturnResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		401		{object}	httpx.ErrorBody
//	@Failure		403		{object}	httpx.ErrorBody
//	@Failure		404		{object}	httpx.ErrorBody
//	@Failure		409		{object}	httpx.ErrorBody	"already_returned"
//	@Failure		422		{object}	pkgvalidator.ValidationErrorBody
//	@Router			/circulation/loans/return [post]
func (h *PostReturnHandler) Execute(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[ReturnRequest](w, r)
	if !ok {
		return
	}
	p, ok := policy(w, r, h.svc)
	if !ok {
		return
	}

	var cmd appsvcs.ReturnCommand
	var err error
	if req.LoanID != "" {
		cmd.LoanID = uuid.MustParse(req.LoanID)
	}
	if cmd.Item, err = ref(req.ItemID, req.ItemKey); err != nil {
		errhttp.WriteError(w, err)
		return
	}
	if cmd.Member, err = ref(req.MemberID, req.MemberKey); err != nil {
		errhttp.WriteError(w, err)
		return
	}

	res, err := h.svc.Loans.Return(r.Context(), c, p, cmd)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, ReturnResponse{
		LoanID:    res.Loan.ID,
		DaysLate:  res.DaysLate,
		FineCents: res.FineCents,
		Available: res.Available,
		Loan:      loanResponse(res.Loan),
	})
}
