package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/bookcirc/pkg/errhttp"
	"github.com/ghuser/bookcirc/pkg/httpx"
	pkgvalidator "github.com/ghuser/bookcirc/pkg/validator"
	appsvcs "github.com/ghuser/bookcirc/services/circulation/application/services"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
)

const maxExtendBody = 4 << 10

// ExtendRequest is the optional request body for POST /circulation/loans/{id}/extend.
// Days defaults to the policy's extension length.
type ExtendRequest struct {
	Days *int `json:"days" validate:"omitempty,min=1,max=3650" example:"14"`
} // @name ExtendRequest

// ExtendResponse is returned on a successful extension.
type ExtendResponse struct {
	LoanID          uuid.UUID `json:"loan_id"           example:"0b5f6a52-8c1e-4d2b-9a57-3f1c2e4d5a60"`
	DueDate         string    `json:"due_date"          example:"2025-04-08"`
	PreviousDueDate string    `json:"previous_due_date" example:"2025-03-25"`
	DaysAdded       int       `json:"days_added"        example:"14"`
} // @name ExtendResponse

// PostExtendHandler handles POST /circulation/loans/{id}/extend requests.
type PostExtendHandler struct {
	svc *appsvcs.Services
}

// NewPostExtendHandler returns a PostExtendHandler backed by the given services.
func NewPostExtendHandler(svc *appsvcs.Services) *PostExtendHandler {
	return &PostExtendHandler{svc: svc}
}

// Execute pushes a loan's due date back.
//
//	@Summary		Extend a loan
//	@Description	Pushes the due date back from the current due date. Without a body the policy's extension length is used.
//	@Tags			loans
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			id		path		string			true	"Loan id"	format(uuid)
//	@Param			request	body		ExtendRequest	false	"Days to add"
//	@Success		200		{object}	ExtendResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		401		{object}	httpx.ErrorBody
//	@Failure		403		{object}	httpx.ErrorBody
//	@Failure		404		{object}	httpx.ErrorBody
//	@Failure		409		{object}	httpx.ErrorBody	"already_returned"
//	@Failure		422		{object}	pkgvalidator.ValidationErrorBody
//	@Router			/circulation/loans/{id}/extend [post]
func (h *PostExtendHandler) Execute(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	// The body is optional; an empty one means the default extension.
	r.Body = http.MaxBytesReader(w, r.Body, maxExtendBody)
	req, ok := pkgvalidator.ValidateOptionalRequest[ExtendRequest](w, r)
	if !ok {
		return
	}

	p, ok := policy(w, r, h.svc)
	if !ok {
		return
	}

	res, err := h.svc.Loans.Extend(r.Context(), c, p, appsvcs.ExtendCommand{LoanID: id, Days: req.Days})
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, ExtendResponse{
		LoanID:          res.Loan.ID,
		DueDate:         models.FormatDate(res.Loan.DueDate),
		PreviousDueDate: models.FormatDate(res.PreviousDue),
		DaysAdded:       res.DaysAdded,
	})
}
