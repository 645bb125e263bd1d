package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ghuser/bookcirc/pkg/errhttp"
	"github.com/ghuser/bookcirc/pkg/httpx"
	appsvcs "github.com/ghuser/bookcirc/services/circulation/application/services"
)

// CheckResponse is a read-only snapshot of an open loan.
type CheckResponse struct {
	Loan          LoanResponse `json:"loan"`
	ItemID        uuid.UUID    `json:"item_id"            example:"5e9a3c1d-2b4f-4e6a-8c7d-1f0e9b8a7c65"`
	ItemTitle     string       `json:"item_title"         example:"Fundamentals of Library Science"`
	MemberID      uuid.UUID    `json:"member_id"          example:"9c8b7a65-4d3e-4f21-b0a9-8e7d6c5b4a39"`
	MemberName    string       `json:"member_name"        example:"Ada Byron"`
	Available     int          `json:"available"          example:"0"`
	DaysOverdue   int          `json:"days_overdue"       example:"3"`
	FinePreview   int64        `json:"fine_preview_cents" example:"75"`
	FuzzyMatch    bool         `json:"fuzzy_match"        example:"false"`
	MemberBlocked bool         `json:"member_blocked"     example:"false"`
} // @name CheckResponse

// GetCheckHandler handles GET /circulation/loans/check requests.
type GetCheckHandler struct {
	svc *appsvcs.Services
}

// NewGetCheckHandler returns a GetCheckHandler backed by the given services.
func NewGetCheckHandler(svc *appsvcs.Services) *GetCheckHandler {
	return &GetCheckHandler{svc: svc}
}

// Execute reports the open loan of an item and member without changing anything.
//
//	@Summary		Check a loan
//	@Description	Reports the open loan of an item and member with its overdue days and fine preview. Nothing is written.
//	@Tags			loans
//	@Produce		json
//	@Security		SessionCookie
//	@Param			item_id		query		string	false	"Item id"	format(uuid)
//	@Param			item_key	query		string	false	"Item ISBN, used when item_id is absent"
//	@Param			member_id	query		string	false	"Member id"	format(uuid)
//	@Param			member_key	query		string	false	"Member number, used when member_id is absent"
//	@Success		200			{object}	CheckResponse
//	@Failure		401			{object}	httpx.ErrorBody
//	@Failure		403			{object}	httpx.ErrorBody
//	@Failure		404			{object}	httpx.ErrorBody
//	@Failure		409			{object}	httpx.ErrorBody
//	@Failure		422			{object}	httpx.ErrorBody
//	@Router			/circulation/loans/check [get]
func (h *GetCheckHandler) Execute(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	item, err := ref(q.Get("item_id"), q.Get("item_key"))
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	member, err := ref(q.Get("member_id"), q.Get("member_key"))
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	p, ok := policy(w, r, h.svc)
	if !ok {
		return
	}

	res, err := h.svc.Loans.Check(r.Context(), c, p, item, member)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, CheckResponse{
		Loan:          loanResponse(res.Loan),
		ItemID:        res.Item.ID,
		ItemTitle:     res.Item.Title,
		MemberID:      res.Member.ID,
		MemberName:    res.Member.Name,
		Available:     res.Available,
		DaysOverdue:   res.DaysOverdue,
		FinePreview:   res.FinePreview,
		FuzzyMatch:    res.FuzzyMatch,
		MemberBlocked: res.Member.IsBlocked,
	})
}
