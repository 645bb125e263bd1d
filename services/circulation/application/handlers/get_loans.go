package handlers

import (
	"net/http"
	"strconv"

	"github.com/ghuser/bookcirc/pkg/errhttp"
	"github.com/ghuser/bookcirc/pkg/httpx"
	appsvcs "github.com/ghuser/bookcirc/services/circulation/application/services"
	circdomain "github.com/ghuser/bookcirc/services/circulation/domain"
)

// ListLoansResponse is one page of the loan listing.
type ListLoansResponse struct {
	Loans  []LoanResponse `json:"loans"`
	Total  int            `json:"total"  example:"42"`
	Limit  int            `json:"limit"  example:"50"`
	Offset int            `json:"offset" example:"0"`
} // @name ListLoansResponse

// GetLoansHandler handles GET /circulation/loans requests.
type GetLoansHandler struct {
	svc *appsvcs.Services
}

// NewGetLoansHandler returns a GetLoansHandler backed by the given services.
func NewGetLoansHandler(svc *appsvcs.Services) *GetLoansHandler {
	return &GetLoansHandler{svc: svc}
}

// Execute lists loans visible to the caller.
//
//	@Summary		List loans
//	@Description	Lists the loans of the branches the caller may see, newest first.
//	@Tags			loans
//	@Produce		json
//	@Security		SessionCookie
//	@Param			tenant	query		string	false	"Branch id, all or none. Defaults to the caller's home branch"
//	@Param			status	query		string	false	"Loan status"	Enums(open, overdue, returned, all)	default(open)
//	@Param			q		query		string	false	"Matches title, ISBN, member name or member number"
//	@Param			limit	query		int		false	"Page size"		minimum(0)
//	@Param			offset	query		int		false	"Rows to skip"	minimum(0)
//	@Success		200		{object}	ListLoansResponse
//	@Failure		401		{object}	httpx.ErrorBody
//	@Failure		403		{object}	httpx.ErrorBody
//	@Failure		422		{object}	httpx.ErrorBody
//	@Router			/circulation/loans [get]
func (h *GetLoansHandler) Execute(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	offset, err := intParam(q.Get("offset"))
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	query := appsvcs.ListLoansQuery{
		Tenant: q.Get("tenant"),
		Status: q.Get("status"),
		Search: q.Get("q"),
		Limit:  limit,
		Offset: offset,
	}
	loans, total, err := h.svc.Loans.List(r.Context(), c, query)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	resp := ListLoansResponse{Loans: make([]LoanResponse, 0, len(loans)), Total: total, Limit: limit, Offset: offset}
	for _, l := range loans {
		resp.Loans = append(resp.Loans, loanViewResponse(l))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, circdomain.ErrInvalidInput
	}
	return n, nil
}
