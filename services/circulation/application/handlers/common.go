// Package handlers holds the HTTP handlers of the circulation service, one
// file per endpoint.
package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/bookcirc/pkg/auth"
	"github.com/ghuser/bookcirc/pkg/errhttp"
	"github.com/ghuser/bookcirc/pkg/httpx"
	"github.com/ghuser/bookcirc/pkg/tenancy"
	appsvcs "github.com/ghuser/bookcirc/services/circulation/application/services"
	circdomain "github.com/ghuser/bookcirc/services/circulation/domain"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
)

// LoanResponse is the wire form of a loan.
type LoanResponse struct {
	ID           uuid.UUID  `json:"id"                      example:"0b5f6a52-8c1e-4d2b-9a57-3f1c2e4d5a60"`
	ItemID       uuid.UUID  `json:"item_id"                 example:"5e9a3c1d-2b4f-4e6a-8c7d-1f0e9b8a7c65"`
	MemberID     uuid.UUID  `json:"member_id"               example:"9c8b7a65-4d3e-4f21-b0a9-8e7d6c5b4a39"`
	TenantID     *uuid.UUID `json:"tenant_id"               example:"7f0c1f4e-3b4a-4c55-9f51-0a6f3f8f2a01"`
	LoanDate     time.Time  `json:"loan_date"               example:"2025-03-10T09:15:00Z"`
	DueDate      string     `json:"due_date"                example:"2025-03-25"`
	ReturnDate   *time.Time `json:"return_date"`
	FineCents    int64      `json:"fine_cents"              example:"0"`
	ItemTitle    string     `json:"item_title,omitempty"    example:"Fundamentals of Library Science"`
	ItemISBN     string     `json:"item_isbn,omitempty"     example:"9781402894626"`
	MemberName   string     `json:"member_name,omitempty"   example:"Ada Byron"`
	MemberNumber string     `json:"member_number,omitempty" example:"CEN-0001"`
} // @name Loan

func loanResponse(l *models.Loan) LoanResponse {
	return LoanResponse{
		ID:         l.ID,
		ItemID:     l.ItemID,
		MemberID:   l.MemberID,
		TenantID:   tenantPtr(l.TenantID),
		LoanDate:   l.LoanDate,
		DueDate:    models.FormatDate(l.DueDate),
		ReturnDate: l.ReturnDate,
		FineCents:  l.FineCents,
	}
}

func loanViewResponse(v *models.LoanView) LoanResponse {
	resp := loanResponse(&v.Loan)
	resp.ItemTitle = v.ItemTitle
	resp.ItemISBN = v.ItemISBN
	resp.MemberName = v.MemberName
	resp.MemberNumber = v.MemberNumber
	return resp
}

func tenantPtr(t uuid.NullUUID) *uuid.UUID {
	if !t.Valid {
		return nil
	}
	id := t.UUID
	return &id
}

// caller returns the authenticated caller or writes 401.
func caller(w http.ResponseWriter, r *http.Request) (tenancy.Caller, bool) {
	c, err := auth.CallerFromCtx(r.Context())
	if err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "authentication required")
		return tenancy.Caller{}, false
	}
	return c, true
}

// policy loads the policy in force for this request or writes 500.
func policy(w http.ResponseWriter, r *http.Request, svc *appsvcs.Services) (models.PolicyConfig, bool) {
	p, err := svc.Policy.Current(r.Context())
	if err != nil {
		errhttp.WriteError(w, err)
		return models.PolicyConfig{}, false
	}
	return p, true
}

// ref builds a Ref from an optional id string and a natural key.
func ref(id, key string) (appsvcs.Ref, error) {
	out := appsvcs.Ref{Key: key}
	if id == "" {
		return out, nil
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return appsvcs.Ref{}, circdomain.ErrInvalidInput
	}
	out.ID = parsed
	return out, nil
}

// pathID parses a UUID path parameter.
func pathID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, circdomain.ErrInvalidInput
	}
	return id, nil
}
