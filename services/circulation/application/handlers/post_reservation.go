package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/bookcirc/pkg/errhttp"
	"github.com/ghuser/bookcirc/pkg/httpx"
	pkgvalidator "github.com/ghuser/bookcirc/pkg/validator"
	appsvcs "github.com/ghuser/bookcirc/services/circulation/application/services"
)

// ReservationRequest is the request body for POST /circulation/reservations.
type ReservationRequest struct {
	ItemID    string `json:"item_id" validate:"omitempty,uuid" example:"5e9a3c1d-2b4f-4e6a-8c7d-1f0e9b8a7c65"`
	ItemKey   string `json:"item_key" validate:"required_without=ItemID,max=64" example:"978-1-4020-9462-6"`
	MemberID  string `json:"member_id" validate:"omitempty,uuid" example:"9c8b7a65-4d3e-4f21-b0a9-8e7d6c5b4a39"`
	MemberKey string `json:"member_key" validate:"required_without=MemberID,max=64" example:"CEN-0002"`
	Tenant    string `json:"tenant" validate:"omitempty,tenant_ref" example:"7f0c1f4e-3b4a-4c55-9f51-0a6f3f8f2a01"`
} // @name ReservationRequest

// ReservationResponse is the wire form of a reservation.
type ReservationResponse struct {
	ID        uuid.UUID  `json:"id"                 example:"c3d2e1f0-a9b8-4c7d-86e5-f4a3b2c1d0e9"`
	ItemID    uuid.UUID  `json:"item_id"            example:"5e9a3c1d-2b4f-4e6a-8c7d-1f0e9b8a7c65"`
	MemberID  uuid.UUID  `json:"member_id"          example:"9c8b7a65-4d3e-4f21-b0a9-8e7d6c5b4a39"`
	TenantID  *uuid.UUID `json:"tenant_id"          example:"7f0c1f4e-3b4a-4c55-9f51-0a6f3f8f2a01"`
	Status    string     `json:"status"             example:"active" enums:"active,fulfilled,cancelled"`
	CreatedAt time.Time  `json:"created_at"         example:"2025-03-10T09:20:00Z"`
	Position  int        `json:"position,omitempty" example:"1"`
} // @name Reservation

func reservationResponse(e appsvcs.QueueEntry) ReservationResponse {
	r := e.Reservation
	return ReservationResponse{
		ID:        r.ID,
		ItemID:    r.ItemID,
		MemberID:  r.MemberID,
		TenantID:  tenantPtr(r.TenantID),
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
		Position:  e.Position,
	}
}

// PostReservationHandler handles POST /circulation/reservations requests.
type PostReservationHandler struct {
	svc *appsvcs.Services
}

// NewPostReservationHandler returns a PostReservationHandler backed by the given services.
func NewPostReservationHandler(svc *appsvcs.Services) *PostReservationHandler {
	return &PostReservationHandler{svc: svc}
}

// Execute places a member at the tail of an item's queue.
//
//	@Summary		Reserve an item
//	@Description	Places a member at the tail of an item's reservation queue.
//	@Tags			reservations
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			request	body		ReservationRequest	true	"Item and member, by id or natural key"
//	@Success		201		{object}	ReservationResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		401		{object}	httpx.ErrorBody
//	@Failure		403		{object}	httpx.ErrorBody
//	@Failure		404		{object}	httpx.ErrorBody
//	@Failure		409		{object}	httpx.ErrorBody	"duplicate_reservation or member_blocked"
//	@Failure		422		{object}	pkgvalidator.ValidationErrorBody
//	@Router			/circulation/reservations [post]
func (h *PostReservationHandler) Execute(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[ReservationRequest](w, r)
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

	entry, err := h.svc.Reservations.Create(r.Context(), c, p, appsvcs.ReserveCommand{
		Item:   item,
		Member: member,
		Tenant: req.Tenant,
	})
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, reservationResponse(*entry))
}
