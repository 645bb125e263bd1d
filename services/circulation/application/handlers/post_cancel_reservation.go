package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/bookcirc/pkg/errhttp"
	"github.com/ghuser/bookcirc/pkg/httpx"
	appsvcs "github.com/ghuser/bookcirc/services/circulation/application/services"
)

// CancelReservationResponse is returned after a cancellation. Cancelling an
// already cancelled or fulfilled reservation is not an error.
type CancelReservationResponse struct {
	OK          bool                `json:"ok" example:"true"`
	Reservation ReservationResponse `json:"reservation"`
} // @name CancelReservationResponse

// PostCancelReservationHandler handles POST /circulation/reservations/{id}/cancel requests.
type PostCancelReservationHandler struct {
	svc *appsvcs.Services
}

// NewPostCancelReservationHandler returns a PostCancelReservationHandler backed by the given services.
func NewPostCancelReservationHandler(svc *appsvcs.Services) *PostCancelReservationHandler {
	return &PostCancelReservationHandler{svc: svc}
}

// Execute withdraws a reservation from its queue.
//
//	@Summary		Cancel a reservation
//	@Description	Withdraws a reservation from its queue. Cancelling a closed reservation returns it unchanged.
//	@Tags			reservations
//	@Produce		json
//	@Security		SessionCookie
//	@Param			id	path		string	true	"Reservation id"	format(uuid)
//	@Success		200	{object}	CancelReservationResponse
//	@Failure		401	{object}	httpx.ErrorBody
//	@Failure		403	{object}	httpx.ErrorBody
//	@Failure		404	{object}	httpx.ErrorBody
//	@Failure		422	{object}	httpx.ErrorBody
//	@Router			/circulation/reservations/{id}/cancel [post]
func (h *PostCancelReservationHandler) Execute(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	res, err := h.svc.Reservations.Cancel(r.Context(), c, id)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, CancelReservationResponse{
		OK:          true,
		Reservation: reservationResponse(appsvcs.QueueEntry{Reservation: res}),
	})
}
