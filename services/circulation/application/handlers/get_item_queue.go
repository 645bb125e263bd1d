package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/bookcirc/pkg/errhttp"
	"github.com/ghuser/bookcirc/pkg/httpx"
	appsvcs "github.com/ghuser/bookcirc/services/circulation/application/services"
)

// QueueResponse lists an item's active reservations, head first.
type QueueResponse struct {
	ItemID uuid.UUID             `json:"item_id" example:"5e9a3c1d-2b4f-4e6a-8c7d-1f0e9b8a7c65"`
	Queue  []ReservationResponse `json:"queue"`
} // @name QueueResponse

// GetItemQueueHandler handles GET /circulation/items/{id}/queue requests.
type GetItemQueueHandler struct {
	svc *appsvcs.Services
}

// NewGetItemQueueHandler returns a GetItemQueueHandler backed by the given services.
func NewGetItemQueueHandler(svc *appsvcs.Services) *GetItemQueueHandler {
	return &GetItemQueueHandler{svc: svc}
}

// Execute returns the reservation queue of one item.
//
//	@Summary		Reservation queue
//	@Description	Lists the active reservations of an item, head of the queue first.
//	@Tags			reservations
//	@Produce		json
//	@Security		SessionCookie
//	@Param			id	path		string	true	"Item id"	format(uuid)
//	@Success		200	{object}	QueueResponse
//	@Failure		401	{object}	httpx.ErrorBody
//	@Failure		403	{object}	httpx.ErrorBody
//	@Failure		404	{object}	httpx.ErrorBody
//	@Failure		422	{object}	httpx.ErrorBody
//	@Router			/circulation/items/{id}/queue [get]
func (h *GetItemQueueHandler) Execute(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	queue, err := h.svc.Reservations.Queue(r.Context(), c, id)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	resp := QueueResponse{ItemID: id, Queue: make([]ReservationResponse, 0, len(queue))}
	for _, e := range queue {
		resp.Queue = append(resp.Queue, reservationResponse(e))
	}
	httpx.JSON(w, http.StatusOK, resp)
}
