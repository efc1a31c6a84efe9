package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/harborview/valetops-backend/history"
)

type historyResponse struct {
	ID            uuid.UUID `json:"id"`
	Tag           string    `json:"tag"`
	GuestName     string    `json:"guestName"`
	RoomNumber    string    `json:"roomNumber"`
	License       string    `json:"license,omitempty"`
	Make          string    `json:"make,omitempty"`
	Color         string    `json:"color,omitempty"`
	DepartureDate string    `json:"departureDate,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	ArchivedAt    time.Time `json:"archivedAt"`
}

func toHistoryResponse(e history.Entry) historyResponse {
	return historyResponse{
		ID:            e.ID,
		Tag:           e.Tag,
		GuestName:     e.GuestName,
		RoomNumber:    e.RoomNumber,
		License:       e.License,
		Make:          e.Make,
		Color:         e.Color,
		DepartureDate: e.DepartureDate,
		CreatedAt:     e.CreatedAt,
		ArchivedAt:    e.ArchivedAt,
	}
}

func (a *API) historyHandler(c *gin.Context) {
	entries, err := a.coord.History(c.Request.Context())
	if err != nil {
		a.renderError(c, err)
		return
	}

	responses := make([]historyResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, toHistoryResponse(e))
	}
	c.JSON(http.StatusOK, responses)
}

func (a *API) reinstateHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid history id"})
		return
	}

	v, err := a.coord.Reinstate(c.Request.Context(), id)
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVehicleResponse(v))
}
