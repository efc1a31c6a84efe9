package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harborview/valetops-backend/vehicle"
)

// guestVehicleResponse is the reduced view the self-service page sees: no
// bay or staff bookkeeping, just where the car stands and any pending
// request or schedule.
type guestVehicleResponse struct {
	Tag           string         `json:"tag"`
	GuestName     string         `json:"guestName"`
	Status        vehicle.Status `json:"status"`
	StatusDisplay string         `json:"statusDisplay"`
	Requested     bool           `json:"requested"`
	ScheduledAt   *time.Time     `json:"scheduledAt,omitempty"`
}

func toGuestVehicleResponse(v vehicle.Vehicle) guestVehicleResponse {
	resp := guestVehicleResponse{
		Tag:           v.Tag,
		GuestName:     v.GuestName,
		Status:        v.Status,
		StatusDisplay: v.Status.Display(),
		Requested:     v.Requested,
	}
	if v.ScheduledAt.Valid {
		t := v.ScheduledAt.Time
		resp.ScheduledAt = &t
	}
	return resp
}

func (a *API) guestVehicleHandler(c *gin.Context) {
	v, err := a.coord.Vehicle(c.Request.Context(), c.Param("tag"))
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGuestVehicleResponse(v))
}

func (a *API) guestRequestHandler(c *gin.Context) {
	v, err := a.coord.Request(c.Request.Context(), c.Param("tag"))
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGuestVehicleResponse(v))
}

// guestScheduleHandler shares the staff scheduling path; the coordinator
// enforces the minimum lead time for both surfaces.
func (a *API) guestScheduleHandler(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	at, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid scheduledAt format"})
		return
	}

	v, err := a.coord.Schedule(c.Request.Context(), c.Param("tag"), at)
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGuestVehicleResponse(v))
}

// guestCancelHandler withdraws whichever the guest has pending: an active
// request, else a scheduled pickup.
func (a *API) guestCancelHandler(c *gin.Context) {
	tag := c.Param("tag")

	cur, err := a.coord.Vehicle(c.Request.Context(), tag)
	if err != nil {
		a.renderError(c, err)
		return
	}

	var v vehicle.Vehicle
	if cur.Requested || cur.Status == vehicle.StatusRequested {
		v, err = a.coord.CancelRequest(c.Request.Context(), tag)
	} else {
		v, err = a.coord.CancelSchedule(c.Request.Context(), tag)
	}
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGuestVehicleResponse(v))
}
