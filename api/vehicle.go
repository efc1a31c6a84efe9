package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harborview/valetops-backend/amenity"
	"github.com/harborview/valetops-backend/history"
	"github.com/harborview/valetops-backend/internal/middleware"
	"github.com/harborview/valetops-backend/luggage"
	"github.com/harborview/valetops-backend/valet"
	"github.com/harborview/valetops-backend/vehicle"
)

type vehicleResponse struct {
	Tag           string         `json:"tag"`
	GuestName     string         `json:"guestName"`
	RoomNumber    string         `json:"roomNumber"`
	Phone         string         `json:"phone,omitempty"`
	Status        vehicle.Status `json:"status"`
	StatusDisplay string         `json:"statusDisplay"`
	Requested     bool           `json:"requested"`
	Ack           bool           `json:"ack"`
	RequestedAt   *time.Time     `json:"requestedAt,omitempty"`
	ScheduledAt   *time.Time     `json:"scheduledAt,omitempty"`
	Bay           string         `json:"bay,omitempty"`
	License       string         `json:"license,omitempty"`
	Make          string         `json:"make,omitempty"`
	Color         string         `json:"color,omitempty"`
	DepartureDate string         `json:"departureDate,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func toVehicleResponse(v vehicle.Vehicle) vehicleResponse {
	resp := vehicleResponse{
		Tag:           v.Tag,
		GuestName:     v.GuestName,
		RoomNumber:    v.RoomNumber,
		Phone:         v.Phone,
		Status:        v.Status,
		StatusDisplay: v.Status.Display(),
		Requested:     v.Requested,
		Ack:           v.Ack,
		Bay:           v.Bay,
		License:       v.License,
		Make:          v.Make,
		Color:         v.Color,
		DepartureDate: v.DepartureDate,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
	if v.RequestedAt.Valid {
		t := v.RequestedAt.Time
		resp.RequestedAt = &t
	}
	if v.ScheduledAt.Valid {
		t := v.ScheduledAt.Time
		resp.ScheduledAt = &t
	}
	return resp
}

func toVehicleResponses(vs []vehicle.Vehicle) []vehicleResponse {
	out := make([]vehicleResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, toVehicleResponse(v))
	}
	return out
}

// renderError maps coordinator errors onto HTTP responses. Validation stays
// a 400 with the offending field; lifecycle conflicts are 409s; everything
// unexpected degrades to a 500 without crashing the request loop.
func (a *API) renderError(c *gin.Context, err error) {
	if ve, ok := valet.AsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "field": ve.Field, "message": ve.Message})
		return
	}
	var te *vehicle.TransitionError
	if errors.As(err, &te) {
		c.JSON(http.StatusConflict, gin.H{"code": "INVALID_TRANSITION", "message": te.Error()})
		return
	}
	switch {
	case errors.Is(err, valet.ErrDepartureConfirmationRequired):
		c.JSON(http.StatusConflict, gin.H{
			"code":    "CONFIRM_DEPARTURE",
			"message": "Guest is due to depart today; confirm whether they are leaving",
		})
	case errors.Is(err, vehicle.ErrNotFound), errors.Is(err, history.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": "Vehicle not found"})
	case errors.Is(err, luggage.ErrNotFound), errors.Is(err, amenity.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": "Item not found"})
	case errors.Is(err, history.ErrTagInUse):
		c.JSON(http.StatusConflict, gin.H{"code": "TAG_IN_USE", "message": "Tag is in use by an active vehicle"})
	default:
		middleware.GetLogger(c).ErrorContext(c, "request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type checkInRequest struct {
	Tag           string `json:"tag" binding:"required"`
	GuestName     string `json:"guestName" binding:"required"`
	RoomNumber    string `json:"roomNumber"`
	Phone         string `json:"phone"`
	DepartureDate string `json:"departureDate"`
}

func (a *API) checkInHandler(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	v, err := a.coord.CheckIn(c.Request.Context(), valet.CheckInInput{
		Tag:           req.Tag,
		GuestName:     req.GuestName,
		RoomNumber:    req.RoomNumber,
		Phone:         req.Phone,
		DepartureDate: req.DepartureDate,
	})
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toVehicleResponse(v))
}

func (a *API) listVehiclesHandler(c *gin.Context) {
	var (
		vs  []vehicle.Vehicle
		err error
	)
	switch c.Query("filter") {
	case "departing-today":
		vs, err = a.coord.DepartingToday(c.Request.Context())
	default:
		vs, err = a.coord.ActiveVehicles(c.Request.Context())
	}
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVehicleResponses(vs))
}

func (a *API) getVehicleHandler(c *gin.Context) {
	v, err := a.coord.Vehicle(c.Request.Context(), c.Param("tag"))
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVehicleResponse(v))
}

type parkRequest struct {
	Bay     string `json:"bay"`
	License string `json:"license"`
	Make    string `json:"make"`
	Color   string `json:"color"`
}

func (a *API) parkHandler(c *gin.Context) {
	var req parkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	v, err := a.coord.Park(c.Request.Context(), c.Param("tag"), valet.ParkInput{
		Bay:     req.Bay,
		License: req.License,
		Make:    req.Make,
		Color:   req.Color,
	})
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVehicleResponse(v))
}

func (a *API) requestHandler(c *gin.Context) {
	v, err := a.coord.Request(c.Request.Context(), c.Param("tag"))
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVehicleResponse(v))
}

func (a *API) acknowledgeHandler(c *gin.Context) {
	v, err := a.coord.Acknowledge(c.Request.Context(), c.Param("tag"))
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVehicleResponse(v))
}

func (a *API) markReadyHandler(c *gin.Context) {
	v, err := a.coord.MarkReady(c.Request.Context(), c.Param("tag"))
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVehicleResponse(v))
}

type handOverRequest struct {
	// DepartureConfirmed answers the "has the guest truly departed" prompt.
	// Absent means the caller has not been asked yet.
	DepartureConfirmed *bool `json:"departureConfirmed"`
}

type handOverResponse struct {
	Vehicle  vehicleResponse `json:"vehicle"`
	Archived bool            `json:"archived"`
	// HistoryID is the undo handle when the vehicle was archived.
	HistoryID string `json:"historyId,omitempty"`
}

func (a *API) handOverHandler(c *gin.Context) {
	var req handOverRequest
	// the body is optional; hand-over without a decision is the common case
	_ = c.ShouldBindJSON(&req)

	decision := valet.DepartureUndecided
	if req.DepartureConfirmed != nil {
		if *req.DepartureConfirmed {
			decision = valet.DepartureConfirmed
		} else {
			decision = valet.DepartureDeclined
		}
	}

	res, err := a.coord.HandOver(c.Request.Context(), c.Param("tag"), decision)
	if err != nil {
		a.renderError(c, err)
		return
	}

	resp := handOverResponse{Vehicle: toVehicleResponse(res.Vehicle)}
	if res.Archived != nil {
		resp.Archived = true
		resp.HistoryID = res.Archived.ID.String()
	}
	c.JSON(http.StatusOK, resp)
}

func (a *API) cancelRequestHandler(c *gin.Context) {
	v, err := a.coord.CancelRequest(c.Request.Context(), c.Param("tag"))
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVehicleResponse(v))
}

type reparkRequest struct {
	Bay        string `json:"bay"`
	License    string `json:"license"`
	Make       string `json:"make"`
	Color      string `json:"color"`
	GuestName  string `json:"guestName"`
	RoomNumber string `json:"roomNumber"`
}

func (a *API) reparkHandler(c *gin.Context) {
	var req reparkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	v, err := a.coord.Repark(c.Request.Context(), c.Param("tag"), valet.ReparkInput{
		Bay:        req.Bay,
		License:    req.License,
		Make:       req.Make,
		Color:      req.Color,
		GuestName:  req.GuestName,
		RoomNumber: req.RoomNumber,
	})
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVehicleResponse(v))
}

type scheduleRequest struct {
	ScheduledAt string `json:"scheduledAt" binding:"required"`
}

func (a *API) scheduleHandler(c *gin.Context) {
	a.schedule(c, c.Param("tag"))
}

func (a *API) schedule(c *gin.Context, tag string) {
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

	v, err := a.coord.Schedule(c.Request.Context(), tag, at)
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVehicleResponse(v))
}

func (a *API) cancelScheduleHandler(c *gin.Context) {
	v, err := a.coord.CancelSchedule(c.Request.Context(), c.Param("tag"))
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVehicleResponse(v))
}

func (a *API) requestQueueHandler(c *gin.Context) {
	vs, err := a.coord.RequestQueue(c.Request.Context())
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVehicleResponses(vs))
}

func (a *API) scheduledHandler(c *gin.Context) {
	vs, err := a.coord.ScheduledPickups(c.Request.Context())
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVehicleResponses(vs))
}
