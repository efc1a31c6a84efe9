package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/harborview/valetops-backend/amenity"
	"github.com/harborview/valetops-backend/luggage"
	"github.com/harborview/valetops-backend/valet"
)

type luggageResponse struct {
	ID          uuid.UUID      `json:"id"`
	GuestName   string         `json:"guestName"`
	RoomNumber  string         `json:"roomNumber,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	Count       int            `json:"count"`
	Status      luggage.Status `json:"status"`
	Notified    bool           `json:"notified"`
	CreatedAt   time.Time      `json:"createdAt"`
	DeliveredAt *time.Time     `json:"deliveredAt,omitempty"`
}

func toLuggageResponse(item luggage.Item) luggageResponse {
	resp := luggageResponse{
		ID:         item.ID,
		GuestName:  item.GuestName,
		RoomNumber: item.RoomNumber,
		Phone:      item.Phone,
		Count:      item.Count,
		Status:     item.Status,
		Notified:   item.Notified,
		CreatedAt:  item.CreatedAt,
	}
	if item.DeliveredAt.Valid {
		t := item.DeliveredAt.Time
		resp.DeliveredAt = &t
	}
	return resp
}

type amenityResponse struct {
	ID          uuid.UUID      `json:"id"`
	GuestName   string         `json:"guestName,omitempty"`
	RoomNumber  string         `json:"roomNumber"`
	Description string         `json:"description"`
	Status      amenity.Status `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	DeliveredAt *time.Time     `json:"deliveredAt,omitempty"`
}

func toAmenityResponse(item amenity.Item) amenityResponse {
	resp := amenityResponse{
		ID:          item.ID,
		GuestName:   item.GuestName,
		RoomNumber:  item.RoomNumber,
		Description: item.Description,
		Status:      item.Status,
		CreatedAt:   item.CreatedAt,
	}
	if item.DeliveredAt.Valid {
		t := item.DeliveredAt.Time
		resp.DeliveredAt = &t
	}
	return resp
}

type createLuggageRequest struct {
	GuestName  string `json:"guestName" binding:"required"`
	RoomNumber string `json:"roomNumber"`
	Phone      string `json:"phone"`
	Count      int    `json:"count"`
}

func (a *API) createLuggageHandler(c *gin.Context) {
	var req createLuggageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	item, err := a.coord.AddLuggage(c.Request.Context(), valet.LuggageInput{
		GuestName:  req.GuestName,
		RoomNumber: req.RoomNumber,
		Phone:      req.Phone,
		Count:      req.Count,
	})
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toLuggageResponse(item))
}

func (a *API) listLuggageHandler(c *gin.Context) {
	items, err := a.coord.Luggage(c.Request.Context())
	if err != nil {
		a.renderError(c, err)
		return
	}
	responses := make([]luggageResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, toLuggageResponse(item))
	}
	c.JSON(http.StatusOK, responses)
}

func (a *API) deliverLuggageHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid luggage id"})
		return
	}

	item, err := a.coord.DeliverLuggage(c.Request.Context(), id)
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLuggageResponse(item))
}

type createAmenityRequest struct {
	GuestName   string `json:"guestName"`
	RoomNumber  string `json:"roomNumber" binding:"required"`
	Description string `json:"description" binding:"required"`
}

func (a *API) createAmenityHandler(c *gin.Context) {
	var req createAmenityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	item, err := a.coord.AddAmenity(c.Request.Context(), valet.AmenityInput{
		GuestName:   req.GuestName,
		RoomNumber:  req.RoomNumber,
		Description: req.Description,
	})
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAmenityResponse(item))
}

func (a *API) listAmenitiesHandler(c *gin.Context) {
	items, err := a.coord.Amenities(c.Request.Context())
	if err != nil {
		a.renderError(c, err)
		return
	}
	responses := make([]amenityResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, toAmenityResponse(item))
	}
	c.JSON(http.StatusOK, responses)
}

func (a *API) deliverAmenityHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid amenity id"})
		return
	}

	item, err := a.coord.DeliverAmenity(c.Request.Context(), id)
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAmenityResponse(item))
}
