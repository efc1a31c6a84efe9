// Package api exposes the valet operations over HTTP. Staff endpoints sit
// behind JWT auth; guest endpoints are scoped to the vehicle tag carried in
// the guest's personal link.
package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harborview/valetops-backend/internal/middleware"
	"github.com/harborview/valetops-backend/internal/o11y"
	"github.com/harborview/valetops-backend/valet"
)

type API struct {
	r     *gin.Engine
	coord *valet.Coordinator
	obs   *o11y.Observability
}

type Config struct {
	Coordinator *valet.Coordinator
	Obs         *o11y.Observability

	// Auth0Domain and Audience protect the staff surface. When the domain
	// is empty (local development, tests) staff routes are open.
	Auth0Domain string
	Audience    string

	MetricsUsername string
	MetricsPassword string
}

func New(cfg Config) (*API, error) {
	a := &API{
		r:     gin.New(),
		coord: cfg.Coordinator,
		obs:   cfg.Obs,
	}

	a.r.Use(gin.Recovery())
	a.r.Use(middleware.Tracing())
	a.r.Use(middleware.Logging(cfg.Obs.Logger))
	a.r.Use(middleware.Metrics(cfg.Obs.Registry))

	a.r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	a.r.GET("/metrics", basicAuth(cfg.MetricsUsername, cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(cfg.Obs.Registry, promhttp.HandlerOpts{})))

	staff := a.r.Group("/")
	if cfg.Auth0Domain != "" {
		authn, err := middleware.StaffAuth(cfg.Auth0Domain, cfg.Audience)
		if err != nil {
			return nil, err
		}
		staff.Use(authn)
	}
	{
		staff.POST("/vehicles", a.checkInHandler)
		staff.GET("/vehicles", a.listVehiclesHandler)
		staff.GET("/vehicles/:tag", a.getVehicleHandler)
		staff.POST("/vehicles/:tag/park", a.parkHandler)
		staff.POST("/vehicles/:tag/request", a.requestHandler)
		staff.POST("/vehicles/:tag/acknowledge", a.acknowledgeHandler)
		staff.POST("/vehicles/:tag/ready", a.markReadyHandler)
		staff.POST("/vehicles/:tag/handover", a.handOverHandler)
		staff.POST("/vehicles/:tag/cancel-request", a.cancelRequestHandler)
		staff.POST("/vehicles/:tag/repark", a.reparkHandler)
		staff.POST("/vehicles/:tag/schedule", a.scheduleHandler)
		staff.DELETE("/vehicles/:tag/schedule", a.cancelScheduleHandler)

		staff.GET("/queue", a.requestQueueHandler)
		staff.GET("/scheduled", a.scheduledHandler)

		staff.GET("/history", a.historyHandler)
		staff.POST("/history/:id/reinstate", a.reinstateHandler)

		staff.POST("/luggage", a.createLuggageHandler)
		staff.GET("/luggage", a.listLuggageHandler)
		staff.POST("/luggage/:id/delivered", a.deliverLuggageHandler)

		staff.POST("/amenities", a.createAmenityHandler)
		staff.GET("/amenities", a.listAmenitiesHandler)
		staff.POST("/amenities/:id/delivered", a.deliverAmenityHandler)

		staff.GET("/events/vehicles", a.vehicleEventsHandler)
	}

	// guest self-service, scoped to the tag in the guest's link
	guest := a.r.Group("/guest/:tag")
	{
		guest.GET("", a.guestVehicleHandler)
		guest.POST("/request", a.guestRequestHandler)
		guest.POST("/schedule", a.guestScheduleHandler)
		guest.POST("/cancel", a.guestCancelHandler)
	}

	return a, nil
}

func (a *API) Router() *gin.Engine {
	return a.r
}

func basicAuth(username, password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if username == "" {
			c.Next()
			return
		}
		u, p, ok := c.Request.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), []byte(username)) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), []byte(password)) != 1 {
			c.Header("WWW-Authenticate", `Basic realm="metrics"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
