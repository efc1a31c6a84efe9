package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/harborview/valetops-backend/internal/middleware"
	"github.com/harborview/valetops-backend/internal/store"
	"github.com/harborview/valetops-backend/valet"
	"github.com/harborview/valetops-backend/vehicle"
)

// vehicleEvent is one SSE payload: the full active set plus this client's
// unseen-request badge count. The count is derived per connection and resets
// to server truth on reconnect.
type vehicleEvent struct {
	Vehicles []vehicleResponse `json:"vehicles"`
	Unseen   int               `json:"unseen"`
}

// vehicleEventsHandler streams live snapshots of the active vehicle set.
// Subscribers get the current list immediately, then a fresh snapshot after
// every write. The ?seen=1 query acknowledges the current queue, zeroing the
// badge for this session.
func (a *API) vehicleEventsHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	snapshots, cancel := a.coord.Hub().Subscribe(store.CollectionVehicles)
	defer cancel()

	session := valet.NewSession()
	markSeen := c.Query("seen") == "1"

	initial, err := a.coord.ActiveVehicles(c.Request.Context())
	if err != nil {
		a.renderError(c, err)
		return
	}
	if markSeen {
		session.MarkSeen(initial)
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	send := func(vs []vehicle.Vehicle) bool {
		payload, err := json.Marshal(vehicleEvent{
			Vehicles: toVehicleResponses(vs),
			Unseen:   session.Unseen(vs),
		})
		if err != nil {
			logger.Error("failed to marshal vehicle event", "error", err)
			return false
		}
		if _, err := io.WriteString(c.Writer, "event: vehicles\ndata: "+string(payload)+"\n\n"); err != nil {
			return false
		}
		c.Writer.Flush()
		return true
	}

	if !send(initial) {
		return
	}

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			vs, ok := snap.([]vehicle.Vehicle)
			if !ok {
				continue
			}
			if !send(vs) {
				return
			}
		}
	}
}
