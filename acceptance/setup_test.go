package acceptance

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/harborview/valetops-backend/amenity"
	"github.com/harborview/valetops-backend/api"
	"github.com/harborview/valetops-backend/history"
	"github.com/harborview/valetops-backend/internal/clock"
	"github.com/harborview/valetops-backend/internal/notify"
	"github.com/harborview/valetops-backend/internal/o11y"
	"github.com/harborview/valetops-backend/luggage"
	"github.com/harborview/valetops-backend/valet"
	"github.com/harborview/valetops-backend/vehicle"
)

type TestServer struct {
	DB     *sqlx.DB
	Router *gin.Engine
	Clock  *clock.Fake
	Sender *notify.FakeSender
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	gin.SetMode(gin.TestMode)

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set; skipping acceptance tests")
	}

	db, err := sqlx.Connect("pgx", dbURL)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	cleanupTestData(t, db)

	clk := clock.NewFake(time.Now())
	sender := notify.NewFakeSender()

	coord := valet.New(valet.Config{
		Vehicles:  vehicle.NewRepository(db),
		History:   history.NewRepository(db),
		Luggage:   luggage.NewRepository(db),
		Amenities: amenity.NewRepository(db),

		Notifier: sender,

		Logger:             slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:              clk,
		DefaultCountryCode: "1",
	})

	// staff routes are open when no auth domain is configured
	a, err := api.New(api.Config{
		Coordinator: coord,
		Obs: &o11y.Observability{
			Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
			Registry: prometheus.NewRegistry(),
		},
	})
	if err != nil {
		t.Fatalf("failed to build api: %v", err)
	}

	return &TestServer{
		DB:     db,
		Router: a.Router(),
		Clock:  clk,
		Sender: sender,
	}
}

func (ts *TestServer) Close() {
	ts.DB.Close()
}

func cleanupTestData(t *testing.T, db *sqlx.DB) {
	t.Helper()

	for _, table := range []string{"vehicles", "vehicle_history", "luggage", "amenities", "amenity_history"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Logf("warning: failed to clean %s: %v", table, err)
		}
	}
}

// Helper methods for making requests
func (ts *TestServer) GET(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

func (ts *TestServer) POST(path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

func (ts *TestServer) DELETE(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodDelete, path, nil)
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

// CheckIn creates a vehicle through the API and fails the test on any error.
func (ts *TestServer) CheckIn(t *testing.T, tag string, extra map[string]interface{}) {
	t.Helper()

	body := map[string]interface{}{
		"tag":       tag,
		"guestName": "Test Guest",
	}
	for k, v := range extra {
		body[k] = v
	}

	w := ts.POST("/vehicles", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("failed to check in %s: %d: %s", tag, w.Code, w.Body.String())
	}
}

func (ts *TestServer) Park(t *testing.T, tag string) {
	t.Helper()

	w := ts.POST("/vehicles/"+tag+"/park", map[string]interface{}{
		"bay":     "B7",
		"license": "241-D-54321",
		"make":    "Toyota",
		"color":   "silver",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("failed to park %s: %d: %s", tag, w.Code, w.Body.String())
	}
}

// Response shapes shared across the acceptance tests.
type vehicleResponse struct {
	Tag           string     `json:"tag"`
	GuestName     string     `json:"guestName"`
	RoomNumber    string     `json:"roomNumber"`
	Status        string     `json:"status"`
	StatusDisplay string     `json:"statusDisplay"`
	Requested     bool       `json:"requested"`
	Ack           bool       `json:"ack"`
	RequestedAt   *time.Time `json:"requestedAt"`
	ScheduledAt   *time.Time `json:"scheduledAt"`
	Bay           string     `json:"bay"`
	License       string     `json:"license"`
}

type handOverResponse struct {
	Vehicle   vehicleResponse `json:"vehicle"`
	Archived  bool            `json:"archived"`
	HistoryID string          `json:"historyId"`
}

type historyResponse struct {
	ID         string    `json:"id"`
	Tag        string    `json:"tag"`
	GuestName  string    `json:"guestName"`
	ArchivedAt time.Time `json:"archivedAt"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), into); err != nil {
		t.Fatalf("failed to unmarshal response %s: %v", w.Body.String(), err)
	}
}
