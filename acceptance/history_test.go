package acceptance

import (
	"net/http"
	"testing"
)

func TestDepartureArchivesAndReinstates(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	today := ts.Clock.Now().Format("2006-01-02")
	ts.CheckIn(t, "V001", map[string]interface{}{"departureDate": today})
	ts.Park(t, "V001")

	// handover without a decision prompts for confirmation
	w := ts.POST("/vehicles/V001/handover", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d: %s", http.StatusConflict, w.Code, w.Body.String())
	}
	var e errorResponse
	decode(t, w, &e)
	if e.Code != "CONFIRM_DEPARTURE" {
		t.Fatalf("expected CONFIRM_DEPARTURE, got %q", e.Code)
	}

	w = ts.POST("/vehicles/V001/handover", map[string]interface{}{"departureConfirmed": true})
	if w.Code != http.StatusOK {
		t.Fatalf("confirmed handover failed: %d: %s", w.Code, w.Body.String())
	}
	var ho handOverResponse
	decode(t, w, &ho)
	if !ho.Archived || ho.HistoryID == "" {
		t.Fatalf("confirmed handover did not archive: %+v", ho)
	}

	if w := ts.GET("/vehicles/V001"); w.Code != http.StatusNotFound {
		t.Errorf("vehicle still active after archival: %d", w.Code)
	}

	var entries []historyResponse
	decode(t, ts.GET("/history"), &entries)
	if len(entries) != 1 || entries[0].Tag != "V001" {
		t.Fatalf("history = %+v", entries)
	}

	// undo
	w = ts.POST("/history/"+ho.HistoryID+"/reinstate", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reinstate failed: %d: %s", w.Code, w.Body.String())
	}
	var v vehicleResponse
	decode(t, w, &v)
	if v.Status != "parked" || v.Requested || v.ScheduledAt != nil {
		t.Errorf("reinstated vehicle = %+v", v)
	}

	decode(t, ts.GET("/history"), &entries)
	if len(entries) != 0 {
		t.Errorf("history still has %d entries after reinstate", len(entries))
	}
}

func TestDeclinedDepartureStaysOut(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	today := ts.Clock.Now().Format("2006-01-02")
	ts.CheckIn(t, "V001", map[string]interface{}{"departureDate": today})
	ts.Park(t, "V001")

	w := ts.POST("/vehicles/V001/handover", map[string]interface{}{"departureConfirmed": false})
	if w.Code != http.StatusOK {
		t.Fatalf("declined handover failed: %d: %s", w.Code, w.Body.String())
	}
	var ho handOverResponse
	decode(t, w, &ho)
	if ho.Archived {
		t.Error("declined departure must not archive")
	}
	if ho.Vehicle.Status != "out" {
		t.Errorf("status = %s, want out", ho.Vehicle.Status)
	}

	if w := ts.GET("/vehicles/V001"); w.Code != http.StatusOK {
		t.Errorf("vehicle disappeared after declined departure: %d", w.Code)
	}
}

func TestReinstateUnknownID(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	w := ts.POST("/history/1f4f2f6c-0000-0000-0000-000000000000/reinstate", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d: %s", http.StatusNotFound, w.Code, w.Body.String())
	}
}
