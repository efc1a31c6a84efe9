package valet

import (
	"testing"

	"github.com/harborview/valetops-backend/vehicle"
)

func queued(tag string, ack bool) vehicle.Vehicle {
	return vehicle.Vehicle{Tag: tag, Status: vehicle.StatusRequested, Requested: true, Ack: ack}
}

func TestSessionUnseen(t *testing.T) {
	s := NewSession()

	snap := []vehicle.Vehicle{
		queued("V1", false),
		queued("V2", false),
		{Tag: "V3", Status: vehicle.StatusParked},
	}
	if got := s.Unseen(snap); got != 2 {
		t.Fatalf("Unseen = %d, want 2", got)
	}

	s.MarkSeen(snap)
	if got := s.Unseen(snap); got != 0 {
		t.Fatalf("Unseen after MarkSeen = %d, want 0", got)
	}

	snap = append(snap, queued("V4", false))
	if got := s.Unseen(snap); got != 1 {
		t.Fatalf("Unseen with new request = %d, want 1", got)
	}
}

func TestSessionIgnoresAcknowledged(t *testing.T) {
	s := NewSession()
	snap := []vehicle.Vehicle{queued("V1", true), queued("V2", false)}
	if got := s.Unseen(snap); got != 1 {
		t.Fatalf("Unseen = %d, want 1", got)
	}
}

func TestSessionForgetsDequeuedTags(t *testing.T) {
	s := NewSession()

	snap := []vehicle.Vehicle{queued("V1", false)}
	s.MarkSeen(snap)
	if got := s.Unseen(snap); got != 0 {
		t.Fatalf("Unseen = %d, want 0", got)
	}

	// request cancelled, then requested again later
	if got := s.Unseen([]vehicle.Vehicle{{Tag: "V1", Status: vehicle.StatusParked}}); got != 0 {
		t.Fatalf("Unseen after dequeue = %d, want 0", got)
	}
	if got := s.Unseen(snap); got != 1 {
		t.Fatalf("re-request should count as new, got %d", got)
	}
}
