package valet

import (
	"github.com/harborview/valetops-backend/vehicle"
)

// Session tracks which requests one staff client has already seen, driving
// the unseen-request badge and chime. It is derived, per-client state: it is
// never persisted, a reconnect starts from server truth, and it can never
// block a transition.
type Session struct {
	seen map[string]struct{}
}

func NewSession() *Session {
	return &Session{seen: make(map[string]struct{})}
}

// Unseen counts unacknowledged requests in the snapshot this client has not
// seen yet. Vehicles that leave the queue are forgotten so a later request
// for the same tag counts as new again.
func (s *Session) Unseen(snapshot []vehicle.Vehicle) int {
	inQueue := make(map[string]struct{}, len(snapshot))
	n := 0
	for _, v := range snapshot {
		if !v.Requested {
			continue
		}
		inQueue[v.Tag] = struct{}{}
		if v.Ack {
			continue
		}
		if _, ok := s.seen[v.Tag]; !ok {
			n++
		}
	}
	for tag := range s.seen {
		if _, ok := inQueue[tag]; !ok {
			delete(s.seen, tag)
		}
	}
	return n
}

// MarkSeen records every queued request in the snapshot as seen, resetting
// the badge to zero until new requests arrive.
func (s *Session) MarkSeen(snapshot []vehicle.Vehicle) {
	for _, v := range snapshot {
		if v.Requested {
			s.seen[v.Tag] = struct{}{}
		}
	}
}
