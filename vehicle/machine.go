package vehicle

import "fmt"

// allowed describes the lifecycle graph. A vehicle moves
// received → parked → requested → retrieving → ready → out, with out → parked
// when the car comes back, parked → requested for direct pickups, and
// requested reverting to its prior state on cancellation.
var allowed = map[Status][]Status{
	StatusReceived:   {StatusParked, StatusRequested},
	StatusParked:     {StatusRequested, StatusRetrieving, StatusReady, StatusOut},
	StatusRequested:  {StatusRetrieving, StatusReady, StatusOut, StatusParked, StatusReceived},
	StatusRetrieving: {StatusReady, StatusOut, StatusParked},
	StatusReady:      {StatusOut, StatusParked},
	StatusOut:        {StatusParked, StatusDeparted},
	StatusDeparted:   {},
}

// CanTransition reports whether from → to is a legal lifecycle move.
// Re-applying the current status is always allowed so that repeated staff
// actions stay idempotent.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// handOverFrom lists the states a hand-over may start from.
var handOverFrom = map[Status]struct{}{
	StatusReady:      {},
	StatusParked:     {},
	StatusRequested:  {},
	StatusRetrieving: {},
}

// CanHandOver reports whether the vehicle may be handed to the guest.
func CanHandOver(from Status) bool {
	_, ok := handOverFrom[from]
	return ok
}

// CanMarkReady reports whether the vehicle may be marked ready for pickup.
func CanMarkReady(from Status) bool {
	return from == StatusRetrieving || from == StatusParked || from == StatusRequested
}

// CanRequest reports whether a pickup request may be raised. The only state
// that refuses a request is out: the guest already has the car.
func CanRequest(from Status) bool {
	return from != StatusOut && from != StatusDeparted
}

// TransitionError is returned when an operation is attempted from a state
// that does not permit it.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid vehicle transition: %s -> %s", e.From, e.To)
}
