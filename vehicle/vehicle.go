// Package vehicle holds the valet vehicle record and its lifecycle rules.
package vehicle

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/goccy/go-json"
)

// Status is the lifecycle state of a valet-tracked vehicle.
type Status string

const (
	StatusReceived   Status = "received"
	StatusParked     Status = "parked"
	StatusRequested  Status = "requested"
	StatusRetrieving Status = "retrieving"
	StatusReady      Status = "ready"
	StatusOut        Status = "out"
	StatusDeparted   Status = "departed"
)

var statuses = map[Status]struct{}{
	StatusReceived:   {},
	StatusParked:     {},
	StatusRequested:  {},
	StatusRetrieving: {},
	StatusReady:      {},
	StatusOut:        {},
	StatusDeparted:   {},
}

func (s Status) Valid() bool {
	_, ok := statuses[s]
	return ok
}

// Display is the single place the status-to-label mapping lives.
func (s Status) Display() string {
	if s == StatusOut {
		return "Out & About"
	}
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	st := Status(v)
	if !st.Valid() {
		return fmt.Errorf("unknown vehicle status %q", v)
	}
	*s = st
	return nil
}

func (s *Status) Scan(i any) error {
	switch v := i.(type) {
	case string:
		st := Status(v)
		if st.Valid() {
			*s = st
			return nil
		}
	case []byte:
		st := Status(v)
		if st.Valid() {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("cannot scan %v (%T) as vehicle status", i, i)
}

// Vehicle is one valet-tracked car for one guest stay. Tag is assigned by
// staff at check-in and is the primary key while the vehicle is active.
type Vehicle struct {
	Tag        string `db:"tag"`
	GuestName  string `db:"guest_name"`
	RoomNumber string `db:"room_number"`
	Phone      string `db:"phone"`

	Status      Status         `db:"status"`
	Requested   bool           `db:"requested"`
	Ack         bool           `db:"ack"`
	RequestedAt sql.NullTime   `db:"requested_at"`
	ScheduledAt sql.NullTime   `db:"scheduled_at"`
	PrevStatus  sql.NullString `db:"prev_status"`

	Bay     string `db:"bay"`
	License string `db:"license"`
	Make    string `db:"make"`
	Color   string `db:"color"`

	// DepartureDate is the guest's expected checkout date as YYYY-MM-DD.
	DepartureDate string `db:"departure_date"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// DepartingBy reports whether the guest's departure date is on or before the
// given day. Vehicles without a departure date never match.
func (v Vehicle) DepartingBy(day time.Time) bool {
	if v.DepartureDate == "" {
		return false
	}
	d, err := time.ParseInLocation("2006-01-02", v.DepartureDate, day.Location())
	if err != nil {
		return false
	}
	y, m, dd := day.Date()
	return !d.After(time.Date(y, m, dd, 0, 0, 0, 0, day.Location()))
}

var ErrInvalidPhone = errors.New("phone number cannot be normalized")

// NormalizePhone converts a free-text phone number into the international
// +<countrycode><number> form used for SMS delivery. defaultCC (e.g. "1",
// "353") is prepended to national numbers written with a leading zero.
func NormalizePhone(raw, defaultCC string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) || (r == '+' && b.Len() == 0) {
			b.WriteRune(r)
		}
	}
	n := b.String()

	switch {
	case strings.HasPrefix(n, "+"):
		// already international
	case strings.HasPrefix(n, "00"):
		n = "+" + n[2:]
	case strings.HasPrefix(n, "0") && defaultCC != "":
		n = "+" + defaultCC + n[1:]
	case n != "" && defaultCC != "":
		n = "+" + defaultCC + n
	default:
		return "", ErrInvalidPhone
	}

	if len(n) < 8 {
		return "", ErrInvalidPhone
	}
	return n, nil
}
