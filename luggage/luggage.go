// Package luggage tracks stored guest luggage. Items are independent of the
// vehicle lifecycle; they share the persistence contract and the guest
// notification trigger.
package luggage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type Status string

const (
	StatusStored    Status = "stored"
	StatusDelivered Status = "delivered"
)

func (s Status) Valid() bool {
	return s == StatusStored || s == StatusDelivered
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
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
	return fmt.Errorf("cannot scan %v (%T) as luggage status", i, i)
}

type Item struct {
	ID         uuid.UUID `db:"id"`
	GuestName  string    `db:"guest_name"`
	RoomNumber string    `db:"room_number"`
	Phone      string    `db:"phone"`
	Count      int       `db:"count"`
	Status     Status    `db:"status"`

	// Notified records that the room-ready message went out; the trigger
	// fires at most once per item.
	Notified bool `db:"notified"`

	CreatedAt   time.Time    `db:"created_at"`
	DeliveredAt sql.NullTime `db:"delivered_at"`
}
