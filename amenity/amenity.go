// Package amenity tracks outstanding amenity deliveries (welcome baskets,
// cots, and the like). Delivered items are retained in a history table,
// unlike luggage which is simply deleted after delivery.
package amenity

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type Status string

const (
	StatusOutstanding Status = "outstanding"
	StatusDelivered   Status = "delivered"
)

func (s Status) Valid() bool {
	return s == StatusOutstanding || s == StatusDelivered
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
	return fmt.Errorf("cannot scan %v (%T) as amenity status", i, i)
}

type Item struct {
	ID          uuid.UUID `db:"id"`
	GuestName   string    `db:"guest_name"`
	RoomNumber  string    `db:"room_number"`
	Description string    `db:"description"`
	Status      Status    `db:"status"`

	CreatedAt   time.Time    `db:"created_at"`
	DeliveredAt sql.NullTime `db:"delivered_at"`
}
