// Package history holds archived vehicle records. A vehicle moves here when
// staff confirm the guest has departed; the entry keeps its own key because
// tags are reused for later stays.
package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/harborview/valetops-backend/vehicle"
)

// Entry is a vehicle record retained after departure.
type Entry struct {
	ID         uuid.UUID      `db:"id"`
	Tag        string         `db:"tag"`
	GuestName  string         `db:"guest_name"`
	RoomNumber string         `db:"room_number"`
	Phone      string         `db:"phone"`
	Status     vehicle.Status `db:"status"`
	Bay        string         `db:"bay"`
	License    string         `db:"license"`
	Make       string         `db:"make"`
	Color      string         `db:"color"`

	DepartureDate string `db:"departure_date"`

	CreatedAt  time.Time `db:"created_at"`
	ArchivedAt time.Time `db:"archived_at"`
}

// ParkedNights is the number of nights the vehicle spent with the valet,
// used for the departure invoice. A same-day stay bills as one night.
func (e Entry) ParkedNights() int {
	nights := int(e.ArchivedAt.Sub(e.CreatedAt).Hours() / 24)
	if nights < 1 {
		nights = 1
	}
	return nights
}
