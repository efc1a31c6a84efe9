package valet

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/harborview/valetops-backend/amenity"
	"github.com/harborview/valetops-backend/history"
	"github.com/harborview/valetops-backend/luggage"
	"github.com/harborview/valetops-backend/vehicle"
)

// VehicleStore is the persistence surface the coordinator drives. Each
// method writes the smallest field set for its transition; the SQL
// repository satisfies this, and tests substitute an in-memory fake.
type VehicleStore interface {
	Get(ctx context.Context, tag string) (vehicle.Vehicle, error)
	ListActive(ctx context.Context) ([]vehicle.Vehicle, error)
	ListRequested(ctx context.Context) ([]vehicle.Vehicle, error)
	ListScheduled(ctx context.Context) ([]vehicle.Vehicle, error)
	ListDueForPromotion(ctx context.Context, cutoff time.Time) ([]vehicle.Vehicle, error)

	Create(ctx context.Context, v *vehicle.Vehicle) error
	SetParked(ctx context.Context, tag, bay, license, carMake, color string) (vehicle.Vehicle, error)
	SetRequested(ctx context.Context, tag string, requestedAt time.Time) (vehicle.Vehicle, error)
	Promote(ctx context.Context, tag string, requestedAt time.Time) (vehicle.Vehicle, bool, error)
	SetAcknowledged(ctx context.Context, tag string) (vehicle.Vehicle, error)
	SetReady(ctx context.Context, tag string) (vehicle.Vehicle, error)
	SetOut(ctx context.Context, tag string) (vehicle.Vehicle, error)
	CancelRequest(ctx context.Context, tag string, restore vehicle.Status) (vehicle.Vehicle, error)
	SetSchedule(ctx context.Context, tag string, at time.Time) (vehicle.Vehicle, error)
	ClearSchedule(ctx context.Context, tag string) (vehicle.Vehicle, error)
	SetReparked(ctx context.Context, tag, bay, license, carMake, color, guestName, roomNumber string) (vehicle.Vehicle, error)
}

// HistoryStore moves vehicles in and out of the archive.
type HistoryStore interface {
	Archive(ctx context.Context, tag string) (history.Entry, error)
	Reinstate(ctx context.Context, id uuid.UUID) (vehicle.Vehicle, error)
	Get(ctx context.Context, id uuid.UUID) (history.Entry, error)
	List(ctx context.Context) ([]history.Entry, error)
}

// LuggageStore and AmenityStore cover the peripheral item collections.
type LuggageStore interface {
	Create(ctx context.Context, item *luggage.Item) error
	Get(ctx context.Context, id uuid.UUID) (luggage.Item, error)
	List(ctx context.Context) ([]luggage.Item, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) (luggage.Item, error)
	MarkNotified(ctx context.Context, id uuid.UUID) error
	SweepDelivered(ctx context.Context, before time.Time) (int64, error)
}

type AmenityStore interface {
	Create(ctx context.Context, item *amenity.Item) error
	List(ctx context.Context) ([]amenity.Item, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) (amenity.Item, error)
	SweepDelivered(ctx context.Context, before time.Time) (int64, error)
}
