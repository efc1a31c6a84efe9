package vehicle

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound = errors.New("vehicle not found")
	ErrTagInUse = errors.New("tag already in use")
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Get fetches a single active vehicle by its tag.
func (r *Repository) Get(ctx context.Context, tag string) (Vehicle, error) {
	var v Vehicle
	err := r.db.GetContext(ctx, &v, getQuery, tag)
	if errors.Is(err, sql.ErrNoRows) {
		return Vehicle{}, ErrNotFound
	}
	return v, err
}

const getQuery = `SELECT * FROM vehicles WHERE tag = $1`

// ListActive fetches every vehicle in the active set, oldest check-in first.
func (r *Repository) ListActive(ctx context.Context) ([]Vehicle, error) {
	var vs []Vehicle
	err := r.db.SelectContext(ctx, &vs, listActiveQuery)
	return vs, err
}

const listActiveQuery = `SELECT * FROM vehicles ORDER BY created_at ASC`

// ListRequested fetches the request queue, earliest request first.
func (r *Repository) ListRequested(ctx context.Context) ([]Vehicle, error) {
	var vs []Vehicle
	err := r.db.SelectContext(ctx, &vs, listRequestedQuery)
	return vs, err
}

const listRequestedQuery = `
SELECT * FROM vehicles
WHERE requested = true
ORDER BY requested_at ASC NULLS LAST
`

// ListScheduled fetches vehicles with a pending scheduled pickup, soonest
// first.
func (r *Repository) ListScheduled(ctx context.Context) ([]Vehicle, error) {
	var vs []Vehicle
	err := r.db.SelectContext(ctx, &vs, listScheduledQuery)
	return vs, err
}

const listScheduledQuery = `
SELECT * FROM vehicles
WHERE scheduled_at IS NOT NULL
ORDER BY scheduled_at ASC
`

// ListDueForPromotion fetches scheduled vehicles whose pickup time falls at
// or before the cutoff and which are not already in the request queue.
func (r *Repository) ListDueForPromotion(ctx context.Context, cutoff time.Time) ([]Vehicle, error) {
	var vs []Vehicle
	err := r.db.SelectContext(ctx, &vs, listDueForPromotionQuery, cutoff)
	return vs, err
}

const listDueForPromotionQuery = `
SELECT * FROM vehicles
WHERE scheduled_at IS NOT NULL
  AND scheduled_at <= $1
  AND requested = false
ORDER BY scheduled_at ASC
`

// Create inserts a new vehicle in the received state.
func (r *Repository) Create(ctx context.Context, v *Vehicle) error {
	err := r.db.GetContext(ctx, v, createQuery,
		v.Tag, v.GuestName, v.RoomNumber, v.Phone, v.DepartureDate)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrTagInUse
	}
	return err
}

const createQuery = `
INSERT INTO vehicles (tag, guest_name, room_number, phone, status, departure_date, created_at, updated_at)
VALUES ($1, $2, $3, $4, 'received', $5, now(), now())
RETURNING *
`

// SetParked parks the vehicle and records where it is. Any stale request
// left over from a previous retrieval is cleared.
func (r *Repository) SetParked(ctx context.Context, tag, bay, license, carMake, color string) (Vehicle, error) {
	return r.one(ctx, setParkedQuery, tag, bay, license, carMake, color)
}

const setParkedQuery = `
UPDATE vehicles
SET status = 'parked', bay = $2, license = $3, make = $4, color = $5,
    requested = false, ack = false, requested_at = NULL, prev_status = NULL,
    updated_at = now()
WHERE tag = $1
RETURNING *
`

// SetRequested puts the vehicle into the request queue interactively. A
// pending schedule is replaced by the request; prev_status stays empty so a
// cancellation falls back to parked.
func (r *Repository) SetRequested(ctx context.Context, tag string, requestedAt time.Time) (Vehicle, error) {
	return r.one(ctx, setRequestedQuery, tag, requestedAt)
}

const setRequestedQuery = `
UPDATE vehicles
SET status = 'requested', requested = true, ack = false, requested_at = $2,
    scheduled_at = NULL, prev_status = NULL, updated_at = now()
WHERE tag = $1 AND status NOT IN ('out', 'departed')
RETURNING *
`

// Promote moves a scheduled vehicle into the request queue, remembering the
// status it is leaving behind. The WHERE clause makes the promotion fire at
// most once per schedule: once requested is set or the schedule is cleared
// the row no longer matches, so repeated poll ticks are no-ops.
func (r *Repository) Promote(ctx context.Context, tag string, requestedAt time.Time) (Vehicle, bool, error) {
	var v Vehicle
	err := r.db.GetContext(ctx, &v, promoteQuery, tag, requestedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Vehicle{}, false, nil
	}
	if err != nil {
		return Vehicle{}, false, err
	}
	return v, true, nil
}

const promoteQuery = `
UPDATE vehicles
SET prev_status = status, status = 'requested', requested = true, ack = false,
    requested_at = $2, scheduled_at = NULL, updated_at = now()
WHERE tag = $1 AND scheduled_at IS NOT NULL AND requested = false
RETURNING *
`

// SetAcknowledged marks the request as being worked. Re-acknowledging an
// already-acked request lands on the same row state.
func (r *Repository) SetAcknowledged(ctx context.Context, tag string) (Vehicle, error) {
	return r.one(ctx, setAcknowledgedQuery, tag)
}

const setAcknowledgedQuery = `
UPDATE vehicles
SET ack = true, status = 'retrieving', updated_at = now()
WHERE tag = $1 AND requested = true
RETURNING *
`

// SetReady marks the vehicle ready at the door and frees its bay.
func (r *Repository) SetReady(ctx context.Context, tag string) (Vehicle, error) {
	return r.one(ctx, setReadyQuery, tag)
}

const setReadyQuery = `
UPDATE vehicles
SET status = 'ready', bay = '', updated_at = now()
WHERE tag = $1
RETURNING *
`

// SetOut hands the vehicle to the guest and clears all retrieval state.
func (r *Repository) SetOut(ctx context.Context, tag string) (Vehicle, error) {
	return r.one(ctx, setOutQuery, tag)
}

const setOutQuery = `
UPDATE vehicles
SET status = 'out', requested = false, ack = false, requested_at = NULL,
    scheduled_at = NULL, prev_status = NULL, bay = '', updated_at = now()
WHERE tag = $1
RETURNING *
`

// CancelRequest drops the vehicle from the request queue and restores the
// given status. The caller decides what to restore (the stored prev_status,
// or parked for a never-scheduled request).
func (r *Repository) CancelRequest(ctx context.Context, tag string, restore Status) (Vehicle, error) {
	return r.one(ctx, cancelRequestQuery, tag, restore)
}

const cancelRequestQuery = `
UPDATE vehicles
SET status = $2, requested = false, ack = false, requested_at = NULL,
    prev_status = NULL, updated_at = now()
WHERE tag = $1
RETURNING *
`

// SetSchedule records a future pickup time. Scheduling replaces any active
// request, keeping the request/schedule mutual exclusion intact.
func (r *Repository) SetSchedule(ctx context.Context, tag string, at time.Time) (Vehicle, error) {
	return r.one(ctx, setScheduleQuery, tag, at)
}

const setScheduleQuery = `
UPDATE vehicles
SET scheduled_at = $2, requested = false, ack = false, requested_at = NULL,
    prev_status = NULL, updated_at = now()
WHERE tag = $1
RETURNING *
`

// ClearSchedule drops a pending scheduled pickup.
func (r *Repository) ClearSchedule(ctx context.Context, tag string) (Vehicle, error) {
	return r.one(ctx, clearScheduleQuery, tag)
}

const clearScheduleQuery = `
UPDATE vehicles
SET scheduled_at = NULL, updated_at = now()
WHERE tag = $1
RETURNING *
`

// SetReparked re-parks a vehicle that was out. Guest identity fields may be
// corrected at this step; empty values keep what is already stored.
func (r *Repository) SetReparked(ctx context.Context, tag, bay, license, carMake, color, guestName, roomNumber string) (Vehicle, error) {
	return r.one(ctx, setReparkedQuery, tag, bay, license, carMake, color, guestName, roomNumber)
}

const setReparkedQuery = `
UPDATE vehicles
SET status = 'parked', bay = $2, license = $3, make = $4, color = $5,
    guest_name = COALESCE(NULLIF($6, ''), guest_name),
    room_number = COALESCE(NULLIF($7, ''), room_number),
    requested = false, ack = false, requested_at = NULL, prev_status = NULL,
    updated_at = now()
WHERE tag = $1
RETURNING *
`

func (r *Repository) one(ctx context.Context, query string, args ...any) (Vehicle, error) {
	var v Vehicle
	err := r.db.GetContext(ctx, &v, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return Vehicle{}, ErrNotFound
	}
	return v, err
}
