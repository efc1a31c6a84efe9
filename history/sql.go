package history

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/harborview/valetops-backend/vehicle"
)

var (
	ErrNotFound = errors.New("history entry not found")
	ErrTagInUse = errors.New("tag already in use by an active vehicle")
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Archive moves an active vehicle into the history store in one transaction:
// the snapshot is copied under a fresh key with archived_at stamped, then the
// active row is removed. A vehicle that has already been archived by another
// staff member surfaces as ErrNotFound.
func (r *Repository) Archive(ctx context.Context, tag string) (Entry, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Entry{}, err
	}
	defer tx.Rollback()

	var v vehicle.Vehicle
	err = tx.GetContext(ctx, &v, selectForArchiveQuery, tag)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}

	var e Entry
	err = tx.GetContext(ctx, &e, insertEntryQuery,
		uuid.New(), v.Tag, v.GuestName, v.RoomNumber, v.Phone,
		v.Bay, v.License, v.Make, v.Color, v.DepartureDate, v.CreatedAt)
	if err != nil {
		return Entry{}, err
	}

	if _, err := tx.ExecContext(ctx, deleteVehicleQuery, tag); err != nil {
		return Entry{}, err
	}

	return e, tx.Commit()
}

const selectForArchiveQuery = `SELECT * FROM vehicles WHERE tag = $1 FOR UPDATE`

const insertEntryQuery = `
INSERT INTO vehicle_history (id, tag, guest_name, room_number, phone, status,
                             bay, license, make, color, departure_date,
                             created_at, archived_at)
VALUES ($1, $2, $3, $4, $5, 'departed', $6, $7, $8, $9, $10, $11, now())
RETURNING *
`

const deleteVehicleQuery = `DELETE FROM vehicles WHERE tag = $1`

// Reinstate writes an archived vehicle back into the active set as parked,
// with no request and no schedule, and removes the history entry.
func (r *Repository) Reinstate(ctx context.Context, id uuid.UUID) (vehicle.Vehicle, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return vehicle.Vehicle{}, err
	}
	defer tx.Rollback()

	var e Entry
	err = tx.GetContext(ctx, &e, selectEntryForUpdateQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return vehicle.Vehicle{}, ErrNotFound
	}
	if err != nil {
		return vehicle.Vehicle{}, err
	}

	var v vehicle.Vehicle
	err = tx.GetContext(ctx, &v, reinstateVehicleQuery,
		e.Tag, e.GuestName, e.RoomNumber, e.Phone,
		e.Bay, e.License, e.Make, e.Color, e.DepartureDate, e.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return vehicle.Vehicle{}, ErrTagInUse
	}
	if err != nil {
		return vehicle.Vehicle{}, err
	}

	if _, err := tx.ExecContext(ctx, deleteEntryQuery, id); err != nil {
		return vehicle.Vehicle{}, err
	}

	return v, tx.Commit()
}

const selectEntryForUpdateQuery = `SELECT * FROM vehicle_history WHERE id = $1 FOR UPDATE`

const reinstateVehicleQuery = `
INSERT INTO vehicles (tag, guest_name, room_number, phone, status, requested,
                      ack, bay, license, make, color, departure_date,
                      created_at, updated_at)
VALUES ($1, $2, $3, $4, 'parked', false, false, $5, $6, $7, $8, $9, $10, now())
RETURNING *
`

const deleteEntryQuery = `DELETE FROM vehicle_history WHERE id = $1`

// Get fetches a single history entry.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	var e Entry
	err := r.db.GetContext(ctx, &e, getEntryQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

const getEntryQuery = `SELECT * FROM vehicle_history WHERE id = $1`

// List fetches history entries, most recently archived first.
func (r *Repository) List(ctx context.Context) ([]Entry, error) {
	var es []Entry
	err := r.db.SelectContext(ctx, &es, listEntriesQuery)
	return es, err
}

const listEntriesQuery = `SELECT * FROM vehicle_history ORDER BY archived_at DESC`
