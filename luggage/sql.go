package luggage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("luggage item not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, item *Item) error {
	return r.db.GetContext(ctx, item, createQuery,
		uuid.New(), item.GuestName, item.RoomNumber, item.Phone, item.Count)
}

const createQuery = `
INSERT INTO luggage (id, guest_name, room_number, phone, count, status, created_at)
VALUES ($1, $2, $3, $4, $5, 'stored', now())
RETURNING *
`

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Item, error) {
	var item Item
	err := r.db.GetContext(ctx, &item, getQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return item, err
}

const getQuery = `SELECT * FROM luggage WHERE id = $1`

func (r *Repository) List(ctx context.Context) ([]Item, error) {
	var items []Item
	err := r.db.SelectContext(ctx, &items, listQuery)
	return items, err
}

const listQuery = `SELECT * FROM luggage ORDER BY created_at ASC`

// MarkDelivered flips the item to delivered. Safe to repeat; the first
// delivery time wins.
func (r *Repository) MarkDelivered(ctx context.Context, id uuid.UUID) (Item, error) {
	var item Item
	err := r.db.GetContext(ctx, &item, markDeliveredQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return item, err
}

const markDeliveredQuery = `
UPDATE luggage
SET status = 'delivered', delivered_at = COALESCE(delivered_at, now())
WHERE id = $1
RETURNING *
`

// MarkNotified records that the room-ready message was attempted.
func (r *Repository) MarkNotified(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, markNotifiedQuery, id)
	return err
}

const markNotifiedQuery = `UPDATE luggage SET notified = true WHERE id = $1`

// SweepDelivered hard-deletes delivered items from before the given day
// boundary. Luggage keeps no history; this retention policy deliberately
// differs from amenities.
func (r *Repository) SweepDelivered(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, sweepDeliveredQuery, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const sweepDeliveredQuery = `
DELETE FROM luggage
WHERE status = 'delivered' AND delivered_at < $1
`
