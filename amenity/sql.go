package amenity

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("amenity item not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, item *Item) error {
	return r.db.GetContext(ctx, item, createQuery,
		uuid.New(), item.GuestName, item.RoomNumber, item.Description)
}

const createQuery = `
INSERT INTO amenities (id, guest_name, room_number, description, status, created_at)
VALUES ($1, $2, $3, $4, 'outstanding', now())
RETURNING *
`

func (r *Repository) List(ctx context.Context) ([]Item, error) {
	var items []Item
	err := r.db.SelectContext(ctx, &items, listQuery)
	return items, err
}

const listQuery = `SELECT * FROM amenities ORDER BY created_at ASC`

func (r *Repository) MarkDelivered(ctx context.Context, id uuid.UUID) (Item, error) {
	var item Item
	err := r.db.GetContext(ctx, &item, markDeliveredQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return item, err
}

const markDeliveredQuery = `
UPDATE amenities
SET status = 'delivered', delivered_at = COALESCE(delivered_at, now())
WHERE id = $1
RETURNING *
`

// SweepDelivered moves delivered items from before the given day boundary
// into amenity_history.
func (r *Repository) SweepDelivered(ctx context.Context, before time.Time) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, copyToHistoryQuery, before)
	if err != nil {
		return 0, err
	}
	moved, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, deleteSweptQuery, before); err != nil {
		return 0, err
	}

	return moved, tx.Commit()
}

const copyToHistoryQuery = `
INSERT INTO amenity_history (id, guest_name, room_number, description, created_at, delivered_at, archived_at)
SELECT id, guest_name, room_number, description, created_at, delivered_at, now()
FROM amenities
WHERE status = 'delivered' AND delivered_at < $1
`

const deleteSweptQuery = `
DELETE FROM amenities
WHERE status = 'delivered' AND delivered_at < $1
`
