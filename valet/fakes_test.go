package valet

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harborview/valetops-backend/amenity"
	"github.com/harborview/valetops-backend/history"
	"github.com/harborview/valetops-backend/luggage"
	"github.com/harborview/valetops-backend/vehicle"
)

// fakeVehicleStore mirrors the SQL repository's semantics in memory,
// including the conditional promotion update.
type fakeVehicleStore struct {
	mu       sync.Mutex
	vehicles map[string]vehicle.Vehicle
	now      func() time.Time
}

func newFakeVehicleStore(now func() time.Time) *fakeVehicleStore {
	return &fakeVehicleStore{
		vehicles: make(map[string]vehicle.Vehicle),
		now:      now,
	}
}

func (f *fakeVehicleStore) Get(_ context.Context, tag string) (vehicle.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[tag]
	if !ok {
		return vehicle.Vehicle{}, vehicle.ErrNotFound
	}
	return v, nil
}

func (f *fakeVehicleStore) ListActive(_ context.Context) ([]vehicle.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]vehicle.Vehicle, 0, len(f.vehicles))
	for _, v := range f.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeVehicleStore) ListRequested(ctx context.Context) ([]vehicle.Vehicle, error) {
	all, _ := f.ListActive(ctx)
	out := all[:0:0]
	for _, v := range all {
		if v.Requested {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Time.Before(out[j].RequestedAt.Time) })
	return out, nil
}

func (f *fakeVehicleStore) ListScheduled(ctx context.Context) ([]vehicle.Vehicle, error) {
	all, _ := f.ListActive(ctx)
	out := all[:0:0]
	for _, v := range all {
		if v.ScheduledAt.Valid {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Time.Before(out[j].ScheduledAt.Time) })
	return out, nil
}

func (f *fakeVehicleStore) ListDueForPromotion(ctx context.Context, cutoff time.Time) ([]vehicle.Vehicle, error) {
	all, _ := f.ListScheduled(ctx)
	out := all[:0:0]
	for _, v := range all {
		if !v.Requested && !v.ScheduledAt.Time.After(cutoff) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeVehicleStore) Create(_ context.Context, v *vehicle.Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vehicles[v.Tag]; ok {
		return vehicle.ErrTagInUse
	}
	v.Status = vehicle.StatusReceived
	v.CreatedAt = f.now()
	v.UpdatedAt = v.CreatedAt
	f.vehicles[v.Tag] = *v
	return nil
}

func (f *fakeVehicleStore) update(tag string, fn func(*vehicle.Vehicle) bool) (vehicle.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[tag]
	if !ok {
		return vehicle.Vehicle{}, vehicle.ErrNotFound
	}
	if !fn(&v) {
		return vehicle.Vehicle{}, vehicle.ErrNotFound
	}
	v.UpdatedAt = f.now()
	f.vehicles[tag] = v
	return v, nil
}

func (f *fakeVehicleStore) SetParked(_ context.Context, tag, bay, license, carMake, color string) (vehicle.Vehicle, error) {
	return f.update(tag, func(v *vehicle.Vehicle) bool {
		v.Status = vehicle.StatusParked
		v.Bay, v.License, v.Make, v.Color = bay, license, carMake, color
		v.Requested, v.Ack = false, false
		v.RequestedAt, v.PrevStatus = sql.NullTime{}, sql.NullString{}
		return true
	})
}

func (f *fakeVehicleStore) SetRequested(_ context.Context, tag string, requestedAt time.Time) (vehicle.Vehicle, error) {
	return f.update(tag, func(v *vehicle.Vehicle) bool {
		if v.Status == vehicle.StatusOut || v.Status == vehicle.StatusDeparted {
			return false
		}
		v.Status = vehicle.StatusRequested
		v.Requested, v.Ack = true, false
		v.RequestedAt = sql.NullTime{Time: requestedAt, Valid: true}
		v.ScheduledAt = sql.NullTime{}
		v.PrevStatus = sql.NullString{}
		return true
	})
}

func (f *fakeVehicleStore) Promote(_ context.Context, tag string, requestedAt time.Time) (vehicle.Vehicle, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[tag]
	if !ok || !v.ScheduledAt.Valid || v.Requested {
		return vehicle.Vehicle{}, false, nil
	}
	v.PrevStatus = sql.NullString{String: string(v.Status), Valid: true}
	v.Status = vehicle.StatusRequested
	v.Requested, v.Ack = true, false
	v.RequestedAt = sql.NullTime{Time: requestedAt, Valid: true}
	v.ScheduledAt = sql.NullTime{}
	v.UpdatedAt = f.now()
	f.vehicles[tag] = v
	return v, true, nil
}

func (f *fakeVehicleStore) SetAcknowledged(_ context.Context, tag string) (vehicle.Vehicle, error) {
	return f.update(tag, func(v *vehicle.Vehicle) bool {
		if !v.Requested {
			return false
		}
		v.Ack = true
		v.Status = vehicle.StatusRetrieving
		return true
	})
}

func (f *fakeVehicleStore) SetReady(_ context.Context, tag string) (vehicle.Vehicle, error) {
	return f.update(tag, func(v *vehicle.Vehicle) bool {
		v.Status = vehicle.StatusReady
		v.Bay = ""
		return true
	})
}

func (f *fakeVehicleStore) SetOut(_ context.Context, tag string) (vehicle.Vehicle, error) {
	return f.update(tag, func(v *vehicle.Vehicle) bool {
		v.Status = vehicle.StatusOut
		v.Requested, v.Ack = false, false
		v.RequestedAt, v.ScheduledAt = sql.NullTime{}, sql.NullTime{}
		v.PrevStatus = sql.NullString{}
		v.Bay = ""
		return true
	})
}

func (f *fakeVehicleStore) CancelRequest(_ context.Context, tag string, restore vehicle.Status) (vehicle.Vehicle, error) {
	return f.update(tag, func(v *vehicle.Vehicle) bool {
		v.Status = restore
		v.Requested, v.Ack = false, false
		v.RequestedAt = sql.NullTime{}
		v.PrevStatus = sql.NullString{}
		return true
	})
}

func (f *fakeVehicleStore) SetSchedule(_ context.Context, tag string, at time.Time) (vehicle.Vehicle, error) {
	return f.update(tag, func(v *vehicle.Vehicle) bool {
		v.ScheduledAt = sql.NullTime{Time: at, Valid: true}
		v.Requested, v.Ack = false, false
		v.RequestedAt = sql.NullTime{}
		v.PrevStatus = sql.NullString{}
		return true
	})
}

func (f *fakeVehicleStore) ClearSchedule(_ context.Context, tag string) (vehicle.Vehicle, error) {
	return f.update(tag, func(v *vehicle.Vehicle) bool {
		v.ScheduledAt = sql.NullTime{}
		return true
	})
}

func (f *fakeVehicleStore) SetReparked(_ context.Context, tag, bay, license, carMake, color, guestName, roomNumber string) (vehicle.Vehicle, error) {
	return f.update(tag, func(v *vehicle.Vehicle) bool {
		v.Status = vehicle.StatusParked
		v.Bay, v.License, v.Make, v.Color = bay, license, carMake, color
		if guestName != "" {
			v.GuestName = guestName
		}
		if roomNumber != "" {
			v.RoomNumber = roomNumber
		}
		v.Requested, v.Ack = false, false
		v.RequestedAt, v.PrevStatus = sql.NullTime{}, sql.NullString{}
		return true
	})
}

// fakeHistoryStore archives out of a fakeVehicleStore.
type fakeHistoryStore struct {
	mu       sync.Mutex
	vehicles *fakeVehicleStore
	entries  map[uuid.UUID]history.Entry
	now      func() time.Time
}

func newFakeHistoryStore(vs *fakeVehicleStore, now func() time.Time) *fakeHistoryStore {
	return &fakeHistoryStore{
		vehicles: vs,
		entries:  make(map[uuid.UUID]history.Entry),
		now:      now,
	}
}

func (f *fakeHistoryStore) Archive(_ context.Context, tag string) (history.Entry, error) {
	f.vehicles.mu.Lock()
	v, ok := f.vehicles.vehicles[tag]
	if !ok {
		f.vehicles.mu.Unlock()
		return history.Entry{}, history.ErrNotFound
	}
	delete(f.vehicles.vehicles, tag)
	f.vehicles.mu.Unlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	e := history.Entry{
		ID:            uuid.New(),
		Tag:           v.Tag,
		GuestName:     v.GuestName,
		RoomNumber:    v.RoomNumber,
		Phone:         v.Phone,
		Status:        vehicle.StatusDeparted,
		Bay:           v.Bay,
		License:       v.License,
		Make:          v.Make,
		Color:         v.Color,
		DepartureDate: v.DepartureDate,
		CreatedAt:     v.CreatedAt,
		ArchivedAt:    f.now(),
	}
	f.entries[e.ID] = e
	return e, nil
}

func (f *fakeHistoryStore) Reinstate(_ context.Context, id uuid.UUID) (vehicle.Vehicle, error) {
	f.mu.Lock()
	e, ok := f.entries[id]
	if !ok {
		f.mu.Unlock()
		return vehicle.Vehicle{}, history.ErrNotFound
	}
	delete(f.entries, id)
	f.mu.Unlock()

	f.vehicles.mu.Lock()
	defer f.vehicles.mu.Unlock()
	if _, ok := f.vehicles.vehicles[e.Tag]; ok {
		return vehicle.Vehicle{}, history.ErrTagInUse
	}
	v := vehicle.Vehicle{
		Tag:           e.Tag,
		GuestName:     e.GuestName,
		RoomNumber:    e.RoomNumber,
		Phone:         e.Phone,
		Status:        vehicle.StatusParked,
		Bay:           e.Bay,
		License:       e.License,
		Make:          e.Make,
		Color:         e.Color,
		DepartureDate: e.DepartureDate,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     f.now(),
	}
	f.vehicles.vehicles[v.Tag] = v
	return v, nil
}

func (f *fakeHistoryStore) Get(_ context.Context, id uuid.UUID) (history.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok {
		return history.Entry{}, history.ErrNotFound
	}
	return e, nil
}

func (f *fakeHistoryStore) List(_ context.Context) ([]history.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]history.Entry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ArchivedAt.After(out[j].ArchivedAt) })
	return out, nil
}

type fakeLuggageStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]luggage.Item
	now   func() time.Time
}

func newFakeLuggageStore(now func() time.Time) *fakeLuggageStore {
	return &fakeLuggageStore{items: make(map[uuid.UUID]luggage.Item), now: now}
}

func (f *fakeLuggageStore) Create(_ context.Context, item *luggage.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.ID = uuid.New()
	item.Status = luggage.StatusStored
	item.CreatedAt = f.now()
	f.items[item.ID] = *item
	return nil
}

func (f *fakeLuggageStore) Get(_ context.Context, id uuid.UUID) (luggage.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return luggage.Item{}, luggage.ErrNotFound
	}
	return item, nil
}

func (f *fakeLuggageStore) List(_ context.Context) ([]luggage.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]luggage.Item, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeLuggageStore) MarkDelivered(_ context.Context, id uuid.UUID) (luggage.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return luggage.Item{}, luggage.ErrNotFound
	}
	item.Status = luggage.StatusDelivered
	if !item.DeliveredAt.Valid {
		item.DeliveredAt = sql.NullTime{Time: f.now(), Valid: true}
	}
	f.items[id] = item
	return item, nil
}

func (f *fakeLuggageStore) MarkNotified(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return luggage.ErrNotFound
	}
	item.Notified = true
	f.items[id] = item
	return nil
}

func (f *fakeLuggageStore) SweepDelivered(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, item := range f.items {
		if item.Status == luggage.StatusDelivered && item.DeliveredAt.Valid && item.DeliveredAt.Time.Before(before) {
			delete(f.items, id)
			n++
		}
	}
	return n, nil
}

type fakeAmenityStore struct {
	mu       sync.Mutex
	items    map[uuid.UUID]amenity.Item
	archived []amenity.Item
	now      func() time.Time
}

func newFakeAmenityStore(now func() time.Time) *fakeAmenityStore {
	return &fakeAmenityStore{items: make(map[uuid.UUID]amenity.Item), now: now}
}

func (f *fakeAmenityStore) Create(_ context.Context, item *amenity.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.ID = uuid.New()
	item.Status = amenity.StatusOutstanding
	item.CreatedAt = f.now()
	f.items[item.ID] = *item
	return nil
}

func (f *fakeAmenityStore) List(_ context.Context) ([]amenity.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]amenity.Item, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeAmenityStore) MarkDelivered(_ context.Context, id uuid.UUID) (amenity.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return amenity.Item{}, amenity.ErrNotFound
	}
	item.Status = amenity.StatusDelivered
	if !item.DeliveredAt.Valid {
		item.DeliveredAt = sql.NullTime{Time: f.now(), Valid: true}
	}
	f.items[id] = item
	return item, nil
}

func (f *fakeAmenityStore) SweepDelivered(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, item := range f.items {
		if item.Status == amenity.StatusDelivered && item.DeliveredAt.Valid && item.DeliveredAt.Time.Before(before) {
			f.archived = append(f.archived, item)
			delete(f.items, id)
			n++
		}
	}
	return n, nil
}
