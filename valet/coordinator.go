// Package valet coordinates the vehicle lifecycle: guest requests, scheduled
// pickups and their promotion into the live queue, hand-over, and archival.
// All state lives in the stores; the coordinator validates transitions,
// issues the smallest possible write, and fans the resulting snapshot out to
// subscribed clients.
package valet

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/harborview/valetops-backend/amenity"
	"github.com/harborview/valetops-backend/history"
	"github.com/harborview/valetops-backend/internal/billing"
	"github.com/harborview/valetops-backend/internal/clock"
	"github.com/harborview/valetops-backend/internal/notify"
	"github.com/harborview/valetops-backend/internal/store"
	"github.com/harborview/valetops-backend/luggage"
	"github.com/harborview/valetops-backend/vehicle"
)

const (
	// MinScheduleLead is the shortest notice a scheduled pickup may give.
	// Anything closer should be an immediate request instead.
	MinScheduleLead = 10 * time.Minute

	// PromotionLead is how far ahead of the scheduled time a pickup is
	// promoted into the live request queue.
	PromotionLead = 10 * time.Minute
)

type Coordinator struct {
	vehicles  VehicleStore
	hist      HistoryStore
	luggage   LuggageStore
	amenities AmenityStore

	notifier notify.Sender
	invoicer billing.Invoicer
	hub      *store.Hub

	logger *slog.Logger
	clock  clock.Clock
	tracer trace.Tracer

	// defaultCC is prepended when normalizing national phone numbers.
	defaultCC string
}

type Config struct {
	Vehicles  VehicleStore
	History   HistoryStore
	Luggage   LuggageStore
	Amenities AmenityStore

	Notifier notify.Sender
	Invoicer billing.Invoicer // optional
	Hub      *store.Hub

	Logger             *slog.Logger
	Clock              clock.Clock
	DefaultCountryCode string
}

func New(cfg Config) *Coordinator {
	c := &Coordinator{
		vehicles:  cfg.Vehicles,
		hist:      cfg.History,
		luggage:   cfg.Luggage,
		amenities: cfg.Amenities,
		notifier:  cfg.Notifier,
		invoicer:  cfg.Invoicer,
		hub:       cfg.Hub,
		logger:    cfg.Logger,
		clock:     cfg.Clock,
		tracer:    otel.Tracer("valet"),
		defaultCC: cfg.DefaultCountryCode,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.clock == nil {
		c.clock = clock.Real{}
	}
	if c.hub == nil {
		c.hub = store.NewHub()
	}
	return c
}

// Hub exposes the snapshot fan-out for subscription endpoints.
func (c *Coordinator) Hub() *store.Hub {
	return c.hub
}

type CheckInInput struct {
	Tag           string
	GuestName     string
	RoomNumber    string
	Phone         string
	DepartureDate string
}

// CheckIn creates the vehicle record in the received state and triggers the
// welcome message when the guest left a phone number.
func (c *Coordinator) CheckIn(ctx context.Context, in CheckInInput) (vehicle.Vehicle, error) {
	ctx, span := c.tracer.Start(ctx, "CheckIn", trace.WithAttributes(attribute.String("vehicle.tag", in.Tag)))
	defer span.End()

	if in.Tag == "" {
		return vehicle.Vehicle{}, &ValidationError{Field: "tag", Message: "tag is required"}
	}
	if in.GuestName == "" {
		return vehicle.Vehicle{}, &ValidationError{Field: "guestName", Message: "guest name is required"}
	}
	if in.DepartureDate != "" {
		if _, err := time.Parse("2006-01-02", in.DepartureDate); err != nil {
			return vehicle.Vehicle{}, &ValidationError{Field: "departureDate", Message: "departure date must be YYYY-MM-DD"}
		}
	}

	phone := ""
	if in.Phone != "" {
		var err error
		phone, err = vehicle.NormalizePhone(in.Phone, c.defaultCC)
		if err != nil {
			return vehicle.Vehicle{}, &ValidationError{Field: "phone", Message: "phone number cannot be normalized"}
		}
	}

	v := vehicle.Vehicle{
		Tag:           in.Tag,
		GuestName:     in.GuestName,
		RoomNumber:    in.RoomNumber,
		Phone:         phone,
		DepartureDate: in.DepartureDate,
	}
	if err := c.vehicles.Create(ctx, &v); err != nil {
		if errors.Is(err, vehicle.ErrTagInUse) {
			return vehicle.Vehicle{}, &ValidationError{Field: "tag", Message: "tag already in use"}
		}
		return vehicle.Vehicle{}, err
	}

	checkInsTotal.Inc()
	c.notifyGuest(ctx, phone, notify.WelcomeMessage(v.GuestName, v.Tag))
	c.publishVehicles(ctx)
	return v, nil
}

type ParkInput struct {
	Bay     string
	License string
	Make    string
	Color   string
}

// Park records where the vehicle is stored. Bay and license are staff-entered
// and required.
func (c *Coordinator) Park(ctx context.Context, tag string, in ParkInput) (vehicle.Vehicle, error) {
	ctx, span := c.tracer.Start(ctx, "Park", trace.WithAttributes(attribute.String("vehicle.tag", tag)))
	defer span.End()

	if in.Bay == "" {
		return vehicle.Vehicle{}, &ValidationError{Field: "bay", Message: "bay is required"}
	}
	if in.License == "" {
		return vehicle.Vehicle{}, &ValidationError{Field: "license", Message: "license plate is required"}
	}

	v, err := c.vehicles.SetParked(ctx, tag, in.Bay, in.License, in.Make, in.Color)
	if err != nil {
		return vehicle.Vehicle{}, err
	}
	c.publishVehicles(ctx)
	return v, nil
}

// Request puts the vehicle into the live request queue. Guests and staff
// share this path; a pending schedule is replaced by the request.
func (c *Coordinator) Request(ctx context.Context, tag string) (vehicle.Vehicle, error) {
	ctx, span := c.tracer.Start(ctx, "Request", trace.WithAttributes(attribute.String("vehicle.tag", tag)))
	defer span.End()

	cur, err := c.vehicles.Get(ctx, tag)
	if err != nil {
		return vehicle.Vehicle{}, err
	}
	if !vehicle.CanRequest(cur.Status) {
		return vehicle.Vehicle{}, &vehicle.TransitionError{From: cur.Status, To: vehicle.StatusRequested}
	}
	if cur.Requested {
		// already queued; keep the original request time
		return cur, nil
	}

	v, err := c.vehicles.SetRequested(ctx, tag, c.clock.Now())
	if err != nil {
		return vehicle.Vehicle{}, err
	}
	requestsTotal.Inc()
	c.publishVehicles(ctx)
	return v, nil
}

// Acknowledge confirms staff have seen the request and are retrieving the
// car. Re-acknowledging is a no-op.
func (c *Coordinator) Acknowledge(ctx context.Context, tag string) (vehicle.Vehicle, error) {
	ctx, span := c.tracer.Start(ctx, "Acknowledge", trace.WithAttributes(attribute.String("vehicle.tag", tag)))
	defer span.End()

	cur, err := c.vehicles.Get(ctx, tag)
	if err != nil {
		return vehicle.Vehicle{}, err
	}
	if !cur.Requested {
		return vehicle.Vehicle{}, &vehicle.TransitionError{From: cur.Status, To: vehicle.StatusRetrieving}
	}
	if cur.Ack {
		return cur, nil
	}

	v, err := c.vehicles.SetAcknowledged(ctx, tag)
	if err != nil {
		return vehicle.Vehicle{}, err
	}
	c.publishVehicles(ctx)
	return v, nil
}

// MarkReady moves the vehicle to the door and frees its bay.
func (c *Coordinator) MarkReady(ctx context.Context, tag string) (vehicle.Vehicle, error) {
	ctx, span := c.tracer.Start(ctx, "MarkReady", trace.WithAttributes(attribute.String("vehicle.tag", tag)))
	defer span.End()

	cur, err := c.vehicles.Get(ctx, tag)
	if err != nil {
		return vehicle.Vehicle{}, err
	}
	if cur.Status == vehicle.StatusReady {
		return cur, nil
	}
	if !vehicle.CanMarkReady(cur.Status) {
		return vehicle.Vehicle{}, &vehicle.TransitionError{From: cur.Status, To: vehicle.StatusReady}
	}

	v, err := c.vehicles.SetReady(ctx, tag)
	if err != nil {
		return vehicle.Vehicle{}, err
	}
	c.publishVehicles(ctx)
	return v, nil
}

// DepartureDecision is the caller's answer to "has the guest truly
// departed", asked when handing over on or after the departure date.
type DepartureDecision int

const (
	DepartureUndecided DepartureDecision = iota
	DepartureConfirmed
	DepartureDeclined
)

type HandOverResult struct {
	Vehicle  vehicle.Vehicle
	Archived *history.Entry
}

// HandOver gives the car to the guest. When the guest's departure date is
// today or earlier the caller must decide whether the guest is departing;
// confirming archives the vehicle, declining leaves it out and about.
func (c *Coordinator) HandOver(ctx context.Context, tag string, decision DepartureDecision) (HandOverResult, error) {
	ctx, span := c.tracer.Start(ctx, "HandOver", trace.WithAttributes(attribute.String("vehicle.tag", tag)))
	defer span.End()

	cur, err := c.vehicles.Get(ctx, tag)
	if err != nil {
		return HandOverResult{}, err
	}
	if cur.Status == vehicle.StatusOut {
		return HandOverResult{Vehicle: cur}, nil
	}
	if !vehicle.CanHandOver(cur.Status) {
		return HandOverResult{}, &vehicle.TransitionError{From: cur.Status, To: vehicle.StatusOut}
	}

	departing := cur.DepartingBy(c.clock.Now())
	if departing && decision == DepartureUndecided {
		return HandOverResult{}, ErrDepartureConfirmationRequired
	}

	v, err := c.vehicles.SetOut(ctx, tag)
	if err != nil {
		return HandOverResult{}, err
	}

	res := HandOverResult{Vehicle: v}
	if departing && decision == DepartureConfirmed {
		entry, err := c.archive(ctx, tag)
		if err != nil {
			return HandOverResult{}, err
		}
		res.Archived = entry
	}

	c.publishVehicles(ctx)
	return res, nil
}

// archive moves the vehicle to history. A concurrent archival by another
// staff member is benign: the record is already where it should be.
func (c *Coordinator) archive(ctx context.Context, tag string) (*history.Entry, error) {
	entry, err := c.hist.Archive(ctx, tag)
	if errors.Is(err, history.ErrNotFound) {
		c.logger.WarnContext(ctx, "vehicle vanished before archival, likely archived concurrently", "tag", tag)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	archivedTotal.Inc()

	if c.invoicer != nil {
		go func(e history.Entry) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := c.invoicer.InvoiceDeparture(ctx, e); err != nil {
				c.logger.Warn("failed to invoice departure", "tag", e.Tag, "error", err)
			}
		}(entry)
	}

	return &entry, nil
}

// CancelRequest takes the vehicle off the request queue and restores what it
// was doing before. Promotions remember the prior status; a directly
// requested vehicle falls back to parked.
func (c *Coordinator) CancelRequest(ctx context.Context, tag string) (vehicle.Vehicle, error) {
	ctx, span := c.tracer.Start(ctx, "CancelRequest", trace.WithAttributes(attribute.String("vehicle.tag", tag)))
	defer span.End()

	cur, err := c.vehicles.Get(ctx, tag)
	if err != nil {
		return vehicle.Vehicle{}, err
	}
	if !cur.Requested && cur.Status != vehicle.StatusRequested {
		return cur, nil
	}

	restore := cur.Status
	if cur.Status == vehicle.StatusRequested {
		restore = vehicle.StatusParked
		if cur.PrevStatus.Valid {
			if prev := vehicle.Status(cur.PrevStatus.String); prev.Valid() {
				restore = prev
			}
		}
	}

	v, err := c.vehicles.CancelRequest(ctx, tag, restore)
	if err != nil {
		return vehicle.Vehicle{}, err
	}
	c.publishVehicles(ctx)
	return v, nil
}

type ReparkInput struct {
	Bay     string
	License string
	Make    string
	Color   string

	// GuestName and RoomNumber may be corrected at re-park; empty values
	// keep what is stored.
	GuestName  string
	RoomNumber string
}

// Repark returns a vehicle that was out to a bay.
func (c *Coordinator) Repark(ctx context.Context, tag string, in ReparkInput) (vehicle.Vehicle, error) {
	ctx, span := c.tracer.Start(ctx, "Repark", trace.WithAttributes(attribute.String("vehicle.tag", tag)))
	defer span.End()

	if in.Bay == "" {
		return vehicle.Vehicle{}, &ValidationError{Field: "bay", Message: "bay is required"}
	}
	if in.License == "" {
		return vehicle.Vehicle{}, &ValidationError{Field: "license", Message: "license plate is required"}
	}

	cur, err := c.vehicles.Get(ctx, tag)
	if err != nil {
		return vehicle.Vehicle{}, err
	}
	if cur.Status != vehicle.StatusOut {
		return vehicle.Vehicle{}, &vehicle.TransitionError{From: cur.Status, To: vehicle.StatusParked}
	}

	v, err := c.vehicles.SetReparked(ctx, tag, in.Bay, in.License, in.Make, in.Color, in.GuestName, in.RoomNumber)
	if err != nil {
		return vehicle.Vehicle{}, err
	}
	c.publishVehicles(ctx)
	return v, nil
}

// Schedule records a future pickup. The coordinator is the single
// enforcement point for the minimum lead time; guest and staff callers both
// land here.
func (c *Coordinator) Schedule(ctx context.Context, tag string, at time.Time) (vehicle.Vehicle, error) {
	ctx, span := c.tracer.Start(ctx, "Schedule", trace.WithAttributes(attribute.String("vehicle.tag", tag)))
	defer span.End()

	if at.Sub(c.clock.Now()) < MinScheduleLead {
		return vehicle.Vehicle{}, &ValidationError{
			Field:   "scheduledAt",
			Message: "pickups must be scheduled at least 10 minutes ahead",
		}
	}

	cur, err := c.vehicles.Get(ctx, tag)
	if err != nil {
		return vehicle.Vehicle{}, err
	}
	if !vehicle.CanRequest(cur.Status) {
		return vehicle.Vehicle{}, &vehicle.TransitionError{From: cur.Status, To: vehicle.StatusRequested}
	}

	v, err := c.vehicles.SetSchedule(ctx, tag, at)
	if err != nil {
		return vehicle.Vehicle{}, err
	}
	c.publishVehicles(ctx)
	return v, nil
}

// CancelSchedule drops a pending scheduled pickup.
func (c *Coordinator) CancelSchedule(ctx context.Context, tag string) (vehicle.Vehicle, error) {
	ctx, span := c.tracer.Start(ctx, "CancelSchedule", trace.WithAttributes(attribute.String("vehicle.tag", tag)))
	defer span.End()

	v, err := c.vehicles.ClearSchedule(ctx, tag)
	if err != nil {
		return vehicle.Vehicle{}, err
	}
	c.publishVehicles(ctx)
	return v, nil
}

// PromoteDue moves every scheduled pickup within PromotionLead of its time
// into the live request queue. The store-level conditional update makes each
// promotion fire at most once per schedule, so the scan can run on every
// poll tick without duplicating transitions.
func (c *Coordinator) PromoteDue(ctx context.Context) (int, error) {
	ctx, span := c.tracer.Start(ctx, "PromoteDue")
	defer span.End()

	now := c.clock.Now()
	due, err := c.vehicles.ListDueForPromotion(ctx, now.Add(PromotionLead))
	if err != nil {
		return 0, err
	}

	promoted := 0
	for _, v := range due {
		_, ok, err := c.vehicles.Promote(ctx, v.Tag, now)
		if err != nil {
			c.logger.ErrorContext(ctx, "failed to promote scheduled pickup", "tag", v.Tag, "error", err)
			continue
		}
		if ok {
			promoted++
			promotionsTotal.Inc()
			c.logger.InfoContext(ctx, "promoted scheduled pickup into request queue", "tag", v.Tag)
		}
	}

	if promoted > 0 {
		c.publishVehicles(ctx)
	}
	return promoted, nil
}

// Reinstate undoes an archival, returning the vehicle to the active set as
// parked with no request and no schedule.
func (c *Coordinator) Reinstate(ctx context.Context, id uuid.UUID) (vehicle.Vehicle, error) {
	ctx, span := c.tracer.Start(ctx, "Reinstate", trace.WithAttributes(attribute.String("history.id", id.String())))
	defer span.End()

	v, err := c.hist.Reinstate(ctx, id)
	if err != nil {
		return vehicle.Vehicle{}, err
	}
	reinstatedTotal.Inc()
	c.publishVehicles(ctx)
	return v, nil
}

// Vehicle fetches one active vehicle.
func (c *Coordinator) Vehicle(ctx context.Context, tag string) (vehicle.Vehicle, error) {
	return c.vehicles.Get(ctx, tag)
}

// ActiveVehicles is the full active set, oldest check-in first.
func (c *Coordinator) ActiveVehicles(ctx context.Context) ([]vehicle.Vehicle, error) {
	return c.vehicles.ListActive(ctx)
}

// RequestQueue is the FIFO of vehicles awaiting staff action.
func (c *Coordinator) RequestQueue(ctx context.Context) ([]vehicle.Vehicle, error) {
	return c.vehicles.ListRequested(ctx)
}

// ScheduledPickups lists pending scheduled pickups, soonest first.
func (c *Coordinator) ScheduledPickups(ctx context.Context) ([]vehicle.Vehicle, error) {
	return c.vehicles.ListScheduled(ctx)
}

// DepartingToday lists active vehicles whose guests check out today or have
// overstayed.
func (c *Coordinator) DepartingToday(ctx context.Context) ([]vehicle.Vehicle, error) {
	all, err := c.vehicles.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	now := c.clock.Now()
	out := make([]vehicle.Vehicle, 0, len(all))
	for _, v := range all {
		if v.DepartingBy(now) {
			out = append(out, v)
		}
	}
	return out, nil
}

// History lists archived vehicles, most recent first.
func (c *Coordinator) History(ctx context.Context) ([]history.Entry, error) {
	return c.hist.List(ctx)
}

// notifyGuest attempts one delivery. Failures degrade to a warning; the
// transition that triggered the message stands either way.
func (c *Coordinator) notifyGuest(ctx context.Context, phone, message string) {
	if c.notifier == nil || phone == "" {
		return
	}
	if err := c.notifier.Send(ctx, phone, message); err != nil {
		notificationFailuresTotal.Inc()
		c.logger.WarnContext(ctx, "failed to send guest notification", "error", err)
	}
}

// publishVehicles pushes a fresh snapshot of the active set to every
// subscriber and refreshes the queue-depth gauge.
func (c *Coordinator) publishVehicles(ctx context.Context) {
	vs, err := c.vehicles.ListActive(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to load vehicle snapshot for fan-out", "error", err)
		return
	}

	depth := 0
	for _, v := range vs {
		if v.Requested {
			depth++
		}
	}
	requestQueueDepth.Set(float64(depth))

	c.hub.Publish(store.CollectionVehicles, vs)
}

type LuggageInput struct {
	GuestName  string
	RoomNumber string
	Phone      string
	Count      int
}

// AddLuggage stores a luggage record for a guest.
func (c *Coordinator) AddLuggage(ctx context.Context, in LuggageInput) (luggage.Item, error) {
	if in.GuestName == "" {
		return luggage.Item{}, &ValidationError{Field: "guestName", Message: "guest name is required"}
	}
	if in.Count < 1 {
		in.Count = 1
	}

	phone := ""
	if in.Phone != "" {
		var err error
		phone, err = vehicle.NormalizePhone(in.Phone, c.defaultCC)
		if err != nil {
			return luggage.Item{}, &ValidationError{Field: "phone", Message: "phone number cannot be normalized"}
		}
	}

	item := luggage.Item{
		GuestName:  in.GuestName,
		RoomNumber: in.RoomNumber,
		Phone:      phone,
		Count:      in.Count,
	}
	if err := c.luggage.Create(ctx, &item); err != nil {
		return luggage.Item{}, err
	}
	c.publishLuggage(ctx)
	return item, nil
}

// DeliverLuggage marks the luggage delivered and, the first time only,
// triggers the room-ready message.
func (c *Coordinator) DeliverLuggage(ctx context.Context, id uuid.UUID) (luggage.Item, error) {
	ctx, span := c.tracer.Start(ctx, "DeliverLuggage")
	defer span.End()

	item, err := c.luggage.MarkDelivered(ctx, id)
	if err != nil {
		return luggage.Item{}, err
	}

	if !item.Notified && item.Phone != "" {
		// one attempt per item, recorded whether or not it lands
		c.notifyGuest(ctx, item.Phone, notify.RoomReadyMessage(item.GuestName, item.RoomNumber))
		if err := c.luggage.MarkNotified(ctx, item.ID); err != nil {
			c.logger.WarnContext(ctx, "failed to record luggage notification", "id", item.ID, "error", err)
		} else {
			item.Notified = true
		}
	}

	c.publishLuggage(ctx)
	return item, nil
}

func (c *Coordinator) Luggage(ctx context.Context) ([]luggage.Item, error) {
	return c.luggage.List(ctx)
}

type AmenityInput struct {
	GuestName   string
	RoomNumber  string
	Description string
}

// AddAmenity records an outstanding amenity delivery.
func (c *Coordinator) AddAmenity(ctx context.Context, in AmenityInput) (amenity.Item, error) {
	if in.RoomNumber == "" {
		return amenity.Item{}, &ValidationError{Field: "roomNumber", Message: "room number is required"}
	}
	if in.Description == "" {
		return amenity.Item{}, &ValidationError{Field: "description", Message: "description is required"}
	}

	item := amenity.Item{
		GuestName:   in.GuestName,
		RoomNumber:  in.RoomNumber,
		Description: in.Description,
	}
	if err := c.amenities.Create(ctx, &item); err != nil {
		return amenity.Item{}, err
	}
	c.publishAmenities(ctx)
	return item, nil
}

func (c *Coordinator) DeliverAmenity(ctx context.Context, id uuid.UUID) (amenity.Item, error) {
	item, err := c.amenities.MarkDelivered(ctx, id)
	if err != nil {
		return amenity.Item{}, err
	}
	c.publishAmenities(ctx)
	return item, nil
}

func (c *Coordinator) Amenities(ctx context.Context) ([]amenity.Item, error) {
	return c.amenities.List(ctx)
}

// SweepDayBoundary applies the overnight retention policies: delivered
// luggage from before today is deleted outright, delivered amenities move to
// their history table. The two policies differ on purpose.
func (c *Coordinator) SweepDayBoundary(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "SweepDayBoundary")
	defer span.End()

	now := c.clock.Now()
	y, m, d := now.Date()
	boundary := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	deleted, err := c.luggage.SweepDelivered(ctx, boundary)
	if err != nil {
		return err
	}
	if deleted > 0 {
		c.logger.InfoContext(ctx, "swept delivered luggage", "deleted", deleted)
		c.publishLuggage(ctx)
	}

	moved, err := c.amenities.SweepDelivered(ctx, boundary)
	if err != nil {
		return err
	}
	if moved > 0 {
		c.logger.InfoContext(ctx, "archived delivered amenities", "moved", moved)
		c.publishAmenities(ctx)
	}
	return nil
}

func (c *Coordinator) publishLuggage(ctx context.Context) {
	items, err := c.luggage.List(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to load luggage snapshot for fan-out", "error", err)
		return
	}
	c.hub.Publish(store.CollectionLuggage, items)
}

func (c *Coordinator) publishAmenities(ctx context.Context) {
	items, err := c.amenities.List(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to load amenity snapshot for fan-out", "error", err)
		return
	}
	c.hub.Publish(store.CollectionAmenities, items)
}
