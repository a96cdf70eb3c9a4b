// README: Trip service implements creation, state transitions and mirror synchronisation.
package trip

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/apperr"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/events"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/logger"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/observability"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/types"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Geocoder resolves an address when a trip is posted without coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
}

type Deps struct {
	Logger    logger.Logger
	Publisher events.Publisher
	Metrics   *observability.Metrics
	Geocoder  Geocoder
	Now       func() time.Time
}

type Service struct {
	store     *Store
	log       logger.Logger
	publisher events.Publisher
	metrics   *observability.Metrics
	geocoder  Geocoder
	now       func() time.Time
}

func NewService(store *Store, deps Deps) *Service {
	s := &Service{
		store:     store,
		log:       deps.Logger,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		geocoder:  deps.Geocoder,
		now:       deps.Now,
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

type DriverInput struct {
	UID   string
	Name  string
	Email string
	Photo string
}

type VehicleInput struct {
	VehicleID    string
	LicensePlate string
	Model        string
	Capacity     *float64
}

// CreateCommand carries a posted trip. Nil numbers are missing; NaN marks an
// unparsable value.
type CreateCommand struct {
	DriverUID    string
	DriverEmail  string
	DriverID     string
	Start        Place
	Destination  Place
	Time         string
	Seats        *float64
	Fare         *float64
	ExtraMinutes *float64
	Driver       *DriverInput
	Vehicle      *VehicleInput
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(timestampLayout)
}

func validNumber(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func validateCreate(cmd CreateCommand) error {
	switch {
	case strings.TrimSpace(cmd.Start.Address) == "":
		return apperr.Validation("start.address is required")
	case strings.TrimSpace(cmd.Destination.Address) == "":
		return apperr.Validation("destination.address is required")
	case strings.TrimSpace(cmd.Time) == "":
		return apperr.Validation("time is required")
	case !validNumber(cmd.Seats) || *cmd.Seats <= 0 || *cmd.Seats != math.Trunc(*cmd.Seats):
		return apperr.Validation("seats must be a positive number")
	case !validNumber(cmd.Fare) || *cmd.Fare <= 0:
		return apperr.Validation("fare must be a positive number")
	case cmd.ExtraMinutes != nil && (!validNumber(cmd.ExtraMinutes) || *cmd.ExtraMinutes < 0):
		return apperr.Validation("extra_minutes must be zero or a positive number")
	}
	return nil
}

func nonEmpty(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// Create validates and stores a new open trip, returning its id.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (string, error) {
	if cmd.DriverUID == "" {
		return "", apperr.New(apperr.ErrUnauthenticated, "Authorization token required")
	}
	if err := validateCreate(cmd); err != nil {
		return "", err
	}

	now := s.timestamp()
	t := &Trip{
		DriverID:      cmd.DriverID,
		DriverUID:     cmd.DriverUID,
		DriverEmail:   nonEmpty(cmd.DriverEmail),
		Start:         s.locate(ctx, cmd.Start),
		Destination:   s.locate(ctx, cmd.Destination),
		Time:          strings.TrimSpace(cmd.Time),
		Seats:         int(*cmd.Seats),
		Fare:          *cmd.Fare,
		Status:        StatusOpen,
		Waitlist:      []Entry{},
		PassengerList: []Entry{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if t.DriverID == "" {
		t.DriverID = cmd.DriverUID
	}
	if cmd.ExtraMinutes != nil {
		t.ExtraMinutes = *cmd.ExtraMinutes
	}
	if d := cmd.Driver; d != nil {
		uid := d.UID
		if uid == "" {
			uid = cmd.DriverUID
		}
		email := d.Email
		if email == "" {
			email = cmd.DriverEmail
		}
		t.Driver = &DriverInfo{UID: uid, Name: nonEmpty(d.Name), Email: nonEmpty(email), Photo: nonEmpty(d.Photo)}
	}
	if v := cmd.Vehicle; v != nil {
		info := &VehicleInfo{
			VehicleID:    nonEmpty(v.VehicleID),
			LicensePlate: nonEmpty(v.LicensePlate),
			Model:        nonEmpty(v.Model),
		}
		if validNumber(v.Capacity) && *v.Capacity > 0 {
			c := *v.Capacity
			info.Capacity = &c
		}
		t.Vehicle = info
	}

	id, err := s.store.Create(ctx, t)
	s.metrics.ObserveAction("create", err)
	if err != nil {
		return "", err
	}
	t.ID = id
	s.log.Info("trip posted", "trip_id", id, "driver_uid", t.DriverUID, "seats", t.Seats)
	s.publish(ctx, events.TripCreated, t, cmd.DriverUID, "")
	return id, nil
}

// locate fills in missing coordinates from the geocoder when one is configured.
func (s *Service) locate(ctx context.Context, p Place) Place {
	p.Address = strings.TrimSpace(p.Address)
	if p.Coordinates != nil && !p.Coordinates.Valid() {
		p.Coordinates = nil
	}
	if p.Coordinates != nil || s.geocoder == nil {
		return p
	}
	pt, err := s.geocoder.Geocode(ctx, p.Address)
	if err != nil {
		s.log.Warn("geocoding failed", "address", p.Address, "error", err)
		return p
	}
	p.Coordinates = &pt
	return p
}

func (s *Service) Get(ctx context.Context, id string) (*Trip, error) {
	t, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrTripNotFound) {
		return nil, apperr.NotFound("Trip not found")
	}
	return t, err
}

func (s *Service) publish(ctx context.Context, typ events.Type, t *Trip, actorUID, userID string) {
	err := s.publisher.Publish(ctx, events.TripEvent{
		Type:     typ,
		TripID:   t.ID,
		Status:   string(t.Status),
		ActorUID: actorUID,
		UserID:   userID,
		At:       s.now().UTC(),
	})
	s.metrics.EventPublished(err)
	if err != nil {
		s.log.Warn("trip event not published", "trip_id", t.ID, "type", typ, "error", err)
	}
}
