// README: Read paths: driver trips, passenger trips and batch lookup by id.
package trip

import (
	"context"
	"errors"
	"sort"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/apperr"
)

// SortByCreatedDesc orders trips newest first. Equal timestamps keep their input order.
func SortByCreatedDesc(trips []*Trip) {
	sort.SliceStable(trips, func(i, j int) bool {
		return trips[i].CreatedTime().After(trips[j].CreatedTime())
	})
}

func (s *Service) ListByDriver(ctx context.Context, driverUID string) ([]*Trip, error) {
	trips, err := s.store.ListByDriver(ctx, driverUID, ListLimit)
	if err != nil {
		return nil, err
	}
	SortByCreatedDesc(trips)
	return trips, nil
}

// ListForPassenger returns the trips whose waitlist holds the caller, found
// both through legacy bare user_id entries and through the caller's my_trips.
func (s *Service) ListForPassenger(ctx context.Context, uid string) ([]*Trip, error) {
	p, err := s.store.GetParticipant(ctx, uid)
	if errors.Is(err, ErrUserNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	if p.UserID == "" {
		return nil, apperr.Validation("User id not found for waitlist")
	}

	trips, err := s.store.ListByWaitlistMember(ctx, p.UserID, ListLimit)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(trips))
	for _, t := range trips {
		seen[t.ID] = true
	}

	for _, e := range p.MyTrips {
		if len(trips) >= ListLimit {
			break
		}
		id := e.Ref()
		if rec, ok := e.Record(); ok {
			id = rec.TripID
		}
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		t, err := s.store.Get(ctx, id)
		if err != nil {
			if !errors.Is(err, ErrTripNotFound) {
				s.log.Warn("referenced trip not loaded", "trip_id", id, "uid", uid, "error", err)
			}
			continue
		}
		if indexOf(t.Waitlist, p.UserID, uid) >= 0 {
			trips = append(trips, t)
		}
	}

	SortByCreatedDesc(trips)
	return trips, nil
}

// ListByIDs fetches trips by id. Missing or unreadable ids are left out.
func (s *Service) ListByIDs(ctx context.Context, ids []string) ([]*Trip, error) {
	if len(ids) == 0 {
		return nil, apperr.Validation("ids query param is empty")
	}
	trips := make([]*Trip, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		t, err := s.store.Get(ctx, id)
		if err != nil {
			if !errors.Is(err, ErrTripNotFound) {
				s.log.Warn("trip lookup failed", "trip_id", id, "error", err)
			}
			continue
		}
		trips = append(trips, t)
	}
	SortByCreatedDesc(trips)
	return trips, nil
}
