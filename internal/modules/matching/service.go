// README: Matching service evaluates open trips against a passenger's route.
package matching

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/apperr"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/logger"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/modules/location"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/modules/trip"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/observability"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/types"
)

type Service struct {
	source        TripSource
	offsetMinutes int
	log           logger.Logger
	metrics       *observability.Metrics
}

func NewService(source TripSource, offsetMinutes int, log logger.Logger, metrics *observability.Metrics) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{source: source, offsetMinutes: offsetMinutes, log: log, metrics: metrics}
}

// Search returns the open trips that can pick the passenger up, newest first.
func (s *Service) Search(ctx context.Context, req Request) (*Result, error) {
	if !req.From.Valid() || !req.To.Valid() {
		return nil, apperr.Validation("fromLat, fromLng, toLat and toLng are required for search")
	}

	candidates, err := s.source.ListOpen(ctx, candidateLimit)
	if err != nil {
		return nil, err
	}

	passengerAt, hasInstant := trip.ResolveInstant(req.Date, req.Time, s.offsetMinutes)
	res := &Result{Trips: []Match{}}
	if req.Debug {
		res.Debug = []Rejection{}
	}
	rejected := make(map[string]int)

	for _, t := range candidates {
		m, rej := s.evaluate(t, req, passengerAt, hasInstant)
		if m != nil {
			res.Trips = append(res.Trips, *m)
			continue
		}
		for _, r := range rej.Reasons {
			rejected[string(r)]++
		}
		if req.Debug {
			res.Debug = append(res.Debug, *rej)
		}
	}

	sort.SliceStable(res.Trips, func(i, j int) bool {
		return res.Trips[i].CreatedTime().After(res.Trips[j].CreatedTime())
	})

	s.metrics.ObserveSearch(len(candidates), len(res.Trips), rejected)
	s.log.Debug("trip search", "candidates", len(candidates), "matches", len(res.Trips), "requester", req.RequesterUID)
	return res, nil
}

// evaluate runs the filter pipeline for one trip, stopping at the first failing stage.
func (s *Service) evaluate(t *trip.Trip, req Request, passengerAt time.Time, hasInstant bool) (*Match, *Rejection) {
	reject := func(reasons ...Reason) *Rejection {
		return &Rejection{TripID: t.ID, Reasons: reasons}
	}

	if !req.ViewerIsDriver && req.RequesterUID != "" && t.DriverUID == req.RequesterUID {
		return nil, reject(ReasonSameDriver)
	}

	scheduled, hasSchedule := trip.ScheduledInstant(t.Time, s.offsetMinutes)
	if req.Date != "" {
		var tripDate *string
		if d, ok := trip.ScheduledDate(t.Time, s.offsetMinutes); ok {
			tripDate = &d
		}
		if tripDate == nil || *tripDate != req.Date {
			r := reject(ReasonDateMismatch)
			requested := req.Date
			r.TripDate, r.RequestedDate = tripDate, &requested
			return nil, r
		}
	}

	if hasInstant && hasSchedule {
		diff := math.Abs(scheduled.Sub(passengerAt).Minutes())
		allowance := t.ExtraMinutes + timeWindowMarginMinutes
		if diff > allowance {
			r := reject(ReasonTimeDifference)
			r.TimeDifference, r.TimeAllowance = &diff, &allowance
			return nil, r
		}
	}

	if t.Start.Coordinates == nil || t.Destination.Coordinates == nil {
		return nil, reject(ReasonMissingCoordinates)
	}

	d := ComputeDetour(*t.Start.Coordinates, *t.Destination.Coordinates, req.From, req.To, t.ExtraMinutes)
	if !d.Accepted() {
		r := reject(d.Reasons()...)
		r.Detour = &d
		return nil, r
	}
	return &Match{
		Trip:                   t,
		EstimatedMinutesDetour: roundTo(d.ExtraMinutesRequired, 1),
		ExtraDistanceKm:        roundTo(d.ExtraDistanceKm, 2),
	}, nil
}

// ComputeDetour measures what picking up a passenger going from -> to costs a
// driver going start -> dest with extraMinutes of slack.
func ComputeDetour(start, dest, from, to types.Point, extraMinutes float64) Detour {
	driverRoute := location.HaversineKm(start, dest)
	detourRoute := location.HaversineKm(start, from) +
		location.HaversineKm(from, to) +
		location.HaversineKm(to, dest)

	extra := math.Max(detourRoute-driverRoute, 0)
	allowance := extraMinutes*averageSpeedKmPerMin + fixedMarginKm

	toOrigin := location.HaversineKm(start, from)
	toDest := location.HaversineKm(dest, to)
	routeToOrigin := location.DistancePointToSegmentKm(from, start, dest)
	routeToDest := location.DistancePointToSegmentKm(to, start, dest)

	return Detour{
		OriginWithinAllowance:      routeToOrigin <= routeToleranceKm && toOrigin <= allowance+routeToleranceKm,
		DestinationWithinAllowance: routeToDest <= routeToleranceKm && toDest <= allowance+routeToleranceKm,
		DetourWithinAllowance:      extra <= allowance,
		ExtraMinutesRequired:       extra / averageSpeedKmPerMin,
		MinutesAllowance:           extraMinutes + detourMarginMinutes,
		DetourAllowanceKm:          allowance,
		ExtraDistanceKm:            extra,
		DistanceToOriginKm:         roundTo(toOrigin, 2),
		DistanceToDestinationKm:    roundTo(toDest, 2),
		RouteDistanceToOriginKm:    roundTo(routeToOrigin, 2),
		RouteDistanceToDestKm:      roundTo(routeToDest, 2),
	}
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
