// README: Candidate retrieval for matching.
package matching

import (
	"context"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/modules/trip"
)

// TripSource lists searchable trips. *trip.Store satisfies it.
type TripSource interface {
	ListOpen(ctx context.Context, limit int) ([]*trip.Trip, error)
}

var _ TripSource = (*trip.Store)(nil)
