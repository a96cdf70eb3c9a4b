// README: Trip and participant persistence on top of the document store.
package trip

import (
	"context"
	"errors"
	"fmt"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/docstore"
)

const (
	tripsCollection = "trips"
	usersCollection = "users"

	// ListLimit caps every trip query.
	ListLimit = 50
)

var (
	ErrTripNotFound = errors.New("trip not found")
	ErrUserNotFound = errors.New("user not found")
)

// Participant is the slice of a user profile the trip module reads and writes.
type Participant struct {
	UID     string
	UserID  string
	MyTrips []Entry
}

type Store struct {
	docs docstore.Store
}

func NewStore(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

func (s *Store) Get(ctx context.Context, id string) (*Trip, error) {
	doc, err := s.docs.Get(ctx, tripsCollection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get trip %s: %w", id, err)
	}
	return tripFromDoc(doc), nil
}

func (s *Store) Create(ctx context.Context, t *Trip) (string, error) {
	id, err := s.docs.Add(ctx, tripsCollection, tripValue(t))
	if err != nil {
		return "", fmt.Errorf("create trip: %w", err)
	}
	return id, nil
}

func (s *Store) ListOpen(ctx context.Context, limit int) ([]*Trip, error) {
	return s.query(ctx, docstore.Where("status", docstore.OpEqual, string(StatusOpen)).WithLimit(limit))
}

func (s *Store) ListByDriver(ctx context.Context, driverUID string, limit int) ([]*Trip, error) {
	return s.query(ctx, docstore.Where("driver_uid", docstore.OpEqual, driverUID).WithLimit(limit))
}

// ListByWaitlistMember finds trips whose waitlist holds userID as a legacy bare string.
func (s *Store) ListByWaitlistMember(ctx context.Context, userID string, limit int) ([]*Trip, error) {
	return s.query(ctx, docstore.Where("waitlist", docstore.OpArrayContains, userID).WithLimit(limit))
}

func (s *Store) query(ctx context.Context, q docstore.Query) ([]*Trip, error) {
	docs, err := s.docs.Query(ctx, tripsCollection, q)
	if err != nil {
		return nil, fmt.Errorf("query trips: %w", err)
	}
	out := make([]*Trip, 0, len(docs))
	for _, d := range docs {
		out = append(out, tripFromDoc(d))
	}
	return out, nil
}

// Update writes the given top-level fields. List fields are written whole;
// there is no version check, so concurrent writers can overwrite each other.
func (s *Store) Update(ctx context.Context, id string, fields map[string]any) error {
	err := s.docs.Update(ctx, tripsCollection, id, fields)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrTripNotFound
	}
	if err != nil {
		return fmt.Errorf("update trip %s: %w", id, err)
	}
	return nil
}

func (s *Store) GetParticipant(ctx context.Context, uid string) (*Participant, error) {
	doc, err := s.docs.Get(ctx, usersCollection, uid)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", uid, err)
	}
	return participantFromDoc(doc), nil
}

// FindParticipantByUserID resolves the auth uid that owns a profile user_id.
func (s *Store) FindParticipantByUserID(ctx context.Context, userID string) (*Participant, error) {
	docs, err := s.docs.Query(ctx, usersCollection, docstore.Where("user_id", docstore.OpEqual, userID).WithLimit(1))
	if err != nil {
		return nil, fmt.Errorf("find user by user_id %s: %w", userID, err)
	}
	if len(docs) == 0 {
		return nil, ErrUserNotFound
	}
	return participantFromDoc(docs[0]), nil
}

func (s *Store) UpdateMyTrips(ctx context.Context, uid string, entries []Entry, updatedAt string) error {
	err := s.docs.Update(ctx, usersCollection, uid, map[string]any{
		"my_trips":  entriesValue(entries),
		"updatedAt": updatedAt,
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("update my_trips %s: %w", uid, err)
	}
	return nil
}

func participantFromDoc(doc *docstore.Document) *Participant {
	return &Participant{
		UID:     doc.ID,
		UserID:  stringOf(doc.Data["user_id"]),
		MyTrips: entriesFromValue(doc.Data["my_trips"]),
	}
}
