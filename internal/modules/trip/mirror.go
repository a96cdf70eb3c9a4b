// README: Best-effort synchronisation of users/{uid}.my_trips after a trip write.
package trip

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// mirrorUpdate rewrites one participant's my_trips. When uid is empty the
// owner is looked up by userID.
type mirrorUpdate struct {
	uid    string
	userID string
	mutate func(entries []Entry) ([]Entry, bool)
}

// commitThenMirror persists the trip first. Mirror updates then run
// concurrently; their failures are logged and counted but never returned.
func (s *Service) commitThenMirror(ctx context.Context, action Action, tripID string, fields map[string]any, updates []mirrorUpdate) error {
	if err := s.store.Update(ctx, tripID, fields); err != nil {
		return err
	}

	var g errgroup.Group
	for _, u := range updates {
		g.Go(func() error {
			s.applyMirror(ctx, action, tripID, u)
			return nil
		})
	}
	_ = g.Wait()
	return nil
}

func (s *Service) applyMirror(ctx context.Context, action Action, tripID string, u mirrorUpdate) {
	log := s.log.With("action", string(action), "trip_id", tripID, "uid", u.uid, "user_id", u.userID)

	var (
		p   *Participant
		err error
	)
	switch {
	case u.uid != "":
		p, err = s.store.GetParticipant(ctx, u.uid)
	case u.userID != "":
		p, err = s.store.FindParticipantByUserID(ctx, u.userID)
	default:
		return
	}
	if err != nil {
		s.metrics.MirrorFailed(string(action))
		log.Warn("my_trips owner not resolved", "error", err)
		return
	}

	next, changed := u.mutate(p.MyTrips)
	if !changed {
		return
	}
	if err := s.store.UpdateMyTrips(ctx, p.UID, next, s.timestamp()); err != nil {
		s.metrics.MirrorFailed(string(action))
		log.Error("my_trips update failed", "error", err)
	}
}

// mirrorUpsertApplication adds the application unless the trip is already
// listed; a previously cancelled entry is replaced by the fresh record.
func mirrorUpsertApplication(tripID string, record Application) func([]Entry) ([]Entry, bool) {
	return func(entries []Entry) ([]Entry, bool) {
		for i, e := range entries {
			if !e.ReferencesTrip(tripID) {
				continue
			}
			if e.MirrorStatus() != ApplicationCancelled {
				return entries, false
			}
			out := append([]Entry(nil), entries...)
			out[i] = RecordEntry(record)
			return out, true
		}
		return append(entries, RecordEntry(record)), true
	}
}

// mirrorSetStatus updates every entry for tripID. Legacy trip-id strings are
// upgraded to records. A missing entry is only created on acceptance.
func mirrorSetStatus(tripID, userID string, status ApplicationStatus, at, by string) func([]Entry) ([]Entry, bool) {
	return func(entries []Entry) ([]Entry, bool) {
		out := append([]Entry(nil), entries...)
		found := false
		for i, e := range out {
			if !e.ReferencesTrip(tripID) {
				continue
			}
			found = true
			rec, ok := e.Record()
			if !ok {
				rec = Application{TripID: tripID, UserID: userID}
			}
			rec.Status = status
			if status == ApplicationCancelled {
				rec.CancelledAt = at
				rec.CancelledBy = by
			}
			out[i] = RecordEntry(rec)
		}
		if !found {
			if status != ApplicationAccepted {
				return entries, false
			}
			out = append(out, RecordEntry(Application{TripID: tripID, UserID: userID, Status: status}))
		}
		return out, true
	}
}

func mirrorRemoveTrip(tripID string) func([]Entry) ([]Entry, bool) {
	return func(entries []Entry) ([]Entry, bool) {
		out := make([]Entry, 0, len(entries))
		for _, e := range entries {
			if !e.ReferencesTrip(tripID) {
				out = append(out, e)
			}
		}
		return out, len(out) != len(entries)
	}
}

// cancelledMirrors builds one update per distinct participant, keyed by uid
// when known and by user_id otherwise.
func cancelledMirrors(tripID string, participants []Entry, at string) []mirrorUpdate {
	seen := make(map[string]bool, len(participants))
	var out []mirrorUpdate
	for _, e := range participants {
		uid, userID := e.FirebaseUID(), e.UserID()
		key := "uid:" + uid
		if uid == "" {
			key = "user:" + userID
		}
		if (uid == "" && userID == "") || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, mirrorUpdate{
			uid:    uid,
			userID: userID,
			mutate: mirrorSetStatus(tripID, userID, ApplicationCancelled, at, "driver"),
		})
	}
	return out
}
