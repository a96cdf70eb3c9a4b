// README: Waitlist and passenger-list actions on a trip.
package trip

import (
	"context"
	"errors"
	"strings"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/apperr"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/events"
)

type Action string

const (
	ActionApply           Action = "apply"
	ActionAccept          Action = "accept"
	ActionCancel          Action = "cancel"
	ActionRemovePassenger Action = "remove_passenger"
	ActionCancelPassenger Action = "cancel_passenger"
)

// ParseAction maps the PATCH action field case-insensitively. Empty or
// unrecognised actions mean apply.
func ParseAction(raw string) Action {
	switch a := Action(strings.ToLower(strings.TrimSpace(raw))); a {
	case ActionAccept, ActionCancel, ActionRemovePassenger, ActionCancelPassenger:
		return a
	default:
		return ActionApply
	}
}

type PatchCommand struct {
	TripID      string
	Action      string
	CallerUID   string
	UserID      string
	Origin      *Place
	Destination *Place
}

type ApplyCommand struct {
	TripID      string
	CallerUID   string
	UserID      string
	Origin      *Place
	Destination *Place
}

type AcceptCommand struct {
	TripID    string
	DriverUID string
	UserID    string
}

type CancelCommand struct {
	TripID    string
	DriverUID string
}

type RemovePassengerCommand struct {
	TripID    string
	DriverUID string
	UserID    string
}

type CancelPassengerCommand struct {
	TripID    string
	CallerUID string
}

// ActionResult is what a PATCH returns for every action.
type ActionResult struct {
	Action                   Action
	Message                  string
	Status                   Status
	Waitlist                 []Entry
	PassengerList            []Entry
	RemovedFromWaitlist      bool
	RemovedFromPassengerList bool
}

// Dispatch routes a PATCH command to the matching action.
func (s *Service) Dispatch(ctx context.Context, cmd PatchCommand) (*ActionResult, error) {
	if strings.TrimSpace(cmd.TripID) == "" {
		return nil, apperr.Validation("trip_id is required")
	}
	var (
		res *ActionResult
		err error
	)
	switch ParseAction(cmd.Action) {
	case ActionCancel:
		res, err = s.Cancel(ctx, CancelCommand{TripID: cmd.TripID, DriverUID: cmd.CallerUID})
	case ActionRemovePassenger:
		res, err = s.RemovePassenger(ctx, RemovePassengerCommand{TripID: cmd.TripID, DriverUID: cmd.CallerUID, UserID: cmd.UserID})
	case ActionCancelPassenger:
		res, err = s.CancelPassenger(ctx, CancelPassengerCommand{TripID: cmd.TripID, CallerUID: cmd.CallerUID})
	case ActionAccept:
		res, err = s.Accept(ctx, AcceptCommand{TripID: cmd.TripID, DriverUID: cmd.CallerUID, UserID: cmd.UserID})
	default:
		res, err = s.Apply(ctx, ApplyCommand{
			TripID:      cmd.TripID,
			CallerUID:   cmd.CallerUID,
			UserID:      cmd.UserID,
			Origin:      cmd.Origin,
			Destination: cmd.Destination,
		})
	}
	s.metrics.ObserveAction(string(action), err)
	return res, err
}

// Apply appends the caller to the waitlist and records the application in their my_trips.
func (s *Service) Apply(ctx context.Context, cmd ApplyCommand) (*ActionResult, error) {
	t, err := s.Get(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	if cmd.UserID == "" {
		return nil, apperr.Validation("user_id is required")
	}
	if t.IsDriver(cmd.CallerUID) {
		return nil, apperr.Validation("You cannot apply to your own trip")
	}
	if t.Status != StatusOpen {
		return nil, apperr.InvalidState("Trip is not open for applications")
	}
	if indexOf(t.Waitlist, cmd.UserID, "") >= 0 {
		return nil, apperr.Conflict("User already in waitlist")
	}
	if indexOf(t.PassengerList, cmd.UserID, "") >= 0 {
		return nil, apperr.Conflict("User already in passenger_list")
	}

	now := s.timestamp()
	record := Application{
		TripID:      t.ID,
		FirebaseUID: cmd.CallerUID,
		UserID:      cmd.UserID,
		Origin:      cmd.Origin,
		Destination: cmd.Destination,
		Status:      ApplicationWaitlist,
		AppliedAt:   now,
	}
	t.Waitlist = append(t.Waitlist, RecordEntry(record))

	err = s.commitThenMirror(ctx, ActionApply, t.ID, map[string]any{
		"waitlist":  entriesValue(t.Waitlist),
		"updatedAt": now,
	}, []mirrorUpdate{{
		uid:    cmd.CallerUID,
		userID: cmd.UserID,
		mutate: mirrorUpsertApplication(t.ID, record),
	}})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TripApplied, t, cmd.CallerUID, cmd.UserID)
	return &ActionResult{
		Action:   ActionApply,
		Message:  "User added to waitlist",
		Status:   t.Status,
		Waitlist: t.Waitlist,
	}, nil
}

// Accept moves a waitlisted passenger to the passenger list, closing the trip when full.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) (*ActionResult, error) {
	t, err := s.Get(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	if cmd.UserID == "" {
		return nil, apperr.Validation("user_id is required")
	}
	if !t.IsDriver(cmd.DriverUID) {
		return nil, apperr.Forbidden("Only the driver can accept passengers")
	}
	if t.Status == StatusCancelled {
		return nil, apperr.InvalidState("Trip is cancelled")
	}
	idx := indexOf(t.Waitlist, cmd.UserID, "")
	if idx < 0 {
		return nil, apperr.NotFound("User not found in waitlist")
	}
	if t.SeatsLeft() == 0 {
		return nil, apperr.InvalidState("No seats available")
	}

	entry := t.Waitlist[idx]
	accepted, ok := entry.Record()
	if ok {
		accepted.Status = ApplicationAccepted
	} else {
		accepted = Application{
			TripID:    t.ID,
			UserID:    cmd.UserID,
			Status:    ApplicationAccepted,
			MovedFrom: string(ApplicationWaitlist),
		}
		if p, err := s.store.FindParticipantByUserID(ctx, cmd.UserID); err == nil {
			accepted.FirebaseUID = p.UID
		}
	}

	t.Waitlist = append(t.Waitlist[:idx:idx], t.Waitlist[idx+1:]...)
	t.PassengerList = append(t.PassengerList, RecordEntry(accepted))

	now := s.timestamp()
	fields := map[string]any{
		"waitlist":       entriesValue(t.Waitlist),
		"passenger_list": entriesValue(t.PassengerList),
		"updatedAt":      now,
	}
	closed := false
	if len(t.PassengerList) >= t.Seats && CanTransition(t.Status, StatusClosed) {
		t.Status = StatusClosed
		fields["status"] = string(StatusClosed)
		closed = true
	}

	err = s.commitThenMirror(ctx, ActionAccept, t.ID, fields, []mirrorUpdate{{
		uid:    accepted.FirebaseUID,
		userID: cmd.UserID,
		mutate: mirrorSetStatus(t.ID, cmd.UserID, ApplicationAccepted, now, ""),
	}})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TripAccepted, t, cmd.DriverUID, cmd.UserID)
	if closed {
		s.log.Info("trip closed", "trip_id", t.ID, "passengers", len(t.PassengerList), "seats", t.Seats)
		s.publish(ctx, events.TripClosed, t, cmd.DriverUID, "")
	}
	return &ActionResult{
		Action:        ActionAccept,
		Message:       "User moved to passenger_list",
		Status:        t.Status,
		Waitlist:      t.Waitlist,
		PassengerList: t.PassengerList,
	}, nil
}

// Cancel marks the trip cancelled and flags the trip in every participant's my_trips.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*ActionResult, error) {
	t, err := s.Get(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	if !t.IsDriver(cmd.DriverUID) {
		return nil, apperr.Forbidden("Only the driver can cancel the trip")
	}
	if !CanTransition(t.Status, StatusCancelled) {
		return nil, apperr.InvalidState("Only open trips can be cancelled")
	}

	now := s.timestamp()
	participants := make([]Entry, 0, len(t.PassengerList)+len(t.Waitlist))
	participants = append(participants, t.PassengerList...)
	participants = append(participants, t.Waitlist...)

	t.Status = StatusCancelled
	err = s.commitThenMirror(ctx, ActionCancel, t.ID, map[string]any{
		"status":    string(StatusCancelled),
		"updatedAt": now,
	}, cancelledMirrors(t.ID, participants, now))
	if err != nil {
		return nil, err
	}
	s.log.Info("trip cancelled", "trip_id", t.ID, "participants", len(participants))
	s.publish(ctx, events.TripCancelled, t, cmd.DriverUID, "")
	return &ActionResult{
		Action:        ActionCancel,
		Message:       "Trip cancelled successfully",
		Status:        StatusCancelled,
		Waitlist:      t.Waitlist,
		PassengerList: t.PassengerList,
	}, nil
}

// RemovePassenger lets the driver drop a user from either list.
func (s *Service) RemovePassenger(ctx context.Context, cmd RemovePassengerCommand) (*ActionResult, error) {
	t, err := s.Get(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	if !t.IsDriver(cmd.DriverUID) {
		return nil, apperr.Forbidden("Only the driver can remove passengers")
	}
	if cmd.UserID == "" {
		return nil, apperr.Validation("user_id is required to identify the passenger to remove")
	}

	passengers, fromPassengers := removeMatching(t.PassengerList, cmd.UserID, "")
	waitlist, fromWaitlist := removeMatching(t.Waitlist, cmd.UserID, "")
	if len(fromPassengers) == 0 && len(fromWaitlist) == 0 {
		return nil, apperr.NotFound("Passenger not found in waitlist or passenger_list")
	}
	t.PassengerList, t.Waitlist = passengers, waitlist

	now := s.timestamp()
	fields := map[string]any{
		"waitlist":       entriesValue(t.Waitlist),
		"passenger_list": entriesValue(t.PassengerList),
		"updatedAt":      now,
	}
	reopened := s.reopenIfFreed(t, fields)

	removed := append(fromPassengers, fromWaitlist...)
	err = s.commitThenMirror(ctx, ActionRemovePassenger, t.ID, fields, cancelledMirrors(t.ID, removed, now))
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TripPassengerRemoved, t, cmd.DriverUID, cmd.UserID)
	if reopened {
		s.publish(ctx, events.TripReopened, t, cmd.DriverUID, "")
	}
	return &ActionResult{
		Action:                   ActionRemovePassenger,
		Message:                  "Passenger removed successfully",
		Status:                   t.Status,
		Waitlist:                 t.Waitlist,
		PassengerList:            t.PassengerList,
		RemovedFromWaitlist:      len(fromWaitlist) > 0,
		RemovedFromPassengerList: len(fromPassengers) > 0,
	}, nil
}

// CancelPassenger lets a passenger withdraw from a trip they applied to or joined.
func (s *Service) CancelPassenger(ctx context.Context, cmd CancelPassengerCommand) (*ActionResult, error) {
	t, err := s.Get(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	p, err := s.store.GetParticipant(ctx, cmd.CallerUID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	if p.UserID == "" {
		return nil, apperr.Validation("User ID not found. Please ensure your profile is complete.")
	}

	passengers, fromPassengers := removeMatching(t.PassengerList, p.UserID, cmd.CallerUID)
	waitlist, fromWaitlist := removeMatching(t.Waitlist, p.UserID, cmd.CallerUID)
	if len(fromPassengers) == 0 && len(fromWaitlist) == 0 {
		return nil, apperr.NotFound("Passenger not found in waitlist or passenger_list")
	}
	t.PassengerList, t.Waitlist = passengers, waitlist

	now := s.timestamp()
	fields := map[string]any{
		"waitlist":       entriesValue(t.Waitlist),
		"passenger_list": entriesValue(t.PassengerList),
		"updatedAt":      now,
	}
	reopened := s.reopenIfFreed(t, fields)

	err = s.commitThenMirror(ctx, ActionCancelPassenger, t.ID, fields, []mirrorUpdate{{
		uid:    cmd.CallerUID,
		userID: p.UserID,
		mutate: mirrorRemoveTrip(t.ID),
	}})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TripPassengerLeft, t, cmd.CallerUID, p.UserID)
	if reopened {
		s.publish(ctx, events.TripReopened, t, cmd.CallerUID, "")
	}
	return &ActionResult{
		Action:                   ActionCancelPassenger,
		Message:                  "Passenger participation cancelled successfully",
		Status:                   t.Status,
		Waitlist:                 t.Waitlist,
		PassengerList:            t.PassengerList,
		RemovedFromWaitlist:      len(fromWaitlist) > 0,
		RemovedFromPassengerList: len(fromPassengers) > 0,
	}, nil
}

// reopenIfFreed moves a closed trip back to open once a seat frees up.
func (s *Service) reopenIfFreed(t *Trip, fields map[string]any) bool {
	if t.Status != StatusClosed || len(t.PassengerList) >= t.Seats || !CanTransition(t.Status, StatusOpen) {
		return false
	}
	t.Status = StatusOpen
	fields["status"] = string(StatusOpen)
	s.log.Info("trip reopened", "trip_id", t.ID, "passengers", len(t.PassengerList), "seats", t.Seats)
	return true
}
