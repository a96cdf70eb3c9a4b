// README: Waitlist, passenger_list and my_trips elements in both stored encodings.
package trip

import "encoding/json"

type ApplicationStatus string

const (
	ApplicationWaitlist  ApplicationStatus = "waitlist"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationCancelled ApplicationStatus = "cancelled"
)

// Application is the record form of an entry. Keys the service does not know
// about are kept in Extra and written back unchanged.
type Application struct {
	TripID      string
	FirebaseUID string
	UserID      string
	Origin      *Place
	Destination *Place
	Status      ApplicationStatus
	AppliedAt   string
	CancelledAt string
	CancelledBy string
	MovedFrom   string
	Extra       map[string]any
}

// Entry is either a legacy bare string or an Application record.
// In waitlist and passenger_list a bare string is a user_id; in my_trips it is a trip_id.
type Entry struct {
	ref string
	app *Application
}

func LegacyEntry(ref string) Entry {
	return Entry{ref: ref}
}

func RecordEntry(a Application) Entry {
	return Entry{app: &a}
}

func (e Entry) IsLegacy() bool { return e.app == nil }

// Ref is the bare string of a legacy entry.
func (e Entry) Ref() string { return e.ref }

// Record returns a copy of the application record, if any.
func (e Entry) Record() (Application, bool) {
	if e.app == nil {
		return Application{}, false
	}
	return *e.app, true
}

// UserID is the passenger's user_id as seen from a trip list.
func (e Entry) UserID() string {
	if e.app == nil {
		return e.ref
	}
	return e.app.UserID
}

// FirebaseUID is empty for legacy entries.
func (e Entry) FirebaseUID() string {
	if e.app == nil {
		return ""
	}
	return e.app.FirebaseUID
}

// Matches reports whether a trip-list entry belongs to the passenger
// identified by userID or uid. Empty identifiers never match.
func (e Entry) Matches(userID, uid string) bool {
	if e.app == nil {
		return userID != "" && e.ref == userID
	}
	if userID != "" && e.app.UserID == userID {
		return true
	}
	return uid != "" && e.app.FirebaseUID == uid
}

// ReferencesTrip reports whether a my_trips entry points at tripID.
func (e Entry) ReferencesTrip(tripID string) bool {
	if e.app == nil {
		return e.ref == tripID
	}
	return e.app.TripID == tripID
}

// MirrorStatus is the record status, or "" for legacy entries.
func (e Entry) MirrorStatus() ApplicationStatus {
	if e.app == nil {
		return ""
	}
	return e.app.Status
}

func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.value())
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	parsed, ok := entryFromValue(v)
	if !ok {
		*e = Entry{}
		return nil
	}
	*e = parsed
	return nil
}

// value is the stored representation: a string or a map.
func (e Entry) value() any {
	if e.app == nil {
		return e.ref
	}
	a := e.app
	m := make(map[string]any, len(a.Extra)+10)
	for k, v := range a.Extra {
		m[k] = v
	}
	m["trip_id"] = a.TripID
	m["firebase_uid"] = a.FirebaseUID
	m["user_id"] = a.UserID
	m["origin"] = placeValue(a.Origin)
	m["destination"] = placeValue(a.Destination)
	m["status"] = string(a.Status)
	if a.AppliedAt != "" {
		m["appliedAt"] = a.AppliedAt
	}
	if a.CancelledAt != "" {
		m["cancelledAt"] = a.CancelledAt
	}
	if a.CancelledBy != "" {
		m["cancelledBy"] = a.CancelledBy
	}
	if a.MovedFrom != "" {
		m["movedFrom"] = a.MovedFrom
	}
	return m
}

var knownRecordKeys = map[string]bool{
	"trip_id": true, "firebase_uid": true, "user_id": true, "origin": true, "destination": true,
	"status": true, "appliedAt": true, "cancelledAt": true, "cancelledBy": true, "movedFrom": true,
}

func entryFromValue(v any) (Entry, bool) {
	switch t := v.(type) {
	case string:
		return LegacyEntry(t), true
	case map[string]any:
		a := Application{
			TripID:      stringOf(t["trip_id"]),
			FirebaseUID: stringOf(t["firebase_uid"]),
			UserID:      stringOf(t["user_id"]),
			Origin:      placeFromValue(t["origin"]),
			Destination: placeFromValue(t["destination"]),
			Status:      ApplicationStatus(stringOf(t["status"])),
			AppliedAt:   stringOf(t["appliedAt"]),
			CancelledAt: stringOf(t["cancelledAt"]),
			CancelledBy: stringOf(t["cancelledBy"]),
			MovedFrom:   stringOf(t["movedFrom"]),
		}
		for k, val := range t {
			if knownRecordKeys[k] {
				continue
			}
			if a.Extra == nil {
				a.Extra = make(map[string]any)
			}
			a.Extra[k] = val
		}
		return RecordEntry(a), true
	default:
		return Entry{}, false
	}
}

// entriesFromValue drops elements that are neither strings nor maps.
func entriesFromValue(v any) []Entry {
	arr, ok := v.([]any)
	if !ok {
		return []Entry{}
	}
	out := make([]Entry, 0, len(arr))
	for _, el := range arr {
		if e, ok := entryFromValue(el); ok {
			out = append(out, e)
		}
	}
	return out
}

func entriesValue(entries []Entry) []any {
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = e.value()
	}
	return out
}

// removeMatching splits entries into those kept and whether any matched.
func removeMatching(entries []Entry, userID, uid string) ([]Entry, []Entry) {
	kept := make([]Entry, 0, len(entries))
	var removed []Entry
	for _, e := range entries {
		if e.Matches(userID, uid) {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	return kept, removed
}

func indexOf(entries []Entry, userID, uid string) int {
	for i, e := range entries {
		if e.Matches(userID, uid) {
			return i
		}
	}
	return -1
}
