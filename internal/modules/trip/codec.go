// README: Conversion between stored documents and trip values.
package trip

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/docstore"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/types"
)

func stringOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case nil:
		return ""
	default:
		if f, ok := numberOf(t); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return ""
	}
}

func optionalString(v any) *string {
	s := stringOf(v)
	if s == "" {
		return nil
	}
	return &s
}

// numberOf accepts every numeric kind the backends produce, plus numeric strings.
func numberOf(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func pointFromValue(v any) *types.Point {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	lat, okLat := numberOf(m["lat"])
	lng, okLng := numberOf(m["lng"])
	if !okLat || !okLng {
		return nil
	}
	p := types.Point{Lat: lat, Lng: lng}
	if !p.Valid() {
		return nil
	}
	return &p
}

func placeFromValue(v any) *Place {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return &Place{Address: stringOf(m["address"]), Coordinates: pointFromValue(m["coordinates"])}
}

func placeValue(p *Place) any {
	if p == nil {
		return nil
	}
	var coords any
	if p.Coordinates != nil {
		coords = map[string]any{"lat": p.Coordinates.Lat, "lng": p.Coordinates.Lng}
	}
	return map[string]any{"address": p.Address, "coordinates": coords}
}

func tripFromDoc(doc *docstore.Document) *Trip {
	d := doc.Data
	t := &Trip{
		ID:            doc.ID,
		DriverID:      stringOf(d["driver_id"]),
		DriverUID:     stringOf(d["driver_uid"]),
		DriverEmail:   optionalString(d["driver_email"]),
		Time:          stringOf(d["time"]),
		Status:        Status(stringOf(d["status"])),
		Waitlist:      entriesFromValue(d["waitlist"]),
		PassengerList: entriesFromValue(d["passenger_list"]),
		CreatedAt:     stringOf(d["createdAt"]),
		UpdatedAt:     stringOf(d["updatedAt"]),
	}
	if p := placeFromValue(d["start"]); p != nil {
		t.Start = *p
	}
	if p := placeFromValue(d["destination"]); p != nil {
		t.Destination = *p
	}
	if n, ok := numberOf(d["seats"]); ok {
		t.Seats = int(n)
	}
	if n, ok := numberOf(d["fare"]); ok {
		t.Fare = n
	}
	if n, ok := numberOf(d["extra_minutes"]); ok {
		t.ExtraMinutes = n
	}
	if m, ok := d["driver"].(map[string]any); ok {
		t.Driver = &DriverInfo{
			UID:   stringOf(m["uid"]),
			Name:  optionalString(m["name"]),
			Email: optionalString(m["email"]),
			Photo: optionalString(m["photo"]),
		}
	}
	if m, ok := d["vehicle"].(map[string]any); ok {
		v := &VehicleInfo{
			VehicleID:    optionalString(m["vehicle_id"]),
			LicensePlate: optionalString(m["license_plate"]),
			Model:        optionalString(m["model"]),
		}
		if n, ok := numberOf(m["capacity"]); ok {
			v.Capacity = &n
		}
		t.Vehicle = v
	}
	return t
}

func stringPtrValue(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func tripValue(t *Trip) map[string]any {
	m := map[string]any{
		"driver_id":      t.DriverID,
		"driver_uid":     t.DriverUID,
		"driver_email":   stringPtrValue(t.DriverEmail),
		"start":          placeValue(&t.Start),
		"destination":    placeValue(&t.Destination),
		"time":           t.Time,
		"seats":          t.Seats,
		"fare":           t.Fare,
		"extra_minutes":  t.ExtraMinutes,
		"status":         string(t.Status),
		"waitlist":       entriesValue(t.Waitlist),
		"passenger_list": entriesValue(t.PassengerList),
		"createdAt":      t.CreatedAt,
		"updatedAt":      t.UpdatedAt,
	}
	if t.Driver != nil {
		m["driver"] = map[string]any{
			"uid":   t.Driver.UID,
			"name":  stringPtrValue(t.Driver.Name),
			"email": stringPtrValue(t.Driver.Email),
			"photo": stringPtrValue(t.Driver.Photo),
		}
	}
	if t.Vehicle != nil {
		var capacity any
		if t.Vehicle.Capacity != nil {
			capacity = *t.Vehicle.Capacity
		}
		m["vehicle"] = map[string]any{
			"vehicle_id":    stringPtrValue(t.Vehicle.VehicleID),
			"license_plate": stringPtrValue(t.Vehicle.LicensePlate),
			"model":         stringPtrValue(t.Vehicle.Model),
			"capacity":      capacity,
		}
	}
	return m
}
