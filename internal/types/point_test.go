package types

import (
	"math"
	"testing"
)

func TestPointValid(t *testing.T) {
	cases := []struct {
		name string
		p    Point
		want bool
	}{
		{"bogota", Point{Lat: 4.7545, Lng: -74.0463}, true},
		{"zero", Point{}, true},
		{"out of range but finite", Point{Lat: 91, Lng: 200}, true},
		{"nan lat", Point{Lat: math.NaN(), Lng: 1}, false},
		{"inf lng", Point{Lat: 1, Lng: math.Inf(-1)}, false},
	}
	for _, tc := range cases {
		if got := tc.p.Valid(); got != tc.want {
			t.Errorf("%s: Valid() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
