package location

import (
	"math"
	"testing"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/types"
)

func TestHaversineKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		a, b      types.Point
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "same point",
			a:         types.Point{Lat: 4.60971, Lng: -74.08175},
			b:         types.Point{Lat: 4.60971, Lng: -74.08175},
			wantKm:    0,
			tolerance: 0.001,
		},
		{
			name:      "Bogotá centro to Chía (~28km)",
			a:         types.Point{Lat: 4.6097, Lng: -74.0817},
			b:         types.Point{Lat: 4.8619, Lng: -74.0325},
			wantKm:    28.5,
			tolerance: 1.5,
		},
		{
			name:      "New York to Los Angeles (~3944km)",
			a:         types.Point{Lat: 40.7128, Lng: -74.0060},
			b:         types.Point{Lat: 34.0522, Lng: -118.2437},
			wantKm:    3944,
			tolerance: 50,
		},
		{
			name:      "one degree of latitude (~111km)",
			a:         types.Point{Lat: 0, Lng: 0},
			b:         types.Point{Lat: 1, Lng: 0},
			wantKm:    111.19,
			tolerance: 0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("HaversineKm() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestHaversineKm_Symmetric(t *testing.T) {
	pairs := [][2]types.Point{
		{{Lat: 4.65, Lng: -74.05}, {Lat: 4.70, Lng: -74.10}},
		{{Lat: -33.45, Lng: -70.66}, {Lat: 51.5, Lng: -0.12}},
		{{Lat: 10, Lng: 179.9}, {Lat: 10, Lng: -179.9}},
	}
	for _, p := range pairs {
		ab := HaversineKm(p[0], p[1])
		ba := HaversineKm(p[1], p[0])
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("asymmetric: %f vs %f", ab, ba)
		}
		if ab < 0 {
			t.Errorf("negative distance %f", ab)
		}
	}
}

func TestDistancePointToSegmentKm(t *testing.T) {
	a := types.Point{Lat: 4.60, Lng: -74.08}
	b := types.Point{Lat: 4.70, Lng: -74.04}

	t.Run("endpoints are on the segment", func(t *testing.T) {
		if d := DistancePointToSegmentKm(a, a, b); d > 1e-9 {
			t.Errorf("distance to a = %f, want 0", d)
		}
		if d := DistancePointToSegmentKm(b, a, b); d > 1e-9 {
			t.Errorf("distance to b = %f, want 0", d)
		}
	})

	t.Run("midpoint is on the segment", func(t *testing.T) {
		mid := types.Point{Lat: (a.Lat + b.Lat) / 2, Lng: (a.Lng + b.Lng) / 2}
		if d := DistancePointToSegmentKm(mid, a, b); d > 1e-6 {
			t.Errorf("distance to midpoint = %f, want ~0", d)
		}
	})

	t.Run("beyond b clamps to b", func(t *testing.T) {
		beyond := types.Point{Lat: 4.75, Lng: -74.02}
		got := DistancePointToSegmentKm(beyond, a, b)
		want := HaversineKm(beyond, b)
		if math.Abs(got-want) > 0.01 {
			t.Errorf("clamped distance = %f, want ≈ %f", got, want)
		}
	})

	t.Run("degenerate segment uses distance to a", func(t *testing.T) {
		p := types.Point{Lat: 4.62, Lng: -74.07}
		got := DistancePointToSegmentKm(p, a, a)
		want := HaversineKm(p, a)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("degenerate = %f, want %f", got, want)
		}
	})

	t.Run("perpendicular offset", func(t *testing.T) {
		// Segment along the equator, point ~1.11km north of its middle.
		s1 := types.Point{Lat: 0, Lng: 0}
		s2 := types.Point{Lat: 0, Lng: 0.1}
		p := types.Point{Lat: 0.01, Lng: 0.05}
		got := DistancePointToSegmentKm(p, s1, s2)
		if math.Abs(got-1.112) > 0.01 {
			t.Errorf("perpendicular distance = %f, want ≈ 1.112", got)
		}
	})
}
