// README: Pure geographic helpers (great-circle and point-to-segment distances).
package location

import (
	"math"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/types"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func HaversineKm(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// DistancePointToSegmentKm approximates the distance from p to the segment a→b.
// It projects onto a local plane scaled by the cosine of the segment's mean
// latitude, so it is only accurate at city scale (tens of kilometres).
func DistancePointToSegmentKm(p, a, b types.Point) float64 {
	meanLat := degreesToRadians((a.Lat + b.Lat) / 2)
	kx := math.Cos(meanLat) * earthRadiusKm * math.Pi / 180
	ky := earthRadiusKm * math.Pi / 180

	ax, ay := a.Lng*kx, a.Lat*ky
	bx, by := b.Lng*kx, b.Lat*ky
	px, py := p.Lng*kx, p.Lat*ky

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return HaversineKm(p, a)
	}

	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))

	cx, cy := ax+t*dx, ay+t*dy
	return math.Hypot(px-cx, py-cy)
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
