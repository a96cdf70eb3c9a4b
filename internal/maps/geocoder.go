// README: Google Maps geocoding for trip addresses posted without coordinates.
package maps

import (
	"context"
	"errors"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/types"
)

var ErrNoResults = errors.New("no geocoding results")

// Geocoder resolves street addresses to coordinates with the Google Maps Geocoding API.
type Geocoder struct {
	client *maps.Client
	region string
}

// NewGeocoder creates a Geocoder with the given API key. Results are biased
// toward region (a ccTLD such as "co"); pass "" for no bias.
func NewGeocoder(apiKey, region string) (*Geocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Geocoder{client: client, region: region}, nil
}

// Geocode returns the coordinates of the best match for address.
func (g *Geocoder) Geocode(ctx context.Context, address string) (types.Point, error) {
	req := &maps.GeocodingRequest{
		Address: address,
		Region:  g.region,
	}
	results, err := g.client.Geocode(ctx, req)
	if err != nil {
		return types.Point{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(results) == 0 {
		return types.Point{}, ErrNoResults
	}
	loc := results[0].Geometry.Location
	return types.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}
