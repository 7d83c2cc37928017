package ghcn

import (
	"context"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"
)

// GoogleGeocoder resolves place names through the Google Geocoding API.
// It implements climate.Geocoder.
type GoogleGeocoder struct {
	// geocoder keeps its API key in a package variable.
	mu     sync.Mutex
	apiKey string
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{apiKey: apiKey}
}

func (g *GoogleGeocoder) Locate(ctx context.Context, place string) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	if g.apiKey == "" {
		return 0, 0, fmt.Errorf("geocoding: api key is not configured")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	geocoder.ApiKey = g.apiKey
	loc, err := geocoder.Geocoding(geocoder.Address{City: place})
	if err != nil {
		return 0, 0, fmt.Errorf("geocoding: %w", err)
	}
	return loc.Latitude, loc.Longitude, nil
}
