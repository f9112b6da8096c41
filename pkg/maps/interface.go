package maps

import "context"

// Geocoder resolves coordinates into human-readable addresses. Used at SOS
// intake to annotate a signal's location when the caller supplied none.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (*GeocodeResult, error)
}

type GeocodeResult struct {
	PlaceID string `json:"place_id"`
	Address string `json:"formatted_address"`
}
