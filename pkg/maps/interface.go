package maps

import "context"

type MapsProvider interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (*GeocodeResponse, error)
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type GeocodeResult struct {
	PlaceID     string   `json:"place_id"`
	Address     string   `json:"address"`
	Coordinates Location `json:"coordinates"`
	Types       []string `json:"types"`
}

type GeocodeResponse struct {
	Results []GeocodeResult `json:"results"`
}

func (r *GeocodeResponse) FirstAddress() string {
	if r == nil || len(r.Results) == 0 {
		return ""
	}
	return r.Results[0].Address
}
