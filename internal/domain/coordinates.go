package domain

import (
	"fmt"
	"math"
)

// Immutable geographic coordinates (longitude, latitude).
type Coordinates struct {
	Lon float64 `json:"longitude"`
	Lat float64 `json:"latitude"`
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Key returns a stable cache key ("lat,lon" at 6 decimals).
func (c Coordinates) Key() string { return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon) }

// Validate rejects latitudes outside [-90, 90], longitudes outside
// [-180, 180] and non-finite values.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return &CoordinateError{Field: "latitude", Value: c.Lat}
	}
	if math.IsNaN(c.Lon) || c.Lon < -180 || c.Lon > 180 {
		return &CoordinateError{Field: "longitude", Value: c.Lon}
	}
	return nil
}
