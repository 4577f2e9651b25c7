package domain

import "fmt"

// Immutable geographic point in decimal degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Return coordinates as [lng, lat] for external API compatibility.
func (l Location) CoordsToList() []float64 { return []float64{l.Lng, l.Lat} }

// Valid reports whether the point lies inside the WGS84 coordinate ranges.
func (l Location) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

func (l Location) String() string {
	return fmt.Sprintf("%.6f,%.6f", l.Lat, l.Lng)
}
