// README: Common value objects shared across modules.
package types

// ID is an opaque, server-assigned identifier.
type ID string

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
