// Package geo holds coordinate types and the Nominatim geocoding client.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// String renders the point with six decimals, the fallback label used when
// no place name can be resolved.
func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f, %.6f", c.Latitude, c.Longitude)
}

// Valid reports whether the point lies inside the WGS84 range.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// OutsideEnvelope reports whether c differs from center by more than
// threshold degrees on either axis.
func (c Coordinates) OutsideEnvelope(center Coordinates, threshold float64) bool {
	return math.Abs(c.Latitude-center.Latitude) > threshold ||
		math.Abs(c.Longitude-center.Longitude) > threshold
}

// MapsLink returns a Google Maps link pointing at c.
func (c Coordinates) MapsLink() string {
	return "https://www.google.com/maps?q=" +
		strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

// BBox is a lon/lat bounding box.
type BBox struct {
	MinLng, MinLat, MaxLng, MaxLat float64
}

// Contains reports whether c lies inside the box, edges included.
func (b BBox) Contains(c Coordinates) bool {
	return c.Latitude >= b.MinLat && c.Latitude <= b.MaxLat &&
		c.Longitude >= b.MinLng && c.Longitude <= b.MaxLng
}

// ParseBBox parses "minLng,minLat,maxLng,maxLat".
func ParseBBox(s string) (BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BBox{}, fmt.Errorf("need 4 numbers")
	}
	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BBox{}, fmt.Errorf("bbox value %d: %w", i, err)
		}
		vals[i] = v
	}
	b := BBox{MinLng: vals[0], MinLat: vals[1], MaxLng: vals[2], MaxLat: vals[3]}
	if b.MaxLng < b.MinLng || b.MaxLat < b.MinLat {
		return BBox{}, fmt.Errorf("max must be >= min")
	}
	return b, nil
}
