// Package geo provides the spatial and temporal primitives used by the
// clustering engine: coordinate validation, haversine distance, centroids,
// geohash encoding and date-range helpers. Everything here is pure math.
package geo

import (
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// ErrMalformedTimestamp is returned when a timestamp string cannot be parsed.
// A photo carrying one is a contract violation by the caller, not something
// to coerce silently.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// Point is a geographic coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether a lat/lng pair is a usable GPS fix.
// The (0,0) sentinel is rejected: cameras write it when no fix was available.
func Valid(lat, lng float64) bool {
	if lat < -90 || lat > 90 {
		return false
	}
	if lng < -180 || lng > 180 {
		return false
	}
	if lat == 0 && lng == 0 {
		return false
	}
	return true
}

// DistanceMeters returns the haversine distance between two points in meters.
func DistanceMeters(a, b Point) float64 {
	return orbgeo.DistanceHaversine(orb.Point{a.Lng, a.Lat}, orb.Point{b.Lng, b.Lat})
}

// Centroid returns the arithmetic mean of the given points.
// Returns an error for an empty slice: a cluster without GPS points is a bug.
func Centroid(points []Point) (Point, error) {
	if len(points) == 0 {
		return Point{}, errors.New("cannot compute centroid of zero points")
	}
	var sumLat, sumLng float64
	for _, p := range points {
		sumLat += p.Lat
		sumLng += p.Lng
	}
	n := float64(len(points))
	return Point{Lat: sumLat / n, Lng: sumLng / n}, nil
}

// ParseTime parses an RFC3339 timestamp, wrapping failures in
// ErrMalformedTimestamp so callers can detect them with errors.Is.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
	}
	return t, nil
}

// DateRange is a closed interval over photo timestamps.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RangeOf returns the [min, max] interval over the given times.
// The zero DateRange is returned for an empty slice.
func RangeOf(times []time.Time) DateRange {
	if len(times) == 0 {
		return DateRange{}
	}
	r := DateRange{Start: times[0], End: times[0]}
	for _, t := range times[1:] {
		if t.Before(r.Start) {
			r.Start = t
		}
		if t.After(r.End) {
			r.End = t
		}
	}
	return r
}

// SpanMinutes returns the width of the range in minutes.
func (r DateRange) SpanMinutes() float64 {
	if r.Start.IsZero() || r.End.IsZero() {
		return 0
	}
	return r.End.Sub(r.Start).Minutes()
}
