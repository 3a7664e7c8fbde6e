package utils

import (
	"fmt"

	"github.com/paulmach/orb"
)

// ValidLongitude reports whether a longitude is within -180..180.
func ValidLongitude(lon float64) bool {
	return lon >= -180 && lon <= 180
}

// ValidLatitude reports whether a latitude is within -90..90.
func ValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

// ValidCoordinate reports whether a point carries usable WGS84
// coordinates.
func ValidCoordinate(p orb.Point) bool {
	return ValidLongitude(p.Lon()) && ValidLatitude(p.Lat())
}

// CheckCoordinate returns a descriptive error for an out-of-range point.
func CheckCoordinate(p orb.Point) error {
	if !ValidLongitude(p.Lon()) {
		return fmt.Errorf("longitude %f out of range (-180 to 180)", p.Lon())
	}
	if !ValidLatitude(p.Lat()) {
		return fmt.Errorf("latitude %f out of range (-90 to 90)", p.Lat())
	}
	return nil
}
