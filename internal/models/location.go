package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Location is a parsed complaint location. Coordinates are only set when
// the text was a valid "lat, lng" pair.
type Location struct {
	Text      string
	Latitude  *float64
	Longitude *float64
}

// FormatCoordinates renders a position the way the geolocation button does.
func FormatCoordinates(lat, lng float64) string {
	return fmt.Sprintf("%.6f, %.6f", lat, lng)
}

// ParseLocation accepts free text or a coordinate pair. Anything that is not a
// valid pair is kept verbatim, so a failed geolocation never blocks a report.
func ParseLocation(raw string) Location {
	text := strings.TrimSpace(raw)
	loc := Location{Text: text}

	parts := strings.Split(text, ",")
	if len(parts) != 2 {
		return loc
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return loc
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lng < -180 || lng > 180 {
		return loc
	}

	loc.Text = FormatCoordinates(lat, lng)
	loc.Latitude = &lat
	loc.Longitude = &lng
	return loc
}
