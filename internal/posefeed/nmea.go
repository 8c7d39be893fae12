package posefeed

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/lanetrack/internal/geom"
)

const (
	// Mean spherical Earth radius in meters, used by the local planar
	// projection.
	earthRadiusMeters = 6371000.0

	// RMC ground speed is reported in knots.
	knotsToMetersPerSecond = 0.514444
)

// Datum anchors the local planar frame in geodetic coordinates
// (degrees). Lane files and pose telemetry all live in this frame.
type Datum struct {
	Lat float64
	Lon float64
}

// Project maps a geodetic position to local planar meters using an
// equirectangular approximation around the datum. X grows east, Y grows
// north. The approximation holds to centimeters over the few kilometers
// a lane covers.
func (d Datum) Project(lat, lon float64) (x, y float64) {
	x = earthRadiusMeters * geom.Deg2Rad(lon-d.Lon) * math.Cos(geom.Deg2Rad(d.Lat))
	y = earthRadiusMeters * geom.Deg2Rad(lat-d.Lat)
	return x, y
}

// fix is the usable content of one position sentence.
type fix struct {
	lat, lon  float64
	hasSpeed  bool
	speedMPS  float64
	hasCourse bool
	courseDeg float64 // degrees clockwise from true north
	hasAlt    bool
	altitude  float64 // meters above mean sea level
}

// checksumOK reports whether line is a framed NMEA sentence with a
// valid XOR checksum ($...*hh).
func checksumOK(line string) bool {
	if len(line) < 4 || line[0] != '$' {
		return false
	}
	star := strings.LastIndexByte(line, '*')
	if star < 1 || star+3 > len(line) {
		return false
	}
	want, err := strconv.ParseUint(line[star+1:star+3], 16, 8)
	if err != nil {
		return false
	}
	var sum byte
	for i := 1; i < star; i++ {
		sum ^= line[i]
	}
	return sum == byte(want)
}

// parseCoord converts the NMEA ddmm.mmmm (latitude) or dddmm.mmmm
// (longitude) form to signed decimal degrees.
func parseCoord(value, hemi string) (float64, error) {
	degDigits := 2
	switch hemi {
	case "N", "S":
	case "E", "W":
		degDigits = 3
	default:
		return 0, fmt.Errorf("invalid hemisphere %q", hemi)
	}
	if len(value) < degDigits+2 {
		return 0, fmt.Errorf("coordinate %q too short", value)
	}
	deg, err := strconv.ParseFloat(value[:degDigits], 64)
	if err != nil {
		return 0, err
	}
	min, err := strconv.ParseFloat(value[degDigits:], 64)
	if err != nil {
		return 0, err
	}
	dec := deg + min/60.0
	if hemi == "S" || hemi == "W" {
		dec = -dec
	}
	return dec, nil
}

// parseSentence extracts a fix from a checksum-valid sentence. It
// returns false for sentence types other than RMC and GGA, and for
// sentences without a usable position (RMC void status, GGA fix
// quality 0).
func parseSentence(line string) (fix, bool) {
	star := strings.LastIndexByte(line, '*')
	if star < 1 {
		return fix{}, false
	}
	parts := strings.Split(line[1:star], ",")
	if len(parts) == 0 {
		return fix{}, false
	}

	switch {
	case strings.HasSuffix(parts[0], "RMC"):
		return parseRMC(parts)
	case strings.HasSuffix(parts[0], "GGA"):
		return parseGGA(parts)
	}
	return fix{}, false
}

func parseRMC(parts []string) (fix, bool) {
	if len(parts) < 9 || parts[2] != "A" {
		return fix{}, false
	}
	lat, err := parseCoord(parts[3], parts[4])
	if err != nil {
		return fix{}, false
	}
	lon, err := parseCoord(parts[5], parts[6])
	if err != nil {
		return fix{}, false
	}

	f := fix{lat: lat, lon: lon}
	if parts[7] != "" {
		if knots, err := strconv.ParseFloat(parts[7], 64); err == nil {
			f.hasSpeed = true
			f.speedMPS = knots * knotsToMetersPerSecond
		}
	}
	if parts[8] != "" {
		if course, err := strconv.ParseFloat(parts[8], 64); err == nil {
			f.hasCourse = true
			f.courseDeg = course
		}
	}
	return f, true
}

func parseGGA(parts []string) (fix, bool) {
	if len(parts) < 10 || parts[6] == "" || parts[6] == "0" {
		return fix{}, false
	}
	lat, err := parseCoord(parts[2], parts[3])
	if err != nil {
		return fix{}, false
	}
	lon, err := parseCoord(parts[4], parts[5])
	if err != nil {
		return fix{}, false
	}

	f := fix{lat: lat, lon: lon}
	if parts[9] != "" {
		if alt, err := strconv.ParseFloat(parts[9], 64); err == nil {
			f.hasAlt = true
			f.altitude = alt
		}
	}
	return f, true
}
