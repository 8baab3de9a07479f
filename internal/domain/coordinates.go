package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// CoordinateMethod reports which notation produced a record's coordinates.
type CoordinateMethod string

const (
	MethodNone    CoordinateMethod = "none"
	MethodDecimal CoordinateMethod = "decimal"
	MethodPair    CoordinateMethod = "pair"
	MethodDMS     CoordinateMethod = "dms"
)

// minCoordinateLen is the shortest string treated as a real value.
const minCoordinateLen = 5

var (
	pairPattern        = regexp.MustCompile(`^(-?\d+\.\d+)\s*[,\s]\s*(-?\d+\.\d+)`)
	bareDecimalPattern = regexp.MustCompile(`^-?\d+\.\d+$`)
	symbolReplacer     = strings.NewReplacer(
		"°", " ", "º", " ", "′", " ", "″", " ",
		"'", " ", `"`, " ", "`", " ", "’", " ", "”", " ",
	)

	// Direction-first ("N39 11 23.6") and direction-last ("39 11 23.6 N")
	// shapes, one pair per axis. Seconds are optional, which makes
	// "N39 11.234" a DMM value.
	latLeading  = regexp.MustCompile(`(?i)([NS])\s*(\d+)\s+(\d+(?:\.\d+)?)(?:\s+(\d+(?:\.\d+)?))?`)
	latTrailing = regexp.MustCompile(`(?i)(\d+)\s+(\d+(?:\.\d+)?)(?:\s+(\d+(?:\.\d+)?))?\s*([NS])`)
	lngLeading  = regexp.MustCompile(`(?i)([EW])\s*(\d+)\s+(\d+(?:\.\d+)?)(?:\s+(\d+(?:\.\d+)?))?`)
	lngTrailing = regexp.MustCompile(`(?i)(\d+)\s+(\d+(?:\.\d+)?)(?:\s+(\d+(?:\.\d+)?))?\s*([EW])`)
)

// IsPlaceholder reports whether s is one of the spreadsheet's "no value"
// markers, or too short to carry a real value.
func IsPlaceholder(s string) bool {
	s = strings.TrimSpace(s)
	switch {
	case s == "FILL", s == "N/A", s == "Unknown":
		return true
	case strings.Contains(s, "Can't Find"), strings.Contains(s, "Can’t Find"):
		return true
	}
	return len(s) < minCoordinateLen
}

// NormalizeCoordinates extracts a point from a row, trying dedicated decimal
// columns, then a decimal pair in the combined field, then DMS/DMM text. Every
// candidate must fall inside box.
func NormalizeCoordinates(row RawRow, box BoundingBox) (Point, CoordinateMethod, bool) {
	if p, ok := parseDecimalColumns(row, box); ok {
		return p, MethodDecimal, true
	}

	combined := strings.TrimSpace(row.Resolve(FieldCoordinates))
	if combined == "" || IsPlaceholder(combined) {
		return Point{}, MethodNone, false
	}
	if p, ok := parsePair(combined); ok {
		if box.Contains(p) {
			return p, MethodPair, true
		}
		return Point{}, MethodNone, false
	}
	if p, ok := ParseDMS(combined, box); ok {
		return p, MethodDMS, true
	}
	return Point{}, MethodNone, false
}

func parseDecimalColumns(row RawRow, box BoundingBox) (Point, bool) {
	lat, okLat := parseDegrees(row.Resolve(FieldLatitude))
	lng, okLng := parseDegrees(row.Resolve(FieldLongitude))
	if !okLat || !okLng || !box.ContainsLat(lat) || !box.ContainsLng(lng) {
		return Point{}, false
	}
	return Point{Lat: lat, Lng: lng}, true
}

func parseDegrees(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "°", ""))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parsePair(s string) (Point, bool) {
	m := pairPattern.FindStringSubmatch(s)
	if m == nil {
		return Point{}, false
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Point{}, false
	}
	lng, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Point{}, false
	}
	return Point{Lat: lat, Lng: lng}, true
}

// ParseDMS converts degree/minute/second or degree/decimal-minute text with
// N/S and E/W direction letters, in either order, to a point inside box.
// A bare decimal number is not DMS.
func ParseDMS(s string, box BoundingBox) (Point, bool) {
	s = strings.TrimSpace(s)
	if IsPlaceholder(s) || bareDecimalPattern.MatchString(strings.Join(strings.Fields(s), "")) {
		return Point{}, false
	}
	clean := strings.Join(strings.Fields(symbolReplacer.Replace(s)), " ")

	lat, ok := firstAxisValue(clean, latLeading, latTrailing, "S", box.ContainsLat)
	if !ok {
		return Point{}, false
	}
	lng, ok := firstAxisValue(clean, lngLeading, lngTrailing, "W", box.ContainsLng)
	if !ok {
		return Point{}, false
	}
	return Point{Lat: lat, Lng: lng}, true
}

// firstAxisValue returns the first in-range value among all direction-first
// and direction-last matches. Trying every candidate matters for strings such
// as "W92 44 34 N38 58 25", where the trailing shape for latitude would
// otherwise swallow the longitude digits.
func firstAxisValue(s string, leading, trailing *regexp.Regexp, negative string, inRange func(float64) bool) (float64, bool) {
	for _, m := range leading.FindAllStringSubmatch(s, -1) {
		if v, ok := dmsValue(m[1], m[2], m[3], m[4], negative); ok && inRange(v) {
			return v, true
		}
	}
	for _, m := range trailing.FindAllStringSubmatch(s, -1) {
		if v, ok := dmsValue(m[4], m[1], m[2], m[3], negative); ok && inRange(v) {
			return v, true
		}
	}
	return 0, false
}

func dmsValue(dir, deg, minutes, seconds, negative string) (float64, bool) {
	d, err := strconv.ParseFloat(deg, 64)
	if err != nil {
		return 0, false
	}
	m, err := strconv.ParseFloat(minutes, 64)
	if err != nil || m >= 60 {
		return 0, false
	}
	v := d + m/60
	if seconds != "" {
		sec, err := strconv.ParseFloat(seconds, 64)
		if err != nil || sec >= 60 {
			return 0, false
		}
		v += sec / 3600
	}
	if strings.EqualFold(dir, negative) {
		v = -v
	}
	return v, true
}
