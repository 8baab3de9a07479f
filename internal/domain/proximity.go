package domain

import (
	"math"
	"slices"

	"github.com/golang/geo/s2"
)

// EarthRadiusMiles is the sphere radius used for all distances.
const EarthRadiusMiles = 3959.0

// RankMode names the selection policy Rank applied.
type RankMode string

const (
	RankNone     RankMode = "none"
	RankViewport RankMode = "viewport"
	RankRegional RankMode = "regional"
	RankGeneral  RankMode = "general"
)

// RankPolicy holds the caps and radii used by Rank.
type RankPolicy struct {
	ViewportLimit int
	GeneralLimit  int

	// A reference point within MetroDetectMiles of MetroCenter switches
	// non-viewport requests to regional mode: records within
	// RegionalRadiusMiles of the center, measured from the center.
	MetroCenter         Point
	MetroDetectMiles    float64
	RegionalRadiusMiles float64
}

// DefaultRankPolicy centers the regional mode on downtown St. Louis.
func DefaultRankPolicy() RankPolicy {
	return RankPolicy{
		ViewportLimit:       200,
		GeneralLimit:        500,
		MetroCenter:         Point{Lat: 38.6270, Lng: -90.1994},
		MetroDetectMiles:    50,
		RegionalRadiusMiles: 100,
	}
}

// Ranked pairs a record with its distance in miles from the reference point.
// Unlocated records carry +Inf.
type Ranked struct {
	Record   Record
	Distance float64
}

// DistanceMiles returns the great-circle distance between two points.
func DistanceMiles(a, b Point) float64 {
	angle := s2.LatLngFromDegrees(a.Lat, a.Lng).Distance(s2.LatLngFromDegrees(b.Lat, b.Lng))
	return angle.Radians() * EarthRadiusMiles
}

// Rank orders records by proximity to ref and bounds the result by policy.
// With no reference point the records keep row order and carry no distance.
// Sorting is stable, so unlocated records keep their relative order at the
// end of the result.
func Rank(records []Record, ref *Point, viewport bool, policy RankPolicy) ([]Ranked, RankMode) {
	if ref == nil {
		out := make([]Ranked, len(records))
		for i, r := range records {
			out[i] = Ranked{Record: r, Distance: math.Inf(1)}
		}
		return out, RankNone
	}

	switch {
	case viewport:
		return capRanked(sortByDistance(records, *ref), policy.ViewportLimit), RankViewport
	case DistanceMiles(*ref, policy.MetroCenter) <= policy.MetroDetectMiles:
		return regional(records, policy), RankRegional
	default:
		return capRanked(sortByDistance(records, *ref), policy.GeneralLimit), RankGeneral
	}
}

func distanceFrom(r Record, ref Point) float64 {
	p, ok := r.Placement.Point()
	if !ok {
		return math.Inf(1)
	}
	return DistanceMiles(p, ref)
}

func sortByDistance(records []Record, ref Point) []Ranked {
	out := make([]Ranked, len(records))
	for i, r := range records {
		out[i] = Ranked{Record: r, Distance: distanceFrom(r, ref)}
	}
	slices.SortStableFunc(out, compareDistance)
	return out
}

func regional(records []Record, policy RankPolicy) []Ranked {
	var near, unlocated []Ranked
	for _, r := range records {
		d := distanceFrom(r, policy.MetroCenter)
		switch {
		case math.IsInf(d, 1):
			unlocated = append(unlocated, Ranked{Record: r, Distance: d})
		case d <= policy.RegionalRadiusMiles:
			near = append(near, Ranked{Record: r, Distance: d})
		}
	}
	slices.SortStableFunc(near, compareDistance)
	return append(near, unlocated...)
}

func compareDistance(a, b Ranked) int {
	switch {
	case a.Distance < b.Distance:
		return -1
	case a.Distance > b.Distance:
		return 1
	default:
		return 0
	}
}

func capRanked(in []Ranked, limit int) []Ranked {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}
