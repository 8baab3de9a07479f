package domain

import (
	"math"

	geohash "github.com/TomiHiltunen/geohash-golang"
)

// geohashPrecision gives cells of roughly 150m x 150m, fine enough for marker
// clustering on the client.
const geohashPrecision = 7

// Point is a WGS-84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundingBox is an inclusive lat/lng rectangle used as a sanity filter.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// ContainsLat reports whether lat lies within the box's latitude range.
func (b BoundingBox) ContainsLat(lat float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat
}

// ContainsLng reports whether lng lies within the box's longitude range.
func (b BoundingBox) ContainsLng(lng float64) bool {
	return lng >= b.MinLng && lng <= b.MaxLng
}

// Contains reports whether p lies within the box. NaN never does.
func (b BoundingBox) Contains(p Point) bool {
	return b.ContainsLat(p.Lat) && b.ContainsLng(p.Lng)
}

// Region bundles the bounding box with the state naming used to build and
// qualify geocoder queries.
type Region struct {
	Bounds    BoundingBox
	StateCode string // "MO"
	StateName string // "Missouri"
}

// MissouriRegion is the default region: a rectangle loosely enclosing Missouri.
func MissouriRegion() Region {
	return Region{
		Bounds:    BoundingBox{MinLat: 35, MaxLat: 41, MinLng: -96, MaxLng: -89},
		StateCode: "MO",
		StateName: "Missouri",
	}
}

// PlacementKind discriminates the three states a spreadsheet row can be in.
type PlacementKind int

const (
	Unplaceable PlacementKind = iota
	Located
	PendingGeocode
)

func (k PlacementKind) String() string {
	switch k {
	case Located:
		return "located"
	case PendingGeocode:
		return "pending_geocode"
	default:
		return "unplaceable"
	}
}

// Placement is a tagged variant: Located carries a point, PendingGeocode
// carries the synthesized address to resolve. The zero value is Unplaceable.
type Placement struct {
	kind        PlacementKind
	point       Point
	fullAddress string
}

// LocatedAt returns a Located placement.
func LocatedAt(p Point) Placement {
	return Placement{kind: Located, point: p}
}

// PendingAt returns a PendingGeocode placement. An empty address yields
// Unplaceable, which keeps "pending without an address" unrepresentable.
func PendingAt(fullAddress string) Placement {
	if fullAddress == "" {
		return Placement{}
	}
	return Placement{kind: PendingGeocode, fullAddress: fullAddress}
}

// Kind returns the placement discriminator.
func (p Placement) Kind() PlacementKind { return p.kind }

// Point returns the coordinates and true for Located placements.
func (p Placement) Point() (Point, bool) {
	return p.point, p.kind == Located
}

// FullAddress returns the geocoder input of a PendingGeocode placement.
func (p Placement) FullAddress() string { return p.fullAddress }

// Record is one assembled spreadsheet row.
type Record struct {
	ID                 string
	OrganizationName   string
	Address            string
	SiteTypeCategory   string
	TertiaryCategories string
	YearEstablished    string
	BuiltPlaced        string
	Placement          Placement
	Method             CoordinateMethod
}

// Resolve returns a copy of r located at p, used once geocoding succeeds.
func (r Record) Resolve(p Point) Record {
	r.Placement = LocatedAt(p)
	return r
}

// LocationRecord is the flat shape the map UI consumes.
type LocationRecord struct {
	ID                 string   `json:"id"`
	OrganizationName   string   `json:"organizationName"`
	Address            string   `json:"address"`
	SiteTypeCategory   string   `json:"siteTypeCategory"`
	TertiaryCategories string   `json:"tertiaryCategories"`
	YearEstablished    string   `json:"yearEstablished"`
	BuiltPlaced        string   `json:"builtPlaced"`
	Lat                float64  `json:"lat"`
	Lng                float64  `json:"lng"`
	NeedsGeocoding     bool     `json:"needsGeocoding,omitempty"`
	FullAddress        string   `json:"fullAddress,omitempty"`
	Distance           *float64 `json:"distance,omitempty"`
	Geohash            string   `json:"geohash,omitempty"`
	LocURL             string   `json:"locUrl,omitempty"`
}

// Flatten collapses the placement variant into the flat API record. Pending
// records get the (0,0) placeholder coordinates the UI expects.
func (r Record) Flatten() LocationRecord {
	out := LocationRecord{
		ID:                 r.ID,
		OrganizationName:   r.OrganizationName,
		Address:            r.Address,
		SiteTypeCategory:   r.SiteTypeCategory,
		TertiaryCategories: r.TertiaryCategories,
		YearEstablished:    r.YearEstablished,
		BuiltPlaced:        r.BuiltPlaced,
		LocURL:             LOCURLForCategory(r.SiteTypeCategory),
	}
	switch r.Placement.Kind() {
	case Located:
		p := r.Placement.point
		out.Lat = p.Lat
		out.Lng = p.Lng
		out.Geohash = geohash.EncodeWithPrecision(p.Lat, p.Lng, geohashPrecision)
	case PendingGeocode:
		out.NeedsGeocoding = true
		out.FullAddress = r.Placement.fullAddress
	}
	return out
}

// Flatten converts a ranked record, attaching the distance when it is finite.
func (r Ranked) Flatten() LocationRecord {
	out := r.Record.Flatten()
	if !math.IsInf(r.Distance, 0) && !math.IsNaN(r.Distance) {
		d := r.Distance
		out.Distance = &d
	}
	return out
}

// FlattenAll flattens a record slice in order.
func FlattenAll(records []Record) []LocationRecord {
	out := make([]LocationRecord, len(records))
	for i := range records {
		out[i] = records[i].Flatten()
	}
	return out
}
