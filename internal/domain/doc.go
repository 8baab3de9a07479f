// Package domain models the Missouri Crossroads location spreadsheet and the
// rules for turning its rows into map-ready location records.
//
// # Data Source
//
// The data set is a hand-maintained spreadsheet of historical sites, exported
// to CSV (or uploaded as XLSX) and stored under the "metadata/" prefix of the
// project bucket. Contributors have edited it for years, so the header row has
// several spellings for the same column and the coordinate columns use mixed
// notations.
//
// # Spreadsheet Conventions
//
// Header aliases:
//
//	The schema.org-flavored headers of the current revision
//	("Organization OR Place > Civic Structure > Museum OR ...",
//	"address OR postalAddress (streetAddress OR postOfficeBoxNumber)",
//	"addressLocality", "COUNTY", "postalCode") coexist with friendlier
//	spellings ("Organization Name", "name", "Address") and legacy
//	SCREAMING_CASE variants. Each canonical [Field] has a prioritized alias
//	list; the first alias with a non-empty value wins. See [RawRow.Resolve].
//
// Coordinate notations, tried in order by [NormalizeCoordinates]:
//
//	Dedicated decimal columns:  lat="38.6247"  lng="-90.1848"
//	Decimal pair in one field:  "38.6247, -90.1848"
//	DMS or DMM, either order:   "N39° 11' 23.6\" W93° 52' 33.8\""
//	                            "W92°44'34 N38°58'25"
//	                            "N39 11.234 W93 52.567"
//
// Placeholders:
//
//	"FILL", "N/A", "Unknown", anything containing "Can't Find", and strings
//	shorter than five characters mean "no coordinate" and are never parsed.
//
// Bounding box:
//
//	Every parsed or geocoded coordinate must fall inside the configured
//	[BoundingBox]. The Missouri approximation (lat 35..41, lng -96..-89) is the
//	default. It is the main guard against transcription errors such as swapped
//	digits; format variety is accepted rather than rejected.
//
// # Placement
//
// A [Record] is either located (it has coordinates), pending geocoding (it has
// a synthesized street address but no coordinates), or unplaceable. Only the
// first two are ever emitted. The flat [LocationRecord] used by the map UI is
// produced at the API boundary by [Record.Flatten].
//
// # Distances
//
// Proximity ranking uses great-circle distance with an Earth radius of 3959
// miles. Records without coordinates get an infinite distance and sort last,
// so the sidebar can still list them. See [Rank].
package domain
