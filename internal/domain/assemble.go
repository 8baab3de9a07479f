package domain

import (
	"strconv"
	"strings"
)

// DefaultSiteType is used when a row has no category.
const DefaultSiteType = "Unknown"

// AssembleRecord turns a labelled row into a Record. rowIndex is the row's
// line number in the source and becomes part of its ID.
//
// A row is kept when its coordinates normalize inside the region, or when it
// has both a street address and a locality to geocode. Any other row is
// dropped (ok == false).
func AssembleRecord(rowIndex int, row RawRow, region Region) (Record, bool) {
	idx := strconv.Itoa(rowIndex)
	rec := Record{
		ID:                 "location-" + idx,
		OrganizationName:   firstNonEmpty(row.Resolve(FieldOrganizationName), "Location "+idx),
		Address:            row.Resolve(FieldAddress),
		SiteTypeCategory:   firstNonEmpty(row.Resolve(FieldSiteTypeCategory), DefaultSiteType),
		TertiaryCategories: row.Resolve(FieldTertiaryCategories),
		YearEstablished:    row.Resolve(FieldYearEstablished),
		BuiltPlaced:        row.Resolve(FieldBuiltPlaced),
		Method:             MethodNone,
	}

	if p, method, ok := NormalizeCoordinates(row, region.Bounds); ok {
		rec.Placement = LocatedAt(p)
		rec.Method = method
		return rec, true
	}

	street := strings.TrimSpace(rec.Address)
	locality := strings.TrimSpace(row.Resolve(FieldLocality))
	if street == "" || locality == "" {
		return Record{}, false
	}
	rec.Placement = PendingAt(FullAddress(street, locality, row.Resolve(FieldCounty), row.Resolve(FieldPostalCode), region))
	return rec, rec.Placement.Kind() == PendingGeocode
}

// FullAddress synthesizes a geocoder query such as
// "201 W Capitol Ave, Jefferson City, Cole, MO 65101". Empty parts are left
// out rather than producing ", ,".
func FullAddress(street, locality, county, postal string, region Region) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{street, locality, county} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	parts = append(parts, strings.TrimSpace(region.StateCode+" "+strings.TrimSpace(postal)))
	return CollapseAddress(strings.Join(parts, ", "))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
