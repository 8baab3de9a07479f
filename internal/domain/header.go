package domain

import "strings"

// MinColumns is the smallest token count a data row may have. Shorter rows are
// treated as structurally incomplete and skipped.
const MinColumns = 5

// Field is a canonical spreadsheet column.
type Field string

const (
	FieldOrganizationName   Field = "organizationName"
	FieldAddress            Field = "address"
	FieldLocality           Field = "locality"
	FieldCounty             Field = "county"
	FieldPostalCode         Field = "postalCode"
	FieldSiteTypeCategory   Field = "siteTypeCategory"
	FieldTertiaryCategories Field = "tertiaryCategories"
	FieldYearEstablished    Field = "yearEstablished"
	FieldBuiltPlaced        Field = "builtPlaced"
	FieldLatitude           Field = "latitude"
	FieldLongitude          Field = "longitude"
	FieldCoordinates        Field = "coordinates"
)

const (
	orgHeader     = "Organization OR Place > Civic Structure > Museum OR Place > LocalBusiness > Library"
	addressHeader = "address OR postalAddress (streetAddress OR postOfficeBoxNumber)"
	yearHeader    = "YEAR ESTABLISHED, BUILT OR PLACED?"
)

// fieldAliases lists, per canonical field, the raw header spellings seen across
// spreadsheet revisions, highest priority first.
var fieldAliases = map[Field][]string{
	FieldOrganizationName: {
		orgHeader, "organizationName", "name", "Name", "NAME",
		"Organization Name", "ORGANIZATION_NAME", "title", "Title",
	},
	FieldAddress: {
		addressHeader, "address", "Address", "ADDRESS",
		"streetAddress", "Street Address", "location", "Location",
	},
	FieldLocality: {
		"addressLocality", "Address Locality", "city", "City", "CITY", "locality", "Locality",
	},
	FieldCounty: {
		"COUNTY", "County", "county",
	},
	FieldPostalCode: {
		"postalCode", "Postal Code", "POSTAL_CODE", "zip", "Zip", "ZIP",
	},
	FieldSiteTypeCategory: {
		"SITE TYPE CATEGORY", "siteTypeCategory", "category", "Category", "CATEGORY",
		"Site Type Category", "SITE_TYPE_CATEGORY", "type", "Type",
	},
	FieldTertiaryCategories: {
		"TERTIARY CATS", "tertiaryCategories", "tags", "Tags", "TAGS",
		"Tertiary Categories", "TERTIARY_CATEGORIES", "subcategories", "Subcategories",
	},
	FieldYearEstablished: {
		yearHeader, "yearEstablished", "YearEstablished", "YEAR_ESTABLISHED",
		"Year Established", "established", "Established",
	},
	FieldBuiltPlaced: {
		yearHeader, "builtPlaced", "BuiltPlaced", "BUILT_PLACED",
		"Built/Placed", "built", "Built",
	},
	FieldLatitude: {
		"lat", "latitude", "Lat", "Latitude", "LAT", "LATITUDE",
	},
	FieldLongitude: {
		"lng", "longitude", "Lng", "Longitude", "LNG", "LONGITUDE", "lon", "Lon", "LON",
	},
	FieldCoordinates: {
		"GeoCoordinates (DMM)", "GeoCoordinates (DD)", "GeoCoordinates", "Coordinates", "coordinates",
	},
}

// Aliases returns the alias list for a field, highest priority first.
func Aliases(f Field) []string {
	return fieldAliases[f]
}

// RawRow maps raw header names to cell values for one spreadsheet line.
type RawRow map[string]string

// Resolve returns the value of the first alias of f present with a non-empty
// value, or "".
func (r RawRow) Resolve(f Field) string {
	for _, alias := range fieldAliases[f] {
		if v := r[alias]; v != "" {
			return v
		}
	}
	return ""
}

// Header is the positional column layout taken from the first spreadsheet row.
type Header struct {
	names []string
	index map[string]int
}

// NewHeader builds a Header from tokenized header cells. Quotes are removed and
// names trimmed. When a name repeats, the first position wins in Index.
func NewHeader(tokens []string) Header {
	h := Header{
		names: make([]string, len(tokens)),
		index: make(map[string]int, len(tokens)),
	}
	for i, tok := range tokens {
		name := cleanCell(tok)
		h.names[i] = name
		if _, seen := h.index[name]; !seen {
			h.index[name] = i
		}
	}
	return h
}

// Names returns the cleaned header names in column order.
func (h Header) Names() []string {
	return h.names
}

// Index returns the column position of a header name.
func (h Header) Index(name string) (int, bool) {
	i, ok := h.index[name]
	return i, ok
}

// Row labels a data row's tokens with header names. Rows shorter than
// MinColumns are rejected. Tokens beyond the header, and header entries beyond
// the token count, are left unset.
//
// A header name that repeats takes the value of its last column.
func (h Header) Row(tokens []string) (RawRow, bool) {
	if len(tokens) < MinColumns {
		return nil, false
	}
	n := min(len(tokens), len(h.names))
	row := make(RawRow, n)
	for i := 0; i < n; i++ {
		row[h.names[i]] = cleanCell(tokens[i])
	}
	return row, true
}

func cleanCell(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}
