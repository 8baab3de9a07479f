package domain

type sampleSite struct {
	id, name, established, built, address, category, tags string
	lat, lng                                              float64
}

var sampleSites = []sampleSite{
	{"1", "Missouri State Capitol", "1917", "1917", "201 W Capitol Ave, Jefferson City, MO 65101", "Civic Structure", "Government, Historic", 38.5791, -92.1729},
	{"2", "Gateway Arch", "1965", "1965", "St Louis, MO 63102", "Monument", "Historic, Landmark", 38.6247, -90.1848},
	{"3", "Kansas City Public Library", "1873", "2004", "14 W 10th St, Kansas City, MO 64105", "Library", "Education, Public", 39.0997, -94.5786},
	{"4", "University of Missouri", "1839", "1839", "Columbia, MO 65211", "Educational Institution", "University, Education", 38.9404, -92.3277},
	{"5", "Harry S. Truman Presidential Library", "1957", "1957", "500 W US Hwy 24, Independence, MO 64050", "Museum", "Presidential, Historic", 39.0923, -94.4216},
	{"6", "Nelson-Atkins Museum of Art", "1933", "1933", "4525 Oak St, Kansas City, MO 64111", "Museum", "Art, Culture", 39.0444, -94.5812},
	{"7", "Mark Twain Boyhood Home & Museum", "1937", "1844", "120 N Main St, Hannibal, MO 63401", "Museum", "Literature, Historic", 39.7089, -91.3592},
	{"8", "Branson Landing", "2006", "2006", "100 Branson Landing Blvd, Branson, MO 65616", "Business District", "Entertainment, Shopping", 36.6431, -93.2185},
	{"9", "Springfield Art Museum", "1926", "1926", "1111 E Brookside Dr, Springfield, MO 65807", "Museum", "Art, Culture", 37.2067, -93.2933},
	{"10", "Saint Louis Art Museum", "1879", "1904", "1 Fine Arts Dr, St. Louis, MO 63110", "Museum", "Art, Culture, Historic", 38.6389, -90.2942},
	{"11", "Missouri Botanical Garden", "1859", "1859", "4344 Shaw Blvd, St. Louis, MO 63110", "Garden", "Nature, Education", 38.6142, -90.2594},
	{"12", "Silver Dollar City", "1960", "1960", "399 Silver Dollar City Pkwy, Branson, MO 65616", "Theme Park", "Entertainment, Family", 36.6689, -93.3386},
	{"13", "Missouri State University", "1905", "1905", "901 S National Ave, Springfield, MO 65897", "Educational Institution", "University, Education", 37.1967, -93.2819},
	{"14", "Lake of the Ozarks State Park", "1931", "1931", "403 MO-134, Kaiser, MO 65047", "State Park", "Nature, Recreation", 38.1567, -92.6389},
	{"15", "Pony Express National Museum", "1958", "1859", "914 Penn St, St Joseph, MO 64503", "Museum", "Historic, Transportation", 39.7667, -94.8500},
}

// SampleRecords returns the built-in landmark set served when the source
// spreadsheet cannot be read. Each call returns a fresh slice with the same
// contents.
func SampleRecords() []Record {
	out := make([]Record, len(sampleSites))
	for i, s := range sampleSites {
		out[i] = Record{
			ID:                 s.id,
			OrganizationName:   s.name,
			Address:            s.address,
			SiteTypeCategory:   s.category,
			TertiaryCategories: s.tags,
			YearEstablished:    s.established,
			BuiltPlaced:        s.built,
			Placement:          LocatedAt(Point{Lat: s.lat, Lng: s.lng}),
			Method:             MethodDecimal,
		}
	}
	return out
}
