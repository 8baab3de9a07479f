package domain

import (
	"net/url"
	"strings"
)

// locCategoryURLs maps lowercased site categories to curated Library of
// Congress collection or search pages.
var locCategoryURLs = map[string]string{
	"archives":    "https://www.loc.gov/collections/?q=archives",
	"cemetery":    "https://www.loc.gov/search/?q=cemetery&fo=json",
	"cemeterys":   "https://www.loc.gov/search/?q=cemetery&fo=json",
	"church":      "https://www.loc.gov/search/?q=church&fo=json",
	"courthouse":  "https://www.loc.gov/search/?q=courthouse&fo=json",
	"library":     "https://www.loc.gov/collections/?q=library",
	"museum":      "https://www.loc.gov/collections/?q=museum",
	"monument":    "https://www.loc.gov/search/?q=monument&fo=json",
	"battlefield": "https://www.loc.gov/search/?q=battlefield&fo=json",
	"park":        "https://www.loc.gov/search/?q=park&fo=json",
	"school":      "https://www.loc.gov/search/?q=school&fo=json",
	"university":  "https://www.loc.gov/search/?q=university&fo=json",
	"memorial":    "https://www.loc.gov/search/?q=memorial&fo=json",
}

// LOCURLForCategory returns a Library of Congress link for a site category.
// Unknown categories get a generic search URL; an empty category gets "".
func LOCURLForCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return ""
	}
	if u, ok := locCategoryURLs[strings.ToLower(category)]; ok {
		return u
	}
	q := strings.ReplaceAll(url.QueryEscape(category), "+", "%20")
	return "https://www.loc.gov/search/?q=" + q + "&fo=json"
}
