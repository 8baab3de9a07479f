package domain

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

var (
	repeatedCommas = regexp.MustCompile(`,(\s*,)+`)
	trailingCommas = regexp.MustCompile(`[\s,]+$`)
)

// CollapseAddress folds runs of commas and whitespace and trims trailing
// separators.
func CollapseAddress(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = repeatedCommas.ReplaceAllString(s, ",")
	return trailingCommas.ReplaceAllString(s, "")
}

// SanitizeAddress prepares a free-text address for a geocoder query. It
// rejects placeholders and appends the region's state code unless the address
// already ends with the state code or name.
func SanitizeAddress(address string, region Region) (string, error) {
	address = strings.TrimSpace(address)
	if IsPlaceholder(address) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	address = CollapseAddress(address)
	if !mentionsState(address, region) {
		address += ", " + region.StateCode
	}
	return address, nil
}

// NormalizeAddressKey is the geocode cache key for an address: lowercased with
// whitespace collapsed.
func NormalizeAddressKey(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}

// StateNameVariant rewrites a trailing state code qualifier as the full state
// name, keeping any ZIP, or appends the name when the address ends in neither.
// It is the query used for the single retry after a zero-result answer.
func StateNameVariant(address string, region Region) string {
	q := qualifierFor(region)
	if loc := q.code.FindStringSubmatchIndex(address); loc != nil {
		start := loc[3]
		return address[:start] + region.StateName + address[start+len(region.StateCode):]
	}
	if q.name.MatchString(address) {
		return address
	}
	return address + ", " + region.StateName
}

// mentionsState reports whether the last comma segment names the region's
// state, by code or by name, optionally followed by a ZIP. Highway tokens
// such as "MO-134" earlier in the address do not count.
func mentionsState(address string, region Region) bool {
	q := qualifierFor(region)
	return q.code.MatchString(address) || q.name.MatchString(address)
}

type stateQualifier struct {
	code *regexp.Regexp
	name *regexp.Regexp
}

// qualifiers caches compiled patterns by state code and name.
var qualifiers sync.Map

func qualifierFor(region Region) *stateQualifier {
	key := region.StateCode + "|" + region.StateName
	if q, ok := qualifiers.Load(key); ok {
		return q.(*stateQualifier)
	}
	q, _ := qualifiers.LoadOrStore(key, &stateQualifier{
		code: trailingQualifier(region.StateCode),
		name: trailingQualifier(region.StateName),
	})
	return q.(*stateQualifier)
}

func trailingQualifier(token string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(,\s*)` + regexp.QuoteMeta(token) + `(\s+\d{5}(?:-\d{4})?)?$`)
}
