// Package regions maps two-letter region hints onto the location and
// language parameters the region-capable providers expect.
package regions

import "strings"

// Region carries the provider-facing parameters for one region.
type Region struct {
	// LocationCode is the DataForSEO location code for SERP tasks.
	LocationCode int
	// LanguageCode is the SERP language code ("en", "de", ...).
	LanguageCode string
	// ISOCode is the uppercase ISO 3166-1 alpha-2 country code used by
	// conversational providers with country-scoped web search.
	ISOCode string
}

var regionTable = map[string]Region{
	"us": {LocationCode: 2840, LanguageCode: "en", ISOCode: "US"},
	"gb": {LocationCode: 2826, LanguageCode: "en", ISOCode: "GB"},
	"uk": {LocationCode: 2826, LanguageCode: "en", ISOCode: "GB"},
	"ca": {LocationCode: 2124, LanguageCode: "en", ISOCode: "CA"},
	"au": {LocationCode: 2036, LanguageCode: "en", ISOCode: "AU"},
	"de": {LocationCode: 2276, LanguageCode: "de", ISOCode: "DE"},
	"fr": {LocationCode: 2250, LanguageCode: "fr", ISOCode: "FR"},
	"es": {LocationCode: 2724, LanguageCode: "es", ISOCode: "ES"},
	"it": {LocationCode: 2380, LanguageCode: "it", ISOCode: "IT"},
	"nl": {LocationCode: 2528, LanguageCode: "nl", ISOCode: "NL"},
	"br": {LocationCode: 2076, LanguageCode: "pt", ISOCode: "BR"},
	"in": {LocationCode: 2356, LanguageCode: "en", ISOCode: "IN"},
	"jp": {LocationCode: 2392, LanguageCode: "ja", ISOCode: "JP"},
}

// defaultRegion is used when no hint is given or the hint is unknown.
var defaultRegion = Region{LocationCode: 2840, LanguageCode: "en", ISOCode: "US"}

// Resolve returns the Region for a two-letter hint, falling back to the
// US region for empty or unknown hints.
func Resolve(hint string) Region {
	if r, ok := regionTable[strings.ToLower(strings.TrimSpace(hint))]; ok {
		return r
	}
	return defaultRegion
}

// Known reports whether the hint names a region in the table.
func Known(hint string) bool {
	_, ok := regionTable[strings.ToLower(strings.TrimSpace(hint))]
	return ok
}
