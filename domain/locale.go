package domain

import "strings"

// Cookie names shared by the region resolver and the proxy handlers.
const (
	RegionCookieName  = "_region"
	CacheIDCookieName = "_region_cache_id"
	SessionCookieName = "bagisto_session"
)

// DefaultCountryCode is used when no other resolution source matches.
const DefaultCountryCode = "ke"

// Source identifies which resolution step produced a LocaleContext.
type Source string

const (
	SourcePath    Source = "path"
	SourceCookie  Source = "cookie"
	SourceGeoIP   Source = "geo-ip"
	SourceDefault Source = "default"
)

// LocaleContext is the per-request country resolution. CountryCode is always
// a key of the supported-region table.
type LocaleContext struct {
	CountryCode string
	Source      Source
}

// Region describes a supported storefront country.
type Region struct {
	Code string
	Name string
}

var supportedRegions = map[string]Region{
	"us": {Code: "us", Name: "North America"},
	"ke": {Code: "ke", Name: "East Africa"},
	"ng": {Code: "ng", Name: "West Africa"},
	"gb": {Code: "gb", Name: "Europe"},
	"in": {Code: "in", Name: "South Asia"},
	"ca": {Code: "ca", Name: "North America"},
	"de": {Code: "de", Name: "Europe"},
	"fr": {Code: "fr", Name: "Europe"},
}

// IsSupportedCountry reports whether code (case-insensitive) is a key in the
// supported-region table.
func IsSupportedCountry(code string) bool {
	_, ok := supportedRegions[strings.ToLower(code)]
	return ok
}

// LookupRegion returns the region for a country code, case-insensitive.
func LookupRegion(code string) (Region, bool) {
	r, ok := supportedRegions[strings.ToLower(code)]
	return r, ok
}
