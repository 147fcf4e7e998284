package core

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Names CLDR spells differently from how travellers write them.
var countryAliases = map[string]string{
	"usa":                      "US",
	"us":                       "US",
	"america":                  "US",
	"united states of america": "US",
	"uk":                       "GB",
	"great britain":            "GB",
	"britain":                  "GB",
	"england":                  "GB",
	"scotland":                 "GB",
	"wales":                    "GB",
	"northern ireland":         "GB",
	"holland":                  "NL",
	"the netherlands":          "NL",
	"uae":                      "AE",
	"emirates":                 "AE",
	"korea":                    "KR",
	"republic of korea":        "KR",
	"czech republic":           "CZ",
	"turkey":                   "TR",
	"ivory coast":              "CI",
	"burma":                    "MM",
	"swaziland":                "SZ",
	"vatican":                  "VA",
	"macedonia":                "MK",
}

var (
	countryIndexOnce sync.Once
	countryIndex     map[string]CountryCode
)

func buildCountryIndex() {
	countryIndex = make(map[string]CountryCode, 300)
	namer := display.English.Regions()
	for a := 'A'; a <= 'Z'; a++ {
		for b := 'A'; b <= 'Z'; b++ {
			code := string([]rune{a, b})
			region, err := language.ParseRegion(code)
			if err != nil || !region.IsCountry() || region.String() != code {
				continue
			}
			name := namer.Name(region)
			if name == "" {
				continue
			}
			countryIndex[normalizeCountryName(name)] = CountryCode{code: code}
		}
	}
	for alias, code := range countryAliases {
		countryIndex[alias] = CountryCode{code: code}
	}
}

func normalizeCountryName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "&", "and")
	return strings.Join(strings.Fields(s), " ")
}

// CountryISO2 resolves an English country name (or an already valid
// alpha-2 code) to its code. "Paris, France" resolves through its last
// comma-separated segment.
func CountryISO2(name string) (CountryCode, bool) {
	countryIndexOnce.Do(buildCountryIndex)

	name = strings.TrimSpace(name)
	if name == "" {
		return CountryCode{}, false
	}
	if code, err := ParseCountryCode(name); err == nil {
		if region, err := language.ParseRegion(code.String()); err == nil && region.IsCountry() {
			return code, true
		}
	}
	if code, ok := countryIndex[normalizeCountryName(name)]; ok {
		return code, true
	}
	if i := strings.LastIndex(name, ","); i >= 0 {
		return CountryISO2(name[i+1:])
	}
	return CountryCode{}, false
}

// CountryName is the English display name for code, or the code itself.
func CountryName(code CountryCode) string {
	region, err := language.ParseRegion(code.String())
	if err != nil {
		return code.String()
	}
	if name := display.English.Regions().Name(region); name != "" {
		return name
	}
	return code.String()
}
