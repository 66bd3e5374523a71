package scraper

import "strings"

// countryCodes maps country display names, as the marketplaces render them,
// to two-letter codes. Pure data; extend it when a new display name shows up
// in listings.
var countryCodes = map[string]string{
	// English names (eBay, Amazon)
	"Poland":         "PL",
	"Germany":        "DE",
	"France":         "FR",
	"United Kingdom": "GB",
	"Spain":          "ES",
	"Italy":          "IT",
	"Czech Republic": "CZ",
	"Czechia":        "CZ",
	"Slovakia":       "SK",
	"Hungary":        "HU",
	"Austria":        "AT",
	"Netherlands":    "NL",
	"Belgium":        "BE",
	"Denmark":        "DK",
	"Sweden":         "SE",
	"Norway":         "NO",
	"Finland":        "FI",
	"Greece":         "GR",
	"Romania":        "RO",
	"Lithuania":      "LT",
	"Latvia":         "LV",
	"Estonia":        "EE",
	"Bulgaria":       "BG",
	"Portugal":       "PT",
	"Ireland":        "IE",
	"Croatia":        "HR",
	"Slovenia":       "SI",
	"Switzerland":    "CH",
	"United States":  "US",
	"Canada":         "CA",

	// Polish names (Vinted PL)
	"Polska":          "PL",
	"Niemcy":          "DE",
	"Francja":         "FR",
	"Wielka Brytania": "GB",
	"Hiszpania":       "ES",
	"Włochy":          "IT",
	"Czechy":          "CZ",
	"Słowacja":        "SK",
	"Węgry":           "HU",
	"Holandia":        "NL",
	"Belgia":          "BE",
	"Dania":           "DK",
	"Szwecja":         "SE",
	"Norwegia":        "NO",
	"Finlandia":       "FI",
	"Grecja":          "GR",
	"Rumunia":         "RO",
	"Litwa":           "LT",
	"Łotwa":           "LV",
	"Bułgaria":        "BG",
	"Portugalia":      "PT",
	"Irlandia":        "IE",
	"Chorwacja":       "HR",
	"Słowenia":        "SI",
	"Szwajcaria":      "CH",
}

// CountryCode resolves a country display name to a two-letter code via the
// static table. Unrecognized names fall back to the first two letters,
// upper-cased. This is a heuristic, not authoritative geodata.
func CountryCode(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	if code, ok := countryCodes[name]; ok {
		return code, true
	}

	runes := []rune(name)
	if len(runes) < 2 {
		return "", false
	}
	return strings.ToUpper(string(runes[:2])), true
}
