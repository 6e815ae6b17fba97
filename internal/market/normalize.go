package market

import "strings"

// areaAlias maps a lowercase raw name (or fragment) to its canonical
// Nantucket area name. Kept as a slice so substring matching always
// scans in declaration order; with a map the winner would change from
// run to run when two aliases match the same input.
type areaAlias struct {
	alias     string
	canonical string
}

var areaAliases = []areaAlias{
	{"siasconset", "Sconset"},
	{"'sconset", "Sconset"},
	{"downtown", "Town"},
	{"center", "Town"},
	{"nantucket town", "Town"},
	{"tom nevers", "Tom Nevers"},
	{"brant point", "Brant Point"},
}

// NormalizeAreaName maps a raw neighborhood/area string to its canonical
// display name. Exact alias match wins, then the first alias contained in
// the input, then a title-cased version of the original. Callers are
// expected to drop blank names before normalizing.
func NormalizeAreaName(area string) string {
	trimmed := strings.TrimSpace(area)
	lower := strings.ToLower(trimmed)

	for _, a := range areaAliases {
		if lower == a.alias {
			return a.canonical
		}
	}

	for _, a := range areaAliases {
		if strings.Contains(lower, a.alias) {
			return a.canonical
		}
	}

	return titleCase(trimmed)
}

// titleCase capitalizes the first letter of each space-separated word.
// ASCII-oriented; MLS area names are plain English.
func titleCase(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
