package match

import (
	"math"
	"strconv"
	"strings"
)

// AddressMatcher compares postal addresses after normalizing the endless
// variation in street, city, state, and country spellings.
type AddressMatcher struct{}

func NewAddressMatcher() *AddressMatcher {
	return &AddressMatcher{}
}

func (m *AddressMatcher) EmbeddingProperties() []string {
	return []string{"name", "street", "city", "state"}
}

// SimilarityThreshold is lower than the global default: address embeddings
// of the same place vary more than names do.
func (m *AddressMatcher) SimilarityThreshold() float64 {
	return 0.75
}

func (m *AddressMatcher) MatchProperties(a, b map[string]interface{}) bool {
	return matchByMethods(m, a, b)
}

// coordinateProximityMeters is how close two coordinate pairs must be to
// count as the same place.
const coordinateProximityMeters = 150.0

func (m *AddressMatcher) EqualityMethods() []Method {
	methods := sharedExactMethods()
	return append(methods,
		Method{
			ID: "full_address", Weight: 0.9,
			Eval: func(a, b map[string]interface{}) (bool, float64) {
				if NormalizeStreet(street(a)) == "" || NormalizeStreet(street(b)) == "" {
					// City or state alone is never a full address.
					return false, 0
				}
				fullA, fullB := FullAddress(a), FullAddress(b)
				if fullA == fullB {
					return true, 1.0
				}
				// Containment covers one side carrying extra components,
				// e.g. a country suffix the other omits.
				if len(fullA) >= 10 && len(fullB) >= 10 &&
					(strings.Contains(fullA, fullB) || strings.Contains(fullB, fullA)) {
					return true, 0.95
				}
				return false, 0
			},
		},
		Method{
			ID: "street_number_name", Weight: 0.8,
			Eval: func(a, b map[string]interface{}) (bool, float64) {
				numA, nameA := splitStreet(NormalizeStreet(street(a)))
				numB, nameB := splitStreet(NormalizeStreet(street(b)))
				if numA == "" || numA != numB || nameA == "" || nameB == "" {
					return false, 0
				}
				sim := Similarity(nameA, nameB)
				if sim < 0.8 {
					return false, 0
				}
				return true, sim
			},
		},
		Method{
			ID: "city_state_zip", Weight: 0.6,
			Eval: func(a, b map[string]interface{}) (bool, float64) {
				zipA, zipB := zip(a), zip(b)
				if zipA == "" || zipA != zipB {
					return false, 0
				}
				cityA, cityB := NormalizeCity(Str(a, "city")), NormalizeCity(Str(b, "city"))
				stateA, stateB := NormalizeState(Str(a, "state", "province")), NormalizeState(Str(b, "state", "province"))
				if cityA == cityB && stateA == stateB && cityA != "" {
					return true, 1.0
				}
				// ZIP matches but city or state drift slightly; fuzzy fallback.
				citySim := Similarity(cityA, cityB)
				stateScore := 0.0
				if stateA != "" && stateA == stateB {
					stateScore = 1.0
				}
				score := (citySim + stateScore) / 2
				if score < 0.7 {
					return false, 0
				}
				return true, score
			},
		},
		Method{
			ID: "coordinates", Weight: 0.85,
			Eval: func(a, b map[string]interface{}) (bool, float64) {
				latA, lngA, okA := coordinates(a)
				latB, lngB, okB := coordinates(b)
				if !okA || !okB {
					return false, 0
				}
				if haversineMeters(latA, lngA, latB, lngB) > coordinateProximityMeters {
					return false, 0
				}
				return true, 1.0
			},
		},
	)
}

func street(props map[string]interface{}) string {
	return Str(props, "street", "street_address", "address", "address_line_1")
}

func zip(props map[string]interface{}) string {
	z := Str(props, "postalCode", "postal_code", "zip", "zip_code", "zipcode")
	z = strings.TrimSpace(z)
	// US ZIP+4 collapses to the 5-digit prefix.
	if i := strings.IndexRune(z, '-'); i == 5 {
		z = z[:i]
	}
	return strings.ToLower(z)
}

// FullAddress joins the normalized components into one comparable string.
func FullAddress(props map[string]interface{}) string {
	parts := []string{
		NormalizeStreet(street(props)),
		NormalizeCity(Str(props, "city")),
		NormalizeState(Str(props, "state", "province")),
		zip(props),
		NormalizeCountry(Str(props, "country")),
	}
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// directionals expand or contract to the canonical short form.
var directionals = map[string]string{
	"north": "n", "south": "s", "east": "e", "west": "w",
	"northeast": "ne", "northwest": "nw", "southeast": "se", "southwest": "sw",
	"n": "n", "s": "s", "e": "e", "w": "w", "ne": "ne", "nw": "nw", "se": "se", "sw": "sw",
}

// streetSuffixes map common street-type words to USPS-style abbreviations.
var streetSuffixes = map[string]string{
	"street": "st", "st": "st",
	"avenue": "ave", "ave": "ave", "av": "ave",
	"boulevard": "blvd", "blvd": "blvd",
	"road": "rd", "rd": "rd",
	"drive": "dr", "dr": "dr",
	"lane": "ln", "ln": "ln",
	"court": "ct", "ct": "ct",
	"place": "pl", "pl": "pl",
	"circle": "cir", "cir": "cir",
	"highway": "hwy", "hwy": "hwy",
	"parkway": "pkwy", "pkwy": "pkwy",
	"terrace": "ter", "ter": "ter",
	"trail": "trl", "trl": "trl",
	"square": "sq", "sq": "sq",
	"suite": "ste", "ste": "ste",
	"apartment": "apt", "apt": "apt", "unit": "unit",
}

// NormalizeStreet lowercases, strips punctuation, and canonicalizes
// directionals and street suffixes token by token.
func NormalizeStreet(s string) string {
	if s == "" {
		return ""
	}
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '#':
			return -1
		}
		return r
	}, strings.ToLower(s))

	tokens := strings.Fields(cleaned)
	for i, tok := range tokens {
		if short, ok := directionals[tok]; ok {
			tokens[i] = short
			continue
		}
		if short, ok := streetSuffixes[tok]; ok {
			tokens[i] = short
		}
	}
	return strings.Join(tokens, " ")
}

// splitStreet separates the leading house number from the street name.
func splitStreet(normalized string) (number, name string) {
	tokens := strings.Fields(normalized)
	if len(tokens) == 0 {
		return "", ""
	}
	if _, err := strconv.Atoi(tokens[0]); err == nil {
		return tokens[0], strings.Join(tokens[1:], " ")
	}
	return "", normalized
}

// cityAliases fold well-known alternate names to one spelling.
var cityAliases = map[string]string{
	"nyc":           "new york",
	"new york city": "new york",
	"la":            "los angeles",
	"sf":            "san francisco",
	"st louis":      "saint louis",
	"st paul":       "saint paul",
	"ft worth":      "fort worth",
	"ft lauderdale": "fort lauderdale",
	"philly":        "philadelphia",
	"vegas":         "las vegas",
	"dc":            "washington",
	"washington dc": "washington",
}

func NormalizeCity(s string) string {
	folded := Fold(strings.Map(func(r rune) rune {
		if r == '.' || r == ',' {
			return -1
		}
		return r
	}, s))
	if alias, ok := cityAliases[folded]; ok {
		return alias
	}
	return folded
}

// stateCodes maps full US state names to their 2-letter codes.
var stateCodes = map[string]string{
	"alabama": "al", "alaska": "ak", "arizona": "az", "arkansas": "ar",
	"california": "ca", "colorado": "co", "connecticut": "ct", "delaware": "de",
	"florida": "fl", "georgia": "ga", "hawaii": "hi", "idaho": "id",
	"illinois": "il", "indiana": "in", "iowa": "ia", "kansas": "ks",
	"kentucky": "ky", "louisiana": "la", "maine": "me", "maryland": "md",
	"massachusetts": "ma", "michigan": "mi", "minnesota": "mn", "mississippi": "ms",
	"missouri": "mo", "montana": "mt", "nebraska": "ne", "nevada": "nv",
	"new hampshire": "nh", "new jersey": "nj", "new mexico": "nm", "new york": "ny",
	"north carolina": "nc", "north dakota": "nd", "ohio": "oh", "oklahoma": "ok",
	"oregon": "or", "pennsylvania": "pa", "rhode island": "ri", "south carolina": "sc",
	"south dakota": "sd", "tennessee": "tn", "texas": "tx", "utah": "ut",
	"vermont": "vt", "virginia": "va", "washington": "wa", "west virginia": "wv",
	"wisconsin": "wi", "wyoming": "wy", "district of columbia": "dc",
}

var validStateCodes = func() map[string]struct{} {
	set := make(map[string]struct{}, len(stateCodes))
	for _, code := range stateCodes {
		set[code] = struct{}{}
	}
	return set
}()

// NormalizeState folds a state to its 2-letter code. Inputs that are
// already codes pass through; abbreviated names like "Ill." resolve when
// they prefix exactly one state name.
func NormalizeState(s string) string {
	folded := Fold(strings.ReplaceAll(s, ".", ""))
	if folded == "" {
		return ""
	}
	if len(folded) == 2 {
		if _, ok := validStateCodes[folded]; ok {
			return folded
		}
	}
	if code, ok := stateCodes[folded]; ok {
		return code
	}
	var match string
	for name, code := range stateCodes {
		if strings.HasPrefix(name, folded) {
			if match != "" && match != code {
				return folded // ambiguous abbreviation, keep as-is
			}
			match = code
		}
	}
	if match != "" {
		return match
	}
	return folded
}

// countryAliases fold to one canonical name.
var countryAliases = map[string]string{
	"us": "united states", "usa": "united states",
	"united states of america": "united states", "america": "united states",
	"u s": "united states", "u s a": "united states",
	"uk": "united kingdom", "great britain": "united kingdom", "britain": "united kingdom",
	"england": "united kingdom",
}

func NormalizeCountry(s string) string {
	folded := Fold(strings.Map(func(r rune) rune {
		if r == '.' {
			return ' '
		}
		return r
	}, s))
	if alias, ok := countryAliases[folded]; ok {
		return alias
	}
	return folded
}

func coordinates(props map[string]interface{}) (lat, lng float64, ok bool) {
	lat, okLat := numeric(props, "latitude", "lat")
	lng, okLng := numeric(props, "longitude", "lng", "lon")
	return lat, lng, okLat && okLng
}

func numeric(props map[string]interface{}, keys ...string) (float64, bool) {
	for _, key := range keys {
		switch v := props[key].(type) {
		case float64:
			return v, true
		case float32:
			return float64(v), true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

const earthRadiusMeters = 6371000.0

func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
