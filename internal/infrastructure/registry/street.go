package registry

import "strings"

// streetTypeSiglas maps spelled-out street types to the two-letter
// siglas the registry expects. Keys are matched against the first word
// of a street name.
var streetTypeSiglas = map[string]string{
	"CL":        "CL",
	"CALLE":     "CL",
	"C/":        "CL",
	"AV":        "AV",
	"AVDA":      "AV",
	"AVENIDA":   "AV",
	"PS":        "PS",
	"PASEO":     "PS",
	"PZ":        "PZ",
	"PLAZA":     "PZ",
	"CM":        "CM",
	"CAMINO":    "CM",
	"CR":        "CR",
	"CARRETERA": "CR",
	"TR":        "TR",
	"TRAVESIA":  "TR",
	"UR":        "UR",
	"URB":       "UR",
	"RD":        "RD",
	"RONDA":     "RD",
	"GL":        "GL",
	"GLORIETA":  "GL",
	"PJ":        "PJ",
	"PASAJE":    "PJ",
}

// splitStreetType extracts a leading street-type designation from a
// street name. "CALLE MAYOR" becomes ("CL", "MAYOR"); a name without a
// recognized prefix is returned unchanged with an empty sigla.
func splitStreetType(street string) (sigla, name string) {
	street = strings.TrimSpace(strings.ToUpper(street))

	first, rest, found := strings.Cut(street, " ")
	if !found {
		return "", street
	}
	if s, ok := streetTypeSiglas[strings.TrimSuffix(first, ".")]; ok {
		return s, strings.TrimSpace(rest)
	}
	return "", street
}

// normalizeSigla maps a user-provided street type to its sigla,
// accepting both spelled-out and abbreviated forms.
func normalizeSigla(streetType string) string {
	streetType = strings.TrimSpace(strings.ToUpper(streetType))
	if s, ok := streetTypeSiglas[strings.TrimSuffix(streetType, ".")]; ok {
		return s
	}
	return streetType
}
