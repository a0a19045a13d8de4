// Package location infers the kind of place an address refers to. The
// result only drives surcharges and risk tagging.
package location

import "strings"

// Type is the kind of place at a route endpoint.
type Type string

const (
	TypeResidential Type = "residential"
	TypeHospital    Type = "hospital"
	TypeMall        Type = "mall"
	TypeOffice      Type = "office"
	TypeSchool      Type = "school"
)

// AllTypes returns every location type.
func AllTypes() []Type {
	return []Type{TypeResidential, TypeHospital, TypeMall, TypeOffice, TypeSchool}
}

// IsValid checks if the type is known.
func (t Type) IsValid() bool {
	switch t {
	case TypeResidential, TypeHospital, TypeMall, TypeOffice, TypeSchool:
		return true
	}
	return false
}

// rules are checked in order; the first type with a matching keyword wins.
var rules = []struct {
	typ      Type
	keywords []string
}{
	{TypeHospital, []string{"hospital", "clinic", "medical", "pharmacy"}},
	{TypeMall, []string{"mall", "plaza", "shopping", "market"}},
	{TypeOffice, []string{"office", "corporate", "business", "tower", "headquarters", "hq", "suite"}},
	{TypeSchool, []string{"school", "university", "college", "academy", "polytechnic"}},
}

// Classify returns the first type whose keywords appear in address,
// case-insensitively. Addresses matching nothing are residential.
func Classify(address string) Type {
	words := tokenize(address)
	if len(words) == 0 {
		return TypeResidential
	}
	padded := " " + strings.Join(words, " ") + " "

	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(padded, " "+kw+" ") {
				return r.typ
			}
		}
	}
	return TypeResidential
}

// Resolve returns explicit when it is a known type, otherwise it classifies
// address.
func Resolve(explicit Type, address string) Type {
	if explicit.IsValid() {
		return explicit
	}
	return Classify(address)
}

// tokenize lowercases address and splits it on anything that is not a
// letter or digit, so "Ikeja City Mall," matches "mall" but "smallholder"
// does not.
func tokenize(address string) []string {
	return strings.FieldsFunc(strings.ToLower(address), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}
