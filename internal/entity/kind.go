package entity

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies one of the six entity collections.
type Kind string

const (
	Abilities      Kind = "abilities"
	Items          Kind = "items"
	Effects        Kind = "effects"
	Encounters     Kind = "encounters"
	CombatProfiles Kind = "combat_profiles"
	Characters     Kind = "characters"
)

// Kinds lists every supported kind in canonical order.
var Kinds = []Kind{Abilities, Items, Effects, Encounters, CombatProfiles, Characters}

// ErrUnsupportedKind is returned when a schema name is not one of Kinds.
var ErrUnsupportedKind = errors.New("unsupported schema kind")

// ParseKind converts a schema name to a Kind.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.TrimSpace(name))
	if k.Valid() {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, name)
}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	switch k {
	case Abilities, Items, Effects, Encounters, CombatProfiles, Characters:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	return string(k)
}
