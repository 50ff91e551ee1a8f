package trait

import (
	"fmt"
	"strings"
)

// Mode is the derivation mode of a trait instance.
type Mode int

const (
	// Resolved traits are fully computed; all attributes are authoritative.
	Resolved Mode = iota

	// Derivation traits are deltas against a resolved base (subclassing).
	Derivation

	// Modification traits are deltas at the same level (customization).
	Modification
)

// String returns the lower-case mode name used by the codecs.
func (m Mode) String() string {
	switch m {
	case Resolved:
		return "resolved"
	case Derivation:
		return "derivation"
	case Modification:
		return "modification"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// IsDelta reports whether m is Derivation or Modification.
func (m Mode) IsDelta() bool {
	return m == Derivation || m == Modification
}

// Valid reports whether m is one of the three known modes.
func (m Mode) Valid() bool {
	return m == Resolved || m.IsDelta()
}

// ParseMode parses a mode name as produced by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "resolved":
		return Resolved, nil
	case "derivation":
		return Derivation, nil
	case "modification":
		return Modification, nil
	default:
		return Resolved, fmt.Errorf("invalid mode %q", s)
	}
}

// Existence is the four-valued existence state carried by Behavior and
// Throwee.
//
// State transitions for a Throwee only move INSERT↔DELETE or UPDATE↔DELETE;
// NOT is terminal.
type Existence int

const (
	// ExistsInsert means new at this level, absent from the base.
	ExistsInsert Existence = iota

	// ExistsUpdate means present in the base, identity unchanged.
	ExistsUpdate

	// ExistsDelete means present in the base, removed at this level.
	ExistsDelete

	// ExistsNot means absent altogether.
	ExistsNot
)

// String returns the lower-case existence name.
func (e Existence) String() string {
	switch e {
	case ExistsInsert:
		return "insert"
	case ExistsUpdate:
		return "update"
	case ExistsDelete:
		return "delete"
	case ExistsNot:
		return "not"
	default:
		return fmt.Sprintf("exists(%d)", int(e))
	}
}

// Present reports whether e is INSERT or UPDATE.
func (e Existence) Present() bool {
	return e == ExistsInsert || e == ExistsUpdate
}

// ParseExistence parses an existence name.
func ParseExistence(s string) (Existence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "insert":
		return ExistsInsert, nil
	case "update":
		return ExistsUpdate, nil
	case "delete":
		return ExistsDelete, nil
	case "not", "non-existent":
		return ExistsNot, nil
	default:
		return ExistsUpdate, fmt.Errorf("invalid existence %q", s)
	}
}
