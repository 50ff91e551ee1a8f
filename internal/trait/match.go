package trait

import (
	"sort"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// Slot is one entry of a matched collection: either a matched delta
// sub-trait or an explicit null derivation, meaning "no delta information,
// defer entirely to the base".
type Slot[T any] struct {
	value   T
	present bool
}

// Matched returns a slot holding v.
func Matched[T any](v T) Slot[T] {
	return Slot[T]{value: v, present: true}
}

// NullDerivation returns an empty slot.
func NullDerivation[T any]() Slot[T] {
	return Slot[T]{}
}

// IsNull reports whether the slot is a null derivation.
func (s Slot[T]) IsNull() bool {
	return !s.present
}

// Get returns the matched value and whether one is present.
func (s Slot[T]) Get() (T, bool) {
	return s.value, s.present
}

// ExceptionMatch is one keyed entry of MatchExceptions.
type ExceptionMatch struct {
	Key  string
	Slot Slot[Throwee]
}

// MatchParameters aligns delta against base. The result has exactly one
// slot per base parameter, in base order. Delta parameters are matched by
// UID first and then by case-insensitive name; delta parameters left over
// are discarded with a warning. Neither input is modified.
//
// When signature is set, UIDs are not compared: signature components carry
// no parameter identity, so equal counts are enough for a positional match.
func MatchParameters(base, delta []Parameter, signature, resolve bool, path string, errs *ErrorList) []Slot[Parameter] {
	out := make([]Slot[Parameter], len(base))

	if len(base) == len(delta) && (signature || sameParameterUIDs(base, delta)) {
		for i, p := range delta {
			out[i] = Matched(p)
		}
		return out
	}
	if len(delta) == 0 {
		return out
	}

	fold := cases.Fold()
	byUID := make(map[uuid.UUID]int, len(delta))
	byName := make(map[string]int, len(delta))
	for i, p := range delta {
		if p.HasUID() {
			byUID[p.UID] = i
		}
		byName[fold.String(p.Name)] = i
	}

	claimed := make([]bool, len(delta))
	claim := func(slot, i int) {
		out[slot] = Matched(delta[i])
		claimed[i] = true
		key := fold.String(delta[i].Name)
		if j, ok := byName[key]; ok && j == i {
			delete(byName, key)
		}
	}

	for slot, p := range base {
		if !p.HasUID() {
			continue
		}
		if i, ok := byUID[p.UID]; ok && !claimed[i] {
			claim(slot, i)
		}
	}
	for slot, p := range base {
		if !out[slot].IsNull() {
			continue
		}
		if i, ok := byName[fold.String(p.Name)]; ok && !claimed[i] {
			claim(slot, i)
		}
	}

	for i, p := range delta {
		if !claimed[i] {
			errs.Warn(codeFor(resolve, ResolveParameterDiscarded, ExtractParameterDiscarded), p.Name, path)
		}
	}
	return out
}

func sameParameterUIDs(base, delta []Parameter) bool {
	for i := range base {
		if !base[i].HasUID() || base[i].UID != delta[i].UID {
			return false
		}
	}
	return true
}

// MatchExceptions aligns delta against base by key. Every base key appears
// in the result; delta entries that match no base entry are kept as
// additions unless their key collides with a reserved base key, in which
// case they are discarded with a warning. The result is sorted by key and
// neither input is modified.
func MatchExceptions(base, delta ThroweeTable, resolve bool, path string, errs *ErrorList) []ExceptionMatch {
	if base.sameKeys(delta) {
		keys := delta.Keys()
		out := make([]ExceptionMatch, len(keys))
		for i, k := range keys {
			out[i] = ExceptionMatch{Key: k, Slot: Matched(delta[k])}
		}
		return out
	}

	baseKeys := base.Keys()
	if len(delta) == 0 {
		out := make([]ExceptionMatch, len(baseKeys))
		for i, k := range baseKeys {
			out[i] = ExceptionMatch{Key: k}
		}
		return out
	}

	byUID := make(map[uuid.UUID]string, len(delta))
	for k, e := range delta {
		if e.HasUID() {
			byUID[e.UID] = k
		}
	}

	result := make(map[string]Slot[Throwee], len(base)+len(delta))
	claimed := make(map[string]bool, len(delta))

	for _, k := range baseKeys {
		e := base[k]
		if !e.HasUID() {
			continue
		}
		if dk, ok := byUID[e.UID]; ok && !claimed[dk] {
			result[k] = Matched(delta[dk])
			claimed[dk] = true
		}
	}
	for _, k := range baseKeys {
		if _, ok := result[k]; ok {
			continue
		}
		if e, ok := delta[k]; ok && !claimed[k] {
			result[k] = Matched(e)
			claimed[k] = true
		} else {
			result[k] = NullDerivation[Throwee]()
		}
	}
	for _, k := range delta.Keys() {
		if claimed[k] {
			continue
		}
		if _, taken := result[k]; taken {
			errs.Warn(codeFor(resolve, ResolveExceptionDiscarded, ExtractExceptionDiscarded), k, path)
			continue
		}
		result[k] = Matched(delta[k])
	}

	keys := make([]string, 0, len(result))
	for k := range result {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]ExceptionMatch, len(keys))
	for i, k := range keys {
		out[i] = ExceptionMatch{Key: k, Slot: result[k]}
	}
	return out
}
