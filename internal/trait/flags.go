package trait

import (
	"fmt"
	"strings"
)

// Field is one attribute of a flag record: its value plus a "specified"
// shadow. Specified only carries meaning on delta traits.
type Field[T comparable] struct {
	Value     T    `json:"value"`
	Specified bool `json:"specified,omitempty"`
}

// Spec returns a Field holding v with the specified shadow set.
func Spec[T comparable](v T) Field[T] {
	return Field[T]{Value: v, Specified: true}
}

// Unspec returns a Field holding v with the specified shadow clear.
func Unspec[T comparable](v T) Field[T] {
	return Field[T]{Value: v}
}

// Access is the behavior access level.
// Ordering from most private to most public: private, package, protected, public.
type Access int

const (
	AccessPublic Access = iota
	AccessProtected
	AccessPackage
	AccessPrivate
)

// rank orders access levels from most private (0) to most public (3).
func (a Access) rank() int {
	switch a {
	case AccessPrivate:
		return 0
	case AccessPackage:
		return 1
	case AccessProtected:
		return 2
	default:
		return 3
	}
}

// WiderThan reports whether a is strictly more public than b.
func (a Access) WiderThan(b Access) bool {
	return a.rank() > b.rank()
}

func (a Access) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessProtected:
		return "protected"
	case AccessPackage:
		return "package"
	case AccessPrivate:
		return "private"
	default:
		return fmt.Sprintf("access(%d)", int(a))
	}
}

// ParseAccess parses an access name.
func ParseAccess(s string) (Access, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "public":
		return AccessPublic, nil
	case "protected":
		return AccessProtected, nil
	case "package", "package-private":
		return AccessPackage, nil
	case "private":
		return AccessPrivate, nil
	default:
		return AccessPublic, fmt.Errorf("invalid access %q", s)
	}
}

// Visibility is the tooling visibility class of a behavior.
type Visibility int

const (
	VisibilityVisible Visibility = iota
	VisibilityAdvanced
	VisibilityHidden
	VisibilitySystem
)

func (v Visibility) String() string {
	switch v {
	case VisibilityVisible:
		return "visible"
	case VisibilityAdvanced:
		return "advanced"
	case VisibilityHidden:
		return "hidden"
	case VisibilitySystem:
		return "system"
	default:
		return fmt.Sprintf("visibility(%d)", int(v))
	}
}

// ParseVisibility parses a visibility name.
func ParseVisibility(s string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "visible":
		return VisibilityVisible, nil
	case "advanced":
		return VisibilityAdvanced, nil
	case "hidden":
		return VisibilityHidden, nil
	case "system":
		return VisibilitySystem, nil
	default:
		return VisibilityVisible, fmt.Errorf("invalid visibility %q", s)
	}
}

// Direction is the parameter passing direction.
// OUT and INOUT are only meaningful on remote behaviors.
type Direction int

const (
	DirIn Direction = iota
	DirOut
	DirInOut
)

func (d Direction) String() string {
	switch d {
	case DirIn:
		return "in"
	case DirOut:
		return "out"
	case DirInOut:
		return "inout"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Code returns the single-letter direction code (I, O or B).
func (d Direction) Code() string {
	switch d {
	case DirOut:
		return "O"
	case DirInOut:
		return "B"
	default:
		return "I"
	}
}

// ParseDirection accepts either a direction name or its single-letter code.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in", "i", "":
		return DirIn, nil
	case "out", "o":
		return DirOut, nil
	case "inout", "b":
		return DirInOut, nil
	default:
		return DirIn, fmt.Errorf("invalid direction %q", s)
	}
}

// Flags is the attribute record of a Behavior.
//
// Attribute classes:
//   - one-way: Access (towards public), Final (towards final), Remote (towards remote)
//   - flexible: Visibility, Sync, Abstract, Deprecated
//   - immutable: Static
type Flags struct {
	Exists     Field[Existence]  `json:"exists"`
	Access     Field[Access]     `json:"access"`
	Visibility Field[Visibility] `json:"visibility"`
	Sync       Field[bool]       `json:"sync"`
	Static     Field[bool]       `json:"static"`
	Abstract   Field[bool]       `json:"abstract"`
	Final      Field[bool]       `json:"final"`
	Deprecated Field[bool]       `json:"deprecated"`
	Remote     Field[bool]       `json:"remote"`
}

// AnySpecified reports whether any attribute carries the specified shadow.
func (f Flags) AnySpecified() bool {
	return f.Exists.Specified || f.Access.Specified || f.Visibility.Specified ||
		f.Sync.Specified || f.Static.Specified || f.Abstract.Specified ||
		f.Final.Specified || f.Deprecated.Specified || f.Remote.Specified
}

// ClearSpecified returns f with every specified shadow cleared.
func (f Flags) ClearSpecified() Flags {
	f.Exists.Specified = false
	f.Access.Specified = false
	f.Visibility.Specified = false
	f.Sync.Specified = false
	f.Static.Specified = false
	f.Abstract.Specified = false
	f.Final.Specified = false
	f.Deprecated.Specified = false
	f.Remote.Specified = false
	return f
}

// Bit layout of the packed flag word. Each attribute has a specified bit
// followed by its value bits.
const (
	existsSpecified = 1 << 0
	existsShift     = 1
	existsMask      = 0x3 << existsShift

	accessSpecified = 1 << 3
	accessShift     = 4
	accessMask      = 0x3 << accessShift

	visSpecified = 1 << 6
	visShift     = 7
	visMask      = 0x3 << visShift

	syncSpecified   = 1 << 9
	syncMonitor     = 1 << 10
	scopeSpecified  = 1 << 11
	scopeStatic     = 1 << 12
	implSpecified   = 1 << 13
	implAbstract    = 1 << 14
	deriveSpecified = 1 << 15
	deriveFinal     = 1 << 16
	antiqSpecified  = 1 << 17
	antiqDeprecated = 1 << 18
	distSpecified   = 1 << 19
	distRemote      = 1 << 20

	dirSpecified = 1 << 21
	dirShift     = 22
	dirMask      = 0x3 << dirShift

	// AllSpecified masks every specified bit of the packed word.
	AllSpecified = existsSpecified | accessSpecified | visSpecified |
		syncSpecified | scopeSpecified | implSpecified | deriveSpecified |
		antiqSpecified | distSpecified | dirSpecified
)

func packBool(word *uint32, f Field[bool], spec, val uint32) {
	if f.Specified {
		*word |= spec
	}
	if f.Value {
		*word |= val
	}
}

func unpackBool(word, spec, val uint32) Field[bool] {
	return Field[bool]{Value: word&val != 0, Specified: word&spec != 0}
}

// Pack encodes f into the integer word used by the codecs.
func (f Flags) Pack() uint32 {
	var w uint32
	if f.Exists.Specified {
		w |= existsSpecified
	}
	w |= uint32(f.Exists.Value) << existsShift & existsMask
	if f.Access.Specified {
		w |= accessSpecified
	}
	w |= uint32(f.Access.Value) << accessShift & accessMask
	if f.Visibility.Specified {
		w |= visSpecified
	}
	w |= uint32(f.Visibility.Value) << visShift & visMask
	packBool(&w, f.Sync, syncSpecified, syncMonitor)
	packBool(&w, f.Static, scopeSpecified, scopeStatic)
	packBool(&w, f.Abstract, implSpecified, implAbstract)
	packBool(&w, f.Final, deriveSpecified, deriveFinal)
	packBool(&w, f.Deprecated, antiqSpecified, antiqDeprecated)
	packBool(&w, f.Remote, distSpecified, distRemote)
	return w
}

// UnpackFlags decodes a word produced by Flags.Pack.
func UnpackFlags(w uint32) Flags {
	return Flags{
		Exists: Field[Existence]{
			Value:     Existence(w & existsMask >> existsShift),
			Specified: w&existsSpecified != 0,
		},
		Access: Field[Access]{
			Value:     Access(w & accessMask >> accessShift),
			Specified: w&accessSpecified != 0,
		},
		Visibility: Field[Visibility]{
			Value:     Visibility(w & visMask >> visShift),
			Specified: w&visSpecified != 0,
		},
		Sync:       unpackBool(w, syncSpecified, syncMonitor),
		Static:     unpackBool(w, scopeSpecified, scopeStatic),
		Abstract:   unpackBool(w, implSpecified, implAbstract),
		Final:      unpackBool(w, deriveSpecified, deriveFinal),
		Deprecated: unpackBool(w, antiqSpecified, antiqDeprecated),
		Remote:     unpackBool(w, distSpecified, distRemote),
	}
}

// PackDirection encodes a parameter direction into a flag word.
func PackDirection(d Field[Direction]) uint32 {
	var w uint32
	if d.Specified {
		w |= dirSpecified
	}
	return w | uint32(d.Value)<<dirShift&dirMask
}

// UnpackDirection decodes a word produced by PackDirection.
func UnpackDirection(w uint32) Field[Direction] {
	return Field[Direction]{Value: Direction(w & dirMask >> dirShift), Specified: w&dirSpecified != 0}
}

// PackExistence encodes a throwee existence into a flag word.
func PackExistence(e Field[Existence]) uint32 {
	return Flags{Exists: e}.Pack() & (existsSpecified | existsMask)
}

// UnpackExistence decodes a word produced by PackExistence.
func UnpackExistence(w uint32) Field[Existence] {
	return UnpackFlags(w).Exists
}

// Describe renders the flags as a space separated list of attribute words,
// e.g. "update public synchronized static final". When specifiedOnly is set
// only attributes carrying the specified shadow are rendered.
func (f Flags) Describe(specifiedOnly bool) string {
	var words []string
	add := func(specified bool, word string) {
		if specified || !specifiedOnly {
			words = append(words, word)
		}
	}

	switch f.Exists.Value {
	case ExistsInsert:
		add(f.Exists.Specified, "insert")
	case ExistsUpdate:
		add(f.Exists.Specified, "update")
	case ExistsDelete:
		add(f.Exists.Specified, "delete")
	default:
		add(f.Exists.Specified, "non-existent")
	}

	if f.Access.Value == AccessPackage {
		add(f.Access.Specified, "package-private")
	} else {
		add(f.Access.Specified, f.Access.Value.String())
	}

	add(f.Sync.Specified, pick(f.Sync.Value, "synchronized", "no-monitor"))
	add(f.Static.Specified, pick(f.Static.Value, "static", "instance"))
	add(f.Abstract.Specified, pick(f.Abstract.Value, "abstract", "concrete"))
	add(f.Final.Specified, pick(f.Final.Value, "final", "derivable"))
	add(f.Deprecated.Specified, pick(f.Deprecated.Value, "deprecated", "current"))
	add(f.Remote.Specified, pick(f.Remote.Value, "remote", "local"))
	add(f.Visibility.Specified, f.Visibility.Value.String())

	return strings.Join(words, " ")
}

func pick(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}
