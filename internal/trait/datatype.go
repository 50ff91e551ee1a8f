package trait

import (
	"fmt"
	"strings"
)

// DataType is a type descriptor in JVM notation, e.g. "I", "Z",
// "Ljava/lang/String;" or "[I". The descriptor is what a Behavior signature
// is built from.
type DataType string

// Primitive data types.
const (
	Void    DataType = "V"
	Boolean DataType = "Z"
	Byte    DataType = "B"
	Char    DataType = "C"
	Short   DataType = "S"
	Int     DataType = "I"
	Long    DataType = "J"
	Float   DataType = "F"
	Double  DataType = "D"
)

var primitiveNames = map[DataType]string{
	Void:    "void",
	Boolean: "boolean",
	Byte:    "byte",
	Char:    "char",
	Short:   "short",
	Int:     "int",
	Long:    "long",
	Float:   "float",
	Double:  "double",
}

// ClassType returns the descriptor of a class given its dotted name.
func ClassType(name string) DataType {
	return DataType("L" + strings.ReplaceAll(name, ".", "/") + ";")
}

// ArrayOf returns the descriptor of an array of t.
func ArrayOf(t DataType) DataType {
	return "[" + t
}

// IsVoid reports whether t is void.
func (t DataType) IsVoid() bool {
	return t == Void
}

// IsClass reports whether t is a class type.
func (t DataType) IsClass() bool {
	return len(t) > 2 && t[0] == 'L' && t[len(t)-1] == ';'
}

// IsArray reports whether t is an array type.
func (t DataType) IsArray() bool {
	return len(t) > 1 && t[0] == '['
}

// ClassName returns the dotted class name of a class type, or "" when t is
// not a class type.
func (t DataType) ClassName() string {
	if !t.IsClass() {
		return ""
	}
	return strings.ReplaceAll(string(t[1:len(t)-1]), "/", ".")
}

// Signature returns the descriptor itself.
func (t DataType) Signature() string {
	return string(t)
}

// String returns the source-level spelling, e.g. "int", "java.lang.String"
// or "int[]".
func (t DataType) String() string {
	if name, ok := primitiveNames[t]; ok {
		return name
	}
	if t.IsArray() {
		return t[1:].String() + "[]"
	}
	if t.IsClass() {
		return t.ClassName()
	}
	return string(t)
}

// Valid reports whether t is a well-formed descriptor.
func (t DataType) Valid() bool {
	if _, ok := primitiveNames[t]; ok {
		return true
	}
	if t.IsArray() {
		elem := t[1:]
		return elem != Void && elem.Valid()
	}
	if t.IsClass() {
		return isQualifiedNameLegal(t.ClassName())
	}
	return false
}

// ParseDataType accepts either a descriptor ("I", "Ljava/lang/String;") or
// a source-level spelling ("int", "java.lang.String", "int[]").
func ParseDataType(s string) (DataType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty data type")
	}
	if t := DataType(s); t.Valid() {
		return t, nil
	}
	if strings.HasSuffix(s, "[]") {
		elem, err := ParseDataType(strings.TrimSuffix(s, "[]"))
		if err != nil {
			return "", err
		}
		if elem.IsVoid() {
			return "", fmt.Errorf("invalid data type %q: array of void", s)
		}
		return ArrayOf(elem), nil
	}
	for dt, name := range primitiveNames {
		if name == s {
			return dt, nil
		}
	}
	if isQualifiedNameLegal(s) {
		return ClassType(s), nil
	}
	return "", fmt.Errorf("invalid data type %q", s)
}

// IsIdentifierLegal reports whether s is a legal simple identifier.
func IsIdentifierLegal(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			if r < 0x80 {
				return false
			}
		}
	}
	return true
}

func isQualifiedNameLegal(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if !IsIdentifierLegal(part) {
			return false
		}
	}
	return true
}
