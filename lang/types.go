package lang

import (
	"iter"
	"log/slog"
	"strings"
)

// Type is the closed set of type tags a declaration may name.
type Type int

const (
	TypeInvalid Type = iota
	TypeString
	TypeInt
	TypeFloat
	TypeBool
	TypeList
	TypeDict
	TypeSet
	TypeTuple
)

var typeName = [...]string{
	TypeInvalid: "invalid",
	TypeString:  "str",
	TypeInt:     "int",
	TypeFloat:   "float",
	TypeBool:    "bool",
	TypeList:    "list",
	TypeDict:    "dict",
	TypeSet:     "set",
	TypeTuple:   "tuple",
}

// String returns the tag as written in source, e.g. "str" or "dict".
func (t Type) String() string {
	if !t.Valid() {
		return typeName[TypeInvalid]
	}

	return typeName[t]
}

// Valid reports whether t is one of the supported type tags.
func (t Type) Valid() bool {
	return t > TypeInvalid && int(t) < len(typeName)
}

// IsNumeric reports whether t is int or float.
func (t Type) IsNumeric() bool { return t == TypeInt || t == TypeFloat }

// IsScalar reports whether t holds a single value.
func (t Type) IsScalar() bool {
	switch t {
	case TypeString, TypeInt, TypeFloat, TypeBool:
		return true
	default:
		return false
	}
}

// IsSequence reports whether t holds ordered elements (list, set, tuple).
func (t Type) IsSequence() bool {
	switch t {
	case TypeList, TypeSet, TypeTuple:
		return true
	default:
		return false
	}
}

// ParseType returns the Type named by s.
func ParseType(s string) (Type, error) {
	name := strings.TrimSpace(s)
	for t := range Types() {
		if typeName[t] == name {
			return t, nil
		}
	}

	return TypeInvalid, ErrUnknownType.With(slog.String("type", s))
}

// Types returns an iterator over every valid type tag in declaration order.
func Types() iter.Seq[Type] {
	return func(yield func(Type) bool) {
		for t := TypeString; int(t) < len(typeName); t++ {
			if !yield(t) {
				return
			}
		}
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}

	*t = parsed

	return nil
}
