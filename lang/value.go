package lang

import (
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// Value is a typed FL value. Type selects which of the remaining fields is
// meaningful:
//
//	str            Str
//	int            Int
//	float          Float
//	bool           Bool
//	list/set/tuple Items
//	dict           Keys (insertion order) and Entries
type Value struct {
	Type    Type
	Str     string
	Int     int64
	Float   float64
	Bool    bool
	Items   []*Value
	Keys    []string
	Entries map[string]*Value
}

// Variable is a named, typed binding in a [Parser] namespace.
type Variable struct {
	Name  string
	Type  Type
	Value *Value
}

// Declaration returns the variable as an FL declaration line.
func (v *Variable) Declaration() string {
	return declaration(v.Name, v.Type, v.Value.Literal())
}

func NewString(s string) *Value { return &Value{Type: TypeString, Str: s} }

func NewInt(i int64) *Value { return &Value{Type: TypeInt, Int: i} }

func NewFloat(f float64) *Value { return &Value{Type: TypeFloat, Float: f} }

func NewBool(b bool) *Value { return &Value{Type: TypeBool, Bool: b} }

func NewList(items ...*Value) *Value { return &Value{Type: TypeList, Items: items} }

// NewTuple returns a tuple holding items in order.
func NewTuple(items ...*Value) *Value { return &Value{Type: TypeTuple, Items: items} }

// NewSet returns a set of the distinct items, keeping the first occurrence of
// each. Lists, dicts and sets cannot be set elements.
func NewSet(items ...*Value) (*Value, error) {
	set := &Value{Type: TypeSet, Items: make([]*Value, 0, len(items))}
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		key, ok := item.hashKey()
		if !ok {
			return nil, ErrUnhashable.With(slog.String("type", item.Type.String()))
		}

		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}
		set.Items = append(set.Items, item)
	}

	return set, nil
}

// NewDict returns an empty dict.
func NewDict() *Value {
	return &Value{Type: TypeDict, Entries: map[string]*Value{}}
}

// Put binds key to val in dict v, keeping the position of an existing key.
func (v *Value) Put(key string, val *Value) {
	if v.Entries == nil {
		v.Entries = map[string]*Value{}
	}

	if _, ok := v.Entries[key]; !ok {
		v.Keys = append(v.Keys, key)
	}

	v.Entries[key] = val
}

// Get returns the entry of dict v at key.
func (v *Value) Get(key string) (*Value, bool) {
	if v == nil || v.Type != TypeDict {
		return nil, false
	}

	val, ok := v.Entries[key]

	return val, ok
}

// Len returns the number of elements of a list, set, tuple or dict, and zero
// for scalars.
func (v *Value) Len() int {
	switch {
	case v == nil:
		return 0
	case v.Type == TypeDict:
		return len(v.Keys)
	default:
		return len(v.Items)
	}
}

// Float64 returns the numeric value of an int or float.
func (v *Value) Float64() (float64, bool) {
	switch v.Type {
	case TypeInt:
		return float64(v.Int), true
	case TypeFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

// Equal reports whether v and o hold the same value. Ints and floats compare
// numerically and sets compare without regard to order.
func (v *Value) Equal(o *Value) bool {
	if v == nil || o == nil {
		return v == o
	}

	if v.Type.IsNumeric() && o.Type.IsNumeric() {
		if v.Type == TypeInt && o.Type == TypeInt {
			return v.Int == o.Int
		}

		a, _ := v.Float64()
		b, _ := o.Float64()

		return a == b
	}

	if v.Type != o.Type {
		return false
	}

	switch v.Type {
	case TypeString:
		return v.Str == o.Str
	case TypeBool:
		return v.Bool == o.Bool
	case TypeList, TypeTuple:
		if len(v.Items) != len(o.Items) {
			return false
		}

		for i := range v.Items {
			if !v.Items[i].Equal(o.Items[i]) {
				return false
			}
		}

		return true
	case TypeSet:
		if len(v.Items) != len(o.Items) {
			return false
		}

		for _, item := range v.Items {
			if !o.contains(item) {
				return false
			}
		}

		return true
	case TypeDict:
		if len(v.Keys) != len(o.Keys) {
			return false
		}

		for _, key := range v.Keys {
			other, ok := o.Entries[key]
			if !ok || !v.Entries[key].Equal(other) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

func (v *Value) contains(item *Value) bool {
	for _, e := range v.Items {
		if e.Equal(item) {
			return true
		}
	}

	return false
}

// hashKey returns a string that is identical for equal hashable values.
func (v *Value) hashKey() (string, bool) {
	switch v.Type {
	case TypeString:
		return "s" + strconv.Quote(v.Str), true
	case TypeInt:
		return "n" + strconv.FormatInt(v.Int, 10), true
	case TypeFloat:
		if v.Float == math.Trunc(v.Float) && math.Abs(v.Float) < 1<<63 {
			return "n" + strconv.FormatInt(int64(v.Float), 10), true
		}

		return "n" + strconv.FormatFloat(v.Float, 'g', -1, 64), true
	case TypeBool:
		return "b" + strconv.FormatBool(v.Bool), true
	case TypeTuple:
		part := make([]string, len(v.Items))

		for i, item := range v.Items {
			key, ok := item.hashKey()
			if !ok {
				return "", false
			}

			part[i] = key
		}

		return "t(" + strings.Join(part, ",") + ")", true
	default:
		return "", false
	}
}

// Literal returns v in FL source syntax. Parsing the literal with the same
// type yields a value equal to v.
func (v *Value) Literal() string {
	var sb strings.Builder

	v.writeLiteral(&sb)

	return sb.String()
}

// String implements fmt.Stringer.
func (v *Value) String() string {
	if v == nil {
		return "<nil>"
	}

	return v.Literal()
}

func (v *Value) writeLiteral(sb *strings.Builder) {
	switch v.Type {
	case TypeString:
		sb.WriteString(quoteLiteral(v.Str))
	case TypeInt:
		sb.WriteString(strconv.FormatInt(v.Int, 10))
	case TypeFloat:
		sb.WriteString(formatFloat(v.Float))
	case TypeBool:
		sb.WriteString(strconv.FormatBool(v.Bool))
	case TypeList:
		writeItems(sb, "[", "]", v.Items)
	case TypeSet:
		writeItems(sb, "{", "}", v.Items)
	case TypeTuple:
		writeItems(sb, "(", ")", v.Items)
	case TypeDict:
		sb.WriteByte('{')

		for i, key := range v.Keys {
			if i > 0 {
				sb.WriteString(", ")
			}

			entry := v.Entries[key]

			sb.WriteString(key)
			sb.WriteString("(key): ")
			sb.WriteString(key)
			sb.WriteByte('(')
			sb.WriteString(entry.Type.String())
			sb.WriteString(") = ")
			entry.writeLiteral(sb)
		}

		sb.WriteByte('}')
	}
}

func writeItems(sb *strings.Builder, open, end string, items []*Value) {
	sb.WriteString(open)

	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}

		item.writeLiteral(sb)
	}

	sb.WriteString(end)
}

// quoteLiteral wraps s in the quote chosen by quoteFor.
func quoteLiteral(s string) string {
	q, _ := quoteFor(s)

	return string(q) + s + string(q)
}

// formatFloat always includes a decimal point so the literal reads back as a
// float.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if math.IsNaN(f) || math.IsInf(f, 0) || strings.ContainsRune(s, '.') {
		return s
	}

	return s + ".0"
}

// Native converts v to plain Go values: string, int64, float64, bool, []any
// for list, set and tuple, and map[string]any for dict.
func (v *Value) Native() any {
	switch v.Type {
	case TypeString:
		return v.Str
	case TypeInt:
		return v.Int
	case TypeFloat:
		return v.Float
	case TypeBool:
		return v.Bool
	case TypeList, TypeSet, TypeTuple:
		items := make([]any, len(v.Items))
		for i, item := range v.Items {
			items[i] = item.Native()
		}

		return items
	case TypeDict:
		entries := make(map[string]any, len(v.Keys))
		for _, key := range v.Keys {
			entries[key] = v.Entries[key].Native()
		}

		return entries
	default:
		return nil
	}
}

// Clone returns a deep copy of v.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}

	c := *v

	if v.Items != nil {
		c.Items = make([]*Value, len(v.Items))
		for i, item := range v.Items {
			c.Items[i] = item.Clone()
		}
	}

	if v.Entries != nil {
		c.Keys = append([]string(nil), v.Keys...)
		c.Entries = make(map[string]*Value, len(v.Entries))

		for key, entry := range v.Entries {
			c.Entries[key] = entry.Clone()
		}
	}

	return &c
}
