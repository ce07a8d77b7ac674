package lang

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseType(t *testing.T) {
	for typ := range Types() {
		got, err := ParseType(typ.String())
		if err != nil {
			t.Fatalf("ParseType(%q): %v", typ, err)
		}

		if got != typ {
			t.Errorf("ParseType(%q) = %v, want %v", typ, got, typ)
		}
	}

	if _, err := ParseType("map"); !errors.Is(err, ErrUnknownType) || !errors.Is(err, ErrType) {
		t.Errorf("ParseType(map) error = %v, want unknown type", err)
	}

	names := make([]string, 0, 8)
	for typ := range Types() {
		names = append(names, typ.String())
	}

	want := []string{"str", "int", "float", "bool", "list", "dict", "set", "tuple"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("Types() mismatch (-want +got):\n%s", diff)
	}
}

func TestType_UnmarshalText(t *testing.T) {
	var typ Type
	if err := typ.UnmarshalText([]byte("tuple")); err != nil {
		t.Fatal(err)
	}

	if typ != TypeTuple {
		t.Errorf("got %v, want tuple", typ)
	}

	if err := typ.UnmarshalText([]byte("array")); err == nil {
		t.Error("expected error for unknown type")
	}

	if typ != TypeTuple {
		t.Errorf("failed unmarshal changed the type to %v", typ)
	}
}

func TestValue_Equal(t *testing.T) {
	set1, _ := NewSet(NewInt(1), NewInt(2))
	set2, _ := NewSet(NewInt(2), NewInt(1))

	d1 := NewDict()
	d1.Put("a", NewInt(1))
	d1.Put("b", NewString("x"))

	d2 := NewDict()
	d2.Put("b", NewString("x"))
	d2.Put("a", NewFloat(1))

	tests := []struct {
		name string
		a, b *Value
		want bool
	}{
		{"same string", NewString("a"), NewString("a"), true},
		{"different string", NewString("a"), NewString("b"), false},
		{"int and float", NewInt(3), NewFloat(3), true},
		{"int and fractional float", NewInt(3), NewFloat(3.5), false},
		{"bool and int", NewBool(true), NewInt(1), false},
		{"list order matters", NewList(NewInt(1), NewInt(2)), NewList(NewInt(2), NewInt(1)), false},
		{"list and tuple", NewList(NewInt(1)), NewTuple(NewInt(1)), false},
		{"set order ignored", set1, set2, true},
		{"dict order ignored", d1, d2, true},
		{"nil", nil, nil, true},
		{"nil and value", nil, NewInt(0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewSet(t *testing.T) {
	set, err := NewSet(NewInt(1), NewString("a"), NewInt(1), NewFloat(1), NewString("a"))
	if err != nil {
		t.Fatal(err)
	}

	if got := set.Literal(); got != `{1, "a"}` {
		t.Errorf("Literal() = %s, want {1, \"a\"}", got)
	}

	tuple := NewTuple(NewInt(1), NewString("x"))
	if _, err := NewSet(tuple, tuple.Clone()); err != nil {
		t.Errorf("tuple elements: %v", err)
	}

	_, err = NewSet(NewList(NewInt(1)))
	if !errors.Is(err, ErrUnhashable) {
		t.Errorf("list element error = %v, want unhashable", err)
	}
}

func TestValue_Literal(t *testing.T) {
	dict := NewDict()
	dict.Put("host", NewString("localhost"))
	dict.Put("port", NewInt(80))

	tests := []struct {
		name string
		v    *Value
		want string
	}{
		{"string", NewString("hi"), `"hi"`},
		{"string with double quote", NewString(`say "hi"`), `'say "hi"'`},
		{"int", NewInt(-4), "-4"},
		{"integral float", NewFloat(3), "3.0"},
		{"float", NewFloat(0.25), "0.25"},
		{"bool", NewBool(false), "false"},
		{"list", NewList(NewInt(1), NewString("a")), `[1, "a"]`},
		{"tuple", NewTuple(NewBool(true)), "(true)"},
		{"empty list", NewList(), "[]"},
		{"dict", dict, `{host(key): host(str) = "localhost", port(key): port(int) = 80}`},
		{"empty dict", NewDict(), "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Literal(); got != tt.want {
				t.Errorf("Literal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValue_RoundTrip(t *testing.T) {
	tests := []struct {
		typ     Type
		literal string
	}{
		{TypeString, `"hello world"`},
		{TypeString, `'say "hi"'`},
		{TypeString, `""`},
		{TypeInt, "42"},
		{TypeInt, "-7"},
		{TypeFloat, "3.25"},
		{TypeFloat, "3"},
		{TypeFloat, "-0.5"},
		{TypeBool, "true"},
		{TypeBool, "false"},
		{TypeList, `[1, 2.5, true, hello, "a, b", "42", [1, 2], (x, y)]`},
		{TypeList, "[]"},
		{TypeList, "[don't, b]"},
		{TypeList, `['it's "q"', "a, b"]`},
		{TypeSet, "{it's, fine}"},
		{TypeSet, "{1, 2, 3, 2}"},
		{TypeSet, "[a, b, (1, 2)]"},
		{TypeTuple, "(a, 1, 2.0, false)"},
		{TypeTuple, "()"},
		{TypeDict, `{k1(key): v(str) = "hello", k2(key): v(int) = 5}`},
		{TypeDict, `{outer(key): o(dict) = {inner(key): i(list) = [1, 2]}}`},
		{TypeDict, "{}"},
	}

	ctx := context.Background()
	p := NewParser()

	for _, tt := range tests {
		t.Run(tt.typ.String()+" "+tt.literal, func(t *testing.T) {
			first, err := p.ParseValue(ctx, tt.typ, tt.literal)
			if err != nil {
				t.Fatalf("ParseValue(%s): %v", tt.literal, err)
			}

			if first.Type != tt.typ {
				t.Fatalf("type = %v, want %v", first.Type, tt.typ)
			}

			second, err := p.ParseValue(ctx, tt.typ, first.Literal())
			if err != nil {
				t.Fatalf("ParseValue(%s): %v", first.Literal(), err)
			}

			if !first.Equal(second) {
				t.Errorf("round trip %s -> %s changed the value", tt.literal, first.Literal())
			}
		})
	}
}

func TestValue_Native(t *testing.T) {
	v, err := NewParser().ParseValue(
		context.Background(),
		TypeDict,
		`{k1(key): v(str) = "hello", k2(key): v(int) = 5, k3(key): v(tuple) = (1, 2.5)}`,
	)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]any{
		"k1": "hello",
		"k2": int64(5),
		"k3": []any{int64(1), 2.5},
	}

	if diff := cmp.Diff(want, v.Native()); diff != "" {
		t.Errorf("Native() mismatch (-want +got):\n%s", diff)
	}
}

func TestValue_Clone(t *testing.T) {
	orig := NewDict()
	orig.Put("list", NewList(NewInt(1)))

	c := orig.Clone()
	c.Entries["list"].Items[0].Int = 9
	c.Put("extra", NewBool(true))

	if orig.Entries["list"].Items[0].Int != 1 {
		t.Error("clone shares list items with the original")
	}

	if slices.Contains(orig.Keys, "extra") {
		t.Error("clone shares keys with the original")
	}
}
