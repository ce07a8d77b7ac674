package lang

import (
	"context"
	"errors"
	"testing"
)

func exprParser(t *testing.T) *Parser {
	t.Helper()

	return parseSourceText(t, `
const scale(int) = 4
const half(float) = 0.5
const label(str) = "x"
a(int) = 5
b(int) = 3
zero(int) = 0
f(float) = 2.5
three(float) = 3.0
word(str) = "hello"
other(str) = "world"
on(bool) = true
off(bool) = false
items(list) = [1, 2]
conf(dict) = {
  net(key): net(dict) = {port(key): port(int) = 8080},
  name(key): name(str) = "api",
}
`)
}

// parseSourceText is parseSource without the path.
func parseSourceText(t *testing.T, src string) *Parser {
	t.Helper()

	p, _ := parseSource(t, src)

	return p
}

func TestEvaluate_Arithmetic(t *testing.T) {
	p := exprParser(t)

	tests := []struct {
		name string
		typ  Type
		expr string
		want *Value
	}{
		{"precedence", TypeInt, "1 + 2 * 3", NewInt(7)},
		{"parentheses", TypeInt, "(1 + 2) * 3", NewInt(9)},
		{"true division", TypeFloat, "7 / 2", NewFloat(3.5)},
		{"integral division into int", TypeInt, "6 / 2", NewInt(3)},
		{"floored modulo", TypeInt, "-7 % 3", NewInt(2)},
		{"float modulo", TypeFloat, "7.5 % 2", NewFloat(1.5)},
		{"rounded", TypeFloat, "10 / 3", NewFloat(3.33333)},
		{"float noise rounded", TypeFloat, "0.1 + 0.2", NewFloat(0.3)},
		{"references", TypeInt, "$a * $b - 1", NewInt(14)},
		{"mixed int and float", TypeFloat, "$a + $f", NewFloat(7.5)},
		{"int result into float", TypeFloat, "$a - $b", NewFloat(2)},
		{"bare constant", TypeInt, "$a * scale", NewInt(20)},
		{"sigil constant", TypeFloat, "$half * 3", NewFloat(1.5)},
		{"dotted reference", TypeInt, "$conf.net.port + 1", NewInt(8081)},
		{"unary minus", TypeInt, "-$a + 1", NewInt(-4)},
		{"largest square", TypeInt, "3037000499 * 3037000499", NewInt(9223372030926249001)},
		{"near max", TypeInt, "9223372036854775806 + 1", NewInt(9223372036854775807)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ParseValue(context.Background(), tt.typ, tt.expr)
			if err != nil {
				t.Fatalf("ParseValue(%s): %v", tt.expr, err)
			}

			if got.Type != tt.typ || !got.Equal(tt.want) {
				t.Errorf("ParseValue(%s) = %s %s, want %s", tt.expr, got.Type, got, tt.want)
			}
		})
	}
}

func TestEvaluate_ArithmeticErrors(t *testing.T) {
	p := exprParser(t)

	tests := []struct {
		name   string
		typ    Type
		expr   string
		target error
	}{
		{"fractional result into int", TypeInt, "7 / 2", ErrTypeMismatch},
		{"division by zero", TypeFloat, "$a / $zero", ErrDivisionByZero},
		{"modulo by zero", TypeInt, "$a % 0", ErrDivisionByZero},
		{"power", TypeInt, "2 ** 3", ErrUnsupportedOperator},
		{"comparison operator", TypeInt, "1 + (2 == 2)", ErrUnsupportedOperator},
		{"dangling operator", TypeInt, "1 +", ErrMalformedExpression},
		{"unknown identifier", TypeInt, "nope + 1", ErrUndefined},
		{"unknown reference", TypeInt, "$nope + 1", ErrUndefined},
		{"string operand", TypeInt, "$word + 1", ErrNotNumeric},
		{"string constant", TypeInt, "label + 1", ErrNotNumeric},
		{"list operand", TypeInt, "$items * 2", ErrNotNumeric},
		{"string literal operand", TypeInt, `"s" + 1`, ErrMalformedExpression},
		{"reference with trailing text", TypeInt, "$a b", ErrMalformedExpression},
		{"addition overflow", TypeInt, "9223372036854775807 + 1", ErrOverflow},
		{"subtraction overflow", TypeInt, "-9223372036854775807 - 2", ErrOverflow},
		{"multiplication overflow", TypeInt, "9999999999 * 9999999999", ErrOverflow},
		{"overflow into float", TypeFloat, "9223372036854775807 * 2", ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseValue(context.Background(), tt.typ, tt.expr)
			if !errors.Is(err, tt.target) {
				t.Errorf("ParseValue(%s) error = %v, want %v", tt.expr, err, tt.target)
			}
		})
	}
}

func TestEvaluate_Comparison(t *testing.T) {
	p := exprParser(t)

	tests := []struct {
		expr string
		want bool
	}{
		{"$a > $b", true},
		{"$a < $b", false},
		{"$b = $three", true},
		{"$a = $b", false},
		{"$f < $a", true},
		{"$word < $other", true},
		{"$word = $word", true},
		{"$items = $items", true},
		{"$conf.name = $conf.name", true},
		{"$a > $zero", true},
		{"$on > $off", true},
		{"$off < $on", true},
		{"$on < $off", false},
		{"$on = $on", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := p.ParseValue(context.Background(), TypeBool, tt.expr)
			if err != nil {
				t.Fatal(err)
			}

			if got.Bool != tt.want {
				t.Errorf("ParseValue(%s) = %v, want %v", tt.expr, got.Bool, tt.want)
			}
		})
	}
}

func TestEvaluate_ComparisonErrors(t *testing.T) {
	p := exprParser(t)

	tests := []struct {
		name   string
		typ    Type
		expr   string
		target error
	}{
		{"list against int", TypeBool, "$items > $a", ErrIncomparable},
		{"declared as int", TypeInt, "$a > $b", ErrTypeMismatch},
		{"undefined operand", TypeBool, "$a > $nope", ErrUndefined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseValue(context.Background(), tt.typ, tt.expr)
			if !errors.Is(err, tt.target) {
				t.Errorf("ParseValue(%s) error = %v, want %v", tt.expr, err, tt.target)
			}
		})
	}
}

func TestEvaluate_Reference(t *testing.T) {
	p := exprParser(t)

	tests := []struct {
		name string
		typ  Type
		ref  string
		want *Value
	}{
		{"same type", TypeInt, "$a", NewInt(5)},
		{"int widens to float", TypeFloat, "$a", NewFloat(5)},
		{"constant", TypeInt, "$scale", NewInt(4)},
		{"dict attribute", TypeInt, "$conf.net.port", NewInt(8080)},
		{"nested dict", TypeDict, "$conf.net", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ParseValue(context.Background(), tt.typ, tt.ref)
			if err != nil {
				t.Fatal(err)
			}

			if got.Type != tt.typ {
				t.Fatalf("type = %v, want %v", got.Type, tt.typ)
			}

			if tt.want != nil && !got.Equal(tt.want) {
				t.Errorf("ParseValue(%s) = %s, want %s", tt.ref, got, tt.want)
			}
		})
	}

	v, err := p.ParseValue(context.Background(), TypeList, "$items")
	if err != nil {
		t.Fatal(err)
	}

	v.Items[0].Int = 99

	if orig, _ := p.GetVar("items"); orig.Value.Items[0].Int != 1 {
		t.Error("resolved reference shares storage with the variable")
	}
}

func TestEvaluate_ReferenceErrors(t *testing.T) {
	p := exprParser(t)

	tests := []struct {
		name   string
		typ    Type
		ref    string
		target error
	}{
		{"undefined", TypeInt, "$missing", ErrUndefined},
		{"no such object", TypeInt, "$missing.port", ErrNoSuchObject},
		{"not a dict", TypeInt, "$a.port", ErrNotDict},
		{"no attribute", TypeInt, "$conf.host", ErrNoAttribute},
		{"float into int", TypeInt, "$f", ErrTypeMismatch},
		{"str into int", TypeInt, "$word", ErrTypeMismatch},
		{"int into str", TypeString, "$a", ErrTypeMismatch},
		{"reference inside str", TypeString, "$word and more", ErrMalformedExpression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseValue(context.Background(), tt.typ, tt.ref)
			if !errors.Is(err, tt.target) {
				t.Errorf("ParseValue(%s) error = %v, want %v", tt.ref, err, tt.target)
			}
		})
	}

	if _, err := p.ParseValue(context.Background(), TypeInt, "$a.port"); !errors.Is(err, ErrReference) {
		t.Errorf("dotted reference error %v is not a ReferenceError", err)
	}
}

func TestApplyOperator(t *testing.T) {
	tests := []struct {
		op   string
		l, r number
		want number
	}{
		{"+", number{i: 2}, number{i: 3}, number{i: 5}},
		{"/", number{i: 6}, number{i: 3}, number{f: 2, isFloat: true}},
		{"%", number{i: 7}, number{i: -3}, number{i: -2}},
		{"%", number{i: -7}, number{i: -3}, number{i: -1}},
		{"%", number{f: -1.5, isFloat: true}, number{i: 1}, number{f: 0.5, isFloat: true}},
		{"*", number{i: 2}, number{f: 1.5, isFloat: true}, number{f: 3, isFloat: true}},
	}

	for _, tt := range tests {
		got, err := applyOperator(tt.op, tt.l, tt.r)
		if err != nil {
			t.Fatalf("%v %s %v: %v", tt.l, tt.op, tt.r, err)
		}

		if got != tt.want {
			t.Errorf("%v %s %v = %v, want %v", tt.l, tt.op, tt.r, got, tt.want)
		}
	}
}
