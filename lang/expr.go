package lang

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
)

// Arithmetic results are rounded to this many decimal places.
const precision = 5

const reference = `\$(` + identifier + `(?:\.` + identifier + `)*)`

var (
	refPattern     = regexp.MustCompile(reference)
	loneRefPattern = regexp.MustCompile(`^` + reference + `$`)
	comparePattern = regexp.MustCompile(
		`^` + reference + `\s*([<>=])\s*` + reference + `$`,
	)
)

// evaluate produces the value of raw declared with type t.
//
// A lone reference resolves and must conform to t. A comparison of two
// references yields a bool. Numeric declarations fall back to arithmetic when
// the text is not a plain literal. Everything else is a literal of t.
func (p *Parser) evaluate(ctx context.Context, t Type, raw string) (*Value, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, ErrEmptyValue.With(slog.String("type", t.String()))
	}

	if m := loneRefPattern.FindStringSubmatch(text); m != nil {
		v, err := p.resolve(m[1])
		if err != nil {
			return nil, err
		}

		return conform(t, v)
	}

	if m := comparePattern.FindStringSubmatch(text); m != nil {
		if t != TypeBool {
			return nil, ErrTypeMismatch.With(
				slog.String("want", t.String()),
				slog.String("got", TypeBool.String()),
				slog.String("value", text),
			)
		}

		return p.compare(ctx, m[1], m[2], m[3])
	}

	switch {
	case t.IsNumeric():
		v, err := p.parseScalar(ctx, t, text)
		if err == nil {
			return v, nil
		}

		if isArithmetic(text) {
			return p.arithmetic(ctx, t, text)
		}

		if strings.HasPrefix(text, "$") {
			return nil, ErrMalformedExpression.With(slog.String("value", text))
		}

		return nil, err

	case t.IsScalar():
		if strings.HasPrefix(text, "$") {
			return nil, ErrMalformedExpression.With(slog.String("value", text))
		}

		return p.parseScalar(ctx, t, text)

	case t == TypeDict:
		return p.parseDict(ctx, text)

	case t.IsSequence():
		return p.parseSequence(ctx, t, text)

	default:
		return nil, ErrUnknownType.With(slog.String("type", t.String()))
	}
}

func isArithmetic(text string) bool {
	return strings.ContainsAny(text, "+-*/%")
}

// resolve looks up a reference without its sigil. A plain name is a variable
// or else a constant; a dotted name walks dict entries of a variable.
func (p *Parser) resolve(ref string) (*Value, error) {
	segs := strings.Split(ref, ".")

	if len(segs) == 1 {
		if v, ok := p.vars[ref]; ok {
			return v.Value, nil
		}

		if v, ok := p.consts[ref]; ok {
			return v, nil
		}

		return nil, ErrUndefined.With(slog.String("name", ref))
	}

	obj, ok := p.vars[segs[0]]
	if !ok {
		return nil, ErrNoSuchObject.With(
			slog.String("name", segs[0]),
			slog.String("reference", ref),
		)
	}

	v := obj.Value

	for _, attr := range segs[1:] {
		if v.Type != TypeDict {
			return nil, ErrNotDict.With(
				slog.String("reference", ref),
				slog.String("type", v.Type.String()),
			)
		}

		next, ok := v.Entries[attr]
		if !ok {
			return nil, ErrNoAttribute.With(
				slog.String("reference", ref),
				slog.String("attribute", attr),
			)
		}

		v = next
	}

	return v, nil
}

// conform returns a copy of v as type t. An int widens to a float; any other
// difference is a type mismatch.
func conform(t Type, v *Value) (*Value, error) {
	switch {
	case v.Type == t:
		return v.Clone(), nil
	case t == TypeFloat && v.Type == TypeInt:
		return NewFloat(float64(v.Int)), nil
	default:
		return nil, ErrTypeMismatch.With(
			slog.String("want", t.String()),
			slog.String("got", v.Type.String()),
		)
	}
}

// arithmetic evaluates text over + - * / % and parentheses. Sigil references
// and bare constant names are the only operands besides numeric literals.
func (p *Parser) arithmetic(ctx context.Context, t Type, text string) (*Value, error) {
	patcher := &operandPatcher{
		refs:   map[string]*Value{},
		names:  map[string]string{},
		consts: p.consts,
	}

	var resolveErr error

	source := refPattern.ReplaceAllStringFunc(text, func(m string) string {
		if resolveErr != nil {
			return m
		}

		v, err := p.resolve(m[1:])
		if err != nil {
			resolveErr = err

			return m
		}

		id := "__ref" + strconv.Itoa(len(patcher.refs))
		patcher.refs[id] = v
		patcher.names[id] = m

		return id
	})
	if resolveErr != nil {
		return nil, WrapError(resolveErr).With(slog.String("expression", text))
	}

	tree, err := parser.Parse(source)
	if err != nil {
		return nil, ErrMalformedExpression.Wrap(err).With(
			slog.String("expression", text),
		)
	}

	ast.Walk(&tree.Node, patcher)

	if patcher.err != nil {
		return nil, WrapError(patcher.err).With(slog.String("expression", text))
	}

	result, err := evalNumber(tree.Node)
	if err != nil {
		return nil, WrapError(err).With(slog.String("expression", text))
	}

	if result.isFloat {
		result.f = round(result.f)
	}

	p.logger.TraceContext(ctx, "arithmetic",
		slog.String("expression", text),
		slog.String("result", result.String()))

	switch {
	case t == TypeFloat:
		return NewFloat(result.float()), nil
	case t == TypeInt && !result.isFloat:
		return NewInt(result.i), nil
	case t == TypeInt && result.f == math.Trunc(result.f):
		return NewInt(int64(result.f)), nil
	default:
		return nil, ErrTypeMismatch.With(
			slog.String("want", t.String()),
			slog.String("got", TypeFloat.String()),
			slog.String("expression", text),
			slog.String("result", result.String()),
		)
	}
}

// operandPatcher rejects every expr node outside the arithmetic subset and
// replaces identifiers with the numeric literal they stand for.
type operandPatcher struct {
	refs   map[string]*Value // generated identifier -> referenced value
	names  map[string]string // generated identifier -> reference as written
	consts map[string]*Value
	err    error
}

// Visit implements ast.Visitor for operandPatcher.
func (o *operandPatcher) Visit(node *ast.Node) {
	if o.err != nil {
		return
	}

	switch n := (*node).(type) {
	case *ast.IntegerNode, *ast.FloatNode:

	case *ast.IdentifierNode:
		name := n.Value

		v, ok := o.refs[name]
		if ok {
			name = o.names[name]
		} else if v, ok = o.consts[name]; !ok {
			o.err = ErrUndefined.With(slog.String("name", name))

			return
		}

		switch v.Type {
		case TypeInt:
			ast.Patch(node, &ast.IntegerNode{Value: int(v.Int)})
		case TypeFloat:
			ast.Patch(node, &ast.FloatNode{Value: v.Float})
		default:
			o.err = ErrNotNumeric.With(
				slog.String("name", name),
				slog.String("type", v.Type.String()),
			)
		}

	case *ast.BinaryNode:
		switch n.Operator {
		case "+", "-", "*", "/", "%":
		default:
			o.err = ErrUnsupportedOperator.With(slog.String("operator", n.Operator))
		}

	case *ast.UnaryNode:
		if n.Operator != "-" && n.Operator != "+" {
			o.err = ErrUnsupportedOperator.With(slog.String("operator", n.Operator))
		}

	default:
		o.err = ErrMalformedExpression.With(slog.String("node", fmt.Sprintf("%T", n)))
	}
}

// number is an arithmetic operand. Integer arithmetic stays integral except
// for true division.
type number struct {
	i       int64
	f       float64
	isFloat bool
}

func (n number) float() float64 {
	if n.isFloat {
		return n.f
	}

	return float64(n.i)
}

func (n number) String() string {
	if n.isFloat {
		return formatFloat(n.f)
	}

	return strconv.FormatInt(n.i, 10)
}

func evalNumber(node ast.Node) (number, error) {
	switch n := node.(type) {
	case *ast.IntegerNode:
		return number{i: int64(n.Value)}, nil

	case *ast.FloatNode:
		return number{f: n.Value, isFloat: true}, nil

	case *ast.UnaryNode:
		x, err := evalNumber(n.Node)
		if err != nil || n.Operator != "-" {
			return x, err
		}

		if !x.isFloat && x.i == math.MinInt64 {
			return number{}, ErrOverflow.With(slog.String("operator", "-"))
		}

		x.i, x.f = -x.i, -x.f

		return x, nil

	case *ast.BinaryNode:
		l, err := evalNumber(n.Left)
		if err != nil {
			return number{}, err
		}

		r, err := evalNumber(n.Right)
		if err != nil {
			return number{}, err
		}

		return applyOperator(n.Operator, l, r)

	default:
		return number{}, ErrMalformedExpression.With(
			slog.String("node", fmt.Sprintf("%T", n)),
		)
	}
}

func applyOperator(op string, l, r number) (number, error) {
	if (op == "/" || op == "%") && r.float() == 0 {
		return number{}, ErrDivisionByZero.With(slog.String("operator", op))
	}

	if !l.isFloat && !r.isFloat {
		switch op {
		case "+", "-", "*":
			n, ok := integerOp(op, l.i, r.i)
			if !ok {
				return number{}, ErrOverflow.With(
					slog.String("operator", op),
					slog.String("left", l.String()),
					slog.String("right", r.String()),
				)
			}

			return number{i: n}, nil
		case "%":
			m := l.i % r.i
			if m != 0 && (m < 0) != (r.i < 0) {
				m += r.i
			}

			return number{i: m}, nil
		}
	}

	a, b := l.float(), r.float()

	switch op {
	case "+":
		return number{f: a + b, isFloat: true}, nil
	case "-":
		return number{f: a - b, isFloat: true}, nil
	case "*":
		return number{f: a * b, isFloat: true}, nil
	case "/":
		return number{f: a / b, isFloat: true}, nil
	case "%":
		// Floored modulo: the result takes the sign of the divisor.
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}

		return number{f: m, isFloat: true}, nil
	default:
		return number{}, ErrUnsupportedOperator.With(slog.String("operator", op))
	}
}

// integerOp applies op to l and r and reports whether the result fits in
// an int64.
func integerOp(op string, l, r int64) (int64, bool) {
	switch op {
	case "+":
		n := l + r

		return n, (l^n)&(r^n) >= 0
	case "-":
		n := l - r

		return n, (l^r)&(l^n) >= 0
	default:
		if l == 0 || r == 0 {
			return 0, true
		}

		n := l * r
		if (l == -1 && r == math.MinInt64) || (r == -1 && l == math.MinInt64) {
			return n, false
		}

		return n, n/r == l
	}
}

func round(f float64) float64 {
	scale := math.Pow10(precision)

	return math.Round(f*scale) / scale
}

// compare evaluates $left op $right. Equality is structural; ordering is
// delegated to expr and fails for operands it cannot order.
func (p *Parser) compare(ctx context.Context, left, op, right string) (*Value, error) {
	a, err := p.resolve(left)
	if err != nil {
		return nil, err
	}

	b, err := p.resolve(right)
	if err != nil {
		return nil, err
	}

	if op == "=" {
		return NewBool(a.Equal(b)), nil
	}

	env := map[string]any{"a": ordered(a), "b": ordered(b)}
	key := op + ":" + a.Type.String() + ":" + b.Type.String()

	program, ok := p.programs[key]
	if !ok {
		program, err = expr.Compile("a "+op+" b", expr.Env(env), expr.AsBool())
		if err != nil {
			return nil, ErrIncomparable.Wrap(err).With(
				slog.String("left", a.Type.String()),
				slog.String("right", b.Type.String()),
			)
		}

		p.programs[key] = program
	}

	out, err := vm.Run(program, env)
	if err != nil {
		return nil, ErrIncomparable.Wrap(err).With(
			slog.String("left", a.Type.String()),
			slog.String("right", b.Type.String()),
		)
	}

	result, _ := out.(bool)

	p.logger.TraceContext(ctx, "comparison",
		slog.String("left", left),
		slog.String("operator", op),
		slog.String("right", right),
		slog.Bool("result", result))

	return NewBool(result), nil
}

// ordered returns the operand expr orders v by. Booleans order false before
// true.
func ordered(v *Value) any {
	if v.Type == TypeBool {
		if v.Bool {
			return 1
		}

		return 0
	}

	return v.Native()
}
