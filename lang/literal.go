package lang

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// identifier matches names of variables, constants, dict keys and import
// path segments. Letters from any script are accepted.
const identifier = `[\p{L}\p{N}_]+`

var (
	namePattern   = regexp.MustCompile(`^` + identifier + `$`)
	numberPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	entryPattern  = regexp.MustCompile(
		`(?s)^(` + identifier + `)\((` + identifier + `)\)\s*:\s*(` +
			identifier + `)\((` + identifier + `)\)\s*=\s*(.*)$`,
	)
	entryHeadPattern = regexp.MustCompile(
		`^` + identifier + `\(` + identifier + `\)\s*:`,
	)
)

// Tokens accepted as true by a bool declaration, compared case-insensitively.
// Every other token is false.
var affirmative = map[string]bool{"да": true, "true": true, "1": true}

var negative = map[string]bool{"нет": true, "false": true, "0": true}

var closer = map[rune]rune{'[': ']', '(': ')', '{': '}'}

// parseScalar parses text as a literal of scalar type t.
func (p *Parser) parseScalar(ctx context.Context, t Type, text string) (*Value, error) {
	switch t {
	case TypeString:
		s, ok := unquote(text)
		if !ok {
			return nil, ErrUnquotedString.With(slog.String("value", text))
		}

		return NewString(s), nil

	case TypeInt:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, ErrInvalidNumber.Wrap(err).With(
				slog.String("type", t.String()),
				slog.String("value", text),
			)
		}

		return NewInt(i), nil

	case TypeFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, ErrInvalidNumber.Wrap(err).With(
				slog.String("type", t.String()),
				slog.String("value", text),
			)
		}

		return NewFloat(f), nil

	case TypeBool:
		token := strings.ToLower(strings.TrimSpace(text))
		if !affirmative[token] && !negative[token] {
			p.logger.DebugContext(ctx, "unrecognized boolean treated as false",
				slog.String("value", text))
		}

		return NewBool(affirmative[token]), nil

	default:
		return nil, ErrTypeMismatch.With(
			slog.String("want", "scalar"),
			slog.String("got", t.String()),
		)
	}
}

// parseSequence parses a bracketed, comma-separated literal as a list, set or
// tuple. Any of the bracket pairs [], () and {} is accepted; t alone decides
// the result type.
func (p *Parser) parseSequence(ctx context.Context, t Type, text string) (*Value, error) {
	inner, ok := unbracket(text)
	if !ok {
		return nil, ErrMalformedLiteral.With(
			slog.String("type", t.String()),
			slog.String("value", text),
		)
	}

	elems, err := splitElements(inner)
	if err != nil {
		return nil, WrapError(err).With(slog.String("value", text))
	}

	items := make([]*Value, 0, len(elems))

	for _, elem := range elems {
		item, err := p.parseElement(ctx, elem)
		if err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	switch t {
	case TypeSet:
		set, err := NewSet(items...)
		if err != nil {
			return nil, WrapError(err).With(slog.String("value", text))
		}

		return set, nil
	case TypeTuple:
		return NewTuple(items...), nil
	default:
		return NewList(items...), nil
	}
}

// parseElement classifies one element of a compound literal. Bare words are
// strings; quotes around an element are optional.
func (p *Parser) parseElement(ctx context.Context, text string) (*Value, error) {
	switch {
	case strings.HasPrefix(text, "$"):
		v, err := p.resolve(text[1:])
		if err != nil {
			return nil, err
		}

		return v.Clone(), nil

	case strings.HasPrefix(text, "["):
		return p.parseSequence(ctx, TypeList, text)

	case strings.HasPrefix(text, "("):
		return p.parseSequence(ctx, TypeTuple, text)

	case strings.HasPrefix(text, "{"):
		// An empty {} element is a dict.
		if inner, ok := unbracket(text); ok &&
			(strings.TrimSpace(inner) == "" || isDictPayload(inner)) {
			return p.parseDict(ctx, text)
		}

		return p.parseSequence(ctx, TypeSet, text)

	case numberPattern.MatchString(text):
		if strings.ContainsRune(text, '.') {
			return p.parseScalar(ctx, TypeFloat, text)
		}

		return p.parseScalar(ctx, TypeInt, text)

	case strings.EqualFold(text, "true"), strings.EqualFold(text, "false"):
		return NewBool(strings.EqualFold(text, "true")), nil
	}

	if s, ok := unquote(text); ok {
		return NewString(s), nil
	}

	return NewString(text), nil
}

// parseDict parses {key(type): name(type) = value, ...}. The key's declared
// type is accepted but not checked; each value is evaluated under its own
// declared type.
func (p *Parser) parseDict(ctx context.Context, text string) (*Value, error) {
	inner, ok := unbracket(text)
	if !ok || text[0] != '{' {
		return nil, ErrMalformedLiteral.With(
			slog.String("type", TypeDict.String()),
			slog.String("value", text),
		)
	}

	elems, err := splitElements(inner)
	if err != nil {
		return nil, WrapError(err).With(slog.String("value", text))
	}

	dict := NewDict()

	for _, elem := range elems {
		m := entryPattern.FindStringSubmatch(elem)
		if m == nil {
			return nil, ErrMalformedLiteral.With(
				slog.String("type", TypeDict.String()),
				slog.String("entry", elem),
			)
		}

		t, err := ParseType(m[4])
		if err != nil {
			return nil, WrapError(err).With(slog.String("key", m[1]))
		}

		v, err := p.evaluate(ctx, t, m[5])
		if err != nil {
			return nil, WrapError(err).With(slog.String("key", m[1]))
		}

		dict.Put(m[1], v)
	}

	return dict, nil
}

// isDictPayload reports whether the inside of a brace literal holds dict
// entries rather than set elements.
func isDictPayload(inner string) bool {
	return entryHeadPattern.MatchString(strings.TrimSpace(inner))
}

// unquote strips one pair of matching single or double quotes.
func unquote(text string) (string, bool) {
	if len(text) < 2 {
		return "", false
	}

	q := text[0]
	if (q != '"' && q != '\'') || text[len(text)-1] != q {
		return "", false
	}

	return text[1 : len(text)-1], true
}

// unbracket strips one pair of matching brackets.
func unbracket(text string) (string, bool) {
	if len(text) < 2 {
		return "", false
	}

	end, ok := closer[rune(text[0])]
	if !ok || rune(text[len(text)-1]) != end {
		return "", false
	}

	return text[1 : len(text)-1], true
}

// splitElements splits s on commas that are outside quotes and nested
// brackets. A single trailing comma is allowed.
func splitElements(s string) ([]string, error) {
	var (
		elems []string
		stack []rune
		quote quoteState
		start int
	)

	for i, r := range s {
		if quote.next(s, i) {
			continue
		}

		switch {
		case closer[r] != 0:
			stack = append(stack, closer[r])

		case r == ']' || r == ')' || r == '}':
			if len(stack) == 0 || stack[len(stack)-1] != r {
				return nil, ErrUnbalanced.With(slog.String("delimiter", string(r)))
			}

			stack = stack[:len(stack)-1]

		case r == ',' && len(stack) == 0:
			elem := strings.TrimSpace(s[start:i])
			if elem == "" {
				return nil, ErrEmptyElement.With(slog.Int("index", len(elems)))
			}

			elems = append(elems, elem)
			start = i + 1
		}
	}

	if quote.open != 0 {
		return nil, ErrUnterminatedQuote.With(slog.String("quote", string(quote.open)))
	}

	if len(stack) > 0 {
		return nil, ErrUnbalanced.With(
			slog.String("delimiter", string(stack[len(stack)-1])),
		)
	}

	if last := strings.TrimSpace(s[start:]); last != "" {
		elems = append(elems, last)
	}

	return elems, nil
}

// quoteState tracks quoted sections while a line or literal is scanned. A
// quote opens a section only where a value can begin and closes it only where
// a value can end, so an apostrophe inside a bare word is plain text.
type quoteState struct {
	open byte
}

// next advances over s[i] and reports whether it is quoted text or a quote
// delimiter.
func (q *quoteState) next(s string, i int) bool {
	c := s[i]

	switch {
	case q.open != 0:
		if c == q.open && quoteCloses(s, i) {
			q.open = 0
		}

		return true

	case (c == '"' || c == '\'') && quoteOpens(s, i):
		q.open = c

		return true
	}

	return false
}

// quoteOpens reports whether the quote at s[i] begins a value: it is first on
// the line or follows one of = , : [ ( { after optional spaces.
func quoteOpens(s string, i int) bool {
	prev := strings.TrimRightFunc(s[:i], unicode.IsSpace)

	return prev == "" || strings.IndexByte("=,:[({", prev[len(prev)-1]) >= 0
}

// quoteCloses reports whether the quote at s[i] ends a value: it is last on
// the line or is followed by one of , ] ) } / after optional spaces.
func quoteCloses(s string, i int) bool {
	rest := strings.TrimLeftFunc(s[i+1:], unicode.IsSpace)

	return rest == "" || strings.IndexByte(",])}/", rest[0]) >= 0
}

// quoteFor returns the quote that delimits s so that it reads back as a
// single value, preferring double quotes unless s contains one. ok is false
// when neither quote can.
func quoteFor(s string) (byte, bool) {
	order := []byte{'"', '\''}
	if strings.ContainsRune(s, '"') {
		order = []byte{'\'', '"'}
	}

	for _, q := range order {
		text := string(q) + s + string(q)
		whole := true

		for i := 1; i < len(text)-1 && whole; i++ {
			whole = text[i] != q || !quoteCloses(text, i)
		}

		if whole {
			return q, true
		}
	}

	return order[0], false
}

// quoteString returns raw as a quoted str literal, leaving it unchanged if it
// is already quoted.
func quoteString(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if _, ok := unquote(text); ok {
		return text, nil
	}

	if _, ok := quoteFor(text); !ok {
		return "", ErrUnquotedString.With(slog.String("value", raw))
	}

	return quoteLiteral(text), nil
}
