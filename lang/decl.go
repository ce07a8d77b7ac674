package lang

import (
	"context"
	"log/slog"
	"regexp"
)

var (
	declPattern = regexp.MustCompile(
		`(?s)^(` + identifier + `)\((` + identifier + `)\)\s*=\s*(.*)$`,
	)
	constPattern = regexp.MustCompile(
		`(?s)^const\s+(` + identifier + `)\((` + identifier + `)\)\s*=\s*(.*)$`,
	)
)

// declare binds the variable or constant declared by c.
func (p *Parser) declare(ctx context.Context, file string, c chunk) error {
	at := []slog.Attr{slog.String("file", file), slog.Int("line", c.start)}

	if m := constPattern.FindStringSubmatch(c.text); m != nil {
		return p.declareConst(ctx, m[1], m[2], m[3], at)
	}

	m := declPattern.FindStringSubmatch(c.text)
	if m == nil {
		return ErrMalformedDeclaration.With(append(at, slog.String("text", c.text))...)
	}

	name := m[1]
	at = append(at, slog.String("name", name))

	t, err := ParseType(m[2])
	if err != nil {
		return WrapError(err).With(at...)
	}

	if existing, ok := p.vars[name]; ok && existing.Type != t {
		return ErrRedeclared.With(append(at,
			slog.String("type", t.String()),
			slog.String("declared", existing.Type.String()),
		)...)
	}

	v, err := p.evaluate(ctx, t, m[3])
	if err != nil {
		return WrapError(err).With(at...)
	}

	p.bind(name, t, v)
	p.addSite(name, Site{File: file, Start: c.start, End: c.end})

	p.logger.TraceContext(ctx, "declaration",
		slog.String("file", file),
		slog.Int("start", c.start),
		slog.Int("end", c.end),
		slog.String("name", name),
		slog.String("type", t.String()))

	return nil
}

// declareConst binds a constant. A repeated constant replaces the earlier
// value regardless of type.
func (p *Parser) declareConst(
	ctx context.Context,
	name, typ, raw string,
	at []slog.Attr,
) error {
	at = append(at, slog.String("name", name))

	t, err := ParseType(typ)
	if err != nil {
		return WrapError(err).With(at...)
	}

	v, err := p.evaluate(ctx, t, raw)
	if err != nil {
		return WrapError(err).With(at...)
	}

	p.consts[name] = v

	p.logger.TraceContext(ctx, "constant",
		slog.String("name", name),
		slog.String("type", t.String()))

	return nil
}
