package lang

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"unicode"
)

// rewrite is new content for one file, computed before anything is written.
type rewrite struct {
	file    string
	content string
}

// CreateVar binds a new variable and appends its declaration to the current
// file. A str value that is not quoted is quoted before it is written.
func (p *Parser) CreateVar(ctx context.Context, name string, t Type, raw string) error {
	if p.current == "" {
		return ErrNoCurrentFile.With(slog.String("name", name))
	}

	if !namePattern.MatchString(name) {
		return ErrInvalidName.With(slog.String("name", name))
	}

	if !t.Valid() {
		return ErrUnknownType.With(slog.String("name", name))
	}

	if _, ok := p.vars[name]; ok {
		return ErrVariableExists.With(slog.String("name", name))
	}

	text, v, err := p.prepare(ctx, name, t, raw)
	if err != nil {
		return err
	}

	content, err := p.load(p.current)
	if err != nil {
		return err
	}

	decl := declaration(name, t, text)
	start := strings.Count(content, "\n") + 2

	err = p.commit(ctx, []rewrite{{p.current, content + "\n" + decl + "\n"}})
	if err != nil {
		return err
	}

	p.bind(name, t, v)
	p.addSite(name, Site{
		File:  p.current,
		Start: start,
		End:   start + strings.Count(decl, "\n"),
	})

	p.logger.DebugContext(ctx, "variable created",
		slog.String("name", name),
		slog.String("type", t.String()),
		slog.String("file", p.current))

	return nil
}

// RemoveVar unbinds a variable and deletes its declarations from the current
// file. Declarations in imported files are left in place.
func (p *Parser) RemoveVar(ctx context.Context, name string) error {
	if _, ok := p.vars[name]; !ok {
		return ErrVariableNotFound.With(slog.String("name", name))
	}

	sites := p.sitesIn(name, p.current)

	if len(sites) > 0 {
		content, err := p.load(p.current)
		if err != nil {
			return err
		}

		lines := splitLines(content)

		for i := len(sites) - 1; i >= 0; i-- {
			s := sites[i]
			if s.Start < 1 || s.End > len(lines) {
				return ErrStaleSource.With(
					slog.String("file", s.File),
					slog.Int("line", s.Start),
				)
			}

			lines = slices.Delete(lines, s.Start-1, s.End)
		}

		err = p.commit(ctx, []rewrite{{p.current, strings.Join(lines, "")}})
		if err != nil {
			return err
		}

		p.sites[name] = slices.DeleteFunc(p.sites[name], func(s Site) bool {
			return s.File == p.current
		})

		for i := len(sites) - 1; i >= 0; i-- {
			p.shiftSites(p.current, sites[i].End, sites[i].Start-sites[i].End-1)
		}
	}

	p.unbind(name)

	p.logger.DebugContext(ctx, "variable removed",
		slog.String("name", name),
		slog.String("file", p.current),
		slog.Int("sites", len(sites)))

	return nil
}

// EditVarValue re-evaluates raw under the variable's type, then rewrites every
// declaration of name in the current file and in each file reachable from it
// through imports. Memory is updated only after all files are written.
func (p *Parser) EditVarValue(ctx context.Context, name, raw string) error {
	variable, ok := p.vars[name]
	if !ok {
		return ErrVariableNotFound.With(slog.String("name", name))
	}

	text, v, err := p.prepare(ctx, name, variable.Type, raw)
	if err != nil {
		return err
	}

	var (
		decl     = declaration(name, variable.Type, text)
		height   = strings.Count(decl, "\n") + 1
		rewrites []rewrite
		edited   = map[string][]Site{}
	)

	if p.current != "" {
		for _, file := range p.reachable(p.current) {
			sites := p.sitesIn(name, file)
			if len(sites) == 0 {
				continue
			}

			content, err := p.load(file)
			if err != nil {
				return err
			}

			updated, err := replaceSites(content, sites, decl)
			if err != nil {
				return err
			}

			rewrites = append(rewrites, rewrite{file, updated})
			edited[file] = sites
		}
	}

	// Sites follow each file as soon as it is written.
	for _, rw := range rewrites {
		if err := p.commit(ctx, []rewrite{rw}); err != nil {
			return err
		}

		p.resite(name, edited[rw.file], height)
	}

	variable.Value = v

	p.logger.DebugContext(ctx, "variable edited",
		slog.String("name", name),
		slog.String("value", text),
		slog.Int("files", len(rewrites)))

	return nil
}

// prepare returns the source text to write for raw and the value it
// evaluates to.
func (p *Parser) prepare(
	ctx context.Context,
	name string,
	t Type,
	raw string,
) (string, *Value, error) {
	text := strings.TrimSpace(raw)
	multiline := strings.ContainsAny(text, "\r\n")

	if multiline && t.IsScalar() {
		return "", nil, ErrLineBreak.With(
			slog.String("name", name),
			slog.String("type", t.String()),
		)
	}

	if t == TypeString && !loneRefPattern.MatchString(text) {
		quoted, err := quoteString(text)
		if err != nil {
			return "", nil, WrapError(err).With(slog.String("name", name))
		}

		text = quoted
	}

	v, err := p.evaluate(ctx, t, text)
	if err != nil {
		return "", nil, WrapError(err).With(slog.String("name", name))
	}

	if multiline && !p.rereads(ctx, t, declaration(name, t, text), v) {
		return "", nil, ErrLineBreak.With(
			slog.String("name", name),
			slog.String("type", t.String()),
		)
	}

	return text, v, nil
}

// rereads reports whether decl, read back as source, is one declaration
// whose value equals v.
func (p *Parser) rereads(ctx context.Context, t Type, decl string, v *Value) bool {
	var chunks []chunk

	for c, err := range scanChunks(strings.NewReader(decl)) {
		if err != nil {
			return false
		}

		chunks = append(chunks, c)
	}

	if len(chunks) != 1 || chunks[0].kind != chunkDeclaration {
		return false
	}

	m := declPattern.FindStringSubmatch(chunks[0].text)
	if m == nil {
		return false
	}

	got, err := p.evaluate(ctx, t, m[3])

	return err == nil && got.Equal(v)
}

// resite fits the rewritten sites of name to a declaration height lines
// tall and shifts the sites that follow them.
func (p *Parser) resite(name string, sites []Site, height int) {
	for i := len(sites) - 1; i >= 0; i-- {
		s := sites[i]
		p.shiftSites(s.File, s.End, height-(s.End-s.Start+1))

		for j, own := range p.sites[name] {
			if own == s {
				p.sites[name][j].End = s.Start + height - 1
			}
		}
	}
}

// commit writes every rewrite and records the new fingerprints.
func (p *Parser) commit(ctx context.Context, rewrites []rewrite) error {
	for _, rw := range rewrites {
		if err := p.write(rw.file, rw.content); err != nil {
			return err
		}

		p.sums[rw.file] = fingerprint(rw.content)

		p.logger.TraceContext(ctx, "rewrite source",
			slog.String("file", rw.file),
			slog.Int("bytes", len(rw.content)),
			slog.Bool("atomic", p.atomic))
	}

	return nil
}

// shiftSites moves every site in file that starts after line by delta lines.
func (p *Parser) shiftSites(file string, line, delta int) {
	if delta == 0 {
		return
	}

	for name, sites := range p.sites {
		for i, s := range sites {
			if s.File == file && s.Start > line {
				p.sites[name][i].Start += delta
				p.sites[name][i].End += delta
			}
		}
	}
}

func declaration(name string, t Type, text string) string {
	return name + "(" + t.String() + ") = " + text
}

// replaceSites substitutes decl for each site's lines. Sites must be ordered
// by line. The indentation of a site's first line and the line ending of its
// last line are kept.
func replaceSites(content string, sites []Site, decl string) (string, error) {
	lines := splitLines(content)

	for i := len(sites) - 1; i >= 0; i-- {
		s := sites[i]
		if s.Start < 1 || s.End > len(lines) {
			return "", ErrStaleSource.With(
				slog.String("file", s.File),
				slog.Int("line", s.Start),
			)
		}

		first, last := lines[s.Start-1], lines[s.End-1]
		indent := first[:len(first)-len(strings.TrimLeftFunc(first, unicode.IsSpace))]
		eol := lineEnding(last)

		body := decl
		if eol != "" && eol != "\n" {
			body = strings.ReplaceAll(decl, "\n", eol)
		}

		lines = slices.Replace(lines, s.Start-1, s.End, indent+body+eol)
	}

	return strings.Join(lines, ""), nil
}

// splitLines splits content after each newline. The empty remainder after a
// final newline is dropped.
func splitLines(content string) []string {
	lines := strings.SplitAfter(content, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	return lines
}

func lineEnding(line string) string {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return "\r\n"
	case strings.HasSuffix(line, "\n"):
		return "\n"
	default:
		return ""
	}
}
