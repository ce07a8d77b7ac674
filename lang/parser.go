package lang

import (
	"context"
	"io/fs"
	"iter"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/flk/log"
	"github.com/ardnew/flk/pkg"
)

// Site is the span of source lines holding one declaration.
type Site struct {
	File  string
	Start int // First line, 1-based
	End   int // Last line, inclusive
}

// Parser holds a namespace shared by a root file and every file it imports,
// along with the declaration sites needed to rewrite values in place.
//
// A Parser is not safe for concurrent use.
type Parser struct {
	logger     log.Logger
	extension  string
	searchPath []string
	roots      []string
	atomic     bool
	fileMode   fs.FileMode

	vars   map[string]*Variable
	order  []string
	consts map[string]*Value

	current string              // File targeted by mutations
	files   []string            // Files in the order first opened
	sums    map[string]uint64   // Fingerprint of each file's content
	imports map[string][]string // File -> files it imports
	sites   map[string][]Site   // Variable -> declaration sites

	programs map[string]*vm.Program

	write func(path, content string) error
}

// NewParser returns a Parser with an empty namespace.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		vars:     map[string]*Variable{},
		consts:   map[string]*Value{},
		sums:     map[string]uint64{},
		imports:  map[string][]string{},
		sites:    map[string][]Site{},
		programs: map[string]*vm.Program{},
	}

	p.write = p.store

	applyDefaults(p)

	for _, opt := range opts {
		opt(p)
	}

	p.roots = searchRoots(os.Getenv(pkg.PathEnv), p.searchPath)

	return p
}

// ParseFile parses path and its imports into the namespace and returns the
// values of every variable bound so far. On success path becomes the current
// file targeted by [Parser.CreateVar], [Parser.RemoveVar] and
// [Parser.EditVarValue].
func (p *Parser) ParseFile(ctx context.Context, path string) (map[string]*Value, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, ErrReadSource.Wrap(err).With(slog.String("file", path))
	}

	if err := p.parseFile(ctx, abs, nil); err != nil {
		return nil, err
	}

	p.current = abs

	p.logger.DebugContext(ctx, "parsed",
		slog.String("file", abs),
		slog.Int("variables", len(p.vars)),
		slog.Int("constants", len(p.consts)),
		slog.Int("files", len(p.files)))

	return p.Values(), nil
}

// ParseValue evaluates raw as a value of type t against the namespace without
// binding it.
func (p *Parser) ParseValue(ctx context.Context, t Type, raw string) (*Value, error) {
	if !t.Valid() {
		return nil, ErrUnknownType.With(slog.String("type", t.String()))
	}

	return p.evaluate(ctx, t, raw)
}

// GetVar returns the variable bound to name.
func (p *Parser) GetVar(name string) (*Variable, error) {
	v, ok := p.vars[name]
	if !ok {
		return nil, ErrVariableNotFound.With(slog.String("name", name))
	}

	return v, nil
}

// Constant returns the value of constant name.
func (p *Parser) Constant(name string) (*Value, bool) {
	v, ok := p.consts[name]

	return v, ok
}

// Constants returns a copy of the constant table.
func (p *Parser) Constants() map[string]*Value {
	return maps.Clone(p.consts)
}

// Values returns a copy of every variable's value keyed by name.
func (p *Parser) Values() map[string]*Value {
	values := make(map[string]*Value, len(p.vars))
	for name, v := range p.vars {
		values[name] = v.Value.Clone()
	}

	return values
}

// Variables returns an iterator over bound variables in the order they were
// first declared.
func (p *Parser) Variables() iter.Seq[*Variable] {
	return func(yield func(*Variable) bool) {
		for _, name := range p.order {
			if !yield(p.vars[name]) {
				return
			}
		}
	}
}

// Files returns the absolute paths of all parsed files in the order they were
// first opened.
func (p *Parser) Files() []string {
	return slices.Clone(p.files)
}

// File returns the current file, or "" if nothing has been parsed.
func (p *Parser) File() string { return p.current }

// Sites returns the known declaration sites of variable name.
func (p *Parser) Sites(name string) []Site {
	return slices.Clone(p.sites[name])
}

// bind inserts or updates a variable.
func (p *Parser) bind(name string, t Type, v *Value) {
	if existing, ok := p.vars[name]; ok {
		existing.Value = v

		return
	}

	p.vars[name] = &Variable{Name: name, Type: t, Value: v}
	p.order = append(p.order, name)
}

// unbind removes a variable.
func (p *Parser) unbind(name string) {
	delete(p.vars, name)
	p.order = slices.DeleteFunc(p.order, func(n string) bool { return n == name })
}

func (p *Parser) addSite(name string, site Site) {
	if !slices.Contains(p.sites[name], site) {
		p.sites[name] = append(p.sites[name], site)
	}
}

// sitesIn returns the sites of name in file ordered by line.
func (p *Parser) sitesIn(name, file string) []Site {
	var in []Site

	for _, s := range p.sites[name] {
		if s.File == file {
			in = append(in, s)
		}
	}

	slices.SortFunc(in, func(a, b Site) int { return a.Start - b.Start })

	return in
}

func (p *Parser) addImport(from, to string) {
	if !slices.Contains(p.imports[from], to) {
		p.imports[from] = append(p.imports[from], to)
	}
}

// reachable returns file and every file reachable from it through imports,
// depth first.
func (p *Parser) reachable(file string) []string {
	var (
		seen = map[string]bool{}
		out  []string
		walk func(string)
	)

	walk = func(f string) {
		if seen[f] {
			return
		}

		seen[f] = true
		out = append(out, f)

		for _, next := range p.imports[f] {
			walk(next)
		}
	}

	walk(file)

	return out
}
