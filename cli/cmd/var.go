package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/ardnew/flk/lang"
	"github.com/ardnew/flk/log"
)

// Parse parses a file and prints every variable it binds.
type Parse struct {
	File string `arg:"" help:"FL source file" name:"file" type:"existingfile"`
}

// Run executes the parse command.
func (c *Parse) Run(ctx context.Context) error {
	p, err := parse(ctx, "parse", c.File)
	if err != nil {
		return err
	}

	w := outputFrom(ctx)

	for v := range p.Variables() {
		if _, err := fmt.Fprintln(w, v.Declaration()); err != nil {
			return err
		}
	}

	return nil
}

// Get prints one variable.
type Get struct {
	File string `arg:"" help:"FL source file" name:"file" type:"existingfile"`
	Name string `arg:"" help:"Variable name"  name:"name"`

	Value bool `help:"Print only the value literal" short:"v"`
}

// Run executes the get command.
func (c *Get) Run(ctx context.Context) error {
	p, err := parse(ctx, "get", c.File)
	if err != nil {
		return err
	}

	v, err := p.GetVar(c.Name)
	if err != nil {
		return ErrLookup.Wrap(err).With(attrCommand("get"), attrFile(c.File))
	}

	out := v.Declaration()
	if c.Value {
		out = v.Value.Literal()
	}

	_, err = fmt.Fprintln(outputFrom(ctx), out)

	return err
}

// New declares a variable at the end of a file.
type New struct {
	File  string    `arg:"" help:"FL source file" name:"file" type:"existingfile"`
	Name  string    `arg:"" help:"Variable name"  name:"name"`
	Type  lang.Type `arg:"" help:"Variable type"  name:"type"`
	Value []string  `arg:"" help:"Value text"     name:"value" passthrough:""`
}

// Run executes the new command.
func (c *New) Run(ctx context.Context) error {
	p, err := parse(ctx, "new", c.File)
	if err != nil {
		return err
	}

	if err := p.CreateVar(ctx, c.Name, c.Type, strings.Join(c.Value, " ")); err != nil {
		return ErrMutate.Wrap(err).With(attrCommand("new"), attrFile(c.File))
	}

	log.InfoContext(ctx, "variable created",
		slog.String("name", c.Name),
		slog.String("type", c.Type.String()),
		attrFile(p.File()))

	return nil
}

// Set replaces the value of a variable wherever it is declared.
type Set struct {
	File  string   `arg:"" help:"FL source file" name:"file" type:"existingfile"`
	Name  string   `arg:"" help:"Variable name"  name:"name"`
	Value []string `arg:"" help:"Value text"     name:"value" passthrough:""`
}

// Run executes the set command.
func (c *Set) Run(ctx context.Context) error {
	p, err := parse(ctx, "set", c.File)
	if err != nil {
		return err
	}

	if err := p.EditVarValue(ctx, c.Name, strings.Join(c.Value, " ")); err != nil {
		return ErrMutate.Wrap(err).With(attrCommand("set"), attrFile(c.File))
	}

	log.InfoContext(ctx, "variable updated",
		slog.String("name", c.Name),
		slog.Int("sites", len(p.Sites(c.Name))))

	return nil
}

// Rm removes a variable and its declarations in the file.
type Rm struct {
	File string `arg:"" help:"FL source file" name:"file" type:"existingfile"`
	Name string `arg:"" help:"Variable name"  name:"name"`
}

// Run executes the rm command.
func (c *Rm) Run(ctx context.Context) error {
	p, err := parse(ctx, "rm", c.File)
	if err != nil {
		return err
	}

	if err := p.RemoveVar(ctx, c.Name); err != nil {
		return ErrMutate.Wrap(err).With(attrCommand("rm"), attrFile(c.File))
	}

	log.InfoContext(ctx, "variable removed", slog.String("name", c.Name))

	return nil
}

// Consts prints the constants of a file sorted by name.
type Consts struct {
	File string `arg:"" help:"FL source file" name:"file" type:"existingfile"`
}

// Run executes the consts command.
func (c *Consts) Run(ctx context.Context) error {
	p, err := parse(ctx, "consts", c.File)
	if err != nil {
		return err
	}

	consts := p.Constants()
	w := outputFrom(ctx)

	for _, name := range slices.Sorted(maps.Keys(consts)) {
		v := consts[name]

		_, err := fmt.Fprintf(w, "const %s(%s) = %s\n", name, v.Type, v.Literal())
		if err != nil {
			return err
		}
	}

	return nil
}
