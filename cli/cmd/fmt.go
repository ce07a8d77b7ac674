package cmd

import (
	"context"
	"log/slog"
)

// Fmt parses a file and writes its evaluated namespace in the chosen format.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Format as FL declarations (default)."`
	JSON   JSON   `cmd:""                    help:"Format as JSON."`
	YAML   YAML   `cmd:""                    help:"Format as YAML."`
}

// Native formats the namespace as FL source: constants, then variables with
// every value reduced to a literal.
type Native struct {
	File string `arg:"" help:"FL source file" name:"file" type:"existingfile"`
}

// Run executes the fmt native command.
func (f *Native) Run(ctx context.Context) error {
	p, err := parse(ctx, "fmt", f.File)
	if err != nil {
		return err
	}

	if err := p.Format(ctx, outputFrom(ctx)); err != nil {
		return ErrFormat.Wrap(err).With(slog.String("format", "native"))
	}

	return nil
}

// JSON formats the variables as a JSON object.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output (0 for compact)" short:"i"`

	File string `arg:"" help:"FL source file" name:"file" type:"existingfile"`
}

// Run executes the fmt json command.
func (j *JSON) Run(ctx context.Context) error {
	p, err := parse(ctx, "fmt", j.File)
	if err != nil {
		return err
	}

	if err := p.FormatJSON(ctx, outputFrom(ctx), j.Indent); err != nil {
		return ErrFormat.Wrap(err).With(slog.String("format", "json"))
	}

	return nil
}

// YAML formats the variables as a YAML mapping in declaration order.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output (0 for flow style)" short:"i"`

	File string `arg:"" help:"FL source file" name:"file" type:"existingfile"`
}

// Run executes the fmt yaml command.
func (y *YAML) Run(ctx context.Context) error {
	p, err := parse(ctx, "fmt", y.File)
	if err != nil {
		return err
	}

	if err := p.FormatYAML(ctx, outputFrom(ctx), y.Indent); err != nil {
		return ErrFormat.Wrap(err).With(slog.String("format", "yaml"))
	}

	return nil
}
