package cmd

import (
	"context"

	"github.com/ardnew/flk/cli/cmd/repl"
	"github.com/ardnew/flk/log"
)

// Repl starts an interactive session over the namespace of a file.
type Repl struct {
	File string `arg:"" help:"FL source file" name:"file" type:"existingfile"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	var cacheDir string

	if ktx := kongContextFrom(ctx); ktx != nil {
		cacheDir = ktx.Model.Vars()[CacheIdentifier]
	}

	err := repl.Run(ctx, r.File, cacheDir, log.Default(), parserOptionsFrom(ctx)...)
	if err != nil {
		return ErrREPL.Wrap(err).With(attrCommand("repl"), attrFile(r.File))
	}

	return nil
}
