package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ardnew/flk/log"
)

// Check parses several root files concurrently and reports which fail.
type Check struct {
	Jobs  int      `default:"4" help:"Maximum files parsed at once"  short:"j"`
	Files []string `arg:""      help:"FL source files to validate" name:"file"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) error {
	files := uniqueFiles(c.Files)
	errs := make([]error, len(files))

	var g errgroup.Group

	g.SetLimit(max(c.Jobs, 1))

	for i, file := range files {
		g.Go(func() error {
			began := time.Now()

			// Each file gets its own namespace.
			_, errs[i] = newParser(ctx).ParseFile(ctx, file)

			log.DebugContext(ctx, "checked",
				attrFile(file),
				slog.Duration("elapsed", time.Since(began)),
				slog.Bool("ok", errs[i] == nil))

			return nil
		})
	}

	_ = g.Wait()

	w := outputFrom(ctx)
	failed := 0

	for i, file := range files {
		status := "ok"

		if errs[i] != nil {
			failed++
			status = "FAIL"

			log.ErrorContext(ctx, "check failed", attrFile(file), slog.Any("error", errs[i]))
		}

		if _, err := fmt.Fprintf(w, "%-4s %s\n", status, file); err != nil {
			return err
		}
	}

	if failed > 0 {
		return ErrCheck.With(
			attrCommand("check"),
			slog.Int("failed", failed),
			slog.Int("files", len(files)),
		)
	}

	return nil
}
