package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ardnew/flk/lang"
	"github.com/ardnew/flk/log"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand] for the edit-parse-retry loop. It
// copies the source file to a sibling temp file, opens the user's editor on
// it, and parses the result so that relative imports still resolve. A clean
// parse replaces the source file; a parse error prompts to re-edit, and
// declining leaves the source file untouched.
type editCommand struct {
	file      string
	newParser func() *lang.Parser
	ctxFunc   func() context.Context
	logger    log.Logger
	parser    *lang.Parser // set on success
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. It returns [ErrEditDeclined] if the user
// declines to re-edit after a parse error.
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()

	info, err := os.Stat(c.file)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(c.file)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(
		filepath.Dir(c.file), "."+filepath.Base(c.file)+".edit-*",
	)
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Close(); err != nil {
		return err
	}

	for {
		if err := os.WriteFile(tmpPath, content, info.Mode().Perm()); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath); err != nil {
			return err
		}

		edited, err := os.ReadFile(tmpPath)
		if err != nil {
			return err
		}

		_, parseErr := c.newParser().ParseFile(ctx, tmpPath)

		c.logger.TraceContext(
			ctx,
			"editor parse attempt",
			slog.Int("content_length", len(edited)),
			slog.Bool("success", parseErr == nil),
		)

		if parseErr == nil {
			if err := os.Rename(tmpPath, c.file); err != nil {
				return err
			}

			p := c.newParser()
			if _, err := p.ParseFile(ctx, c.file); err != nil {
				return err
			}

			c.parser = p

			return nil
		}

		fmt.Fprintf(c.stderr, "\nParse error: %s\n", parseErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		response := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if response == "n" || response == "no" {
			return ErrEditDeclined
		}

		content = edited
	}
}

// runEditor runs the user's $EDITOR on path.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
