package lang

import (
	"bufio"
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// importMarker begins an import directive line.
const importMarker = "(import)"

type chunkKind int

const (
	chunkDeclaration chunkKind = iota
	chunkImport
)

// chunk is one logical unit of a source file: a declaration, possibly
// assembled from several physical lines, or an import directive.
type chunk struct {
	kind  chunkKind
	text  string
	start int
	end   int
}

// parseFile reads path and binds its declarations. stack holds the files
// currently being parsed, outermost first, and is used to reject cycles.
func (p *Parser) parseFile(ctx context.Context, path string, stack []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if slices.Contains(stack, path) {
		return ErrImportCycle.With(
			slog.String("file", path),
			slog.String("chain", strings.Join(append(slices.Clone(stack), path), " -> ")),
		)
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrReadSource.Wrap(err).With(slog.String("file", path))
	}
	defer f.Close()

	ra := readahead.NewReader(f)
	defer ra.Close()

	p.logger.TraceContext(ctx, "open source", slog.String("file", path))

	if !slices.Contains(p.files, path) {
		p.files = append(p.files, path)
	}

	stack = append(slices.Clone(stack), path)
	delete(p.imports, path)

	hash := xxh3.New()

	for c, err := range scanChunks(io.TeeReader(ra, hash)) {
		if err != nil {
			return WrapError(err).With(slog.String("file", path))
		}

		switch c.kind {
		case chunkImport:
			err = p.importFile(ctx, path, c, stack)
		case chunkDeclaration:
			err = p.declare(ctx, path, c)
		}

		if err != nil {
			return err
		}
	}

	p.sums[path] = hash.Sum64()

	p.logger.TraceContext(ctx, "close source",
		slog.String("file", path),
		slog.String("fingerprint", strconv.FormatUint(p.sums[path], 36)))

	return nil
}

// scanChunks yields the logical chunks of r. Blank lines and comments are
// dropped, trailing // comments are stripped, and a declaration continues
// across lines while it has unclosed braces.
func scanChunks(r io.Reader) iter.Seq2[chunk, error] {
	return func(yield func(chunk, error) bool) {
		var (
			br  = bufio.NewReader(r)
			asm assembler
		)

		for line := 1; ; line++ {
			text, readErr := br.ReadString('\n')
			if readErr != nil && !errors.Is(readErr, io.EOF) {
				yield(chunk{}, ErrReadSource.Wrap(readErr))

				return
			}

			if text != "" {
				c, ok, err := asm.feed(line, strings.TrimRight(text, "\r\n"))
				if err != nil {
					yield(chunk{}, err)

					return
				}

				if ok && !yield(c, nil) {
					return
				}
			}

			if readErr != nil {
				break
			}
		}

		if err := asm.finish(); err != nil {
			yield(chunk{}, err)
		}
	}
}

// assembler is the line state machine behind scanChunks.
type assembler struct {
	buf     []string
	start   int // First line of the pending declaration
	depth   int // Unclosed braces in the pending declaration
	comment int // Line that opened an unclosed /* comment, or 0
}

func (a *assembler) feed(line int, text string) (chunk, bool, error) {
	trimmed := strings.TrimSpace(text)

	if a.comment > 0 {
		if strings.Contains(trimmed, "*/") {
			a.comment = 0
		}

		return chunk{}, false, nil
	}

	switch {
	case strings.HasPrefix(trimmed, "/*"):
		if !strings.Contains(trimmed[2:], "*/") {
			a.comment = line
		}

		return chunk{}, false, nil

	case trimmed == "",
		strings.HasPrefix(trimmed, "//"),
		strings.HasPrefix(trimmed, "#"):
		return chunk{}, false, nil

	case a.depth == 0 && strings.HasPrefix(trimmed, importMarker):
		return chunk{
			kind:  chunkImport,
			text:  strings.TrimSpace(stripComment(strings.TrimPrefix(trimmed, importMarker))),
			start: line,
			end:   line,
		}, true, nil
	}

	code := strings.TrimSpace(stripComment(text))
	if code == "" {
		return chunk{}, false, nil
	}

	if len(a.buf) == 0 {
		a.start = line
	}

	a.buf = append(a.buf, code)

	a.depth += braceDelta(code)
	if a.depth < 0 {
		return chunk{}, false, ErrUnbalanced.With(
			slog.Int("line", line),
			slog.String("delimiter", "}"),
		)
	}

	if a.depth > 0 {
		return chunk{}, false, nil
	}

	c := chunk{
		kind:  chunkDeclaration,
		text:  strings.Join(a.buf, "\n"),
		start: a.start,
		end:   line,
	}
	a.buf = a.buf[:0]

	return c, true, nil
}

func (a *assembler) finish() error {
	if a.comment > 0 {
		return ErrUnterminatedComment.With(slog.Int("line", a.comment))
	}

	if a.depth > 0 {
		return ErrUnterminatedBlock.With(
			slog.Int("line", a.start),
			slog.Int("depth", a.depth),
		)
	}

	return nil
}

// stripComment removes a // comment that is not inside quotes.
func stripComment(line string) string {
	var quote quoteState

	for i := 0; i < len(line); i++ {
		if quote.next(line, i) {
			continue
		}

		if line[i] == '/' && i+1 < len(line) && line[i+1] == '/' {
			return line[:i]
		}
	}

	return line
}

// braceDelta returns the count of { minus the count of } outside quotes.
func braceDelta(line string) int {
	var (
		quote quoteState
		delta int
	)

	for i := 0; i < len(line); i++ {
		if quote.next(line, i) {
			continue
		}

		switch line[i] {
		case '{':
			delta++
		case '}':
			delta--
		}
	}

	return delta
}
