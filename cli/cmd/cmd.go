package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/flk/lang"
	"github.com/ardnew/flk/log"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type (
	parserOptionsKey struct{}
	outputKey        struct{}
)

// WithParserOptions returns a new context.Context carrying the options every
// command applies when it constructs a [lang.Parser].
func WithParserOptions(ctx context.Context, opts ...lang.Option) context.Context {
	return context.WithValue(ctx, parserOptionsKey{}, opts)
}

func parserOptionsFrom(ctx context.Context) []lang.Option {
	opts, _ := ctx.Value(parserOptionsKey{}).([]lang.Option)

	return opts
}

// WithOutput returns a new context.Context whose commands write their results
// to w instead of os.Stdout.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

func outputFrom(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok && w != nil {
		return w
	}

	return os.Stdout
}

// newParser returns a parser configured from ctx that logs through the
// default logger.
func newParser(ctx context.Context) *lang.Parser {
	opts := append(
		[]lang.Option{lang.WithLogger(log.Default())},
		parserOptionsFrom(ctx)...,
	)

	return lang.NewParser(opts...)
}

// parse parses file with a parser configured from ctx.
func parse(ctx context.Context, command, file string) (*lang.Parser, error) {
	p := newParser(ctx)

	if _, err := p.ParseFile(ctx, file); err != nil {
		return nil, ErrParse.Wrap(err).With(attrCommand(command), attrFile(file))
	}

	return p, nil
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// hard links.
type fileKey struct {
	dev uint64
	ino uint64
}

// uniqueFiles returns paths with duplicates removed, keeping the first
// occurrence. Two paths are duplicates if they resolve to the same device and
// inode. Paths that cannot be resolved are kept so that parsing reports them.
func uniqueFiles(paths []string) []string {
	var (
		out  = make([]string, 0, len(paths))
		seen = make(map[fileKey]struct{})
		raw  = make(map[string]struct{})
	)

	for _, path := range paths {
		key, ok := resolveFileKey(path)
		if !ok {
			if _, dup := raw[path]; !dup {
				raw[path] = struct{}{}
				out = append(out, path)
			}

			continue
		}

		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, path)
	}

	return out
}

// resolveFileKey resolves symlinks in path and returns its device and inode.
func resolveFileKey(path string) (fileKey, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fileKey{}, false
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return fileKey{}, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return fileKey{}, false
	}

	return makeFileKey(info)
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}
