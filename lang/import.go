package lang

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ardnew/mung"
)

var importPathPattern = regexp.MustCompile(
	`^` + identifier + `(?:\.` + identifier + `)*$`,
)

// importFile parses the file named by the import directive c into the same
// namespace.
func (p *Parser) importFile(
	ctx context.Context,
	from string,
	c chunk,
	stack []string,
) error {
	dotted := strings.Trim(c.text, "()")
	if !importPathPattern.MatchString(dotted) {
		return ErrMalformedImport.With(
			slog.String("file", from),
			slog.Int("line", c.start),
			slog.String("import", c.text),
		)
	}

	target, err := p.resolveImport(from, dotted)
	if err != nil {
		return WrapError(err).With(
			slog.String("file", from),
			slog.Int("line", c.start),
		)
	}

	p.logger.TraceContext(ctx, "import",
		slog.String("file", from),
		slog.String("import", dotted),
		slog.String("target", target))

	p.addImport(from, target)

	if err := p.parseFile(ctx, target, stack); err != nil {
		return WrapError(err).With(
			slog.String("imported_by", from),
			slog.Int("import_line", c.start),
		)
	}

	return nil
}

// resolveImport maps a dotted import path to a file. The directory of the
// importing file is tried first, then each search root.
func (p *Parser) resolveImport(from, dotted string) (string, error) {
	rel := filepath.Join(strings.Split(dotted, ".")...) + p.extension

	candidates := make([]string, 0, len(p.roots)+1)
	candidates = append(candidates, filepath.Join(filepath.Dir(from), rel))

	for _, root := range p.roots {
		candidates = append(candidates, filepath.Join(root, rel))
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.Mode().IsRegular() {
			return filepath.Abs(c)
		}
	}

	return "", ErrImportNotFound.With(
		slog.String("import", dotted),
		slog.String("candidates", strings.Join(candidates, string(os.PathListSeparator))),
	)
}

// searchRoots composes the import search path: dirs first, then the entries
// of env, keeping only existing directories.
func searchRoots(env string, dirs []string) []string {
	joined := mung.Make(
		mung.WithSubjectItems(env),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(dirs...),
		mung.WithFilter(isDir),
	).String()

	return filepath.SplitList(joined)
}

func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}
