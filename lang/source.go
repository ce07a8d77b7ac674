package lang

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// load reads the current content of a parsed file and verifies that it has
// not changed since it was last parsed or written.
func (p *Parser) load(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", ErrReadSource.Wrap(err).With(slog.String("file", path))
	}
	defer f.Close()

	ra := readahead.NewReader(f)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return "", ErrReadSource.Wrap(err).With(slog.String("file", path))
	}

	want, ok := p.sums[path]
	if got := xxh3.Hash(data); ok && got != want {
		return "", ErrStaleSource.With(
			slog.String("file", path),
			slog.String("want", strconv.FormatUint(want, 36)),
			slog.String("got", strconv.FormatUint(got, 36)),
		)
	}

	return string(data), nil
}

// store replaces the content of path. With atomic writes enabled the content
// goes to a temporary file in the same directory that is renamed over path.
func (p *Parser) store(path, content string) error {
	mode := p.fileMode
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	if !p.atomic {
		if err := os.WriteFile(path, []byte(content), mode); err != nil {
			return ErrWriteSource.Wrap(err).With(slog.String("file", path))
		}

		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return ErrWriteSource.Wrap(err).With(slog.String("file", path))
	}

	name := tmp.Name()

	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(name)

		return ErrWriteSource.Wrap(err).With(slog.String("file", path))
	}

	if _, err := io.WriteString(tmp, content); err != nil {
		return fail(err)
	}

	if err := tmp.Chmod(mode); err != nil {
		return fail(err)
	}

	if err := tmp.Close(); err != nil {
		return fail(err)
	}

	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)

		return ErrWriteSource.Wrap(err).With(slog.String("file", path))
	}

	return nil
}

func fingerprint(content string) uint64 {
	return xxh3.HashString(content)
}
