package cli

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/flk/lang"
	"github.com/ardnew/flk/log"
)

// config is a [kong.Resolver] over the variables of an FL configuration file.
//
// Each variable supplies the default of the flag with the same name, where
// hyphens in flag names are written as underscores:
//
//	log_level(str) = "debug"
//	log_pretty(bool) = false
//	path(list) = ["/usr/share/fl", "/opt/fl"]
//	atomic(bool) = true
//
// Numbers are handed to kong as strings so that its mappers parse them for
// the flag's own type. Dicts have no flag equivalent and are ignored. Flags
// given on the command line override these values.
type config map[string]any

// resolve parses the configuration file at path. A missing file yields an
// empty config; a file that fails to parse is logged and ignored.
func resolve(ctx context.Context, path string, opts ...lang.Option) config {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return config{}
	}

	p := lang.NewParser(append([]lang.Option{lang.WithLogger(log.Default())}, opts...)...)

	values, err := p.ParseFile(ctx, path)
	if err != nil {
		log.WarnContext(ctx, "ignoring configuration file",
			slog.String("path", path),
			slog.Any("error", err))

		return config{}
	}

	c := make(config, len(values))

	for name, v := range values {
		if fv, ok := flagValue(v); ok {
			c[name] = fv
		}
	}

	log.TraceContext(ctx, "configuration loaded",
		slog.String("path", path),
		slog.Int("values", len(c)))

	return c
}

// flagValue converts v to the form kong expects from a resolver.
func flagValue(v *lang.Value) (any, bool) {
	switch v.Type {
	case lang.TypeString:
		return v.Str, true

	case lang.TypeBool:
		return v.Bool, true

	case lang.TypeInt:
		return strconv.FormatInt(v.Int, 10), true

	case lang.TypeFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64), true

	case lang.TypeList, lang.TypeSet, lang.TypeTuple:
		items := make([]any, 0, len(v.Items))

		for _, item := range v.Items {
			fv, ok := flagValue(item)
			if !ok {
				return nil, false
			}

			items = append(items, fv)
		}

		return items, true

	default:
		return nil, false
	}
}

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if value, ok := c[flag.Name]; ok {
		return value, nil
	}

	if value, ok := c[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	return nil, nil
}
