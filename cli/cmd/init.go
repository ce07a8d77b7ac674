package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/flk/lang"
	"github.com/ardnew/flk/log"
	"github.com/ardnew/flk/profile"
)

// Init generates a configuration file, written in FL, holding the current
// value of every flag.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	// Check if file exists and force not set
	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(attrFile(confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	file, err := os.Create(confPath)
	if err != nil {
		return ErrWriteConfig.
			With(attrFile(confPath)).
			Wrap(err)
	}
	defer file.Close()

	vars := i.buildConfig(ctx)

	for _, v := range vars {
		if _, err := fmt.Fprintln(file, v.Declaration()); err != nil {
			return ErrWriteConfig.
				With(attrFile(confPath)).
				Wrap(err)
		}
	}

	log.DebugContext(
		ctx,
		"initialized configuration file",
		slog.String("path", confPath),
		slog.Int("flags", len(vars)),
	)

	return nil
}

// buildConfig returns one variable per flag that has a value. Flag names are
// converted to identifiers by replacing hyphens with underscores.
func (i *Init) buildConfig(ctx context.Context) []*lang.Variable {
	ktx := kongContextFrom(ctx)

	var vars []*lang.Variable

	prefixIgnore := []string{"help", profile.Tag}

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(prefixIgnore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		val := i.flagValue(ctx, flag.Name)
		if val != nil {
			vars = append(vars, &lang.Variable{
				Name:  strings.ReplaceAll(flag.Name, "-", "_"),
				Type:  val.Type,
				Value: val,
			})
		}
	}

	return vars
}

// flagValue returns the value of a CLI flag, or nil if unset.
func (i *Init) flagValue(ctx context.Context, name string) *lang.Value {
	ktx := kongContextFrom(ctx)

	idx := slices.IndexFunc(ktx.Model.Flags, func(flag *kong.Flag) bool {
		return flag.Name == name
	})
	if idx == -1 {
		return nil
	}

	val := ktx.FlagValue(ktx.Model.Flags[idx])
	if val == nil {
		return nil
	}

	switch v := val.(type) {
	case bool:
		return lang.NewBool(v)

	case string:
		if v == "" {
			return nil
		}

		return lang.NewString(v)

	case int:
		return lang.NewInt(int64(v))

	case int64:
		return lang.NewInt(v)

	case float64:
		return lang.NewFloat(v)

	case []string:
		if len(v) == 0 {
			return nil
		}

		items := make([]*lang.Value, len(v))
		for i, s := range v {
			items[i] = lang.NewString(s)
		}

		return lang.NewList(items...)

	case fmt.Stringer:
		return lang.NewString(v.String())

	default:
		s := fmt.Sprint(v)
		if s == "" {
			return nil
		}

		return lang.NewString(s)
	}
}
