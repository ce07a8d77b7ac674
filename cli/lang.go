package cli

import (
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/flk/lang"
	"github.com/ardnew/flk/pkg"
)

// langConfig holds the flags that configure every FL parser a command
// creates.
type langConfig struct {
	Path      []string `help:"Directory searched for imports before those in ${langPathEnv}" placeholder:"DIR" short:"I" type:"path"`
	Extension string   `default:"${langExtension}"                                                        help:"File extension of imported sources"`
	Atomic    bool     `default:"true"                                                                    help:"Write edits to a temporary file and rename it over the source" negatable:""`
}

func (langConfig) vars() kong.Vars {
	return kong.Vars{
		"langExtension": strings.TrimPrefix(pkg.Extension, "."),
		"langPathEnv":   pkg.PathEnv,
	}
}

func (langConfig) group() kong.Group {
	return kong.Group{Key: "lang", Title: "Language options"}
}

func (c langConfig) options() []lang.Option {
	return []lang.Option{
		lang.WithSearchPath(c.Path...),
		lang.WithExtension(c.Extension),
		lang.WithAtomicWrite(c.Atomic),
	}
}
