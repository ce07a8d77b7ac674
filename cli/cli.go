package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/flk/cli/cmd"
	"github.com/ardnew/flk/pkg"
)

// CLI is the top-level command-line interface for flk.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Lang  langConfig  `embed:"" group:"lang"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Parse  cmd.Parse  `cmd:"" default:"withargs" help:"Print every variable of a file"`
	Get    cmd.Get    `cmd:""                    help:"Print one variable"`
	Consts cmd.Consts `cmd:""                    help:"Print the constants of a file"`
	New    cmd.New    `cmd:""                    help:"Declare a new variable"`
	Set    cmd.Set    `cmd:""                    help:"Change the value of a variable"`
	Rm     cmd.Rm     `cmd:""                    help:"Remove a variable"`
	Fmt    cmd.Fmt    `cmd:""                    help:"Format the evaluated namespace"`
	Check  cmd.Check  `cmd:""                    help:"Validate files concurrently"`
	Repl   cmd.Repl   `cmd:""                    help:"Explore a file interactively"`
	Init   cmd.Init   `cmd:""                    help:"Initialize configuration file"`
}

// Run executes the flk CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	if err := mkdirAllRequired(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags so that they apply regardless of position,
	// including boolean flags like --log-pretty.
	cli.Log.scan(args)

	parser, err := newKong(
		ctx,
		&cli,
		configPath(baseConfig+pkg.Extension),
		exit,
		// Commands receive ctx as it is when they run, not as it is now.
		func() context.Context { return ctx },
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithParserOptions(ctx, cli.Lang.options()...)

	cli.Log.start(ctx)

	// [pprofConfig.start] is a no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}

// newKong builds the command-line parser for cli. Flag defaults are read from
// the FL configuration file at confPath, then from its JSON sibling. Commands
// are bound to the context returned by ctxFunc.
func newKong(
	ctx context.Context,
	cli *CLI,
	confPath string,
	exit func(code int),
	ctxFunc func() context.Context,
) (*kong.Kong, error) {
	vars := kong.Vars{
		cmd.ConfigIdentifier: confPath,
		cmd.CacheIdentifier:  cachePath(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Lang.vars()).
		CloneWith(cli.Pprof.vars())

	groups := []kong.Group{cli.Log.group(), cli.Lang.group()}
	if g := cli.Pprof.group(); g.Key != "" {
		groups = append(groups, g)
	}

	return kong.New(cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(groups),
		kong.BindSingletonProvider(ctxFunc),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Resolvers(resolve(ctx, confPath)),
		kong.Configuration(kong.JSON, configPath(baseConfig+".json")),
		vars,
	)
}
