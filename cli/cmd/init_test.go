package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/ardnew/flk/lang"
)

// initContext returns a context holding a kong context parsed from args with
// the config path variable set to path.
func initContext(t *testing.T, cli any, path string, args ...string) context.Context {
	t.Helper()

	parser, err := kong.New(cli, kong.Vars{ConfigIdentifier: path})
	if err != nil {
		t.Fatal(err)
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		t.Fatal(err)
	}

	return WithContext(context.Background(), kctx)
}

func TestInitRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		force   bool
		exists  bool
		wantErr error
	}{
		{name: "create_new_config"},
		{name: "overwrite_existing_with_force", force: true, exists: true},
		{name: "fail_without_force", exists: true, wantErr: ErrFileExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			confPath := filepath.Join(t.TempDir(), "config.fl")

			if tt.exists {
				if err := os.WriteFile(confPath, []byte("stale(int) = 1\n"), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			var cli struct {
				Jobs int `default:"4"`
			}

			ctx := initContext(t, &cli, confPath)

			err := (&Init{Force: tt.force}).Run(ctx)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Init.Run() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Init.Run() unexpected error = %v", err)
			}

			p := lang.NewParser()
			if _, err := p.ParseFile(context.Background(), confPath); err != nil {
				t.Fatalf("generated config does not parse: %v", err)
			}

			if _, err := p.GetVar("stale"); err == nil {
				t.Error("existing content was not replaced")
			}

			v, err := p.GetVar("jobs")
			if err != nil || !v.Value.Equal(lang.NewInt(4)) {
				t.Errorf("jobs = %v, %v; want 4", v, err)
			}
		})
	}
}

func TestInitRun_InvalidPath(t *testing.T) {
	t.Parallel()

	var cli struct{}

	ctx := initContext(t, &cli, filepath.Join(t.TempDir(), "missing", "config.fl"))

	err := (&Init{}).Run(ctx)
	if !errors.Is(err, ErrWriteConfig) {
		t.Errorf("Init.Run() error = %v, want %v", err, ErrWriteConfig)
	}
}

func TestInitBuildConfig(t *testing.T) {
	t.Parallel()

	var cli struct {
		Verbose  bool     `help:"Enable verbose output"`
		Output   string   `help:"Output file"`
		Count    int      `help:"Number of items"`
		Ratio    float64  `help:"Ratio"`
		LogLevel string   `help:"Log level"`
		Path     []string `help:"Search path"`
		Empty    string   `help:"Never set"`
		Secret   string   `hidden:""`
	}

	ctx := initContext(t, &cli, "",
		"--verbose", "--output=test.txt", "--count=5", "--ratio=0.25",
		"--log-level=debug", "--path=a", "--path=b", "--secret=x",
	)

	vars := (&Init{}).buildConfig(ctx)

	got := make(map[string]*lang.Value, len(vars))
	for _, v := range vars {
		if v.Type != v.Value.Type {
			t.Errorf("%s: declared %s holds %s", v.Name, v.Type, v.Value.Type)
		}

		got[v.Name] = v.Value
	}

	want := map[string]*lang.Value{
		"verbose":   lang.NewBool(true),
		"output":    lang.NewString("test.txt"),
		"count":     lang.NewInt(5),
		"ratio":     lang.NewFloat(0.25),
		"log_level": lang.NewString("debug"),
		"path":      lang.NewList(lang.NewString("a"), lang.NewString("b")),
	}

	if len(got) != len(want) {
		t.Errorf("buildConfig() returned %d variables, want %d", len(got), len(want))
	}

	for name, w := range want {
		if g, ok := got[name]; !ok || !g.Equal(w) {
			t.Errorf("%s = %v, want %v", name, g, w)
		}
	}

	for _, name := range []string{"help", "empty", "secret"} {
		if _, ok := got[name]; ok {
			t.Errorf("buildConfig() included %q", name)
		}
	}
}
