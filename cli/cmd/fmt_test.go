package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/flk/lang"
)

func TestNativeRun(t *testing.T) {
	path := writeFile(t, t.TempDir(), "conf.fl", sample)
	ctx, buf := outputContext()

	if err := (&Native{File: path}).Run(ctx); err != nil {
		t.Fatalf("Native.Run() = %v", err)
	}

	want := `const limit(int) = 10
host(str) = "localhost"
port(int) = 8080
ratio(float) = 808.0
`
	if got := buf.String(); got != want {
		t.Errorf("output:\n%s\nwant:\n%s", got, want)
	}

	// The formatted output is itself valid source with the same values.
	again := writeFile(t, t.TempDir(), "again.fl", buf.String())

	p := lang.NewParser()
	if _, err := p.ParseFile(ctx, again); err != nil {
		t.Fatalf("formatted output does not parse: %v", err)
	}

	if v, err := p.GetVar("ratio"); err != nil || !v.Value.Equal(lang.NewFloat(808)) {
		t.Errorf("ratio = %v, %v", v, err)
	}
}

func TestJSONRun(t *testing.T) {
	path := writeFile(t, t.TempDir(), "conf.fl", sample)

	tests := []struct {
		name   string
		indent int
		want   string
	}{
		{"compact", 0, `{"host":"localhost","port":8080,"ratio":808}` + "\n"},
		{
			"indented",
			2,
			"{\n  \"host\": \"localhost\",\n  \"port\": 8080,\n  \"ratio\": 808\n}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, buf := outputContext()

			if err := (&JSON{File: path, Indent: tt.indent}).Run(ctx); err != nil {
				t.Fatalf("JSON.Run() = %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestYAMLRun(t *testing.T) {
	path := writeFile(t, t.TempDir(), "conf.fl", sample)
	ctx, buf := outputContext()

	if err := (&YAML{File: path, Indent: 2}).Run(ctx); err != nil {
		t.Fatalf("YAML.Run() = %v", err)
	}

	out := buf.String()

	lines := []string{"host: localhost", "port: 8080", "ratio: 808"}
	last := -1

	for _, line := range lines {
		i := strings.Index(out, line)
		if i < 0 {
			t.Fatalf("output missing %q:\n%s", line, out)
		}

		if i < last {
			t.Errorf("%q out of declaration order:\n%s", line, out)
		}

		last = i
	}
}

func TestFmtRun_ParseError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.fl", "x(str) = unquoted\n")

	runs := map[string]func() error{
		"native": func() error { ctx, _ := outputContext(); return (&Native{File: path}).Run(ctx) },
		"json":   func() error { ctx, _ := outputContext(); return (&JSON{File: path}).Run(ctx) },
		"yaml":   func() error { ctx, _ := outputContext(); return (&YAML{File: path}).Run(ctx) },
	}

	for name, run := range runs {
		t.Run(name, func(t *testing.T) {
			err := run()
			if !errors.Is(err, ErrParse) || !errors.Is(err, lang.ErrUnquotedString) {
				t.Errorf("Run() error = %v, want %v wrapping %v", err, ErrParse, lang.ErrUnquotedString)
			}
		})
	}
}
