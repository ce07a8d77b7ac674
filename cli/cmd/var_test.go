package cmd

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/ardnew/flk/lang"
)

const sample = `const limit(int) = 10
// service settings
host(str) = "localhost"
port(int) = 8000 + 80
ratio(float) = $port / limit
`

func TestParseRun(t *testing.T) {
	path := writeFile(t, t.TempDir(), "conf.fl", sample)
	ctx, buf := outputContext()

	if err := (&Parse{File: path}).Run(ctx); err != nil {
		t.Fatalf("Parse.Run() = %v", err)
	}

	want := `host(str) = "localhost"
port(int) = 8080
ratio(float) = 808.0
`
	if got := buf.String(); got != want {
		t.Errorf("output:\n%s\nwant:\n%s", got, want)
	}
}

func TestGetRun(t *testing.T) {
	path := writeFile(t, t.TempDir(), "conf.fl", sample)

	tests := []struct {
		name  string
		cmd   Get
		want  string
		error error
	}{
		{"declaration", Get{File: path, Name: "port"}, "port(int) = 8080\n", nil},
		{"value", Get{File: path, Name: "host", Value: true}, "\"localhost\"\n", nil},
		{"missing", Get{File: path, Name: "nope"}, "", lang.ErrVariableNotFound},
		{"constant_is_not_variable", Get{File: path, Name: "limit"}, "", ErrLookup},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, buf := outputContext()

			err := tt.cmd.Run(ctx)
			if tt.error != nil {
				if !errors.Is(err, tt.error) {
					t.Fatalf("Get.Run() error = %v, want %v", err, tt.error)
				}

				return
			}

			if err != nil {
				t.Fatalf("Get.Run() = %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRun_Error(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.fl", "x(int) = nope\n")
	ctx, _ := outputContext()

	err := (&Parse{File: path}).Run(ctx)
	if !errors.Is(err, ErrParse) {
		t.Errorf("Parse.Run() error = %v, want %v", err, ErrParse)
	}

	if !errors.Is(err, lang.ErrInvalidNumber) {
		t.Errorf("Parse.Run() error = %v, want cause %v", err, lang.ErrInvalidNumber)
	}
}

func TestMutateRun(t *testing.T) {
	path := writeFile(t, t.TempDir(), "conf.fl", sample)
	ctx, _ := outputContext()

	steps := []struct {
		name string
		cmd  interface{ Run(ctx context.Context) error }
	}{
		{"new", &New{File: path, Name: "tags", Type: lang.TypeList, Value: []string{"[web,", "api]"}}},
		{"set", &Set{File: path, Name: "port", Value: []string{"9000"}}},
		{"set_string", &Set{File: path, Name: "host", Value: []string{`"example.org"`}}},
		{"rm", &Rm{File: path, Name: "ratio"}},
	}

	for _, step := range steps {
		if err := step.cmd.Run(ctx); err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	want := `const limit(int) = 10
// service settings
host(str) = "example.org"
port(int) = 9000

tags(list) = [web, api]
`
	if got := string(data); got != want {
		t.Errorf("file:\n%s\nwant:\n%s", got, want)
	}
}

func TestMutateRun_Errors(t *testing.T) {
	path := writeFile(t, t.TempDir(), "conf.fl", sample)
	ctx, _ := outputContext()

	tests := []struct {
		name string
		cmd  interface{ Run(ctx context.Context) error }
		want error
	}{
		{"new_exists", &New{File: path, Name: "port", Type: lang.TypeInt, Value: []string{"1"}}, lang.ErrVariableExists},
		{"new_bad_value", &New{File: path, Name: "n", Type: lang.TypeInt, Value: []string{"x"}}, lang.ErrInvalidNumber},
		{"set_missing", &Set{File: path, Name: "nope", Value: []string{"1"}}, lang.ErrVariableNotFound},
		{"set_bad_value", &Set{File: path, Name: "port", Value: []string{"1.5"}}, lang.ErrInvalidNumber},
		{"rm_missing", &Rm{File: path, Name: "nope"}, lang.ErrVariableNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Run(ctx)
			if !errors.Is(err, ErrMutate) || !errors.Is(err, tt.want) {
				t.Errorf("Run() error = %v, want %v wrapping %v", err, ErrMutate, tt.want)
			}
		})
	}

	if got, _ := os.ReadFile(path); string(got) != sample {
		t.Errorf("failed mutations changed the file:\n%s", got)
	}
}

func TestConstsRun(t *testing.T) {
	src := "const zeta(str) = \"z\"\nconst alpha(int) = 1\nx(int) = 2\n"
	path := writeFile(t, t.TempDir(), "conf.fl", src)
	ctx, buf := outputContext()

	if err := (&Consts{File: path}).Run(ctx); err != nil {
		t.Fatalf("Consts.Run() = %v", err)
	}

	want := "const alpha(int) = 1\nconst zeta(str) = \"z\"\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	if strings.Contains(buf.String(), "x(int)") {
		t.Error("variables listed as constants")
	}
}
