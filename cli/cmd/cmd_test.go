package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/flk/lang"
	"github.com/ardnew/flk/pkg"
)

// writeFile writes content to name inside dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

// outputContext returns a context whose commands write to the returned
// buffer.
func outputContext(opts ...lang.Option) (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer

	ctx := WithOutput(context.Background(), &buf)
	ctx = WithParserOptions(ctx, opts...)

	return ctx, &buf
}

func TestUniqueFiles(t *testing.T) {
	dir := t.TempDir()

	a := writeFile(t, dir, "a.fl", "a(int) = 1\n")
	b := writeFile(t, dir, "b.fl", "b(int) = 2\n")

	link := filepath.Join(dir, "link.fl")
	if err := os.Symlink(a, link); err != nil {
		t.Fatal(err)
	}

	missing := filepath.Join(dir, "missing.fl")

	t.Chdir(dir)

	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{"empty", nil, []string{}},
		{"distinct", []string{a, b}, []string{a, b}},
		{"repeated", []string{a, b, a}, []string{a, b}},
		{"relative_and_absolute", []string{"a.fl", a}, []string{"a.fl"}},
		{"symlink", []string{link, a}, []string{link}},
		{"missing_kept_once", []string{missing, a, missing}, []string{missing, a}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := uniqueFiles(tt.paths)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("uniqueFiles() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestContextDefaults(t *testing.T) {
	ctx := context.Background()

	if outputFrom(ctx) != os.Stdout {
		t.Error("outputFrom() default is not os.Stdout")
	}

	if opts := parserOptionsFrom(ctx); opts != nil {
		t.Errorf("parserOptionsFrom() = %v, want nil", opts)
	}

	if ktx := kongContextFrom(ctx); ktx != nil {
		t.Errorf("kongContextFrom() = %v, want nil", ktx)
	}
}

func TestParserOptions(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib")

	writeFile(t, lib, "shared.conf", "shared(int) = 7\n")
	root := writeFile(t, dir, "root.conf", "(import) shared\nx(int) = $shared + 1\n")

	t.Setenv(pkg.PathEnv, "")

	ctx, buf := outputContext(lang.WithExtension("conf"), lang.WithSearchPath(lib))

	if err := (&Get{File: root, Name: "x", Value: true}).Run(ctx); err != nil {
		t.Fatalf("Get.Run() = %v", err)
	}

	if got := buf.String(); got != "8\n" {
		t.Errorf("output = %q, want %q", got, "8\n")
	}
}
