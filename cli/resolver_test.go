package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), baseConfig+".fl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestResolve(t *testing.T) {
	path := writeConfig(t, `
const base(int) = 4
log_level(str) = "debug"
log_pretty(bool) = false
jobs(int) = base * 2
ratio(float) = 0.25
path(list) = ["/a", "/b"]
server(dict) = {port(key): port(int) = 1}
`)

	got := resolve(context.Background(), path)

	want := config{
		"log_level":  "debug",
		"log_pretty": false,
		"jobs":       "8",
		"ratio":      "0.25",
		"path":       []any{"/a", "/b"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_Unusable(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(t.TempDir(), "absent.fl")},
		{"parse_error", writeConfig(t, "log_level(str) = unquoted\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolve(context.Background(), tt.path); len(got) != 0 {
				t.Errorf("resolve() = %v, want empty", got)
			}
		})
	}
}

func TestConfig_Resolve(t *testing.T) {
	c := config{
		"log_level": "debug",
		"atomic":    false,
		"dry-run":   true,
		"dry_run":   false,
	}

	tests := []struct {
		flag string
		want any
	}{
		{"log-level", "debug"},
		{"atomic", false},
		{"dry-run", true}, // the exact name wins over the underscore form
		{"missing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			flag := &kong.Flag{Value: &kong.Value{Name: tt.flag}}

			got, err := c.Resolve(nil, nil, flag)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}

			if got != tt.want {
				t.Errorf("Resolve(%s) = %v, want %v", tt.flag, got, tt.want)
			}
		})
	}
}
