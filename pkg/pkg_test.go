package pkg

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	if Name != "flk" {
		t.Errorf("Expected Name to be %q, got %q", "flk", Name)
	}
}

func TestExtension(t *testing.T) {
	if !strings.HasPrefix(Extension, ".") {
		t.Errorf("Expected Extension to begin with a dot, got %q", Extension)
	}
}

func pkgDir(t *testing.T) string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to locate test source file")
	}

	return filepath.Dir(file)
}

func TestVersion(t *testing.T) {
	buf, err := os.ReadFile(filepath.Join(pkgDir(t), "VERSION"))
	if err != nil {
		t.Fatalf("Failed to read VERSION file: %v", err)
	}

	if content := strings.TrimSpace(string(buf)); Version != content {
		t.Errorf("Expected Version to be %q, got %q", content, Version)
	}
}

func TestAuthor(t *testing.T) {
	if len(Author) == 0 {
		t.Fatal("Expected Author to have at least one entry")
	}

	if !slices.ContainsFunc(Author, func(a AuthorInfo) bool {
		return a.Name == "ardnew"
	}) {
		t.Errorf("Expected Author to contain %q", "ardnew")
	}

	for i, author := range Author {
		if author.Name == "" && author.Email == "" {
			t.Errorf("Author[%d] must define at least Name or Email", i)
		}
	}
}
