package artifact

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewIgnoreMatcher(t *testing.T) {
	t.Run("skips blank lines and comments", func(t *testing.T) {
		t.Parallel()
		m := NewIgnoreMatcher([]string{"", "  ", "# comment", "*.tmp"})
		if len(m.patterns) != 2 {
			t.Fatalf("expected default plus 1 pattern, got %d", len(m.patterns))
		}
		if m.patterns[1].pattern != "*.tmp" {
			t.Errorf("expected *.tmp, got %s", m.patterns[1].pattern)
		}
	})

	t.Run("classifies path vs basename patterns", func(t *testing.T) {
		t.Parallel()
		m := NewIgnoreMatcher([]string{"*.tmp", "drafts/old"})
		if m.patterns[1].matchPath {
			t.Error("*.tmp should not be a path pattern")
		}
		if !m.patterns[2].matchPath {
			t.Error("drafts/old should be a path pattern")
		}
	})

	t.Run("With keeps the original untouched", func(t *testing.T) {
		t.Parallel()
		base := NewIgnoreMatcher([]string{"*.tmp"})
		ext := base.With([]string{"*.bak"})
		if base.Match("copy.bak") {
			t.Error("base matcher should not gain extra patterns")
		}
		if !ext.Match("copy.bak") || !ext.Match("x.tmp") {
			t.Error("extended matcher should match both pattern sets")
		}
	})
}

func TestIgnoreMatcher_Match(t *testing.T) {
	tests := []struct {
		name         string
		patterns     []string
		relativePath string
		want         bool
	}{
		{"basename glob in root", []string{"*.tmp"}, "scan.tmp", true},
		{"basename glob in subdirectory", []string{"*.tmp"}, filepath.Join("batch", "scan.tmp"), true},
		{"basename glob other extension", []string{"*.tmp"}, "scan.pdf", false},
		{"ignore file always skipped", nil, IgnoreFileName, true},
		{"exact basename in subdirectory", []string{"Thumbs.db"}, filepath.Join("2021", "Thumbs.db"), true},
		{"path pattern exact", []string{"drafts/old"}, filepath.Join("drafts", "old"), true},
		{"path pattern wrong parent", []string{"drafts/old"}, filepath.Join("final", "old"), false},
		{"path pattern with glob", []string{"drafts/*.png"}, filepath.Join("drafts", "a.png"), true},
		{"character class", []string{"*.[jp]pg"}, "cert.jpg", true},
		{"no patterns", nil, "JH-RU-2021-004567.pdf", false},
		{"malformed pattern skipped", []string{"[", "*.tmp"}, "x.tmp", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewIgnoreMatcher(tt.patterns)
			if got := m.Match(tt.relativePath); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.relativePath, got, tt.want)
			}
		})
	}
}

func TestParseIgnoreFile(t *testing.T) {
	t.Run("reads raw lines", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), IgnoreFileName)
		if err := os.WriteFile(path, []byte("*.tmp\n# comment\n\ndrafts/*\n"), 0644); err != nil {
			t.Fatalf("writing test file: %v", err)
		}

		patterns, err := ParseIgnoreFile(path)
		if err != nil {
			t.Fatalf("ParseIgnoreFile() error = %v", err)
		}
		if len(patterns) != 4 {
			t.Fatalf("expected 4 raw lines, got %d", len(patterns))
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		patterns, err := ParseIgnoreFile(filepath.Join(t.TempDir(), IgnoreFileName))
		if err != nil {
			t.Fatalf("ParseIgnoreFile() error = %v", err)
		}
		if patterns != nil {
			t.Errorf("expected nil patterns, got %v", patterns)
		}
	})
}
