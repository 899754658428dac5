package gate

import (
	"os"
	"path/filepath"
	"testing"
)

func writeAllowlist(t *testing.T, dir string, lines string) string {
	t.Helper()
	path := filepath.Join(dir, "allowlist.txt")
	if err := os.WriteFile(path, []byte(lines), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAllowlistFromFile(t *testing.T) {
	path := writeAllowlist(t, t.TempDir(), "123456789\n987654321\n")
	al, err := LoadAllowlist(path)
	if err != nil {
		t.Fatal(err)
	}
	if !al.Contains(123456789) || !al.Contains(987654321) {
		t.Error("expected both ids to be allowed")
	}
	if al.Contains(1) {
		t.Error("unknown id should be rejected")
	}
}

func TestAllowlistMergesExtraIDs(t *testing.T) {
	path := writeAllowlist(t, t.TempDir(), "100\n")
	al, err := LoadAllowlist(path, 200, 100)
	if err != nil {
		t.Fatal(err)
	}
	if al.Len() != 2 {
		t.Errorf("expected 2 unique ids, got %d", al.Len())
	}
}

func TestAllowlistCommentsIgnored(t *testing.T) {
	path := writeAllowlist(t, t.TempDir(), "# owner\n100\n  # laptop\n\n")
	al, err := LoadAllowlist(path)
	if err != nil {
		t.Fatal(err)
	}
	if al.Len() != 1 {
		t.Errorf("expected 1 id, got %d", al.Len())
	}
}

func TestAllowlistInvalidLine(t *testing.T) {
	path := writeAllowlist(t, t.TempDir(), "100\n@someone\n")
	if _, err := LoadAllowlist(path); err == nil {
		t.Error("expected error for non-numeric id")
	}
}

func TestAllowlistMissingFile(t *testing.T) {
	if _, err := LoadAllowlist("/nonexistent/allowlist.txt"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestAllowlistEmptyPath(t *testing.T) {
	al, err := LoadAllowlist("", 5)
	if err != nil {
		t.Fatal(err)
	}
	if !al.Contains(5) {
		t.Error("extra ids should be used without a file")
	}
}
