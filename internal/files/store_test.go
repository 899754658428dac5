package files

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "downloads"))
	s.now = func() time.Time { return time.Date(2026, 1, 2, 13, 4, 5, 0, time.UTC) }
	return s
}

func TestSaveCreatesDirAndFile(t *testing.T) {
	s := newTestStore(t)
	saved, err := s.Save(context.Background(), "notes.txt", strings.NewReader("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if saved.Name != "notes.txt" || saved.Size != 5 {
		t.Errorf("saved = %+v", saved)
	}
	data, err := os.ReadFile(saved.Path)
	if err != nil || string(data) != "hello" {
		t.Errorf("content = %q, %v", data, err)
	}
}

func TestSaveCollisionAppendsTimeSuffix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Save(ctx, "report.pdf", strings.NewReader("one"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Save(ctx, "report.pdf", strings.NewReader("two"))
	if err != nil {
		t.Fatal(err)
	}
	third, err := s.Save(ctx, "report.pdf", strings.NewReader("three"))
	if err != nil {
		t.Fatal(err)
	}

	if second.Name != "report_130405.pdf" {
		t.Errorf("second name = %q", second.Name)
	}
	if third.Name != "report_130405_2.pdf" {
		t.Errorf("third name = %q", third.Name)
	}
	data, _ := os.ReadFile(first.Path)
	if string(data) != "one" {
		t.Errorf("original file overwritten: %q", data)
	}
}

func TestSaveStripsDirectories(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"../../etc/passwd", `..\..\boot.ini`, ".."} {
		saved, err := s.Save(context.Background(), name, strings.NewReader("x"))
		if err != nil {
			t.Fatal(err)
		}
		if filepath.Dir(saved.Path) != s.Dir() {
			t.Errorf("%q escaped the store: %s", name, saved.Path)
		}
	}
}

func TestCleanName(t *testing.T) {
	tests := map[string]string{
		"report.pdf":    "report.pdf",
		"evil.exe/":     "evil.exe",
		`evil.exe\`:     "evil.exe",
		"dir/evil.EXE/": "evil.EXE",
		"../../x.sh":    "x.sh",
		"":              "file",
		"..":            "file",
		"/":             "file",
	}
	for raw, want := range tests {
		if got := CleanName(raw); got != want {
			t.Errorf("CleanName(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestSaveCancelled(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Save(ctx, "a.txt", strings.NewReader("data")); err == nil {
		t.Error("expected error for cancelled context")
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), "a.txt")); !os.IsNotExist(err) {
		t.Error("partial file should be removed")
	}
}
