package denylist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewReloaderNothingToWatch(t *testing.T) {
	r, err := NewReloader(NewDefault(), "", zerolog.Nop())
	if err != nil || r != nil {
		t.Fatalf("expected (nil, nil) for empty path, got (%v, %v)", r, err)
	}

	r, err = NewReloader(NewDefault(), filepath.Join(t.TempDir(), "missing.yaml"), zerolog.Nop())
	if err != nil || r != nil {
		t.Fatalf("expected (nil, nil) for missing file, got (%v, %v)", r, err)
	}
}

func TestReloaderPicksUpChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "denylist.yaml")
	if err := os.WriteFile(path, []byte("commands: [\"first\"]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	dl, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewReloader(dl, path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	if err := os.WriteFile(path, []byte("commands: [\"second\"]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if !dl.ClassifyCommand("run second").Allowed {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("expected reloaded pattern to take effect")
}
