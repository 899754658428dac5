package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ppiankov/hostwarden/internal/config"
	"github.com/ppiankov/hostwarden/internal/host"
	"github.com/ppiankov/hostwarden/internal/systemd"
)

func TestNewHostWiresEveryProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Screenshot.Command = []string{"grim", "-"}
	h := newHost(cfg, host.NewMetrics())

	if h.Mixer == nil || h.Power == nil || h.Media == nil || h.Display == nil ||
		h.Processes == nil || h.System == nil || h.Screen == nil ||
		h.Clipboard == nil || h.Launcher == nil {
		t.Fatalf("provider missing: %+v", h)
	}
	if s, ok := h.Screen.(host.CommandScreen); !ok || s.Argv[0] != "grim" {
		t.Errorf("screenshot command not applied: %+v", h.Screen)
	}
}

func TestCheckUnitWarnsOnModifiedUnit(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	unit := systemd.UserUnitPath()
	if err := os.MkdirAll(filepath.Dir(unit), 0o755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(unit, []byte("[Unit]\n"), 0o644)

	cfgDir := t.TempDir()
	if err := systemd.RecordUnitFileHash(unit, filepath.Join(cfgDir, unitHashFile)); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	log := zerolog.New(&buf)

	checkUnit(cfgDir, log)
	if buf.Len() != 0 {
		t.Fatalf("unexpected warning for intact unit: %s", buf.String())
	}

	os.WriteFile(unit, []byte("[Unit]\nExecStartPre=/tmp/evil\n"), 0o644)
	checkUnit(cfgDir, log)
	if !strings.Contains(buf.String(), "modified since installation") {
		t.Errorf("expected warning, got %q", buf.String())
	}
}
