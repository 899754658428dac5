package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/hostwarden/internal/config"
	"github.com/ppiankov/hostwarden/internal/denylist"
)

func resetInitFlags(mode string, force bool) {
	initMode = mode
	initInstallSystemd = false
	initForce = force
}

func TestRunInit_UserMode(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	resetInitFlags("user", false)

	if err := runInit(nil, nil); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	configDir := filepath.Join(tmpDir, ".hostwarden")

	data, err := os.ReadFile(filepath.Join(configDir, "config.yaml"))
	if err != nil {
		t.Fatalf("config.yaml not created: %v", err)
	}
	if string(data) != config.Template {
		t.Error("config.yaml does not match the template")
	}
	info, _ := os.Stat(filepath.Join(configDir, "config.yaml"))
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config.yaml mode = %v, want 0600", info.Mode().Perm())
	}

	data, err = os.ReadFile(filepath.Join(configDir, "denylist.yaml"))
	if err != nil {
		t.Fatalf("denylist.yaml not created: %v", err)
	}
	for _, section := range []string{"commands:", "extensions:"} {
		if !strings.Contains(string(data), section) {
			t.Errorf("denylist.yaml missing %s section", section)
		}
	}
}

func TestDefaultDenylistRoundTrips(t *testing.T) {
	content, err := defaultDenylistYAML()
	if err != nil {
		t.Fatal(err)
	}
	var p denylist.Patterns
	if err := yaml.Unmarshal([]byte(content), &p); err != nil {
		t.Fatalf("generated denylist does not parse: %v", err)
	}
	if len(p.Commands) != len(denylist.DefaultPatterns.Commands) ||
		len(p.Extensions) != len(denylist.DefaultPatterns.Extensions) {
		t.Errorf("pattern counts changed: %d/%d", len(p.Commands), len(p.Extensions))
	}
}

func TestRunInit_NoOverwriteWithoutForce(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	configDir := filepath.Join(tmpDir, ".hostwarden")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatal(err)
	}
	sentinel := "# sentinel content\n"
	cfgPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(sentinel), 0o600); err != nil {
		t.Fatal(err)
	}

	resetInitFlags("user", false)
	if err := runInit(nil, nil); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	data, _ := os.ReadFile(cfgPath)
	if string(data) != sentinel {
		t.Error("config.yaml was overwritten without --force")
	}
}

func TestRunInit_ForceOverwrites(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	configDir := filepath.Join(tmpDir, ".hostwarden")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatal(err)
	}
	sentinel := "# sentinel content\n"
	cfgPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(sentinel), 0o600); err != nil {
		t.Fatal(err)
	}

	resetInitFlags("user", true)
	if err := runInit(nil, nil); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	data, _ := os.ReadFile(cfgPath)
	if string(data) == sentinel {
		t.Error("config.yaml was NOT overwritten with --force")
	}
}

func TestRunInit_InvalidMode(t *testing.T) {
	resetInitFlags("invalid", false)

	err := runInit(nil, nil)
	if err == nil {
		t.Fatal("expected error for invalid mode")
	}
	if !strings.Contains(err.Error(), "unknown mode") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestInitConfigDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	tests := []struct {
		mode    string
		want    string
		wantErr bool
	}{
		{"user", filepath.Join(tmpDir, ".hostwarden"), false},
		{"", filepath.Join(tmpDir, ".hostwarden"), false},
		{"system", "/etc/hostwarden", false},
		{"invalid", "", true},
	}

	for _, tt := range tests {
		initMode = tt.mode
		got, err := initConfigDir()
		if tt.wantErr {
			if err == nil {
				t.Errorf("mode=%q: expected error", tt.mode)
			}
			continue
		}
		if err != nil {
			t.Errorf("mode=%q: unexpected error: %v", tt.mode, err)
			continue
		}
		if got != tt.want {
			t.Errorf("mode=%q: got %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestWriteIfMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.txt")

	initForce = false
	wrote, err := writeIfMissing(path, "hello", 0o644)
	if err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if !wrote {
		t.Error("first write should return true")
	}

	wrote, err = writeIfMissing(path, "world", 0o644)
	if err != nil {
		t.Fatalf("second write failed: %v", err)
	}
	if wrote {
		t.Error("second write should return false without force")
	}

	initForce = true
	defer func() { initForce = false }()
	if wrote, _ = writeIfMissing(path, "world", 0o644); !wrote {
		t.Error("write with force should return true")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "world" {
		t.Errorf("content = %q", data)
	}
}
