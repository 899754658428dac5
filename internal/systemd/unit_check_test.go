package systemd

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeUnit(t *testing.T, content string) (unitPath, hashPath string) {
	t.Helper()
	dir := t.TempDir()
	unitPath = filepath.Join(dir, UnitName)
	if err := os.WriteFile(unitPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return unitPath, filepath.Join(dir, "unit-file.sha256")
}

func TestCheckUnitFileIntegrityNoUnitFile(t *testing.T) {
	dir := t.TempDir()
	msg := CheckUnitFileIntegrity(filepath.Join(dir, "missing.service"), filepath.Join(dir, "h"))
	if msg != "" {
		t.Errorf("expected empty message when no unit file, got %q", msg)
	}
}

func TestCheckUnitFileIntegrityNoStoredHash(t *testing.T) {
	unitPath, hashPath := writeUnit(t, "[Unit]\nDescription=test\n")
	if msg := CheckUnitFileIntegrity(unitPath, hashPath); msg != "" {
		t.Errorf("expected empty message when no stored hash, got %q", msg)
	}
}

func TestCheckUnitFileIntegrityMatch(t *testing.T) {
	unitPath, hashPath := writeUnit(t, "[Unit]\nDescription=test\n")
	if err := RecordUnitFileHash(unitPath, hashPath); err != nil {
		t.Fatal(err)
	}
	if msg := CheckUnitFileIntegrity(unitPath, hashPath); msg != "" {
		t.Errorf("expected empty message for matching hash, got %q", msg)
	}
}

func TestCheckUnitFileIntegrityMismatch(t *testing.T) {
	unitPath, hashPath := writeUnit(t, "[Unit]\nDescription=modified\n")
	os.WriteFile(hashPath, []byte(strings.Repeat("a", 64)+"\n"), 0600)

	msg := CheckUnitFileIntegrity(unitPath, hashPath)
	if !strings.Contains(msg, "modified since installation") {
		t.Errorf("expected modification warning, got %q", msg)
	}
}

func TestCheckUnitFileIntegrityIgnoresMalformedHash(t *testing.T) {
	unitPath, hashPath := writeUnit(t, "[Unit]\n")
	os.WriteFile(hashPath, []byte("short\n"), 0600)
	if msg := CheckUnitFileIntegrity(unitPath, hashPath); msg != "" {
		t.Errorf("malformed hash should be ignored, got %q", msg)
	}
}

func TestRecordUnitFileHash(t *testing.T) {
	content := "[Unit]\nDescription=test\n"
	unitPath, hashPath := writeUnit(t, content)

	if err := RecordUnitFileHash(unitPath, hashPath); err != nil {
		t.Fatalf("RecordUnitFileHash: %v", err)
	}
	data, err := os.ReadFile(hashPath)
	if err != nil {
		t.Fatalf("read hash file: %v", err)
	}
	h := sha256.Sum256([]byte(content))
	if got := strings.TrimSpace(string(data)); got != hex.EncodeToString(h[:]) {
		t.Errorf("hash = %s", got)
	}
}

func TestRecordUnitFileHashNoUnit(t *testing.T) {
	dir := t.TempDir()
	if err := RecordUnitFileHash(filepath.Join(dir, "missing.service"), filepath.Join(dir, "h")); err == nil {
		t.Error("expected error when no unit file exists")
	}
}
