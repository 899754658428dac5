package audit

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeTestLog creates a temp audit log with known entries.
func writeTestLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test-audit.jsonl")
	log, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer log.Close()

	base := time.Date(2025, 1, 15, 14, 0, 0, 0, time.UTC)
	at := func(sec int) string { return base.Add(time.Duration(sec) * time.Second).Format(TimestampFormat) }

	entries := []Entry{
		{Timestamp: at(0), OperatorID: 1001, Kind: "power-action", Resource: "shutdown", Decision: DecisionAllow},
		{Timestamp: at(2), OperatorID: 1001, Kind: "shell-exec", Resource: "ls /tmp", Decision: DecisionAllow},
		{Timestamp: at(4), OperatorID: 666, Kind: KindAccess, Decision: DecisionDeny, Reason: "not in allow-list"},
		{Timestamp: at(6), OperatorID: 1001, Kind: "shell-exec", Resource: "rm -rf /", Decision: DecisionDeny, Reason: "denylisted command pattern: rm -rf"},
		{Timestamp: at(8), OperatorID: 666, Kind: KindAccess, Decision: DecisionLockout, Reason: "too many attempts"},
		{Timestamp: at(10), OperatorID: 1001, Kind: "file-upload", Resource: "payload.exe", Decision: DecisionDeny, Reason: "denylisted extension: .exe"},
	}
	for _, e := range entries {
		if err := log.Record(e); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestReplayAllOperators(t *testing.T) {
	path := writeTestLog(t)

	result, err := Replay(path, ReplayFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 6 {
		t.Errorf("expected 6 entries, got %d", len(result.Entries))
	}
	if result.Summary.Operators != 2 {
		t.Errorf("expected 2 operators, got %d", result.Summary.Operators)
	}
}

func TestReplayFiltersByOperator(t *testing.T) {
	path := writeTestLog(t)

	result, err := Replay(path, ReplayFilter{OperatorID: 1001})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 4 {
		t.Errorf("expected 4 entries for 1001, got %d", len(result.Entries))
	}
	for _, e := range result.Entries {
		if e.OperatorID != 1001 {
			t.Errorf("unexpected operator: %d", e.OperatorID)
		}
	}
}

func TestReplayTimeRange(t *testing.T) {
	path := writeTestLog(t)

	tests := []struct {
		name     string
		from, to time.Time
		want     int
	}{
		{"from", time.Date(2025, 1, 15, 14, 0, 5, 0, time.UTC), time.Time{}, 3},
		{"to", time.Time{}, time.Date(2025, 1, 15, 14, 0, 3, 0, time.UTC), 2},
		{"both", time.Date(2025, 1, 15, 14, 0, 1, 0, time.UTC), time.Date(2025, 1, 15, 14, 0, 7, 0, time.UTC), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Replay(path, ReplayFilter{From: tt.from, To: tt.to})
			if err != nil {
				t.Fatal(err)
			}
			if len(result.Entries) != tt.want {
				t.Errorf("expected %d entries, got %d", tt.want, len(result.Entries))
			}
		})
	}
}

func TestReplayEmptyResult(t *testing.T) {
	path := writeTestLog(t)

	result, err := Replay(path, ReplayFilter{OperatorID: 42})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 0 || result.Summary.Total != 0 {
		t.Errorf("expected no entries, got %d", len(result.Entries))
	}
}

func TestReplaySummaryCounts(t *testing.T) {
	path := writeTestLog(t)

	result, err := Replay(path, ReplayFilter{})
	if err != nil {
		t.Fatal(err)
	}
	s := result.Summary
	if s.AllowCount != 2 || s.DenyCount != 3 || s.LockoutCount != 1 {
		t.Errorf("counts = allow %d, deny %d, lockout %d", s.AllowCount, s.DenyCount, s.LockoutCount)
	}
	if s.FirstTimestamp != "2025-01-15T14:00:00.000Z" || s.LastTimestamp != "2025-01-15T14:00:10.000Z" {
		t.Errorf("range = %s..%s", s.FirstTimestamp, s.LastTimestamp)
	}
}

func TestFormatTimeline(t *testing.T) {
	path := writeTestLog(t)
	result, err := Replay(path, ReplayFilter{})
	if err != nil {
		t.Fatal(err)
	}

	out := FormatTimeline(result)
	for _, want := range []string{
		"Audit: all operators",
		"LOCKOUT",
		"payload.exe",
		"Summary: 2 allow, 3 deny, 1 lockout | Operators: 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("timeline missing %q:\n%s", want, out)
		}
	}
}

func TestFormatTimelineEmpty(t *testing.T) {
	out := FormatTimeline(&ReplayResult{OperatorID: 5})
	if out != "Audit: operator 5 | No entries found.\n" {
		t.Errorf("got %q", out)
	}
}

func TestFormatJSON(t *testing.T) {
	path := writeTestLog(t)
	result, _ := Replay(path, ReplayFilter{OperatorID: 666})
	out, err := FormatJSON(result)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"lockout_count": 1`) {
		t.Errorf("json missing lockout count:\n%s", out)
	}
}
