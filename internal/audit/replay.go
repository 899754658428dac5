package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ReplayFilter selects entries for Replay. Zero fields do not filter.
type ReplayFilter struct {
	OperatorID int64
	From       time.Time
	To         time.Time
}

// ReplaySummary holds decision counts for the replayed entries.
type ReplaySummary struct {
	Total          int    `json:"total"`
	AllowCount     int    `json:"allow_count"`
	DenyCount      int    `json:"deny_count"`
	LockoutCount   int    `json:"lockout_count"`
	Operators      int    `json:"operators"`
	FirstTimestamp string `json:"first_timestamp"`
	LastTimestamp  string `json:"last_timestamp"`
}

// ReplayResult holds filtered entries and their summary.
type ReplayResult struct {
	OperatorID int64         `json:"operator_id,omitempty"`
	Entries    []Entry       `json:"entries"`
	Summary    ReplaySummary `json:"summary"`
}

// Replay reads the audit log and returns entries matching the filter.
// Malformed lines are skipped; use Verify to detect them.
func Replay(path string, filter ReplayFilter) (*ReplayResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	result := &ReplayResult{OperatorID: filter.OperatorID}
	seen := make(map[int64]struct{})

	err = eachLine(f, func(_ int, line []byte) error {
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil
		}
		if !filter.match(entry) {
			return nil
		}
		result.Entries = append(result.Entries, entry)
		seen[entry.OperatorID] = struct{}{}
		updateSummary(&result.Summary, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	result.Summary.Operators = len(seen)
	return result, nil
}

func (f ReplayFilter) match(e Entry) bool {
	if f.OperatorID != 0 && e.OperatorID != f.OperatorID {
		return false
	}
	if f.From.IsZero() && f.To.IsZero() {
		return true
	}
	ts, err := time.Parse(TimestampFormat, e.Timestamp)
	if err != nil {
		return false
	}
	if !f.From.IsZero() && ts.Before(f.From) {
		return false
	}
	return f.To.IsZero() || !ts.After(f.To)
}

func updateSummary(s *ReplaySummary, entry Entry) {
	s.Total++
	switch entry.Decision {
	case DecisionAllow:
		s.AllowCount++
	case DecisionDeny:
		s.DenyCount++
	case DecisionLockout:
		s.LockoutCount++
	}
	if s.FirstTimestamp == "" {
		s.FirstTimestamp = entry.Timestamp
	}
	s.LastTimestamp = entry.Timestamp
}
