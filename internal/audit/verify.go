package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ChainBreak is the first entry whose link to the decision before it does
// not hold. The entry itself may be intact: a broken prev_hash means the
// lines above it were altered.
type ChainBreak struct {
	Line       int    `json:"line"`
	Problem    string `json:"problem"`
	EventID    string `json:"event_id,omitempty"`
	Timestamp  string `json:"ts,omitempty"`
	OperatorID int64  `json:"operator_id,omitempty"`
	Decision   string `json:"decision,omitempty"`
	Kind       string `json:"kind,omitempty"`
}

// VerifyResult is the outcome of walking a decision log. The counts cover
// the entries verified before any break.
type VerifyResult struct {
	Valid    bool        `json:"valid"`
	Entries  int         `json:"entries"`
	Allows   int         `json:"allows"`
	Denies   int         `json:"denies"`
	Lockouts int         `json:"lockouts"`
	Locked   []int64     `json:"locked_operators,omitempty"`
	Break    *ChainBreak `json:"break,omitempty"`
	Error    string      `json:"error,omitempty"`
}

var errBroken = errors.New("chain broken")

// Verify walks the decision log at path, checking every prev_hash link and
// every decision value. It stops at the first break.
func Verify(path string) VerifyResult {
	f, err := os.Open(path)
	if err != nil {
		return VerifyResult{Error: fmt.Sprintf("open: %v", err)}
	}
	defer f.Close()

	var res VerifyResult
	prev := GenesisHash
	locked := make(map[int64]bool)

	err = eachLine(f, func(n int, line []byte) error {
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			res.Break = &ChainBreak{Line: n, Problem: fmt.Sprintf("not a decision entry: %v", err)}
			return errBroken
		}
		switch {
		case e.PrevHash != prev && n == 1:
			res.Break = breakAt(n, e, fmt.Sprintf("first entry prev_hash is %q, expected genesis hash", e.PrevHash))
		case e.PrevHash != prev:
			res.Break = breakAt(n, e, fmt.Sprintf("hash mismatch: expected %s, got %s", prev, e.PrevHash))
		case !KnownDecision(e.Decision):
			res.Break = breakAt(n, e, fmt.Sprintf("unknown decision %q", e.Decision))
		}
		if res.Break != nil {
			return errBroken
		}

		res.Entries++
		switch e.Decision {
		case DecisionAllow:
			res.Allows++
		case DecisionDeny:
			res.Denies++
		case DecisionLockout:
			res.Lockouts++
			if !locked[e.OperatorID] {
				locked[e.OperatorID] = true
				res.Locked = append(res.Locked, e.OperatorID)
			}
		}
		prev = HashLine(line)
		return nil
	})
	if err != nil && !errors.Is(err, errBroken) {
		res.Error = fmt.Sprintf("scan: %v", err)
	}
	res.Valid = res.Break == nil && res.Error == ""
	return res
}

func breakAt(n int, e Entry, problem string) *ChainBreak {
	return &ChainBreak{
		Line:       n,
		Problem:    problem,
		EventID:    e.EventID,
		Timestamp:  e.Timestamp,
		OperatorID: e.OperatorID,
		Decision:   e.Decision,
		Kind:       e.Kind,
	}
}
