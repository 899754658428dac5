package audit

// Decisions recorded in Entry.Decision.
const (
	DecisionAllow   = "allow"
	DecisionDeny    = "deny"
	DecisionLockout = "lockout"
)

// KnownDecision reports whether d is one of the recorded decisions.
func KnownDecision(d string) bool {
	return d == DecisionAllow || d == DecisionDeny || d == DecisionLockout
}

// Entry kinds that are not intent kinds.
const (
	KindAccess = "access"
)

// Entry is one line in the hash-chained JSONL audit log.
// All fields are plain values (no map[string]any) so json.Marshal field
// order is deterministic and hashes are reproducible.
type Entry struct {
	Timestamp  string `json:"ts"`
	EventID    string `json:"event_id"`
	OperatorID int64  `json:"operator_id"`
	Username   string `json:"username,omitempty"`
	Kind       string `json:"kind"`
	Resource   string `json:"resource"`
	Decision   string `json:"decision"`
	Reason     string `json:"reason"`
	PrevHash   string `json:"prev_hash"`
}
