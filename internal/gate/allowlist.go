package gate

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Allowlist is the static set of operator ids admitted by the gate.
// It is built once at startup and never mutated afterwards.
type Allowlist struct {
	ids map[int64]struct{}
}

// NewAllowlist creates an allowlist from operator ids.
func NewAllowlist(ids ...int64) *Allowlist {
	a := &Allowlist{ids: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		a.ids[id] = struct{}{}
	}
	return a
}

// LoadAllowlist reads an allowlist file and merges it with extra ids.
// One numeric id per line. Lines starting with # are comments. Empty lines are skipped.
func LoadAllowlist(path string, extra ...int64) (*Allowlist, error) {
	a := NewAllowlist(extra...)
	if path == "" {
		return a, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open allowlist: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("allowlist line %d: invalid operator id %q", lineNum, line)
		}
		a.ids[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read allowlist: %w", err)
	}
	return a, nil
}

// Contains reports whether the operator id is on the allowlist.
func (a *Allowlist) Contains(id int64) bool {
	_, ok := a.ids[id]
	return ok
}

// IDs returns the allowlisted ids in no particular order.
func (a *Allowlist) IDs() []int64 {
	out := make([]int64, 0, len(a.ids))
	for id := range a.ids {
		out = append(out, id)
	}
	return out
}

// Len returns the number of allowlisted operators.
func (a *Allowlist) Len() int {
	return len(a.ids)
}
