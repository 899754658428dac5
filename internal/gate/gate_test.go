package gate

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestGate(t *testing.T, ids ...int64) (*Gate, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return New(NewAllowlist(ids...), zerolog.New(&buf)), &buf
}

func diagnostics(buf *bytes.Buffer) int {
	return strings.Count(buf.String(), "unauthorized access attempt")
}

func TestAllowlistedOperatorAdmitted(t *testing.T) {
	g, buf := newTestGate(t, 42)

	for _, kind := range []EventKind{Message, Callback} {
		if v := g.Check(42, "owner", kind); v != Admit {
			t.Errorf("Check(42, %v) = %s, want admit", kind, v)
		}
	}
	if g.Attempts(42) != 0 {
		t.Errorf("authorized operator should not accumulate attempts, got %d", g.Attempts(42))
	}
	if diagnostics(buf) != 0 {
		t.Error("no diagnostics expected for authorized operator")
	}
}

func TestUnknownMessageDropped(t *testing.T) {
	g, buf := newTestGate(t, 42)

	if v := g.Check(7, "stranger", Message); v != Drop {
		t.Errorf("Check = %s, want drop", v)
	}
	if diagnostics(buf) != 1 {
		t.Errorf("expected 1 diagnostic, got %d", diagnostics(buf))
	}
	if !strings.Contains(buf.String(), `"operator_id":7`) {
		t.Errorf("diagnostic should carry the operator id: %s", buf.String())
	}
}

func TestUnknownCallbackAlerted(t *testing.T) {
	g, _ := newTestGate(t, 42)

	if v := g.Check(7, "stranger", Callback); v != Alert {
		t.Errorf("Check = %s, want alert", v)
	}
}

func TestLockoutAfterMaxAttempts(t *testing.T) {
	g, buf := newTestGate(t, 42)

	for i := 1; i <= MaxAttempts+1; i++ {
		if v := g.Check(7, "stranger", Callback); v != Alert {
			t.Fatalf("attempt %d: Check = %s, want alert", i, v)
		}
	}
	if !g.Blocked(7) {
		t.Fatal("expected operator to be blocked after MaxAttempts+1 attempts")
	}

	// Everything after the threshold is silently dropped, including callbacks.
	for i := 0; i < 10; i++ {
		if v := g.Check(7, "stranger", Callback); v != Drop {
			t.Fatalf("post-lockout Check = %s, want drop", v)
		}
		if v := g.Check(7, "stranger", Message); v != Drop {
			t.Fatalf("post-lockout Check = %s, want drop", v)
		}
	}

	if got := diagnostics(buf); got != MaxAttempts {
		t.Errorf("expected exactly %d diagnostics, got %d", MaxAttempts, got)
	}
	if got := g.Attempts(7); got != MaxAttempts+1 {
		t.Errorf("counter should stop at the threshold crossing, got %d", got)
	}
}

// Lockout is permanent for the process lifetime; there is no decay or reset path.
func TestLockoutNeverResets(t *testing.T) {
	g, _ := newTestGate(t)

	for i := 0; i <= MaxAttempts; i++ {
		g.Check(9, "", Message)
	}
	for i := 0; i < 1000; i++ {
		g.Check(9, "", Message)
	}
	if !g.Blocked(9) {
		t.Error("blocked operator must stay blocked")
	}
}

func TestLockoutHookFiresOnce(t *testing.T) {
	var fired []int64
	g := New(NewAllowlist(), zerolog.Nop(), WithLockoutHook(func(id int64, _ string) {
		fired = append(fired, id)
	}))

	for i := 0; i < MaxAttempts+5; i++ {
		g.Check(11, "x", Message)
	}
	if len(fired) != 1 || fired[0] != 11 {
		t.Errorf("expected one lockout hook call for 11, got %v", fired)
	}
}

func TestCountersArePerOperator(t *testing.T) {
	g, _ := newTestGate(t)

	for i := 0; i <= MaxAttempts; i++ {
		g.Check(1, "", Message)
	}
	if g.Blocked(2) {
		t.Error("blocking one id must not affect another")
	}
	if v := g.Check(2, "", Callback); v != Alert {
		t.Errorf("Check(2) = %s, want alert", v)
	}
}
