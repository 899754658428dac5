package gate

import (
	"sync"

	"github.com/rs/zerolog"
)

// MaxAttempts is the number of unauthorized attempts that are still reported.
// An operator with more than MaxAttempts failed attempts is blocked until restart.
const MaxAttempts = 5

// Verdict is the gate's decision for one inbound event.
type Verdict int

const (
	// Drop discards the event without any visible response.
	Drop Verdict = iota
	// Admit lets the event through to the router.
	Admit
	// Alert acknowledges a callback with a visible "no access" notice and does nothing else.
	Alert
)

func (v Verdict) String() string {
	switch v {
	case Admit:
		return "admit"
	case Alert:
		return "alert"
	default:
		return "drop"
	}
}

// EventKind distinguishes plain messages from interactive callbacks.
type EventKind int

const (
	Message EventKind = iota
	Callback
)

// LockoutFunc is called once, when an operator crosses the MaxAttempts threshold.
type LockoutFunc func(operatorID int64, username string)

// Gate authorizes operators against a static allowlist and locks out
// unknown ids after repeated attempts. Counters live for the process lifetime
// and are never reset.
type Gate struct {
	allow     *Allowlist
	log       zerolog.Logger
	onLockout LockoutFunc

	mu       sync.Mutex
	attempts map[int64]uint32
}

// Option configures a Gate.
type Option func(*Gate)

// WithLockoutHook registers fn to run when an operator becomes blocked.
func WithLockoutHook(fn LockoutFunc) Option {
	return func(g *Gate) { g.onLockout = fn }
}

// New creates a gate over the given allowlist.
func New(allow *Allowlist, log zerolog.Logger, opts ...Option) *Gate {
	g := &Gate{
		allow:    allow,
		log:      log.With().Str("component", "gate").Logger(),
		attempts: make(map[int64]uint32),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check decides what to do with an event from operatorID.
// The username is advisory and only used in diagnostics.
func (g *Gate) Check(operatorID int64, username string, kind EventKind) Verdict {
	g.mu.Lock()
	count := g.attempts[operatorID]
	if count > MaxAttempts {
		g.mu.Unlock()
		return Drop
	}
	if g.allow.Contains(operatorID) {
		g.mu.Unlock()
		return Admit
	}
	count++
	g.attempts[operatorID] = count
	g.mu.Unlock()

	if count <= MaxAttempts {
		g.log.Warn().
			Int64("operator_id", operatorID).
			Str("username", username).
			Uint32("attempt", count).
			Msg("unauthorized access attempt")
	} else if g.onLockout != nil {
		g.onLockout(operatorID, username)
	}

	if kind == Callback {
		return Alert
	}
	return Drop
}

// Authorized reports allowlist membership without counting an attempt.
func (g *Gate) Authorized(operatorID int64) bool {
	return g.allow.Contains(operatorID)
}

// Blocked reports whether the operator exceeded MaxAttempts.
func (g *Gate) Blocked(operatorID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attempts[operatorID] > MaxAttempts
}

// Attempts returns the number of unauthorized attempts recorded for the operator.
func (g *Gate) Attempts(operatorID int64) uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attempts[operatorID]
}
