package cmdguard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/hostwarden/internal/denylist"
)

const (
	// DefaultTimeout bounds one shell execution.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxOutput is the reply cap in characters.
	DefaultMaxOutput = 4000
	// TruncationMarker is appended when output exceeds the cap.
	TruncationMarker = "\n... (output truncated)"
	// NoOutput is reported when a command printed nothing.
	NoOutput = "(no output)"
)

// ErrTimeout is returned when a command exceeds its time bound.
var ErrTimeout = errors.New("command timed out")

// Config holds command guard configuration.
type Config struct {
	Timeout   time.Duration
	MaxOutput int
	// Shell is the interpreter prefix, e.g. ["sh", "-c"].
	Shell []string
}

// Result captures subprocess execution outcome.
type Result struct {
	Output    string        `json:"output"`
	ExitCode  int           `json:"exit_code"`
	Truncated bool          `json:"truncated"`
	Redacted  int           `json:"redacted"`
	Duration  time.Duration `json:"duration"`
}

// BlockedError is returned when the denylist rejects a command.
type BlockedError struct {
	Command string
	Reason  string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("command blocked: %s", e.Reason)
}

// Guard classifies shell commands and runs the allowed ones with a
// timeout and an output cap. Anything the denylist does not match runs
// with the gateway's full privileges.
type Guard struct {
	cfg Config
	dl  *denylist.Denylist
}

// NewGuard creates a Guard over dl, filling config defaults.
func NewGuard(dl *denylist.Denylist, cfg Config) *Guard {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxOutput <= 0 {
		cfg.MaxOutput = DefaultMaxOutput
	}
	if len(cfg.Shell) == 0 {
		cfg.Shell = DefaultShell()
	}
	return &Guard{cfg: cfg, dl: dl}
}

// DefaultShell returns the platform command interpreter.
func DefaultShell() []string {
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/C"}
	}
	return []string{"sh", "-c"}
}

// Check classifies command without executing it.
func (g *Guard) Check(command string) denylist.Classification {
	return g.dl.ClassifyCommand(command)
}

// Run classifies command and executes it if allowed.
func (g *Guard) Run(ctx context.Context, command string) (*Result, error) {
	if c := g.dl.ClassifyCommand(command); !c.Allowed {
		return nil, &BlockedError{Command: command, Reason: c.Reason}
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	args := append(append([]string{}, g.cfg.Shell[1:]...), command)
	cmd := exec.CommandContext(ctx, g.cfg.Shell[0], args...)
	cmd.Env = sanitizeEnv(os.Environ())
	// Children that inherit the pipes must not keep Wait blocked.
	cmd.WaitDelay = time.Second

	// utf8.UTFMax bytes per character bounds what we keep in memory.
	stdout := newLimitedWriter(g.cfg.MaxOutput * utf8.UTFMax)
	stderr := newLimitedWriter(g.cfg.MaxOutput * utf8.UTFMax)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %s", ErrTimeout, g.cfg.Timeout)
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, err
		}
		exitCode = exitErr.ExitCode()
	}

	out, truncated := stdout, stdout.truncated
	if strings.TrimSpace(stdout.String()) == "" {
		out, truncated = stderr, stderr.truncated
	}
	text := strings.TrimRight(out.String(), "\r\n")
	if strings.TrimSpace(text) == "" {
		text = NoOutput
	}

	text, redacted := ScanOutputFull(text)
	text, capped := capOutput(text, g.cfg.MaxOutput)
	// the writer may have cut exactly at the character limit
	if truncated && !capped {
		text += TruncationMarker
	}

	return &Result{
		Output:    text,
		ExitCode:  exitCode,
		Truncated: truncated || capped,
		Redacted:  redacted,
		Duration:  elapsed,
	}, nil
}

// capOutput keeps at most limit characters and appends TruncationMarker
// when anything was cut.
func capOutput(s string, limit int) (string, bool) {
	if utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i] + TruncationMarker, true
		}
		n++
	}
	return s, false
}

// limitedWriter keeps the first limit bytes and silently discards the rest,
// reporting full consumption so the child never sees a short write.
type limitedWriter struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func newLimitedWriter(limit int) *limitedWriter {
	return &limitedWriter{limit: limit}
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	room := w.limit - w.buf.Len()
	if room <= 0 {
		if len(p) > 0 {
			w.truncated = true
		}
		return len(p), nil
	}
	if len(p) > room {
		w.buf.Write(p[:room])
		w.truncated = true
		return len(p), nil
	}
	w.buf.Write(p)
	return len(p), nil
}

func (w *limitedWriter) String() string {
	return w.buf.String()
}
