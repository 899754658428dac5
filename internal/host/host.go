// Package host holds the capability providers that touch the machine:
// audio, power, media keys, display, processes, system metrics, screen,
// clipboard, launcher and microphone capture.
//
// Providers are interfaces so the router can be exercised with fakes.
// Host bundles them into one explicitly constructed resource context.
package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/ppiankov/hostwarden/internal/intent"
)

// ErrUnavailable is returned when a capability has no backend on this host.
var ErrUnavailable = errors.New("capability unavailable")

// DefaultCommandTimeout bounds every helper command.
const DefaultCommandTimeout = 10 * time.Second

// Host is the explicit host-resource context passed to the router.
type Host struct {
	Mixer     *Mixer
	Power     Power
	Media     Media
	Display   Display
	Processes Processes
	System    System
	Screen    Screen
	Clipboard Clipboard
	Launcher  Launcher
}

// Runner executes helper commands.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Timeout time.Duration
}

// Run executes name with args and returns stdout.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%s: %w", name, ErrUnavailable)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
	}
	return stdout.Bytes(), nil
}

// Start launches a command without waiting for it.
func (r ExecRunner) Start(name string, args ...string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%s: %w", name, ErrUnavailable)
	}
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	go cmd.Wait() //nolint:errcheck
	return nil
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Unavailable stands in for a provider that has no backend on this host.
// Every call returns ErrUnavailable.
type Unavailable struct{}

func (Unavailable) Shutdown(context.Context, time.Duration) error { return ErrUnavailable }
func (Unavailable) Restart(context.Context, time.Duration) error  { return ErrUnavailable }
func (Unavailable) CancelShutdown(context.Context) error          { return ErrUnavailable }
func (Unavailable) Sleep(context.Context) error                   { return ErrUnavailable }
func (Unavailable) Lock(context.Context) error                    { return ErrUnavailable }

func (Unavailable) Press(context.Context, intent.MediaAction) error { return ErrUnavailable }
func (Unavailable) NowPlaying(context.Context) (string, error)      { return "", ErrUnavailable }

func (Unavailable) Brightness(context.Context) (int, error)   { return 0, ErrUnavailable }
func (Unavailable) SetBrightness(context.Context, int) error { return ErrUnavailable }

func (Unavailable) Top(context.Context, int) ([]Process, error)         { return nil, ErrUnavailable }
func (Unavailable) KillByName(context.Context, string) (int, error)     { return 0, ErrUnavailable }
func (Unavailable) KillByPID(context.Context, int) (string, error)      { return "", ErrUnavailable }
func (Unavailable) Overview(context.Context) (Overview, error)          { return Overview{}, ErrUnavailable }
func (Unavailable) Disks(context.Context) ([]Disk, error)               { return nil, ErrUnavailable }
func (Unavailable) Temperatures(context.Context) ([]Sensor, error)      { return nil, ErrUnavailable }
func (Unavailable) Uptime(context.Context) (time.Duration, error)       { return 0, ErrUnavailable }
func (Unavailable) Capture(context.Context) ([]byte, error)             { return nil, ErrUnavailable }
func (Unavailable) Read() (string, error)                               { return "", ErrUnavailable }
func (Unavailable) Write(string) error                                  { return ErrUnavailable }
func (Unavailable) Open(context.Context, string) error                  { return ErrUnavailable }

// Complete returns a copy of h with nil providers replaced by Unavailable
// and a nil mixer replaced by one without a backend.
func (h Host) Complete() *Host {
	u := Unavailable{}
	if h.Mixer == nil {
		h.Mixer = NewMixer(nil)
	}
	if h.Power == nil {
		h.Power = u
	}
	if h.Media == nil {
		h.Media = u
	}
	if h.Display == nil {
		h.Display = u
	}
	if h.Processes == nil {
		h.Processes = u
	}
	if h.System == nil {
		h.System = u
	}
	if h.Screen == nil {
		h.Screen = u
	}
	if h.Clipboard == nil {
		h.Clipboard = u
	}
	if h.Launcher == nil {
		h.Launcher = u
	}
	return &h
}
