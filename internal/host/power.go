package host

import (
	"context"
	"runtime"
	"strconv"
	"time"
)

// PowerActionDelay is how far out interactive shutdown and restart are scheduled.
const PowerActionDelay = 5 * time.Second

// Power schedules power state changes with the OS. Pending shutdowns are
// owned by the OS scheduler; at most one is outstanding and a new one
// replaces it.
type Power interface {
	Shutdown(ctx context.Context, delay time.Duration) error
	Restart(ctx context.Context, delay time.Duration) error
	CancelShutdown(ctx context.Context) error
	Sleep(ctx context.Context) error
	Lock(ctx context.Context) error
}

// SystemPower issues the platform's power commands.
type SystemPower struct {
	Runner Runner
	GOOS   string
}

// NewSystemPower creates a provider for the running OS.
func NewSystemPower(r Runner) *SystemPower {
	return &SystemPower{Runner: r, GOOS: runtime.GOOS}
}

func (p *SystemPower) run(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return ErrUnavailable
	}
	_, err := p.Runner.Run(ctx, argv[0], argv[1:]...)
	return err
}

// Shutdown replaces any pending shutdown with one delay from now.
func (p *SystemPower) Shutdown(ctx context.Context, delay time.Duration) error {
	_ = p.CancelShutdown(ctx)
	return p.run(ctx, p.schedule("shutdown", delay))
}

// Restart replaces any pending shutdown with a restart delay from now.
func (p *SystemPower) Restart(ctx context.Context, delay time.Duration) error {
	_ = p.CancelShutdown(ctx)
	return p.run(ctx, p.schedule("restart", delay))
}

func (p *SystemPower) CancelShutdown(ctx context.Context) error {
	switch p.GOOS {
	case "windows":
		return p.run(ctx, []string{"shutdown", "/a"})
	case "darwin":
		return p.run(ctx, []string{"killall", "shutdown"})
	default:
		return p.run(ctx, []string{"shutdown", "-c"})
	}
}

func (p *SystemPower) Sleep(ctx context.Context) error {
	switch p.GOOS {
	case "windows":
		return p.run(ctx, []string{"rundll32.exe", "powrprof.dll,SetSuspendState", "0,1,0"})
	case "darwin":
		return p.run(ctx, []string{"pmset", "sleepnow"})
	default:
		return p.run(ctx, []string{"systemctl", "suspend"})
	}
}

func (p *SystemPower) Lock(ctx context.Context) error {
	switch p.GOOS {
	case "windows":
		return p.run(ctx, []string{"rundll32.exe", "user32.dll,LockWorkStation"})
	case "darwin":
		return p.run(ctx, []string{"pmset", "displaysleepnow"})
	default:
		return p.run(ctx, []string{"loginctl", "lock-session"})
	}
}

// schedule builds the shutdown command line. Unix shutdown only takes
// whole minutes, so delays are rounded up.
func (p *SystemPower) schedule(action string, delay time.Duration) []string {
	if delay < 0 {
		delay = 0
	}
	if p.GOOS == "windows" {
		flag := "/s"
		if action == "restart" {
			flag = "/r"
		}
		return []string{"shutdown", flag, "/t", strconv.Itoa(int(delay / time.Second))}
	}

	flag := "-h"
	if action == "restart" {
		flag = "-r"
	}
	when := "now"
	if delay > 0 {
		minutes := int((delay + time.Minute - 1) / time.Minute)
		when = "+" + strconv.Itoa(minutes)
	}
	return []string{"shutdown", flag, when}
}
