package host

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/hostwarden/internal/intent"
)

// Media sends transport keys to the active player.
type Media interface {
	Press(ctx context.Context, action intent.MediaAction) error
	NowPlaying(ctx context.Context) (string, error)
}

// Playerctl controls MPRIS players.
type Playerctl struct {
	Runner Runner
}

func (p Playerctl) Press(ctx context.Context, action intent.MediaAction) error {
	var verb string
	switch action {
	case intent.MediaPlayPause:
		verb = "play-pause"
	case intent.MediaNext:
		verb = "next"
	case intent.MediaPrev:
		verb = "previous"
	default:
		return fmt.Errorf("media action %d: %w", action, ErrUnavailable)
	}
	_, err := p.Runner.Run(ctx, "playerctl", verb)
	return err
}

func (p Playerctl) NowPlaying(ctx context.Context) (string, error) {
	out, err := p.Runner.Run(ctx, "playerctl", "metadata", "--format", "{{status}}: {{artist}} - {{title}}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Display reads and sets screen brightness in percent.
type Display interface {
	Brightness(ctx context.Context) (int, error)
	SetBrightness(ctx context.Context, level int) error
}

// Brightnessctl drives the first backlight device.
type Brightnessctl struct {
	Runner Runner
}

func (b Brightnessctl) Brightness(ctx context.Context) (int, error) {
	out, err := b.Runner.Run(ctx, "brightnessctl", "-m")
	if err != nil {
		return 0, err
	}
	return parseBrightness(string(out))
}

// parseBrightness reads machine output: "device,class,current,percent%,max".
func parseBrightness(out string) (int, error) {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	fields := strings.Split(line, ",")
	if len(fields) < 4 {
		return 0, fmt.Errorf("unexpected brightnessctl output %q", line)
	}
	n, err := strconv.Atoi(strings.TrimSuffix(fields[3], "%"))
	if err != nil {
		return 0, fmt.Errorf("parse brightness %q: %w", fields[3], err)
	}
	return n, nil
}

func (b Brightnessctl) SetBrightness(ctx context.Context, level int) error {
	_, err := b.Runner.Run(ctx, "brightnessctl", "-q", "set", strconv.Itoa(Clamp(level, 0, 100))+"%")
	return err
}
