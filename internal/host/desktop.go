package host

import (
	"context"
	"fmt"
	"net/url"
	"runtime"

	"github.com/atotto/clipboard"
)

// Screen captures the display as an image.
type Screen interface {
	Capture(ctx context.Context) ([]byte, error)
}

// CommandScreen runs a command that writes a PNG to stdout.
type CommandScreen struct {
	Runner Runner
	Argv   []string
}

// DefaultScreenshotCommand writes the root window as PNG to stdout.
var DefaultScreenshotCommand = []string{"import", "-window", "root", "png:-"}

func (s CommandScreen) Capture(ctx context.Context) ([]byte, error) {
	argv := s.Argv
	if len(argv) == 0 {
		argv = DefaultScreenshotCommand
	}
	out, err := s.Runner.Run(ctx, argv[0], argv[1:]...)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty screenshot: %w", ErrUnavailable)
	}
	return out, nil
}

// Clipboard reads and writes host clipboard text.
type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

// SystemClipboard uses the platform clipboard.
type SystemClipboard struct{}

func (SystemClipboard) Read() (string, error) {
	if clipboard.Unsupported {
		return "", ErrUnavailable
	}
	return clipboard.ReadAll()
}

func (SystemClipboard) Write(text string) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	return clipboard.WriteAll(text)
}

// Launcher opens URLs and files with the desktop default handler.
type Launcher interface {
	Open(ctx context.Context, target string) error
}

// Starter launches a detached command.
type Starter interface {
	Start(name string, args ...string) error
}

// DesktopLauncher uses xdg-open, open or start.
type DesktopLauncher struct {
	Starter Starter
	GOOS    string
}

// NewDesktopLauncher creates a launcher for the running OS.
func NewDesktopLauncher(s Starter) *DesktopLauncher {
	return &DesktopLauncher{Starter: s, GOOS: runtime.GOOS}
}

func (l *DesktopLauncher) Open(_ context.Context, target string) error {
	switch l.GOOS {
	case "windows":
		return l.Starter.Start("cmd", "/c", "start", "", target)
	case "darwin":
		return l.Starter.Start("open", target)
	default:
		return l.Starter.Start("xdg-open", target)
	}
}

// SearchURL builds a search URL for query on the named engine.
func SearchURL(engine, query string) string {
	q := url.QueryEscape(query)
	switch engine {
	case "youtube":
		return "https://www.youtube.com/results?search_query=" + q
	default:
		return "https://www.google.com/search?q=" + q
	}
}
