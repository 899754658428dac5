// Package config loads the gateway configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/hostwarden/internal/alert"
	"github.com/ppiankov/hostwarden/internal/cmdguard"
	"github.com/ppiankov/hostwarden/internal/session"
)

// Environment overrides.
const (
	EnvToken     = "HOSTWARDEN_TOKEN"
	EnvOperators = "HOSTWARDEN_OPERATORS"
)

// Config is the hostwarden configuration.
type Config struct {
	Token       string        `yaml:"token"`
	PollTimeout time.Duration `yaml:"poll_timeout"`

	// Operators are the allow-listed operator ids. AllowlistFile adds more.
	Operators     []int64 `yaml:"operators"`
	AllowlistFile string  `yaml:"allowlist_file"`

	DownloadsDir string `yaml:"downloads_dir"`
	Denylist     string `yaml:"denylist"`
	AuditLog     string `yaml:"audit_log"`

	Shell      ShellConfig      `yaml:"shell"`
	Capture    CaptureConfig    `yaml:"capture"`
	Screenshot ScreenshotConfig `yaml:"screenshot"`

	Alerts []alert.Config `yaml:"alerts"`
	Log    LogConfig      `yaml:"log"`
}

// ShellConfig bounds /cmd execution.
type ShellConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	MaxOutput int           `yaml:"max_output"`
}

// CaptureConfig selects the microphone capture command.
type CaptureConfig struct {
	Command    []string `yaml:"command"`
	SampleRate int      `yaml:"sample_rate"`
}

// ScreenshotConfig selects the screenshot command; it must write PNG to stdout.
type ScreenshotConfig struct {
	Command []string `yaml:"command"`
}

// LogConfig controls the root logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// Dir returns ~/.hostwarden.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hostwarden"
	}
	return filepath.Join(home, ".hostwarden")
}

// DefaultPath returns ~/.hostwarden/config.yaml.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	dir := Dir()
	return &Config{
		PollTimeout: 60 * time.Second,
		Denylist:    filepath.Join(dir, "denylist.yaml"),
		AuditLog:    filepath.Join(dir, "audit.jsonl"),
		Shell: ShellConfig{
			Timeout:   cmdguard.DefaultTimeout,
			MaxOutput: cmdguard.DefaultMaxOutput,
		},
		Capture: CaptureConfig{SampleRate: session.DefaultSampleRate},
		Log:     LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads path (DefaultPath when empty) over the defaults and applies
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// YAML overwrites only the fields it sets.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	for _, p := range []*string{&cfg.AllowlistFile, &cfg.DownloadsDir, &cfg.Denylist, &cfg.AuditLog} {
		*p = ExpandHome(*p)
	}
	return cfg, nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if tok := strings.TrimSpace(getenv(EnvToken)); tok != "" {
		c.Token = tok
	}
	ids, err := ParseIDs(getenv(EnvOperators))
	if err != nil {
		return fmt.Errorf("%s: %w", EnvOperators, err)
	}
	c.Operators = append(c.Operators, ids...)
	return nil
}

// ParseIDs parses a comma or whitespace separated list of operator ids.
func ParseIDs(s string) ([]int64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid operator id %q", f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Validate reports configuration that would prevent serving.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("bot token is not set (config token or %s)", EnvToken)
	}
	if len(c.Operators) == 0 && c.AllowlistFile == "" {
		return fmt.Errorf("no operators configured: every event would be dropped")
	}
	if c.Shell.Timeout <= 0 {
		return fmt.Errorf("shell.timeout must be positive")
	}
	if c.Shell.MaxOutput <= 0 {
		return fmt.Errorf("shell.max_output must be positive")
	}
	if c.Capture.SampleRate <= 0 {
		return fmt.Errorf("capture.sample_rate must be positive")
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	for i, a := range c.Alerts {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("alerts[%d]: %w", i, err)
		}
	}
	return nil
}

// Template is the commented config written by `hostwarden init`.
const Template = `# hostwarden configuration
# token: "123456:ABC..."        # or set HOSTWARDEN_TOKEN
operators: []                   # allow-listed operator ids, or set HOSTWARDEN_OPERATORS
# allowlist_file: ~/.hostwarden/operators.txt
# downloads_dir: ~/Downloads/hostwarden
poll_timeout: 60s

shell:
  timeout: 30s
  max_output: 4000

capture:
  # command: [arecord, -q, -t, raw, -f, S16_LE, -r, "{rate}", -c, "{channels}"]
  sample_rate: 44100

# screenshot:
#   command: [import, -window, root, "png:-"]

# alerts:
#   - url: https://hooks.slack.com/services/...
#     format: slack
#     events: [operator_blocked, policy_denied]
#     attempts: 3                 # 1 disables retries
#     backoff: 1s

log:
  level: info
  format: console
`
