package denylist

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/hostwarden/internal/files"
)

// Patterns holds the raw pattern strings organized by category.
type Patterns struct {
	Commands   []string `yaml:"commands"`
	Extensions []string `yaml:"extensions"`
}

// Classification is the verdict for a shell command or an uploaded filename.
// The zero value is a denial with no reason; use Allow() for a permit.
type Classification struct {
	Allowed bool
	Reason  string
}

// Allow returns a permitting Classification.
func Allow() Classification {
	return Classification{Allowed: true}
}

// Deny returns a refusing Classification with the given reason.
func Deny(reason string) Classification {
	return Classification{Reason: reason}
}

// Denylist holds normalized patterns for fast matching.
// Classification is a pure function of the input and the current pattern set;
// the set only changes through Replace or AddPattern.
type Denylist struct {
	mu         sync.RWMutex
	commands   []string            // lowercased, substring match
	extensions map[string]struct{} // lowercased, leading dot
	raw        Patterns
}

// New creates a Denylist from raw patterns.
func New(p Patterns) *Denylist {
	d := &Denylist{}
	d.Replace(p)
	return d
}

// NewDefault creates a Denylist with the hardcoded default patterns.
func NewDefault() *Denylist {
	return New(DefaultPatterns)
}

// DefaultPath returns ~/.hostwarden/denylist.yaml, or "" if home is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".hostwarden", "denylist.yaml")
}

// Load reads patterns from a YAML file. Falls back to defaults if file doesn't exist.
func Load(path string) (*Denylist, error) {
	p, err := LoadPatterns(path)
	if err != nil {
		return nil, err
	}
	return New(p), nil
}

// LoadPatterns reads raw patterns from a YAML file.
// Empty path falls back to DefaultPath. A missing file yields DefaultPatterns.
func LoadPatterns(path string) (Patterns, error) {
	if path == "" {
		path = DefaultPath()
		if path == "" {
			return DefaultPatterns, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPatterns, nil
		}
		return Patterns{}, err
	}

	var p Patterns
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Patterns{}, err
	}
	return p, nil
}

// Replace swaps the whole pattern set.
func (d *Denylist) Replace(p Patterns) {
	commands := make([]string, 0, len(p.Commands))
	for _, c := range p.Commands {
		if c = strings.ToLower(c); c != "" {
			commands = append(commands, c)
		}
	}
	extensions := make(map[string]struct{}, len(p.Extensions))
	for _, e := range p.Extensions {
		if e = normalizeExtension(e); e != "" {
			extensions[e] = struct{}{}
		}
	}

	d.mu.Lock()
	d.commands = commands
	d.extensions = extensions
	d.raw = Patterns{
		Commands:   append([]string(nil), p.Commands...),
		Extensions: append([]string(nil), p.Extensions...),
	}
	d.mu.Unlock()
}

// ClassifyCommand decides whether a shell command may run.
// Denies when the command contains any blocked pattern (case-insensitive,
// any position) or pipes a downloader into a shell.
func (d *Denylist) ClassifyCommand(command string) Classification {
	lower := strings.ToLower(command)

	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, pattern := range d.commands {
		if strings.Contains(lower, pattern) {
			return Deny("command pattern blocked: " + pattern)
		}
	}
	if isPipeToShell(lower) {
		return Deny("pipe-to-shell execution detected")
	}
	return Allow()
}

// ClassifyUpload decides whether an uploaded file may be stored.
// Only the filename suffix is inspected. A name without a suffix is allowed.
func (d *Denylist) ClassifyUpload(filename string) Classification {
	if filename == "" {
		return Allow()
	}
	ext := strings.ToLower(filepath.Ext(files.CleanName(filename)))
	if ext == "" || ext == "." {
		return Allow()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, blocked := d.extensions[ext]; blocked {
		return Deny("file extension blocked: " + ext)
	}
	return Allow()
}

// AddPattern adds a pattern to the denylist at runtime.
func (d *Denylist) AddPattern(category, pattern string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch category {
	case "commands":
		d.raw.Commands = append(d.raw.Commands, pattern)
		if p := strings.ToLower(pattern); p != "" {
			d.commands = append(d.commands, p)
		}
	case "extensions":
		d.raw.Extensions = append(d.raw.Extensions, pattern)
		if e := normalizeExtension(pattern); e != "" {
			d.extensions[e] = struct{}{}
		}
	}
}

// Raw returns a copy of the patterns the denylist was built from.
func (d *Denylist) Raw() Patterns {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Patterns{
		Commands:   append([]string(nil), d.raw.Commands...),
		Extensions: append([]string(nil), d.raw.Extensions...),
	}
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// isPipeToShell detects piped-to-shell patterns like "curl ... | sh" or "wget ... | bash".
func isPipeToShell(cmd string) bool {
	if !strings.Contains(cmd, "|") {
		return false
	}
	shells := []string{"sh", "bash", "zsh", "fish", "powershell", "pwsh", "iex"}
	downloaders := []string{"curl", "wget", "invoke-webrequest", "iwr"}

	hasDownloader := false
	for _, d := range downloaders {
		if strings.Contains(cmd, d) {
			hasDownloader = true
			break
		}
	}
	if !hasDownloader {
		return false
	}

	// Check if anything after pipe is a shell
	parts := strings.Split(cmd, "|")
	for i := 1; i < len(parts); i++ {
		trimmed := strings.TrimSpace(parts[i])
		for _, s := range shells {
			if trimmed == s || strings.HasPrefix(trimmed, s+" ") {
				return true
			}
		}
	}
	return false
}
