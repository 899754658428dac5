package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/hostwarden/internal/config"
	"github.com/ppiankov/hostwarden/internal/denylist"
	"github.com/ppiankov/hostwarden/internal/systemd"
)

// unitHashFile sits next to config.yaml and records the installed unit's hash.
const unitHashFile = "unit-file.sha256"

var (
	initMode           string
	initInstallSystemd bool
	initForce          bool
)

func init() {
	initCmd.Flags().StringVar(&initMode, "mode", "user", "Config location: user (~/.hostwarden) or system (/etc/hostwarden)")
	initCmd.Flags().BoolVar(&initInstallSystemd, "install-systemd", false, "Install the hostwarden.service unit")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing files")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap hostwarden configuration and optional systemd integration",
	Long: `Creates the config directory with a commented config.yaml and the
default denylist.yaml.

User mode (default):  writes to ~/.hostwarden/
System mode:          writes to /etc/hostwarden/ (requires root)

With --install-systemd: installs hostwarden.service. In user mode it is a
systemctl --user unit bound to the graphical session; in system mode a
system unit running as the invoking user.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := initConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	var created []string

	cfgPath := filepath.Join(configDir, "config.yaml")
	if wrote, err := writeIfMissing(cfgPath, config.Template, 0o600); err != nil {
		return err
	} else if wrote {
		created = append(created, cfgPath)
	}

	denylistPath := filepath.Join(configDir, "denylist.yaml")
	denylistContent, err := defaultDenylistYAML()
	if err != nil {
		return fmt.Errorf("generate default denylist: %w", err)
	}
	if wrote, err := writeIfMissing(denylistPath, denylistContent, 0o644); err != nil {
		return err
	} else if wrote {
		created = append(created, denylistPath)
	}

	if initInstallSystemd {
		unitPath, err := installUnit(configDir, cfgPath)
		if err != nil {
			return err
		}
		created = append(created, unitPath)
	}

	fmt.Println("hostwarden init complete.")
	fmt.Println()
	if len(created) > 0 {
		fmt.Println("Created:")
		for _, path := range created {
			fmt.Printf("  %s\n", path)
		}
	} else {
		fmt.Println("All files already exist (use --force to overwrite).")
	}
	fmt.Println()

	fmt.Println("Next:")
	fmt.Printf("  set token and operators in %s (or %s / %s)\n", cfgPath, config.EnvToken, config.EnvOperators)
	switch {
	case initInstallSystemd && initMode == "system":
		fmt.Println("  sudo systemctl enable --now hostwarden")
	case initInstallSystemd:
		fmt.Println("  systemctl --user enable --now hostwarden")
	default:
		fmt.Printf("  hostwarden serve --config %s\n", cfgPath)
	}
	return nil
}

// initConfigDir returns the configuration directory based on mode.
func initConfigDir() (string, error) {
	switch initMode {
	case "system":
		return "/etc/hostwarden", nil
	case "user", "":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(home, ".hostwarden"), nil
	default:
		return "", fmt.Errorf("unknown mode %q: use 'user' or 'system'", initMode)
	}
}

// installUnit writes the unit for the current mode, reloads systemd and
// records the unit hash for the startup integrity check.
func installUnit(configDir, cfgPath string) (string, error) {
	if runtime.GOOS != "linux" {
		return "", fmt.Errorf("--install-systemd is only supported on Linux")
	}
	binary, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate hostwarden binary: %w", err)
	}

	var unitPath, content string
	var reload []string
	if initMode == "system" {
		if os.Geteuid() != 0 {
			return "", fmt.Errorf("--install-systemd in system mode requires root; run with sudo")
		}
		user := os.Getenv("SUDO_USER")
		if user == "" {
			user = "root"
		}
		unitPath, content = systemd.SystemUnitPath, systemd.SystemTemplate(binary, cfgPath, user)
		reload = []string{"systemctl", "daemon-reload"}
	} else {
		unitPath = systemd.UserUnitPath()
		if unitPath == "" {
			return "", fmt.Errorf("cannot determine user config directory")
		}
		content = systemd.UserTemplate(binary, cfgPath)
		reload = []string{"systemctl", "--user", "daemon-reload"}
	}

	if _, err := writeIfMissing(unitPath, content, 0o644); err != nil {
		return "", err
	}
	if err := systemd.RecordUnitFileHash(unitPath, filepath.Join(configDir, unitHashFile)); err != nil {
		return "", err
	}
	if err := exec.Command(reload[0], reload[1:]...).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v failed: %v\n", reload, err)
	}
	return unitPath, nil
}

// writeIfMissing writes content to path if it doesn't exist or --force is set.
// Returns true if the file was written.
func writeIfMissing(path, content string, perm os.FileMode) (bool, error) {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

// defaultDenylistYAML generates a commented default denylist.yaml.
func defaultDenylistYAML() (string, error) {
	data, err := yaml.Marshal(denylist.DefaultPatterns)
	if err != nil {
		return "", err
	}
	header := "# hostwarden denylist: shell commands and upload types that are refused.\n" +
		"# Commands: case-insensitive substring match on the whole command line.\n" +
		"# Extensions: matched against the lowercased filename suffix.\n" +
		"#\n" +
		"# Changes are picked up without a restart.\n\n"
	return header + string(data), nil
}
