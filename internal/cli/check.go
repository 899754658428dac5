package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/hostwarden/internal/config"
	"github.com/ppiankov/hostwarden/internal/denylist"
)

var (
	checkCommand  string
	checkFile     string
	checkDenylist string
)

// errDenied makes `check` exit non-zero without printing usage.
var errDenied = errors.New("denied")

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkCommand, "command", "", "Shell command to classify")
	checkCmd.Flags().StringVar(&checkFile, "file", "", "Upload filename to classify")
	checkCmd.Flags().StringVar(&checkDenylist, "denylist", "", "Path to denylist YAML (default from config)")
	checkCmd.MarkFlagsOneRequired("command", "file")
	checkCmd.MarkFlagsMutuallyExclusive("command", "file")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Classify a shell command or upload filename offline",
	Long: "Runs the safety filter the gateway applies to /cmd and uploads,\n" +
		"without touching the host. Exit code 0 if allowed, 1 if denied.",
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := checkDenylist
	if path == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		path = cfg.Denylist
	}
	dl, err := denylist.Load(path)
	if err != nil {
		return fmt.Errorf("load denylist: %w", err)
	}

	var c denylist.Classification
	if checkCommand != "" {
		c = dl.ClassifyCommand(checkCommand)
	} else {
		c = dl.ClassifyUpload(checkFile)
	}

	out := cmd.OutOrStdout()
	if c.Allowed {
		fmt.Fprintln(out, "allow")
		return nil
	}
	fmt.Fprintf(out, "deny: %s\n", c.Reason)
	cmd.SilenceErrors = true
	return errDenied
}
