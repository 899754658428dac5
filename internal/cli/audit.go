package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/hostwarden/internal/audit"
)

var (
	tailLines    int
	verifyFormat string
	replayOp     int64
	replayFrom   string
	replayTo     string
	replayFormat string
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditTailCmd)
	auditCmd.AddCommand(auditReplayCmd)
	auditVerifyCmd.Flags().StringVarP(&verifyFormat, "format", "f", "text", "Output format (text|json)")
	auditTailCmd.Flags().IntVarP(&tailLines, "lines", "n", 10, "Number of recent entries to show")
	auditReplayCmd.Flags().Int64Var(&replayOp, "operator", 0, "Only show entries for this operator id")
	auditReplayCmd.Flags().StringVar(&replayFrom, "from", "", "Start time filter (RFC3339)")
	auditReplayCmd.Flags().StringVar(&replayTo, "to", "", "End time filter (RFC3339)")
	auditReplayCmd.Flags().StringVarP(&replayFormat, "format", "f", "text", "Output format (text|json)")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit log operations",
	Long:  "Commands for verifying and inspecting the hash-chained decision log.",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify <path>",
	Short: "Verify hash chain integrity of an audit log",
	Long:  "Walks the JSONL audit log and validates that every entry's prev_hash\nmatches the SHA-256 of the previous entry. Reports decision and lockout\ncounts, or the operator and decision at the first broken link.\nExits 0 if valid, 1 if tampered.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditVerify,
}

var auditTailCmd = &cobra.Command{
	Use:   "tail <path>",
	Short: "Show recent audit log entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditTail,
}

var auditReplayCmd = &cobra.Command{
	Use:   "replay <path>",
	Short: "Render the decision timeline of an audit log",
	Long:  "Reads the audit log, filters by operator and optional time range,\nand renders a decision timeline with a summary.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditReplay,
}

// errChainBroken makes `audit verify` exit non-zero after its report.
var errChainBroken = errors.New("audit chain broken")

func runAuditVerify(cmd *cobra.Command, args []string) error {
	result := audit.Verify(args[0])
	if verifyFormat == "json" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else {
		printVerify(cmd.OutOrStdout(), cmd.ErrOrStderr(), result)
	}
	if result.Valid {
		return nil
	}
	cmd.SilenceErrors = true
	return errChainBroken
}

func printVerify(out, errOut io.Writer, r audit.VerifyResult) {
	counts := fmt.Sprintf("%d allow, %d deny, %d lockout", r.Allows, r.Denies, r.Lockouts)
	if r.Valid {
		fmt.Fprintf(out, "OK: %d entries verified (%s)\n", r.Entries, counts)
		if len(r.Locked) > 0 {
			fmt.Fprintf(out, "locked out: %s\n", joinIDs(r.Locked))
		}
		return
	}
	if r.Break == nil {
		fmt.Fprintf(errOut, "FAILED: %s\n", r.Error)
		return
	}
	b := r.Break
	fmt.Fprintf(errOut, "FAILED at line %d: %s\n", b.Line, b.Problem)
	if b.EventID != "" {
		fmt.Fprintf(errOut, "  entry:    %s %s operator %d %s %s\n", b.EventID, b.Timestamp, b.OperatorID, b.Kind, b.Decision)
	}
	fmt.Fprintf(errOut, "  verified: %d entries before the break (%s)\n", r.Entries, counts)
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

func runAuditTail(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read audit log: %w", err)
	}

	start := max(len(lines)-tailLines, 0)
	out := cmd.OutOrStdout()
	for _, line := range lines[start:] {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			fmt.Fprintln(out, line)
			continue
		}
		pretty, _ := json.MarshalIndent(entry, "", "  ")
		fmt.Fprintln(out, string(pretty))
	}
	return nil
}

func runAuditReplay(cmd *cobra.Command, args []string) error {
	filter := audit.ReplayFilter{OperatorID: replayOp}

	if replayFrom != "" {
		from, err := time.Parse(time.RFC3339, replayFrom)
		if err != nil {
			return fmt.Errorf("invalid --from time %q: %w", replayFrom, err)
		}
		filter.From = from
	}
	if replayTo != "" {
		to, err := time.Parse(time.RFC3339, replayTo)
		if err != nil {
			return fmt.Errorf("invalid --to time %q: %w", replayTo, err)
		}
		filter.To = to
	}

	result, err := audit.Replay(args[0], filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch replayFormat {
	case "json":
		s, err := audit.FormatJSON(result)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, s)
	default:
		fmt.Fprint(out, audit.FormatTimeline(result))
	}
	return nil
}
