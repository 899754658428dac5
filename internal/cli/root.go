// Package cli holds the hostwarden cobra commands.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "hostwarden",
	Short: "Remote-operator gateway for a desktop host",
	Long: "Lets allow-listed chat operators drive volume, media, power, brightness,\n" +
		"screenshots, clipboard, uploads and guarded shell commands on this machine.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default ~/.hostwarden/config.yaml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
