package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "filemaster",
		Short:         "Whitelisted file operations for tool-calling agents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Policy file (.json, .yaml, .toml); overrides POLICY_FILE")

	root.AddCommand(newServeCmd(), newCheckConfigCmd(), newCheckPathCmd())
	return root
}
