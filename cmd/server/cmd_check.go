package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/FileMaster/internal/domain/access"
	"github.com/GriffinCanCode/FileMaster/internal/domain/audit"
)

// errDenied makes check-path exit non-zero when any path is refused.
var errDenied = errors.New("one or more paths are outside the allowed directories")

func newCheckConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the policy file and print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, policy, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			settings, err := policy.Settings()
			if err != nil {
				return err
			}
			cfg.ApplyPolicy(policy)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Policy file:\t%s\n", cfg.PolicyFile)
			for _, dir := range settings.AllowedDirectories() {
				fmt.Fprintf(w, "Allowed directory:\t%s\n", dir)
			}
			fmt.Fprintf(w, "Max file size:\t%d bytes\n", settings.MaxFileSize())
			fmt.Fprintf(w, "Extensions:\t%v\n", settings.Extensions())
			fmt.Fprintf(w, "Delete enabled:\t%t\n", settings.DeleteEnabled())
			fmt.Fprintf(w, "Include hidden:\t%t\n", settings.IncludeHidden())
			fmt.Fprintf(w, "Listen:\t%s\n", cfg.Server.Addr())
			return w.Flush()
		},
	}
}

func newCheckPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-path <path>...",
		Short: "Report whether each path resolves inside an allowed directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, policy, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			settings, err := policy.Settings()
			if err != nil {
				return err
			}

			validator := access.NewValidator(settings, audit.Nop)
			call := access.Call{Operation: "check_path", Actor: "cli"}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

			var denied bool
			for _, path := range args {
				r, err := validator.Validate(cmd.Context(), call, path)
				if err != nil {
					denied = true
					fmt.Fprintf(w, "denied\t%s\t%s\n", path, access.KindOf(err))
					continue
				}
				fmt.Fprintf(w, "allowed\t%s\t%s\n", path, r.Canonical)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if denied {
				return errDenied
			}
			return nil
		},
	}
}
