package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/FileMaster/internal/config"
	"github.com/GriffinCanCode/FileMaster/internal/logging"
	"github.com/GriffinCanCode/FileMaster/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the file tools over HTTP, WebSocket and MCP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("host", "", "Listen host; overrides HOST and server_host")
	cmd.Flags().Int("port", 0, "Listen port; overrides PORT and server_port")
	cmd.Flags().String("log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().Bool("dev", false, "Development logging")
	cmd.Flags().Bool("stdio", false, "Serve MCP over stdin/stdout instead of HTTP")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, policy, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if dev, _ := cmd.Flags().GetBool("dev"); dev {
		cfg.Logging.Development = true
	}
	stdio, _ := cmd.Flags().GetBool("stdio")
	cfg.ApplyPolicy(policy)

	logCfg := logging.Config{Level: cfg.Logging.Level, Development: cfg.Logging.Development}
	if stdio {
		logCfg = logging.StdioConfig(cfg.Logging.Level, cfg.Logging.Development)
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(ctx, cfg, policy, logger)
	if err != nil {
		logger.Error("Failed to create server", zap.Error(err))
		_ = logger.Sync()
		return err
	}
	defer srv.Close()

	if stdio {
		return srv.RunStdio(ctx, os.Stdin, os.Stdout)
	}
	return srv.Run(ctx)
}

// loadConfig reads the environment and the policy file. --config wins over
// POLICY_FILE.
func loadConfig(cmd *cobra.Command) (*config.Config, *config.Policy, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg.PolicyFile = path
	}
	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", cfg.PolicyFile, err)
	}
	return cfg, policy, nil
}
