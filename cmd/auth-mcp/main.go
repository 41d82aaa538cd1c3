package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/auth-mcp/internal/app"
	"github.com/bobmcallan/auth-mcp/internal/common"
	"github.com/bobmcallan/auth-mcp/internal/config"
)

type rootOptions struct {
	configFile     string
	debug          bool
	baseURL        string
	descriptionURL string
	sessionDir     string
}

func newRootCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "auth-mcp",
		Short: "MCP stdio server for a remote authentication API",
		Long: `auth-mcp exposes the operations of a remote authentication service as MCP
tools over stdin/stdout.

Tools are built from the service's API description (SWAGGER_URL). When the
description cannot be loaded a built-in set of authentication tools is served
instead. The access token returned by a sign-in call is kept for later calls
and persisted across restarts.

Diagnostics are written to stderr, and only with --debug or DEBUG=true.`,
		Version:       config.GetFullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, stdin, stdout)
		},
	}
	cmd.Flags().StringVar(&opts.configFile, "config", "auth-mcp.toml", "Path to config file")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Write diagnostics to stderr")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Base URL of the authentication API (overrides AUTH_API_BASE_URL)")
	cmd.Flags().StringVar(&opts.descriptionURL, "description-url", "", "URL or path of the API description (overrides SWAGGER_URL)")
	cmd.Flags().StringVar(&opts.sessionDir, "session-dir", "", "Directory for the persisted session (file backend)")
	return cmd
}

func run(ctx context.Context, opts *rootOptions, stdin io.Reader, stdout io.Writer) error {
	cfg, err := config.LoadFromFile(opts.configFile)
	if err != nil {
		return err
	}
	config.ApplyFlagOverrides(cfg, opts.debug, opts.baseURL, opts.descriptionURL, opts.sessionDir)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)
	info := config.GetBuildInfo()
	logger.Info().
		Str("version", info.Version).
		Str("build", info.Build).
		Str("commit", info.GitCommit).
		Msg("auth-mcp starting")

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Server.Serve(ctx, stdin, stdout)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdin, os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "auth-mcp: %v\n", err)
		stop()
		os.Exit(1)
	}
}
