package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/KaiErikNiermann/taskwarrior-mcp/internal/core/config"
	"github.com/KaiErikNiermann/taskwarrior-mcp/internal/mcp"
	"github.com/KaiErikNiermann/taskwarrior-mcp/internal/taskwarrior"
	"github.com/KaiErikNiermann/taskwarrior-mcp/pkg/logutils"
)

var version = "dev"

type flags struct {
	ConfigPath string
	LogLevel   string
	LogFile    string
	TaskBin    string
	DataDir    string
	Timeout    time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f := &flags{}

	app := &cli.Command{
		Name:      "taskwarrior-mcp",
		Usage:     "Expose taskwarrior to MCP clients over stdio",
		UsageText: "taskwarrior-mcp [options]",
		Description: `taskwarrior-mcp bridges an MCP client (an AI assistant) to a local
taskwarrior installation. Queries are project-scoped by policy so a single
tool call cannot flood the model's context with unrelated tasks.

The server speaks JSON-RPC 2.0 on stdin/stdout; logs go to stderr or a file.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TASKWARRIOR_MCP_CONFIG"),
				Destination: &f.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("TASKWARRIOR_MCP_LOG_LEVEL"),
				Value:       "info",
				Destination: &f.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to stderr)",
				Sources:     cli.EnvVars("TASKWARRIOR_MCP_LOG_FILE"),
				Destination: &f.LogFile,
			},
			&cli.StringFlag{
				Name:        "task-bin",
				Usage:       "taskwarrior binary to invoke",
				Sources:     cli.EnvVars("TASKWARRIOR_MCP_TASK_BIN"),
				Destination: &f.TaskBin,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "override taskwarrior's data directory (rc.data.location)",
				Sources:     cli.EnvVars("TASKWARRIOR_MCP_DATA_DIR"),
				Destination: &f.DataDir,
			},
			&cli.DurationFlag{
				Name:        "timeout",
				Usage:       "per-invocation timeout for the task binary",
				Sources:     cli.EnvVars("TASKWARRIOR_MCP_TIMEOUT"),
				Destination: &f.Timeout,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return run(ctx, f)
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, f *flags) error {
	logger, closeLog, err := logutils.New(f.LogLevel, f.LogFile)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer closeLog()

	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return err
	}

	// Flags take precedence over the config file.
	if f.TaskBin != "" {
		cfg.TaskBin = f.TaskBin
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}
	if f.Timeout > 0 {
		cfg.TimeoutSeconds = timeoutSeconds(f.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Info().
		Str("version", version).
		Str("task_bin", cfg.TaskBin).
		Dur("timeout", cfg.Timeout()).
		Msg("starting taskwarrior-mcp")

	exec := &taskwarrior.CLIExecutor{
		Bin:     cfg.TaskBin,
		DataDir: cfg.DataDir,
		Timeout: cfg.Timeout(),
	}
	client := taskwarrior.NewClient(exec, componentLogger(logger, "taskwarrior"))
	server := mcp.NewServer(client, cfg.DefaultReport, componentLogger(logger, "mcp"))
	transport := mcp.NewTransport(os.Stdin, os.Stdout, server, componentLogger(logger, "transport"))

	return transport.Serve(ctx)
}

func componentLogger(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

// timeoutSeconds converts the --timeout duration to whole seconds, rounding
// up so sub-second values stay a positive timeout instead of truncating to
// zero and tripping config validation.
func timeoutSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}
