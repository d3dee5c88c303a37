package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/standardbeagle/webdriver-mcp/internal/browser"
	"github.com/standardbeagle/webdriver-mcp/internal/config"
	"github.com/standardbeagle/webdriver-mcp/internal/logging"
	"github.com/standardbeagle/webdriver-mcp/internal/mcp"
)

// Version is set at build time
var Version = "dev"

type cliOptions struct {
	configPath  string
	logLevel    string
	logFormat   string
	healthAddr  string
	headless    bool
	install     bool
	debug       bool
	showVersion bool
	force       bool

	exitCode int
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webdriver-mcp",
		Short: "An MCP server that drives real browsers",
		Long: `webdriver-mcp exposes browser automation as Model Context Protocol tools
over stdio. Open a session with browser_open, then navigate, find and
interact with elements, manage cookies and take screenshots.

Configuration is read from webdriver-mcp.toml in the working directory
when present; flags override the file.

Example MCP client configuration:

  {
    "servers": {
      "webdriver": {
        "command": "webdriver-mcp",
        "args": ["--headless"]
      }
    }
  }`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "webdriver-mcp version %s\n", Version)
				return nil
			}
			if !opts.force && isTerminal() {
				return cmd.Help()
			}
			opts.exitCode = opts.serve(cmd)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to the TOML configuration file (default "+config.DefaultFileName+")")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: json or console")
	flags.StringVar(&opts.healthAddr, "health-addr", "", "Serve /health and /stats over HTTP on this address")
	flags.BoolVar(&opts.headless, "headless", false, "Launch browsers headless unless browser_open says otherwise")
	flags.BoolVar(&opts.install, "install", false, "Download the playwright driver and browsers if missing")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flags.BoolVarP(&opts.showVersion, "version", "v", false, "Show version information")
	flags.BoolVar(&opts.force, "stdio", false, "Serve on stdio even when attached to a terminal")

	return cmd
}

func main() {
	opts := &cliOptions{}
	if err := newRootCmd(opts).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(opts.exitCode)
}

// loadConfig reads the configuration file and applies flag overrides.
func (o *cliOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = o.logFormat
	}
	if flags.Changed("health-addr") {
		cfg.Health.Addr = o.healthAddr
	}
	if flags.Changed("headless") {
		cfg.Browser.DefaultHeadless = o.headless
	}
	if Version != "dev" {
		cfg.Server.Version = Version
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// serve runs the server on stdio until a shutdown trigger and returns the
// process exit code.
func (o *cliOptions) serve(cmd *cobra.Command) int {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return 1
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Debug:  o.debug,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	srv, err := mcp.NewServer(cfg, mcp.Options{
		Launcher: browser.NewPlaywrightLauncher(o.install, logger.Named("playwright")),
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to create server", zap.Error(err))
		return 1
	}

	return runServer(srv, os.Stdin, os.Stdout, logger)
}

// runServer serves until shutdown. A panic on the serving goroutine runs the
// shutdown routine as a fatal error.
func runServer(srv *mcp.Server, in io.Reader, out io.Writer, logger *zap.Logger) (code int) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while serving", zap.Any("panic", r))
			code = srv.Fail(fmt.Errorf("panic: %v", r))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	setupSignalHandling(sigChan)
	defer stopSignalHandling(sigChan)

	logger.Info("webdriver-mcp starting", zap.String("version", Version))
	return srv.Serve(context.Background(), in, out, sigChan)
}

// isTerminal reports whether stdin and stdout are both a terminal, which
// means a person started the server instead of an MCP client.
func isTerminal() bool {
	stdinStat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	stdoutStat, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return stdinStat.Mode()&os.ModeCharDevice != 0 && stdoutStat.Mode()&os.ModeCharDevice != 0
}
