package cli

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"github.com/specialistvlad/flowactor/internal/actor"
	"github.com/specialistvlad/flowactor/internal/app"
	"github.com/specialistvlad/flowactor/internal/engine"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// DotEnvFile is the environment file Parse loads before reading defaults.
var DotEnvFile = ".env"

type flags struct {
	logFormat       string
	logLevel        string
	healthcheckPort int
	workers         int
	maxContexts     int
	maxDepth        int
	kernelRetries   int
	monitorURL      string
	timeout         string
	args            []string
	watch           bool
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("failed to load %s: %v", DotEnvFile, err)}
	}

	var (
		f      flags
		config *app.Config
	)

	root := &cobra.Command{
		Use:   "flowactor",
		Short: "FlowActor - an actor-based control-flow graph executor.",
		Long: `FlowActor executes control-flow graphs written in HCL: sub-graphs with
entrances and exits, switches, partial application and recursion, with every
actor firing on its own once its inputs for a call context are complete.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	if args == nil {
		// cobra falls back to os.Args on nil.
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(output)
	root.SetErr(output)

	pf := root.PersistentFlags()
	pf.StringVar(&f.logFormat, "log-format", envString("LOG_FORMAT", "json"), "Log output format. Options: 'text' or 'json'.")
	pf.StringVar(&f.logLevel, "log-level", envString("LOG_LEVEL", "info"), "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.IntVar(&f.healthcheckPort, "healthcheck-port", envInt("HEALTHCHECK_PORT", 0), "Port for the HTTP health check server. 0 is disabled.")
	pf.IntVar(&f.workers, "workers", envInt("WORKERS", runtime.NumCPU()), "Number of concurrent workers per run.")
	pf.IntVar(&f.maxContexts, "max-contexts", envInt("MAX_CONTEXTS", engine.DefaultMaxContexts), "Number of runs that may execute at once.")
	pf.IntVar(&f.maxDepth, "max-depth", envInt("MAX_DEPTH", actor.DefaultMaxDepth), "Bound on call depth and on pending entries per actor, slot and context.")

	build := func(mode, path string) error {
		cfg, err := f.config(mode, path)
		if err != nil {
			return err
		}
		config = cfg
		return nil
	}

	runCmd := &cobra.Command{
		Use:   "run GRAPH_PATH",
		Short: "Execute a graph and print the root exit's results.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, pos []string) error {
			return build(app.ModeRun, pos[0])
		},
	}
	rf := runCmd.Flags()
	rf.StringArrayVarP(&f.args, "arg", "a", nil, "Root argument as an HCL literal (repeatable, in order).")
	rf.IntVar(&f.kernelRetries, "kernel-retries", envInt("KERNEL_RETRIES", 0), "Retries for a failing kernel launch, with exponential backoff.")
	rf.StringVar(&f.monitorURL, "monitor-url", envString("MONITOR_URL", ""), "socket.io server to stream firings to. Empty is disabled.")
	rf.StringVar(&f.timeout, "timeout", envDuration("TIMEOUT", 0).String(), "Abort a run after this long. 0 is no limit.")
	rf.BoolVarP(&f.watch, "watch", "w", envBool("WATCH", false), "Re-run whenever a graph file changes.")

	validateCmd := &cobra.Command{
		Use:   "validate GRAPH_PATH",
		Short: "Load a graph and check it against the registered kernels.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, pos []string) error {
			return build(app.ModeValidate, pos[0])
		},
	}

	root.AddCommand(runCmd, validateCmd)

	if err := root.Execute(); err != nil {
		if exitErr, ok := err.(*ExitError); ok {
			return nil, false, exitErr
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if config == nil {
		// Help or usage was printed.
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// config validates the flags and turns them into an app.Config.
func (f *flags) config(mode, path string) (*app.Config, error) {
	logFormat := strings.ToLower(f.logFormat)
	if logFormat != "text" && logFormat != "json" {
		return nil, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(f.logLevel)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if f.kernelRetries < 0 {
		return nil, &ExitError{Code: 2, Message: "invalid kernel-retries: must not be negative"}
	}
	timeout, err := parseDuration(f.timeout)
	if err != nil {
		return nil, &ExitError{Code: 2, Message: fmt.Sprintf("invalid timeout: %v", err)}
	}

	cfg, err := app.NewConfig(app.Config{
		GraphPath:       path,
		Args:            f.args,
		Mode:            mode,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: f.healthcheckPort,
		WorkerCount:     f.workers,
		MaxContexts:     f.maxContexts,
		MaxDepth:        f.maxDepth,
		KernelRetries:   uint64(f.kernelRetries),
		MonitorURL:      f.monitorURL,
		Watch:           f.watch,
		Timeout:         timeout,
	})
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	return cfg, nil
}
