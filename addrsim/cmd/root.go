// Package cmd provides the command-line interface of addrsim.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/addrsim/datarecording"
	"github.com/sarchlab/addrsim/mem/trace"
	"github.com/sarchlab/addrsim/monitoring"
	"github.com/sarchlab/addrsim/sim/hooking"
)

type options struct {
	logLevel    string
	logFile     string
	envFile     string
	record      string
	script      string
	monitor     bool
	monitorPort int
	openBrowser bool
}

// An environment holds what the simulator commands share: where the input
// comes from, the logger, and the optional recorder and monitor.
type environment struct {
	lock sync.Mutex

	logger   *slog.Logger
	prompter *prompter
	recorder datarecording.DataRecorder
	tracer   *trace.DBTracer
	monitor  *monitoring.Monitor
	bar      *monitoring.ProgressBar
}

// NewRootCmd creates the addrsim command with all its subcommands.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	env := &environment{}

	rootCmd := &cobra.Command{
		Use:   "addrsim",
		Short: "addrsim simulates a direct-mapped cache and a page table.",
		Long: `addrsim simulates a direct-mapped, write-through cache in front ` +
			`of a word-addressed main memory, and a fully associative page ` +
			`table with LRU or FIFO replacement. Each simulator is driven ` +
			`by an interactive menu.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return env.setUp(cmd, opts)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return env.tearDown()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", "INFO",
		"Log level, one of DEBUG, INFO, WARN, and ERROR.")
	flags.StringVar(&opts.logFile, "log-file", "",
		"Also append the log to this file.")
	flags.StringVar(&opts.envFile, "env-file", ".env",
		"Load ADDRSIM_* defaults from this dotenv file if it exists.")
	flags.StringVar(&opts.record, "record", "",
		"Record every access into PATH.sqlite3.")
	flags.StringVar(&opts.script, "script", "",
		"Read the menu input from a file instead of stdin.")
	flags.BoolVar(&opts.monitor, "monitor", false,
		"Serve the state of the simulator over HTTP.")
	flags.IntVar(&opts.monitorPort, "monitor-port", 0,
		"Port of the monitoring server, random if 0.")
	flags.BoolVar(&opts.openBrowser, "open-browser", false,
		"Open the monitoring page in a browser.")

	rootCmd.AddCommand(
		newCacheCmd(env),
		newPageTableCmd(env),
		newReportCmd(),
	)

	return rootCmd
}

// Execute runs the command line and exits with a non-zero status on error.
func Execute() {
	err := NewRootCmd().Execute()
	if err != nil {
		atexit.Exit(1)
	}
}

func (e *environment) setUp(cmd *cobra.Command, opts *options) error {
	err := loadEnvFile(opts.envFile, cmd.Flags().Changed("env-file"))
	if err != nil {
		return err
	}

	err = applyEnv(cmd.Flags())
	if err != nil {
		return err
	}

	e.logger, err = newLogger(cmd.ErrOrStderr(), opts.logLevel, opts.logFile)
	if err != nil {
		return err
	}

	if opts.monitor {
		e.monitor = monitoring.NewMonitor().
			WithLogger(e.logger).
			WithLock(&e.lock).
			WithPortNumber(opts.monitorPort).
			WithBrowser(opts.openBrowser)
	}

	err = e.openInput(cmd, opts.script)
	if err != nil {
		return err
	}

	if opts.record != "" {
		e.recorder = datarecording.New(opts.record)
		e.tracer = trace.NewDBTracer(e.recorder)
	}

	return nil
}

func (e *environment) openInput(cmd *cobra.Command, script string) error {
	if script == "" {
		e.prompter = newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
		return nil
	}

	content, err := os.ReadFile(script)
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}

	e.prompter = newPrompter(strings.NewReader(string(content)),
		cmd.OutOrStdout())

	if e.monitor != nil {
		numTokens := uint64(len(strings.Fields(string(content))))
		e.bar = e.monitor.CreateProgressBar(script, numTokens)
		e.prompter.onAsk = func() { e.bar.IncrementInProgress(1) }
		e.prompter.onAnswer = func() { e.bar.MoveInProgressToFinished(1) }
	}

	return nil
}

// attach connects a simulator to the logger, the recorder, and the monitor.
func (e *environment) attach(c hooking.Hookable) {
	c.AcceptHook(hooking.NewLogHook(e.logger, slog.LevelDebug))

	if e.tracer != nil {
		c.AcceptHook(e.tracer)
	}

	if e.monitor != nil {
		e.monitor.RegisterComponent(c)
	}
}

func (e *environment) startMonitor() error {
	if e.monitor == nil {
		return nil
	}

	_, err := e.monitor.StartServer()

	return err
}

// do runs f while holding the lock that the monitor also takes.
func (e *environment) do(f func() error) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	return f()
}

func (e *environment) tearDown() error {
	if e.bar != nil {
		e.monitor.CompleteProgressBar(e.bar)
	}

	if e.recorder != nil {
		err := e.recorder.Close()
		if err != nil {
			return fmt.Errorf("closing recording: %w", err)
		}
	}

	return nil
}
