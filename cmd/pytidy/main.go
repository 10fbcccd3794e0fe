package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pytidy/internal/prof"
	"pytidy/internal/version"
)

// errFindings signals a non-zero exit after the output was already printed.
var errFindings = errors.New("findings reported")

// cliLog is configured by the root command before any subcommand runs.
var cliLog = logrus.New()

// profiling is started by the root command and stopped when main returns.
var profiling *prof.Session

var rootCmd = &cobra.Command{
	Use:   "pytidy",
	Short: "Python source analyzer and refactoring tool",
	Long: `pytidy parses Python source, reports style and structure findings,
rewrites the code with ordered refactoring passes and shows what changed`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// main registers subcommands and persistent flags, then executes the root
// command. Any error exits with status 1.
func main() {
	// Устанавливаем версию для автоматического флага --version
	rootCmd.Version = version.Version

	// Добавляем команды
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(refactorCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().String("config", "", "configuration file (default: discover pytidy.toml upwards)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to this file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a runtime trace to this file")

	err := rootCmd.Execute()
	if perr := profiling.Stop(); perr != nil {
		fmt.Fprintln(os.Stderr, "warning: profiling:", perr)
	}
	if err != nil {
		if !errors.Is(err, errFindings) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	if err := setupLogging(cmd); err != nil {
		return err
	}
	return setupProfiling(cmd)
}

// setupProfiling starts the profiles named by the persistent flags.
func setupProfiling(cmd *cobra.Command) error {
	var opts prof.Options
	var err error
	if opts.CPU, err = cmd.Flags().GetString("cpu-profile"); err != nil {
		return fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if opts.Mem, err = cmd.Flags().GetString("mem-profile"); err != nil {
		return fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if opts.Trace, err = cmd.Flags().GetString("runtime-trace"); err != nil {
		return fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	if !opts.Enabled() {
		return nil
	}
	profiling, err = prof.Start(afero.NewOsFs(), opts)
	if err != nil {
		return fmt.Errorf("failed to start profiling: %w", err)
	}
	cliLog.WithField("cpu", opts.CPU).WithField("mem", opts.Mem).WithField("trace", opts.Trace).Debug("[pytidy] profiling enabled")
	return nil
}

func setupLogging(cmd *cobra.Command) error {
	levelName, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return fmt.Errorf("failed to get log-level flag: %w", err)
	}
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	level, err := logrus.ParseLevel(strings.TrimSpace(levelName))
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	if quiet && level > logrus.ErrorLevel {
		level = logrus.ErrorLevel
	}
	cliLog.SetOutput(os.Stderr)
	cliLog.SetLevel(level)
	cliLog.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: level < logrus.DebugLevel,
		ForceColors:      isTerminal(os.Stderr),
	})

	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
