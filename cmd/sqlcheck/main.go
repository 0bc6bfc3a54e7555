package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sadopc/sqlcheck/internal/adapter"
	"github.com/sadopc/sqlcheck/internal/audit"
	"github.com/sadopc/sqlcheck/internal/config"
	"github.com/sadopc/sqlcheck/internal/grade"
	"github.com/sadopc/sqlcheck/internal/logging"
	"github.com/sadopc/sqlcheck/internal/report"
	"github.com/sadopc/sqlcheck/internal/theme"

	// Register database adapters
	_ "github.com/sadopc/sqlcheck/internal/adapter/duckdb"
	_ "github.com/sadopc/sqlcheck/internal/adapter/mysql"
	_ "github.com/sadopc/sqlcheck/internal/adapter/oracle"
	_ "github.com/sadopc/sqlcheck/internal/adapter/postgres"
	_ "github.com/sadopc/sqlcheck/internal/adapter/sqlite"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// auditMaxSizeMB is the size at which the audit log is rotated.
const auditMaxSizeMB = 10

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// cli carries the state shared by every subcommand once flags are parsed.
type cli struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "sqlcheck <target> <answer>",
		Short: "Grade SQL submissions against an answer",
		Long: `sqlcheck formats a SQL submission and an answer into canonical form and
marks every line of the submission as unchanged, corrected, missing or extra.

Examples:
  sqlcheck alice.sql answer.sql             # Report on stdout
  sqlcheck submissions/ answer.sql          # One .diff per submission
  sqlcheck format query.sql                 # Canonical form on stdout
  sqlcheck dump grades.db                   # SQLite schema and rows as SQL
  sqlcheck review submissions/ answer.sql   # Interactive browser`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd, args[0], args[1])
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", "", "Config file path")
	pf.BoolP("verbose", "v", false, "Log debug output to stderr")
	pf.Int("workers", 0, "Files graded in parallel (default: number of CPUs)")
	pf.String("keyword-case", "", "Keyword case: upper, lower or preserve")
	pf.String("identifier-case", "", "Identifier case: upper, lower or preserve")
	pf.Bool("keep-comments", false, "Keep comments inside statements")
	pf.Bool("raw", false, "Compare lines as written, without formatting")
	addGradeFlags(rootCmd)

	rootCmd.AddCommand(
		newCheckCmd(c),
		newFormatCmd(c),
		newDumpCmd(c),
		newWatchCmd(c),
		newHistoryCmd(c),
		newReviewCmd(c),
		newVersionCmd(),
	)
	return rootCmd
}

// setup loads the configuration and builds the logger. Help, version and shell
// completion need neither.
func (c *cli) setup(cmd *cobra.Command) error {
	switch cmd.Name() {
	case "help", "version", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return nil
	}
	if p := cmd.Parent(); p != nil && p.Name() == "completion" {
		return nil
	}

	cfg, err := config.Load(c.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	c.cfg = cfg
	c.logger = logger
	logger.Debug("config loaded",
		zap.String("path", c.configPath),
		zap.Int("workers", cfg.Workers),
		zap.Bool("raw", cfg.Formatter.Raw))
	return nil
}

func (c *cli) grader() (*grade.Grader, error) {
	f, err := c.cfg.Formatter.Formatter()
	if err != nil {
		return nil, err
	}
	return grade.NewGrader(f), nil
}

// reportOptions returns the text report options, themed when color is
// enabled for out.
func (c *cli) reportOptions(out io.Writer) report.Options {
	opts := report.Options{
		ShowExpected: c.cfg.ShowExpected,
		Hints:        c.cfg.Hints,
	}
	f, _ := out.(*os.File)
	if report.ColorEnabled(c.cfg.Color, f) {
		if c.cfg.Color == "always" {
			report.ForceColor()
		}
		opts.Theme = theme.Get(c.cfg.Theme)
	}
	return opts
}

// openAudit opens the configured audit log. A nil Logger is returned when
// auditing is off; its methods are no-ops.
func (c *cli) openAudit() *audit.Logger {
	if c.cfg.Audit == "" {
		return nil
	}
	l, err := audit.New(c.cfg.Audit, auditMaxSizeMB)
	if err != nil {
		c.logger.Warn("could not open audit log", zap.String("path", c.cfg.Audit), zap.Error(err))
		return nil
	}
	return l
}

// mustExist reports a missing input in the form graders expect.
func mustExist(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("No such file or directory: %s", path)
	}
	return info, err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sqlcheck %s (commit: %s, built: %s)\n", version, commit, date)
			fmt.Fprintln(out, "\nSupported adapters:")
			for _, name := range adapter.Names() {
				fmt.Fprintf(out, "  - %s\n", name)
			}
		},
	}
}
