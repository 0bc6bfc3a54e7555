package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/sqlcheck/internal/audit"
	"github.com/sadopc/sqlcheck/internal/dump"
	"github.com/sadopc/sqlcheck/internal/textutil"
)

func newDumpCmd(c *cli) *cobra.Command {
	var (
		adapterFlag    string
		connectionFlag string
	)

	cmd := &cobra.Command{
		Use:   "dump <file|dir|dsn>",
		Short: "Print a database's schema and rows as SQL",
		Long: `dump reconstructs a database as CREATE and INSERT statements.

Examples:
  sqlcheck dump grades.db                              # SQLite file to stdout
  sqlcheck dump exams/                                 # Each *.db to a sibling *.sql
  sqlcheck dump --adapter postgres postgres://u@h/db   # Any registered adapter
  sqlcheck dump --connection course                    # Saved connection from config`,
		Args: func(cmd *cobra.Command, args []string) error {
			if connectionFlag != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			auditLog := c.openAudit()
			defer auditLog.Close()

			var adapterName, dsn string
			switch {
			case connectionFlag != "":
				sc, err := c.cfg.Connection(connectionFlag)
				if err != nil {
					return err
				}
				adapterName, dsn = sc.Adapter, sc.BuildDSN()
			case adapterFlag != "" && !strings.EqualFold(adapterFlag, "sqlite"):
				adapterName, dsn = adapterFlag, args[0]
			default:
				info, err := mustExist(args[0])
				if err != nil {
					return err
				}
				if info.IsDir() {
					done, err := dump.Dir(ctx, args[0], c.logger)
					for _, p := range done {
						fmt.Fprintln(out, p)
						auditLog.Log(audit.Entry{Event: audit.EventDump, Adapter: "sqlite", Path: p})
					}
					return err
				}
				adapterName, dsn = "sqlite", args[0]
			}

			lines, err := c.dumpDatabase(ctx, auditLog, adapterName, dsn)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(out, textutil.JoinLines(lines))
			return err
		},
	}

	cmd.Flags().StringVarP(&adapterFlag, "adapter", "a", "", "Database adapter for a DSN argument (sqlite, mysql, postgres, duckdb, oracle)")
	cmd.Flags().StringVar(&connectionFlag, "connection", "", "Name of a saved connection from the config file")
	return cmd
}

func (c *cli) dumpDatabase(ctx context.Context, auditLog *audit.Logger, adapterName, dsn string) ([]string, error) {
	start := time.Now()
	var (
		lines []string
		err   error
	)
	if adapterName == "sqlite" {
		lines, err = dump.File(ctx, dsn)
	} else {
		lines, err = dump.Database(ctx, adapterName, dsn)
	}

	e := audit.Entry{
		Event:      audit.EventDump,
		Adapter:    adapterName,
		DSN:        dsn,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		e.IsError = true
		e.Error = err.Error()
	}
	auditLog.Log(e)
	return lines, err
}
