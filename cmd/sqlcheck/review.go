package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/sqlcheck/internal/app"
	"github.com/sadopc/sqlcheck/internal/report"
	"github.com/sadopc/sqlcheck/internal/theme"
)

func newReviewCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "review <dir> <answer>",
		Short: "Browse the graded submissions of a directory interactively",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, answer := args[0], args[1]
			info, err := mustExist(dir)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s: review needs a directory of submissions", dir)
			}
			if _, err := mustExist(answer); err != nil {
				return err
			}
			g, err := c.grader()
			if err != nil {
				return err
			}
			return app.Run(cmd.Context(), app.Options{
				Dir:     dir,
				Answer:  answer,
				Grader:  g,
				Workers: c.cfg.Workers,
				Report: report.Options{
					ShowExpected: c.cfg.ShowExpected,
					Hints:        c.cfg.Hints,
					Theme:        theme.Get(c.cfg.Theme),
				},
				Logger: c.logger,
			})
		},
	}
}
