package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sadopc/sqlcheck/internal/grade"
	"github.com/sadopc/sqlcheck/internal/watch"
)

func newWatchCmd(c *cli) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <target> <answer>",
		Short: "Regrade a submission whenever it or the answer changes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, answer := args[0], args[1]
			info, err := mustExist(target)
			if err != nil {
				return err
			}
			if info.IsDir() {
				return fmt.Errorf("%s: watch needs a submission file, not a directory", target)
			}
			if _, err := mustExist(answer); err != nil {
				return err
			}
			g, err := c.grader()
			if err != nil {
				return err
			}
			return c.watch(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), g, target, answer, debounce)
		},
	}
	addReportFlags(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before regrading")
	return cmd
}

// watch prints the report once and again after every change, until ctx is
// cancelled. Grading errors are printed and watching continues.
func (c *cli) watch(ctx context.Context, out, errOut io.Writer, g *grade.Grader, target, answer string, debounce time.Duration) error {
	opts := c.reportOptions(out)
	show := func() {
		if err := c.checkFile(out, g, nil, target, answer); err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
		}
	}

	show()
	err := watch.Files(ctx, []string{target, answer}, debounce, c.logger, func(changed string) {
		c.logger.Debug("regrading", zap.String("changed", changed))
		header := fmt.Sprintf("--- %s changed at %s ---", changed, time.Now().Format(time.TimeOnly))
		if opts.Theme != nil {
			header = opts.Theme.MutedText.Render(header)
		}
		fmt.Fprintln(out, "\n"+header)
		show()
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
