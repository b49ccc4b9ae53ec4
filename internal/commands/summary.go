package commands

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/summary"
)

func newSummaryCommand() *cobra.Command {
	var period, start, end string
	var byDivision bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Income, expense and balance for a date window",
		Long: `Summarize transactions dated inside a window. The window is either a
named period relative to today (--period week|month|year) or an explicit
--start/--end pair; the current month is used when neither is given.
Transfers count toward the transaction total but never toward income or
expense.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := summaryWindow(period, start, end, time.Now())
			if err != nil {
				return err
			}
			return withApp(cmd, "cli", func(a *app) error {
				txns, err := a.ledger.ListTransactionsInRange(cmd.Context(), from, to)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if !byDivision {
					printSummary(w, "Summary", summary.Summarize(txns, from, to))
					return nil
				}
				parts := summary.ByDivision(txns, from, to)
				divisions := make([]string, 0, len(parts))
				for d := range parts {
					divisions = append(divisions, string(d))
				}
				sort.Strings(divisions)
				for i, d := range divisions {
					if i > 0 {
						fmt.Fprintln(w)
					}
					printSummary(w, d, parts[model.Division(d)])
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&period, "period", "p", "", "week, month or year")
	cmd.Flags().StringVar(&start, "start", "", "window start date")
	cmd.Flags().StringVar(&end, "end", "", "window end date, inclusive")
	cmd.Flags().BoolVar(&byDivision, "by-division", false, "one summary per division")
	cmd.MarkFlagsMutuallyExclusive("period", "start")
	cmd.MarkFlagsMutuallyExclusive("period", "end")
	cmd.MarkFlagsRequiredTogether("start", "end")

	return cmd
}

// summaryWindow resolves the summary flags to a [start, end] window.
func summaryWindow(period, start, end string, now time.Time) (time.Time, time.Time, error) {
	switch {
	case strings.TrimSpace(period) != "":
		return summary.PeriodRange(period, now)
	case start != "" || end != "":
		return summary.ParseRange(start, end)
	}
	from, to := summary.MonthRange(now)
	return from, to, nil
}
