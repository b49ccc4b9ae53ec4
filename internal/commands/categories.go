package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/filter"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
)

func newCategoriesCommand() *cobra.Command {
	var used bool

	cmd := &cobra.Command{
		Use:   "categories [income|expense]",
		Short: "List transaction categories",
		Long: `Without arguments, list the expense and income categories. With --used,
list the categories that appear on recorded transactions instead.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"income", "expense"},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if used {
				return withApp(cmd, "cli", func(a *app) error {
					txns, err := a.ledger.ListTransactions(cmd.Context())
					if err != nil {
						return err
					}
					for _, c := range filter.Categories(txns) {
						fmt.Fprintln(w, c)
					}
					return nil
				})
			}

			types := []model.TransactionType{model.TypeExpense, model.TypeIncome}
			if len(args) == 1 {
				typ := model.TransactionType(strings.ToUpper(args[0]))
				if typ != model.TypeExpense && typ != model.TypeIncome {
					return &model.ValidationError{Field: "type", Reason: fmt.Sprintf("%q has no categories; use income or expense", args[0])}
				}
				types = []model.TransactionType{typ}
			}
			for _, typ := range types {
				if len(types) > 1 {
					fmt.Fprintf(w, "%s:\n", typ)
				}
				for _, c := range ledger.Categories(typ) {
					if len(types) > 1 {
						fmt.Fprint(w, "  ")
					}
					fmt.Fprintln(w, c)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&used, "used", false, "list categories found on recorded transactions")

	return cmd
}
