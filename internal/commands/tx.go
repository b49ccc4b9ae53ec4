package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cleared-dev/tally/internal/filter"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/summary"
)

func newTxCommand() *cobra.Command {
	txCmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transaction"},
		Short:   "Record and inspect transactions",
	}
	txCmd.AddCommand(
		newTxAddCommand(),
		newTxEditCommand(),
		newTxDeleteCommand(),
		newTxShowCommand(),
		newTxListCommand(),
	)
	return txCmd
}

// detailFlags are the editable fields shared by add and edit.
type detailFlags struct {
	amount      string
	category    string
	division    string
	description string
	date        string
	from        string
	to          string
}

func (f *detailFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.amount, "amount", "", "amount, always positive")
	fs.StringVar(&f.category, "category", "", "category (INCOME and EXPENSE only)")
	fs.StringVar(&f.division, "division", "", "OFFICE or PERSONAL (INCOME and EXPENSE only)")
	fs.StringVarP(&f.description, "description", "m", "", "description")
	fs.StringVar(&f.date, "date", "", "date, e.g. 2025-03-01 or 2025-03-01T09:30 (default now)")
	fs.StringVar(&f.from, "from", "", "account money leaves")
	fs.StringVar(&f.to, "to", "", "account money enters")
}

// apply overwrites the fields of d whose flags were set on the command line.
func (f *detailFlags) apply(fs *pflag.FlagSet, d model.Details) (model.Details, error) {
	if fs.Changed("amount") {
		amount, err := model.ParseDecimal("amount", f.amount)
		if err != nil {
			return model.Details{}, err
		}
		d.Amount = amount
	}
	if fs.Changed("category") {
		d.Category = f.category
	}
	if fs.Changed("division") {
		d.Division = model.Division(strings.ToUpper(strings.TrimSpace(f.division)))
	}
	if fs.Changed("description") {
		d.Description = f.description
	}
	if fs.Changed("date") {
		date, err := summary.ParseTime("transactionDate", f.date, false)
		if err != nil {
			return model.Details{}, err
		}
		d.Date = date
	}
	if fs.Changed("from") {
		d.FromAccount = f.from
	}
	if fs.Changed("to") {
		d.ToAccount = f.to
	}
	return d, nil
}

func newTxAddCommand() *cobra.Command {
	var flags detailFlags
	var typ string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Example: `  tally tx add --type expense --amount 12.50 --category Food --division personal -m "Lunch" --from Cash
  tally tx add --type transfer --amount 200 --from Bank --to Wallet -m "Top up"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := flags.apply(cmd.Flags(), model.Details{Date: time.Now()})
			if err != nil {
				return err
			}
			in := ledger.Input{
				Type:    model.TransactionType(strings.ToUpper(strings.TrimSpace(typ))),
				Details: d,
			}
			return withApp(cmd, "cli", func(a *app) error {
				tx, err := a.ledger.CreateTransaction(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s %s\n", tx.ID, tx.Type(), tx.Amount.StringFixed(2))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&typ, "type", "", "one of "+model.Names(model.TransactionTypes())+" (required)")
	_ = cmd.MarkFlagRequired("type")
	flags.register(cmd.Flags())

	return cmd
}

func newTxEditCommand() *cobra.Command {
	var flags detailFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an editable transaction; its type is fixed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, "cli", func(a *app) error {
				existing, err := a.ledger.GetTransaction(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				d, err := flags.apply(cmd.Flags(), existing.Details())
				if err != nil {
					return err
				}
				tx, err := a.ledger.UpdateTransaction(cmd.Context(), args[0], d)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", tx.ID)
				return nil
			})
		},
	}
	flags.register(cmd.Flags())

	return cmd
}

func newTxDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an editable transaction and reverse its balance effects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, "cli", func(a *app) error {
				if err := a.ledger.DeleteTransaction(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newTxShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, "cli", func(a *app) error {
				tx, err := a.ledger.GetTransaction(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printTransaction(cmd.OutOrStdout(), tx)
				return nil
			})
		},
	}
}

func newTxListCommand() *cobra.Command {
	var p filter.Params

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := filter.Parse(p)
			if err != nil {
				return err
			}
			return withApp(cmd, "cli", func(a *app) error {
				txns, err := a.ledger.ListTransactions(cmd.Context())
				if err != nil {
					return err
				}
				printTransactions(cmd.OutOrStdout(), filter.Apply(txns, f))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&p.Type, "type", "", "only this transaction type")
	cmd.Flags().StringVar(&p.Division, "division", "", "only this division")
	cmd.Flags().StringVar(&p.Category, "category", "", "only this category")
	cmd.Flags().StringVar(&p.StartDate, "start", "", "range start (used with --end)")
	cmd.Flags().StringVar(&p.EndDate, "end", "", "range end, inclusive (used with --start)")
	cmd.Flags().StringVarP(&p.SearchTerm, "search", "s", "", "case-insensitive text in description or category")

	return cmd
}
