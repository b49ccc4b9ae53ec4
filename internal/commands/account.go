package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/model"
)

func newAccountCommand() *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	accountCmd.AddCommand(
		newAccountAddCommand(),
		newAccountListCommand(),
		newAccountDeleteCommand(),
		newAccountTotalCommand(),
	)
	return accountCmd
}

func newAccountAddCommand() *cobra.Command {
	var accountType, balance string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			initial := decimal.Zero
			if strings.TrimSpace(balance) != "" {
				var err error
				if initial, err = accounts.ParseBalance(balance); err != nil {
					return err
				}
			}
			typ := model.AccountType(strings.ToUpper(strings.TrimSpace(accountType)))

			return withApp(cmd, "cli", func(a *app) error {
				acct, err := a.accounts.CreateAccount(cmd.Context(), args[0], initial, typ)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created account %d %s (%s) with balance %s\n",
					acct.ID, acct.Name, acct.Type, acct.Balance.StringFixed(2))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&accountType, "type", string(model.AccountTypeCash), "account type, one of "+model.Names(model.AccountTypes()))
	cmd.Flags().StringVar(&balance, "balance", "0", "initial balance")

	return cmd
}

func newAccountListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts with their balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, "cli", func(a *app) error {
				list, err := a.accounts.ListAccounts(cmd.Context())
				if err != nil {
					return err
				}
				printAccounts(cmd.OutOrStdout(), list)
				return nil
			})
		},
	}
}

func newAccountDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account; transactions naming it are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return &model.ValidationError{Field: "id", Reason: "must be an integer"}
			}
			return withApp(cmd, "cli", func(a *app) error {
				if err := a.accounts.DeleteAccount(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted account %d\n", id)
				return nil
			})
		},
	}
}

func newAccountTotalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "total",
		Short: "Print the sum of all account balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, "cli", func(a *app) error {
				total, err := a.accounts.TotalBalance(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Total balance: %s\n", total.StringFixed(2))
				return nil
			})
		},
	}
}
