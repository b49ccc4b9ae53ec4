package commands

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/summary"
)

const dateLayout = "2006-01-02 15:04"

func printAccounts(w io.Writer, list []model.Account) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tBALANCE")
	for _, a := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", a.ID, a.Name, a.Type, a.Balance.StringFixed(2))
	}
	tw.Flush()
}

func printTransactions(w io.Writer, list []model.Transaction) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tAMOUNT\tCATEGORY\tDIVISION\tFROM\tTO\tDESCRIPTION\tEDITABLE")
	for _, tx := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
			tx.ID, tx.Date.Local().Format(dateLayout), tx.Type(), tx.Amount.StringFixed(2),
			dash(tx.Category), dash(string(tx.Division)), dash(tx.FromAccount), dash(tx.ToAccount),
			tx.Description, tx.Editable)
	}
	tw.Flush()
}

func printTransaction(w io.Writer, tx model.Transaction) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", tx.ID)
	fmt.Fprintf(tw, "Type:\t%s\n", tx.Type())
	fmt.Fprintf(tw, "Amount:\t%s\n", tx.Amount.StringFixed(2))
	if tx.HasCategory() {
		fmt.Fprintf(tw, "Category:\t%s\n", tx.Category)
		fmt.Fprintf(tw, "Division:\t%s\n", tx.Division)
	}
	fmt.Fprintf(tw, "Description:\t%s\n", tx.Description)
	fmt.Fprintf(tw, "Date:\t%s\n", tx.Date.Local().Format(dateLayout))
	fmt.Fprintf(tw, "From:\t%s\n", dash(tx.FromAccount))
	fmt.Fprintf(tw, "To:\t%s\n", dash(tx.ToAccount))
	fmt.Fprintf(tw, "Editable:\t%t\n", tx.Editable)
	tw.Flush()
}

func printSummary(w io.Writer, title string, s summary.Summary) {
	fmt.Fprintf(w, "%s: %s to %s\n", title, s.Start.Format(time.DateOnly), s.End.Format(time.DateOnly))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  Income:\t%s\n", s.TotalIncome.StringFixed(2))
	fmt.Fprintf(tw, "  Expense:\t%s\n", s.TotalExpense.StringFixed(2))
	fmt.Fprintf(tw, "  Balance:\t%s\n", s.Balance.StringFixed(2))
	fmt.Fprintf(tw, "  Transactions:\t%d\n", s.Count)
	tw.Flush()

	printBreakdown(w, "Income by category", s.CategoryWiseIncome)
	printBreakdown(w, "Expense by category", s.CategoryWiseExpense)

	if len(s.RecentTransactions) > 0 {
		fmt.Fprintln(w, "Recent:")
		printTransactions(w, s.RecentTransactions)
	}
}

func printBreakdown(w io.Writer, title string, m map[string]decimal.Decimal) {
	if len(m) == 0 {
		return
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "%s:\n", title)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(tw, "  %s\t%s\n", name, m[name].StringFixed(2))
	}
	tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
