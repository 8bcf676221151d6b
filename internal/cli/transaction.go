package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"finance-tracker/internal/catalog"
	"finance-tracker/internal/ledger"
	"finance-tracker/internal/models"
	"finance-tracker/internal/util"

	"github.com/spf13/cobra"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Date        string
	Category    string
	Subcategory string
	Amount      string
	Comment     string
}

func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Example: `  pftracker add --category Investment --subcategory MF --amount 5000 --comment SIP
  pftracker add --date 2024-03-01 --category Inflow --subcategory Salary --amount 90000`,
		Args: cobra.NoArgs,
		RunE: withApp(rootOpts, func(a *app, cmd *cobra.Command, _ []string) error {
			return runAdd(cmd.Context(), a, opts, formatter(rootOpts, cmd))
		}),
	}

	cmd.Flags().StringVar(&opts.Date, "date", "", "transaction date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&opts.Category, "category", "", "one of: "+catalog.Names())
	cmd.Flags().StringVar(&opts.Subcategory, "subcategory", "", "subcategory")
	cmd.Flags().StringVar(&opts.Amount, "amount", "", "non-negative amount")
	cmd.Flags().StringVar(&opts.Comment, "comment", "", "free text comment")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("subcategory")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runAdd(ctx context.Context, a *app, opts *AddOptions, out *OutputFormatter) error {
	date := time.Now()
	if opts.Date != "" {
		d, err := util.ParseDate(opts.Date)
		if err != nil {
			return WrapExitError(ExitFailure, "invalid --date", err)
		}
		date = d
	}
	amount, err := util.ParseAmount(opts.Amount)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid --amount", err)
	}

	tx, report, err := a.service.AddTransaction(ctx, ledger.NewTransaction{
		Date:        date,
		Category:    opts.Category,
		Subcategory: opts.Subcategory,
		Amount:      amount,
		Comment:     opts.Comment,
	})
	if err != nil {
		return ledgerError("add transaction", err)
	}

	return out.Success(tx, report, func(w io.Writer) {
		fmt.Fprintf(w, "added transaction %d: %s %s/%s %s\n",
			tx.ID, tx.Date.Format(util.DateLayout), tx.Category, tx.Subcategory, tx.Amount)
	})
}

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Year int
}

func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions ordered by date",
		Args:  cobra.NoArgs,
		RunE: withApp(rootOpts, func(a *app, cmd *cobra.Command, _ []string) error {
			rows, err := a.store.QueryTransactions(cmd.Context(), ledger.Query{Year: opts.Year})
			if err != nil {
				return ledgerError("list transactions", err)
			}
			return formatter(rootOpts, cmd).Success(rows, nil, func(w io.Writer) {
				writeTable(w, rows)
			})
		}),
	}

	cmd.Flags().IntVar(&opts.Year, "year", 0, "only transactions dated in this year")

	return cmd
}

func writeTable(w io.Writer, rows []models.Transaction) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tSUBCATEGORY\tAMOUNT\tCOMMENT")
	for _, t := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Date.UTC().Format(util.DateLayout), t.Category, t.Subcategory, t.Amount.StringFixed(2), t.Comment)
	}
	tw.Flush()
}

func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>...",
		Short:   "Delete transactions by id",
		Example: "  pftracker delete 3 7 12",
		Args:    cobra.MinimumNArgs(1),
		RunE: withApp(rootOpts, func(a *app, cmd *cobra.Command, args []string) error {
			ids := make([]uint, 0, len(args))
			for _, s := range args {
				id, err := strconv.ParseUint(s, 10, 64)
				if err != nil {
					return WrapExitError(ExitFailure, "invalid id", err)
				}
				ids = append(ids, uint(id))
			}

			n, report, err := a.service.DeleteTransactions(cmd.Context(), ids, nil, nil)
			if err != nil {
				return ledgerError("delete transactions", err)
			}
			return formatter(rootOpts, cmd).Success(map[string]int64{"deleted": n}, report, func(w io.Writer) {
				fmt.Fprintf(w, "deleted %d transaction(s)\n", n)
			})
		}),
	}
}

// SummaryOptions holds flags for the summary command.
type SummaryOptions struct {
	*RootOptions
	Year int
}

func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SummaryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Investment totals per subcategory for a year",
		Args:  cobra.NoArgs,
		RunE: withApp(rootOpts, func(a *app, cmd *cobra.Command, _ []string) error {
			totals, err := a.store.InvestmentSummary(cmd.Context(), ledger.Query{Year: opts.Year})
			if err != nil {
				return ledgerError("summary", err)
			}
			return formatter(rootOpts, cmd).Success(totals, nil, func(w io.Writer) {
				if len(totals) == 0 {
					fmt.Fprintf(w, "no investments in %d\n", opts.Year)
					return
				}
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "SUBCATEGORY\tTOTAL")
				for _, t := range totals {
					fmt.Fprintf(tw, "%s\t%s\n", t.Subcategory, t.Total.StringFixed(2))
				}
				tw.Flush()
			})
		}),
	}

	cmd.Flags().IntVar(&opts.Year, "year", time.Now().Year(), "year to summarize")

	return cmd
}
