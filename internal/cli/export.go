package cli

import (
	"fmt"
	"io"
	"os"

	"finance-tracker/internal/export"
	"finance-tracker/internal/ledger"

	"github.com/spf13/cobra"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Year   int
	Type   string
	Output string
}

func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Write transactions to an XLSX or CSV file",
		Example: "  pftracker export --year 2024 -o transactions_2024.xlsx",
		Args:    cobra.NoArgs,
		RunE: withApp(rootOpts, func(a *app, cmd *cobra.Command, _ []string) error {
			var write func(io.Writer, []export.Row) error
			switch opts.Type {
			case "xlsx":
				write = export.WriteXLSX
			case "csv":
				write = export.WriteCSV
			default:
				return WrapExitError(ExitFailure, "invalid --type", fmt.Errorf("%q is not xlsx or csv", opts.Type))
			}

			txs, err := a.store.QueryTransactions(cmd.Context(), ledger.Query{Year: opts.Year})
			if err != nil {
				return ledgerError("query transactions", err)
			}

			out := opts.Output
			if out == "" {
				out = "transactions." + opts.Type
			}
			f, err := os.Create(out)
			if err != nil {
				return WrapExitError(ExitCommandError, "create output", err)
			}
			if err := write(f, export.RowsFrom(txs)); err != nil {
				f.Close()
				return WrapExitError(ExitCommandError, "write export", err)
			}
			if err := f.Close(); err != nil {
				return WrapExitError(ExitCommandError, "write export", err)
			}

			result := map[string]interface{}{"file": out, "rows": len(txs)}
			return formatter(rootOpts, cmd).Success(result, nil, func(w io.Writer) {
				fmt.Fprintf(w, "wrote %d row(s) to %s\n", len(txs), out)
			})
		}),
	}

	cmd.Flags().IntVar(&opts.Year, "year", 0, "only transactions dated in this year")
	cmd.Flags().StringVar(&opts.Type, "type", "xlsx", "file type (xlsx|csv)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default transactions.<type>)")

	return cmd
}
