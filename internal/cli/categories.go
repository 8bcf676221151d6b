package cli

import (
	"fmt"
	"io"
	"strings"

	"finance-tracker/internal/catalog"

	"github.com/spf13/cobra"
)

func NewCategoriesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Show the category table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats := catalog.All()
			return formatter(rootOpts, cmd).Success(cats, nil, func(w io.Writer) {
				for _, c := range cats {
					fmt.Fprintf(w, "%s: %s\n", c.Name, strings.Join(c.Subcategories, ", "))
				}
			})
		},
	}
}
