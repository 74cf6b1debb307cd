package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rent-finder/internal/apartment"
	"github.com/evcraddock/rent-finder/internal/client"
)

func newListCmd() *cobra.Command {
	var filter, sort string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List apartments",
		Long:  "List apartment listings, optionally filtered by title or address and sorted by rent or size.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(filter, sort)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "match title or street address")
	cmd.Flags().StringVar(&sort, "sort", "", "sort order (rentAsc|rentDesc|sizeAsc|sizeDesc)")

	return cmd
}

func runList(filter, sort string) error {
	if _, err := apartment.ParseSortKey(sort); err != nil {
		return err
	}

	st, err := newAPIClient().ListApartments(client.ListOptions{Filter: filter, Sort: sort})
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(st)
	}

	if st.ShowCarousel {
		printFavorites(os.Stdout, st.Favorites)
	}
	printApartmentTable(os.Stdout, st.Visible)
	return nil
}
