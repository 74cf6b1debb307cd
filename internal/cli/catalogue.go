package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCatalogueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalogue",
		Short: "Show the choices accepted by post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := newAPIClient().Catalogue()
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cat)
			}
			fmt.Printf("Buildings:   %s\n", strings.Join(cat.Buildings, ", "))
			fmt.Printf("Lease types: %s\n", strings.Join(cat.LeaseTypes, ", "))
			fmt.Printf("Amenities:   %s\n", strings.Join(cat.Amenities, ", "))
			return nil
		},
	}
}
