package cli

import (
	"github.com/spf13/cobra"
)

func newFavoriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "favorite <id>",
		Short: "Toggle an apartment's favorite flag",
		Args:  cobra.ExactArgs(1),
		RunE:  runFavorite,
	}
}

func runFavorite(cmd *cobra.Command, args []string) error {
	st, err := newAPIClient().ToggleFavorite(args[0])
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(st)
	}

	if st.Apartment.IsFavorite {
		printOK("%s added to favorites.", st.Apartment.Title)
	} else {
		printOK("%s removed from favorites.", st.Apartment.Title)
	}
	return nil
}
