package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func newCommentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comments <id>",
		Short: "List comments on an apartment",
		Args:  cobra.ExactArgs(1),
		RunE:  runComments,
	}
}

func runComments(cmd *cobra.Command, args []string) error {
	st, err := newAPIClient().ListComments(args[0])
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(st)
	}

	printThread(os.Stdout, *st)
	return nil
}
