package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show apartment details",
		Long:  "Show full details for an apartment, including its comment thread.",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	c := newAPIClient()

	st, err := c.GetApartment(args[0])
	if err != nil {
		return err
	}
	th, err := c.ListComments(args[0])
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]interface{}{"detail": st, "thread": th})
	}

	printApartmentDetail(os.Stdout, *st)
	fmt.Println("\nComments:")
	printThread(os.Stdout, *th)
	return nil
}
