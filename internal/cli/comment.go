package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCommentCmd() *cobra.Command {
	var replyTo string

	cmd := &cobra.Command{
		Use:   `comment <id> "text"`,
		Short: "Comment on an apartment",
		Long:  "Add a comment to an apartment, or reply to a top-level comment with --reply-to.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComment(args[0], strings.Join(args[1:], " "), replyTo)
		},
	}

	cmd.Flags().StringVar(&replyTo, "reply-to", "", "ID of the comment to reply to")

	return cmd
}

func runComment(id, text, replyTo string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("comment text is required")
	}

	if err := newAPIClient().AddComment(id, text, replyTo); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]string{"status": "created"})
	}

	if replyTo != "" {
		printOK("Reply added.")
	} else {
		printOK("Comment added.")
	}
	return nil
}
