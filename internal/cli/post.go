package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rent-finder/internal/client"
	"github.com/evcraddock/rent-finder/internal/gateway"
	"github.com/evcraddock/rent-finder/internal/posting"
)

func newPostCmd() *cobra.Command {
	var images []string

	cmd := &cobra.Command{
		Use:   "post <form.json>",
		Short: "Post a new apartment listing (admin)",
		Long: `Post a new apartment listing from a JSON form file. Images given with
--image are uploaded first and appended to the form's images.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(args[0], images)
		},
	}

	cmd.Flags().StringArrayVar(&images, "image", nil, "local image to upload (repeatable)")

	return cmd
}

// readForm loads a posting form from a JSON file.
func readForm(path string) (posting.Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return posting.Form{}, fmt.Errorf("reading form: %w", err)
	}
	var f posting.Form
	if err := json.Unmarshal(data, &f); err != nil {
		return posting.Form{}, fmt.Errorf("parsing form %s: %w", path, err)
	}
	return f, nil
}

func runPost(path string, images []string) error {
	form, err := readForm(path)
	if err != nil {
		return err
	}
	if err := form.Validate(); err != nil {
		return formError(err)
	}

	c := newAPIClient()
	for _, img := range images {
		u, err := uploadFile(c, img)
		if err != nil {
			return err
		}
		form.Images = append(form.Images, u)
	}

	id, err := c.PostApartment(form)
	if err != nil {
		return formError(err)
	}

	if isJSON() {
		return printJSON(map[string]string{"id": id})
	}
	printOK("Apartment %s posted.", id)
	return nil
}

func uploadFile(c *client.Client, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening image: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "warning: closing %s: %v\n", path, cerr)
		}
	}()

	u, err := c.Upload(filepath.Base(path), f)
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", path, err)
	}
	return u, nil
}

// formError appends the offending field names to a validation failure.
func formError(err error) error {
	var fields []string
	var apiErr *client.APIError
	var verr *gateway.ValidationError
	switch {
	case errors.As(err, &apiErr):
		fields = apiErr.Fields
	case errors.As(err, &verr):
		fields = verr.Fields
	}
	if len(fields) == 0 {
		return err
	}
	return fmt.Errorf("%w (fields: %s)", err, strings.Join(fields, ", "))
}
