package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/evcraddock/rent-finder/internal/apartment"
	"github.com/evcraddock/rent-finder/internal/comment"
	"github.com/evcraddock/rent-finder/internal/detail"
	"github.com/evcraddock/rent-finder/internal/thread"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	dimColor  = color.New(color.Faint)
	favColor  = color.New(color.FgRed, color.Bold)
)

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printOK prints a success line.
func printOK(format string, args ...interface{}) {
	if _, err := okColor.Printf("✓ "+format+"\n", args...); err != nil {
		fmt.Fprintf(os.Stderr, "warning: writing output: %v\n", err)
	}
}

// printApartmentTable prints apartments as a table, favorites marked.
func printApartmentTable(w io.Writer, list []apartment.Apartment) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No apartments found.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"", "ID", "Title", "Building", "Rent", "Sqft", "Bed/Bath", "Lease"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, a := range list {
		table.Append([]string{
			favoriteMark(a.IsFavorite),
			a.ID,
			truncate(a.Title, 32),
			truncate(a.DisplayBuilding(), 24),
			formatRent(a.Rent),
			fmt.Sprintf("%d", a.Details.SquareFeet),
			fmt.Sprintf("%d/%d", a.Details.Beds, a.Details.Baths),
			a.Details.LeaseType,
		})
	}
	table.Render()

	fmt.Fprintf(w, "\nTotal: %d apartments\n", len(list))
}

// printFavorites prints the favorites carousel as a single line.
func printFavorites(w io.Writer, favs []apartment.Apartment) {
	titles := make([]string, 0, len(favs))
	for _, a := range favs {
		titles = append(titles, a.Title)
	}
	fmt.Fprintf(w, "%s %s\n\n", favColor.Sprint("♥ Favorites:"), strings.Join(titles, ", "))
}

// printApartmentDetail prints one apartment in text format.
func printApartmentDetail(w io.Writer, st detail.State) {
	a := st.Apartment
	if a == nil {
		return
	}

	fmt.Fprintln(w, dimColor.Sprint(strings.Join(st.Breadcrumbs, " › ")))
	fmt.Fprintf(w, "%s %s\n", a.Title, favoriteMark(a.IsFavorite))
	fmt.Fprintf(w, "  ID:         %s\n", a.ID)
	fmt.Fprintf(w, "  Building:   %s\n", st.Building)
	fmt.Fprintf(w, "  Address:    %s\n", a.Location.StreetAddress)
	fmt.Fprintf(w, "  Rent:       %s\n", formatRent(a.Rent))
	fmt.Fprintf(w, "  Size:       %d sqft, %d bed, %d bath\n", a.Details.SquareFeet, a.Details.Beds, a.Details.Baths)
	fmt.Fprintf(w, "  Lease:      %s\n", a.Details.LeaseType)
	fmt.Fprintf(w, "  Shared:     %s\n", yesNo(a.IsShared))
	fmt.Fprintf(w, "  Furnished:  %s\n", yesNo(a.IsFurnished))
	fmt.Fprintf(w, "  Utilities:  %s\n", yesNo(a.UtilitiesIncluded))
	fmt.Fprintf(w, "  Amenities:  %s\n", st.Amenities)
	fmt.Fprintf(w, "  Contact:    %s <%s>\n", a.ContactName, a.ContactEmail)
	fmt.Fprintf(w, "  Images:     %d\n", len(a.Images))
	fmt.Fprintf(w, "\n%s\n", a.Description)
}

// printThread prints comments with their replies indented beneath.
func printThread(w io.Writer, st thread.State) {
	if len(st.Comments) == 0 {
		fmt.Fprintln(w, "No comments.")
		return
	}

	for _, c := range st.Comments {
		printComment(w, c, "")
		for _, r := range st.Replies[c.ID] {
			printComment(w, r, "    ↳ ")
		}
		fmt.Fprintln(w)
	}
}

func printComment(w io.Writer, c comment.Comment, prefix string) {
	fmt.Fprintf(w, "%s%s %s %s\n", prefix,
		dimColor.Sprintf("[%s]", c.CreatedAt.Format("2006-01-02 15:04")),
		c.Username,
		dimColor.Sprintf("(%s)", c.ID))
	indent := strings.Repeat(" ", len([]rune(prefix))+2)
	fmt.Fprintf(w, "%s%s\n", indent, c.Text)
}

// formatRent formats a monthly rent with thousands separators.
func formatRent(r apartment.Rent) string {
	s := "$" + formatPrice(int64(r.Amount)) + "/mo"
	if r.Negotiable {
		s += " (negotiable)"
	}
	return s
}

// formatPrice formats a dollar amount as a string with commas.
func formatPrice(dollars int64) string {
	s := fmt.Sprintf("%d", dollars)

	if len(s) <= 3 {
		return s
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	return strings.Join(parts, ",")
}

func favoriteMark(fav bool) string {
	if fav {
		return favColor.Sprint("♥")
	}
	return ""
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
