package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Build metadata, set at build time via -ldflags, e.g.
// -X github.com/evcraddock/rent-finder/internal/cli.Commit=abc123.
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)

// buildInfo describes the running rf binary.
type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"buildDate,omitempty"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// currentBuild collects the ldflags values, falling back to the VCS
// stamp the Go toolchain embeds when Commit was not set.
func currentBuild() buildInfo {
	b := buildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if b.Commit != "" {
		return b
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				b.Commit = s.Value
			case "vcs.time":
				if b.BuildDate == "" {
					b.BuildDate = s.Value
				}
			}
		}
	}
	return b
}

func (b buildInfo) shortCommit() string {
	if len(b.Commit) > 12 {
		return b.Commit[:12]
	}
	return b.Commit
}

func writeVersion(w io.Writer, b buildInfo, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	}

	line := "rf " + b.Version
	if c := b.shortCommit(); c != "" {
		line += " (" + c
		if b.BuildDate != "" {
			line += ", built " + b.BuildDate
		}
		line += ")"
	}
	_, err := fmt.Fprintf(w, "%s\n%s %s\n", line, b.GoVersion, b.Platform)
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the rf version and build details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeVersion(cmd.OutOrStdout(), currentBuild(), isJSON())
		},
	}
}
