package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/textindexer/internal/ui"
	"github.com/Aman-CERP/textindexer/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var jsonOutput, shortOutput bool

	cmd := &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Long:        `Print the version, commit, build date, Go version and platform of this binary.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			switch {
			case shortOutput:
				_, err := fmt.Fprintln(out, version.Short())
				return err
			case jsonOutput:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(version.GetInfo())
			default:
				return printVersion(out, version.GetInfo())
			}
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")
	cmd.Flags().BoolVar(&shortOutput, "short", false, "Output only the version number")
	cmd.MarkFlagsMutuallyExclusive("json", "short")

	return cmd
}

func printVersion(w io.Writer, info version.BuildInfo) error {
	s := ui.GetStyles(ui.NoColorFor(w))
	commit := info.Commit
	if info.Modified {
		commit += " (modified)"
	}
	_, err := fmt.Fprintf(w, "%s %s\n  %s %s\n  %s %s\n  %s %s, %s\n",
		s.Header.Render("textindexer"), info.Version,
		s.Label.Render("commit:"), commit,
		s.Label.Render("built: "), info.Date,
		s.Label.Render("go:    "), info.GoVersion, info.Platform())
	return err
}
