package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pytidy/internal/version"
)

const versionTagline = "leave the code tidier than you found it"

var (
	versionFormat   string
	versionShowFull bool
)

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json|yaml)")
	versionCmd.Flags().BoolVar(&versionShowFull, "full", false, "show commit, build date and Go version")
}

type versionPayload struct {
	Tool         string `json:"tool" yaml:"tool"`
	version.Info `yaml:",inline"`
	Tagline      string `json:"tagline" yaml:"tagline"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show pytidy build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Current()
		out := cmd.OutOrStdout()
		switch strings.ToLower(versionFormat) {
		case "pretty":
			renderVersionPretty(out, info, versionShowFull)
			return nil
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(versionPayload{Tool: "pytidy", Info: info, Tagline: versionTagline})
		case "yaml":
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(versionPayload{Tool: "pytidy", Info: info, Tagline: versionTagline}); err != nil {
				return err
			}
			return enc.Close()
		default:
			return fmt.Errorf("unsupported format %q (must be pretty, json or yaml)", versionFormat)
		}
	},
}

func renderVersionPretty(out io.Writer, info version.Info, full bool) {
	fmt.Fprintf(out, "pytidy %s: %s\n", version.Colored(), versionTagline)
	if !full {
		return
	}
	fmt.Fprintf(out, "commit: %s\n", valueOrUnknown(info.GitCommit))
	fmt.Fprintf(out, "built:  %s\n", valueOrUnknown(info.BuildDate))
	fmt.Fprintf(out, "go:     %s\n", info.GoVersion)
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
