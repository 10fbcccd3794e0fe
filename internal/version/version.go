package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fatih/color"
)

// Version information for the pytidy CLI.
// These variables can be overridden at build time via -ldflags.

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI.
	Version = "0.3.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Info is the machine-readable form printed by "pytidy version --format json".
type Info struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"git_commit,omitempty" yaml:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty" yaml:"build_date,omitempty"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

func Current() Info {
	return Info{Version: Version, GitCommit: GitCommit, BuildDate: BuildDate, GoVersion: runtime.Version()}
}

// Colored renders the version with each semver component colored;
// color.NoColor disables it.
func Colored() string {
	core, suffix, _ := strings.Cut(Version, "-")
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	out := versionMajorColor.Sprint(parts[0]) + "." + versionMinorColor.Sprint(parts[1]) + "." + versionPatchColor.Sprint(parts[2])
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}

// String returns the one-line banner.
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pytidy %s", i.Version)
	if i.GitCommit != "" {
		fmt.Fprintf(&b, " (%s)", i.GitCommit)
	}
	if i.BuildDate != "" {
		fmt.Fprintf(&b, " built %s", i.BuildDate)
	}
	fmt.Fprintf(&b, " %s", i.GoVersion)
	return b.String()
}
