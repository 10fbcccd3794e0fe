package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
}

func TestVersion_CanBeOverridden(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate }()

	Version = "1.2.3"
	GitCommit = "abc123def456"
	BuildDate = "2024-01-15T10:30:00Z"

	info := Current()
	if info.Version != "1.2.3" || info.GitCommit != "abc123def456" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if s := info.String(); !strings.HasPrefix(s, "pytidy 1.2.3 (abc123def456) built 2024-01-15T10:30:00Z") {
		t.Fatalf("unexpected banner %q", s)
	}
}

func TestColoredWithoutColor(t *testing.T) {
	orig, origNoColor := Version, color.NoColor
	defer func() { Version, color.NoColor = orig, origNoColor }()
	color.NoColor = true

	Version = "2.0.1-rc1"
	if got := Colored(); got != "2.0.1-rc1" {
		t.Fatalf("Colored() = %q", got)
	}
	Version = "weird"
	if got := Colored(); got != "weird" {
		t.Fatalf("Colored() = %q", got)
	}
}
