package diag

import (
	"fmt"
	"strings"
)

// Severity defines the importance of a finding.
type Severity uint8

const (
	// SevInfo is for informational findings.
	SevInfo Severity = iota
	// SevWarning is for warning findings.
	SevWarning
	// SevError is reserved for unit-level failures (syntax errors) shown alongside findings.
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "info"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	}
	return "unknown"
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "info":
		*s = SevInfo
	case "warning":
		*s = SevWarning
	case "error":
		*s = SevError
	default:
		return fmt.Errorf("unknown severity %q", string(b))
	}
	return nil
}
