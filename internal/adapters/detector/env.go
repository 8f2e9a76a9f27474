// Package detector selects the log format from the terminal environment.
package detector

import (
	"os"

	"go.trai.ch/zerr"
	"golang.org/x/term"
)

// LogFormat is the rendering of log entries on stderr.
type LogFormat int

const (
	// FormatAuto picks a format from the environment.
	FormatAuto LogFormat = iota
	// FormatPretty renders coloured, human-readable lines.
	FormatPretty
	// FormatJSON renders one JSON object per entry.
	FormatJSON
)

// ErrInvalidLogFormat is returned for an unknown --log-format value.
var ErrInvalidLogFormat = zerr.New("invalid log format")

func (f LogFormat) String() string {
	switch f {
	case FormatPretty:
		return "pretty"
	case FormatJSON:
		return "json"
	default:
		return "auto"
	}
}

// DetectEnvironment returns the format suited to the current process.
// Terminals and CI logs get pretty output; anything else is assumed to be a
// machine consumer and gets JSON.
func DetectEnvironment() LogFormat {
	if term.IsTerminal(int(os.Stderr.Fd())) || isCI() {
		return FormatPretty
	}
	return FormatJSON
}

func isCI() bool {
	ci := os.Getenv("CI")
	return ci == "true" || ci == "1"
}

// ResolveFormat applies the user's --log-format value to the detected format.
// flag should be one of "auto", "pretty", "json", or empty.
func ResolveFormat(detected LogFormat, flag string) (LogFormat, error) {
	switch flag {
	case "auto", "":
		return detected, nil
	case "pretty", "text":
		return FormatPretty, nil
	case "json":
		return FormatJSON, nil
	default:
		return detected, zerr.With(zerr.Wrap(ErrInvalidLogFormat, "resolve log format"), "value", flag)
	}
}
