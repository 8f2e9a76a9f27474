// Package output creates terminal outputs whose colour depends on where the
// bytes go.
package output

import (
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Profile returns the colour profile for output written to w.
//
// NO_COLOR always disables colour. A terminal gets the profile it advertises.
// Other writers stay plain unless CI or CLICOLOR_FORCE is set, in which case
// they get basic ANSI colours that CI log viewers render.
func Profile(w io.Writer) termenv.Profile {
	switch {
	case os.Getenv("NO_COLOR") != "":
		return termenv.Ascii
	case IsTerminal(w):
		return termenv.EnvColorProfile()
	case forced():
		return termenv.ANSI
	default:
		return termenv.Ascii
	}
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}

func forced() bool {
	if v := os.Getenv("CLICOLOR_FORCE"); v != "" && v != "0" {
		return true
	}
	return os.Getenv("CI") != ""
}

// New creates a termenv.Output writing to w with the profile chosen for w.
func New(w io.Writer, opts ...termenv.OutputOption) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}

	opts = append(opts,
		termenv.WithProfile(Profile(w)),
		termenv.WithTTY(true),
	)
	return termenv.NewOutput(w, opts...)
}
