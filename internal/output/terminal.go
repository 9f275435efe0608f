package output

import (
	"os"

	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ColorDisabled decides whether colored output should be turned off: on
// request, when NO_COLOR is set, or when stdout is not a terminal.
func ColorDisabled(requested bool) bool {
	if requested {
		return true
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	return !IsTerminal(os.Stdout)
}
