package output

import (
	"github.com/fatih/color"
)

// ColorScheme defines the colors used for different elements in the output
type ColorScheme struct {
	Method      *color.Color
	URL         *color.Color
	StatusOK    *color.Color
	StatusWarn  *color.Color
	StatusError *color.Color
	HeaderKey   *color.Color
	Label       *color.Color
}

// NewColorScheme returns the default scheme, or one with every color disabled.
func NewColorScheme(noColor bool) *ColorScheme {
	scheme := &ColorScheme{
		Method:      color.New(color.FgBlue, color.Bold),
		URL:         color.New(color.FgCyan),
		StatusOK:    color.New(color.FgGreen, color.Bold),
		StatusWarn:  color.New(color.FgYellow, color.Bold),
		StatusError: color.New(color.FgRed, color.Bold),
		HeaderKey:   color.New(color.FgYellow),
		Label:       color.New(color.FgMagenta, color.Bold),
	}
	if noColor {
		for _, c := range []*color.Color{
			scheme.Method, scheme.URL, scheme.StatusOK, scheme.StatusWarn,
			scheme.StatusError, scheme.HeaderKey, scheme.Label,
		} {
			c.DisableColor()
		}
	}
	return scheme
}

// Status picks the color for a status code. Only 200 counts as OK, matching
// rest.Response.Success; other 2xx and 3xx codes are shown as warnings.
func (s *ColorScheme) Status(code int) *color.Color {
	switch {
	case code == 200:
		return s.StatusOK
	case code >= 200 && code < 400:
		return s.StatusWarn
	default:
		return s.StatusError
	}
}

// SuccessIcon returns a checkmark symbol with appropriate color
func SuccessIcon(noColor bool) string {
	if noColor {
		return "✓"
	}
	return color.New(color.FgGreen).Sprint("✓")
}

// ErrorIcon returns an X symbol with appropriate color
func ErrorIcon(noColor bool) string {
	if noColor {
		return "✗"
	}
	return color.New(color.FgRed).Sprint("✗")
}
