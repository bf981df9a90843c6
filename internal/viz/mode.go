// Package viz renders debug graphics for the analysis routines: dendrograms
// for the homology grouper and bar charts for the distribution analyzer.
// Rendering is always a side effect selected by an explicit Mode value that
// callers thread through their options; there is no process-wide debug state.
package viz

import "fmt"

// Mode selects the debug output behavior.
type Mode int

const (
	// Off disables debug output entirely.
	Off Mode = iota
	// Print writes debug graphics to files next to the configured prefix.
	Print
	// Plot is accepted for parity with interactive environments. The CLI has
	// no display surface, so Plot renders to files exactly like Print.
	Plot
)

// ParseMode parses a --debug flag value. Empty, "none" and "off" all map to
// Off.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "none", "off":
		return Off, nil
	case "print":
		return Print, nil
	case "plot":
		return Plot, nil
	}
	return Off, fmt.Errorf("viz: unknown debug mode %q (expected off, print or plot)", s)
}

func (m Mode) String() string {
	switch m {
	case Print:
		return "print"
	case Plot:
		return "plot"
	default:
		return "off"
	}
}

// Enabled reports whether any debug output should be produced.
func (m Mode) Enabled() bool { return m != Off }
