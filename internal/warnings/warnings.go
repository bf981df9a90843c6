// Package warnings prints non-fatal diagnostic messages to the error stream.
// A warning never interrupts control flow.
package warnings

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu  sync.Mutex
	out io.Writer = os.Stderr
)

// SetOutput redirects warning output, mainly for tests. It returns the
// previous writer so callers can restore it.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

// Warn prints a warning message to the configured output.
func Warn(msg string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(out, msg)
}

// Warnf prints a formatted warning message to the configured output.
func Warnf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, format+"\n", args...)
}
