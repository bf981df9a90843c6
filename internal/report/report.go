// Package report renders a human-readable summary of an observation store.
package report

import (
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/verdantlab/phenotrack/internal/observations"
)

// Write prints a plain-text summary of the store, one block per sample.
func Write(w io.Writer, store *observations.Store) error {
	p := message.NewPrinter(language.English)

	if _, err := p.Fprintf(w, "Run %s\n", store.RunID()); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	samples := store.Samples()
	if _, err := p.Fprintf(w, "%d samples, %d observations\n", len(samples), store.Len()); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	for _, sample := range samples {
		if _, err := p.Fprintf(w, "\n%s\n", sample); err != nil {
			return fmt.Errorf("report: %w", err)
		}
		for _, variable := range store.Variables(sample) {
			obs, ok := store.Get(sample, variable)
			if !ok {
				continue
			}
			if _, err := p.Fprintf(w, "  %-28s %s\n", variable, formatValue(p, obs)); err != nil {
				return fmt.Errorf("report: %w", err)
			}
		}
	}
	return nil
}

func formatValue(p *message.Printer, obs observations.Observation) string {
	suffix := ""
	if obs.Scale != "" && obs.Scale != "none" {
		suffix = " " + obs.Scale
	}

	switch v := obs.Value.(type) {
	case nil:
		return "n/a"
	case []float64:
		return p.Sprintf("%d values%s", len(v), suffix)
	case float64:
		return p.Sprintf("%.2f%s", v, suffix)
	case int:
		return p.Sprintf("%d%s", v, suffix)
	default:
		return p.Sprintf("%v%s", v, suffix)
	}
}
