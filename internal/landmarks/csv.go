// Package landmarks reads and writes pseudo-landmark tables. The on-disk
// format is CSV with a "plmname,group,..." header followed by one embedding
// coordinate per remaining column; an empty group cell means unassigned.
package landmarks

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/verdantlab/phenotrack/internal/homology"
)

// ReadTable parses a landmark table from CSV.
func ReadTable(r io.Reader) (homology.Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("landmarks: reading CSV header: %w", err)
	}
	if len(header) < 3 || header[0] != "plmname" || header[1] != "group" {
		return nil, fmt.Errorf("landmarks: header must start with plmname,group and carry at least one coordinate column, got %v", header)
	}
	dim := len(header) - 2

	var table homology.Table
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("landmarks: reading CSV line %d: %w", line, err)
		}
		if len(record) != dim+2 {
			return nil, fmt.Errorf("landmarks: line %d has %d fields, want %d", line, len(record), dim+2)
		}

		lm := homology.Landmark{Name: record[0], Embedding: make([]float64, dim)}
		if record[1] != "" {
			id, err := strconv.Atoi(record[1])
			if err != nil {
				return nil, fmt.Errorf("landmarks: line %d has invalid group %q: %w", line, record[1], err)
			}
			lm.Group = homology.GroupID(id)
		}
		for i := 0; i < dim; i++ {
			v, err := strconv.ParseFloat(record[i+2], 64)
			if err != nil {
				return nil, fmt.Errorf("landmarks: line %d column %s: %w", line, header[i+2], err)
			}
			lm.Embedding[i] = v
		}
		table = append(table, lm)
	}
	return table, nil
}

// WriteTable writes a landmark table as CSV, mirroring the format accepted
// by ReadTable. All rows must share the same embedding dimension.
func WriteTable(w io.Writer, table homology.Table) error {
	dim := 0
	if len(table) > 0 {
		dim = len(table[0].Embedding)
	}

	cw := csv.NewWriter(w)
	header := make([]string, 0, dim+2)
	header = append(header, "plmname", "group")
	for i := 1; i <= dim; i++ {
		header = append(header, fmt.Sprintf("pc%d", i))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("landmarks: writing CSV header: %w", err)
	}

	for i, lm := range table {
		if len(lm.Embedding) != dim {
			return fmt.Errorf("landmarks: row %d has dimension %d, want %d", i, len(lm.Embedding), dim)
		}
		record := make([]string, 0, dim+2)
		record = append(record, lm.Name)
		if lm.Group.Valid {
			record = append(record, strconv.Itoa(lm.Group.ID))
		} else {
			record = append(record, "")
		}
		for _, v := range lm.Embedding {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("landmarks: writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("landmarks: flushing CSV: %w", err)
	}
	return nil
}
