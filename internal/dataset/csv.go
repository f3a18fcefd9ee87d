package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV serializes the table as CSV text with a header row and no index
// column. Null cells are written as empty fields.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(t.columns))
	for _, row := range t.rows {
		for i, v := range row {
			if v.Null {
				record[i] = ""
			} else {
				record[i] = v.Raw
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses CSV text into a table. The first record is the header. Empty
// fields are read back as null cells, matching how missing measurements appear
// in the archive's daily files.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return NewTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	t := NewTable(header...)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		row := make([]Value, len(header))
		for i := range header {
			if i < len(record) && record[i] != "" {
				row[i] = String(record[i])
			} else {
				row[i] = NullValue()
			}
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}
