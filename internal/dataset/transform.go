package dataset

import (
	"strconv"
	"strings"
	"time"

	"github.com/tidewind/aircast/internal/openaq"
)

// Each transform step is a pure function from input table to output table; the
// input is never mutated. The full cleaning sequence applied before a city's
// dataset is written is EnrichWithMetadata followed by Clean.

// timestampFormats are the layouts tried when deriving the timestamp column.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// EnrichWithMetadata adds location_name and provider columns, looked up from
// the metadata mapping by each row's location_id. A row whose identifier is
// missing from the mapping gets empty strings, not an error — and an empty
// string is not a null, so such rows survive the later null drop.
func EnrichWithMetadata(t *Table, metadata map[int64]openaq.LocationMetadata) *Table {
	lookup := func(row int, pick func(openaq.LocationMetadata) string) Value {
		id, ok := parseLocationID(t.Cell(row, "location_id"))
		if !ok {
			return String("")
		}
		meta, ok := metadata[id]
		if !ok {
			return String("")
		}
		return String(pick(meta))
	}

	out := t.WithColumn("location_name", func(row int) Value {
		return lookup(row, func(m openaq.LocationMetadata) string { return m.LocationName })
	})
	return out.WithColumn("provider", func(row int) Value {
		return lookup(row, func(m openaq.LocationMetadata) string { return m.Provider })
	})
}

// parseLocationID reads a location identifier cell. Archive files carry it as
// an integer, but a float rendering ("2178.0") is tolerated.
func parseLocationID(v Value) (int64, bool) {
	if v.Null {
		return 0, false
	}
	s := strings.TrimSpace(v.Raw)
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f), true
	}
	return 0, false
}

// NormalizeColumnNames lowercases every column name and replaces spaces with
// underscores.
func NormalizeColumnNames(t *Table) *Table {
	out := t.Copy()
	for i, c := range out.columns {
		out.columns[i] = strings.ReplaceAll(strings.ToLower(c), " ", "_")
	}
	return out
}

// EnsureLocationColumn inserts a constant "Unknown" location column when none
// exists.
func EnsureLocationColumn(t *Table) *Table {
	if t.HasColumn("location") {
		return t.Copy()
	}
	return t.WithColumn("location", func(int) Value { return String("Unknown") })
}

// DeriveTimestamp parses the date column (falling back to the archive's
// datetime column) into a timestamp column rendered as RFC 3339. Unparseable
// values become null cells, not a fatal error. If neither source column exists
// the table is returned unchanged.
func DeriveTimestamp(t *Table) *Table {
	source := ""
	for _, candidate := range []string{"date", "datetime"} {
		if t.HasColumn(candidate) {
			source = candidate
			break
		}
	}
	if source == "" {
		return t.Copy()
	}

	return t.WithColumn("timestamp", func(row int) Value {
		cell := t.Cell(row, source)
		if cell.Null {
			return NullValue()
		}
		for _, layout := range timestampFormats {
			if ts, err := time.Parse(layout, strings.TrimSpace(cell.Raw)); err == nil {
				return String(ts.Format(time.RFC3339))
			}
		}
		return NullValue()
	})
}

// DropDuplicates removes rows that are exact duplicates of an earlier row,
// keeping the first occurrence.
func DropDuplicates(t *Table) *Table {
	out := NewTable(t.columns...)
	seen := make(map[string]struct{}, t.Len())
	for _, row := range t.rows {
		key := rowKey(row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cloned := make([]Value, len(row))
		copy(cloned, row)
		out.rows = append(out.rows, cloned)
	}
	return out
}

// DropNulls removes rows containing any null cell.
func DropNulls(t *Table) *Table {
	out := NewTable(t.columns...)
	for _, row := range t.rows {
		hasNull := false
		for _, v := range row {
			if v.Null {
				hasNull = true
				break
			}
		}
		if hasNull {
			continue
		}
		cloned := make([]Value, len(row))
		copy(cloned, row)
		out.rows = append(out.rows, cloned)
	}
	return out
}

// rowKey builds a collision-safe identity key for duplicate detection. The
// null flag is encoded so a null cell never equals an empty string.
func rowKey(row []Value) string {
	var b strings.Builder
	for _, v := range row {
		if v.Null {
			b.WriteString("\x00N")
		} else {
			b.WriteString("\x00V")
			b.WriteString(strconv.Itoa(len(v.Raw)))
			b.WriteString(":")
			b.WriteString(v.Raw)
		}
	}
	return b.String()
}

// Clean applies the full transform sequence: column-name normalization, the
// location placeholder, timestamp derivation, duplicate removal, then null
// removal — in that order. Duplicate removal runs first so a row that is both
// a duplicate and null-bearing is accounted to the duplicate step. Empty input
// yields empty output without error, and Clean is idempotent on already-clean
// input.
func Clean(t *Table) *Table {
	out := NormalizeColumnNames(t)
	out = EnsureLocationColumn(out)
	out = DeriveTimestamp(out)
	out = DropDuplicates(out)
	return DropNulls(out)
}
