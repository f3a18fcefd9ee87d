package dataset_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tidewind/aircast/internal/dataset"
)

func TestWriteCSV(t *testing.T) {
	table := dataset.NewTable("location_id", "value")
	mustAppend(t, table, dataset.String("42"), dataset.String("10.5"))
	mustAppend(t, table, dataset.String("7"), dataset.NullValue())

	var buf bytes.Buffer
	assert.NoError(t, table.WriteCSV(&buf))
	assert.Equal(t, "location_id,value\n42,10.5\n7,\n", buf.String())
}

func TestReadCSV_EmptyFieldsBecomeNull(t *testing.T) {
	table, err := dataset.ReadCSV(strings.NewReader("a,b\n1,\n,2\n"))
	assert.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, "1", table.Cell(0, "a").Raw)
	assert.True(t, table.Cell(0, "b").Null)
	assert.True(t, table.Cell(1, "a").Null)
}

func TestWriteReadCSV_RoundTrip(t *testing.T) {
	table := dataset.NewTable("location_id", "location_name", "value", "timestamp")
	mustAppend(t, table,
		dataset.String("42"), dataset.String("Wellington Central"), dataset.String("10.50"), dataset.String("2023-01-02 01:00:00"))
	mustAppend(t, table,
		dataset.String("7"), dataset.NullValue(), dataset.String("0.25"), dataset.String("2023-01-03 01:00:00"))

	var buf bytes.Buffer
	assert.NoError(t, table.WriteCSV(&buf))

	got, err := dataset.ReadCSV(&buf)
	assert.NoError(t, err)
	assert.Equal(t, table.Columns(), got.Columns())
	assert.Equal(t, table.Len(), got.Len())
	for row := 0; row < table.Len(); row++ {
		for _, column := range table.Columns() {
			assert.Equal(t, table.Cell(row, column), got.Cell(row, column),
				"row %d column %s", row, column)
		}
	}
}

// Empty strings serialize to empty fields, which read back as nulls; blank
// cells and missing cells are indistinguishable in CSV.
func TestWriteReadCSV_EmptyStringDegradesToNull(t *testing.T) {
	table := dataset.NewTable("location_id", "provider")
	mustAppend(t, table, dataset.String("42"), dataset.String(""))

	var buf bytes.Buffer
	assert.NoError(t, table.WriteCSV(&buf))

	got, err := dataset.ReadCSV(&buf)
	assert.NoError(t, err)
	assert.Equal(t, "42", got.Cell(0, "location_id").Raw)
	assert.True(t, got.Cell(0, "provider").Null)
}

func TestReadCSV_EmptyInput(t *testing.T) {
	table, err := dataset.ReadCSV(strings.NewReader(""))
	assert.NoError(t, err)
	assert.True(t, table.IsEmpty())
}

func TestReadCSV_ShortRecordsPadWithNulls(t *testing.T) {
	table, err := dataset.ReadCSV(strings.NewReader("a,b,c\n1,2\n"))
	assert.NoError(t, err)
	assert.Equal(t, 1, table.Len())
	assert.True(t, table.Cell(0, "c").Null)
}
