package formatter

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestXLSXFormatterWritesWorkbook(t *testing.T) {
	report := sampleReport(t)
	var buf bytes.Buffer

	require.NoError(t, NewXLSXFormatter("").Format(&buf, report))

	book, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer book.Close()

	assert.Equal(t, []string{recordsSheet, summarySheet}, book.GetSheetList())

	rows, err := book.GetRows(recordsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "Kind", rows[0][0])
	assert.Equal(t, []string{"client", "A", "Alpha Ltd", "sent", "2024-05-21 12:00", "11.0", "yes"}, rows[1])

	urgentStyle, err := book.GetCellStyle(recordsSheet, "A2")
	require.NoError(t, err)
	plainStyle, err := book.GetCellStyle(recordsSheet, "A3")
	require.NoError(t, err)
	assert.NotEqual(t, urgentStyle, plainStyle, "urgent rows are highlighted")

	summary, err := book.GetRows(summarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kind", "Total", "Urgent"}, summary[0])
	assert.Equal(t, []string{"Clients", "2", "1"}, summary[1])
}

func TestXLSXFormatterSavesFile(t *testing.T) {
	report := sampleReport(t)
	outFile := filepath.Join(t.TempDir(), "records.xlsx")
	var buf bytes.Buffer

	require.NoError(t, NewXLSXFormatter(outFile).Format(&buf, report))

	assert.Contains(t, buf.String(), "Wrote 4 records to "+outFile)
	book, err := excelize.OpenFile(outFile)
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(recordsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}
