package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDecode_CSV(t *testing.T) {
	rows, err := Decode("sites.csv", []byte("a,b,c\r\n\n1,\"2,3\",4\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"1", "2,3", "4"}}, rows)
}

func TestDecode_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"name", "address", "city", "lat", "lng", "notes"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Gateway Arch", "", "St Louis", 38.6247, -90.1848}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"Capitol", "201 W Capitol Ave"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := Decode("upload.XLSX", buf.Bytes())
	require.NoError(t, err)

	require.Len(t, rows, 3, "blank row 3 is skipped")
	assert.Equal(t, []string{"name", "address", "city", "lat", "lng", "notes"}, rows[0])
	assert.Equal(t, "Gateway Arch", rows[1][0])
	assert.Equal(t, "38.6247", rows[1][3])
	assert.Len(t, rows[1], 6, "short rows are padded to the header width")
	assert.Len(t, rows[2], 6)
}

func TestDecode_BadWorkbook(t *testing.T) {
	_, err := Decode("broken.xlsx", []byte("not a zip"))
	assert.Error(t, err)
}
