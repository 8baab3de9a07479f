package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/crossroads-etl-service/internal/domain"
)

// Decode turns a source object into tokenized rows, header first. Objects
// whose name ends in .xlsx are read from their first sheet; everything else is
// treated as CSV text.
func Decode(fileName string, data []byte) ([][]string, error) {
	if strings.EqualFold(path.Ext(fileName), ".xlsx") {
		return decodeXLSX(data)
	}
	return domain.TokenizeCSV(string(data)), nil
}

func decodeXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows of %q: %w", sheet, err)
	}

	// GetRows drops trailing empty cells, so pad data rows to the header width
	// and skip rows with no content at all.
	out := make([][]string, 0, len(rows))
	width := 0
	for _, row := range rows {
		if blank(row) {
			continue
		}
		cells := make([]string, 0, max(len(row), width))
		for _, c := range row {
			cells = append(cells, strings.TrimSpace(c))
		}
		if width == 0 {
			width = len(cells)
		}
		for len(cells) < width {
			cells = append(cells, "")
		}
		out = append(out, cells)
	}
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
