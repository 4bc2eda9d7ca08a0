package exchange

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// countRows returns the data row count of a tabular file: total rows minus
// the header. Any parse failure counts as 0.
func countRows(fileType string, data []byte) int {
	switch fileType {
	case "csv":
		return countCSVRows(data)
	case "xlsx":
		return countXLSXRows(data)
	case "xls":
		return countXLSRows(data)
	}
	return 0
}

func countCSVRows(data []byte) int {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	rows := 0
	for {
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0
		}
		rows++
	}
	if rows <= 1 {
		return 0
	}
	return rows - 1
}

func countXLSXRows(data []byte) int {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return 0
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return 0
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return 0
	}
	count := 0
	for _, row := range rows {
		if !rowEmpty(row) {
			count++
		}
	}
	if count <= 1 {
		return 0
	}
	return count - 1
}

func countXLSRows(data []byte) int {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return 0
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return 0
	}
	count := 0
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		empty := true
		for c := row.FirstCol(); c < row.LastCol(); c++ {
			if strings.TrimSpace(row.Col(c)) != "" {
				empty = false
				break
			}
		}
		if !empty {
			count++
		}
	}
	if count <= 1 {
		return 0
	}
	return count - 1
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
