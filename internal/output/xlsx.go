package output

import (
	"fmt"
	"strings"

	"github.com/ramkansal/maplead/pkg/plugin"
	"github.com/xuri/excelize/v2"
)

// XLSXPath returns the spreadsheet path that sits next to a CSV store.
func XLSXPath(csvPath string) string {
	return strings.TrimSuffix(csvPath, ".csv") + ".xlsx"
}

// ExportXLSX writes leads to a spreadsheet with the same columns as the CSV.
func ExportXLSX(path string, leads []plugin.Lead) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, h := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("header %s: %w", h, err)
		}
	}
	for r, l := range leads {
		vals := []string{l.Name, l.Website, l.WebsiteType, l.Phone, l.Address}
		for c, v := range vals {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("cell %s: %w", cell, err)
			}
		}
	}
	for i := 1; i <= len(Header); i++ {
		col, _ := excelize.ColumnNumberToName(i)
		_ = f.SetColWidth(sheet, col, col, 32)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
