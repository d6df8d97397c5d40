package moderation

import (
	"bytes"
	"context"
	"fmt"

	"github.com/360EntSecGroup-Skylar/excelize"
)

var exportHeaders = []string{
	"ID", "Barcode", "Name", "Brand", "Category",
	"Calories", "Protein", "Carbs", "Fat",
	"Source", "Status", "Verified", "Notes", "CreatedBy", "CreatedAt",
}

// ExportQueue renders the moderation queue as an XLSX workbook.
func (w *Workflow) ExportQueue(ctx context.Context, status string) (*bytes.Buffer, error) {
	rows, _, err := w.Queue(ctx, status)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Sheet1"
	for col, h := range exportHeaders {
		f.SetCellValue(sheet, cellName(col, 1), h)
	}
	for i, row := range rows {
		line := i + 2
		f.SetCellValue(sheet, cellName(0, line), row.ID)
		f.SetCellValue(sheet, cellName(1, line), row.Barcode)
		f.SetCellValue(sheet, cellName(2, line), row.Name)
		f.SetCellValue(sheet, cellName(3, line), row.Brand)
		f.SetCellValue(sheet, cellName(4, line), row.Category)
		f.SetCellValue(sheet, cellName(5, line), row.Calories)
		f.SetCellValue(sheet, cellName(6, line), row.Protein)
		f.SetCellValue(sheet, cellName(7, line), row.Carbs)
		f.SetCellValue(sheet, cellName(8, line), row.Fat)
		f.SetCellValue(sheet, cellName(9, line), row.Source)
		f.SetCellValue(sheet, cellName(10, line), row.VerificationStatus)
		f.SetCellValue(sheet, cellName(11, line), row.IsVerified)
		f.SetCellValue(sheet, cellName(12, line), row.ModeratorNotes)
		f.SetCellValue(sheet, cellName(13, line), row.CreatedBy)
		f.SetCellValue(sheet, cellName(14, line), row.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}

func cellName(col, row int) string {
	name := ""
	for col >= 0 {
		name = string(rune('A'+col%26)) + name
		col = col/26 - 1
	}
	return fmt.Sprintf("%s%d", name, row)
}
