package services

import (
	"assetmap/models"
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// BuildScenePDF renders one frame of the scene as a single-page PDF.
func BuildScenePDF(scene Scene, w, h int) ([]byte, error) {
	canvas, err := NewPDFCanvas(w, h)
	if err != nil {
		return nil, err
	}
	PaintScene(canvas, scene)

	var buf bytes.Buffer
	if _, err := canvas.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildPositionsXLSX writes the current positions, one row per object.
func BuildPositionsXLSX(records []models.PositionRecord, lookup DescriptorLookup, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "positions"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := []string{"Object ID", "Name", "Category", "X", "Y", "Heading (deg)", "Valid", "Battery (%)", "Observed At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, rec := range records {
		row := i + 2
		name, category := "", string(models.DefaultCategory)
		if lookup != nil {
			if d, ok := lookup.Lookup(rec.ObjectID); ok {
				name, category = d.DisplayName, string(d.Category)
			}
		}
		values := []any{
			int64(rec.ObjectID),
			name,
			category,
			rec.X,
			rec.Y,
			models.HeadingDegrees(rec.Heading),
			rec.Valid,
			rec.BatteryPercentage,
			rec.ObservedAt.UTC().Format(time.RFC3339Nano),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	summary := "summary"
	if _, err := f.NewSheet(summary); err != nil {
		return nil, err
	}
	_ = f.SetCellValue(summary, "A1", "Asset Positions")
	_ = f.SetCellValue(summary, "A3", "Objects")
	_ = f.SetCellValue(summary, "B3", len(records))
	_ = f.SetCellValue(summary, "A4", "Generated")
	_ = f.SetCellValue(summary, "B4", generatedAt.UTC().Format(time.RFC3339))

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("XLSX 생성 실패: %w", err)
	}
	return buf.Bytes(), nil
}
