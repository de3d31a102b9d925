// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package export

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"querydesk/cli/internal/sqlexec"
	"querydesk/cli/internal/value"
)

const (
	sheetName   = "Result"
	maxColWidth = 80
	minColWidth = 6
)

func writeXLSX(w io.Writer, resp *sqlexec.QueryResponse) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Debug("closing workbook", "error", err)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return err
	}

	widths, err := writeSheet(f, resp)
	if err != nil {
		return err
	}

	for i, width := range widths {
		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, colName, colName, width); err != nil {
			return err
		}
	}

	if err := freezeHeader(f); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

func writeSheet(f *excelize.File, resp *sqlexec.QueryResponse) ([]float64, error) {
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	widths := make([]float64, len(resp.Columns))
	header := make([]any, len(resp.Columns))
	for i, c := range resp.Columns {
		header[i] = excelize.Cell{Value: c, StyleID: headerStyle}
		widths[i] = clampWidth(len(c))
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, err
	}

	for r, row := range resp.Rows {
		cells := make([]any, len(resp.Columns))
		for i := range cells {
			if i >= len(row) {
				continue
			}
			cells[i] = cellValue(row[i])
			widths[i] = max(widths[i], clampWidth(len(row[i].String())))
		}

		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r+1, err)
		}
	}

	return widths, sw.Flush()
}

// cellValue keeps numbers numeric so spreadsheets can compute with them.
// Values beyond float64 precision stay text.
func cellValue(v value.Value) any {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		b, _ := v.AsBool()
		return b
	case value.KindInt:
		i, _ := v.AsInt()
		if i > 1<<53 || i < -(1<<53) {
			return v.String()
		}
		return i
	case value.KindFloat:
		f, _ := v.AsFloat()
		return f
	default:
		return v.String()
	}
}

func clampWidth(n int) float64 {
	return float64(min(max(n+2, minColWidth), maxColWidth))
}

func freezeHeader(f *excelize.File) error {
	return f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
