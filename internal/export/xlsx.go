package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/a3tai/mcp-pdf-boxes/internal/boxes"
)

const (
	// builtinNumFmtGrouped is "#,##0.00"
	builtinNumFmtGrouped = 4

	codeColumnWidth  = 12
	valueColumnWidth = 18
)

// WriteXLSX writes a single-sheet workbook. Codes are text cells so leading
// zeros survive; values that parse in the configured number format become
// numeric cells, others stay as text and empty values stay blank.
func WriteXLSX(w io.Writer, table boxes.Table, opts Options) error {
	opts = opts.withDefaults()

	f := excelize.NewFile()
	defer f.Close()

	sheet := opts.Sheet
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: builtinNumFmtGrouped})
	if err != nil {
		return fmt.Errorf("failed to create amount style: %w", err)
	}

	if err := f.SetCellStr(sheet, "A1", opts.CodeHeader); err != nil {
		return err
	}
	if err := f.SetCellStr(sheet, "B1", opts.ValueHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", headerStyle); err != nil {
		return err
	}

	for i, row := range table {
		r := i + 2
		codeCell, _ := excelize.CoordinatesToCellName(1, r)
		valueCell, _ := excelize.CoordinatesToCellName(2, r)

		if err := f.SetCellStr(sheet, codeCell, row.Code); err != nil {
			return fmt.Errorf("failed to write code %s: %w", row.Code, err)
		}
		if row.Value == "" {
			continue
		}

		amount, err := opts.NumberFormat.Parse(row.Value)
		if err != nil {
			if err := f.SetCellStr(sheet, valueCell, row.Value); err != nil {
				return fmt.Errorf("failed to write value for %s: %w", row.Code, err)
			}
			continue
		}
		if err := f.SetCellFloat(sheet, valueCell, amount.InexactFloat64(), 2, 64); err != nil {
			return fmt.Errorf("failed to write value for %s: %w", row.Code, err)
		}
		if err := f.SetCellStyle(sheet, valueCell, valueCell, amountStyle); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", codeColumnWidth); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", valueColumnWidth); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
