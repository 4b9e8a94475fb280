package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/a3tai/mcp-pdf-boxes/internal/boxes"
)

// WriteCSV writes a header and one record per row. Values are written as the
// raw matched text so they round-trip unchanged.
func WriteCSV(w io.Writer, table boxes.Table, opts Options) error {
	opts = opts.withDefaults()
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{opts.CodeHeader, opts.ValueHeader}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range table {
		if err := cw.Write([]string{row.Code, row.Value}); err != nil {
			return fmt.Errorf("failed to write CSV row %s: %w", row.Code, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
