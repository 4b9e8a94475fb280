// Package export writes result tables to spreadsheet, CSV and JSON files.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-pdf-boxes/internal/boxes"
)

// Format is an output file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

const (
	DefaultSheet       = "Casillas"
	DefaultCodeHeader  = "Casilla"
	DefaultValueHeader = "Valor"

	filePerm = 0o644
)

// Options controls headers, sheet naming and how values are parsed
type Options struct {
	Sheet        string
	CodeHeader   string
	ValueHeader  string
	NumberFormat boxes.NumberFormat
}

// DefaultOptions returns options for the default form
func DefaultOptions() Options {
	return Options{
		Sheet:        DefaultSheet,
		CodeHeader:   DefaultCodeHeader,
		ValueHeader:  DefaultValueHeader,
		NumberFormat: boxes.FormatES,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Sheet == "" {
		o.Sheet = d.Sheet
	}
	if o.CodeHeader == "" {
		o.CodeHeader = d.CodeHeader
	}
	if o.ValueHeader == "" {
		o.ValueHeader = d.ValueHeader
	}
	if o.NumberFormat.Name == "" {
		o.NumberFormat = d.NumberFormat
	}
	return o
}

// ParseFormat resolves a format name, case-insensitively
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatXLSX, FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (must be one of: xlsx, csv, json)", name)
	}
}

// FormatFromPath picks the format matching the file extension
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot infer output format from %q", path)
	}
	return ParseFormat(ext)
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/json"
	}
}

// Write renders table in the given format
func Write(w io.Writer, format Format, table boxes.Table, opts Options) error {
	opts = opts.withDefaults()
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, table, opts)
	case FormatCSV:
		return WriteCSV(w, table, opts)
	case FormatJSON:
		return WriteJSON(w, table)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// WriteFile writes table to path. An empty format is inferred from the extension.
func WriteFile(path string, format Format, table boxes.Table, opts Options) (Format, error) {
	if format == "" {
		var err error
		if format, err = FormatFromPath(path); err != nil {
			return "", err
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return "", fmt.Errorf("cannot create output file: %w", err)
	}

	if err := Write(f, format, table, opts); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("cannot close output file: %w", err)
	}
	return format, nil
}

// WriteJSON writes the rows as a JSON array of {code, value}
func WriteJSON(w io.Writer, table boxes.Table) error {
	if table == nil {
		table = boxes.Table{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(table); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
