package pdf

import (
	"github.com/a3tai/mcp-pdf-boxes/internal/boxes"
)

// Overrides replaces configured extraction options for a single request.
// Nil and empty fields keep the configured value.
type Overrides struct {
	RangeStart   *int     `json:"range_start,omitempty"`
	RangeEnd     *int     `json:"range_end,omitempty"`
	YTolerance   *float64 `json:"y_tolerance,omitempty"`
	NumberFormat string   `json:"number_format,omitempty"`
	Assignment   string   `json:"assignment,omitempty"`
}

// Request Types

// PDFExtractBoxesRequest represents a request to extract the box table of a PDF file
type PDFExtractBoxesRequest struct {
	Path        string    `json:"path"`
	Password    string    `json:"password,omitempty"`
	Overrides   Overrides `json:"overrides"`
	OnlyMatched bool      `json:"only_matched,omitempty"`
}

// PDFExportBoxesRequest represents a request to extract a PDF file and write the table to disk
type PDFExportBoxesRequest struct {
	Path      string    `json:"path"`
	Output    string    `json:"output"`
	Format    string    `json:"format,omitempty"` // inferred from Output when empty
	Password  string    `json:"password,omitempty"`
	Overrides Overrides `json:"overrides"`
}

// PDFValidateFileRequest represents a request to validate a PDF file
type PDFValidateFileRequest struct {
	Path     string `json:"path"`
	Password string `json:"password,omitempty"`
}

// Response Types

// PDFExtractBoxesResult represents the result of a box extraction
type PDFExtractBoxesResult struct {
	Path      string              `json:"path,omitempty"`
	Size      int64               `json:"size"`
	Pages     int                 `json:"pages"`
	Encrypted bool                `json:"encrypted"`
	Version   string              `json:"version,omitempty"`
	Range     boxes.Range         `json:"range"`
	Format    string              `json:"number_format"`
	Matched   int                 `json:"matched"`
	Rows      boxes.Table         `json:"rows"`
	PageStats []boxes.PageSummary `json:"page_stats"`
}

// PDFExportBoxesResult represents the result of an export
type PDFExportBoxesResult struct {
	Path    string `json:"path"`
	Output  string `json:"output"`
	Format  string `json:"format"`
	Rows    int    `json:"rows"`
	Matched int    `json:"matched"`
}

// PDFValidateFileResult represents the result of a PDF validation operation
type PDFValidateFileResult struct {
	Valid     bool   `json:"valid"`
	Path      string `json:"path"`
	Message   string `json:"message,omitempty"`
	Pages     int    `json:"pages,omitempty"`
	Encrypted bool   `json:"encrypted,omitempty"`
	HasText   bool   `json:"has_text"` // false for scanned pages without positioned text
}

// PDFServerInfoResult represents server information and usage guidance
type PDFServerInfoResult struct {
	ServerName       string      `json:"server_name"`
	Version          string      `json:"version"`
	DefaultDirectory string      `json:"default_directory"`
	MaxFileSize      int64       `json:"max_file_size"`
	Defaults         boxes.Range `json:"default_range"`
	YTolerance       float64     `json:"y_tolerance"`
	NumberFormat     string      `json:"number_format"`
	NumberFormats    []string    `json:"number_formats"`
	Assignment       string      `json:"assignment"`
	AvailableTools   []ToolInfo  `json:"available_tools"`
	UsageGuidance    string      `json:"usage_guidance"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}
