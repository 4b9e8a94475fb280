package pdf

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-boxes/internal/boxes"
	"github.com/a3tai/mcp-pdf-boxes/internal/descriptions"
	"github.com/a3tai/mcp-pdf-boxes/internal/export"
	"github.com/a3tai/mcp-pdf-boxes/internal/pdf/security"
)

// Service handles box extraction by orchestrating the reader, the core
// extractor and the export writers
type Service struct {
	maxFileSize   int64
	defaults      boxes.Options
	exportOptions export.Options
	password      string
	reader        *Reader
	validator     *Validator
	pathValidator *security.PathValidator
	logger        *logrus.Logger
}

// NewService creates a new PDF service. defaults are the configured
// extraction options that per-request overrides are merged over.
func NewService(
	maxFileSize int64,
	configuredDirectory string,
	defaults boxes.Options,
	exportOptions export.Options,
	logger *logrus.Logger,
) (*Service, error) {
	pathValidator, err := security.NewPathValidator(configuredDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extraction defaults: %w", err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	reader := NewReader(logger)
	return &Service{
		maxFileSize:   maxFileSize,
		defaults:      defaults,
		exportOptions: exportOptions,
		reader:        reader,
		validator:     NewValidator(maxFileSize, reader),
		pathValidator: pathValidator,
		logger:        logger,
	}, nil
}

// Defaults returns the configured extraction options
func (s *Service) Defaults() boxes.Options {
	return s.defaults
}

// SetDefaultPassword sets the password tried when a request carries none.
// It must be called before the service is shared.
func (s *Service) SetDefaultPassword(password string) {
	s.password = password
}

// passwordFor returns the request password or the configured default
func (s *Service) passwordFor(password string) string {
	if password != "" {
		return password
	}
	return s.password
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// Options merges overrides over the configured defaults and validates the result
func (s *Service) Options(o Overrides) (boxes.Options, error) {
	opts := s.defaults
	if o.RangeStart != nil {
		opts.Range.Start = *o.RangeStart
	}
	if o.RangeEnd != nil {
		opts.Range.End = *o.RangeEnd
	}
	if o.YTolerance != nil {
		opts.YTolerance = *o.YTolerance
	}
	if o.NumberFormat != "" {
		format, err := boxes.LookupNumberFormat(o.NumberFormat)
		if err != nil {
			return boxes.Options{}, err
		}
		opts.Format = format
	}
	if o.Assignment != "" {
		opts.Assignment = boxes.Assignment(o.Assignment)
	}
	if err := opts.Validate(); err != nil {
		return boxes.Options{}, err
	}
	return opts, nil
}

// ExtractBoxesFile extracts the box table of a PDF file inside the configured directory
func (s *Service) ExtractBoxesFile(req PDFExtractBoxesRequest) (*PDFExtractBoxesResult, error) {
	path, err := s.pathValidator.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	opts, err := s.Options(req.Overrides)
	if err != nil {
		return nil, err
	}

	data, err := s.validator.readFile(path)
	if err != nil {
		return nil, err
	}

	result, err := s.extract(data, req.Password, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to extract boxes from %s: %w", path, err)
	}
	result.Path = path
	if req.OnlyMatched {
		result.Rows = result.Rows.OnlyMatched()
	}
	return result, nil
}

// ExtractBoxes extracts the box table of an in-memory PDF
func (s *Service) ExtractBoxes(data []byte, password string, overrides Overrides) (*PDFExtractBoxesResult, error) {
	opts, err := s.Options(overrides)
	if err != nil {
		return nil, err
	}
	if s.maxFileSize > 0 && int64(len(data)) > s.maxFileSize {
		return nil, &FileTooLargeError{Size: int64(len(data)), Max: s.maxFileSize}
	}
	return s.extract(data, password, opts)
}

// ExportBoxesFile extracts the box table of a PDF file and writes it to req.Output
func (s *Service) ExportBoxesFile(req PDFExportBoxesRequest) (*PDFExportBoxesResult, error) {
	output, err := s.pathValidator.Resolve(req.Output)
	if err != nil {
		return nil, fmt.Errorf("security validation failed for output: %w", err)
	}

	var format export.Format
	if req.Format != "" {
		if format, err = export.ParseFormat(req.Format); err != nil {
			return nil, err
		}
	} else if format, err = export.FormatFromPath(output); err != nil {
		return nil, err
	}

	extracted, err := s.ExtractBoxesFile(PDFExtractBoxesRequest{
		Path:      req.Path,
		Password:  req.Password,
		Overrides: req.Overrides,
	})
	if err != nil {
		return nil, err
	}

	exportOptions := s.exportOptions
	exportOptions.NumberFormat = s.formatFor(req.Overrides)
	if _, err := export.WriteFile(output, format, extracted.Rows, exportOptions); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", output, err)
	}

	s.logger.WithFields(logrus.Fields{
		"input":   extracted.Path,
		"output":  output,
		"format":  format,
		"matched": extracted.Matched,
	}).Info("exported box table")

	return &PDFExportBoxesResult{
		Path:    extracted.Path,
		Output:  output,
		Format:  string(format),
		Rows:    len(extracted.Rows),
		Matched: extracted.Matched,
	}, nil
}

// ExportOptions returns the export options for a request with the given overrides
func (s *Service) ExportOptions(overrides Overrides) export.Options {
	opts := s.exportOptions
	opts.NumberFormat = s.formatFor(overrides)
	return opts
}

// ValidateFile performs validation on a PDF file
func (s *Service) ValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	path, err := s.pathValidator.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	req.Path = path
	req.Password = s.passwordFor(req.Password)
	return s.validator.ValidateFile(req)
}

// Info returns the server configuration and usage guidance
func (s *Service) Info(serverName, version string) *PDFServerInfoResult {
	availableTools := make([]ToolInfo, 0, len(toolUsage))
	for _, name := range descriptions.GetAllToolNames() {
		usage := toolUsage[name]
		availableTools = append(availableTools, ToolInfo{
			Name:        name,
			Description: descriptions.GetToolDescription(name),
			Usage:       usage.usage,
			Parameters:  usage.parameters,
		})
	}

	usageGuidance := `PDF Boxes MCP Server Usage Guide:

1. CHECK THE FILE:
   - Use 'pdf_validate_file' to confirm the PDF is readable and has positioned text

2. EXTRACT:
   - Use 'pdf_extract_boxes' to get one row per box code of the range
   - Empty values mean no amount was found to the right of the code

3. EXPORT:
   - Use 'pdf_export_boxes' to write the table as xlsx, csv or json

IMPORTANT NOTES:
- Relative paths are resolved against the configured directory
- The server can handle files up to ` + fmt.Sprintf("%d", s.maxFileSize/(1024*1024)) + `MB
- A box found on several pages keeps the amount from the last page`

	return &PDFServerInfoResult{
		ServerName:       serverName,
		Version:          version,
		DefaultDirectory: s.pathValidator.GetConfiguredDirectory(),
		MaxFileSize:      s.maxFileSize,
		Defaults:         s.defaults.Range,
		YTolerance:       s.defaults.YTolerance,
		NumberFormat:     s.defaults.Format.Name,
		NumberFormats:    boxes.NumberFormatNames(),
		Assignment:       string(s.defaults.Assignment),
		AvailableTools:   availableTools,
		UsageGuidance:    usageGuidance,
	}
}

func (s *Service) extract(data []byte, password string, opts boxes.Options) (*PDFExtractBoxesResult, error) {
	start := time.Now()

	doc, err := s.reader.Read(data, s.passwordFor(password))
	if err != nil {
		return nil, err
	}

	extractor, err := boxes.New(opts)
	if err != nil {
		return nil, err
	}
	res := extractor.Extract(doc.Pages)

	s.logger.WithFields(logrus.Fields{
		"pages":    doc.PageCount(),
		"tokens":   doc.TokenCount(),
		"range":    fmt.Sprintf("%d-%d", opts.Range.Start, opts.Range.End),
		"matched":  res.Matched,
		"duration": time.Since(start),
	}).Info("extracted box table")

	return &PDFExtractBoxesResult{
		Size:      int64(len(data)),
		Pages:     doc.PageCount(),
		Encrypted: doc.Encrypted,
		Version:   doc.Version,
		Range:     opts.Range,
		Format:    opts.Format.Name,
		Matched:   res.Matched,
		Rows:      res.Table,
		PageStats: res.Pages,
	}, nil
}

// formatFor returns the number format for parsing exported values
func (s *Service) formatFor(o Overrides) boxes.NumberFormat {
	if o.NumberFormat != "" {
		if format, err := boxes.LookupNumberFormat(o.NumberFormat); err == nil {
			return format
		}
	}
	return s.defaults.Format
}

type toolUsageInfo struct {
	usage      string
	parameters string
}

var toolUsage = map[string]toolUsageInfo{
	descriptions.ToolExtractBoxes: {
		usage: "Extract the box code table of a PDF form",
		parameters: "path (required), password, range_start, range_end, y_tolerance, " +
			"number_format, assignment, only_matched",
	},
	descriptions.ToolExportBoxes: {
		usage: "Write the box code table of a PDF form to an xlsx, csv or json file",
		parameters: "path (required), output (required), format, password, range_start, range_end, " +
			"y_tolerance, number_format, assignment",
	},
	descriptions.ToolValidateFile: {
		usage:      "Check that a PDF can be read and has positioned text",
		parameters: "path (required), password",
	},
	descriptions.ToolServerInfo: {
		usage:      "Get server configuration and extraction defaults",
		parameters: "none",
	},
}
