package mcp

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-boxes/internal/config"
	"github.com/a3tai/mcp-pdf-boxes/internal/descriptions"
	"github.com/a3tai/mcp-pdf-boxes/internal/pdf"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
	logger     *logrus.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service, logger *logrus.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
		logger:     logger,
	}

	s.registerTools()

	return s, nil
}

// overrideOptions are the per-request extraction parameters shared by the box tools
func overrideOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("password",
			mcp.Description("Password for encrypted PDF files"),
		),
		mcp.WithNumber("range_start",
			mcp.Description("First box code of the table (default from server configuration)"),
		),
		mcp.WithNumber("range_end",
			mcp.Description("Last box code of the table (default from server configuration)"),
		),
		mcp.WithNumber("y_tolerance",
			mcp.Description("Maximum vertical offset between a code and its amount"),
		),
		mcp.WithString("number_format",
			mcp.Description("Amount format: es (1.234,56), en (1,234.56) or ch (1'234.56)"),
		),
		mcp.WithString("assignment",
			mcp.Description("'nearest' (default) or 'exclusive' to use each amount at most once per page"),
		),
	}
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractOptions := []mcp.ToolOption{
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolExtractBoxes)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the configured directory"),
		),
		mcp.WithBoolean("only_matched",
			mcp.Description("Return only the codes that have an amount"),
		),
	}
	extractOptions = append(extractOptions, overrideOptions()...)
	s.mcpServer.AddTool(mcp.NewTool(descriptions.ToolExtractBoxes, extractOptions...), s.handlePDFExtractBoxes)

	exportOptions := []mcp.ToolOption{
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolExportBoxes)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the configured directory"),
		),
		mcp.WithString("output",
			mcp.Required(),
			mcp.Description("Output file inside the configured directory"),
		),
		mcp.WithString("format",
			mcp.Description("xlsx, csv or json (inferred from the output extension when empty)"),
		),
	}
	exportOptions = append(exportOptions, overrideOptions()...)
	s.mcpServer.AddTool(mcp.NewTool(descriptions.ToolExportBoxes, exportOptions...), s.handlePDFExportBoxes)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolValidateFile,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolValidateFile)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
		mcp.WithString("password",
			mcp.Description("Password for encrypted PDF files"),
		),
	), s.handlePDFValidateFile)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolServerInfo,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolServerInfo)),
	), s.handlePDFServerInfo)
}

// Handler functions
func (s *Server) handlePDFExtractBoxes(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	overrides, err := parseOverrides(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	onlyMatched, _ := args["only_matched"].(bool)

	result, err := s.pdfService.ExtractBoxesFile(pdf.PDFExtractBoxesRequest{
		Path:        path,
		Password:    s.password(args),
		Overrides:   overrides,
		OnlyMatched: onlyMatched,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPDFExtractBoxesResult(result)), nil
}

func (s *Server) handlePDFExportBoxes(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	output, err := request.RequireString("output")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	overrides, err := parseOverrides(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, _ := args["format"].(string)

	result, err := s.pdfService.ExportBoxesFile(pdf.PDFExportBoxesRequest{
		Path:      path,
		Output:    output,
		Format:    format,
		Password:  s.password(args),
		Overrides: overrides,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Exported %d box(es) from %s to %s\n", result.Rows, result.Path, result.Output)
	responseText += fmt.Sprintf("Format: %s\n", result.Format)
	responseText += fmt.Sprintf("Boxes with a value: %d\n", result.Matched)
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFValidateFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := pdf.PDFValidateFileRequest{Path: path, Password: s.password(request.GetArguments())}
	result, err := s.pdfService.ValidateFile(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid and readable\n", result.Path)
		responseText += fmt.Sprintf("Pages: %d\n", result.Pages)
		responseText += fmt.Sprintf("Encrypted: %t\n", result.Encrypted)
		responseText += fmt.Sprintf("Has positioned text: %t\n", result.HasText)
		if result.Message != "" {
			responseText += fmt.Sprintf("\n⚠️  WARNING: %s\n", result.Message)
		}
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := s.pdfService.Info(s.config.ServerName, s.config.Version)
	return mcp.NewToolResultText(s.formatPDFServerInfoResult(result)), nil
}

// password returns the request password, falling back to the configured one
func (s *Server) password(args map[string]any) string {
	if password, ok := args["password"].(string); ok && password != "" {
		return password
	}
	return s.config.Password
}

// parseOverrides reads the optional extraction parameters of a tool call
func parseOverrides(args map[string]any) (pdf.Overrides, error) {
	var overrides pdf.Overrides
	var err error

	if overrides.RangeStart, err = optionalInt(args, "range_start"); err != nil {
		return overrides, err
	}
	if overrides.RangeEnd, err = optionalInt(args, "range_end"); err != nil {
		return overrides, err
	}
	if v, ok := args["y_tolerance"]; ok && v != nil {
		f, ok := v.(float64)
		if !ok {
			return overrides, fmt.Errorf("y_tolerance must be a number")
		}
		overrides.YTolerance = &f
	}
	overrides.NumberFormat, _ = args["number_format"].(string)
	overrides.Assignment, _ = args["assignment"].(string)
	return overrides, nil
}

// optionalInt reads a whole number argument; JSON numbers arrive as float64
func optionalInt(args map[string]any, key string) (*int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	var n int
	switch x := v.(type) {
	case float64:
		if x != float64(int(x)) {
			return nil, fmt.Errorf("%s must be a whole number", key)
		}
		n = int(x)
	case int:
		n = x
	default:
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &n, nil
}

// Formatting methods
func (s *Server) formatPDFExtractBoxesResult(result *pdf.PDFExtractBoxesResult) string {
	text := fmt.Sprintf("Boxes of: %s\n", result.Path)
	text += fmt.Sprintf("Pages: %d\n", result.Pages)
	text += fmt.Sprintf("Range: %d-%d\n", result.Range.Start, result.Range.End)
	text += fmt.Sprintf("Number format: %s\n", result.Format)
	text += fmt.Sprintf("Boxes with a value: %d\n", result.Matched)
	if result.Encrypted {
		text += "Encrypted: true\n"
	}

	if result.Matched == 0 {
		text += "\n⚠️  WARNING: No box has a value. The PDF may be scanned or use a different number format.\n"
	}

	var sb strings.Builder
	sb.WriteString("\ncode\tvalue\n")
	for _, row := range result.Rows {
		sb.WriteString(row.Code)
		sb.WriteByte('\t')
		sb.WriteString(row.Value)
		sb.WriteByte('\n')
	}
	return text + sb.String()
}

func (s *Server) formatPDFServerInfoResult(result *pdf.PDFServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Default Directory: %s\n", result.DefaultDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("🔢 Default Range: %d-%d\n", result.Defaults.Start, result.Defaults.End)
	text += fmt.Sprintf("📐 Y Tolerance: %g\n", result.YTolerance)
	text += fmt.Sprintf("💶 Number Format: %s (available: %s)\n",
		result.NumberFormat, strings.Join(result.NumberFormats, ", "))
	text += fmt.Sprintf("🔗 Assignment: %s\n\n", result.Assignment)

	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	text += "\n" + result.UsageGuidance

	return text
}

// Run serves MCP over stdio until ctx is cancelled or stdin is closed
func (s *Server) Run(ctx context.Context) error {
	return s.serve(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serve(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	s.logger.WithFields(logrus.Fields{
		"directory": s.config.PDFDirectory,
		"range":     fmt.Sprintf("%d-%d", s.config.RangeStart, s.config.RangeEnd),
	}).Debug("starting PDF boxes MCP server in stdio mode")

	errorLog := s.logger.WriterLevel(logrus.ErrorLevel)
	defer errorLog.Close()

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(errorLog, "", 0))

	if err := stdio.Listen(ctx, stdin, stdout); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
