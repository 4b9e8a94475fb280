package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/a3tai/mcp-pdf-boxes/internal/config"
	"github.com/a3tai/mcp-pdf-boxes/internal/pdf"
	"github.com/a3tai/mcp-pdf-boxes/internal/pdf/pdftest"
)

func formPDF() []byte {
	return pdftest.Build(pdftest.Page{
		pdftest.At(100, 700, "01501"),
		pdftest.At(300, 700, "17.772,60"),
		pdftest.At(100, 680, "01502"),
		pdftest.At(300, 680, "-1.000,00"),
	})
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "form.pdf"), formPDF(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), make([]byte, 1024), 0o644))

	cfg := config.DefaultConfig()
	cfg.PDFDirectory = dir
	cfg.ServerName = "test-server"
	cfg.MaxFileSize = 1024 * 1024

	opts, err := cfg.ExtractOptions()
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	pdfService, err := pdf.NewService(cfg.MaxFileSize, dir, opts, cfg.ExportOptions(), logger)
	require.NoError(t, err)

	server, err := NewServer(cfg, pdfService, logger)
	require.NoError(t, err)
	return server, dir
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestNewServer(t *testing.T) {
	server, _ := newTestServer(t)
	assert.NotNil(t, server.mcpServer)
	assert.NotNil(t, server.pdfService)

	_, err := NewServer(config.DefaultConfig(), nil, nil)
	assert.Error(t, err)

	_, err = NewServer(nil, server.pdfService, nil)
	assert.Error(t, err)
}

func TestServer_ToolsList(t *testing.T) {
	server, _ := newTestServer(t)

	response := server.mcpServer.HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	require.NotNil(t, response)

	raw, err := json.Marshal(response)
	require.NoError(t, err)
	for _, name := range []string{"pdf_extract_boxes", "pdf_export_boxes", "pdf_validate_file", "pdf_server_info"} {
		assert.Contains(t, string(raw), name)
	}
}

func TestServer_HandlePDFExtractBoxes(t *testing.T) {
	server, _ := newTestServer(t)

	tests := []struct {
		name        string
		args        map[string]any
		wantError   bool
		contains    []string
		notContains []string
	}{
		{
			name: "full range",
			args: map[string]any{"path": "form.pdf"},
			contains: []string{
				"Range: 1501-2493",
				"Boxes with a value: 2",
				"01501\t17.772,60\n",
				"01502\t-1.000,00\n",
				"02493\t\n",
			},
		},
		{
			name:        "only matched with range override",
			args:        map[string]any{"path": "form.pdf", "range_start": float64(1501), "range_end": float64(1510), "only_matched": true},
			contains:    []string{"Range: 1501-1510", "01502\t-1.000,00\n"},
			notContains: []string{"01503"},
		},
		{
			name:     "other number format finds nothing",
			args:     map[string]any{"path": "form.pdf", "number_format": "en"},
			contains: []string{"Boxes with a value: 0", "WARNING"},
		},
		{name: "missing path", args: map[string]any{}, wantError: true},
		{name: "inverted range", args: map[string]any{"path": "form.pdf", "range_start": 2000, "range_end": 1000}, wantError: true},
		{name: "fractional range", args: map[string]any{"path": "form.pdf", "range_start": 1501.5}, wantError: true},
		{name: "non-numeric tolerance", args: map[string]any{"path": "form.pdf", "y_tolerance": "wide"}, wantError: true},
		{name: "unreadable pdf", args: map[string]any{"path": "broken.pdf"}, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handlePDFExtractBoxes(context.Background(), callRequest(tt.args))
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.wantError, result.IsError)

			text := extractTextFromResult(result)
			for _, s := range tt.contains {
				assert.Contains(t, text, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, text, s)
			}
		})
	}
}

func TestServer_HandlePDFExportBoxes(t *testing.T) {
	server, dir := newTestServer(t)

	result, err := server.handlePDFExportBoxes(context.Background(), callRequest(map[string]any{
		"path":      "form.pdf",
		"output":    "boxes.xlsx",
		"range_end": float64(1502),
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))
	assert.Contains(t, extractTextFromResult(result), "Exported 2 box(es)")

	f, err := excelize.OpenFile(filepath.Join(dir, "boxes.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	value, err := f.GetCellValue("Casillas", "A2")
	require.NoError(t, err)
	assert.Equal(t, "01501", value)

	result, err = server.handlePDFExportBoxes(context.Background(), callRequest(map[string]any{"path": "form.pdf"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_HandlePDFValidateFile(t *testing.T) {
	server, dir := newTestServer(t)

	result, err := server.handlePDFValidateFile(context.Background(), callRequest(map[string]any{"path": "form.pdf"}))
	require.NoError(t, err)
	text := extractTextFromResult(result)
	assert.Contains(t, text, "is valid and readable")
	assert.Contains(t, text, "Has positioned text: true")

	result, err = server.handlePDFValidateFile(context.Background(), callRequest(map[string]any{
		"path": filepath.Join(dir, "broken.pdf"),
	}))
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(result), "PDF validation failed")

	result, err = server.handlePDFValidateFile(context.Background(), callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_HandlePDFServerInfo(t *testing.T) {
	server, dir := newTestServer(t)

	result, err := server.handlePDFServerInfo(context.Background(), callRequest(nil))
	require.NoError(t, err)

	text := extractTextFromResult(result)
	assert.Contains(t, text, "test-server v1.0.0")
	assert.Contains(t, text, dir)
	assert.Contains(t, text, "Default Range: 1501-2493")
	assert.Contains(t, text, "• pdf_extract_boxes")
	assert.Contains(t, text, "Usage Guide")
}

func TestParseOverrides(t *testing.T) {
	overrides, err := parseOverrides(map[string]any{
		"range_start":   float64(10),
		"range_end":     20,
		"y_tolerance":   3.5,
		"number_format": "ch",
		"assignment":    "exclusive",
	})
	require.NoError(t, err)
	require.NotNil(t, overrides.RangeStart)
	require.NotNil(t, overrides.RangeEnd)
	require.NotNil(t, overrides.YTolerance)
	assert.Equal(t, 10, *overrides.RangeStart)
	assert.Equal(t, 20, *overrides.RangeEnd)
	assert.Equal(t, 3.5, *overrides.YTolerance)
	assert.Equal(t, "ch", overrides.NumberFormat)
	assert.Equal(t, "exclusive", overrides.Assignment)

	overrides, err = parseOverrides(map[string]any{"range_start": nil})
	require.NoError(t, err)
	assert.Nil(t, overrides.RangeStart)

	_, err = parseOverrides(map[string]any{"range_end": "many"})
	assert.Error(t, err)
}

func TestServer_ServeUntilEOF(t *testing.T) {
	server, _ := newTestServer(t)

	var out strings.Builder
	err := server.serve(context.Background(), strings.NewReader(""), &out)
	assert.NoError(t, err)
}

func TestServer_ServeReleasesErrorLog(t *testing.T) {
	server, _ := newTestServer(t)
	before := runtime.NumGoroutine()

	for i := 0; i < 20; i++ {
		var out strings.Builder
		require.NoError(t, server.serve(context.Background(), strings.NewReader(""), &out))
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() < before+10
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServer_ServeCancelled(t *testing.T) {
	server, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out strings.Builder
	err := server.serve(ctx, strings.NewReader(""), &out)
	assert.NoError(t, err)
}

// Helper function to extract text from MCP result
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}

	return ""
}
