package httpapi

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/a3tai/mcp-pdf-boxes/internal/boxes"
	"github.com/a3tai/mcp-pdf-boxes/internal/export"
	"github.com/a3tai/mcp-pdf-boxes/internal/pdf"
	"github.com/a3tai/mcp-pdf-boxes/internal/pdf/pdftest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func formPDF() []byte {
	return pdftest.Build(pdftest.Page{
		pdftest.At(100, 700, "01501"),
		pdftest.At(300, 700, "17.772,60"),
		pdftest.At(100, 680, "01502"),
		pdftest.At(300, 680, "-1.000,00"),
	})
}

func newTestRouter(t *testing.T, maxFileSize int64) (*gin.Engine, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	service, err := pdf.NewService(maxFileSize, t.TempDir(), boxes.DefaultOptions(), export.DefaultOptions(), logger)
	require.NoError(t, err)
	return NewRouter(service, logger, "mcp-pdf-boxes", "1.0.0"), hook
}

// uploadRequest builds a multipart request; a nil file omits the file part
func uploadRequest(t *testing.T, file []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if file != nil {
		part, err := w.CreateFormFile("file", "modelo.pdf")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/boxes/extract", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, 1024*1024)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"mcp-pdf-boxes","version":"1.0.0"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDIsPropagated(t *testing.T) {
	router, hook := newTestRouter(t, 1024*1024)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "req-42", entry.Data["request_id"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])
}

func TestExtractJSON(t *testing.T) {
	router, _ := newTestRouter(t, 1024*1024)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, formPDF(), map[string]string{
		"range_start": "1501",
		"range_end":   "1503",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result pdf.PDFExtractBoxesResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "modelo.pdf", result.Path)
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, 2, result.Matched)
	assert.Equal(t, boxes.Table{
		{Code: "01501", Value: "17.772,60"},
		{Code: "01502", Value: "-1.000,00"},
		{Code: "01503", Value: ""},
	}, result.Rows)
}

func TestExtractEncrypted(t *testing.T) {
	data, err := pdftest.Encrypt(formPDF(), "user", "owner")
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	service, err := pdf.NewService(1024*1024, t.TempDir(), boxes.DefaultOptions(), export.DefaultOptions(), logger)
	require.NoError(t, err)
	router := NewRouter(service, logger, "mcp-pdf-boxes", "1.0.0")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, data, map[string]string{"password": "user"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, data, nil))
	assert.NotEqual(t, http.StatusOK, rec.Code)

	service.SetDefaultPassword("user")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, data, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result pdf.PDFExtractBoxesResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Encrypted)
	assert.Equal(t, 2, result.Matched)
}

func TestExtractOnlyMatched(t *testing.T) {
	router, _ := newTestRouter(t, 1024*1024)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, formPDF(), map[string]string{"only_matched": "true"}))
	require.Equal(t, http.StatusOK, rec.Code)

	var result pdf.PDFExtractBoxesResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Len(t, result.Rows, 2)
}

func TestExtractCSV(t *testing.T) {
	router, _ := newTestRouter(t, 1024*1024)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, formPDF(), map[string]string{
		"format":    "csv",
		"range_end": "1502",
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="modelo-boxes.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Casilla", "Valor"},
		{"01501", "17.772,60"},
		{"01502", "-1.000,00"},
	}, records)
}

func TestExtractXLSX(t *testing.T) {
	router, _ := newTestRouter(t, 1024*1024)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, formPDF(), map[string]string{
		"format":    "xlsx",
		"range_end": "1502",
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()

	raw, err := f.GetCellValue(export.DefaultSheet, "B2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "17772.60", raw)
}

func TestExtractErrors(t *testing.T) {
	data := formPDF()

	tests := []struct {
		name        string
		maxFileSize int64
		file        []byte
		fields      map[string]string
		wantStatus  int
		wantCode    string
	}{
		{name: "missing file", file: nil, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidRequest},
		{
			name:       "inverted range",
			file:       data,
			fields:     map[string]string{"range_start": "2000", "range_end": "1000"},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidRange,
		},
		{
			name:       "non-numeric range",
			file:       data,
			fields:     map[string]string{"range_start": "abc"},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidRequest,
		},
		{
			name:       "unknown assignment",
			file:       data,
			fields:     map[string]string{"assignment": "random"},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidRequest,
		},
		{
			name:       "unknown output format",
			file:       data,
			fields:     map[string]string{"format": "pdf"},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidRequest,
		},
		{
			name:       "unreadable pdf",
			file:       []byte("definitely not a pdf"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   CodeUnreadablePDF,
		},
		{
			name:        "file too large",
			maxFileSize: int64(len(data)) - 1,
			file:        data,
			wantStatus:  http.StatusRequestEntityTooLarge,
			wantCode:    CodeFileTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maxFileSize := tt.maxFileSize
			if maxFileSize == 0 {
				maxFileSize = 1024 * 1024
			}
			router, _ := newTestRouter(t, maxFileSize)

			req := uploadRequest(t, tt.file, tt.fields)
			req.Header.Set(RequestIDHeader, "req-1")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error)
			assert.Equal(t, "req-1", body.RequestID)
			assert.NotEmpty(t, body.Details)
		})
	}
}

func TestAttachmentName(t *testing.T) {
	assert.Equal(t, "modelo-boxes.xlsx", attachmentName("modelo.pdf", export.FormatXLSX))
	assert.Equal(t, "boxes-boxes.csv", attachmentName("", export.FormatCSV))
	assert.Equal(t, "ab-boxes.json", attachmentName(`a"b.pdf`, export.FormatJSON))
}

func TestServerRunShutdown(t *testing.T) {
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	server := NewServer("127.0.0.1:0", http.NotFoundHandler(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
