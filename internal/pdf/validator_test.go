package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-boxes/internal/pdf/pdftest"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestValidator_ValidateFile(t *testing.T) {
	dir := t.TempDir()
	form := pdftest.Build(pdftest.Page{pdftest.At(100, 700, "01501")})

	validPath := writeFile(t, dir, "form.pdf", form)
	blankPath := writeFile(t, dir, "blank.pdf", pdftest.Build(pdftest.Page{}))
	textPath := writeFile(t, dir, "notes.txt", []byte("hello"))
	emptyPath := writeFile(t, dir, "empty.pdf", nil)
	brokenPath := writeFile(t, dir, "broken.pdf", []byte("not really a pdf"))

	validator := NewValidator(int64(len(form))+1024, NewReader(newTestLogger()))

	tests := []struct {
		name        string
		path        string
		wantValid   bool
		wantHasText bool
		wantMessage string
	}{
		{name: "readable form", path: validPath, wantValid: true, wantHasText: true},
		{name: "page without text", path: blankPath, wantValid: true, wantMessage: "no positioned text"},
		{name: "missing file", path: filepath.Join(dir, "missing.pdf"), wantMessage: "does not exist"},
		{name: "directory", path: dir, wantMessage: "is a directory"},
		{name: "wrong extension", path: textPath, wantMessage: "not a PDF"},
		{name: "empty file", path: emptyPath, wantMessage: "file is empty"},
		{name: "broken file", path: brokenPath, wantMessage: "invalid PDF file"},
		{name: "empty path", path: "", wantMessage: "path cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := validator.ValidateFile(PDFValidateFileRequest{Path: tt.path})
			require.NoError(t, err)

			assert.Equal(t, tt.path, result.Path)
			assert.Equal(t, tt.wantValid, result.Valid)
			assert.Equal(t, tt.wantHasText, result.HasText)
			if tt.wantMessage != "" {
				assert.Contains(t, result.Message, tt.wantMessage)
			} else {
				assert.Empty(t, result.Message)
			}
			if tt.wantValid {
				assert.Equal(t, 1, result.Pages)
			}
		})
	}
}

func TestValidator_FileTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "form.pdf", pdftest.Build(pdftest.Page{pdftest.At(100, 700, "01501")}))

	validator := NewValidator(16, NewReader(newTestLogger()))
	result, err := validator.ValidateFile(PDFValidateFileRequest{Path: path})
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Contains(t, result.Message, "file too large")
}
