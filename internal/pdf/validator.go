package pdf

import (
	"fmt"
	"os"
	"strings"
)

// Validator handles PDF file validation operations
type Validator struct {
	maxFileSize int64
	reader      *Reader
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64, reader *Reader) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
		reader:      reader,
	}
}

// ValidateFile checks that a file is a readable PDF and reports what a box
// extraction would find in it
func (v *Validator) ValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	result := &PDFValidateFileResult{
		Path:  req.Path,
		Valid: false,
	}

	data, err := v.readFile(req.Path)
	if err != nil {
		result.Message = err.Error()
		return result, nil //nolint:nilerr // Return result with validation error, not a processing error
	}

	doc, err := v.reader.Read(data, req.Password)
	if err != nil {
		result.Message = fmt.Sprintf("invalid PDF file: %v", err)
		return result, nil //nolint:nilerr // Return result with validation error, not a processing error
	}

	result.Valid = true
	result.Pages = doc.PageCount()
	result.Encrypted = doc.Encrypted
	result.HasText = doc.TokenCount() > 0
	if !result.HasText {
		result.Message = "no positioned text found; scanned documents are not supported"
	}
	return result, nil
}

// readFile returns the bytes of a PDF file after checking its path, type and size
func (v *Validator) readFile(filePath string) ([]byte, error) {
	if err := v.checkFile(filePath); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("cannot read file: %w", err)
	}
	return data, nil
}

func (v *Validator) checkFile(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if v.maxFileSize > 0 && fileInfo.Size() > v.maxFileSize {
		return &FileTooLargeError{Size: fileInfo.Size(), Max: v.maxFileSize}
	}

	return nil
}
