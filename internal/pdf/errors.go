package pdf

import "fmt"

// ExtractionError reports a failure while turning a document into tokens
type ExtractionError struct {
	Op   string // "decrypt", "open", "decode"
	Page int    // 1-based page number, 0 when not page specific
	Err  error
}

// Error implements the error interface
func (e *ExtractionError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("%s: page %d: %v", e.Op, e.Page, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// FileTooLargeError reports a document above the configured size limit
type FileTooLargeError struct {
	Size int64
	Max  int64
}

// Error implements the error interface
func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file too large: %d bytes (max: %d bytes)", e.Size, e.Max)
}
