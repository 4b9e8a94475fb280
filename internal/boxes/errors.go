package boxes

import "fmt"

// InvalidRangeError reports a code range that cannot produce a table
type InvalidRangeError struct {
	Start  int
	End    int
	Reason string
}

// Error implements the error interface
func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid code range [%d, %d]: %s", e.Start, e.End, e.Reason)
}

// UnknownFormatError reports a number format name with no registered definition
type UnknownFormatError struct {
	Name string
}

// Error implements the error interface
func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown number format %q (must be one of: %s)", e.Name, formatNames())
}
