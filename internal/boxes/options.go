package boxes

import (
	"fmt"
	"math"
)

const (
	// DefaultRangeStart and DefaultRangeEnd bound the boxes of the default form
	DefaultRangeStart = 1501
	DefaultRangeEnd   = 2493

	// DefaultYTolerance is the maximum vertical center offset between a code and its amount
	DefaultYTolerance = 2.5

	// DefaultCodeWidth is the number of digits in a printed code
	DefaultCodeWidth = 5

	// maxLeftSlack is how far an amount may start to the left of a code's right edge
	maxLeftSlack = 2.0
)

// Assignment selects how amounts are paired with codes on a page
type Assignment string

const (
	// AssignNearest gives every code its nearest admissible amount, even when
	// another code on the page picked the same one.
	AssignNearest Assignment = "nearest"
	// AssignExclusive pairs codes and amounts in ascending distance order and
	// uses each amount at most once per page.
	AssignExclusive Assignment = "exclusive"
)

// Range is an inclusive interval of numeric codes
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of codes in the range
func (r Range) Len() int {
	return r.End - r.Start + 1
}

// Contains reports whether n lies inside the range
func (r Range) Contains(n int) bool {
	return n >= r.Start && n <= r.End
}

// Validate checks the range against the printed code width
func (r Range) Validate(width int) error {
	if r.Start > r.End {
		return &InvalidRangeError{Start: r.Start, End: r.End, Reason: "start is greater than end"}
	}
	if r.Start < 0 {
		return &InvalidRangeError{Start: r.Start, End: r.End, Reason: "codes cannot be negative"}
	}
	if width > 0 && float64(r.End) >= math.Pow10(width) {
		return &InvalidRangeError{
			Start:  r.Start,
			End:    r.End,
			Reason: fmt.Sprintf("end does not fit in %d digits", width),
		}
	}
	return nil
}

// Options configures classification, matching and table building
type Options struct {
	Range      Range
	YTolerance float64
	Format     NumberFormat
	CodeWidth  int
	Assignment Assignment
}

// DefaultOptions returns the options for the default form
func DefaultOptions() Options {
	return Options{
		Range:      Range{Start: DefaultRangeStart, End: DefaultRangeEnd},
		YTolerance: DefaultYTolerance,
		Format:     FormatES,
		CodeWidth:  DefaultCodeWidth,
		Assignment: AssignNearest,
	}
}

// Validate checks all options
func (o Options) Validate() error {
	if o.CodeWidth < 1 || o.CodeWidth > 9 {
		return fmt.Errorf("code width must be between 1 and 9, got %d", o.CodeWidth)
	}
	if err := o.Range.Validate(o.CodeWidth); err != nil {
		return err
	}
	if !(o.YTolerance > 0) {
		return fmt.Errorf("y tolerance must be positive, got %v", o.YTolerance)
	}
	if err := o.Format.Validate(); err != nil {
		return err
	}
	switch o.Assignment {
	case AssignNearest, AssignExclusive:
	default:
		return fmt.Errorf("unknown assignment %q (must be %q or %q)", o.Assignment, AssignNearest, AssignExclusive)
	}
	return nil
}

// FormatCode renders n zero-padded to the code width
func (o Options) FormatCode(n int) string {
	return formatCode(n, o.CodeWidth)
}

func formatCode(n, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}
