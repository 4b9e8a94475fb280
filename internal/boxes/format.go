package boxes

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// NumberFormat describes how amounts are printed in a document: the digit
// grouping separator, the decimal separator and the number of fractional digits.
type NumberFormat struct {
	Name           string
	Grouping       string
	Decimal        string
	FractionDigits int
}

// Built-in number formats
var (
	// FormatES groups with dots and uses a decimal comma: -17.772,60
	FormatES = NumberFormat{Name: "es", Grouping: ".", Decimal: ",", FractionDigits: 2}
	// FormatEN groups with commas and uses a decimal point: -17,772.60
	FormatEN = NumberFormat{Name: "en", Grouping: ",", Decimal: ".", FractionDigits: 2}
	// FormatCH groups with apostrophes and uses a decimal point: -17'772.60
	FormatCH = NumberFormat{Name: "ch", Grouping: "'", Decimal: ".", FractionDigits: 2}
)

var numberFormats = map[string]NumberFormat{
	FormatES.Name: FormatES,
	FormatEN.Name: FormatEN,
	FormatCH.Name: FormatCH,
}

// LookupNumberFormat returns the built-in format registered under name
func LookupNumberFormat(name string) (NumberFormat, error) {
	f, ok := numberFormats[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return NumberFormat{}, &UnknownFormatError{Name: name}
	}
	return f, nil
}

// NumberFormatNames lists the registered format names in sorted order
func NumberFormatNames() []string {
	names := make([]string, 0, len(numberFormats))
	for name := range numberFormats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func formatNames() string {
	return strings.Join(NumberFormatNames(), ", ")
}

// Validate checks that the separators are usable
func (f NumberFormat) Validate() error {
	if f.Grouping == "" || f.Decimal == "" {
		return fmt.Errorf("number format %q: separators cannot be empty", f.Name)
	}
	if f.Grouping == f.Decimal {
		return fmt.Errorf("number format %q: grouping and decimal separators must differ", f.Name)
	}
	if f.FractionDigits < 1 {
		return fmt.Errorf("number format %q: fraction digits must be positive", f.Name)
	}
	return nil
}

// Pattern compiles the anchored amount pattern for this format: an optional
// leading minus, one to three digits, any number of grouped triplets and
// exactly FractionDigits digits after the decimal separator.
func (f NumberFormat) Pattern() (*regexp.Regexp, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	expr := fmt.Sprintf(`^-?\d{1,3}(?:%s\d{3})*%s\d{%d}$`,
		regexp.QuoteMeta(f.Grouping), regexp.QuoteMeta(f.Decimal), f.FractionDigits)
	return regexp.Compile(expr)
}

// Parse converts an amount printed in this format into a decimal value.
// The core never parses amounts; this is for exporters that need numbers.
func (f NumberFormat) Parse(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	s = strings.ReplaceAll(s, f.Grouping, "")
	s = strings.Replace(s, f.Decimal, ".", 1)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cannot parse amount %q as %s: %w", text, f.Name, err)
	}
	return d, nil
}
