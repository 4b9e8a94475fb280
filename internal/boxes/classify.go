package boxes

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Classifier partitions a page's tokens into code candidates and amount candidates
type Classifier struct {
	rng    Range
	code   *regexp.Regexp
	amount *regexp.Regexp
}

// NewClassifier creates a classifier for the configured range, code width and number format
func NewClassifier(opts Options) (*Classifier, error) {
	if err := opts.Range.Validate(opts.CodeWidth); err != nil {
		return nil, err
	}
	if opts.CodeWidth < 1 {
		return nil, fmt.Errorf("code width must be positive, got %d", opts.CodeWidth)
	}

	amount, err := opts.Format.Pattern()
	if err != nil {
		return nil, err
	}

	return &Classifier{
		rng:    opts.Range,
		code:   regexp.MustCompile(fmt.Sprintf(`^[0-9]{%d}$`, opts.CodeWidth)),
		amount: amount,
	}, nil
}

// Classify returns the code and amount candidates of one page, in token order.
// Candidate text is trimmed. The amount test runs first, so a token is never both.
func (c *Classifier) Classify(tokens []Token) (codes, amounts []Token) {
	for _, tok := range tokens {
		text := strings.TrimSpace(tok.Text)
		tok.Text = text

		if c.IsAmount(text) {
			amounts = append(amounts, tok)
			continue
		}
		if c.IsCode(text) {
			codes = append(codes, tok)
		}
	}
	return codes, amounts
}

// IsAmount reports whether trimmed text is an amount in the configured format
func (c *Classifier) IsAmount(text string) bool {
	return c.amount.MatchString(text)
}

// IsCode reports whether trimmed text is a fixed-width code inside the range
func (c *Classifier) IsCode(text string) bool {
	if !c.code.MatchString(text) {
		return false
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return false
	}
	return c.rng.Contains(n)
}
