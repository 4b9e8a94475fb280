package boxes

// Result is the outcome of extracting a whole document
type Result struct {
	Table   Table         `json:"rows"`
	Pages   []PageSummary `json:"pages"`
	Matched int           `json:"matched"`
}

// Extractor runs classification, matching and table building over a document
type Extractor struct {
	opts    Options
	matcher *Matcher
}

// New creates an extractor, rejecting invalid options
func New(opts Options) (*Extractor, error) {
	matcher, err := NewMatcher(opts)
	if err != nil {
		return nil, err
	}
	return &Extractor{opts: opts, matcher: matcher}, nil
}

// Options returns the options the extractor was built with
func (e *Extractor) Options() Options {
	return e.opts
}

// Accumulate folds one page into acc and returns the updated mapping with the page summary
func (e *Extractor) Accumulate(acc Matches, tokens []Token) (Matches, PageSummary) {
	page, summary := e.matcher.match(tokens)
	return acc.Merge(page), summary
}

// Extract processes pages strictly in document order and builds the table.
// A code matched on several pages keeps the amount from the last one.
func (e *Extractor) Extract(pages [][]Token) Result {
	acc := Matches{}
	summaries := make([]PageSummary, 0, len(pages))
	for i, tokens := range pages {
		var summary PageSummary
		acc, summary = e.Accumulate(acc, tokens)
		summary.Page = i + 1
		summaries = append(summaries, summary)
	}
	return e.Finish(acc, summaries)
}

// Finish builds the result table from an accumulated mapping
func (e *Extractor) Finish(acc Matches, summaries []PageSummary) Result {
	table := BuildTable(acc, e.opts.Range, e.opts.CodeWidth)
	return Result{
		Table:   table,
		Pages:   summaries,
		Matched: table.Matched(),
	}
}
