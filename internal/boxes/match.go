package boxes

import (
	"math"
	"sort"
)

// Matches maps a code string to the raw text of its amount
type Matches map[string]string

// Merge returns a new mapping holding m overlaid with page. Entries from page
// replace entries for the same code, so folding pages in document order makes
// the last page win.
func (m Matches) Merge(page Matches) Matches {
	out := make(Matches, len(m)+len(page))
	for code, amount := range m {
		out[code] = amount
	}
	for code, amount := range page {
		out[code] = amount
	}
	return out
}

// PageSummary counts what one page contributed
type PageSummary struct {
	Page    int `json:"page"`
	Tokens  int `json:"tokens"`
	Codes   int `json:"codes"`
	Amounts int `json:"amounts"`
	Matches int `json:"matches"`
}

// Matcher pairs code candidates with amount candidates by vertical alignment
// and rightward proximity.
type Matcher struct {
	classifier *Classifier
	yTolerance float64
	assignment Assignment
}

// NewMatcher creates a matcher from validated options
func NewMatcher(opts Options) (*Matcher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	classifier, err := NewClassifier(opts)
	if err != nil {
		return nil, err
	}
	return &Matcher{
		classifier: classifier,
		yTolerance: opts.YTolerance,
		assignment: opts.Assignment,
	}, nil
}

// MatchPage classifies one page's tokens and returns the matches found on it.
// A page without code or amount candidates yields an empty mapping.
func (m *Matcher) MatchPage(tokens []Token) Matches {
	matches, _ := m.match(tokens)
	return matches
}

func (m *Matcher) match(tokens []Token) (Matches, PageSummary) {
	codes, amounts := m.classifier.Classify(tokens)
	summary := PageSummary{Tokens: len(tokens), Codes: len(codes), Amounts: len(amounts)}

	matches := Matches{}
	if len(codes) == 0 || len(amounts) == 0 {
		return matches, summary
	}

	index := newAmountIndex(amounts)

	var chosen []int
	if m.assignment == AssignExclusive {
		chosen = m.assignExclusive(codes, index)
	} else {
		chosen = m.assignNearest(codes, index)
	}

	// Codes are written in token order; a repeated code keeps its last match.
	for i, code := range codes {
		if chosen[i] < 0 {
			continue
		}
		matches[code.Text] = index.items[chosen[i]].tok.Text
	}
	summary.Matches = len(matches)
	return matches, summary
}

// assignNearest returns, per code, the index of its nearest admissible amount or -1.
// The first amount reaching the minimum distance wins.
func (m *Matcher) assignNearest(codes []Token, index *amountIndex) []int {
	chosen := make([]int, len(codes))
	for i, code := range codes {
		chosen[i] = -1
		bestDist := math.Inf(1)
		for _, j := range index.candidates(code, m.yTolerance) {
			dist, ok := m.distance(code, index.items[j])
			if !ok {
				continue
			}
			if chosen[i] < 0 || dist < bestDist {
				chosen[i] = j
				bestDist = dist
			}
		}
	}
	return chosen
}

type edge struct {
	code   int
	amount int
	dist   float64
}

// assignExclusive pairs codes and amounts greedily by ascending distance, each
// amount at most once. Equal distances keep code order, then amount order.
func (m *Matcher) assignExclusive(codes []Token, index *amountIndex) []int {
	var edges []edge
	for i, code := range codes {
		for _, j := range index.candidates(code, m.yTolerance) {
			if dist, ok := m.distance(code, index.items[j]); ok {
				edges = append(edges, edge{code: i, amount: j, dist: dist})
			}
		}
	}
	sort.SliceStable(edges, func(a, b int) bool {
		return edges[a].dist < edges[b].dist
	})

	chosen := make([]int, len(codes))
	for i := range chosen {
		chosen[i] = -1
	}
	used := make([]bool, len(index.items))
	for _, e := range edges {
		if chosen[e.code] >= 0 || used[e.amount] {
			continue
		}
		chosen[e.code] = e.amount
		used[e.amount] = true
	}
	return chosen
}

// distance applies the alignment and rightward constraints and returns the
// euclidean distance of (dx, dy) when the amount is admitted.
func (m *Matcher) distance(code Token, amount amountItem) (float64, bool) {
	dy := math.Abs(amount.vcenter - code.VCenter())
	if dy > m.yTolerance {
		return 0, false
	}
	dx := amount.tok.Left - code.Right
	if dx < -maxLeftSlack {
		return 0, false
	}
	return math.Hypot(dx, dy), true
}
