package pdf

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"

	"github.com/a3tai/mcp-pdf-boxes/internal/boxes"
)

const (
	// lineNudge merges glyphs whose baselines differ by less than this into one line
	lineNudge = 1.0

	// ascentRatio and descentRatio place the word box around the baseline
	ascentRatio  = 0.8
	descentRatio = 0.2

	// minCharGap is the smallest gap tolerated inside a word
	minCharGap = 0.5
)

type glyph struct {
	x, y, w, size float64
	s             string
}

type word struct {
	text       strings.Builder
	left, end  float64
	y, size    float64
	glyphCount int
}

// assembleWords groups glyph runs into whitespace-delimited words and returns them
// as tokens in a top-down frame of the given page height.
func assembleWords(texts []pdf.Text, pageHeight float64) []boxes.Token {
	glyphs := splitGlyphs(texts)
	if len(glyphs) == 0 {
		return nil
	}

	// Top line first, left to right within a line.
	sort.SliceStable(glyphs, func(i, j int) bool {
		if glyphs[i].y != glyphs[j].y {
			return glyphs[i].y > glyphs[j].y
		}
		return glyphs[i].x < glyphs[j].x
	})

	var tokens []boxes.Token
	for start := 0; start < len(glyphs); {
		end := start + 1
		for end < len(glyphs) && math.Abs(glyphs[end].y-glyphs[start].y) < lineNudge {
			end++
		}
		line := glyphs[start:end]
		sort.SliceStable(line, func(i, j int) bool { return line[i].x < line[j].x })
		tokens = append(tokens, lineWords(line, pageHeight)...)
		start = end
	}
	return tokens
}

// splitGlyphs flattens text runs into single-rune glyphs, sharing a run's width
// evenly between its runes.
func splitGlyphs(texts []pdf.Text) []glyph {
	glyphs := make([]glyph, 0, len(texts))
	for _, t := range texts {
		n := utf8.RuneCountInString(t.S)
		if n == 0 {
			continue
		}
		if n == 1 {
			glyphs = append(glyphs, glyph{x: t.X, y: t.Y, w: t.W, size: t.FontSize, s: t.S})
			continue
		}
		w := t.W / float64(n)
		i := 0
		for _, r := range t.S {
			glyphs = append(glyphs, glyph{x: t.X + float64(i)*w, y: t.Y, w: w, size: t.FontSize, s: string(r)})
			i++
		}
	}
	return glyphs
}

func lineWords(line []glyph, pageHeight float64) []boxes.Token {
	var tokens []boxes.Token
	var cur *word

	flush := func() {
		if cur != nil && cur.glyphCount > 0 {
			tokens = append(tokens, cur.token(pageHeight))
		}
		cur = nil
	}

	for _, g := range line {
		if strings.TrimSpace(g.s) == "" {
			flush()
			continue
		}
		if cur != nil && g.x > cur.end+charGap(g.size) {
			flush()
		}
		if cur == nil {
			cur = &word{left: g.x, end: g.x, y: g.y}
		}
		cur.text.WriteString(g.s)
		cur.end = math.Max(cur.end, g.x+g.w)
		cur.size = math.Max(cur.size, g.size)
		cur.glyphCount++
	}
	flush()
	return tokens
}

func (w *word) token(pageHeight float64) boxes.Token {
	baseline := pageHeight - w.y
	return boxes.Token{
		Left:   w.left,
		Top:    baseline - ascentRatio*w.size,
		Right:  w.end,
		Bottom: baseline + descentRatio*w.size,
		Text:   norm.NFKC.String(w.text.String()),
	}
}

func charGap(size float64) float64 {
	return math.Max(size/6, minCharGap)
}
