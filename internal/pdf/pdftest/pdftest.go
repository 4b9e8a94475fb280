// Package pdftest builds small single-font PDFs with text at exact positions,
// for exercising the layout provider and the layers above it.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	// GlyphWidth is the advance of every glyph, in thousandths of the font size
	GlyphWidth = 500

	// DefaultWidth and DefaultHeight are A4 in points
	DefaultWidth  = 595.0
	DefaultHeight = 842.0
)

// Text is a string drawn with its baseline starting at (X, Y), PDF coordinates
type Text struct {
	X    float64
	Y    float64
	Size float64
	S    string
}

// Page is the list of texts drawn on one page
type Page []Text

// At is shorthand for a 10pt text
func At(x, y float64, s string) Text {
	return Text{X: x, Y: y, Size: 10, S: s}
}

// Width returns the rendered width of s at the given font size
func Width(s string, size float64) float64 {
	return float64(len(s)) * GlyphWidth / 1000 * size
}

// Build renders pages into a PDF using Helvetica with WinAnsi encoding and
// fixed glyph widths. The page tree carries the MediaBox, so pages inherit it.
func Build(pages ...Page) []byte {
	var buf bytes.Buffer
	var offsets []int

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	// 1 catalog, 2 page tree, 3 font, then a page and a content stream per page
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 %g %g] >>",
		strings.Join(kids, " "), len(pages), DefaultWidth, DefaultHeight))

	widths := make([]string, 0, 95)
	for c := 32; c <= 126; c++ {
		widths = append(widths, fmt.Sprint(GlyphWidth))
	}
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding" +
		" /FirstChar 32 /LastChar 126 /Widths [" + strings.Join(widths, " ") + "] >>")

	for i, page := range pages {
		content := contentStream(page)
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}

// Encrypt protects data with AES-256 using the given user and owner passwords
func Encrypt(data []byte, userPW, ownerPW string) ([]byte, error) {
	conf := model.NewAESConfiguration(userPW, ownerPW, 256)
	conf.ValidationMode = model.ValidationRelaxed

	var out bytes.Buffer
	if err := api.Encrypt(bytes.NewReader(data), &out, conf); err != nil {
		return nil, fmt.Errorf("failed to encrypt test document: %w", err)
	}
	return out.Bytes(), nil
}

func contentStream(page Page) string {
	var sb strings.Builder
	for _, t := range page {
		size := t.Size
		if size == 0 {
			size = 10
		}
		fmt.Fprintf(&sb, "BT /F1 %g Tf 1 0 0 1 %g %g Tm (%s) Tj ET\n", size, t.X, t.Y, escape(t.S))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
