package pdf

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-boxes/internal/boxes"
)

const (
	// defaultPageHeight is used when no MediaBox can be found (US Letter)
	defaultPageHeight = 792.0

	// maxParentDepth bounds the walk up the page tree for inherited attributes
	maxParentDepth = 32
)

// Document is the positioned text of a PDF, one token list per page in document order
type Document struct {
	Pages     [][]boxes.Token
	Encrypted bool
	Version   string
}

// PageCount returns the number of pages read
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// TokenCount returns the number of tokens over all pages
func (d *Document) TokenCount() int {
	n := 0
	for _, page := range d.Pages {
		n += len(page)
	}
	return n
}

// Reader turns PDF bytes into per-page tokens. pdfcpu inspects and, when
// needed, decrypts the document; ledongthuc/pdf supplies positioned glyphs.
type Reader struct {
	logger *logrus.Logger
}

// NewReader creates a new PDF token reader
func NewReader(logger *logrus.Logger) *Reader {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Reader{logger: logger}
}

// Read extracts the tokens of every page of data. password is used only for
// encrypted documents and may be empty.
func (r *Reader) Read(data []byte, password string) (*Document, error) {
	if len(data) == 0 {
		return nil, &ExtractionError{Op: "open", Err: errors.New("document is empty")}
	}

	doc := &Document{}

	pdfCtx, inspectErr := r.inspect(data, password)
	if inspectErr != nil {
		// ledongthuc/pdf is more lenient than pdfcpu; let it try before failing.
		r.logger.WithError(inspectErr).Warn("pdfcpu could not inspect document")
	} else {
		doc.Version = pdfCtx.HeaderVersion.String()
		doc.Encrypted = pdfCtx.Encrypt != nil
	}

	if doc.Encrypted {
		decrypted, err := decrypt(data, password)
		if err != nil {
			return nil, &ExtractionError{Op: "decrypt", Err: err}
		}
		data = decrypted
	}

	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if inspectErr != nil {
			err = fmt.Errorf("%w (pdfcpu: %v)", err, inspectErr)
		}
		return nil, &ExtractionError{Op: "open", Err: err}
	}

	for pageNum := 1; pageNum <= pdfReader.NumPage(); pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			doc.Pages = append(doc.Pages, nil)
			continue
		}

		texts, err := pageTexts(page)
		if err != nil {
			return nil, &ExtractionError{Op: "decode", Page: pageNum, Err: err}
		}

		tokens := assembleWords(texts, pageHeight(page))
		r.logger.WithFields(logrus.Fields{
			"page":   pageNum,
			"glyphs": len(texts),
			"tokens": len(tokens),
		}).Debug("read page")

		doc.Pages = append(doc.Pages, tokens)
	}

	return doc, nil
}

// inspect reads the document structure with pdfcpu in relaxed mode
func (r *Reader) inspect(data []byte, password string) (*model.Context, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), newConfiguration(password))
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}
	return ctx, nil
}

// decrypt returns an unencrypted copy of data
func decrypt(data []byte, password string) ([]byte, error) {
	var out bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(data), &out, newConfiguration(password)); err != nil {
		return nil, fmt.Errorf("failed to decrypt document: %w", err)
	}
	return out.Bytes(), nil
}

func newConfiguration(password string) *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.UserPW = password
	conf.OwnerPW = password
	return conf
}

// pageTexts returns the glyph runs of a page. ledongthuc/pdf panics on
// malformed content streams, so the panic is turned into an error.
func pageTexts(page pdf.Page) (texts []pdf.Text, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("cannot decode page content: %v", rec)
		}
	}()
	return page.Content().Text, nil
}

// pageHeight returns the MediaBox height, following the page tree for inherited boxes
func pageHeight(page pdf.Page) float64 {
	v := page.V
	for depth := 0; depth < maxParentDepth && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
				return h
			}
		}
		v = v.Key("Parent")
	}
	return defaultPageHeight
}
