package report

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"tweetsieve/internal/logging"
	"tweetsieve/internal/metrics"
	"tweetsieve/internal/model"
	"tweetsieve/internal/util"
)

const (
	EmptyPlaceholder = "[empty tweet]"
	TruncationMarker = "\n[...text truncated...]"

	DefaultFontFamily = "DejaVu"
	DefaultFontSize   = 12
	DefaultLineHeight = 7
	DefaultTruncateAt = 1000

	pdfRuleWidth = 80
	coreFont     = "Helvetica"
)

// FailureDocument is returned in place of a PDF that could not be encoded.
var FailureDocument = []byte("PDF generation failed.")

// DocumentOptions controls PDF layout. Zero fields take the defaults above.
type DocumentOptions struct {
	FontPath   string // TrueType font with Unicode coverage; empty selects Helvetica
	FontFamily string
	FontSize   float64
	LineHeight float64 // millimetres
	TruncateAt int     // runes
	Title      string
	CreatedAt  time.Time
}

func (o DocumentOptions) withDefaults() DocumentOptions {
	if o.FontFamily == "" {
		o.FontFamily = DefaultFontFamily
	}
	if o.FontSize <= 0 {
		o.FontSize = DefaultFontSize
	}
	if o.LineHeight <= 0 {
		o.LineHeight = DefaultLineHeight
	}
	if o.TruncateAt <= 0 {
		o.TruncateAt = DefaultTruncateAt
	}
	if o.Title == "" {
		o.Title = "Filtered tweets"
	}
	return o
}

// DocumentBlock is the text of record i's block in the PDF.
func DocumentBlock(i int, r *model.Record, opts DocumentOptions) (string, error) {
	opts = opts.withDefaults()
	text, err := r.Text()
	if err != nil {
		return "", err
	}
	body := text
	if strings.TrimSpace(body) == "" {
		body = EmptyPlaceholder
	} else if cut, truncated := util.TruncateRunes(body, opts.TruncateAt); truncated {
		body = cut + TruncationMarker
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Tweet %d:\n%s\n\n", i+1, body)
	fmt.Fprintf(&b, "Created at: %s\n", createdDate(r))
	b.WriteString(metricLine(r, model.ReplyCount, model.RetweetCount, model.LikeCount))
	b.WriteString(metricLine(r, model.QuoteCount, model.BookmarkCount, model.ImpressionCount))
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("-", pdfRuleWidth))
	b.WriteByte('\n')
	return b.String(), nil
}

func metricLine(r *model.Record, ms ...model.Metric) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = m.Label() + ": " + r.MetricDisplay(m)
	}
	return strings.Join(parts, " | ") + "\n"
}

// ErrorPlaceholder is the block written for a record that failed to render.
func ErrorPlaceholder(i int) string {
	return fmt.Sprintf("[error rendering tweet %d]", i+1)
}

// PDF renders one block per record on A4 pages. A record that fails is
// replaced by ErrorPlaceholder and the rest are still written. If the
// document itself cannot be encoded the result is FailureDocument.
func PDF(records []*model.Record, opts DocumentOptions) []byte {
	opts = opts.withDefaults()
	out, err := renderPDF(records, opts)
	if err != nil {
		metrics.IncRenderFailure(string(FormatPDF))
		logging.Error("render_failed", map[string]any{"format": string(FormatPDF), "error": err})
		return append([]byte(nil), FailureDocument...)
	}
	return out
}

func renderPDF(records []*model.Record, opts DocumentOptions) (out []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("pdf panic: %v", p)
		}
	}()

	doc := newDocument(opts)
	doc.AddPage()

	w := &pdfWriter{doc: doc, opts: opts}
	w.selectFont()
	for i, r := range records {
		w.record(i, r)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// newDocument builds the empty A4 document records are written into.
var newDocument = func(opts DocumentOptions) *fpdf.Fpdf {
	doc := fpdf.New("P", "mm", "A4", "")
	if !opts.CreatedAt.IsZero() {
		doc.SetCreationDate(opts.CreatedAt)
		doc.SetModificationDate(opts.CreatedAt)
	}
	doc.SetTitle(opts.Title, true)
	doc.SetAutoPageBreak(true, 15)
	return doc
}

type pdfWriter struct {
	doc     *fpdf.Fpdf
	opts    DocumentOptions
	unicode bool
}

// selectFont loads the configured TrueType font, falling back to Helvetica
// when it is missing or unreadable. The file is read directly so absolute
// and relative paths both work regardless of fpdf's font directory.
func (w *pdfWriter) selectFont() {
	if w.opts.FontPath != "" {
		font, err := os.ReadFile(w.opts.FontPath)
		if err == nil {
			err = w.guard(func() {
				w.doc.AddUTF8FontFromBytes(w.opts.FontFamily, "", font)
				w.doc.SetFont(w.opts.FontFamily, "", w.opts.FontSize)
			})
		}
		if err == nil {
			w.unicode = true
			return
		}
		logging.Warn("pdf_font_fallback", map[string]any{"font_path": w.opts.FontPath, "error": err})
		w.doc.ClearError()
	}
	w.doc.SetFont(coreFont, "", w.opts.FontSize)
}

func (w *pdfWriter) record(i int, r *model.Record) {
	err := w.guard(func() {
		block, err := DocumentBlock(i, r, w.opts)
		if err != nil {
			w.doc.SetError(err)
			return
		}
		w.doc.MultiCell(0, w.opts.LineHeight, w.encode(block), "", "L", false)
	})
	if err == nil {
		return
	}
	metrics.IncRenderFailure(string(FormatPDF))
	logging.Warn("record_render_failed", map[string]any{"format": string(FormatPDF), "index": i, "error": err})
	w.doc.ClearError()
	w.doc.CellFormat(0, w.opts.LineHeight, ErrorPlaceholder(i), "", 1, "L", false, 0, "")
}

// guard runs fn and converts a panic or a sticky document error into err.
func (w *pdfWriter) guard(fn func()) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	fn()
	return w.doc.Error()
}

// encode maps text to Windows-1252 for the core font. Runes outside that
// code page become '?'.
func (w *pdfWriter) encode(s string) string {
	if w.unicode {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		c, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			c = '?'
		}
		b.WriteByte(c)
	}
	return b.String()
}
