package renderer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"lumina/internal/platform/tracer"
)

// A4 layout constants, in millimeters.
const (
	pageHeight   = 297.0
	marginLeft   = 20.0
	marginTop    = 20.0
	marginRight  = 20.0
	marginBottom = 25.0
	contentWidth = 170.0

	lineHeight    = 5.5
	headingGap    = 4.0
	separatorGap  = 6.0
	bulletIndent  = 6.0
	labelFraction = 0.35

	fontFamily = "Helvetica"
)

// Result is the outcome of a render pass. Hash is the hex SHA-256 of Bytes.
// Two renders of identical content are not guaranteed byte-identical: the
// embedded creation timestamp differs.
type Result struct {
	Bytes      []byte
	Hash       string
	PageCount  int
	Version    int
	RenderedAt time.Time
}

// Engine turns parsed blocks into paginated PDF bytes.
type Engine struct {
	tracer tracer.Tracer
	clock  func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithTracer sets the tracing backend.
func WithTracer(t tracer.Tracer) EngineOption {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		e.clock = clock
	}
}

// NewEngine constructs a render engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		tracer: tracer.NewNoop(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RenderContract lays out the contract content and returns the finished
// document.
func (e *Engine) RenderContract(ctx context.Context, content string, version int) (_ *Result, err error) {
	_, span := e.tracer.Start(ctx, tracer.SpanRenderDocument,
		tracer.Int64(tracer.AttrVersion, int64(version)),
	)
	defer func() { span.End(err) }()

	doc := newLayout(version)
	doc.renderBlocks(ParseBlocks(content))
	result, err := doc.finish(version, e.clock())
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		tracer.Int64(tracer.AttrPageCount, int64(result.PageCount)),
		tracer.Int64(tracer.AttrByteSize, int64(len(result.Bytes))),
	)
	return result, nil
}

// layout tracks the cursor and article numbering for one document.
type layout struct {
	pdf      *fpdf.Fpdf
	articles int
	tableRow int
}

func newLayout(version int) *layout {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-18)
		pdf.SetFont(fontFamily, "I", 7)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(contentWidth/2, 5, fmt.Sprintf("Version %d - Confidential", version), "", 0, "L", false, 0, "")
		pdf.CellFormat(contentWidth/2, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})
	pdf.AddPage()
	pdf.SetFont(fontFamily, "", 10)
	return &layout{pdf: pdf}
}

// ensureSpace starts a new page when fewer than need millimeters remain.
func (l *layout) ensureSpace(need float64) {
	if l.pdf.GetY()+need > pageHeight-marginBottom {
		l.pdf.AddPage()
	}
}

func (l *layout) renderBlocks(blocks []Block) {
	for _, block := range blocks {
		switch block.Kind {
		case BlockHeading1:
			l.heading1(block.Text)
		case BlockHeading2:
			l.heading2(block.Text)
		case BlockParagraph:
			l.wrappedText(block.Text, "", contentWidth, 0)
		case BlockBullet:
			l.bullet(block.Text)
		case BlockEmphasis:
			l.wrappedText(block.Text, "I", contentWidth, 0)
		case BlockTableRow:
			l.tableRowBlock(block.Label, block.Value)
		case BlockSeparator:
			l.separator()
		}
		if block.Kind != BlockTableRow {
			l.tableRow = 0
		}
	}
}

// heading1 auto-numbers articles and rules the title above and below.
func (l *layout) heading1(text string) {
	l.articles++
	l.ensureSpace(4*lineHeight + 2*headingGap)
	l.pdf.Ln(headingGap)
	l.rule()
	l.pdf.SetFont(fontFamily, "B", 13)
	l.pdf.CellFormat(contentWidth, 2*lineHeight, fmt.Sprintf("ARTICLE %d - %s", l.articles, text), "", 1, "L", false, 0, "")
	l.rule()
	l.pdf.Ln(headingGap)
	l.pdf.SetFont(fontFamily, "", 10)
}

func (l *layout) heading2(text string) {
	l.ensureSpace(3 * lineHeight)
	l.pdf.Ln(headingGap / 2)
	l.pdf.SetFont(fontFamily, "B", 11)
	l.pdf.CellFormat(contentWidth, 1.5*lineHeight, text, "", 1, "L", false, 0, "")
	l.pdf.SetFont(fontFamily, "", 10)
}

func (l *layout) rule() {
	y := l.pdf.GetY()
	l.pdf.SetDrawColor(60, 60, 60)
	l.pdf.Line(marginLeft, y, marginLeft+contentWidth, y)
}

// wrappedText greedy-wraps against the measured glyph width and emits one
// cell per line, breaking pages between lines.
func (l *layout) wrappedText(text, style string, width, indent float64) {
	l.pdf.SetFont(fontFamily, style, 10)
	lines := l.pdf.SplitText(text, width-indent)
	for _, line := range lines {
		l.ensureSpace(lineHeight)
		l.pdf.SetX(marginLeft + indent)
		l.pdf.CellFormat(width-indent, lineHeight, line, "", 1, "L", false, 0, "")
	}
	if style != "" {
		l.pdf.SetFont(fontFamily, "", 10)
	}
	l.pdf.Ln(lineHeight / 2)
}

func (l *layout) bullet(text string) {
	l.ensureSpace(lineHeight)
	l.pdf.SetX(marginLeft)
	l.pdf.CellFormat(bulletIndent, lineHeight, "-", "", 0, "R", false, 0, "")
	lines := l.pdf.SplitText(text, contentWidth-bulletIndent-2)
	for i, line := range lines {
		if i > 0 {
			l.ensureSpace(lineHeight)
		}
		l.pdf.SetX(marginLeft + bulletIndent + 2)
		l.pdf.CellFormat(contentWidth-bulletIndent-2, lineHeight, line, "", 1, "L", false, 0, "")
	}
}

// tableRowBlock shades alternating rows and splits label/value into fixed
// column fractions.
func (l *layout) tableRowBlock(label, value string) {
	l.ensureSpace(1.4 * lineHeight)
	fill := l.tableRow%2 == 1
	if fill {
		l.pdf.SetFillColor(235, 235, 235)
	}
	labelWidth := contentWidth * labelFraction
	l.pdf.SetX(marginLeft)
	l.pdf.SetFont(fontFamily, "B", 9)
	l.pdf.CellFormat(labelWidth, 1.4*lineHeight, label, "", 0, "L", fill, 0, "")
	l.pdf.SetFont(fontFamily, "", 9)
	l.pdf.CellFormat(contentWidth-labelWidth, 1.4*lineHeight, value, "", 1, "L", fill, 0, "")
	l.pdf.SetFont(fontFamily, "", 10)
	l.tableRow++
}

func (l *layout) separator() {
	l.ensureSpace(separatorGap + lineHeight)
	l.pdf.Ln(separatorGap / 2)
	l.pdf.SetFont(fontFamily, "", 10)
	l.pdf.CellFormat(contentWidth, lineHeight, "* * *", "", 1, "C", false, 0, "")
	l.pdf.Ln(separatorGap / 2)
}

func (l *layout) finish(version int, now time.Time) (*Result, error) {
	pages := l.pdf.PageCount()
	var buf bytes.Buffer
	if err := l.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return &Result{
		Bytes:      buf.Bytes(),
		Hash:       hex.EncodeToString(sum[:]),
		PageCount:  pages,
		Version:    version,
		RenderedAt: now,
	}, nil
}
