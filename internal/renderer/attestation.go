package renderer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"lumina/internal/platform/tracer"
	dErrors "lumina/pkg/domain-errors"
)

// Attestation carries the signature facts stamped onto the final page of a
// signed document.
type Attestation struct {
	SignerName   string
	SignerRole   string
	SignedAt     time.Time
	ReferenceID  string
	DocumentHash string
	// ImagePNG is the decoded signature drawing, optional.
	ImagePNG []byte
}

const legalNotice = "This document was signed electronically. The signature above was captured " +
	"together with the signer's network address and browser fingerprint, and the document " +
	"content was sealed with the SHA-256 digest shown. Any alteration of the document after " +
	"signature invalidates the digest and therefore the signature itself."

// DecodeSignatureImage extracts PNG bytes from a data-URL payload as sent by
// browser signature pads. An empty payload is valid (typed signature, no
// drawing).
func DecodeSignatureImage(payload string) ([]byte, error) {
	if payload == "" {
		return nil, nil
	}
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(payload, prefix) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "signature image must be a PNG data URL")
	}
	img, err := base64.StdEncoding.DecodeString(payload[len(prefix):])
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "signature image is not valid base64")
	}
	return img, nil
}

// RenderAttestation re-renders the contract with a closing attestation page.
// The output replaces every unsigned version of the document.
func (e *Engine) RenderAttestation(ctx context.Context, content string, att Attestation, version int) (_ *Result, err error) {
	_, span := e.tracer.Start(ctx, tracer.SpanRenderAttestation,
		tracer.Int64(tracer.AttrVersion, int64(version)),
	)
	defer func() { span.End(err) }()

	doc := newLayout(version)
	doc.renderBlocks(ParseBlocks(content))
	if err := doc.attestationPage(att); err != nil {
		return nil, err
	}
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

func (l *layout) attestationPage(att Attestation) error {
	l.pdf.AddPage()
	l.pdf.SetFont(fontFamily, "B", 14)
	l.pdf.CellFormat(contentWidth, 3*lineHeight, "SIGNATURE CERTIFICATE", "", 1, "C", false, 0, "")
	l.rule()
	l.pdf.Ln(headingGap)

	l.pdf.SetFont(fontFamily, "", 10)
	rows := []struct{ label, value string }{
		{"Signed by", att.SignerName},
		{"Role", att.SignerRole},
		{"Signed at", att.SignedAt.Format("02/01/2006 15:04:05 MST")},
		{"Reference", att.ReferenceID},
		{"Document digest (SHA-256)", att.DocumentHash},
	}
	l.tableRow = 0
	for _, row := range rows {
		l.tableRowBlock(row.label, row.value)
	}
	l.pdf.Ln(headingGap)

	if len(att.ImagePNG) > 0 {
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		l.pdf.RegisterImageOptionsReader("signature", opts, bytes.NewReader(att.ImagePNG))
		if l.pdf.Err() {
			return fmt.Errorf("embed signature image: %w", l.pdf.Error())
		}
		l.pdf.ImageOptions("signature", marginLeft, l.pdf.GetY(), 60, 0, true, opts, 0, "")
		l.pdf.Ln(headingGap)
	}

	l.pdf.SetFont(fontFamily, "I", 8)
	for _, line := range l.pdf.SplitText(legalNotice, contentWidth) {
		l.pdf.CellFormat(contentWidth, lineHeight-1, line, "", 1, "L", false, 0, "")
	}
	l.pdf.SetFont(fontFamily, "", 10)
	return nil
}
