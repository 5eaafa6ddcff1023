package receipt

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/go-pdf/fpdf"
)

var errNoFont = errors.New("receipt font not loaded")

// VisualRenderer lays the receipt out as a styled A5 page in a UTF-8 TTF.
// A missing or broken font is a render error.
type VisualRenderer struct {
	font []byte
}

func NewVisualRenderer(font []byte) *VisualRenderer {
	return &VisualRenderer{font: font}
}

func (v *VisualRenderer) Name() string { return "visual" }

func (v *VisualRenderer) Render(ctx context.Context, r Receipt) ([]byte, error) {
	if len(v.font) == 0 {
		return nil, errNoFont
	}

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetTitle("Booking "+FormatQueueNumber(r.QueueNumber), true)
	pdf.AddUTF8FontFromBytes("receipt", "", v.font)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	// header band
	pdf.SetFillColor(21, 101, 192)
	pdf.Rect(0, 0, pageW, 26, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("receipt", "", 16)
	pdf.SetXY(10, 8)
	pdf.CellFormat(contentW, 10, "Booking confirmation / ใบยืนยันการนัดหมาย", "", 1, "C", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("receipt", "", 11)
	pdf.SetXY(10, 32)
	pdf.CellFormat(contentW, 6, "Queue number / หมายเลขคิว", "", 1, "C", false, 0, "")
	pdf.SetFont("receipt", "", 40)
	pdf.CellFormat(contentW, 18, FormatQueueNumber(r.QueueNumber), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("receipt", "", 10)
	pdf.SetDrawColor(200, 200, 200)
	for i, f := range r.Fields()[1:] {
		fill := i%2 == 0
		pdf.SetFillColor(241, 245, 251)
		pdf.SetX(10)
		pdf.CellFormat(contentW*0.35, 8, f.Label, "1", 0, "L", fill, 0, "")
		pdf.CellFormat(contentW*0.65, 8, f.Value, "1", 1, "L", fill, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("receipt", "", 9)
	pdf.SetTextColor(90, 90, 90)
	pdf.MultiCell(contentW, 5, "Please arrive 15 minutes early and bring your citizen ID card.", "", "C", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write visual receipt: %w", err)
	}
	return buf.Bytes(), nil
}

// TextRenderer prints the receipt fields as plain lines in the compiled-in
// UTF-8 face, so it depends on nothing outside the binary.
type TextRenderer struct {
	font []byte
}

func NewTextRenderer() *TextRenderer {
	return &TextRenderer{font: DefaultFont()}
}

func (*TextRenderer) Name() string { return "text" }

// Lines is the text form of the receipt, one "Label: value" per field.
func Lines(r Receipt) []string {
	fields := r.Fields()
	lines := make([]string, 0, len(fields)+1)
	lines = append(lines, "BOOKING CONFIRMATION")
	for _, f := range fields {
		lines = append(lines, fmt.Sprintf("%s: %s", f.Label, f.Value))
	}
	return lines
}

func (t *TextRenderer) Render(ctx context.Context, r Receipt) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetTitle("Booking "+FormatQueueNumber(r.QueueNumber), true)
	pdf.AddUTF8FontFromBytes("plain", "", t.font)
	pdf.AddPage()
	pdf.SetFont("plain", "", 10)

	for _, line := range Lines(r) {
		pdf.MultiCell(0, 6, line, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write text receipt: %w", err)
	}
	return buf.Bytes(), nil
}
