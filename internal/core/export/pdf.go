package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// PDFRenderer renders tables on landscape A4 pages, repeating the header
// row after every page break.
type PDFRenderer struct {
	fontSize float64
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{fontSize: 9}
}

func (p *PDFRenderer) ContentType() string {
	return "application/pdf"
}

func (p *PDFRenderer) Extension() string {
	return ".pdf"
}

func (p *PDFRenderer) Render(t *Table, w io.Writer) error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("table has no columns")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(false, 12)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Arial", "I", 7)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	if t.Title != "" {
		pdf.SetFont("Arial", "B", 15)
		pdf.CellFormat(0, 9, tr(t.Title), "", 1, "L", false, 0, "")
	}
	if t.Subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, tr(t.Subtitle), "", 1, "L", false, 0, "")
	}
	if !t.GeneratedAt.IsZero() {
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 5, "Generated "+t.GeneratedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	widths := p.columnWidths(pdf, t.Columns)
	header := func() {
		pdf.SetFont("Arial", "B", p.fontSize)
		r, g, b := hexToRGB(headerFill)
		pdf.SetFillColor(r, g, b)
		pdf.SetTextColor(255, 255, 255)
		for i, c := range t.Columns {
			pdf.CellFormat(widths[i], 7, tr(c.Header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Arial", "", p.fontSize)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	sr, sg, sb := hexToRGB(stripeFill)

	line := func(values []interface{}, fill bool) {
		if pdf.GetY()+6 > pageHeight-bottom-8 {
			pdf.AddPage()
			header()
		}
		pdf.SetFillColor(sr, sg, sb)
		for i := range t.Columns {
			var v interface{}
			if i < len(values) {
				v = values[i]
			}
			align := "L"
			if t.Columns[i].Numeric {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, tr(formatCell(v, t.Columns[i].Numeric)), "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	for i, row := range t.Rows {
		line(row, i%2 == 1)
	}
	if len(t.Totals) > 0 {
		pdf.SetFont("Arial", "B", p.fontSize)
		line(t.Totals, false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

// columnWidths spreads the usable page width by each column's relative width.
func (p *PDFRenderer) columnWidths(pdf *gofpdf.Fpdf, cols []Column) []float64 {
	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := pageWidth - left - right

	var sum float64
	for _, c := range cols {
		sum += relWidth(c)
	}
	out := make([]float64, len(cols))
	for i, c := range cols {
		out[i] = usable * relWidth(c) / sum
	}
	return out
}

func relWidth(c Column) float64 {
	if c.Width <= 0 {
		return 1
	}
	return c.Width
}

func formatCell(v interface{}, numeric bool) string {
	if v == nil {
		return ""
	}
	if numeric {
		switch n := v.(type) {
		case float64:
			return fmt.Sprintf("%.2f", n)
		case float32:
			return fmt.Sprintf("%.2f", n)
		}
	}
	return fmt.Sprint(v)
}

func hexToRGB(hex string) (int, int, int) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return 255, 255, 255
	}
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		return 255, 255, 255
	}
	return r, g, b
}
