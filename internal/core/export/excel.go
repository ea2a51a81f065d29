package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const numberFormat = 4 // #,##0.00

// ExcelRenderer renders tables as a single-sheet xlsx workbook
type ExcelRenderer struct {
	sheet string
}

func NewExcelRenderer() *ExcelRenderer {
	return &ExcelRenderer{sheet: "Report"}
}

func (e *ExcelRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e *ExcelRenderer) Extension() string {
	return ".xlsx"
}

func (e *ExcelRenderer) Render(t *Table, w io.Writer) error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("table has no columns")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", e.sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	styles, err := newExcelStyles(f)
	if err != nil {
		return err
	}

	row := 1
	if t.Title != "" {
		if err := e.set(f, 1, row, t.Title, styles.title); err != nil {
			return err
		}
		row++
	}
	if t.Subtitle != "" {
		if err := e.set(f, 1, row, t.Subtitle, 0); err != nil {
			return err
		}
		row++
	}
	if !t.GeneratedAt.IsZero() {
		if err := e.set(f, 1, row, "Generated "+t.GeneratedAt.Format("2006-01-02 15:04"), 0); err != nil {
			return err
		}
		row++
	}
	if row > 1 {
		row++
	}

	headerRow := row
	for i, c := range t.Columns {
		if err := e.set(f, i+1, row, c.Header, styles.header); err != nil {
			return err
		}
		if c.Width > 0 {
			col, _ := excelize.ColumnNumberToName(i + 1)
			if err := f.SetColWidth(e.sheet, col, col, c.Width*4); err != nil {
				return fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}
	row++

	for r, values := range t.Rows {
		for i, v := range values {
			style := styles.text[r%2]
			if i < len(t.Columns) && t.Columns[i].Numeric {
				style = styles.number[r%2]
			}
			if err := e.set(f, i+1, row, v, style); err != nil {
				return err
			}
		}
		row++
	}
	lastDataRow := row - 1

	if len(t.Totals) > 0 {
		for i, v := range t.Totals {
			if v == nil {
				continue
			}
			style := styles.totalText
			if i < len(t.Columns) && t.Columns[i].Numeric {
				style = styles.totalNumber
			}
			if err := e.set(f, i+1, row, v, style); err != nil {
				return err
			}
		}
	}

	if err := f.SetPanes(e.sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: fmt.Sprintf("A%d", headerRow+1),
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if len(t.Rows) > 0 {
		lastCol, _ := excelize.ColumnNumberToName(len(t.Columns))
		ref := fmt.Sprintf("A%d:%s%d", headerRow, lastCol, lastDataRow)
		if err := f.AutoFilter(e.sheet, ref, nil); err != nil {
			return fmt.Errorf("failed to add filter: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (e *ExcelRenderer) set(f *excelize.File, col, row int, v interface{}, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(e.sheet, cell, v); err != nil {
		return fmt.Errorf("failed to write %s: %w", cell, err)
	}
	if style != 0 {
		return f.SetCellStyle(e.sheet, cell, cell, style)
	}
	return nil
}

type excelStyles struct {
	title       int
	header      int
	text        [2]int
	number      [2]int
	totalText   int
	totalNumber int
}

func newExcelStyles(f *excelize.File) (*excelStyles, error) {
	fill := func(hex string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{strings.TrimPrefix(hex, "#")}}
	}
	s := &excelStyles{}
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}},
		{&s.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:      fill(headerFill),
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&s.text[0], &excelize.Style{}},
		{&s.text[1], &excelize.Style{Fill: fill(stripeFill)}},
		{&s.number[0], &excelize.Style{NumFmt: numberFormat}},
		{&s.number[1], &excelize.Style{NumFmt: numberFormat, Fill: fill(stripeFill)}},
		{&s.totalText, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&s.totalNumber, &excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: numberFormat}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return nil, fmt.Errorf("failed to create style: %w", err)
		}
		*d.dst = id
	}
	return s, nil
}
