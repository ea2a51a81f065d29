package export

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Format is a rendered file format.
type Format string

const (
	FormatExcel Format = "excel"
	FormatPDF   Format = "pdf"
)

// ParseFormat accepts "excel", "xlsx" and "pdf", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "excel", "xlsx":
		return FormatExcel, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format: %q", s)
	}
}

// Renderer writes a Table in one file format.
type Renderer interface {
	Render(t *Table, w io.Writer) error
	ContentType() string
	Extension() string
}

// Column describes one table column. Width is relative; numeric columns
// are right-aligned and formatted with two decimals.
type Column struct {
	Header  string
	Width   float64
	Numeric bool
}

// Table is a titled grid of values with an optional totals row.
type Table struct {
	Title       string
	Subtitle    string
	GeneratedAt time.Time
	Columns     []Column
	Rows        [][]interface{}
	Totals      []interface{}
}

func (t *Table) headers() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Header
	}
	return out
}

// Document is a rendered report ready to be served or stored.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

const (
	headerFill = "#1F4E79"
	stripeFill = "#EEF3F8"
)
