package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func sampleTable() *Table {
	return &Table{
		Title:       "Orders",
		Subtitle:    "2026-10-01 to 2026-10-02",
		GeneratedAt: time.Date(2026, 10, 2, 8, 0, 0, 0, time.UTC),
		Columns: []Column{
			{Header: "Order", Width: 3},
			{Header: "Customer", Width: 4},
			{Header: "Total", Width: 2, Numeric: true},
		},
		Rows: [][]interface{}{
			{"ORD-1", "Toko Maju", 30.0},
			{"ORD-2", "Warung Sari", 12.5},
		},
		Totals: []interface{}{"Total", nil, 42.5},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"excel", FormatExcel, false},
		{"XLSX", FormatExcel, false},
		{" pdf ", FormatPDF, false},
		{"csv", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderExcel(t *testing.T) {
	doc, err := NewService().Render(sampleTable(), FormatExcel, "orders")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if doc.Filename != "orders.xlsx" {
		t.Errorf("Filename = %q", doc.Filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(doc.Data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	// title, subtitle, generated, blank, header
	checks := map[string]string{
		"A1": "Orders",
		"A5": "Order",
		"C5": "Total",
		"A6": "ORD-1",
		"B7": "Warung Sari",
		"A8": "Total",
	}
	for cell, want := range checks {
		got, err := f.GetCellValue("Report", cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", cell, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}
}

func TestRenderPDF(t *testing.T) {
	doc, err := NewService().Render(sampleTable(), FormatPDF, "")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if doc.Filename != "report.pdf" || doc.ContentType != "application/pdf" {
		t.Errorf("got %q %q", doc.Filename, doc.ContentType)
	}
	if !bytes.HasPrefix(doc.Data, []byte("%PDF-")) {
		t.Errorf("output does not look like a PDF")
	}
}

func TestRenderManyRowsPaginates(t *testing.T) {
	table := sampleTable()
	for i := 0; i < 200; i++ {
		table.Rows = append(table.Rows, []interface{}{"ORD-X", "Shop", 1.0})
	}
	doc, err := NewService().Render(table, FormatPDF, "big")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if n := strings.Count(string(doc.Data), "/Type /Page\n"); n < 2 {
		t.Errorf("expected several pages, found %d", n)
	}
}

func TestRenderRejectsEmptyTable(t *testing.T) {
	svc := NewService()
	for _, f := range []Format{FormatExcel, FormatPDF} {
		if _, err := svc.Render(&Table{Title: "x"}, f, "x"); err == nil {
			t.Errorf("%s: expected error for table without columns", f)
		}
	}
	if _, err := svc.Render(sampleTable(), Format("csv"), "x"); err == nil {
		t.Error("expected error for unknown format")
	}
}
