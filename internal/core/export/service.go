package export

import (
	"bytes"
	"fmt"
	"strings"
)

// Service renders tables into downloadable documents
type Service struct {
	renderers map[Format]Renderer
}

func NewService() *Service {
	return &Service{
		renderers: map[Format]Renderer{
			FormatExcel: NewExcelRenderer(),
			FormatPDF:   NewPDFRenderer(),
		},
	}
}

// Render produces a document named <basename><ext>.
func (s *Service) Render(t *Table, format Format, basename string) (*Document, error) {
	r, ok := s.renderers[format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format: %q", format)
	}

	var buf bytes.Buffer
	if err := r.Render(t, &buf); err != nil {
		return nil, fmt.Errorf("%s export failed: %w", format, err)
	}

	name := strings.TrimSpace(basename)
	if name == "" {
		name = "report"
	}
	return &Document{
		Filename:    name + r.Extension(),
		ContentType: r.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}
