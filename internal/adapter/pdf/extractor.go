package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/couchcryptid/beach-status-etl/internal/domain"
)

// Extractor reads the status table from the first page of a PDF report.
// It implements pipeline.TableExtractor.
type Extractor struct {
	opts   GridOptions
	logger *slog.Logger
}

// NewExtractor creates an extractor using DefaultGridOptions.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{opts: DefaultGridOptions, logger: logger}
}

// Extract returns the table rows, header first. Failures to find a coherent
// grid are reported as *domain.ExtractionError.
func (e *Extractor) Extract(ctx context.Context, doc []byte) (table domain.Table, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(doc) == 0 {
		return nil, &domain.ExtractionError{Reason: "empty document"}
	}

	// The pdf package panics on some malformed streams.
	defer func() {
		if r := recover(); r != nil {
			table = nil
			err = &domain.ExtractionError{Reason: "malformed pdf", Err: fmt.Errorf("%v", r)}
		}
	}()

	reader, err := lpdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return nil, &domain.ExtractionError{Reason: "open pdf", Err: err}
	}
	if reader.NumPage() < 1 {
		return nil, &domain.ExtractionError{Reason: "document has no pages"}
	}
	page := reader.Page(1)
	if page.V.IsNull() {
		return nil, &domain.ExtractionError{Reason: "first page is empty"}
	}

	content := page.Content()
	glyphs := make([]glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, glyph{X: t.X, Y: t.Y, W: t.W, S: t.S})
	}

	table = buildTable(glyphs, e.opts)
	if len(table) < 2 {
		return nil, &domain.ExtractionError{Reason: fmt.Sprintf("found %d table rows, need at least 2", len(table))}
	}

	e.logger.Debug("table extracted", "rows", len(table), "columns", len(table[0]), "glyphs", len(glyphs))
	return table, nil
}
