package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/formbox/formbox-backend/internal/fieldtype"
	"github.com/formbox/formbox-backend/internal/model"
	"github.com/formbox/formbox-backend/internal/review"
	"github.com/rs/zerolog"
)

// ExportService writes stored submissions as CSV for operator download.
type ExportService struct {
	responses *ResponseService
	log       zerolog.Logger
}

// NewExportService creates a new ExportService.
func NewExportService(responses *ResponseService, log zerolog.Logger) *ExportService {
	return &ExportService{
		responses: responses,
		log:       log.With().Str("component", "export_service").Logger(),
	}
}

// WriteCSV streams every submission of a form to w. Columns are the
// respondent identity plus one column per answerable field, in document
// order. Cells for unanswered fields stay empty.
func (s *ExportService) WriteCSV(ctx context.Context, doc *model.FormDocument, w io.Writer) error {
	rendered, err := s.responses.ListRendered(ctx, doc)
	if err != nil {
		return err
	}

	columns := answerableFields(doc)

	cw := csv.NewWriter(w)
	header := []string{"Respondent", "Email", "Submitted At"}
	for _, f := range columns {
		header = append(header, f.Label)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, resp := range rendered {
		byQuestion := make(map[int64]review.Row, len(resp.Rows))
		for _, row := range resp.Rows {
			byQuestion[row.QuestionID] = row
		}

		record := []string{
			resp.Respondent,
			resp.Email,
			resp.SubmittedAt.Format(time.RFC3339),
		}
		for _, f := range columns {
			record = append(record, cellValue(byQuestion[f.ID]))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func answerableFields(doc *model.FormDocument) []*model.FieldConfig {
	var fields []*model.FieldConfig
	for i := range doc.Fields {
		spec, err := fieldtype.Lookup(doc.Fields[i].Type)
		if err != nil || !spec.Answerable() {
			continue
		}
		fields = append(fields, &doc.Fields[i])
	}
	return fields
}

// cellValue flattens one rendered row into a single CSV cell.
func cellValue(row review.Row) string {
	switch {
	case len(row.Images) > 0:
		parts := make([]string, 0, len(row.Images))
		for _, img := range row.Images {
			part := img.URL
			var notes []string
			if len(img.Checkboxes) > 0 {
				notes = append(notes, strings.Join(img.Checkboxes, ", "))
			}
			if img.Choice != "" {
				notes = append(notes, img.Choice)
			}
			if len(notes) > 0 {
				part += " (" + strings.Join(notes, "; ") + ")"
			}
			parts = append(parts, part)
		}
		return strings.Join(parts, "\n")
	case len(row.Files) > 0:
		parts := make([]string, 0, len(row.Files))
		for _, f := range row.Files {
			if f.OriginalName != "" {
				parts = append(parts, f.OriginalName+" "+f.FileReference)
			} else {
				parts = append(parts, f.FileReference)
			}
		}
		return strings.Join(parts, "\n")
	case len(row.Selections) > 0:
		return strings.Join(row.Selections, ", ")
	default:
		return row.Value
	}
}
