// Package review reconstructs stored submissions into per-question rows
// for operator display. Stored records are decoded defensively: historical
// revisions of the persistence layer encoded sub-fields either as JSON
// arrays or as JSON-string-encoded arrays, and a malformed value must
// degrade to an empty structure rather than fail the render.
package review

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/formbox/formbox-backend/internal/model"
	"github.com/rs/zerolog"
)

// DisplayAnonymous is substituted when a record carries no respondent name.
const DisplayAnonymous = "Anonymous"

// ImageRow pairs one uploaded image with its sub-answers.
type ImageRow struct {
	URL        string   `json:"url"`
	Checkboxes []string `json:"checkboxes,omitempty"`
	Choice     string   `json:"choice,omitempty"`
}

// Row is one question's answer, resolved against the originating document.
type Row struct {
	QuestionID int64                  `json:"question_id"`
	Label      string                 `json:"label"`
	Type       model.FieldType        `json:"type"`
	Value      string                 `json:"value,omitempty"`
	Selections []string               `json:"selections,omitempty"`
	Files      []model.FileAttachment `json:"files,omitempty"`
	Images     []ImageRow             `json:"images,omitempty"`
}

// RenderedResponse is one submission prepared for display.
type RenderedResponse struct {
	ResponseID  int64     `json:"response_id"`
	Respondent  string    `json:"respondent"`
	Email       string    `json:"email,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	Rows        []Row     `json:"rows"`
}

// storedAnswer is the union of every answer shape the persistence layer
// has produced. Raw members are decoded leniently.
type storedAnswer struct {
	QuestionID int64           `json:"questionId"`
	FieldUID   string          `json:"fieldUid"`
	Type       model.FieldType `json:"type"`
	Text       json.RawMessage `json:"text"`
	Selections json.RawMessage `json:"selections"`
	Files      json.RawMessage `json:"files"`
	Images     json.RawMessage `json:"images"`

	// Legacy flat encoding for image_upload answers.
	ImageURLs          json.RawMessage `json:"image_urls"`
	CheckboxSelections json.RawMessage `json:"checkboxSelections"`
	MultipleChoice     string          `json:"multipleChoiceSelection"`
	ImageResponses     *imageResponses `json:"image_responses"`
}

// imageResponses is the legacy per-image sub-answer grouping, indexed
// positionally against image_urls.
type imageResponses struct {
	Checkboxes     [][]string `json:"checkboxes"`
	MultipleChoice []string   `json:"multiple_choice"`
}

// Render reshapes one stored response for operator review. Absent optional
// fields get display defaults; decode failures yield empty structures and
// a warn log, never an error to the caller.
func Render(doc *model.FormDocument, rec model.StoredResponse, log zerolog.Logger) RenderedResponse {
	out := RenderedResponse{
		ResponseID:  rec.ID,
		Respondent:  rec.Respondent,
		Email:       rec.Email,
		SubmittedAt: rec.SubmittedAt,
		Rows:        []Row{},
	}
	if out.Respondent == "" {
		out.Respondent = DisplayAnonymous
	}

	var answers []storedAnswer
	if len(rec.Answers) > 0 {
		if err := json.Unmarshal(rec.Answers, &answers); err != nil {
			log.Warn().Err(err).Int64("response_id", rec.ID).Msg("Malformed stored answers, rendering empty")
			return out
		}
	}

	for _, ans := range answers {
		out.Rows = append(out.Rows, renderRow(doc, rec.ID, ans, log))
	}
	return out
}

func renderRow(doc *model.FormDocument, responseID int64, ans storedAnswer, log zerolog.Logger) Row {
	row := Row{
		QuestionID: ans.QuestionID,
		Type:       ans.Type,
		Label:      fmt.Sprintf("Question %d", ans.QuestionID),
	}

	// Resolve the label and authoritative type from the document.
	field := doc.FieldByID(ans.QuestionID)
	if field == nil && ans.FieldUID != "" {
		field = doc.FieldByUID(ans.FieldUID)
	}
	if field != nil {
		row.Label = field.Label
		if row.Type == "" {
			row.Type = field.Type
		}
	}

	warn := func(what string, err error) {
		log.Warn().Err(err).
			Int64("response_id", responseID).
			Int64("question_id", ans.QuestionID).
			Str("field", what).
			Msg("Malformed stored answer field, substituting empty")
	}

	switch row.Type {
	case model.FieldCheckboxes:
		sel, err := decodeStringList(ans.Selections)
		if err != nil {
			warn("selections", err)
			sel = nil
		}
		if sel == nil {
			// Early records stored checkbox selections under text.
			if sel, err = decodeStringList(ans.Text); err != nil {
				warn("text", err)
				sel = nil
			}
		}
		row.Selections = sel

	case model.FieldFileUpload:
		files, err := decodeFiles(ans.Files)
		if err != nil {
			warn("files", err)
			files = nil
		}
		row.Files = files

	case model.FieldImageUpload:
		row.Images = renderImages(ans, warn)

	default:
		var text string
		if err := decodeScalar(ans.Text, &text); err != nil {
			warn("text", err)
			text = ""
		}
		row.Value = text
	}

	return row
}

// renderImages reconciles the two persisted encodings of image_upload
// answers: the envelope shape (images array, each entry carrying its
// sub-answers) and the legacy flat shape (image_urls plus positionally
// indexed image_responses arrays).
func renderImages(ans storedAnswer, warn func(string, error)) []ImageRow {
	if len(ans.Images) > 0 && !bytes.Equal(bytes.TrimSpace(ans.Images), []byte("null")) {
		var images []model.ImageAnswer
		if err := json.Unmarshal(ans.Images, &images); err != nil {
			warn("images", err)
		} else {
			rows := make([]ImageRow, 0, len(images))
			for _, img := range images {
				rows = append(rows, ImageRow{
					URL:        img.FileReference,
					Checkboxes: img.CheckboxSelections,
					Choice:     img.MultipleChoiceSelection,
				})
			}
			return rows
		}
	}

	urls, err := decodeStringList(ans.ImageURLs)
	if err != nil {
		warn("image_urls", err)
		return []ImageRow{}
	}

	// Shared sub-answer set for every image in the field.
	shared, err := decodeStringList(ans.CheckboxSelections)
	if err != nil {
		warn("checkboxSelections", err)
		shared = nil
	}

	rows := make([]ImageRow, 0, len(urls))
	for i, url := range urls {
		row := ImageRow{URL: url, Checkboxes: shared, Choice: ans.MultipleChoice}
		// Per-image arrays, when present, win over the shared set and are
		// matched to images by position.
		if ir := ans.ImageResponses; ir != nil {
			if i < len(ir.Checkboxes) {
				row.Checkboxes = ir.Checkboxes[i]
			}
			if i < len(ir.MultipleChoice) {
				row.Choice = ir.MultipleChoice[i]
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// decodeScalar reads a JSON string, tolerating absent values.
func decodeScalar(raw json.RawMessage, dst *string) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*dst = ""
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// decodeStringList reads a string sequence that may arrive as a JSON
// array or as a JSON-string-encoded array.
func decodeStringList(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, err
		}
		if inner == "" {
			return nil, nil
		}
		return decodeStringList(json.RawMessage(inner))
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// decodeFiles reads a file attachment sequence with the same tolerance.
func decodeFiles(raw json.RawMessage) ([]model.FileAttachment, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, err
		}
		if inner == "" {
			return nil, nil
		}
		return decodeFiles(json.RawMessage(inner))
	}
	var files []model.FileAttachment
	if err := json.Unmarshal(raw, &files); err != nil {
		return nil, err
	}
	return files, nil
}
