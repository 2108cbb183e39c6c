package model

import (
	"encoding/json"
	"strings"
	"time"
)

// FileAttachment is one stored file reference within an answer.
type FileAttachment struct {
	FileReference string `json:"fileReference"`
	OriginalName  string `json:"originalName,omitempty"`
}

// ImageAnswer is one uploaded image within an image_upload answer.
// The checkbox and choice sub-answers are shared across every image in the
// field and travel with each entry.
type ImageAnswer struct {
	FileReference           string   `json:"fileReference"`
	CheckboxSelections      []string `json:"checkboxSelections,omitempty"`
	MultipleChoiceSelection string   `json:"multipleChoiceSelection,omitempty"`
}

// AnswerEntry is one respondent's value for one field. Exactly one of the
// value slots is populated, determined by Type:
//
//	Text       — short_answer, paragraph, date, time, dropdown, multiple_choice
//	Selections — checkboxes
//	Files      — file_upload
//	Images     — image_upload
type AnswerEntry struct {
	QuestionID int64            `json:"questionId"`
	FieldUID   string           `json:"fieldUid,omitempty"`
	Type       FieldType        `json:"type"`
	Text       string           `json:"text,omitempty"`
	Selections []string         `json:"selections,omitempty"`
	Files      []FileAttachment `json:"files,omitempty"`
	Images     []ImageAnswer    `json:"images,omitempty"`
}

// ResponseEnvelope is one respondent's submission. Entries for fields
// answered with an empty value are omitted, never sent as null.
type ResponseEnvelope struct {
	FormID      int64         `json:"formId"`
	Answers     []AnswerEntry `json:"answers"`
	SubmittedAt time.Time     `json:"submittedAt"`
}

// StoredResponse is a persisted submission as returned by the repository.
// Answers is kept raw: historical records encode sub-fields inconsistently
// and are normalized by the review package, not here.
type StoredResponse struct {
	ID          int64           `json:"id"`
	FormID      int64           `json:"form_id"`
	Respondent  string          `json:"respondent,omitempty"`
	Email       string          `json:"email,omitempty"`
	Answers     json.RawMessage `json:"answers"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// AnswerValue is a recorded in-progress answer before encoding.
// Scalar answers use Text, checkbox selections use Texts, and upload
// fields use Files.
type AnswerValue struct {
	Text  string
	Texts []string
	Files []FileAttachment
}

// TextValue builds a scalar answer value.
func TextValue(s string) AnswerValue { return AnswerValue{Text: s} }

// ListValue builds a multi-select answer value.
func ListValue(items ...string) AnswerValue { return AnswerValue{Texts: items} }

// FilesValue builds an upload answer value.
func FilesValue(files ...FileAttachment) AnswerValue { return AnswerValue{Files: files} }

// IsEmpty reports whether the value counts as unanswered: absent, an empty
// or whitespace-only string, or an empty sequence.
func (v AnswerValue) IsEmpty() bool {
	return strings.TrimSpace(v.Text) == "" && len(v.Texts) == 0 && len(v.Files) == 0
}
