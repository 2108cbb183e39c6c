package model

import "encoding/json"

// FilePart references one multipart file part of a submission by its part
// key. Parts are named image_<uid>_<idx> or file_<uid>_<idx> by the fill
// client; the index encodes the respondent's selection order.
type FilePart struct {
	Name    string `json:"name"`
	FileKey string `json:"fileKey"`
}

// SubmittedAnswer is the wire shape of one answer inside the multipart
// "answers" part. Text is kept raw because checkbox answers arrive as an
// array where scalar types carry a string.
type SubmittedAnswer struct {
	QuestionID int64           `json:"questionId"`
	FieldUID   string          `json:"fieldUid"`
	Type       FieldType       `json:"type"`
	Text       json.RawMessage `json:"text,omitempty"`

	// image_upload: file parts plus the shared sub-answer set.
	ImageData               []FilePart `json:"imageData,omitempty"`
	CheckboxSelections      []string   `json:"checkboxSelections,omitempty"`
	MultipleChoiceSelection string     `json:"multipleChoiceSelection,omitempty"`

	// file_upload
	FileData []FilePart `json:"fileData,omitempty"`
}
