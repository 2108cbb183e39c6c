package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FieldType enumerates the closed set of supported question types.
// Adding a type requires simultaneous updates to the field type registry,
// the builder defaults, and the answer encoding.
type FieldType string

const (
	FieldShortAnswer    FieldType = "short_answer"
	FieldParagraph      FieldType = "paragraph"
	FieldMultipleChoice FieldType = "multiple_choice"
	FieldCheckboxes     FieldType = "checkboxes"
	FieldDropdown       FieldType = "dropdown"
	FieldDate           FieldType = "date"
	FieldTime           FieldType = "time"
	FieldFileUpload     FieldType = "file_upload"
	FieldImage          FieldType = "image"
	FieldImageUpload    FieldType = "image_upload"
)

// Option is a single selectable choice. The id is unique within the
// owning field; labels are not required to be unique.
type Option struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// OptionList is an ordered option sequence that tolerates every shape the
// persistence boundary has historically produced: a JSON array of
// {id,label} objects, a JSON array of bare strings, or the whole array
// re-encoded as a JSON string. It always normalizes to structured form.
type OptionList []Option

// UnmarshalJSON implements the normalize-on-read discipline for
// option-bearing attributes.
func (l *OptionList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	// Legacy shape: the array itself arrives JSON-string-encoded.
	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		if inner == "" {
			*l = OptionList{}
			return nil
		}
		return l.UnmarshalJSON([]byte(inner))
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("option list: %w", err)
	}

	out := make(OptionList, 0, len(raw))
	for i, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			// Bare-string entry from early revisions. Assign a
			// positional id so ids stay unique within the field.
			var label string
			if err := json.Unmarshal(item, &label); err != nil {
				return fmt.Errorf("option %d: %w", i, err)
			}
			out = append(out, Option{ID: int64(i + 1), Label: label})
			continue
		}
		var opt Option
		if err := json.Unmarshal(item, &opt); err != nil {
			return fmt.Errorf("option %d: %w", i, err)
		}
		out = append(out, opt)
	}
	*l = out
	return nil
}

// Labels returns the option labels in order.
func (l OptionList) Labels() []string {
	labels := make([]string, len(l))
	for i, opt := range l {
		labels[i] = opt.Label
	}
	return labels
}

// AdminImage is a reference image supplied by the form author, shown to
// respondents alongside an image_upload field.
type AdminImage struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// ImageList is an ordered admin image sequence with the same tolerant
// decoding as OptionList (array or JSON-string-encoded array).
type ImageList []AdminImage

func (l *ImageList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		if inner == "" {
			*l = ImageList{}
			return nil
		}
		return l.UnmarshalJSON([]byte(inner))
	}

	var imgs []AdminImage
	if err := json.Unmarshal(data, &imgs); err != nil {
		return fmt.Errorf("admin image list: %w", err)
	}
	*l = ImageList(imgs)
	return nil
}

// AnnotationType enumerates the overlay kinds for an image field.
type AnnotationType string

const (
	AnnotationText           AnnotationType = "text"
	AnnotationMultipleChoice AnnotationType = "multiple_choice"
	AnnotationHotspot        AnnotationType = "hotspot"
)

// Annotation is a positioned overlay on an image field.
// X and Y are percentages of the image; Width and Height are pixels.
type Annotation struct {
	ID      int64          `json:"id"`
	Type    AnnotationType `json:"type"`
	X       float64        `json:"x"`
	Y       float64        `json:"y"`
	Width   int            `json:"width"`
	Height  int            `json:"height"`
	Options OptionList     `json:"options,omitempty"`
}

// FieldConfig is one question definition within a form document.
//
// UID is author-assigned and immutable once created; ID is assigned by the
// persistence boundary on first save. The two are distinct: answers
// reference ID, editor operations reference UID.
//
// Type-specific attributes are populated only when the type warrants them;
// the builder clears slots that stop being meaningful after a type change.
type FieldConfig struct {
	UID         string    `json:"uid"`
	ID          int64     `json:"id,omitempty"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	Placeholder string    `json:"placeholder,omitempty"`

	// multiple_choice, checkboxes, dropdown
	Options OptionList `json:"options,omitempty"`

	// image
	ImageURL    string       `json:"imageUrl,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`

	// file_upload, image_upload
	Content   string `json:"content,omitempty"`
	MaxImages int    `json:"max_images,omitempty"`

	// image_upload
	EnableAdminImages bool       `json:"enableAdminImages,omitempty"`
	AdminImages       ImageList  `json:"adminImages,omitempty"`
	CheckboxOptions   OptionList `json:"checkbox_options,omitempty"`
	ChoiceQuestion    string     `json:"choice_question,omitempty"`
	ChoiceOptions     OptionList `json:"choice_options,omitempty"`
}

// EffectiveMaxImages returns the upload ceiling for the field.
// Values below 1 (including absent) collapse to 1.
func (f *FieldConfig) EffectiveMaxImages() int {
	if f.MaxImages < 1 {
		return 1
	}
	return f.MaxImages
}
