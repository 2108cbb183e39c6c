// Package fieldtype is the single source of per-type behavior for form
// fields: which configuration keys a type owns, how its answer is shaped,
// and when a recorded value satisfies a required field. Editor, fill, and
// review code consult this registry instead of branching on the type
// themselves.
package fieldtype

import (
	"errors"
	"fmt"
	"strings"

	"github.com/formbox/formbox-backend/internal/model"
)

// ErrUnknownType is returned for a type outside the registry's closed set.
// Unknown types are a configuration error surfaced to the author, never
// silently coerced.
var ErrUnknownType = errors.New("unknown field type")

// AnswerShape describes the value encoding a type expects at submission.
type AnswerShape string

const (
	// ShapeText is a scalar text answer.
	ShapeText AnswerShape = "text"
	// ShapeTextList is a sequence of selected labels.
	ShapeTextList AnswerShape = "text_list"
	// ShapeFileList is a sequence of uploaded file references.
	ShapeFileList AnswerShape = "file_list"
	// ShapeImageList is a sequence of uploaded images, each carrying the
	// field's shared checkbox/choice sub-answers.
	ShapeImageList AnswerShape = "image_list"
	// ShapeNone marks display-only fields that take no answer.
	ShapeNone AnswerShape = "none"
)

// Config keys meaningful to at least one field type.
const (
	KeyPlaceholder       = "placeholder"
	KeyOptions           = "options"
	KeyImageURL          = "imageUrl"
	KeyAnnotations       = "annotations"
	KeyContent           = "content"
	KeyMaxImages         = "max_images"
	KeyEnableAdminImages = "enableAdminImages"
	KeyAdminImages       = "adminImages"
	KeyCheckboxOptions   = "checkbox_options"
	KeyChoiceQuestion    = "choice_question"
	KeyChoiceOptions     = "choice_options"
)

// Spec declares the full per-type contract.
type Spec struct {
	Type        model.FieldType
	ConfigKeys  []string
	AnswerShape AnswerShape
}

var registry = map[model.FieldType]Spec{
	model.FieldShortAnswer: {
		Type:        model.FieldShortAnswer,
		ConfigKeys:  []string{KeyPlaceholder},
		AnswerShape: ShapeText,
	},
	model.FieldParagraph: {
		Type:        model.FieldParagraph,
		ConfigKeys:  []string{KeyPlaceholder},
		AnswerShape: ShapeText,
	},
	model.FieldMultipleChoice: {
		Type:        model.FieldMultipleChoice,
		ConfigKeys:  []string{KeyOptions},
		AnswerShape: ShapeText,
	},
	model.FieldCheckboxes: {
		Type:        model.FieldCheckboxes,
		ConfigKeys:  []string{KeyOptions},
		AnswerShape: ShapeTextList,
	},
	model.FieldDropdown: {
		Type:        model.FieldDropdown,
		ConfigKeys:  []string{KeyOptions},
		AnswerShape: ShapeText,
	},
	model.FieldDate: {
		Type:        model.FieldDate,
		ConfigKeys:  []string{KeyPlaceholder},
		AnswerShape: ShapeText,
	},
	model.FieldTime: {
		Type:        model.FieldTime,
		ConfigKeys:  []string{KeyPlaceholder},
		AnswerShape: ShapeText,
	},
	model.FieldFileUpload: {
		Type:        model.FieldFileUpload,
		ConfigKeys:  []string{KeyPlaceholder, KeyContent, KeyMaxImages},
		AnswerShape: ShapeFileList,
	},
	model.FieldImage: {
		Type:        model.FieldImage,
		ConfigKeys:  []string{KeyImageURL, KeyAnnotations},
		AnswerShape: ShapeNone,
	},
	model.FieldImageUpload: {
		Type: model.FieldImageUpload,
		ConfigKeys: []string{
			KeyContent, KeyMaxImages,
			KeyEnableAdminImages, KeyAdminImages,
			KeyCheckboxOptions, KeyChoiceQuestion, KeyChoiceOptions,
		},
		AnswerShape: ShapeImageList,
	},
}

// Lookup returns the spec for a field type.
func Lookup(t model.FieldType) (Spec, error) {
	spec, ok := registry[t]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return spec, nil
}

// Known reports whether t is inside the closed set.
func Known(t model.FieldType) bool {
	_, ok := registry[t]
	return ok
}

// HasKey reports whether the config key is meaningful for this type.
func (s Spec) HasKey(key string) bool {
	for _, k := range s.ConfigKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Answerable reports whether the type accepts a respondent answer at all.
func (s Spec) Answerable() bool {
	return s.AnswerShape != ShapeNone
}

// Answered is the required-field validation predicate: it reports whether
// the recorded value satisfies the type's answer shape. Display-only types
// are always satisfied.
func (s Spec) Answered(v model.AnswerValue) bool {
	switch s.AnswerShape {
	case ShapeText:
		return strings.TrimSpace(v.Text) != ""
	case ShapeTextList:
		return len(v.Texts) > 0
	case ShapeFileList, ShapeImageList:
		return len(v.Files) > 0
	case ShapeNone:
		return true
	default:
		return false
	}
}
