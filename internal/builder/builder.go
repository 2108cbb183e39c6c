// Package builder implements the authoring model for form documents: field
// creation and patching, ordering, option-list editing, and image
// annotation placement. All per-type decisions are delegated to the
// fieldtype registry.
package builder

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/formbox/formbox-backend/internal/fieldtype"
	"github.com/formbox/formbox-backend/internal/model"
	"github.com/google/uuid"
)

// Domain errors.
var (
	ErrFieldNotFound  = errors.New("field not found")
	ErrOptionNotFound = errors.New("option not found")
	ErrSlotNotAllowed = errors.New("option slot not meaningful for field type")
	ErrNotImageField  = errors.New("annotations require an image field")
	ErrUnknownSlot    = errors.New("unknown option slot")
)

// Direction moves a field relative to its neighbors.
type Direction int

const (
	Up   Direction = -1
	Down Direction = 1
)

// OptionSlot names the option sequence an option operation targets.
// Primary is the sequence owned by choice-like types; Checkbox and Choice
// are the two independent sub-answer sequences of image_upload.
type OptionSlot string

const (
	SlotPrimary  OptionSlot = "options"
	SlotCheckbox OptionSlot = "checkbox_options"
	SlotChoice   OptionSlot = "choice_options"
)

// idSeq backs generated option/annotation/admin-image ids. Seeded with wall
// clock millis so ids from separate processes rarely collide, then strictly
// increasing within the process.
var idSeq atomic.Int64

func init() {
	idSeq.Store(time.Now().UnixMilli())
}

func nextID() int64 {
	return idSeq.Add(1)
}

// NewDocument creates an empty form document with all defaults applied.
func NewDocument() *model.FormDocument {
	return &model.FormDocument{
		Title:                  "",
		Description:            "",
		Theme:                  "default",
		AllowMultipleResponses: true,
		RequireEmail:           false,
		Fields:                 []model.FieldConfig{},
	}
}

// CreateField produces a new field of the given type with a fresh uid, no
// persistence id, and type-appropriate empty defaults. Option sequences are
// initialized only for types that own them.
func CreateField(t model.FieldType) (model.FieldConfig, error) {
	spec, err := fieldtype.Lookup(t)
	if err != nil {
		return model.FieldConfig{}, err
	}

	f := model.FieldConfig{
		UID:      uuid.NewString(),
		Type:     t,
		Required: false,
	}
	if spec.HasKey(fieldtype.KeyOptions) {
		f.Options = model.OptionList{}
	}
	if spec.HasKey(fieldtype.KeyCheckboxOptions) {
		f.CheckboxOptions = model.OptionList{}
	}
	if spec.HasKey(fieldtype.KeyChoiceOptions) {
		f.ChoiceOptions = model.OptionList{}
	}
	if spec.HasKey(fieldtype.KeyAdminImages) {
		f.AdminImages = model.ImageList{}
	}
	if spec.HasKey(fieldtype.KeyMaxImages) {
		f.MaxImages = 1
	}
	if spec.HasKey(fieldtype.KeyAnnotations) {
		f.Annotations = []model.Annotation{}
	}
	return f, nil
}

// FieldPatch is a partial update for a field. Nil members are untouched.
type FieldPatch struct {
	Label             *string
	Type              *model.FieldType
	Required          *bool
	Placeholder       *string
	Options           *model.OptionList
	ImageURL          *string
	Annotations       *[]model.Annotation
	Content           *string
	MaxImages         *int
	EnableAdminImages *bool
	AdminImages       *model.ImageList
	CheckboxOptions   *model.OptionList
	ChoiceQuestion    *string
	ChoiceOptions     *model.OptionList
}

// AddField appends a freshly created field to the document.
func AddField(doc *model.FormDocument, t model.FieldType) (*model.FieldConfig, error) {
	f, err := CreateField(t)
	if err != nil {
		return nil, err
	}
	doc.Fields = append(doc.Fields, f)
	return &doc.Fields[len(doc.Fields)-1], nil
}

// UpdateField merges the patch into the field matching uid. A type change
// re-sanitizes the config: option sequences and other attributes that are
// not meaningful for the new type are dropped, never type-punned into the
// new type's slots.
func UpdateField(doc *model.FormDocument, uid string, patch FieldPatch) (*model.FieldConfig, error) {
	f := doc.FieldByUID(uid)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, uid)
	}

	if patch.Type != nil && *patch.Type != f.Type {
		if !fieldtype.Known(*patch.Type) {
			return nil, fmt.Errorf("%w: %q", fieldtype.ErrUnknownType, *patch.Type)
		}
		f.Type = *patch.Type
	}

	if patch.Label != nil {
		f.Label = *patch.Label
	}
	if patch.Required != nil {
		f.Required = *patch.Required
	}
	if patch.Placeholder != nil {
		f.Placeholder = *patch.Placeholder
	}
	if patch.Options != nil {
		f.Options = *patch.Options
	}
	if patch.ImageURL != nil {
		f.ImageURL = *patch.ImageURL
	}
	if patch.Annotations != nil {
		f.Annotations = *patch.Annotations
	}
	if patch.Content != nil {
		f.Content = *patch.Content
	}
	if patch.MaxImages != nil {
		f.MaxImages = *patch.MaxImages
		if f.MaxImages < 1 {
			f.MaxImages = 1
		}
	}
	if patch.EnableAdminImages != nil {
		f.EnableAdminImages = *patch.EnableAdminImages
	}
	if patch.AdminImages != nil {
		f.AdminImages = *patch.AdminImages
	}
	if patch.CheckboxOptions != nil {
		f.CheckboxOptions = *patch.CheckboxOptions
	}
	if patch.ChoiceQuestion != nil {
		f.ChoiceQuestion = *patch.ChoiceQuestion
	}
	if patch.ChoiceOptions != nil {
		f.ChoiceOptions = *patch.ChoiceOptions
	}

	sanitizeField(f)
	return f, nil
}

// sanitizeField clears every attribute the field's current type does not
// declare in the registry.
func sanitizeField(f *model.FieldConfig) {
	spec, err := fieldtype.Lookup(f.Type)
	if err != nil {
		return
	}
	if !spec.HasKey(fieldtype.KeyPlaceholder) {
		f.Placeholder = ""
	}
	if !spec.HasKey(fieldtype.KeyOptions) {
		f.Options = nil
	} else if f.Options == nil {
		f.Options = model.OptionList{}
	}
	if !spec.HasKey(fieldtype.KeyImageURL) {
		f.ImageURL = ""
	}
	if !spec.HasKey(fieldtype.KeyAnnotations) {
		f.Annotations = nil
	}
	if !spec.HasKey(fieldtype.KeyContent) {
		f.Content = ""
	}
	if !spec.HasKey(fieldtype.KeyMaxImages) {
		f.MaxImages = 0
	} else if f.MaxImages < 1 {
		f.MaxImages = 1
	}
	if !spec.HasKey(fieldtype.KeyEnableAdminImages) {
		f.EnableAdminImages = false
	}
	if !spec.HasKey(fieldtype.KeyAdminImages) {
		f.AdminImages = nil
	}
	if !spec.HasKey(fieldtype.KeyCheckboxOptions) {
		f.CheckboxOptions = nil
	}
	if !spec.HasKey(fieldtype.KeyChoiceQuestion) {
		f.ChoiceQuestion = ""
	}
	if !spec.HasKey(fieldtype.KeyChoiceOptions) {
		f.ChoiceOptions = nil
	}
}

// RemoveField deletes the field matching uid, preserving the order of the
// remaining fields.
func RemoveField(doc *model.FormDocument, uid string) error {
	for i := range doc.Fields {
		if doc.Fields[i].UID == uid {
			doc.Fields = append(doc.Fields[:i], doc.Fields[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrFieldNotFound, uid)
}

// ReorderField swaps the field at uid with its neighbor in the given
// direction. A move past either boundary is a no-op.
func ReorderField(doc *model.FormDocument, uid string, dir Direction) ([]model.FieldConfig, error) {
	idx := -1
	for i := range doc.Fields {
		if doc.Fields[i].UID == uid {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, uid)
	}

	target := idx + int(dir)
	if target < 0 || target >= len(doc.Fields) {
		return doc.Fields, nil
	}
	doc.Fields[idx], doc.Fields[target] = doc.Fields[target], doc.Fields[idx]
	return doc.Fields, nil
}

// optionSlot resolves the targeted option sequence, enforcing that the
// slot is meaningful for the field's current type.
func optionSlot(f *model.FieldConfig, slot OptionSlot) (*model.OptionList, error) {
	spec, err := fieldtype.Lookup(f.Type)
	if err != nil {
		return nil, err
	}

	var key string
	var list *model.OptionList
	switch slot {
	case SlotPrimary:
		key, list = fieldtype.KeyOptions, &f.Options
	case SlotCheckbox:
		key, list = fieldtype.KeyCheckboxOptions, &f.CheckboxOptions
	case SlotChoice:
		key, list = fieldtype.KeyChoiceOptions, &f.ChoiceOptions
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	if !spec.HasKey(key) {
		return nil, fmt.Errorf("%w: %s on %s", ErrSlotNotAllowed, slot, f.Type)
	}
	return list, nil
}

// AddOption appends an option with a generated id to the targeted slot.
func AddOption(doc *model.FormDocument, uid string, slot OptionSlot, label string) (*model.Option, error) {
	f := doc.FieldByUID(uid)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, uid)
	}
	list, err := optionSlot(f, slot)
	if err != nil {
		return nil, err
	}
	opt := model.Option{ID: nextID(), Label: label}
	*list = append(*list, opt)
	return &(*list)[len(*list)-1], nil
}

// UpdateOption replaces the label of the option at index in the targeted
// slot. Legacy entries without an id are given one on first write.
func UpdateOption(doc *model.FormDocument, uid string, slot OptionSlot, index int, label string) error {
	f := doc.FieldByUID(uid)
	if f == nil {
		return fmt.Errorf("%w: %s", ErrFieldNotFound, uid)
	}
	list, err := optionSlot(f, slot)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(*list) {
		return fmt.Errorf("%w: index %d", ErrOptionNotFound, index)
	}
	if (*list)[index].ID == 0 {
		(*list)[index].ID = nextID()
	}
	(*list)[index].Label = label
	return nil
}

// RemoveOption deletes the option at index in the targeted slot.
func RemoveOption(doc *model.FormDocument, uid string, slot OptionSlot, index int) error {
	f := doc.FieldByUID(uid)
	if f == nil {
		return fmt.Errorf("%w: %s", ErrFieldNotFound, uid)
	}
	list, err := optionSlot(f, slot)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(*list) {
		return fmt.Errorf("%w: index %d", ErrOptionNotFound, index)
	}
	*list = append((*list)[:index], (*list)[index+1:]...)
	return nil
}

// AddAnnotation inserts an overlay at the default position for its kind:
// hotspots start 20×20, other annotations 100×40, all centered at
// (50%, 50%). Annotations are positioned independently and may overlap.
func AddAnnotation(doc *model.FormDocument, uid string, t model.AnnotationType) (*model.Annotation, error) {
	f := doc.FieldByUID(uid)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, uid)
	}
	if f.Type != model.FieldImage {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotImageField, uid, f.Type)
	}

	anno := model.Annotation{
		ID:     nextID(),
		Type:   t,
		X:      50,
		Y:      50,
		Width:  100,
		Height: 40,
	}
	if t == model.AnnotationHotspot {
		anno.Width, anno.Height = 20, 20
	}
	if t == model.AnnotationMultipleChoice {
		anno.Options = model.OptionList{{ID: nextID(), Label: "Option 1"}}
	}
	f.Annotations = append(f.Annotations, anno)
	return &f.Annotations[len(f.Annotations)-1], nil
}

// ValidateDocument prepares a document for the save boundary: an
// empty-after-trim title falls back to the default rather than failing,
// and every field type must be inside the registry's closed set.
func ValidateDocument(doc *model.FormDocument) error {
	if strings.TrimSpace(doc.Title) == "" {
		doc.Title = model.DefaultTitle
	}
	if doc.Theme == "" {
		doc.Theme = "default"
	}
	for i := range doc.Fields {
		f := &doc.Fields[i]
		if !fieldtype.Known(f.Type) {
			return fmt.Errorf("field %d (%s): %w: %q", i, f.UID, fieldtype.ErrUnknownType, f.Type)
		}
		if f.UID == "" {
			f.UID = uuid.NewString()
		}
		sanitizeField(f)
	}
	return nil
}
