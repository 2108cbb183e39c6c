package builder

import (
	"errors"
	"testing"

	"github.com/formbox/formbox-backend/internal/fieldtype"
	"github.com/formbox/formbox-backend/internal/model"
	"github.com/google/go-cmp/cmp"
)

func TestNewDocumentDefaults(t *testing.T) {
	doc := NewDocument()
	if doc.Theme != "default" {
		t.Errorf("theme = %q, want default", doc.Theme)
	}
	if !doc.AllowMultipleResponses {
		t.Error("new documents should allow multiple responses")
	}
	if doc.RequireEmail {
		t.Error("new documents should not require email")
	}
	if doc.Fields == nil || len(doc.Fields) != 0 {
		t.Error("fields should be an empty slice, not nil")
	}
}

func TestCreateFieldDefaults(t *testing.T) {
	f, err := CreateField(model.FieldMultipleChoice)
	if err != nil {
		t.Fatalf("CreateField: %v", err)
	}
	if f.UID == "" {
		t.Error("uid should be assigned at creation")
	}
	if f.ID != 0 {
		t.Error("persistence id must stay unset until save")
	}
	if f.Options == nil {
		t.Error("choice types should start with an empty option sequence")
	}

	iu, err := CreateField(model.FieldImageUpload)
	if err != nil {
		t.Fatalf("CreateField: %v", err)
	}
	if iu.MaxImages != 1 {
		t.Errorf("max_images = %d, want 1", iu.MaxImages)
	}
	if iu.CheckboxOptions == nil || iu.ChoiceOptions == nil {
		t.Error("image_upload should start with empty sub-answer option sequences")
	}
	if iu.Options != nil {
		t.Error("image_upload does not own the primary option sequence")
	}
}

func TestCreateFieldUnknownType(t *testing.T) {
	_, err := CreateField(model.FieldType("matrix"))
	if !errors.Is(err, fieldtype.ErrUnknownType) {
		t.Fatalf("want ErrUnknownType, got %v", err)
	}
}

func TestUpdateFieldTypeChangeSanitizes(t *testing.T) {
	doc := NewDocument()
	f, err := AddField(doc, model.FieldMultipleChoice)
	if err != nil {
		t.Fatalf("AddField: %v", err)
	}
	if _, err := AddOption(doc, f.UID, SlotPrimary, "Red"); err != nil {
		t.Fatalf("AddOption: %v", err)
	}

	newType := model.FieldShortAnswer
	got, err := UpdateField(doc, f.UID, FieldPatch{Type: &newType})
	if err != nil {
		t.Fatalf("UpdateField: %v", err)
	}
	if got.Options != nil {
		t.Error("options must be dropped when the type stops owning them")
	}

	// And back: the option list does not resurrect.
	backType := model.FieldDropdown
	got, err = UpdateField(doc, f.UID, FieldPatch{Type: &backType})
	if err != nil {
		t.Fatalf("UpdateField: %v", err)
	}
	if len(got.Options) != 0 {
		t.Errorf("options = %v, want empty after round-trip", got.Options)
	}
}

func TestUpdateFieldClampsMaxImages(t *testing.T) {
	doc := NewDocument()
	f, _ := AddField(doc, model.FieldImageUpload)

	zero := 0
	got, err := UpdateField(doc, f.UID, FieldPatch{MaxImages: &zero})
	if err != nil {
		t.Fatalf("UpdateField: %v", err)
	}
	if got.MaxImages != 1 {
		t.Errorf("max_images = %d, want clamp to 1", got.MaxImages)
	}
}

func TestRemoveFieldPreservesOrder(t *testing.T) {
	doc := NewDocument()
	a, _ := AddField(doc, model.FieldShortAnswer)
	b, _ := AddField(doc, model.FieldParagraph)
	c, _ := AddField(doc, model.FieldDate)

	if err := RemoveField(doc, b.UID); err != nil {
		t.Fatalf("RemoveField: %v", err)
	}

	want := []string{a.UID, c.UID}
	var got []string
	for _, f := range doc.Fields {
		got = append(got, f.UID)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("field order mismatch (-want +got):\n%s", diff)
	}

	if err := RemoveField(doc, "missing"); !errors.Is(err, ErrFieldNotFound) {
		t.Errorf("want ErrFieldNotFound, got %v", err)
	}
}

func TestReorderFieldBoundaries(t *testing.T) {
	doc := NewDocument()
	a, _ := AddField(doc, model.FieldShortAnswer)
	b, _ := AddField(doc, model.FieldParagraph)

	// Moving the first field up is a no-op, not an error.
	if _, err := ReorderField(doc, a.UID, Up); err != nil {
		t.Fatalf("ReorderField: %v", err)
	}
	if doc.Fields[0].UID != a.UID {
		t.Error("boundary move should not change order")
	}

	if _, err := ReorderField(doc, a.UID, Down); err != nil {
		t.Fatalf("ReorderField: %v", err)
	}
	if doc.Fields[0].UID != b.UID || doc.Fields[1].UID != a.UID {
		t.Error("down move should swap adjacent fields")
	}

	if _, err := ReorderField(doc, a.UID, Down); err != nil {
		t.Fatalf("ReorderField: %v", err)
	}
	if doc.Fields[1].UID != a.UID {
		t.Error("moving the last field down should be a no-op")
	}
}

func TestOptionSlotEnforcement(t *testing.T) {
	doc := NewDocument()
	sa, _ := AddField(doc, model.FieldShortAnswer)
	iu, _ := AddField(doc, model.FieldImageUpload)

	if _, err := AddOption(doc, sa.UID, SlotPrimary, "nope"); !errors.Is(err, ErrSlotNotAllowed) {
		t.Errorf("want ErrSlotNotAllowed on short_answer, got %v", err)
	}
	if _, err := AddOption(doc, iu.UID, SlotPrimary, "nope"); !errors.Is(err, ErrSlotNotAllowed) {
		t.Errorf("want ErrSlotNotAllowed for primary slot on image_upload, got %v", err)
	}
	if _, err := AddOption(doc, iu.UID, SlotCheckbox, "Damaged"); err != nil {
		t.Errorf("checkbox slot on image_upload: %v", err)
	}
	if _, err := AddOption(doc, iu.UID, OptionSlot("bogus"), "x"); !errors.Is(err, ErrUnknownSlot) {
		t.Errorf("want ErrUnknownSlot, got %v", err)
	}
}

func TestOptionLifecycle(t *testing.T) {
	doc := NewDocument()
	f, _ := AddField(doc, model.FieldCheckboxes)

	first, err := AddOption(doc, f.UID, SlotPrimary, "One")
	if err != nil {
		t.Fatalf("AddOption: %v", err)
	}
	second, _ := AddOption(doc, f.UID, SlotPrimary, "Two")
	if first.ID == second.ID {
		t.Error("option ids must be unique within the field")
	}

	if err := UpdateOption(doc, f.UID, SlotPrimary, 0, "Uno"); err != nil {
		t.Fatalf("UpdateOption: %v", err)
	}
	if doc.Fields[0].Options[0].Label != "Uno" {
		t.Errorf("label = %q, want Uno", doc.Fields[0].Options[0].Label)
	}

	if err := RemoveOption(doc, f.UID, SlotPrimary, 0); err != nil {
		t.Fatalf("RemoveOption: %v", err)
	}
	if len(doc.Fields[0].Options) != 1 || doc.Fields[0].Options[0].Label != "Two" {
		t.Errorf("options = %v, want just Two", doc.Fields[0].Options)
	}

	if err := RemoveOption(doc, f.UID, SlotPrimary, 5); !errors.Is(err, ErrOptionNotFound) {
		t.Errorf("want ErrOptionNotFound, got %v", err)
	}
}

func TestUpdateOptionBackfillsLegacyID(t *testing.T) {
	doc := NewDocument()
	f, _ := AddField(doc, model.FieldDropdown)
	f.Options = model.OptionList{{ID: 0, Label: "old"}}

	if err := UpdateOption(doc, f.UID, SlotPrimary, 0, "renamed"); err != nil {
		t.Fatalf("UpdateOption: %v", err)
	}
	if doc.Fields[0].Options[0].ID == 0 {
		t.Error("legacy option should receive an id on first write")
	}
}

func TestAddAnnotation(t *testing.T) {
	doc := NewDocument()
	img, _ := AddField(doc, model.FieldImage)
	sa, _ := AddField(doc, model.FieldShortAnswer)

	hotspot, err := AddAnnotation(doc, img.UID, model.AnnotationHotspot)
	if err != nil {
		t.Fatalf("AddAnnotation: %v", err)
	}
	if hotspot.Width != 20 || hotspot.Height != 20 {
		t.Errorf("hotspot size = %dx%d, want 20x20", hotspot.Width, hotspot.Height)
	}
	if hotspot.X != 50 || hotspot.Y != 50 {
		t.Errorf("position = (%v,%v), want centered", hotspot.X, hotspot.Y)
	}

	text, err := AddAnnotation(doc, img.UID, model.AnnotationText)
	if err != nil {
		t.Fatalf("AddAnnotation: %v", err)
	}
	if text.Width != 100 || text.Height != 40 {
		t.Errorf("text size = %dx%d, want 100x40", text.Width, text.Height)
	}

	mc, err := AddAnnotation(doc, img.UID, model.AnnotationMultipleChoice)
	if err != nil {
		t.Fatalf("AddAnnotation: %v", err)
	}
	if len(mc.Options) != 1 || mc.Options[0].Label != "Option 1" {
		t.Errorf("choice annotation options = %v, want one seeded option", mc.Options)
	}

	if _, err := AddAnnotation(doc, sa.UID, model.AnnotationText); !errors.Is(err, ErrNotImageField) {
		t.Errorf("want ErrNotImageField, got %v", err)
	}
}

func TestValidateDocument(t *testing.T) {
	doc := NewDocument()
	doc.Title = "   "
	f, _ := AddField(doc, model.FieldShortAnswer)
	f.UID = ""

	if err := ValidateDocument(doc); err != nil {
		t.Fatalf("ValidateDocument: %v", err)
	}
	if doc.Title != model.DefaultTitle {
		t.Errorf("title = %q, want default fallback", doc.Title)
	}
	if doc.Fields[0].UID == "" {
		t.Error("missing uid should be backfilled")
	}

	doc.Fields[0].Type = model.FieldType("ranking")
	if err := ValidateDocument(doc); !errors.Is(err, fieldtype.ErrUnknownType) {
		t.Errorf("want ErrUnknownType, got %v", err)
	}
}
