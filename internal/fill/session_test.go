package fill

import (
	"errors"
	"testing"

	"github.com/formbox/formbox-backend/internal/model"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func surveyDoc() *model.FormDocument {
	return &model.FormDocument{
		ID: 42,
		Fields: []model.FieldConfig{
			{UID: "name", ID: 1, Label: "Your name", Type: model.FieldShortAnswer, Required: true},
			{UID: "bio", ID: 2, Label: "About you", Type: model.FieldParagraph},
			{UID: "colors", ID: 3, Label: "Colors", Type: model.FieldCheckboxes, Required: true,
				Options: model.OptionList{{ID: 1, Label: "Red"}, {ID: 2, Label: "Blue"}}},
			{UID: "banner", ID: 4, Label: "Banner", Type: model.FieldImage, Required: true},
			{UID: "photos", ID: 5, Label: "Photos", Type: model.FieldImageUpload, MaxImages: 2,
				CheckboxOptions: model.OptionList{{ID: 1, Label: "Blurry"}, {ID: 2, Label: "Cropped"}},
				ChoiceQuestion:  "Overall quality?",
				ChoiceOptions:   model.OptionList{{ID: 1, Label: "Good"}, {ID: 2, Label: "Bad"}}},
		},
	}
}

func TestValidateReportsMissingInDocumentOrder(t *testing.T) {
	s := NewSession(surveyDoc())

	missing := s.Validate()
	want := []string{"Your name", "Colors"}
	if diff := cmp.Diff(want, missing); diff != "" {
		t.Errorf("missing labels mismatch (-want +got):\n%s", diff)
	}
	if s.Err() == nil {
		t.Error("failed validation should retain an error")
	}
}

func TestValidateTrimRule(t *testing.T) {
	s := NewSession(surveyDoc())
	s.RecordAnswer("name", model.TextValue("   "))
	s.RecordAnswer("colors", model.ListValue("Red"))

	missing := s.Validate()
	if diff := cmp.Diff([]string{"Your name"}, missing); diff != "" {
		t.Errorf("whitespace-only text must not satisfy a required field (-want +got):\n%s", diff)
	}
}

func TestDisplayFieldNeverRequired(t *testing.T) {
	// "banner" is a display-only image marked required; it must not
	// appear in the missing list because it takes no answer.
	s := NewSession(surveyDoc())
	s.RecordAnswer("name", model.TextValue("Ada"))
	s.RecordAnswer("colors", model.ListValue("Blue"))

	if missing := s.Validate(); len(missing) != 0 {
		t.Errorf("missing = %v, want none", missing)
	}
}

func TestSubAnswersNeverIndependentlyRequired(t *testing.T) {
	doc := surveyDoc()
	doc.Fields[4].Required = true

	s := NewSession(doc)
	s.RecordAnswer("name", model.TextValue("Ada"))
	s.RecordAnswer("colors", model.ListValue("Blue"))
	s.RecordAnswer("photos", model.FilesValue(model.FileAttachment{FileReference: "/uploads/p1.jpg"}))
	// No _checkboxes or _choice recorded.

	if missing := s.Validate(); len(missing) != 0 {
		t.Errorf("missing = %v, sub-answers must not be required on their own", missing)
	}
}

func TestRecordAnswerClampsUploads(t *testing.T) {
	s := NewSession(surveyDoc())
	s.RecordAnswer("photos", model.FilesValue(
		model.FileAttachment{FileReference: "/uploads/1.jpg"},
		model.FileAttachment{FileReference: "/uploads/2.jpg"},
		model.FileAttachment{FileReference: "/uploads/3.jpg"},
	))

	v, ok := s.Answer("photos")
	if !ok {
		t.Fatal("answer not recorded")
	}
	if len(v.Files) != 2 {
		t.Fatalf("len(files) = %d, want clamp to max_images 2", len(v.Files))
	}
	if v.Files[0].FileReference != "/uploads/1.jpg" || v.Files[1].FileReference != "/uploads/2.jpg" {
		t.Error("clamp must keep the earliest uploads")
	}
}

func TestBuildPayloadOmitsUnansweredAndKeepsOrder(t *testing.T) {
	s := NewSession(surveyDoc())
	s.RecordAnswer("colors", model.ListValue("Red", "Blue"))
	s.RecordAnswer("name", model.TextValue("Ada"))
	// "bio" left unanswered on purpose.

	env, err := s.BuildPayload()
	if err != nil {
		t.Fatalf("BuildPayload: %v", err)
	}
	if env.FormID != 42 {
		t.Errorf("form id = %d, want 42", env.FormID)
	}

	want := []model.AnswerEntry{
		{QuestionID: 1, FieldUID: "name", Type: model.FieldShortAnswer, Text: "Ada"},
		{QuestionID: 3, FieldUID: "colors", Type: model.FieldCheckboxes, Selections: []string{"Red", "Blue"}},
	}
	if diff := cmp.Diff(want, env.Answers); diff != "" {
		t.Errorf("answers mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildPayloadSharesImageSubAnswers(t *testing.T) {
	s := NewSession(surveyDoc())
	s.RecordAnswer("name", model.TextValue("Ada"))
	s.RecordAnswer("colors", model.ListValue("Red"))
	s.RecordAnswer("photos", model.FilesValue(
		model.FileAttachment{FileReference: "/uploads/a.jpg"},
		model.FileAttachment{FileReference: "/uploads/b.jpg"},
	))
	s.RecordAnswer("photos"+SuffixCheckboxes, model.ListValue("Blurry"))
	s.RecordAnswer("photos"+SuffixChoice, model.TextValue("Good"))

	env, err := s.BuildPayload()
	if err != nil {
		t.Fatalf("BuildPayload: %v", err)
	}

	var photos *model.AnswerEntry
	for i := range env.Answers {
		if env.Answers[i].FieldUID == "photos" {
			photos = &env.Answers[i]
		}
		if env.Answers[i].FieldUID == "photos"+SuffixCheckboxes || env.Answers[i].FieldUID == "photos"+SuffixChoice {
			t.Errorf("sub-answer key %s must not produce its own entry", env.Answers[i].FieldUID)
		}
	}
	if photos == nil {
		t.Fatal("photos entry missing")
	}

	want := []model.ImageAnswer{
		{FileReference: "/uploads/a.jpg", CheckboxSelections: []string{"Blurry"}, MultipleChoiceSelection: "Good"},
		{FileReference: "/uploads/b.jpg", CheckboxSelections: []string{"Blurry"}, MultipleChoiceSelection: "Good"},
	}
	if diff := cmp.Diff(want, photos.Images); diff != "" {
		t.Errorf("every image must carry the shared sub-answer set (-want +got):\n%s", diff)
	}
}

func TestSubmitLifecycle(t *testing.T) {
	s := NewSession(surveyDoc())
	s.RecordAnswer("name", model.TextValue("Ada"))
	s.RecordAnswer("colors", model.ListValue("Red"))

	if err := s.BeginSubmit(); err != nil {
		t.Fatalf("BeginSubmit: %v", err)
	}
	if s.State() != StateSubmitting {
		t.Errorf("state = %s, want submitting", s.State())
	}

	// Double-fire while in flight.
	if err := s.BeginSubmit(); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("want ErrSubmitInFlight, got %v", err)
	}

	// Boundary failure: answers survive, error retained, state failed.
	boundaryErr := errors.New("network down")
	s.FinishSubmit(boundaryErr)
	if s.State() != StateFailed {
		t.Errorf("state = %s, want failed", s.State())
	}
	if !errors.Is(s.Err(), boundaryErr) {
		t.Errorf("err = %v, want retained boundary error", s.Err())
	}
	if v, ok := s.Answer("name"); !ok || v.Text != "Ada" {
		t.Error("recorded answers must survive a failed submit")
	}

	// Correction re-enters filling.
	s.RecordAnswer("bio", model.TextValue("hello"))
	if s.State() != StateFilling {
		t.Errorf("state = %s, want filling after correction", s.State())
	}

	// Retry succeeds.
	if err := s.BeginSubmit(); err != nil {
		t.Fatalf("retry BeginSubmit: %v", err)
	}
	s.FinishSubmit(nil)
	if s.State() != StateSubmitted {
		t.Errorf("state = %s, want submitted", s.State())
	}
	if s.Err() != nil {
		t.Errorf("err = %v, want cleared on success", s.Err())
	}

	// A completed session rejects further submits.
	if err := s.BeginSubmit(); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("want ErrAlreadySubmitted, got %v", err)
	}
}

func TestBuildEnvelopeUnknownType(t *testing.T) {
	doc := surveyDoc()
	doc.Fields[0].Type = model.FieldType("ranking")

	_, err := BuildEnvelope(doc, map[string]model.AnswerValue{})
	if err == nil {
		t.Fatal("want error for unknown field type")
	}
}

func TestValidateAnswersIgnoresUnknownTypes(t *testing.T) {
	doc := surveyDoc()
	doc.Fields[0].Type = model.FieldType("ranking")

	missing := ValidateAnswers(doc, map[string]model.AnswerValue{
		"colors": model.ListValue("Red"),
	})
	if diff := cmp.Diff([]string(nil), missing, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("unknown types must not block validation (-want +got):\n%s", diff)
	}
}
