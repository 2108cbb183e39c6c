package review

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/formbox/formbox-backend/internal/model"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func reviewDoc() *model.FormDocument {
	return &model.FormDocument{
		ID: 7,
		Fields: []model.FieldConfig{
			{UID: "name", ID: 1, Label: "Your name", Type: model.FieldShortAnswer},
			{UID: "colors", ID: 2, Label: "Colors", Type: model.FieldCheckboxes},
			{UID: "cv", ID: 3, Label: "Resume", Type: model.FieldFileUpload},
			{UID: "photos", ID: 4, Label: "Photos", Type: model.FieldImageUpload},
		},
	}
}

func record(t *testing.T, answers string) model.StoredResponse {
	t.Helper()
	return model.StoredResponse{
		ID:          11,
		FormID:      7,
		Answers:     json.RawMessage(answers),
		SubmittedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestRenderAnonymousDefault(t *testing.T) {
	out := Render(reviewDoc(), record(t, `[]`), zerolog.Nop())
	if out.Respondent != DisplayAnonymous {
		t.Errorf("respondent = %q, want %q", out.Respondent, DisplayAnonymous)
	}

	rec := record(t, `[]`)
	rec.Respondent = "Grace"
	out = Render(reviewDoc(), rec, zerolog.Nop())
	if out.Respondent != "Grace" {
		t.Errorf("respondent = %q, want Grace", out.Respondent)
	}
}

func TestRenderMalformedAnswersDegradesToEmpty(t *testing.T) {
	out := Render(reviewDoc(), record(t, `{"oops": true}`), zerolog.Nop())
	if out.Rows == nil {
		t.Fatal("rows must be an empty slice, not nil")
	}
	if len(out.Rows) != 0 {
		t.Errorf("rows = %v, want empty", out.Rows)
	}
	if out.ResponseID != 11 {
		t.Error("identity must survive a decode failure")
	}
}

func TestRenderScalarAndLabelResolution(t *testing.T) {
	out := Render(reviewDoc(), record(t,
		`[{"questionId":1,"type":"short_answer","text":"Ada"},
		  {"questionId":99,"type":"short_answer","text":"orphan"}]`), zerolog.Nop())

	if len(out.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(out.Rows))
	}
	if out.Rows[0].Label != "Your name" || out.Rows[0].Value != "Ada" {
		t.Errorf("row = %+v, want resolved label and value", out.Rows[0])
	}
	// A question deleted from the document still renders with a fallback label.
	if out.Rows[1].Label != "Question 99" {
		t.Errorf("label = %q, want positional fallback", out.Rows[1].Label)
	}
}

func TestRenderResolvesLabelByUID(t *testing.T) {
	out := Render(reviewDoc(), record(t,
		`[{"questionId":0,"fieldUid":"name","type":"short_answer","text":"Ada"}]`), zerolog.Nop())
	if out.Rows[0].Label != "Your name" {
		t.Errorf("label = %q, want uid fallback resolution", out.Rows[0].Label)
	}
}

func TestRenderCheckboxesLegacyTextSlot(t *testing.T) {
	tests := []struct {
		name string
		ans  string
		want []string
	}{
		{
			name: "selections array",
			ans:  `[{"questionId":2,"type":"checkboxes","selections":["Red","Blue"]}]`,
			want: []string{"Red", "Blue"},
		},
		{
			name: "selections under text",
			ans:  `[{"questionId":2,"type":"checkboxes","text":["Red"]}]`,
			want: []string{"Red"},
		},
		{
			name: "string-encoded array under text",
			ans:  `[{"questionId":2,"type":"checkboxes","text":"[\"Blue\"]"}]`,
			want: []string{"Blue"},
		},
		{
			name: "malformed degrades to empty",
			ans:  `[{"questionId":2,"type":"checkboxes","selections":{"bad":1}}]`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Render(reviewDoc(), record(t, tt.ans), zerolog.Nop())
			if diff := cmp.Diff(tt.want, out.Rows[0].Selections); diff != "" {
				t.Errorf("selections mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderFiles(t *testing.T) {
	out := Render(reviewDoc(), record(t,
		`[{"questionId":3,"type":"file_upload","files":[{"fileReference":"/uploads/cv.pdf","originalName":"cv.pdf"}]}]`), zerolog.Nop())

	want := []model.FileAttachment{{FileReference: "/uploads/cv.pdf", OriginalName: "cv.pdf"}}
	if diff := cmp.Diff(want, out.Rows[0].Files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderImagesEnvelopeShape(t *testing.T) {
	out := Render(reviewDoc(), record(t,
		`[{"questionId":4,"type":"image_upload","images":[
			{"fileReference":"/uploads/a.jpg","checkboxSelections":["Blurry"],"multipleChoiceSelection":"Good"},
			{"fileReference":"/uploads/b.jpg","checkboxSelections":["Blurry"],"multipleChoiceSelection":"Good"}]}]`), zerolog.Nop())

	want := []ImageRow{
		{URL: "/uploads/a.jpg", Checkboxes: []string{"Blurry"}, Choice: "Good"},
		{URL: "/uploads/b.jpg", Checkboxes: []string{"Blurry"}, Choice: "Good"},
	}
	if diff := cmp.Diff(want, out.Rows[0].Images); diff != "" {
		t.Errorf("images mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderImagesLegacySharedSet(t *testing.T) {
	out := Render(reviewDoc(), record(t,
		`[{"questionId":4,"type":"image_upload",
			"image_urls":["/uploads/a.jpg","/uploads/b.jpg"],
			"checkboxSelections":["Cropped"],
			"multipleChoiceSelection":"Bad"}]`), zerolog.Nop())

	want := []ImageRow{
		{URL: "/uploads/a.jpg", Checkboxes: []string{"Cropped"}, Choice: "Bad"},
		{URL: "/uploads/b.jpg", Checkboxes: []string{"Cropped"}, Choice: "Bad"},
	}
	if diff := cmp.Diff(want, out.Rows[0].Images); diff != "" {
		t.Errorf("images mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderImagesPerImageArraysWinByPosition(t *testing.T) {
	out := Render(reviewDoc(), record(t,
		`[{"questionId":4,"type":"image_upload",
			"image_urls":["/uploads/a.jpg","/uploads/b.jpg","/uploads/c.jpg"],
			"checkboxSelections":["Shared"],
			"multipleChoiceSelection":"SharedChoice",
			"image_responses":{
				"checkboxes":[["First"],["Second"]],
				"multiple_choice":["One"]}}]`), zerolog.Nop())

	want := []ImageRow{
		{URL: "/uploads/a.jpg", Checkboxes: []string{"First"}, Choice: "One"},
		{URL: "/uploads/b.jpg", Checkboxes: []string{"Second"}, Choice: "SharedChoice"},
		{URL: "/uploads/c.jpg", Checkboxes: []string{"Shared"}, Choice: "SharedChoice"},
	}
	if diff := cmp.Diff(want, out.Rows[0].Images); diff != "" {
		t.Errorf("positional reconciliation mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderImagesStringEncodedURLs(t *testing.T) {
	out := Render(reviewDoc(), record(t,
		`[{"questionId":4,"type":"image_upload","image_urls":"[\"/uploads/a.jpg\"]"}]`), zerolog.Nop())

	want := []ImageRow{{URL: "/uploads/a.jpg"}}
	if diff := cmp.Diff(want, out.Rows[0].Images); diff != "" {
		t.Errorf("images mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderImagesMalformedURLs(t *testing.T) {
	out := Render(reviewDoc(), record(t,
		`[{"questionId":4,"type":"image_upload","image_urls":{"bad":1}}]`), zerolog.Nop())

	if len(out.Rows[0].Images) != 0 {
		t.Errorf("images = %v, want empty on malformed urls", out.Rows[0].Images)
	}
}
