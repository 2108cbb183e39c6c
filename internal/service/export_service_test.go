package service

import (
	"testing"

	"github.com/formbox/formbox-backend/internal/model"
	"github.com/formbox/formbox-backend/internal/review"
	"github.com/google/go-cmp/cmp"
)

func TestAnswerableFieldsSkipsDisplayAndUnknown(t *testing.T) {
	doc := &model.FormDocument{
		Fields: []model.FieldConfig{
			{ID: 1, Label: "Name", Type: model.FieldShortAnswer},
			{ID: 2, Label: "Banner", Type: model.FieldImage},
			{ID: 3, Label: "Mystery", Type: model.FieldType("ranking")},
			{ID: 4, Label: "Colors", Type: model.FieldCheckboxes},
		},
	}

	var got []string
	for _, f := range answerableFields(doc) {
		got = append(got, f.Label)
	}
	if diff := cmp.Diff([]string{"Name", "Colors"}, got); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestCellValue(t *testing.T) {
	tests := []struct {
		name string
		row  review.Row
		want string
	}{
		{
			name: "scalar",
			row:  review.Row{Value: "Ada"},
			want: "Ada",
		},
		{
			name: "unanswered",
			row:  review.Row{},
			want: "",
		},
		{
			name: "selections",
			row:  review.Row{Selections: []string{"Red", "Blue"}},
			want: "Red, Blue",
		},
		{
			name: "files with original names",
			row: review.Row{Files: []model.FileAttachment{
				{FileReference: "/uploads/x.pdf", OriginalName: "cv.pdf"},
				{FileReference: "/uploads/y.pdf"},
			}},
			want: "cv.pdf /uploads/x.pdf\n/uploads/y.pdf",
		},
		{
			name: "images with sub-answers",
			row: review.Row{Images: []review.ImageRow{
				{URL: "/uploads/a.jpg", Checkboxes: []string{"Blurry"}, Choice: "Good"},
				{URL: "/uploads/b.jpg"},
			}},
			want: "/uploads/a.jpg (Blurry; Good)\n/uploads/b.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cellValue(tt.row); got != tt.want {
				t.Errorf("cellValue = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeTextList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"array", `["a","b"]`, []string{"a", "b"}},
		{"lone string", `"a"`, []string{"a"}},
		{"empty string", `""`, nil},
		{"absent", ``, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeTextList([]byte(tt.in))
			if err != nil {
				t.Fatalf("decodeTextList: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := decodeTextList([]byte(`{"bad":1}`)); err == nil {
		t.Error("want error for object input")
	}
}
