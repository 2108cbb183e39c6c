package model

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOptionListUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want OptionList
	}{
		{
			name: "structured objects",
			in:   `[{"id":1,"label":"Red"},{"id":2,"label":"Blue"}]`,
			want: OptionList{{ID: 1, Label: "Red"}, {ID: 2, Label: "Blue"}},
		},
		{
			name: "bare strings get positional ids",
			in:   `["Red","Blue","Green"]`,
			want: OptionList{{ID: 1, Label: "Red"}, {ID: 2, Label: "Blue"}, {ID: 3, Label: "Green"}},
		},
		{
			name: "string-encoded array",
			in:   `"[{\"id\":7,\"label\":\"Yes\"},{\"id\":8,\"label\":\"No\"}]"`,
			want: OptionList{{ID: 7, Label: "Yes"}, {ID: 8, Label: "No"}},
		},
		{
			name: "string-encoded bare strings",
			in:   `"[\"A\",\"B\"]"`,
			want: OptionList{{ID: 1, Label: "A"}, {ID: 2, Label: "B"}},
		},
		{
			name: "mixed entries",
			in:   `[{"id":5,"label":"Kept"},"Bare"]`,
			want: OptionList{{ID: 5, Label: "Kept"}, {ID: 2, Label: "Bare"}},
		},
		{
			name: "empty string",
			in:   `""`,
			want: OptionList{},
		},
		{
			name: "null",
			in:   `null`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got OptionList
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("option list mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOptionListUnmarshalRejectsGarbage(t *testing.T) {
	var got OptionList
	if err := json.Unmarshal([]byte(`{"not":"a list"}`), &got); err == nil {
		t.Fatal("expected error for object input")
	}
}

func TestImageListUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ImageList
	}{
		{
			name: "plain array",
			in:   `[{"id":1,"url":"/uploads/a.png"}]`,
			want: ImageList{{ID: 1, URL: "/uploads/a.png"}},
		},
		{
			name: "string-encoded array",
			in:   `"[{\"id\":2,\"url\":\"/uploads/b.png\"}]"`,
			want: ImageList{{ID: 2, URL: "/uploads/b.png"}},
		},
		{
			name: "empty string",
			in:   `""`,
			want: ImageList{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ImageList
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("image list mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFieldConfigDecodeNormalizesLegacyOptions(t *testing.T) {
	raw := `{
		"uid": "q1",
		"label": "Favorite color",
		"type": "multiple_choice",
		"required": true,
		"options": "[\"Red\",\"Blue\"]"
	}`

	var f FieldConfig
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := OptionList{{ID: 1, Label: "Red"}, {ID: 2, Label: "Blue"}}
	if diff := cmp.Diff(want, f.Options); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestEffectiveMaxImages(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: 0, want: 1},
		{in: -3, want: 1},
		{in: 1, want: 1},
		{in: 5, want: 5},
	}
	for _, tt := range tests {
		f := FieldConfig{MaxImages: tt.in}
		if got := f.EffectiveMaxImages(); got != tt.want {
			t.Errorf("EffectiveMaxImages(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestAnswerValueIsEmpty(t *testing.T) {
	if !(AnswerValue{}).IsEmpty() {
		t.Error("zero value should be empty")
	}
	if !(AnswerValue{Text: "   "}).IsEmpty() {
		t.Error("whitespace-only text should be empty")
	}
	if (AnswerValue{Text: "x"}).IsEmpty() {
		t.Error("text value should not be empty")
	}
	if (AnswerValue{Texts: []string{"a"}}).IsEmpty() {
		t.Error("selection value should not be empty")
	}
	if (AnswerValue{Files: []FileAttachment{{FileReference: "/uploads/a"}}}).IsEmpty() {
		t.Error("file value should not be empty")
	}
}
