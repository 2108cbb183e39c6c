// Package fill models one in-progress form submission: answer capture,
// required-field validation, and encoding of the final response envelope.
// A session walks Filling → Validating → Submitting → {Submitted | Failed};
// a failed submit returns to Filling with the error retained so the
// respondent can correct and retry indefinitely.
package fill

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/formbox/formbox-backend/internal/fieldtype"
	"github.com/formbox/formbox-backend/internal/model"
)

// Domain errors.
var (
	ErrSubmitInFlight   = errors.New("a submission is already in progress")
	ErrRequiredMissing  = errors.New("required fields missing")
	ErrUnknownField     = errors.New("answer references unknown field")
	ErrAlreadySubmitted = errors.New("session already submitted")
)

// State is the lifecycle phase of a submission session.
type State string

const (
	StateFilling    State = "filling"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSubmitted  State = "submitted"
	StateFailed     State = "failed"
)

// Sub-answer key suffixes for image_upload fields. Sub-answers ride along
// with the parent field's uploads and are never independently required.
const (
	SuffixCheckboxes = "_checkboxes"
	SuffixChoice     = "_choice"
)

// Session collects answers against one form document. Safe for use from a
// single submission flow; the mutex only guards the in-flight submit flag
// against double-fire from concurrent triggers.
type Session struct {
	doc     *model.FormDocument
	answers map[string]model.AnswerValue

	mu       sync.Mutex
	state    State
	lastErr  error
	inFlight bool
}

// NewSession starts a fresh submission against the given document.
func NewSession(doc *model.FormDocument) *Session {
	return &Session{
		doc:     doc,
		answers: make(map[string]model.AnswerValue),
		state:   StateFilling,
	}
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the retained error from the last failed validate or submit.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Answer returns the currently recorded value for a key.
func (s *Session) Answer(key string) (model.AnswerValue, bool) {
	v, ok := s.answers[key]
	return v, ok
}

// RecordAnswer overwrites any prior value for the key. For upload fields
// the value must be the full current attachment sequence, not a delta —
// the caller merges with existing attachments first. Upload sequences are
// clamped to the field's max_images ceiling by silent truncation.
//
// Keys suffixed _checkboxes or _choice record the shared sub-answers of an
// image_upload field and are stored verbatim.
func (s *Session) RecordAnswer(key string, v model.AnswerValue) {
	if f := s.doc.FieldByUID(key); f != nil {
		spec, err := fieldtype.Lookup(f.Type)
		if err == nil && (spec.AnswerShape == fieldtype.ShapeFileList || spec.AnswerShape == fieldtype.ShapeImageList) {
			if limit := f.EffectiveMaxImages(); len(v.Files) > limit {
				v.Files = v.Files[:limit]
			}
		}
	}
	s.answers[key] = v

	// A correction after a failed submit re-enters the filling phase.
	s.mu.Lock()
	if s.state == StateFailed {
		s.state = StateFilling
	}
	s.mu.Unlock()
}

// ClearAnswer removes a recorded value.
func (s *Session) ClearAnswer(key string) {
	delete(s.answers, key)
}

// Validate checks required-ness across the document and returns the labels
// of fields still missing an answer, in document order. A field is missing
// if it is required and its value is absent, whitespace-only, or an empty
// sequence. Sub-answer keys are never independently required, even when
// the parent field is.
func (s *Session) Validate() []string {
	s.mu.Lock()
	s.state = StateValidating
	s.mu.Unlock()

	missing := ValidateAnswers(s.doc, s.answers)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(missing) > 0 {
		s.lastErr = fmt.Errorf("%w: %s", ErrRequiredMissing, strings.Join(missing, ", "))
		s.state = StateFilling
	} else {
		s.lastErr = nil
		s.state = StateFilling
	}
	return missing
}

// ValidateAnswers is the pure required-ness check shared by the session
// and the server-side submit path.
func ValidateAnswers(doc *model.FormDocument, answers map[string]model.AnswerValue) []string {
	var missing []string
	for i := range doc.Fields {
		f := &doc.Fields[i]
		if !f.Required {
			continue
		}
		spec, err := fieldtype.Lookup(f.Type)
		if err != nil || !spec.Answerable() {
			continue
		}
		if !spec.Answered(answers[f.UID]) {
			missing = append(missing, f.Label)
		}
	}
	return missing
}

// BuildPayload encodes the recorded answers into a response envelope.
// Fields are visited in document order, unanswered fields are omitted
// entirely, and each uploaded image in an image_upload field carries the
// field's shared checkbox/choice sub-answer set.
func (s *Session) BuildPayload() (*model.ResponseEnvelope, error) {
	return BuildEnvelope(s.doc, s.answers)
}

// BuildEnvelope is the pure encoding step behind BuildPayload.
func BuildEnvelope(doc *model.FormDocument, answers map[string]model.AnswerValue) (*model.ResponseEnvelope, error) {
	env := &model.ResponseEnvelope{
		FormID:      doc.ID,
		Answers:     []model.AnswerEntry{},
		SubmittedAt: time.Now().UTC(),
	}

	for i := range doc.Fields {
		f := &doc.Fields[i]
		spec, err := fieldtype.Lookup(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.UID, err)
		}
		if !spec.Answerable() {
			continue
		}

		v, ok := answers[f.UID]
		if !ok || !spec.Answered(v) {
			continue
		}

		entry := model.AnswerEntry{
			QuestionID: f.ID,
			FieldUID:   f.UID,
			Type:       f.Type,
		}

		switch spec.AnswerShape {
		case fieldtype.ShapeText:
			entry.Text = v.Text
		case fieldtype.ShapeTextList:
			entry.Selections = v.Texts
		case fieldtype.ShapeFileList:
			entry.Files = v.Files
		case fieldtype.ShapeImageList:
			checkboxes := answers[f.UID+SuffixCheckboxes].Texts
			choice := answers[f.UID+SuffixChoice].Text
			images := make([]model.ImageAnswer, 0, len(v.Files))
			for _, file := range v.Files {
				images = append(images, model.ImageAnswer{
					FileReference:           file.FileReference,
					CheckboxSelections:      checkboxes,
					MultipleChoiceSelection: choice,
				})
			}
			entry.Images = images
		}

		env.Answers = append(env.Answers, entry)
	}

	return env, nil
}

// BeginSubmit marks the session as submitting. It fails if another submit
// is outstanding (duplicate persisted responses are the concern, not data
// races) or the session already completed.
func (s *Session) BeginSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrSubmitInFlight
	}
	if s.state == StateSubmitted {
		return ErrAlreadySubmitted
	}
	s.inFlight = true
	s.state = StateSubmitting
	return nil
}

// FinishSubmit records the outcome of the boundary call started by
// BeginSubmit. On failure the session returns to Filling with the error
// retained and all recorded answers intact.
func (s *Session) FinishSubmit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		s.lastErr = err
		s.state = StateFailed
		return
	}
	s.lastErr = nil
	s.state = StateSubmitted
}
