package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"sync"

	"github.com/formbox/formbox-backend/internal/config"
	"github.com/formbox/formbox-backend/internal/fieldtype"
	"github.com/formbox/formbox-backend/internal/fill"
	"github.com/formbox/formbox-backend/internal/model"
	"github.com/formbox/formbox-backend/internal/repository"
	"github.com/formbox/formbox-backend/internal/review"
	ws "github.com/formbox/formbox-backend/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain errors.
var (
	ErrAlreadySubmitted = errors.New("this form already received your response")
	ErrEmailRequired    = errors.New("this form requires an email address")
	ErrMissingFilePart  = errors.New("referenced file part missing from request")
)

// RequiredFieldsError carries the labels of required fields left
// unanswered, in document order.
type RequiredFieldsError struct {
	Missing []string
}

func (e *RequiredFieldsError) Error() string {
	return "required fields missing: " + strings.Join(e.Missing, ", ")
}

// SubmissionInput is one decoded public submission: the parsed answers
// part plus the request's file parts keyed by part name.
type SubmissionInput struct {
	Respondent  string
	Email       string
	Fingerprint string
	Answers     []model.SubmittedAnswer
	Files       map[string][]*multipart.FileHeader
}

// ResponseService handles submission intake, validation, persistence,
// and operator-side review of stored responses.
type ResponseService struct {
	responseRepo *repository.ResponseRepository
	media        *MediaService
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewResponseService creates a new ResponseService.
func NewResponseService(responseRepo *repository.ResponseRepository, media *MediaService, rdb *redis.Client, log zerolog.Logger) *ResponseService {
	return &ResponseService{
		responseRepo: responseRepo,
		media:        media,
		rdb:          rdb,
		log:          log.With().Str("component", "response_service").Logger(),
	}
}

// Submit runs one public submission end to end: single-response guard,
// answer capture, required-field validation, attachment storage, envelope
// encoding, persistence, and the live-stream notification.
func (s *ResponseService) Submit(ctx context.Context, doc *model.FormDocument, in SubmissionInput) (*model.StoredResponse, error) {
	if doc.RequireEmail && strings.TrimSpace(in.Email) == "" {
		return nil, ErrEmailRequired
	}

	onceKey := ""
	if !doc.AllowMultipleResponses {
		onceKey = config.CacheKey.SubmissionOnceKey(doc.ID, in.Fingerprint)
		ok, err := s.rdb.SetNX(ctx, onceKey, 1, 0).Result()
		if err != nil {
			return nil, fmt.Errorf("submission guard: %w", err)
		}
		if !ok {
			return nil, ErrAlreadySubmitted
		}
	}

	rec, err := s.submit(ctx, doc, in)
	if err != nil && onceKey != "" {
		// A rejected submission must not burn the respondent's only try.
		if delErr := s.rdb.Del(ctx, onceKey).Err(); delErr != nil {
			s.log.Warn().Err(delErr).Int64("form_id", doc.ID).Msg("Submission guard rollback failed")
		}
	}
	return rec, err
}

func (s *ResponseService) submit(ctx context.Context, doc *model.FormDocument, in SubmissionInput) (*model.StoredResponse, error) {
	session := fill.NewSession(doc)
	if err := s.recordAnswers(session, doc, in); err != nil {
		return nil, err
	}

	if missing := session.Validate(); len(missing) > 0 {
		return nil, &RequiredFieldsError{Missing: missing}
	}

	if err := session.BeginSubmit(); err != nil {
		return nil, err
	}
	rec, err := s.persist(ctx, doc, session, in)
	session.FinishSubmit(err)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, doc, rec)
	return rec, nil
}

// recordAnswers replays the wire answers into the session. Uploads are
// written to disk here, concurrently per field, with the respondent's part
// order preserved regardless of which write finishes first.
func (s *ResponseService) recordAnswers(session *fill.Session, doc *model.FormDocument, in SubmissionInput) error {
	for _, ans := range in.Answers {
		f := doc.FieldByUID(ans.FieldUID)
		if f == nil {
			f = doc.FieldByID(ans.QuestionID)
		}
		if f == nil {
			return fmt.Errorf("%w: uid=%q questionId=%d", fill.ErrUnknownField, ans.FieldUID, ans.QuestionID)
		}

		spec, err := fieldtype.Lookup(f.Type)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.UID, err)
		}

		switch spec.AnswerShape {
		case fieldtype.ShapeText:
			var text string
			if len(ans.Text) > 0 {
				if err := json.Unmarshal(ans.Text, &text); err != nil {
					return fmt.Errorf("field %s: decode text: %w", f.UID, err)
				}
			}
			session.RecordAnswer(f.UID, model.TextValue(text))

		case fieldtype.ShapeTextList:
			items, err := decodeTextList(ans.Text)
			if err != nil {
				return fmt.Errorf("field %s: decode selections: %w", f.UID, err)
			}
			session.RecordAnswer(f.UID, model.ListValue(items...))

		case fieldtype.ShapeFileList:
			files, err := s.saveParts(ans.FileData, in.Files)
			if err != nil {
				return fmt.Errorf("field %s: %w", f.UID, err)
			}
			session.RecordAnswer(f.UID, model.FilesValue(files...))

		case fieldtype.ShapeImageList:
			files, err := s.saveParts(ans.ImageData, in.Files)
			if err != nil {
				return fmt.Errorf("field %s: %w", f.UID, err)
			}
			session.RecordAnswer(f.UID, model.FilesValue(files...))
			if len(ans.CheckboxSelections) > 0 {
				session.RecordAnswer(f.UID+fill.SuffixCheckboxes, model.ListValue(ans.CheckboxSelections...))
			}
			if ans.MultipleChoiceSelection != "" {
				session.RecordAnswer(f.UID+fill.SuffixChoice, model.TextValue(ans.MultipleChoiceSelection))
			}
		}
	}
	return nil
}

// saveParts stores the referenced file parts. Writes run concurrently and
// land in a slice indexed by the part's position in the answer, so the
// stored sequence matches the respondent's selection order even when a
// later part finishes writing first.
func (s *ResponseService) saveParts(parts []model.FilePart, files map[string][]*multipart.FileHeader) ([]model.FileAttachment, error) {
	if len(parts) == 0 {
		return nil, nil
	}

	attachments := make([]model.FileAttachment, len(parts))
	errs := make([]error, len(parts))
	var wg sync.WaitGroup

	for i, part := range parts {
		headers, ok := files[part.FileKey]
		if !ok || len(headers) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingFilePart, part.FileKey)
		}

		wg.Add(1)
		go func(idx int, name string, header *multipart.FileHeader) {
			defer wg.Done()
			url, err := s.media.SaveAttachment(header)
			if err != nil {
				errs[idx] = err
				return
			}
			attachments[idx] = model.FileAttachment{
				FileReference: url,
				OriginalName:  name,
			}
		}(i, part.Name, headers[0])
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return attachments, nil
}

func (s *ResponseService) persist(ctx context.Context, doc *model.FormDocument, session *fill.Session, in SubmissionInput) (*model.StoredResponse, error) {
	env, err := session.BuildPayload()
	if err != nil {
		return nil, err
	}

	answers, err := json.Marshal(env.Answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}

	rec := &model.StoredResponse{
		FormID:      doc.ID,
		Respondent:  strings.TrimSpace(in.Respondent),
		Email:       strings.TrimSpace(in.Email),
		Answers:     answers,
		SubmittedAt: env.SubmittedAt,
	}
	if err := s.responseRepo.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("store response: %w", err)
	}
	return rec, nil
}

// notify bumps the cached response counter and publishes the live-stream
// event. Neither failure affects the already-persisted submission.
func (s *ResponseService) notify(ctx context.Context, doc *model.FormDocument, rec *model.StoredResponse) {
	if err := s.rdb.Incr(ctx, config.CacheKey.ResponseCountKey(doc.ID)).Err(); err != nil {
		s.log.Warn().Err(err).Int64("form_id", doc.ID).Msg("Response counter bump failed")
	}

	event := ws.NewResponseEvent{
		Event:       ws.EventNewResponse,
		FormID:      doc.ID,
		ResponseID:  rec.ID,
		Respondent:  rec.Respondent,
		SubmittedAt: rec.SubmittedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.log.Error().Err(err).Msg("Encode stream event failed")
		return
	}
	channel := config.CacheKey.ResponseStreamChannel(doc.ID)
	if err := s.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		s.log.Warn().Err(err).Int64("form_id", doc.ID).Msg("Stream publish failed")
	}
}

// ListRendered loads every stored submission for a form and renders it
// for operator display. Malformed historical records degrade to empty
// rows rather than failing the listing.
func (s *ResponseService) ListRendered(ctx context.Context, doc *model.FormDocument) ([]review.RenderedResponse, error) {
	recs, err := s.responseRepo.ListByForm(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}

	rendered := make([]review.RenderedResponse, 0, len(recs))
	for _, rec := range recs {
		rendered = append(rendered, review.Render(doc, rec, s.log))
	}
	return rendered, nil
}

// Count returns the number of stored submissions for a form.
func (s *ResponseService) Count(ctx context.Context, formID int64) (int, error) {
	return s.responseRepo.CountByForm(ctx, formID)
}

// decodeTextList accepts a JSON array of strings or a lone JSON string.
func decodeTextList(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, err
	}
	if single == "" {
		return nil, nil
	}
	return []string{single}, nil
}
