package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/formbox/formbox-backend/internal/builder"
	"github.com/formbox/formbox-backend/internal/config"
	"github.com/formbox/formbox-backend/internal/model"
	"github.com/formbox/formbox-backend/internal/repository"
	"github.com/formbox/formbox-backend/internal/response"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain errors.
var (
	ErrFormNotFound = errors.New("form not found")
	ErrNotFormOwner = errors.New("not the owner of this form")
)

// FormService handles form document business logic and the public
// share-token read cache.
type FormService struct {
	formRepo *repository.FormRepository
	rdb      *redis.Client
	cfg      *config.Config
	log      zerolog.Logger
}

// NewFormService creates a new FormService.
func NewFormService(formRepo *repository.FormRepository, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *FormService {
	return &FormService{
		formRepo: formRepo,
		rdb:      rdb,
		cfg:      cfg,
		log:      log.With().Str("component", "form_service").Logger(),
	}
}

// List retrieves form summaries for an owner with pagination.
func (s *FormService) List(ctx context.Context, ownerID, page, perPage int) ([]model.FormSummary, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	summaries, total, err := s.formRepo.ListByOwnerPaginated(ctx, ownerID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if summaries == nil {
		summaries = []model.FormSummary{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return summaries, pagination, nil
}

// Create validates and persists a new form document for the owner.
// A fresh share token is minted at create time and never changes.
func (s *FormService) Create(ctx context.Context, ownerID int, req model.SaveFormRequest) (*model.FormDocument, error) {
	doc := builder.NewDocument()
	doc.OwnerID = ownerID
	applyRequest(doc, req)

	if err := builder.ValidateDocument(doc); err != nil {
		return nil, err
	}
	assignFieldIDs(doc)
	doc.ShareToken = uuid.NewString()

	if err := s.formRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create form: %w", err)
	}
	return doc, nil
}

// Update validates and persists changes to an existing form, then
// invalidates the public cache entry.
func (s *FormService) Update(ctx context.Context, id int64, ownerID int, req model.SaveFormRequest) (*model.FormDocument, error) {
	doc, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	applyRequest(doc, req)
	if err := builder.ValidateDocument(doc); err != nil {
		return nil, err
	}
	assignFieldIDs(doc)

	if err := s.formRepo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("update form: %w", err)
	}
	s.invalidatePublicCache(ctx, doc.ShareToken)
	return doc, nil
}

// Get retrieves a form for editing, enforcing ownership.
func (s *FormService) Get(ctx context.Context, id int64, ownerID int) (*model.FormDocument, error) {
	doc, err := s.formRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	if doc.OwnerID != ownerID {
		return nil, ErrNotFormOwner
	}
	return doc, nil
}

// Delete removes a form and its responses (database cascade), then
// invalidates the public cache entry.
func (s *FormService) Delete(ctx context.Context, id int64, ownerID int) error {
	doc, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if err := s.formRepo.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	s.invalidatePublicCache(ctx, doc.ShareToken)
	return nil
}

// GetByShareToken retrieves a form for public filling through the Redis
// read cache. Cache failures fall back to the database silently.
func (s *FormService) GetByShareToken(ctx context.Context, token string) (*model.FormDocument, error) {
	cacheKey := config.CacheKey.PublicFormKey(token)

	if cached, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		doc := &model.FormDocument{}
		if err := json.Unmarshal(cached, doc); err == nil {
			return doc, nil
		}
		s.log.Warn().Str("share_token", token).Msg("Corrupt cached form payload, refetching")
	}

	doc, err := s.formRepo.GetByShareToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}

	if payload, err := json.Marshal(doc); err == nil {
		if err := s.rdb.Set(ctx, cacheKey, payload, s.cfg.FormCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Form cache write failed")
		}
	}
	return doc, nil
}

func (s *FormService) invalidatePublicCache(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.rdb.Del(ctx, config.CacheKey.PublicFormKey(token)).Err(); err != nil {
		s.log.Warn().Err(err).Str("share_token", token).Msg("Form cache invalidation failed")
	}
}

// applyRequest copies request attributes onto the document. Absent
// booleans keep the document's current values.
func applyRequest(doc *model.FormDocument, req model.SaveFormRequest) {
	doc.Title = req.Title
	doc.Description = req.Description
	if req.Theme != "" {
		doc.Theme = req.Theme
	}
	if req.AllowMultipleResponses != nil {
		doc.AllowMultipleResponses = *req.AllowMultipleResponses
	}
	if req.RequireEmail != nil {
		doc.RequireEmail = *req.RequireEmail
	}
	if req.Fields != nil {
		doc.Fields = req.Fields
	}
}

// assignFieldIDs gives every unsaved field a document-unique persistence
// id, preserving ids of fields that already have one so stored answers
// keep resolving across edits.
func assignFieldIDs(doc *model.FormDocument) {
	var max int64
	for i := range doc.Fields {
		if doc.Fields[i].ID > max {
			max = doc.Fields[i].ID
		}
	}
	for i := range doc.Fields {
		if doc.Fields[i].ID == 0 {
			max++
			doc.Fields[i].ID = max
		}
	}
}
