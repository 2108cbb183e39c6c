package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/formbox/formbox-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FormRepository handles form document data access. Fields are stored as a
// JSONB column; decoding through model.FieldConfig applies the
// normalize-on-read discipline to every option-bearing attribute.
type FormRepository struct {
	pool *pgxpool.Pool
}

// NewFormRepository creates a new FormRepository.
func NewFormRepository(pool *pgxpool.Pool) *FormRepository {
	return &FormRepository{pool: pool}
}

// Create inserts a new form document.
func (r *FormRepository) Create(ctx context.Context, doc *model.FormDocument) error {
	fields, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO forms (owner_id, title, description, theme, allow_multiple_responses, require_email, share_token, fields)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		doc.OwnerID, doc.Title, doc.Description, doc.Theme,
		doc.AllowMultipleResponses, doc.RequireEmail, doc.ShareToken, fields,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
}

// Update replaces a form's metadata and fields.
func (r *FormRepository) Update(ctx context.Context, doc *model.FormDocument) error {
	fields, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`UPDATE forms
		 SET title = $1, description = $2, theme = $3,
		     allow_multiple_responses = $4, require_email = $5,
		     fields = $6, updated_at = NOW()
		 WHERE id = $7
		 RETURNING updated_at`,
		doc.Title, doc.Description, doc.Theme,
		doc.AllowMultipleResponses, doc.RequireEmail, fields, doc.ID,
	).Scan(&doc.UpdatedAt)
}

const formColumns = `id, owner_id, title, description, theme,
	allow_multiple_responses, require_email, share_token, fields,
	created_at, updated_at`

func (r *FormRepository) scanForm(row interface{ Scan(...any) error }) (*model.FormDocument, error) {
	doc := &model.FormDocument{}
	var fields []byte
	err := row.Scan(&doc.ID, &doc.OwnerID, &doc.Title, &doc.Description, &doc.Theme,
		&doc.AllowMultipleResponses, &doc.RequireEmail, &doc.ShareToken, &fields,
		&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &doc.Fields); err != nil {
			return nil, fmt.Errorf("decode fields: %w", err)
		}
	}
	if doc.Fields == nil {
		doc.Fields = []model.FieldConfig{}
	}
	return doc, nil
}

// GetByID retrieves a form by its id.
func (r *FormRepository) GetByID(ctx context.Context, id int64) (*model.FormDocument, error) {
	return r.scanForm(r.pool.QueryRow(ctx,
		`SELECT `+formColumns+` FROM forms WHERE id = $1`, id))
}

// GetByShareToken retrieves a form by its public share token.
func (r *FormRepository) GetByShareToken(ctx context.Context, token string) (*model.FormDocument, error) {
	return r.scanForm(r.pool.QueryRow(ctx,
		`SELECT `+formColumns+` FROM forms WHERE share_token = $1`, token))
}

// ListByOwnerPaginated retrieves form summaries for an owner, newest first.
func (r *FormRepository) ListByOwnerPaginated(ctx context.Context, ownerID, limit, offset int) ([]model.FormSummary, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM forms WHERE owner_id = $1`, ownerID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT f.id, f.title, f.description, f.share_token,
		        jsonb_array_length(f.fields) AS field_count,
		        COUNT(fr.id) AS response_count,
		        f.created_at, f.updated_at
		 FROM forms f
		 LEFT JOIN form_responses fr ON fr.form_id = f.id
		 WHERE f.owner_id = $1
		 GROUP BY f.id
		 ORDER BY f.created_at DESC
		 LIMIT $2 OFFSET $3`,
		ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var summaries []model.FormSummary
	for rows.Next() {
		var s model.FormSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.ShareToken,
			&s.FieldCount, &s.ResponseCount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		summaries = append(summaries, s)
	}
	return summaries, total, rows.Err()
}

// Delete removes a form; its responses cascade at the database level.
func (r *FormRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM forms WHERE id = $1`, id)
	return err
}
