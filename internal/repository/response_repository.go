package repository

import (
	"context"

	"github.com/formbox/formbox-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResponseRepository handles stored submission data access.
type ResponseRepository struct {
	pool *pgxpool.Pool
}

// NewResponseRepository creates a new ResponseRepository.
func NewResponseRepository(pool *pgxpool.Pool) *ResponseRepository {
	return &ResponseRepository{pool: pool}
}

// Insert stores one submission.
func (r *ResponseRepository) Insert(ctx context.Context, rec *model.StoredResponse) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO form_responses (form_id, respondent, email, answers, submitted_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		rec.FormID, rec.Respondent, rec.Email, []byte(rec.Answers), rec.SubmittedAt,
	).Scan(&rec.ID)
}

// ListByForm retrieves all submissions for a form, oldest first.
func (r *ResponseRepository) ListByForm(ctx context.Context, formID int64) ([]model.StoredResponse, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, form_id, respondent, email, answers, submitted_at
		 FROM form_responses
		 WHERE form_id = $1
		 ORDER BY submitted_at ASC, id ASC`, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []model.StoredResponse
	for rows.Next() {
		var rec model.StoredResponse
		var answers []byte
		if err := rows.Scan(&rec.ID, &rec.FormID, &rec.Respondent, &rec.Email,
			&answers, &rec.SubmittedAt); err != nil {
			return nil, err
		}
		rec.Answers = answers
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// CountByForm returns the number of submissions for a form.
func (r *ResponseRepository) CountByForm(ctx context.Context, formID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM form_responses WHERE form_id = $1`, formID).Scan(&n)
	return n, err
}
