package repository

import (
	"context"

	"github.com/formbox/formbox-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OperatorRepository handles operator account data access.
type OperatorRepository struct {
	pool *pgxpool.Pool
}

// NewOperatorRepository creates a new OperatorRepository.
func NewOperatorRepository(pool *pgxpool.Pool) *OperatorRepository {
	return &OperatorRepository{pool: pool}
}

// Create inserts a new operator account.
func (r *OperatorRepository) Create(ctx context.Context, op *model.Operator) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO operators (name, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		op.Name, op.Email, op.PasswordHash,
	).Scan(&op.ID, &op.CreatedAt)
}

// GetByEmail retrieves an operator by email.
func (r *OperatorRepository) GetByEmail(ctx context.Context, email string) (*model.Operator, error) {
	op := &model.Operator{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at
		 FROM operators WHERE email = $1`, email,
	).Scan(&op.ID, &op.Name, &op.Email, &op.PasswordHash, &op.CreatedAt)
	if err != nil {
		return nil, err
	}
	return op, nil
}

// GetByID retrieves an operator by id.
func (r *OperatorRepository) GetByID(ctx context.Context, id int) (*model.Operator, error) {
	op := &model.Operator{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at
		 FROM operators WHERE id = $1`, id,
	).Scan(&op.ID, &op.Name, &op.Email, &op.PasswordHash, &op.CreatedAt)
	if err != nil {
		return nil, err
	}
	return op, nil
}
