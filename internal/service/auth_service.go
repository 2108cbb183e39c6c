package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/formbox/formbox-backend/internal/config"
	"github.com/formbox/formbox-backend/internal/model"
	"github.com/formbox/formbox-backend/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
)

// Claims extends JWT standard claims with operator identity.
type Claims struct {
	jwt.RegisteredClaims
	OperatorID int    `json:"operator_id"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
}

// AuthService handles operator accounts, JWT issuance, and the
// redis-backed session record used for logout.
type AuthService struct {
	cfg          *config.Config
	rdb          *redis.Client
	operatorRepo *repository.OperatorRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client, operatorRepo *repository.OperatorRepository) *AuthService {
	return &AuthService{cfg: cfg, rdb: rdb, operatorRepo: operatorRepo}
}

// Register creates an operator account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.Operator, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	op := &model.Operator{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := s.operatorRepo.Create(ctx, op); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create operator: %w", err)
	}
	return op, nil
}

// Login verifies credentials and returns a signed token plus the account.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *model.Operator, error) {
	op, err := s.operatorRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("get operator: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(ctx, op)
	if err != nil {
		return "", nil, err
	}
	return token, op, nil
}

// generateToken creates a JWT and registers the session in Redis so
// logout can invalidate it before expiry.
func (s *AuthService) generateToken(ctx context.Context, op *model.Operator) (string, error) {
	jti := uuid.New().String()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.Itoa(op.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		OperatorID: op.ID,
		Name:       op.Name,
		Email:      op.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	sessionKey := config.CacheKey.OperatorSessionKey(op.ID)
	if err := s.rdb.Set(ctx, sessionKey, jti, s.cfg.JWTExpiry).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return signed, nil
}

// ValidateToken parses and verifies a JWT, and checks the session record
// still matches (a logged-out token is rejected even before expiry).
func (s *AuthService) ValidateToken(ctx context.Context, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	sessionKey := config.CacheKey.OperatorSessionKey(claims.OperatorID)
	jti, err := s.rdb.Get(ctx, sessionKey).Result()
	if err != nil || jti != claims.ID {
		return nil, errors.New("session invalidated")
	}

	return claims, nil
}

// Logout deletes the operator's session record, invalidating any
// outstanding token.
func (s *AuthService) Logout(ctx context.Context, operatorID int) error {
	return s.rdb.Del(ctx, config.CacheKey.OperatorSessionKey(operatorID)).Err()
}

// GetOperator loads an operator account by id.
func (s *AuthService) GetOperator(ctx context.Context, id int) (*model.Operator, error) {
	return s.operatorRepo.GetByID(ctx, id)
}
