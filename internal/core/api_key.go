package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/SalimBinYousuf1/openai-api-platform/internal/model"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/platform"
)

// APIKeyService manages API keys against the database.
type APIKeyService struct {
	db DB
}

// NewAPIKeyService creates a new APIKeyService.
func NewAPIKeyService(db DB) *APIKeyService {
	return &APIKeyService{db: db}
}

// HashKey returns the hex-encoded SHA-256 digest of a raw key. Only the
// digest is ever stored or compared.
func HashKey(rawKey string) string {
	hash := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(hash[:])
}

// Create generates a new API key for the user, stores the hash, and returns
// the model along with the raw key string. The raw key must be shown to the
// user exactly once.
func (s *APIKeyService) Create(ctx context.Context, userID, name string, rateLimit int) (*model.APIKey, string, error) {
	rawKey := platform.NewSecretKey()

	key := &model.APIKey{
		ID:        platform.NewID(),
		UserID:    userID,
		Name:      name,
		KeyHash:   HashKey(rawKey),
		KeyPrefix: rawKey[:10],
		RateLimit: rateLimit,
		IsActive:  true,
	}

	err := s.db.QueryRow(ctx,
		`INSERT INTO api_keys (id, user_id, name, key_hash, key_prefix, rate_limit)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		key.ID, key.UserID, key.Name, key.KeyHash, key.KeyPrefix, key.RateLimit,
	).Scan(&key.CreatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("insert api key: %w", err)
	}

	return key, rawKey, nil
}

// GetByRawKey looks a key up by its raw bearer value. Inactive keys are
// returned so the caller can distinguish "unknown" from "deactivated".
func (s *APIKeyService) GetByRawKey(ctx context.Context, rawKey string) (*model.APIKey, error) {
	return s.get(ctx, `key_hash`, HashKey(rawKey))
}

// GetByID retrieves an API key by its ID.
func (s *APIKeyService) GetByID(ctx context.Context, id string) (*model.APIKey, error) {
	return s.get(ctx, `id`, id)
}

func (s *APIKeyService) get(ctx context.Context, column, value string) (*model.APIKey, error) {
	var k model.APIKey
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, name, key_hash, key_prefix, rate_limit, is_active, last_used_at, created_at
		 FROM api_keys WHERE `+column+` = $1`, value,
	).Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.RateLimit, &k.IsActive, &k.LastUsedAt, &k.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get api key: %w", err)
	}
	return &k, nil
}

// ListByUser returns the user's keys, newest first.
func (s *APIKeyService) ListByUser(ctx context.Context, userID string) ([]model.APIKey, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, name, key_hash, key_prefix, rate_limit, is_active, last_used_at, created_at
		 FROM api_keys WHERE user_id = $1 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []model.APIKey
	for rows.Next() {
		var k model.APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.RateLimit, &k.IsActive, &k.LastUsedAt, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api keys: %w", err)
	}
	return keys, nil
}

// SetActive toggles the is_active flag. Deactivated keys keep their usage
// history; requests with them fail with 403 until reactivated.
func (s *APIKeyService) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE api_keys SET is_active = $1 WHERE id = $2`, active, id,
	)
	if err != nil {
		return fmt.Errorf("update api key %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a key permanently. A user's last key cannot be deleted.
func (s *APIKeyService) Delete(ctx context.Context, id string) error {
	key, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	var count int
	err = s.db.QueryRow(ctx,
		`SELECT count(*) FROM api_keys WHERE user_id = $1`, key.UserID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("count api keys for user %s: %w", key.UserID, err)
	}
	if count <= 1 {
		return ErrLastKey
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete api key %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastUsed updates the key's last_used_at timestamp. Called outside the
// request path; failures are the caller's to log, not to propagate.
func (s *APIKeyService) TouchLastUsed(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `UPDATE api_keys SET last_used_at = now() WHERE id = $1`, id)
	return err
}
