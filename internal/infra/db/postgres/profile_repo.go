package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/automaton-health/internal/domain/profile"
)

type ProfileRepository struct{ db *sql.DB }

func NewProfileRepository(db *sql.DB) *ProfileRepository { return &ProfileRepository{db: db} }

// Get returns nil, nil when the user has no row yet
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	const q = `
SELECT profile_json
FROM user_profiles
WHERE user_id=$1
LIMIT 1;`
	var raw []byte
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	var p domain.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", userID, err)
	}
	p.UserID = userID
	return &p, nil
}

// Save inserts or updates the profile document
func (r *ProfileRepository) Save(ctx context.Context, p *domain.Profile) error {
	const q = `
INSERT INTO user_profiles (user_id, profile_json, points, updated_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (user_id) DO UPDATE SET
  profile_json = EXCLUDED.profile_json,
  points = EXCLUDED.points,
  updated_at = EXCLUDED.updated_at;`
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err = r.db.ExecContext(ctx, q, p.UserID, string(raw), p.Points, updated)
	return err
}
