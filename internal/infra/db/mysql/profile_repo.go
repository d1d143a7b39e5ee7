package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/automaton-health/internal/domain/profile"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get returns nil, nil when the user has no row yet
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	const q = `
SELECT profile_json
FROM user_profiles
WHERE user_id=? LIMIT 1;
`
	var raw []byte
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

// Save upserts the whole profile document
func (r *ProfileRepository) Save(ctx context.Context, p *domain.Profile) error {
	const q = `
INSERT INTO user_profiles (user_id, profile_json, points, updated_at)
VALUES (?,?,?,?)
ON DUPLICATE KEY UPDATE
  profile_json=VALUES(profile_json), points=VALUES(points), updated_at=VALUES(updated_at);
`
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err = r.db.ExecContext(ctx, q, p.UserID, raw, p.Points, updated)
	return err
}
