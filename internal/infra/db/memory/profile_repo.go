package memory

import (
	"context"
	"encoding/json"
	"sync"

	domain "github.com/bryanwahyu/automaton-health/internal/domain/profile"
)

// ProfileRepository keeps profiles in process memory. Used when no database is
// configured and in tests. Values are stored as JSON so callers never share
// pointers with the store.
type ProfileRepository struct {
	mu   sync.RWMutex
	rows map[string][]byte
}

func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{rows: make(map[string][]byte)}
}

func (r *ProfileRepository) Get(_ context.Context, userID string) (*domain.Profile, error) {
	r.mu.RLock()
	raw, ok := r.rows[userID]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var p domain.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepository) Save(_ context.Context, p *domain.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.rows[p.UserID] = raw
	r.mu.Unlock()
	return nil
}
