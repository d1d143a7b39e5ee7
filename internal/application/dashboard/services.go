package dashboard

import (
	"sync"

	domain "github.com/bryanwahyu/automaton-health/internal/domain/dashboard"
)

// Service keeps the open panel per user in memory.
type Service struct {
	mu     sync.RWMutex
	panels map[string]domain.Panel
}

func NewService() *Service {
	return &Service{panels: make(map[string]domain.Panel)}
}

// Current returns the user's open panel, or the default.
func (s *Service) Current(user string) domain.Panel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.panels[user]; ok {
		return p
	}
	return domain.Default
}

// Open switches the user to the named panel.
func (s *Service) Open(user, name string) (domain.Panel, error) {
	p, err := domain.ParsePanel(name)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.panels[user] = p
	s.mu.Unlock()
	return p, nil
}
