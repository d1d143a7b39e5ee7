package profile

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/bryanwahyu/automaton-health/internal/application"
	domain "github.com/bryanwahyu/automaton-health/internal/domain/profile"
)

// Service implements use-cases for the profile collaborator
type Service struct {
	Repo  domain.Repository
	Clock application.Clock
	Log   *zap.Logger

	mu    sync.Mutex
	users map[string]*sync.Mutex
}

// RewardResult is returned after an activity is recorded.
type RewardResult struct {
	Profile      *domain.Profile `json:"profile"`
	PointsEarned int             `json:"points_earned"`
	NewBadges    []string        `json:"new_badges,omitempty"`
}

// Get returns the user's profile, or a blank one when none is stored yet.
func (s *Service) Get(ctx context.Context, user string) (*domain.Profile, error) {
	p, err := s.Repo.Get(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if p == nil {
		p = domain.Empty(user)
	}
	return p, nil
}

// SaveStep applies one form step. Completing a step the first time earns points.
func (s *Service) SaveStep(ctx context.Context, user, stepName string, in domain.StepInput) (RewardResult, error) {
	step, err := domain.ParseStep(stepName)
	if err != nil {
		return RewardResult{}, err
	}
	unlock := s.lock(user)
	defer unlock()

	p, err := s.Get(ctx, user)
	if err != nil {
		return RewardResult{}, err
	}

	before := p.Points
	first, err := p.ApplyStep(step, in)
	if err != nil {
		return RewardResult{}, err
	}
	var badges []string
	if first {
		if badges, err = p.Award(domain.ActivityProfileStep); err != nil {
			return RewardResult{}, err
		}
	}
	if err := s.save(ctx, p); err != nil {
		return RewardResult{}, err
	}
	return RewardResult{Profile: p, PointsEarned: p.Points - before, NewBadges: badges}, nil
}

// CheckIn records a journal entry or mood check-in for points.
func (s *Service) CheckIn(ctx context.Context, user string, c domain.CheckIn) (RewardResult, error) {
	if err := c.Validate(); err != nil {
		return RewardResult{}, err
	}
	return s.Reward(ctx, user, c.Kind)
}

// Reward adds the points for one activity and persists the profile.
func (s *Service) Reward(ctx context.Context, user string, a domain.Activity) (RewardResult, error) {
	unlock := s.lock(user)
	defer unlock()

	p, err := s.Get(ctx, user)
	if err != nil {
		return RewardResult{}, err
	}
	before := p.Points
	badges, err := p.Award(a)
	if err != nil {
		return RewardResult{}, err
	}
	if err := s.save(ctx, p); err != nil {
		return RewardResult{}, err
	}
	if len(badges) > 0 && s.Log != nil {
		s.Log.Info("badges earned", zap.String("user", user), zap.Strings("badges", badges))
	}
	return RewardResult{Profile: p, PointsEarned: p.Points - before, NewBadges: badges}, nil
}

// AwardReport is the hook the report pipeline calls after a successful analysis.
func (s *Service) AwardReport(ctx context.Context, user string) {
	if _, err := s.Reward(ctx, user, domain.ActivityReport); err != nil && s.Log != nil {
		s.Log.Warn("report reward failed", zap.String("user", user), zap.Error(err))
	}
}

// lock serializes read-modify-write of one user's profile within this process.
func (s *Service) lock(user string) func() {
	s.mu.Lock()
	if s.users == nil {
		s.users = make(map[string]*sync.Mutex)
	}
	m, ok := s.users[user]
	if !ok {
		m = &sync.Mutex{}
		s.users[user] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func (s *Service) save(ctx context.Context, p *domain.Profile) error {
	if s.Clock != nil {
		p.UpdatedAt = s.Clock.Now()
	}
	if err := s.Repo.Save(ctx, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}
