package profile

import (
	"errors"
	"fmt"
	"strings"
)

// Activity is something the dashboard rewards.
type Activity string

const (
	ActivityJournal     Activity = "journal"
	ActivityMood        Activity = "mood"
	ActivityReport      Activity = "report"
	ActivityProfileStep Activity = "profile_step"
)

var activityPoints = map[Activity]int{
	ActivityJournal:     10,
	ActivityMood:        5,
	ActivityReport:      20,
	ActivityProfileStep: 15,
}

// Badge thresholds by total points, lowest first.
var badgeThresholds = []struct {
	name   string
	points int
}{
	{"Starter", 10},
	{"Committed", 100},
	{"Champion", 500},
}

var moods = map[string]bool{"great": true, "good": true, "okay": true, "low": true, "bad": true}

var ErrInvalidActivity = errors.New("invalid activity")

// CheckIn is a journal entry or mood check-in. Its content isn't stored.
type CheckIn struct {
	Kind Activity `json:"kind"`
	Text string   `json:"text,omitempty"`
	Mood string   `json:"mood,omitempty"`
}

// Validate accepts journal entries with text and mood check-ins with a known mood.
func (c CheckIn) Validate() error {
	switch c.Kind {
	case ActivityJournal:
		if strings.TrimSpace(c.Text) == "" {
			return fmt.Errorf("%w: journal entry is empty", ErrInvalidActivity)
		}
	case ActivityMood:
		if !moods[strings.ToLower(strings.TrimSpace(c.Mood))] {
			return fmt.Errorf("%w: mood must be great, good, okay, low or bad", ErrInvalidActivity)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidActivity, c.Kind)
	}
	return nil
}

// Award adds the points for a and any newly earned badges. Returns the badges gained.
func (p *Profile) Award(a Activity) ([]string, error) {
	pts, ok := activityPoints[a]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidActivity, a)
	}
	p.Points += pts

	var gained []string
	for _, b := range badgeThresholds {
		if p.Points >= b.points && !p.hasBadge(b.name) {
			p.Badges = append(p.Badges, b.name)
			gained = append(gained, b.name)
		}
	}
	return gained, nil
}

func (p *Profile) hasBadge(name string) bool {
	for _, b := range p.Badges {
		if b == name {
			return true
		}
	}
	return false
}
