package profile

import "time"

// Profile is the per-user object the dashboard reads and writes. The
// multi-step form fills it; activities add points and badges.
type Profile struct {
	UserID string `json:"user_id"`

	// step 1: personal
	FullName string  `json:"full_name,omitempty"`
	Age      int     `json:"age,omitempty"`
	Gender   string  `json:"gender,omitempty"`
	HeightCM float64 `json:"height_cm,omitempty"`
	WeightKG float64 `json:"weight_kg,omitempty"`

	// step 2: medical
	Conditions  []string `json:"conditions,omitempty"`
	Medications []string `json:"medications,omitempty"`
	Allergies   []string `json:"allergies,omitempty"`

	// step 3: lifestyle
	ActivityLevel string   `json:"activity_level,omitempty"`
	SleepHours    float64  `json:"sleep_hours,omitempty"`
	Goals         []string `json:"goals,omitempty"`

	CompletedSteps []Step   `json:"completed_steps,omitempty"`
	Points         int      `json:"points"`
	Badges         []string `json:"badges,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Empty returns a blank profile for user.
func Empty(userID string) *Profile {
	return &Profile{UserID: userID}
}

// HasCompleted reports whether step was saved before.
func (p *Profile) HasCompleted(step Step) bool {
	for _, s := range p.CompletedSteps {
		if s == step {
			return true
		}
	}
	return false
}

// Complete reports whether every form step is done.
func (p *Profile) Complete() bool {
	for _, s := range Steps {
		if !p.HasCompleted(s) {
			return false
		}
	}
	return true
}
