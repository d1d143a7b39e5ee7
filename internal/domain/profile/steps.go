package profile

import (
	"errors"
	"fmt"
	"strings"
)

// Step of the multi-step profile form
type Step string

const (
	StepPersonal  Step = "personal"
	StepMedical   Step = "medical"
	StepLifestyle Step = "lifestyle"
)

// Steps in form order.
var Steps = []Step{StepPersonal, StepMedical, StepLifestyle}

var (
	ErrUnknownStep = errors.New("unknown profile step")
	ErrInvalidStep = errors.New("invalid profile step")
)

var activityLevels = map[string]bool{
	"sedentary": true, "light": true, "moderate": true, "active": true,
}

// ParseStep resolves a step name.
func ParseStep(s string) (Step, error) {
	for _, st := range Steps {
		if string(st) == strings.ToLower(strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStep, s)
}

// StepInput carries the fields of any step; only the ones that belong to the
// step being applied are read.
type StepInput struct {
	FullName string  `json:"full_name"`
	Age      int     `json:"age"`
	Gender   string  `json:"gender"`
	HeightCM float64 `json:"height_cm"`
	WeightKG float64 `json:"weight_kg"`

	Conditions  []string `json:"conditions"`
	Medications []string `json:"medications"`
	Allergies   []string `json:"allergies"`

	ActivityLevel string   `json:"activity_level"`
	SleepHours    float64  `json:"sleep_hours"`
	Goals         []string `json:"goals"`
}

// ApplyStep validates in for step, copies it onto p and marks the step done.
// It returns true the first time a step is completed.
func (p *Profile) ApplyStep(step Step, in StepInput) (bool, error) {
	switch step {
	case StepPersonal:
		name := strings.TrimSpace(in.FullName)
		if name == "" {
			return false, fmt.Errorf("%w: full name is required", ErrInvalidStep)
		}
		if in.Age < 1 || in.Age > 130 {
			return false, fmt.Errorf("%w: age must be between 1 and 130", ErrInvalidStep)
		}
		if in.HeightCM < 0 || in.WeightKG < 0 {
			return false, fmt.Errorf("%w: height and weight cannot be negative", ErrInvalidStep)
		}
		p.FullName, p.Age, p.Gender = name, in.Age, strings.TrimSpace(in.Gender)
		p.HeightCM, p.WeightKG = in.HeightCM, in.WeightKG
	case StepMedical:
		p.Conditions = cleanList(in.Conditions)
		p.Medications = cleanList(in.Medications)
		p.Allergies = cleanList(in.Allergies)
	case StepLifestyle:
		level := strings.ToLower(strings.TrimSpace(in.ActivityLevel))
		if !activityLevels[level] {
			return false, fmt.Errorf("%w: activity level must be sedentary, light, moderate or active", ErrInvalidStep)
		}
		if in.SleepHours < 0 || in.SleepHours > 24 {
			return false, fmt.Errorf("%w: sleep hours must be between 0 and 24", ErrInvalidStep)
		}
		p.ActivityLevel, p.SleepHours = level, in.SleepHours
		p.Goals = cleanList(in.Goals)
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}

	if p.HasCompleted(step) {
		return false, nil
	}
	p.CompletedSteps = append(p.CompletedSteps, step)
	return true, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
