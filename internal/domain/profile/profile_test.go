package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStep(t *testing.T) {
	s, err := ParseStep(" Medical ")
	require.NoError(t, err)
	assert.Equal(t, StepMedical, s)

	_, err = ParseStep("billing")
	assert.ErrorIs(t, err, ErrUnknownStep)
}

func TestApplyStep_Personal(t *testing.T) {
	p := Empty("u1")

	first, err := p.ApplyStep(StepPersonal, StepInput{FullName: " Jane Doe ", Age: 34, HeightCM: 170})
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, "Jane Doe", p.FullName)
	assert.Equal(t, []Step{StepPersonal}, p.CompletedSteps)

	// re-saving updates fields but isn't a first completion
	first, err = p.ApplyStep(StepPersonal, StepInput{FullName: "Jane D.", Age: 35})
	require.NoError(t, err)
	assert.False(t, first)
	assert.Equal(t, 35, p.Age)
	assert.Len(t, p.CompletedSteps, 1)
}

func TestApplyStep_Invalid(t *testing.T) {
	tests := []struct {
		name string
		step Step
		in   StepInput
	}{
		{"no name", StepPersonal, StepInput{Age: 30}},
		{"age zero", StepPersonal, StepInput{FullName: "A", Age: 0}},
		{"age too high", StepPersonal, StepInput{FullName: "A", Age: 131}},
		{"negative weight", StepPersonal, StepInput{FullName: "A", Age: 30, WeightKG: -1}},
		{"bad activity level", StepLifestyle, StepInput{ActivityLevel: "extreme"}},
		{"too much sleep", StepLifestyle, StepInput{ActivityLevel: "light", SleepHours: 25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Empty("u1")
			_, err := p.ApplyStep(tt.step, tt.in)
			assert.ErrorIs(t, err, ErrInvalidStep)
			assert.Empty(t, p.CompletedSteps)
		})
	}
}

func TestApplyStep_CompletesForm(t *testing.T) {
	p := Empty("u1")
	_, err := p.ApplyStep(StepPersonal, StepInput{FullName: "Jane", Age: 30})
	require.NoError(t, err)
	_, err = p.ApplyStep(StepMedical, StepInput{Conditions: []string{" asthma ", ""}, Allergies: []string{"pollen"}})
	require.NoError(t, err)
	assert.False(t, p.Complete())

	_, err = p.ApplyStep(StepLifestyle, StepInput{ActivityLevel: "Moderate", SleepHours: 7.5, Goals: []string{"run 5k"}})
	require.NoError(t, err)

	assert.True(t, p.Complete())
	assert.Equal(t, []string{"asthma"}, p.Conditions)
	assert.Equal(t, []string{}, p.Medications)
	assert.Equal(t, "moderate", p.ActivityLevel)
}

func TestAward_BadgesAreEarnedOnce(t *testing.T) {
	p := Empty("u1")

	gained, err := p.Award(ActivityMood)
	require.NoError(t, err)
	assert.Empty(t, gained)
	assert.Equal(t, 5, p.Points)

	gained, err = p.Award(ActivityJournal)
	require.NoError(t, err)
	assert.Equal(t, []string{"Starter"}, gained)

	p.Points = 95
	gained, err = p.Award(ActivityReport)
	require.NoError(t, err)
	assert.Equal(t, []string{"Committed"}, gained)
	assert.Equal(t, []string{"Starter", "Committed"}, p.Badges)

	_, err = p.Award("dance")
	assert.ErrorIs(t, err, ErrInvalidActivity)
}

func TestCheckIn_Validate(t *testing.T) {
	assert.NoError(t, CheckIn{Kind: ActivityJournal, Text: "slept well"}.Validate())
	assert.NoError(t, CheckIn{Kind: ActivityMood, Mood: "Good"}.Validate())
	assert.ErrorIs(t, CheckIn{Kind: ActivityJournal, Text: "  "}.Validate(), ErrInvalidActivity)
	assert.ErrorIs(t, CheckIn{Kind: ActivityMood, Mood: "ecstatic"}.Validate(), ErrInvalidActivity)
	// report points come only from the pipeline
	assert.ErrorIs(t, CheckIn{Kind: ActivityReport}.Validate(), ErrInvalidActivity)
}
