package core

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/adwikanair2008-hue/swim-flow/internal/store"
)

func testProfile() store.Profile {
	return store.Profile{
		Name:          "Ada",
		Age:           29,
		Gender:        store.GenderFemale,
		SwimmingLevel: store.LevelCompetitive,
		IsOnboarded:   true,
		Weight:        70,
		Height:        175,
	}
}

func TestBMI(t *testing.T) {
	p := testProfile()
	assert.Equal(t, 22.9, BMI(&p))

	p.Height, p.Weight = 180, 75
	assert.Equal(t, 23.1, BMI(&p))

	p.Height = 0
	assert.Equal(t, 0.0, BMI(&p))

	p.Height, p.Weight = 180, -1
	assert.Equal(t, 0.0, BMI(&p))
	assert.Equal(t, 0.0, BMI(nil))
}

func TestBMIStatus(t *testing.T) {
	assert.Equal(t, "Unknown", BMIStatus(0))
	assert.Equal(t, "Underweight", BMIStatus(17.9))
	assert.Equal(t, "Healthy", BMIStatus(22.9))
	assert.Equal(t, "Overweight", BMIStatus(27))
	assert.Equal(t, "Obese", BMIStatus(31.2))
}

func TestLevelInstructions(t *testing.T) {
	assert.Contains(t, LevelInstructions(store.LevelBeginner), "BEGINNER")
	assert.Contains(t, LevelInstructions(store.LevelCompetitive), "COMPETITIVE")
	assert.Contains(t, LevelInstructions(store.LevelElite), "ELITE")
	assert.Equal(t, neutralInstructions, LevelInstructions("Masters"))
	assert.Equal(t, neutralInstructions, LevelInstructions(""))
}

func TestTextOrDefault(t *testing.T) {
	assert.Equal(t, "Swim on", TextOrDefault("  Swim on\n", "fallback"))
	assert.Equal(t, "fallback", TextOrDefault(" \n\t", "fallback"))
}

func TestBuildCoachPromptUsesFiveMostRecentSessions(t *testing.T) {
	var sessions []store.Session
	for day := 1; day <= 7; day++ {
		sessions = append(sessions, store.Session{
			ID:       fmt.Sprintf("day-%d", day),
			Date:     store.NewDate(2024, time.March, day),
			Stroke:   store.StrokeFreestyle,
			Distance: 1000,
			Time:     1200,
		})
	}

	prompt := BuildCoachPrompt(testProfile(), sessions, "How is my pace?")
	assert.Contains(t, prompt, `You are "Coach Blue"`)
	assert.Contains(t, prompt, "Weight: 70kg (BMI: 22.9)")
	assert.Contains(t, prompt, competitiveInstructions)
	assert.True(t, strings.HasSuffix(prompt, "User Message: How is my pace?"))
	for day := 3; day <= 7; day++ {
		assert.Contains(t, prompt, fmt.Sprintf(`"id":"day-%d"`, day))
	}
	assert.NotContains(t, prompt, `"id":"day-1"`)
	assert.NotContains(t, prompt, `"id":"day-2"`)
}

func TestCoachHistory(t *testing.T) {
	var history []store.ChatMessage
	for i := 0; i < 12; i++ {
		role := store.RoleUser
		if i%2 == 1 {
			role = store.RoleModel
		}
		history = append(history, store.ChatMessage{Role: role, Text: fmt.Sprintf("%d", i)})
	}

	got := CoachHistory(history)
	assert.Len(t, got, CoachHistoryTurns)
	assert.Equal(t, "2", got[0].Text)
	assert.Equal(t, store.RoleUser, got[0].Role)

	got = CoachHistory([]store.ChatMessage{
		{Role: store.RoleModel, Text: "welcome"},
		{Role: store.RoleUser, Text: "hi"},
		{Role: store.RoleModel, Text: "hello"},
	})
	assert.Equal(t, []store.ChatMessage{{Role: store.RoleUser, Text: "hi"}, {Role: store.RoleModel, Text: "hello"}}, got)

	assert.Empty(t, CoachHistory(nil))

	got = CoachHistory([]store.ChatMessage{
		{Role: store.RoleUser, Text: "hi"},
		{Role: store.RoleModel, Text: "hello"},
		{Role: store.RoleUser, Text: "unanswered"},
	})
	assert.Equal(t, []store.ChatMessage{{Role: store.RoleUser, Text: "hi"}, {Role: store.RoleModel, Text: "hello"}}, got)
}

func TestBuildInsightsPrompt(t *testing.T) {
	sessions := []store.Session{{ID: "s1", Date: store.NewDate(2024, time.March, 1), Distance: 2000, Time: 1800}}
	prompt := BuildInsightsPrompt(testProfile(), sessions)
	assert.Contains(t, prompt, "for a Competitive swimmer")
	assert.Contains(t, prompt, "175cm, 70kg, BMI: 22.9")
	assert.Contains(t, prompt, `"id":"s1"`)
	assert.Contains(t, prompt, "3 concise, bulleted insights")
}

func TestBuildNutritionPromptTargetWeight(t *testing.T) {
	target := 65.0

	prompt := BuildNutritionPrompt(testProfile(), GoalWeightLoss, &target)
	assert.Contains(t, prompt, "DESIRED TARGET WEIGHT is 65kg (Current: 70kg)")
	assert.Contains(t, prompt, "based on their Weight Loss and target weight")

	prompt = BuildNutritionPrompt(testProfile(), "Tapering", &target)
	assert.NotContains(t, prompt, "TARGET WEIGHT")
	assert.Contains(t, prompt, "based on their Tapering and current profile")
}

func TestBuildSessionFeedbackPrompt(t *testing.T) {
	s := store.Session{Distance: 1500, Time: 1805, Stroke: store.StrokeButterfly, Feeling: store.FeelingTired}
	prompt := BuildSessionFeedbackPrompt(testProfile(), s)
	assert.Contains(t, prompt, "1500m of Butterfly in 30m 5s")
	assert.Contains(t, prompt, "feeling Tired")
}

func TestBuildWorkoutPrompt(t *testing.T) {
	prompt := BuildWorkoutPrompt(testProfile(), "Mobility")
	assert.Contains(t, prompt, "WORKOUT FOCUS/GOAL: Mobility.")
	assert.Contains(t, prompt, "appropriate for a Competitive level athlete")
}

func TestMatchGoal(t *testing.T) {
	goal, ok := MatchGoal("weight loss", NutritionGoals)
	assert.True(t, ok)
	assert.Equal(t, GoalWeightLoss, goal)

	_, ok = MatchGoal("Cardio", DrylandGoals)
	assert.False(t, ok)
}
