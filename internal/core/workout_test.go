package core

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validWorkout = `[
  {
    "name": "Streamline Squat",
    "sets": "3",
    "reps": "12",
    "description": "Squat with arms locked overhead.",
    "benefit": "Stronger wall push-offs",
    "focusArea": "Legs",
    "restTime": 45,
    "steps": ["Lock arms overhead", "Squat to parallel", "Drive up"],
    "videoUrl": "https://www.youtube.com/results?search_query=swimming+dryland+streamline+squat"
  }
]`

func TestWorkoutSchemaRequiresEveryField(t *testing.T) {
	schema := WorkoutSchema()
	require.Equal(t, genai.TypeArray, schema.Type)
	require.NotNil(t, schema.Items)
	assert.Equal(t, genai.TypeObject, schema.Items.Type)
	assert.ElementsMatch(t, workoutFields, schema.Items.Required)
	assert.Len(t, schema.Items.Properties, len(workoutFields))
	assert.Equal(t, genai.TypeInteger, schema.Items.Properties["restTime"].Type)
	assert.Equal(t, genai.TypeArray, schema.Items.Properties["steps"].Type)
}

func TestParseWorkout(t *testing.T) {
	exercises := ParseWorkout(validWorkout)
	require.Len(t, exercises, 1)
	ex := exercises[0]
	assert.Equal(t, "Streamline Squat", ex.Name)
	assert.Equal(t, 45, ex.RestTime)
	assert.Equal(t, []string{"Lock arms overhead", "Squat to parallel", "Drive up"}, ex.Steps)
	assert.Equal(t, "Legs", ex.FocusArea)
}

func TestParseWorkoutFailuresYieldEmptyList(t *testing.T) {
	for name, raw := range map[string]string{
		"empty":         "",
		"garbage":       "Here is your workout!",
		"object":        `{"name": "Plank"}`,
		"missing field": `[{"name": "Plank", "sets": "3", "reps": "30s"}]`,
		"wrong type":    `[{"name": "Plank", "sets": "3", "reps": "30s", "description": "", "benefit": "", "focusArea": "", "restTime": "long", "steps": [], "videoUrl": ""}]`,
		"truncated":     validWorkout[:40],
	} {
		t.Run(name, func(t *testing.T) {
			exercises := ParseWorkout(raw)
			assert.NotNil(t, exercises)
			assert.Empty(t, exercises)
		})
	}
}
