package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	log "github.com/sirupsen/logrus"

	"github.com/adwikanair2008-hue/swim-flow/internal/store"
)

var workoutFields = []string{"name", "sets", "reps", "description", "benefit", "focusArea", "restTime", "steps", "videoUrl"}

// WorkoutSchema constrains the dryland generator to a list of fully populated exercises.
func WorkoutSchema() *genai.Schema {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"name":        str("Name of the exercise"),
				"sets":        str("Number of sets"),
				"reps":        str("Number of reps or duration"),
				"description": str("Summary of the exercise"),
				"benefit":     str("Swimming specific benefit"),
				"focusArea":   str("Target muscle group"),
				"restTime":    {Type: genai.TypeInteger, Description: "Rest time in seconds"},
				"steps": {
					Type:        genai.TypeArray,
					Items:       &genai.Schema{Type: genai.TypeString},
					Description: "Detailed instructions to perform the exercise correctly",
				},
				"videoUrl": str("A YouTube search link for this exercise"),
			},
			Required: append([]string(nil), workoutFields...),
		},
	}
}

// ParseWorkout decodes the generator's JSON. Anything unusable yields an empty
// list: a garbled plan is worse than none.
func ParseWorkout(raw string) []store.DrylandExercise {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []store.DrylandExercise{}
	}

	var items []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		log.Errorf("Failed to parse workout JSON: %v", err)
		return []store.DrylandExercise{}
	}

	out := make([]store.DrylandExercise, 0, len(items))
	for i, item := range items {
		for _, field := range workoutFields {
			if _, ok := item[field]; !ok {
				log.Errorf("Workout exercise #%d is missing %q", i, field)
				return []store.DrylandExercise{}
			}
		}
		ex, err := decodeExercise(item)
		if err != nil {
			log.Errorf("Workout exercise #%d is invalid: %v", i, err)
			return []store.DrylandExercise{}
		}
		out = append(out, ex)
	}
	return out
}

func decodeExercise(item map[string]json.RawMessage) (store.DrylandExercise, error) {
	b, err := json.Marshal(item)
	if err != nil {
		return store.DrylandExercise{}, err
	}
	var ex store.DrylandExercise
	if err := json.Unmarshal(b, &ex); err != nil {
		return store.DrylandExercise{}, err
	}
	if strings.TrimSpace(ex.Name) == "" {
		return store.DrylandExercise{}, fmt.Errorf("empty exercise name")
	}
	if ex.Steps == nil {
		ex.Steps = []string{}
	}
	return ex, nil
}
