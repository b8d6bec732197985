package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adwikanair2008-hue/swim-flow/internal/stats"
	"github.com/adwikanair2008-hue/swim-flow/internal/store"
	"github.com/adwikanair2008-hue/swim-flow/internal/utils"
)

const (
	coachRecentSessions = 5
	// CoachHistoryTurns bounds how much of the chat is replayed to the model.
	CoachHistoryTurns = 10

	GoalWeightLoss = "Weight Loss"
)

// Canned replies used when the model fails or answers with nothing.
const (
	FallbackCoach     = "I'm sorry, I couldn't process that. Let's focus on your next lap!"
	FallbackChatError = "Sorry, I'm feeling a bit underwater right now. Can we try that again?"
	FallbackInsights  = "Keep up the great work! Your consistency is your strength."
	NoSessionsInsight = "Start logging your swims to see performance insights!"
	FallbackFeedback  = "Great work in the pool today!"
	FallbackNutrition = "Focus on complex carbs and lean protein!"
)

var (
	NutritionGoals = []string{"General", "Weight Gain", GoalWeightLoss, "Tapering", "Strength Building"}
	DrylandGoals   = []string{"Strength", "Power", "Endurance", "Mobility"}
)

const (
	beginnerInstructions = "The user is a BEGINNER. Focus heavily on fundamental stroke mechanics, proper breathing techniques, and water comfort. " +
		"Keep advice simple, highly encouraging, and prioritize safety and 'form over speed'. " +
		"Avoid overly dense technical jargon unless explaining it simply."
	competitiveInstructions = "The user is a COMPETITIVE swimmer. Focus on interval training, specific sets (e.g., threshold, VO2 max), " +
		"stroke efficiency (SWOLF), turns, and race starts. Use technical swimming terminology (catch, pull-through, streamline, hypoxic) " +
		"and suggest drills that improve speed and endurance."
	eliteInstructions = "The user is an ELITE athlete. Provide high-level technical analysis, focusing on micro-adjustments in stroke cycle, " +
		"taper strategies, physiological recovery, and advanced race tactics. Address fatigue patterns, volume management, " +
		"and high-performance psychological coaching. Use advanced terminology without hesitation."
	neutralInstructions = "Provide balanced, professional swimming advice suitable for their profile."
)

// BMI is weight over height in meters squared, to one decimal. Zero means unknown.
func BMI(p *store.Profile) float64 {
	if p == nil || p.Height <= 0 || p.Weight <= 0 {
		return 0
	}
	meters := p.Height / 100
	return utils.Round1(p.Weight / (meters * meters))
}

func BMIStatus(bmi float64) string {
	switch {
	case bmi <= 0:
		return "Unknown"
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Healthy"
	case bmi < 30:
		return "Overweight"
	default:
		return "Obese"
	}
}

func LevelInstructions(level store.SwimmingLevel) string {
	switch level {
	case store.LevelBeginner:
		return beginnerInstructions
	case store.LevelCompetitive:
		return competitiveInstructions
	case store.LevelElite:
		return eliteInstructions
	default:
		return neutralInstructions
	}
}

// TextOrDefault trims a model reply and substitutes fallback when nothing is left.
func TextOrDefault(text, fallback string) string {
	if t := strings.TrimSpace(text); t != "" {
		return t
	}
	return fallback
}

func sessionsJSON(sessions []store.Session) string {
	if sessions == nil {
		sessions = []store.Session{}
	}
	b, err := json.Marshal(sessions)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// BuildCoachPrompt frames the athlete for "Coach Blue" and carries the new
// message. Earlier turns travel separately as chat history.
func BuildCoachPrompt(p store.Profile, sessions []store.Session, message string) string {
	recent := stats.RecentSessions(sessions, coachRecentSessions)
	return fmt.Sprintf(`You are "Coach Blue", a world-class swimming coach.
USER PROFILE:
- Name: %s
- Age: %d
- Gender: %s
- Height: %gcm
- Weight: %gkg (BMI: %g)
- Swimming Level: %s

LEVEL-SPECIFIC PERSONA:
%s

RECENT DATA: %s

INSTRUCTIONS:
- Give advice that is DIRECTLY relevant to a %s swimmer.
- If they ask about improvement, relate it to their recent pace/distance data and physical profile.
- Be concise, professional, and motivating.
- Never mention you are an AI; act fully as Coach Blue.

User Message: %s`,
		p.Name, p.Age, p.Gender, p.Height, p.Weight, BMI(&p), p.SwimmingLevel,
		LevelInstructions(p.SwimmingLevel),
		sessionsJSON(recent),
		p.SwimmingLevel,
		message)
}

// CoachHistory picks the turns replayed before a new user message: at most
// CoachHistoryTurns, starting with a user turn and ending with a model turn
// as the chat API requires. An unanswered trailing message is left out.
func CoachHistory(history []store.ChatMessage) []store.ChatMessage {
	if len(history) > CoachHistoryTurns {
		history = history[len(history)-CoachHistoryTurns:]
	}
	for len(history) > 0 && history[0].Role != store.RoleUser {
		history = history[1:]
	}
	for len(history) > 0 && history[len(history)-1].Role != store.RoleModel {
		history = history[:len(history)-1]
	}
	out := make([]store.ChatMessage, len(history))
	copy(out, history)
	return out
}

func BuildInsightsPrompt(p store.Profile, sessions []store.Session) string {
	return fmt.Sprintf(`Analyze these swimming sessions through the lens of an expert coach for a %[1]s swimmer:
User Metrics: %[2]gcm, %[3]gkg, BMI: %[4]g.
Sessions: %[5]s

CONTEXT FOR ANALYSIS:
%[6]s

GOAL:
Provide 3 concise, bulleted insights about their performance.
1. One insight on consistency or volume.
2. One insight on pace trends (looking at seconds/100m).
3. One actionable recommendation specifically tailored for a %[1]s athlete.

Format as short, impactful bullet points.`,
		p.SwimmingLevel, p.Height, p.Weight, BMI(&p),
		sessionsJSON(sessions),
		LevelInstructions(p.SwimmingLevel))
}

func BuildSessionFeedbackPrompt(p store.Profile, s store.Session) string {
	return fmt.Sprintf(`You are "Coach Blue". A %s swimmer named %s (%gkg) just finished a swim: %dm of %s in %s.
They reported feeling %s after the session.
Give a one-sentence, context-aware, highly encouraging compliment or technical tip based on this specific session and their recovery state. Be brief (under 15 words).`,
		p.SwimmingLevel, p.Name, p.Weight, s.Distance, s.Stroke, utils.FormatDuration(s.Time), s.Feeling)
}

// BuildNutritionPrompt only mentions targetWeight for the weight loss goal.
func BuildNutritionPrompt(p store.Profile, goal string, targetWeight *float64) string {
	targetText := ""
	if goal == GoalWeightLoss && targetWeight != nil && *targetWeight > 0 {
		targetText = fmt.Sprintf("Their DESIRED TARGET WEIGHT is %gkg (Current: %gkg).", *targetWeight, p.Weight)
	}
	basis := "current profile"
	if targetText != "" {
		basis = "target weight"
	}

	return fmt.Sprintf(`Act as a swimming nutritionist for %[1]s, a %[2]d-year-old %[3]s swimmer.
USER METRICS: %[4]gcm, %[5]gkg, BMI: %[6]g.
USER GOAL: %[7]s.
%[8]s

Provide a concise daily nutrition and supplement plan. Include:
- **Diet Plan Focus**: Specific breakdown of meals (Pre-swim, Post-swim, Main meals) optimized for %[7]s.
- **Supplement Recommendations**: Suggest safe, effective supplements for a %[3]s swimmer (e.g., electrolytes, protein, omega-3, etc.) specifically aiding in %[7]s.
- **Hydration Strategy**: Specific tips for pool-side hydration.
- **Caloric Insight**: Briefly mention if they should be in a deficit, surplus, or maintenance based on their %[7]s and %[9]s.

Tailor the complexity to their level (%[3]s).
Format using Markdown bolding for categories but keep it short, professional, and friendly.`,
		p.Name, p.Age, p.SwimmingLevel, p.Height, p.Weight, BMI(&p), goal, targetText, basis)
}

func BuildWorkoutPrompt(p store.Profile, goal string) string {
	return fmt.Sprintf(`Generate a 15-20 minute dryland (out of pool) workout for %[1]s, a %[2]s swimmer.
USER METRICS: %[3]gcm, %[4]gkg, BMI: %[5]g.
WORKOUT FOCUS/GOAL: %[6]s.
List 4-5 exercises with sets, reps, and a brief description.
For each exercise, provide a detailed step-by-step guide (as an array of strings).
Also provide a videoUrl that is a valid YouTube search link for that specific exercise (e.g. "https://www.youtube.com/results?search_query=swimming+dryland+exercise+name").
Ensure exercises are appropriate for a %[2]s level athlete.`,
		p.Name, p.SwimmingLevel, p.Height, p.Weight, BMI(&p), goal)
}

// MatchGoal returns the canonical spelling of goal from options, or false.
func MatchGoal(goal string, options []string) (string, bool) {
	for _, o := range options {
		if strings.EqualFold(strings.TrimSpace(goal), o) {
			return o, true
		}
	}
	return "", false
}
