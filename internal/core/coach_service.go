package core

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/adwikanair2008-hue/swim-flow/internal/metrics"
	"github.com/adwikanair2008-hue/swim-flow/internal/state"
	"github.com/adwikanair2008-hue/swim-flow/internal/store"
)

type RequestKind string

const (
	RequestChat      RequestKind = "chat"
	RequestInsights  RequestKind = "insights"
	RequestNutrition RequestKind = "nutrition"
	RequestWorkout   RequestKind = "workout"
	RequestFeedback  RequestKind = "feedback"
)

var (
	ErrRequestInFlight    = errors.New("a request of this kind is already in progress")
	ErrOnboardingRequired = errors.New("onboarding required")
	ErrEmptyMessage       = errors.New("message is empty")
	ErrUnknownGoal        = errors.New("unknown goal")
	ErrStateChanged       = errors.New("state changed, try again")
)

// Advice is a generated text. Fallback is set when the model failed and a
// canned reply was substituted.
type Advice struct {
	Text     string `json:"text"`
	Cached   bool   `json:"cached"`
	Fallback bool   `json:"fallback"`
}

type WorkoutPlan struct {
	Goal      string                  `json:"goal"`
	Exercises []store.DrylandExercise `json:"exercises"`
	Cached    bool                    `json:"cached"`
	Fallback  bool                    `json:"fallback"`
}

// CoachService runs coaching requests against the model. At most one request
// per kind is outstanding; a result that arrives after the state it was built
// from was replaced is returned to the caller but not written back.
type CoachService struct {
	generator Generator
	state     *state.Container
	cache     *AdviceCache
	metrics   *metrics.Manager

	mu       sync.Mutex
	inFlight map[RequestKind]bool
}

func NewCoachService(gen Generator, st *state.Container, cache *AdviceCache, m *metrics.Manager) *CoachService {
	return &CoachService{
		generator: gen,
		state:     st,
		cache:     cache,
		metrics:   m,
		inFlight:  make(map[RequestKind]bool),
	}
}

func (s *CoachService) acquire(kind RequestKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[kind] {
		s.observe(kind, "in_flight")
		return ErrRequestInFlight
	}
	s.inFlight[kind] = true
	return nil
}

func (s *CoachService) release(kind RequestKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, kind)
}

// InFlight reports whether a request of kind is outstanding.
func (s *CoachService) InFlight(kind RequestKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight[kind]
}

func (s *CoachService) onboardedView() (store.Snapshot, uint64, error) {
	snap, gen := s.state.View()
	if snap.NeedsOnboarding() {
		return snap, gen, ErrOnboardingRequired
	}
	return snap, gen, nil
}

func (s *CoachService) generateText(ctx context.Context, kind RequestKind, req TextRequest) (string, error) {
	start := time.Now()
	text, err := s.generator.GenerateText(ctx, req)
	s.observeDuration(kind, start)
	return text, err
}

// SendMessage appends the athlete's message to the chat, asks the coach and
// appends the reply. Provider failures become an in-character reply.
func (s *CoachService) SendMessage(ctx context.Context, text string) (store.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return store.ChatMessage{}, ErrEmptyMessage
	}
	if err := s.acquire(RequestChat); err != nil {
		return store.ChatMessage{}, err
	}
	defer s.release(RequestChat)

	// a profile edit keeps the chat, so only a replaced chat drops the reply
	snap, chatGen := s.state.ChatView()
	if snap.NeedsOnboarding() {
		return store.ChatMessage{}, ErrOnboardingRequired
	}

	history := CoachHistory(snap.ChatHistory)
	userMsg := store.ChatMessage{Role: store.RoleUser, Text: text}
	if _, ok := s.state.DispatchIfChat(chatGen, state.AppendChat{Messages: []store.ChatMessage{userMsg}}); !ok {
		s.observe(RequestChat, "stale")
		return store.ChatMessage{}, ErrStateChanged
	}

	reply, err := s.generateText(ctx, RequestChat, TextRequest{
		Prompt:   BuildCoachPrompt(*snap.Profile, snap.Sessions, text),
		History:  history,
		Sampling: CoachSampling,
	})
	result := "ok"
	if err != nil {
		log.Errorf("Coach reply failed: %v", err)
		reply = FallbackChatError
		result = "fallback"
	} else {
		reply = TextOrDefault(reply, FallbackCoach)
	}

	modelMsg := store.ChatMessage{Role: store.RoleModel, Text: reply}
	if _, ok := s.state.DispatchIfChat(chatGen, state.AppendChat{Messages: []store.ChatMessage{modelMsg}}); !ok {
		log.Info("Chat was replaced while the coach was thinking; reply discarded")
		result = "stale"
	}
	s.observe(RequestChat, result)
	return modelMsg, nil
}

// Insights summarizes the whole history in three bullets.
func (s *CoachService) Insights(ctx context.Context) (Advice, error) {
	snap, gen, err := s.onboardedView()
	if err != nil {
		return Advice{}, err
	}
	if len(snap.Sessions) == 0 {
		return Advice{Text: NoSessionsInsight}, nil
	}

	key := AdviceKey(RequestInsights, "", snap.Profile, snap.Sessions)
	return s.textAdvice(ctx, RequestInsights, key, gen, FallbackInsights, TextRequest{
		Prompt: BuildInsightsPrompt(*snap.Profile, snap.Sessions),
	})
}

// Nutrition returns a daily plan for goal. targetWeight only matters for
// weight loss; when nil the profile's target weight is used.
func (s *CoachService) Nutrition(ctx context.Context, goal string, targetWeight *float64) (Advice, error) {
	goal, ok := MatchGoal(goal, NutritionGoals)
	if !ok {
		return Advice{}, ErrUnknownGoal
	}
	snap, gen, err := s.onboardedView()
	if err != nil {
		return Advice{}, err
	}
	if targetWeight == nil {
		targetWeight = snap.Profile.TargetWeight
	}
	if goal != GoalWeightLoss {
		targetWeight = nil
	}

	key := AdviceKey(RequestNutrition, goal, snap.Profile, targetWeight)
	return s.textAdvice(ctx, RequestNutrition, key, gen, FallbackNutrition, TextRequest{
		Prompt: BuildNutritionPrompt(*snap.Profile, goal, targetWeight),
	})
}

func (s *CoachService) textAdvice(ctx context.Context, kind RequestKind, key string, gen uint64, fallback string, req TextRequest) (Advice, error) {
	if cached, ok := s.cache.Get(kind, key); ok {
		return Advice{Text: string(cached), Cached: true}, nil
	}
	if err := s.acquire(kind); err != nil {
		return Advice{}, err
	}
	defer s.release(kind)

	text, err := s.generateText(ctx, kind, req)
	if err != nil {
		log.Errorf("%s request failed: %v", kind, err)
		s.observe(kind, "fallback")
		return Advice{Text: fallback, Fallback: true}, nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		s.observe(kind, "fallback")
		return Advice{Text: fallback, Fallback: true}, nil
	}

	if s.state.Generation() == gen {
		s.cache.Set(kind, key, []byte(text))
		s.observe(kind, "ok")
	} else {
		s.observe(kind, "stale")
	}
	return Advice{Text: text}, nil
}

// Workout asks for a structured dryland plan. An unusable answer is an empty plan.
func (s *CoachService) Workout(ctx context.Context, goal string) (WorkoutPlan, error) {
	goal, ok := MatchGoal(goal, DrylandGoals)
	if !ok {
		return WorkoutPlan{}, ErrUnknownGoal
	}
	snap, gen, err := s.onboardedView()
	if err != nil {
		return WorkoutPlan{}, err
	}

	key := AdviceKey(RequestWorkout, goal, snap.Profile)
	if cached, ok := s.cache.Get(RequestWorkout, key); ok {
		var exercises []store.DrylandExercise
		if err := json.Unmarshal(cached, &exercises); err == nil {
			return WorkoutPlan{Goal: goal, Exercises: exercises, Cached: true}, nil
		}
	}

	if err := s.acquire(RequestWorkout); err != nil {
		return WorkoutPlan{}, err
	}
	defer s.release(RequestWorkout)

	start := time.Now()
	raw, err := s.generator.GenerateStructured(ctx, StructuredRequest{
		Prompt: BuildWorkoutPrompt(*snap.Profile, goal),
		Schema: WorkoutSchema(),
	})
	s.observeDuration(RequestWorkout, start)
	if err != nil {
		log.Errorf("Workout request failed: %v", err)
		s.observe(RequestWorkout, "fallback")
		return WorkoutPlan{Goal: goal, Exercises: []store.DrylandExercise{}, Fallback: true}, nil
	}

	exercises := ParseWorkout(raw)
	if len(exercises) == 0 {
		s.observe(RequestWorkout, "fallback")
		return WorkoutPlan{Goal: goal, Exercises: exercises, Fallback: true}, nil
	}
	if s.state.Generation() == gen {
		if b, err := json.Marshal(exercises); err == nil {
			s.cache.Set(RequestWorkout, key, b)
		}
		s.observe(RequestWorkout, "ok")
	} else {
		s.observe(RequestWorkout, "stale")
	}
	return WorkoutPlan{Goal: goal, Exercises: exercises}, nil
}

// SessionFeedback is the one-liner shown after logging a swim. It never fails:
// a busy or failing coach yields the canned compliment.
func (s *CoachService) SessionFeedback(ctx context.Context, sess store.Session) Advice {
	snap, _, err := s.onboardedView()
	if err != nil {
		return Advice{Text: FallbackFeedback, Fallback: true}
	}
	if err := s.acquire(RequestFeedback); err != nil {
		return Advice{Text: FallbackFeedback, Fallback: true}
	}
	defer s.release(RequestFeedback)

	text, err := s.generateText(ctx, RequestFeedback, TextRequest{
		Prompt: BuildSessionFeedbackPrompt(*snap.Profile, sess),
	})
	if err != nil {
		log.Errorf("Session feedback failed: %v", err)
		s.observe(RequestFeedback, "fallback")
		return Advice{Text: FallbackFeedback, Fallback: true}
	}
	s.observe(RequestFeedback, "ok")
	text = strings.TrimSpace(text)
	return Advice{Text: TextOrDefault(text, FallbackFeedback), Fallback: text == ""}
}

func (s *CoachService) observe(kind RequestKind, result string) {
	if s.metrics != nil {
		s.metrics.CounterCoachRequests.WithLabelValues(string(kind), result).Inc()
	}
}

func (s *CoachService) observeDuration(kind RequestKind, start time.Time) {
	if s.metrics != nil {
		s.metrics.HistCoachDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	}
}
