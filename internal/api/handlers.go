package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/adwikanair2008-hue/swim-flow/internal/apperr"
	"github.com/adwikanair2008-hue/swim-flow/internal/core"
	"github.com/adwikanair2008-hue/swim-flow/internal/metrics"
	"github.com/adwikanair2008-hue/swim-flow/internal/state"
	"github.com/adwikanair2008-hue/swim-flow/internal/stats"
	"github.com/adwikanair2008-hue/swim-flow/internal/store"
	"github.com/adwikanair2008-hue/swim-flow/internal/utils"
)

const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 32 << 20

	dashboardRecentSessions = 4
)

type Services struct {
	State     *state.Container
	Snapshots *store.SnapshotStore
	Saver     *state.Saver
	Coach     *core.CoachService
	Advice    *core.AdviceCache
	Metrics   *metrics.Manager
	// Now defaults to time.Now.
	Now func() time.Time
}

type APIHandler struct {
	state     *state.Container
	snapshots *store.SnapshotStore
	saver     *state.Saver
	coach     *core.CoachService
	advice    *core.AdviceCache
	metrics   *metrics.Manager
	now       func() time.Time
}

func NewAPIHandler(svc Services) *APIHandler {
	now := svc.Now
	if now == nil {
		now = time.Now
	}
	return &APIHandler{
		state:     svc.State,
		snapshots: svc.Snapshots,
		saver:     svc.Saver,
		coach:     svc.Coach,
		advice:    svc.Advice,
		metrics:   svc.Metrics,
		now:       now,
	}
}

// OnboardedMiddleware rejects requests until a profile has been onboarded.
func (h *APIHandler) OnboardedMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := h.state.Snapshot()
		if snap.NeedsOnboarding() {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "onboarding required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Failed to write response: %v", err)
	}
}

// writeError maps service errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, core.ErrRequestInFlight),
		errors.Is(err, core.ErrOnboardingRequired),
		errors.Is(err, core.ErrStateChanged):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, core.ErrEmptyMessage), errors.Is(err, core.ErrUnknownGoal):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperr.ErrInvalidImportFormat):
		status, msg = http.StatusBadRequest, "invalid import file: "+apperr.Reason(err)
	case errors.Is(err, apperr.ErrStorageUnavailable):
		status, msg = http.StatusServiceUnavailable, "storage unavailable"
	}
	if status >= http.StatusInternalServerError {
		log.Errorf("Request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type StateResponse struct {
	store.Snapshot
	NeedsOnboarding bool `json:"needsOnboarding"`
}

func (h *APIHandler) GetStateHandler(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	writeJSON(w, http.StatusOK, StateResponse{Snapshot: snap, NeedsOnboarding: snap.NeedsOnboarding()})
}

type ProfileRequest struct {
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Age            int      `json:"age"`
	Gender         string   `json:"gender"`
	SwimmingLevel  string   `json:"swimmingLevel"`
	Weight         float64  `json:"weight"`
	Height         float64  `json:"height"`
	TargetWeight   *float64 `json:"targetWeight,omitempty"`
	ProfilePicture string   `json:"profilePicture,omitempty"`
	Password       *string  `json:"password,omitempty"`
}

type ProfileResponse struct {
	Profile   store.Profile `json:"profile"`
	BMI       float64       `json:"bmi"`
	BMIStatus string        `json:"bmiStatus"`
}

// PutProfileHandler completes onboarding or replaces the profile after an edit.
func (h *APIHandler) PutProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Password != nil {
		log.Warn("Ignoring password in profile request; credentials are not stored")
	}

	profile := store.Profile{
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.TrimSpace(req.Email),
		Age:            req.Age,
		Gender:         store.ParseGender(req.Gender),
		SwimmingLevel:  store.ParseLevel(req.SwimmingLevel),
		IsOnboarded:    true,
		Weight:         req.Weight,
		Height:         req.Height,
		TargetWeight:   req.TargetWeight,
		ProfilePicture: req.ProfilePicture,
	}
	if profile.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name is required"})
		return
	}
	if err := profile.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	snap := h.state.Dispatch(state.SetProfile{Profile: profile})
	writeJSON(w, http.StatusOK, profileResponse(*snap.Profile))
}

func profileResponse(p store.Profile) ProfileResponse {
	bmi := core.BMI(&p)
	return ProfileResponse{Profile: p, BMI: bmi, BMIStatus: core.BMIStatus(bmi)}
}

func (h *APIHandler) GetBMIHandler(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	if snap.Profile == nil {
		writeError(w, core.ErrOnboardingRequired)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse(*snap.Profile))
}

type SessionView struct {
	store.Session
	// Pace is null when it cannot be computed.
	Pace *float64 `json:"pace"`
}

func sessionViews(sessions []store.Session) []SessionView {
	views := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		v := SessionView{Session: s}
		if pace, err := stats.Pace(s.Distance, s.Time); err != nil {
			log.Errorf("Session %s has no pace: %v", s.ID, err)
		} else {
			rounded := utils.Round1(pace)
			v.Pace = &rounded
		}
		views = append(views, v)
	}
	return views
}

func (h *APIHandler) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	writeJSON(w, http.StatusOK, sessionViews(stats.RecentSessions(snap.Sessions, -1)))
}

type SessionRequest struct {
	Date     string `json:"date"`
	Stroke   string `json:"stroke"`
	Distance int    `json:"distance"`
	Time     int    `json:"time"`
	Feeling  string `json:"feeling"`
	Notes    string `json:"notes"`
}

type CreateSessionResponse struct {
	Session  SessionView `json:"session"`
	Feedback core.Advice `json:"feedback"`
}

func (h *APIHandler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var date store.Date
	if strings.TrimSpace(req.Date) == "" {
		y, m, d := h.now().Date()
		date = store.NewDate(y, m, d)
	} else {
		parsed, err := store.ParseDate(strings.TrimSpace(req.Date))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		date = parsed
	}

	sess := store.Session{
		ID:       store.NewSessionID(),
		Date:     date,
		Stroke:   store.ParseStroke(req.Stroke),
		Distance: req.Distance,
		Time:     req.Time,
		Feeling:  store.ParseFeeling(req.Feeling),
		Notes:    strings.TrimSpace(req.Notes),
	}
	if err := sess.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	h.state.Dispatch(state.AddSession{Session: sess})
	if h.metrics != nil {
		h.metrics.CounterSessions.Inc()
	}

	feedback := h.coach.SessionFeedback(r.Context(), sess)
	writeJSON(w, http.StatusCreated, CreateSessionResponse{
		Session:  sessionViews([]store.Session{sess})[0],
		Feedback: feedback,
	})
}

type DashboardResponse struct {
	TotalDistance  int              `json:"totalDistance"`
	SessionCount   int              `json:"sessionCount"`
	Weekly         stats.Comparison `json:"weekly"`
	RecentSessions []SessionView    `json:"recentSessions"`
	BMI            float64          `json:"bmi"`
}

func (h *APIHandler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	writeJSON(w, http.StatusOK, DashboardResponse{
		TotalDistance:  stats.TotalDistance(snap.Sessions),
		SessionCount:   stats.SessionCount(snap.Sessions),
		Weekly:         stats.WeeklyComparison(snap.Sessions, h.now()),
		RecentSessions: sessionViews(stats.RecentSessions(snap.Sessions, dashboardRecentSessions)),
		BMI:            core.BMI(snap.Profile),
	})
}

type ProgressResponse struct {
	// Pace is null when some session has no computable pace.
	Pace         []stats.PacePoint  `json:"pace"`
	PaceError    string             `json:"paceError,omitempty"`
	WeeklyVolume []stats.WeekVolume `json:"weeklyVolume"`
}

func (h *APIHandler) ProgressHandler(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	resp := ProgressResponse{WeeklyVolume: stats.WeeklyVolumeSeries(snap.Sessions)}

	points, err := stats.PaceSeries(snap.Sessions)
	if err != nil {
		log.Errorf("Pace series unavailable: %v", err)
		resp.PaceError = apperr.Reason(err)
	} else {
		for i := range points {
			points[i].Pace = utils.Round1(points[i].Pace)
		}
		resp.Pace = points
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) InsightsHandler(w http.ResponseWriter, r *http.Request) {
	advice, err := h.coach.Insights(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, advice)
}

func (h *APIHandler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.state.Snapshot().ChatHistory)
}

type PostMessageRequest struct {
	Text string `json:"text"`
}

type PostMessageResponse struct {
	Reply   store.ChatMessage   `json:"reply"`
	History []store.ChatMessage `json:"history"`
}

func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req PostMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	reply, err := h.coach.SendMessage(r.Context(), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PostMessageResponse{Reply: reply, History: h.state.Snapshot().ChatHistory})
}

type NutritionRequest struct {
	Goal         string   `json:"goal"`
	TargetWeight *float64 `json:"targetWeight,omitempty"`
}

func (h *APIHandler) NutritionHandler(w http.ResponseWriter, r *http.Request) {
	var req NutritionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Goal == "" {
		req.Goal = core.NutritionGoals[0]
	}

	advice, err := h.coach.Nutrition(r.Context(), req.Goal, req.TargetWeight)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, advice)
}

type DrylandRequest struct {
	Goal string `json:"goal"`
}

func (h *APIHandler) DrylandsHandler(w http.ResponseWriter, r *http.Request) {
	var req DrylandRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Goal == "" {
		req.Goal = core.DrylandGoals[0]
	}

	plan, err := h.coach.Workout(r.Context(), req.Goal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

type TabRequest struct {
	Tab string `json:"tab"`
}

func (h *APIHandler) PutTabHandler(w http.ResponseWriter, r *http.Request) {
	var req TabRequest
	if !decodeBody(w, r, &req) {
		return
	}
	snap := h.state.Dispatch(state.SetActiveTab{Tab: store.Tab(req.Tab)})
	writeJSON(w, http.StatusOK, map[string]store.Tab{"activeTab": snap.ActiveTab})
}

func (h *APIHandler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	data, filename, err := h.snapshots.Export(h.state.Snapshot())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Errorf("Failed to write export: %v", err)
	}
}

// ImportHandler replaces all state with an uploaded backup and saves it at once.
func (h *APIHandler) ImportHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Import(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, err)
		return
	}

	next := h.state.Dispatch(state.ReplaceAll{Snapshot: snap})
	if err := h.saver.Flush(r.Context()); err != nil {
		// state is replaced in memory; the saver retries on the next change
		log.Errorf("Imported data could not be saved yet: %v", err)
	}
	log.Infof("Imported %d sessions", len(next.Sessions))
	writeJSON(w, http.StatusOK, StateResponse{Snapshot: next, NeedsOnboarding: next.NeedsOnboarding()})
}

// WipeHandler deletes everything. The caller must pass confirm=true.
func (h *APIHandler) WipeHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "pass confirm=true to delete all data"})
		return
	}

	h.state.Dispatch(state.Reset{})
	if err := h.saver.Paused(func() error { return h.snapshots.Wipe(r.Context()) }); err != nil {
		writeError(w, err)
		return
	}
	h.advice.Clear()
	w.WriteHeader(http.StatusNoContent)
}
