package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/adwikanair2008-hue/swim-flow/internal/apperr"
	"github.com/adwikanair2008-hue/swim-flow/internal/store"
)

const (
	DefaultChatModelName    = "gemini-1.5-flash-latest"
	DefaultWorkoutModelName = "gemini-1.5-pro-latest"
)

// Sampling overrides the model's generation defaults. Zero fields are left unset.
type Sampling struct {
	Temperature float32
	TopK        int32
	TopP        float32
}

// CoachSampling is what the conversational coach runs with.
var CoachSampling = Sampling{Temperature: 0.7, TopK: 40, TopP: 0.95}

type TextRequest struct {
	Prompt   string
	History  []store.ChatMessage
	Sampling Sampling
}

type StructuredRequest struct {
	Prompt string
	Schema *genai.Schema
}

// Generator is the outbound model boundary. Implementations return errors of
// kind LLMRequestFailed; callers decide on fallbacks.
type Generator interface {
	GenerateText(ctx context.Context, req TextRequest) (string, error)
	GenerateStructured(ctx context.Context, req StructuredRequest) (string, error)
}

type LLMService struct {
	client       *genai.Client
	chatModel    string
	workoutModel string
}

func NewLLMService(ctx context.Context, apiKey, chatModel, workoutModel string) (*LLMService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if chatModel == "" {
		chatModel = DefaultChatModelName
	}
	if workoutModel == "" {
		workoutModel = DefaultWorkoutModelName
	}
	return &LLMService{
		client:       client,
		chatModel:    chatModel,
		workoutModel: workoutModel,
	}, nil
}

func (s *LLMService) Close() error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("error closing GenAI client: %w", err)
	}
	log.Debug("GenAI client closed.")
	return nil
}

func (s *LLMService) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	model := s.client.GenerativeModel(s.chatModel)
	applySampling(model, req.Sampling)

	var (
		resp *genai.GenerateContentResponse
		err  error
	)
	if len(req.History) > 0 {
		chatSession := model.StartChat()
		chatSession.History = toContents(req.History)
		resp, err = chatSession.SendMessage(ctx, genai.Text(req.Prompt))
	} else {
		resp, err = model.GenerateContent(ctx, genai.Text(req.Prompt))
	}
	if err != nil {
		return "", apperr.Wrap(apperr.KindLLMRequestFailed, "generate text", err)
	}
	return responseText(resp), nil
}

func (s *LLMService) GenerateStructured(ctx context.Context, req StructuredRequest) (string, error) {
	model := s.client.GenerativeModel(s.workoutModel)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = req.Schema

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", apperr.Wrap(apperr.KindLLMRequestFailed, "generate structured", err)
	}
	return responseText(resp), nil
}

func applySampling(model *genai.GenerativeModel, s Sampling) {
	if s.Temperature > 0 {
		model.SetTemperature(s.Temperature)
	}
	if s.TopK > 0 {
		model.SetTopK(s.TopK)
	}
	if s.TopP > 0 {
		model.SetTopP(s.TopP)
	}
}

func toContents(history []store.ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		contents = append(contents, &genai.Content{
			Role:  string(m.Role),
			Parts: []genai.Part{genai.Text(m.Text)},
		})
	}
	return contents
}

// responseText joins the text parts of the first candidate. An empty result is
// not an error; callers substitute their fallback.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		log.Warn("Gemini response was empty or had no valid candidates.")
		return ""
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		} else {
			log.Debugf("Gemini response part was not text: %T", part)
		}
	}
	return text.String()
}
