package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// GeminiGenerator uses Google AI Studio as the response provider. The
// persona goes in as a system instruction; prior turns become chat
// history with the assistant side mapped to the "model" role.
type GeminiGenerator struct {
	client    *genai.Client
	modelName string
	log       zerolog.Logger
}

func NewGeminiGenerator(ctx context.Context, apiKey, modelName string, logger zerolog.Logger) (*GeminiGenerator, error) {
	if apiKey == "" {
		return &GeminiGenerator{modelName: modelName, log: logger}, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiGenerator{client: client, modelName: modelName, log: logger}, nil
}

func (g *GeminiGenerator) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if g.client == nil {
		g.log.Warn().Msg("no Gemini API key configured, returning configuration prompt")
		return ConfigFallback(), nil
	}

	model := g.client.GenerativeModel(g.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(req.Persona)},
	}

	session := model.StartChat()
	for _, turn := range req.History {
		role := "user"
		if turn.Role == "assistant" {
			role = "model"
		}
		session.History = append(session.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}

	resp, err := session.SendMessage(ctx, genai.Text(req.Prompt))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		g.log.Error().Err(err).Str("model", g.modelName).Msg("Gemini call failed")
		return ConnectivityFallback, nil
	}

	var out strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out.WriteString(string(text))
			}
		}
	}
	if out.Len() == 0 {
		g.log.Error().Str("model", g.modelName).Msg("Gemini returned an empty candidate")
		return ConnectivityFallback, nil
	}
	return out.String(), nil
}
