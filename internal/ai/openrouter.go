package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const openRouterEndpoint = "https://openrouter.ai/api/v1/chat/completions"

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterRequest struct {
	Model       string              `json:"model"`
	Messages    []openRouterMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type openRouterResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// OpenRouterGenerator calls the OpenRouter chat-completions API.
type OpenRouterGenerator struct {
	apiKey  string
	referer string
	client  *http.Client
	log     zerolog.Logger
}

func NewOpenRouterGenerator(apiKey, referer string, logger zerolog.Logger) *OpenRouterGenerator {
	return &OpenRouterGenerator{
		apiKey:  apiKey,
		referer: referer,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     logger,
	}
}

func (g *OpenRouterGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if g.apiKey == "" {
		g.log.Warn().Msg("no OpenRouter API key configured, returning configuration prompt")
		return ConfigFallback(), nil
	}

	messages := []openRouterMessage{{Role: "system", Content: req.Persona}}
	for _, turn := range req.History {
		messages = append(messages, openRouterMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, openRouterMessage{Role: "user", Content: req.Prompt})

	body := openRouterRequest{
		Model:       selectModel(req, req.Model),
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   150,
	}

	reply, err := g.post(ctx, body)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		g.log.Error().Err(err).Str("model", body.Model).Msg("OpenRouter call failed")
		return ConnectivityFallback, nil
	}
	return reply, nil
}

func (g *OpenRouterGenerator) post(ctx context.Context, body openRouterRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, openRouterEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("HTTP-Referer", g.referer)
	httpReq.Header.Set("X-Title", "Sophia AI Companion")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openrouter returned status %d", resp.StatusCode)
	}

	var decoded openRouterResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("openrouter returned no choices")
	}
	return decoded.Choices[0].Message.Content, nil
}
