package ai

import (
	"context"
	"math/rand"
	"strings"
)

// Turn is one prior exchange turn handed to the provider as context.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// Request carries everything a provider needs for one generation. History
// is empty for free and guest callers; the caller decides that, not the
// adapter.
type Request struct {
	Prompt  string
	History []Turn
	Persona string
	Model   string
}

// Generator produces a reply for a prompt plus bounded context. Adapters
// convert provider failures into human-readable fallback text instead of
// surfacing transport errors; a non-nil error is reserved for context
// cancellation and programming mistakes.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ConnectivityFallback is returned when a configured provider cannot be
// reached or rejects the call.
const ConnectivityFallback = "I'm having trouble connecting to my AI services. Please check your API key in the admin panel or try again later."

// configFallbacks are returned when no provider credential is configured
// at all. Distinct from ConnectivityFallback so operators can tell an
// unconfigured deployment from a flaky provider.
var configFallbacks = []string{
	"I need to connect to my AI services. Please add an API key in the admin panel.",
	"To enable my full conversational abilities, please add your API key in the admin panel.",
	"I'm waiting to connect to my AI provider. Please configure your API key in the admin panel.",
	"My AI services aren't fully configured yet. Please add your API key in the admin panel settings.",
}

// ConfigFallback picks one of the configuration-prompt replies.
func ConfigFallback() string {
	return configFallbacks[rand.Intn(len(configFallbacks))]
}

var explicitKeywords = []string{
	"sex", "naked", "nude", "explicit", "intimate", "fantasy",
	"bedroom", "nsfw", "adult", "erotic", "sensual",
}

var generalKeywords = []string{
	"hello", "hi", "how are you", "weather", "day", "life",
	"talk", "chat", "friend", "advice", "help", "question",
}

// selectModel routes the conversation to the model best suited for its
// content, falling back to the configured default when nothing matches.
func selectModel(req Request, defaultModel string) string {
	var recent strings.Builder
	recent.WriteString(req.Prompt)
	history := req.History
	if len(history) > 5 {
		history = history[len(history)-5:]
	}
	for _, turn := range history {
		recent.WriteString(" ")
		recent.WriteString(turn.Content)
	}
	combined := strings.ToLower(recent.String())

	for _, keyword := range explicitKeywords {
		if strings.Contains(combined, keyword) {
			return "MythoMax-L2"
		}
	}
	for _, keyword := range generalKeywords {
		if strings.Contains(combined, keyword) {
			return "Deepseek-Chat-7B-NSFW"
		}
	}
	if defaultModel != "" {
		return defaultModel
	}
	return "OpenHermes-2.5-Mistral"
}
