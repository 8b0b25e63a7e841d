package ai

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectModel(t *testing.T) {
	t.Run("Explicit content routes to the uncensored model", func(t *testing.T) {
		req := Request{Prompt: "tell me something explicit"}

		assert.Equal(t, "MythoMax-L2", selectModel(req, "Configured-Default"))
	})

	t.Run("Explicit keywords in recent history also route", func(t *testing.T) {
		req := Request{
			Prompt: "and then what",
			History: []Turn{
				{Role: "user", Content: "let's talk about the bedroom"},
			},
		}

		assert.Equal(t, "MythoMax-L2", selectModel(req, ""))
	})

	t.Run("Only the last five history turns are considered", func(t *testing.T) {
		history := []Turn{{Role: "user", Content: "something nsfw"}}
		for i := 0; i < 5; i++ {
			history = append(history, Turn{Role: "assistant", Content: "mm"})
		}
		req := Request{Prompt: "ok", History: history}

		assert.Equal(t, "Configured-Default", selectModel(req, "Configured-Default"))
	})

	t.Run("Casual conversation routes to the chat model", func(t *testing.T) {
		req := Request{Prompt: "hello, how was your day?"}

		assert.Equal(t, "Deepseek-Chat-7B-NSFW", selectModel(req, ""))
	})

	t.Run("Unmatched content uses the configured default", func(t *testing.T) {
		req := Request{Prompt: "quantum entanglement"}

		assert.Equal(t, "Configured-Default", selectModel(req, "Configured-Default"))
	})

	t.Run("Unmatched content without a default uses the built-in model", func(t *testing.T) {
		req := Request{Prompt: "quantum entanglement"}

		assert.Equal(t, "OpenHermes-2.5-Mistral", selectModel(req, ""))
	})

	t.Run("Matching is case-insensitive", func(t *testing.T) {
		req := Request{Prompt: "HELLO there"}

		assert.Equal(t, "Deepseek-Chat-7B-NSFW", selectModel(req, ""))
	})
}

func TestConfigFallback(t *testing.T) {
	t.Run("Always returns one of the configuration prompts", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			assert.Contains(t, configFallbacks, ConfigFallback())
		}
	})
}

func TestOpenRouterGeneratorWithoutKey(t *testing.T) {
	t.Run("Missing credential yields a configuration prompt, not an error", func(t *testing.T) {
		// Setup
		gen := NewOpenRouterGenerator("", "https://example.com", zerolog.Nop())

		// Execute
		reply, err := gen.Generate(context.Background(), Request{Prompt: "hi"})

		// Assert
		require.NoError(t, err)
		assert.Contains(t, configFallbacks, reply)
	})
}
