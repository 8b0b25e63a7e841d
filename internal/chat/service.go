package chat

import (
	"context"
	"errors"
	"time"

	"sophia_companion_go_backend/internal/ai"
	"sophia_companion_go_backend/internal/models"
	"sophia_companion_go_backend/internal/quota"
	"sophia_companion_go_backend/internal/storage"

	"github.com/rs/zerolog"
)

// ErrUserNotFound is returned when an authenticated id does not resolve to
// a stored user, e.g. an account deleted mid-session.
var ErrUserNotFound = errors.New("user not found")

// Service runs one chat turn end to end: persist the user message, apply
// the quota guard, generate a reply with bounded context, persist it. The
// live channel and the REST fallback both call into here, which is what
// keeps the two paths equivalent.
type Service struct {
	store           storage.Store
	generator       ai.Generator
	historyWindow   int
	generateTimeout time.Duration
	log             zerolog.Logger
}

func NewService(store storage.Store, generator ai.Generator, historyWindow int, generateTimeout time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		store:           store,
		generator:       generator,
		historyWindow:   historyWindow,
		generateTimeout: generateTimeout,
		log:             logger,
	}
}

// Turn is the persisted outcome of one exchange. Rejected marks a quota
// rejection; AIResponse then carries the canned rejection text so the
// transcript matches what the guard decided.
type Turn struct {
	Message    models.Message `json:"message"`
	AIResponse models.Message `json:"aiResponse"`
	Rejected   bool           `json:"-"`
}

// ProcessUserMessage handles a turn for an identified caller.
func (s *Service) ProcessUserMessage(ctx context.Context, userID uint, content string) (*Turn, error) {
	user, err := s.store.GetUser(userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	settings, err := s.store.GetSettings()
	if err != nil {
		return nil, err
	}

	userMsg := models.Message{UserID: &user.ID, Content: content, FromUser: true}
	if err := s.store.CreateMessage(&userMsg); err != nil {
		return nil, err
	}

	limits := quota.LimitsFrom(settings)
	verdict := quota.Evaluate(user, limits)
	if verdict.ShouldIncrement {
		// The increment commits before generation so a crash mid-turn can
		// never hand out an extra free message. Losing the consume race
		// turns into a rejection.
		allowed, err := s.store.TryConsumeQuota(user.ID, limits.FreeMessageLimit)
		if err != nil {
			return nil, err
		}
		if !allowed {
			verdict = quota.Rejection(limits)
		}
	}

	if !verdict.Allow {
		reply := models.Message{UserID: &user.ID, Content: verdict.RejectionText, FromUser: false}
		if err := s.store.CreateMessage(&reply); err != nil {
			return nil, err
		}
		return &Turn{Message: userMsg, AIResponse: reply, Rejected: true}, nil
	}

	req := ai.Request{
		Prompt:  content,
		Persona: settings.PersonaPrompt,
		Model:   settings.AIModel,
	}
	if req.Persona == "" {
		req.Persona = models.DefaultPersonaPrompt
	}
	// Only entitled users get multi-turn context in the prompt; memory is
	// part of the paid offering.
	if user.Entitled(time.Now()) {
		history, err := s.store.RecentMessages(user.ID, s.historyWindow)
		if err != nil {
			return nil, err
		}
		for _, msg := range history {
			role := "assistant"
			if msg.FromUser {
				role = "user"
			}
			req.History = append(req.History, ai.Turn{Role: role, Content: msg.Content})
		}
	}

	replyText := s.generate(ctx, req)
	reply := models.Message{UserID: &user.ID, Content: replyText, FromUser: false}
	if err := s.store.CreateMessage(&reply); err != nil {
		return nil, err
	}
	return &Turn{Message: userMsg, AIResponse: reply}, nil
}

// ProcessGuestMessage handles a turn for an anonymous caller: no quota, no
// account, no conversation context, messages persisted without an owner.
func (s *Service) ProcessGuestMessage(ctx context.Context, content string) (*Turn, error) {
	userMsg := models.Message{Content: content, FromUser: true}
	if err := s.store.CreateMessage(&userMsg); err != nil {
		return nil, err
	}

	settings, err := s.store.GetSettings()
	if err != nil {
		return nil, err
	}
	req := ai.Request{
		Prompt:  content,
		Persona: settings.PersonaPrompt,
		Model:   settings.AIModel,
	}
	if req.Persona == "" {
		req.Persona = models.DefaultPersonaPrompt
	}

	replyText := s.generate(ctx, req)
	reply := models.Message{Content: replyText, FromUser: false}
	if err := s.store.CreateMessage(&reply); err != nil {
		return nil, err
	}
	return &Turn{Message: userMsg, AIResponse: reply}, nil
}

// generate invokes the provider under a deadline. Any error left after the
// adapter's own fallback handling (timeouts included) becomes the
// connectivity fallback so the transcript stays paired.
func (s *Service) generate(ctx context.Context, req ai.Request) string {
	genCtx, cancel := context.WithTimeout(ctx, s.generateTimeout)
	defer cancel()

	replyText, err := s.generator.Generate(genCtx, req)
	if err != nil {
		s.log.Error().Err(err).Msg("response generation failed")
		return ai.ConnectivityFallback
	}
	return replyText
}
