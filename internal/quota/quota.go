package quota

import (
	"time"

	"sophia_companion_go_backend/internal/models"
)

// Limits is the slice of settings the guard consumes: the free-tier cap
// and the canned rejection copy.
type Limits struct {
	FreeMessageLimit int
	LimitMessage     string
}

// LimitsFrom extracts the guard's view of the settings singleton.
func LimitsFrom(settings *models.Settings) Limits {
	return Limits{
		FreeMessageLimit: settings.FreeMessageLimit,
		LimitMessage:     settings.LimitMessage,
	}
}

// Verdict is the guard's decision for one message. When ShouldIncrement is
// set the caller must commit the increment through the store's atomic
// consume before generating a reply.
type Verdict struct {
	Allow           bool
	ShouldIncrement bool
	RejectionText   string
}

// Evaluate decides whether a chat exchange is allowed. It is a pure
// function over (user, limits); a nil user is an anonymous guest. It must
// run before the response generator so a rejection never wastes a
// generation call.
func Evaluate(user *models.User, limits Limits) Verdict {
	if user == nil {
		// Guests are not metered here; throttling anonymous traffic is the
		// transport layer's problem.
		return Verdict{Allow: true}
	}
	if user.IsAdmin {
		return Verdict{Allow: true}
	}
	if user.Entitled(time.Now()) {
		return Verdict{Allow: true}
	}
	if user.MessageCount < limits.FreeMessageLimit {
		return Verdict{Allow: true, ShouldIncrement: true}
	}
	return Verdict{RejectionText: limits.LimitMessage}
}

// Rejection converts an allowed-but-unconsumable verdict into the
// rejection outcome. Used when the atomic consume loses a race.
func Rejection(limits Limits) Verdict {
	return Verdict{RejectionText: limits.LimitMessage}
}

// PlatformLimits is the external-channel policy inputs for one platform.
type PlatformLimits struct {
	MessageLimit    int
	RedirectMessage string
}

// PlatformLimitsFor picks the per-platform cap and redirect copy.
func PlatformLimitsFor(settings *models.Settings, platform string) PlatformLimits {
	switch platform {
	case "instagram":
		return PlatformLimits{
			MessageLimit:    settings.InstagramMessageLimit,
			RedirectMessage: settings.InstagramRedirectMessage,
		}
	default:
		return PlatformLimits{
			MessageLimit:    settings.TelegramMessageLimit,
			RedirectMessage: settings.TelegramRedirectMessage,
		}
	}
}

// EvaluatePlatform applies the bridge policy: the caller has already reset
// the user's counter for this contact, so count is the post-reset value
// checked against the per-platform limit. This is a distinct policy from
// the free-tier guard, not a variant of it.
func EvaluatePlatform(user *models.User, count int, limits PlatformLimits) Verdict {
	if user.IsAdmin || user.IsPaid {
		return Verdict{Allow: true}
	}
	if count >= limits.MessageLimit {
		return Verdict{RejectionText: limits.RedirectMessage}
	}
	return Verdict{Allow: true, ShouldIncrement: true}
}
