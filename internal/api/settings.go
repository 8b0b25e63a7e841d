package api

import (
	"net/http"

	apperrors "sophia_companion_go_backend/internal/errors"
	"sophia_companion_go_backend/internal/storage"

	"github.com/gin-gonic/gin"
)

type settingsPatch struct {
	AIModel                  *string `json:"aiModel"`
	PersonaPrompt            *string `json:"personaPrompt"`
	FreeMessageLimit         *int    `json:"freeMessageLimit"`
	LimitMessage             *string `json:"limitMessage"`
	TelegramMessageLimit     *int    `json:"telegramMessageLimit"`
	TelegramRedirectMessage  *string `json:"telegramRedirectMessage"`
	InstagramMessageLimit    *int    `json:"instagramMessageLimit"`
	InstagramRedirectMessage *string `json:"instagramRedirectMessage"`
}

func (p *settingsPatch) updates() map[string]interface{} {
	updates := make(map[string]interface{})
	if p.AIModel != nil {
		updates["ai_model"] = *p.AIModel
	}
	if p.PersonaPrompt != nil {
		updates["persona_prompt"] = *p.PersonaPrompt
	}
	if p.FreeMessageLimit != nil {
		updates["free_message_limit"] = *p.FreeMessageLimit
	}
	if p.LimitMessage != nil {
		updates["limit_message"] = *p.LimitMessage
	}
	if p.TelegramMessageLimit != nil {
		updates["telegram_message_limit"] = *p.TelegramMessageLimit
	}
	if p.TelegramRedirectMessage != nil {
		updates["telegram_redirect_message"] = *p.TelegramRedirectMessage
	}
	if p.InstagramMessageLimit != nil {
		updates["instagram_message_limit"] = *p.InstagramMessageLimit
	}
	if p.InstagramRedirectMessage != nil {
		updates["instagram_redirect_message"] = *p.InstagramRedirectMessage
	}
	return updates
}

func getSettingsHandler(store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := store.GetSettings()
		if err != nil {
			apperrors.HandleError(c, apperrors.New500Error("Error fetching settings", err))
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

func patchSettingsHandler(store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch settingsPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}
		updates := patch.updates()
		if len(updates) == 0 {
			apperrors.HandleError(c, apperrors.New400Error("No settings fields provided"))
			return
		}
		settings, err := store.UpdateSettings(updates)
		if err != nil {
			apperrors.HandleError(c, apperrors.New500Error("Error updating settings", err))
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}
