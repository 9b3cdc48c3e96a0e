package api

import (
	"net/http"

	"github.com/vporoshok/taskping/internal/api/shared"
	"github.com/vporoshok/taskping/internal/service"
)

// BotHandler handles requests made by the Telegram bot service.
type BotHandler struct {
	userService service.UserService
}

// NewBotHandler creates a new BotHandler with the given dependencies.
func NewBotHandler(userService service.UserService) *BotHandler {
	return &BotHandler{userService: userService}
}

// RegisterUser handles the /api/bot/register endpoint: the bot announces
// a Telegram account and gets back the matching user, creating one on
// first contact. Idempotent.
func (h *BotHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req BotRegisterRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, created, err := h.userService.RegisterTelegram(r.Context(), req.TelegramUserID, req.Username)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	shared.RespondWithJSON(w, r, status, BotRegisterResponse{
		UserID:         user.ID,
		TelegramUserID: req.TelegramUserID,
		IsNew:          created,
	})
}
