package handlers

import (
	"net/http"

	"github.com/saumyabaranwal/campus-connect/internal/models"
)

// GetConversation handles GET /api/messages/{userId}/{otherUserId}. The
// result is the full message history between the pair in chronological
// order, and always an array, never null.
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID, err := urlParamInt(r, "userId")
	if err != nil {
		h.JSON(w, http.StatusOK, []models.Message{})
		return
	}
	otherID, err := urlParamInt(r, "otherUserId")
	if err != nil {
		h.JSON(w, http.StatusOK, []models.Message{})
		return
	}

	msgs, err := h.store.ConversationBetween(r.Context(), userID, otherID)
	if err != nil {
		h.log.Error().Err(err).Msg("conversation fetch failed")
		h.Error(w, http.StatusInternalServerError, "Server error")
		return
	}

	if msgs == nil {
		msgs = []models.Message{}
	}
	h.JSON(w, http.StatusOK, msgs)
}

// GetConversations handles GET /api/conversations/{userId}: one summary per
// counterpart the user has ever exchanged messages with.
func (h *Handler) GetConversations(w http.ResponseWriter, r *http.Request) {
	userID, err := urlParamInt(r, "userId")
	if err != nil {
		h.JSON(w, http.StatusOK, []models.ConversationSummary{})
		return
	}

	convs, err := h.convs.ConversationsFor(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("conversations fetch failed")
		h.Error(w, http.StatusInternalServerError, "Server error")
		return
	}

	if convs == nil {
		convs = []models.ConversationSummary{}
	}
	h.JSON(w, http.StatusOK, convs)
}
