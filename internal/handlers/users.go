package handlers

import (
	"net/http"

	"github.com/saumyabaranwal/campus-connect/internal/apperr"
	"github.com/saumyabaranwal/campus-connect/internal/models"
)

// GetUser handles GET /api/users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "id")
	if err != nil {
		h.ErrorFrom(w, apperr.NotFound("User not found"))
		return
	}

	user, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", id).Msg("get user failed")
		h.Error(w, http.StatusInternalServerError, "Server error")
		return
	}
	if user == nil {
		h.ErrorFrom(w, apperr.NotFound("User not found"))
		return
	}

	h.JSON(w, http.StatusOK, user.Public())
}

// GetUserListings handles GET /api/users/{id}/listings. An unknown user id
// yields an empty array, not 404, matching the original endpoint.
func (h *Handler) GetUserListings(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "id")
	if err != nil {
		h.JSON(w, http.StatusOK, []models.Listing{})
		return
	}

	listings, err := h.store.ListingsBySeller(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", id).Msg("user listings failed")
		h.Error(w, http.StatusInternalServerError, "Server error")
		return
	}

	if listings == nil {
		listings = []models.Listing{}
	}
	h.JSON(w, http.StatusOK, listings)
}
