package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/saumyabaranwal/campus-connect/internal/apperr"
	"github.com/saumyabaranwal/campus-connect/internal/metrics"
	"github.com/saumyabaranwal/campus-connect/internal/models"
	"github.com/saumyabaranwal/campus-connect/internal/store"
)

// CreateListingRequest is the POST /api/listings body. Seller display
// fields are ignored if sent; they are denormalized from the directory.
type CreateListingRequest struct {
	Title          string   `json:"title" validate:"required,max=200"`
	Description    string   `json:"description" validate:"max=5000"`
	Price          float64  `json:"price" validate:"gte=0"`
	Category       string   `json:"category" validate:"required,max=50"`
	Type           string   `json:"type"`
	Urgency        string   `json:"urgency"`
	Location       string   `json:"location"`
	Availability   string   `json:"availability"`
	Images         []string `json:"images"`
	SellerID       int64    `json:"sellerId" validate:"required,gt=0"`
	RelatedCourses []string `json:"relatedCourses"`
}

// CreateListingResponse wraps the stored listing.
type CreateListingResponse struct {
	Success bool           `json:"success"`
	Listing models.Listing `json:"listing"`
}

// ListListings handles GET /api/listings with optional category and search
// query parameters.
func (h *Handler) ListListings(w http.ResponseWriter, r *http.Request) {
	filter := store.ListingFilter{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
	}

	listings, err := h.store.ListListings(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("list listings failed")
		h.Error(w, http.StatusInternalServerError, "Server error")
		return
	}

	if listings == nil {
		listings = []models.Listing{}
	}
	h.JSON(w, http.StatusOK, listings)
}

// GetListing handles GET /api/listings/{id}.
func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "id")
	if err != nil {
		h.ErrorFrom(w, apperr.NotFound("Listing not found"))
		return
	}

	listing, err := h.store.GetListing(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("listing_id", id).Msg("get listing failed")
		h.Error(w, http.StatusInternalServerError, "Server error")
		return
	}
	if listing == nil {
		h.ErrorFrom(w, apperr.NotFound("Listing not found"))
		return
	}

	h.JSON(w, http.StatusOK, listing)
}

// CreateListing handles POST /api/listings.
func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.Fail(w, http.StatusBadRequest, "title, category and a valid sellerId are required")
		return
	}

	seller, err := h.store.GetUserByID(r.Context(), req.SellerID)
	if err != nil {
		h.log.Error().Err(err).Msg("seller lookup failed")
		h.Fail(w, http.StatusInternalServerError, "Server error")
		return
	}
	if seller == nil {
		h.Fail(w, http.StatusBadRequest, "Unknown seller")
		return
	}

	listing := &models.Listing{
		Title:          req.Title,
		Description:    req.Description,
		Price:          req.Price,
		Category:       req.Category,
		Type:           req.Type,
		Urgency:        req.Urgency,
		Location:       req.Location,
		Availability:   req.Availability,
		Images:         lo.Ternary(req.Images != nil, req.Images, []string{}),
		SellerID:       seller.ID,
		SellerName:     seller.Name,
		SellerRating:   seller.Rating,
		SellerAvatar:   seller.Avatar,
		Status:         "active",
		PostedDate:     time.Now().Format("2006-01-02"),
		RelatedCourses: req.RelatedCourses,
	}

	created, err := h.store.CreateListing(r.Context(), listing)
	if err != nil {
		h.log.Error().Err(err).Msg("create listing failed")
		h.Fail(w, http.StatusInternalServerError, "Server error")
		return
	}

	metrics.ListingsCreated.Inc()
	h.log.Info().Int64("listing_id", created.ID).Int64("seller_id", seller.ID).Msg("listing created")
	h.JSON(w, http.StatusOK, CreateListingResponse{Success: true, Listing: *created})
}
