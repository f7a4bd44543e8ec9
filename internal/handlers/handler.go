// Package handlers implements the HTTP API. Response shapes match the
// legacy Campus Connect frontend exactly, down to the {"success": bool}
// envelopes on auth and listing creation.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/saumyabaranwal/campus-connect/internal/apperr"
	"github.com/saumyabaranwal/campus-connect/internal/config"
	"github.com/saumyabaranwal/campus-connect/internal/conversations"
	"github.com/saumyabaranwal/campus-connect/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store    store.DataStore
	redis    *store.RedisStore
	convs    *conversations.Aggregator
	cfg      *config.Config
	log      zerolog.Logger
	validate *validator.Validate
}

// NewHandler creates a new Handler with the given stores.
func NewHandler(ds store.DataStore, redis *store.RedisStore, cfg *config.Config, log zerolog.Logger) *Handler {
	return &Handler{
		store:    ds,
		redis:    redis,
		convs:    conversations.New(ds),
		cfg:      cfg,
		log:      log.With().Str("component", "http").Logger(),
		validate: validator.New(),
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// Fail sends the {"success":false,"message":...} envelope used by the auth
// and listing-create endpoints.
func (h *Handler) Fail(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]interface{}{"success": false, "message": message})
}

// ErrorFrom maps a typed application error onto the {"error":...} envelope,
// deriving the HTTP status from its code.
func (h *Handler) ErrorFrom(w http.ResponseWriter, err error) {
	h.Error(w, statusOf(err), apperr.MessageOf(err))
}

// FailFrom maps a typed application error onto the success envelope.
func (h *Handler) FailFrom(w http.ResponseWriter, err error) {
	h.Fail(w, statusOf(err), apperr.MessageOf(err))
}

// statusOf maps application error codes to HTTP status codes. Causes never
// leak; only the AppError message reaches the client.
func statusOf(err error) int {
	switch apperr.CodeOf(err) {
	case apperr.CodeInvalidArgument, apperr.CodeAlreadyExists:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// urlParamInt parses a chi URL parameter as an id.
func urlParamInt(r *http.Request, name string) (int64, error) {
	n, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, apperr.InvalidArg("invalid " + name)
	}
	return n, nil
}

// domainsMessage renders the rejection message for off-campus email
// addresses from the configured domain list.
func (h *Handler) domainsMessage() string {
	domains := h.cfg.AllowedEmailDomains
	switch len(domains) {
	case 0:
		return "Signups are disabled"
	case 1:
		return "Only " + domains[0] + " email addresses are allowed"
	default:
		return "Only " + strings.Join(domains[:len(domains)-1], ", ") +
			" and " + domains[len(domains)-1] + " email addresses are allowed"
	}
}
