package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/saumyabaranwal/campus-connect/internal/apperr"
	"github.com/saumyabaranwal/campus-connect/internal/config"
	"github.com/saumyabaranwal/campus-connect/internal/models"
	"github.com/saumyabaranwal/campus-connect/internal/store"
)

func newTestAPI(t *testing.T) (*chi.Mux, store.DataStore) {
	t.Helper()
	ds, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(ds.Close)

	cfg := &config.Config{
		AllowedEmailDomains: []string{"@jiit.ac.in", "@mail.jiit.ac.in"},
	}
	h := NewHandler(ds, nil, cfg, zerolog.Nop())

	r := chi.NewRouter()
	r.Get("/health", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/signup", h.Signup)
		r.Get("/listings", h.ListListings)
		r.Post("/listings", h.CreateListing)
		r.Get("/listings/{id}", h.GetListing)
		r.Get("/users/{id}", h.GetUser)
		r.Get("/users/{id}/listings", h.GetUserListings)
		r.Get("/messages/{userId}/{otherUserId}", h.GetConversation)
		r.Get("/conversations/{userId}", h.GetConversations)
	})
	return r, ds
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestSignupAndLogin(t *testing.T) {
	r, _ := newTestAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/signup", map[string]any{
		"name":     "asha verma",
		"email":    "Asha@JIIT.ac.in",
		"password": "secret123",
		"year":     "3",
		"branch":   "ECE",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[AuthResponse](t, w)
	require.True(t, resp.Success)
	require.NotZero(t, resp.User.ID)
	require.Equal(t, "asha@jiit.ac.in", resp.User.Email)
	require.Equal(t, "A", resp.User.Avatar)
	require.Equal(t, "buy", resp.User.Intent)
	require.Empty(t, resp.User.Password)
	require.NotContains(t, w.Body.String(), "password")

	w = doJSON(t, r, http.MethodPost, "/api/login", map[string]any{
		"email":    "asha@jiit.ac.in",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[AuthResponse](t, w)
	require.True(t, login.Success)
	require.Equal(t, resp.User.ID, login.User.ID)

	w = doJSON(t, r, http.MethodPost, "/api/login", map[string]any{
		"email":    "asha@jiit.ac.in",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Invalid credentials")
}

func TestSignupRejectsForeignDomain(t *testing.T) {
	r, _ := newTestAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/signup", map[string]any{
		"name":     "Mallory",
		"email":    "mallory@gmail.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "email addresses are allowed")
}

func TestSignupDuplicateEmail(t *testing.T) {
	r, _ := newTestAPI(t)

	body := map[string]any{
		"name":     "Asha",
		"email":    "asha@jiit.ac.in",
		"password": "secret123",
	}
	w := doJSON(t, r, http.MethodPost, "/api/signup", body)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/signup", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Email already exists")
}

func TestLoginRejectsForeignDomain(t *testing.T) {
	r, _ := newTestAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/login", map[string]any{
		"email":    "someone@gmail.com",
		"password": "whatever1",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginLegacyPlaintextPassword(t *testing.T) {
	r, ds := newTestAPI(t)

	// Records migrated from the old users.json carry the raw password.
	_, err := ds.CreateUser(context.Background(), &models.User{
		Name: "Demo Student", Email: "demo@jiit.ac.in", Password: "demo123",
	})
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodPost, "/api/login", map[string]any{
		"email":    "demo@jiit.ac.in",
		"password": "demo123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, decode[AuthResponse](t, w).Success)
}

func TestListingsCRUD(t *testing.T) {
	r, ds := newTestAPI(t)
	ctx := context.Background()

	seller, err := ds.CreateUser(ctx, &models.User{
		Name: "Bharat", Email: "bharat@jiit.ac.in", Rating: 4.2, Avatar: "B",
	})
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodPost, "/api/listings", map[string]any{
		"title":    "Drafter and lab apron",
		"price":    150,
		"category": "Engineering",
		"sellerId": seller.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	created := decode[CreateListingResponse](t, w)
	require.True(t, created.Success)
	require.Equal(t, "active", created.Listing.Status)
	require.Equal(t, "Bharat", created.Listing.SellerName)
	require.Equal(t, 4.2, created.Listing.SellerRating)
	require.Equal(t, "B", created.Listing.SellerAvatar)
	require.NotEmpty(t, created.Listing.PostedDate)
	require.NotNil(t, created.Listing.Images)

	w = doJSON(t, r, http.MethodGet, "/api/listings/0", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "Listing not found")

	w = doJSON(t, r, http.MethodGet, "/api/listings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[[]models.Listing](t, w)
	require.Len(t, all, 1)

	w = doJSON(t, r, http.MethodGet, "/api/listings?category=Books", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "[]", strings.TrimSpace(w.Body.String()))

	w = doJSON(t, r, http.MethodGet, "/api/listings?search=apron", nil)
	require.Equal(t, http.StatusOK, w.Code)
	hits := decode[[]models.Listing](t, w)
	require.Len(t, hits, 1)
}

func TestCreateListingUnknownSeller(t *testing.T) {
	r, _ := newTestAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/listings", map[string]any{
		"title":    "Ghost listing",
		"category": "Misc",
		"sellerId": 42,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Unknown seller")
}

func TestGetUser(t *testing.T) {
	r, ds := newTestAPI(t)

	u, err := ds.CreateUser(context.Background(), &models.User{
		Name: "Chitra", Email: "chitra@jiit.ac.in", Password: "hunter22",
	})
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodGet, "/api/users/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.User](t, w)
	require.Equal(t, u.ID, got.ID)
	require.Empty(t, got.Password)
	require.NotContains(t, w.Body.String(), "hunter22")

	w = doJSON(t, r, http.MethodGet, "/api/users/99", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "User not found")
}

func TestGetUserListingsAlwaysArray(t *testing.T) {
	r, _ := newTestAPI(t)

	w := doJSON(t, r, http.MethodGet, "/api/users/5/listings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestMessageEndpoints(t *testing.T) {
	r, ds := newTestAPI(t)
	ctx := context.Background()

	_, err := ds.CreateUser(ctx, &models.User{Name: "Asha", Email: "asha@jiit.ac.in", Avatar: "A"})
	require.NoError(t, err)
	_, err = ds.AppendMessage(ctx, &models.Message{SenderID: 1, ReceiverID: 2, Body: "hello"})
	require.NoError(t, err)
	_, err = ds.AppendMessage(ctx, &models.Message{SenderID: 2, ReceiverID: 1, Body: "hi back"})
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodGet, "/api/messages/1/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	conv := decode[[]models.Message](t, w)
	require.Len(t, conv, 2)
	require.Equal(t, "hello", conv[0].Body)

	w = doJSON(t, r, http.MethodGet, "/api/messages/1/3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "[]", strings.TrimSpace(w.Body.String()))

	w = doJSON(t, r, http.MethodGet, "/api/conversations/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	convs := decode[[]models.ConversationSummary](t, w)
	require.Len(t, convs, 1)
	require.Equal(t, int64(1), convs[0].UserID)
	require.Equal(t, "Asha", convs[0].UserName)
	require.Equal(t, "hi back", convs[0].LastMessage)

	w = doJSON(t, r, http.MethodGet, "/api/conversations/9", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestTypedErrorStatusMapping(t *testing.T) {
	ds, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(ds.Close)
	h := NewHandler(ds, nil, &config.Config{}, zerolog.Nop())

	cases := []struct {
		err    error
		status int
	}{
		{apperr.InvalidArg("bad input"), http.StatusBadRequest},
		{apperr.AlreadyExists("Email already exists"), http.StatusBadRequest},
		{apperr.NotFound("Listing not found"), http.StatusNotFound},
		{apperr.Unauthorized("Invalid credentials"), http.StatusUnauthorized},
		{apperr.Storage("append message", errors.New("disk full")), http.StatusInternalServerError},
	}
	for _, c := range cases {
		w := httptest.NewRecorder()
		h.ErrorFrom(w, c.err)
		require.Equal(t, c.status, w.Code)
		require.Contains(t, w.Body.String(), apperr.MessageOf(c.err))
		// Causes stay server-side.
		require.NotContains(t, w.Body.String(), "disk full")

		w = httptest.NewRecorder()
		h.FailFrom(w, c.err)
		require.Equal(t, c.status, w.Code)
		require.Contains(t, w.Body.String(), `"success":false`)
	}
}

func TestHealth(t *testing.T) {
	r, _ := newTestAPI(t)

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[HealthResponse](t, w)
	require.Equal(t, "healthy", resp.Status)
	require.Equal(t, "pass", resp.Checks["store"].Status)
	require.NotContains(t, resp.Checks, "redis")
}
