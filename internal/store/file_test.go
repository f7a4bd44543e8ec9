package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/saumyabaranwal/campus-connect/internal/models"
)

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, dir
}

func TestFileStoreUsers(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, &models.User{
		Name:  "Asha Verma",
		Email: "asha@jiit.ac.in",
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), created.ID)
	require.NotNil(t, created.Courses)

	byID, err := s.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Asha Verma", byID.Name)

	// Email lookup is case-insensitive.
	byEmail, err := s.GetUserByEmail(ctx, "ASHA@JIIT.AC.IN")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	require.Equal(t, created.ID, byEmail.ID)

	missing, err := s.GetUserByID(ctx, 99)
	require.NoError(t, err)
	require.Nil(t, missing)

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestFileStoreListingFilter(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()

	for _, l := range []models.Listing{
		{Title: "Calculus textbook", Description: "barely used", Category: "Books", SellerID: 1},
		{Title: "Guitar lessons", Description: "beginner friendly", Category: "Academic", SellerID: 2},
		{Title: "Desk lamp", Description: "LED, warm white", Category: "Furniture", SellerID: 1},
	} {
		lc := l
		_, err := s.CreateListing(ctx, &lc)
		require.NoError(t, err)
	}

	all, err := s.ListListings(ctx, ListingFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	// "All" behaves like no category filter.
	all, err = s.ListListings(ctx, ListingFilter{Category: "All"})
	require.NoError(t, err)
	require.Len(t, all, 3)

	books, err := s.ListListings(ctx, ListingFilter{Category: "Books"})
	require.NoError(t, err)
	require.Len(t, books, 1)
	require.Equal(t, "Calculus textbook", books[0].Title)

	// Search is case-insensitive over title and description.
	hits, err := s.ListListings(ctx, ListingFilter{Search: "LED"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "Desk lamp", hits[0].Title)

	bySeller, err := s.ListingsBySeller(ctx, 1)
	require.NoError(t, err)
	require.Len(t, bySeller, 2)
}

func TestFileStoreAppendMessage(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()

	var last int64
	for i := 0; i < 5; i++ {
		m, err := s.AppendMessage(ctx, &models.Message{
			SenderID: 1, ReceiverID: 2, Body: "hello",
		})
		require.NoError(t, err)
		require.Greater(t, m.ID, last, "ids must be strictly increasing")
		require.False(t, m.Read)
		require.False(t, m.Timestamp.IsZero())
		last = m.ID
	}

	conv, err := s.ConversationBetween(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, conv, 5)
	for i := 1; i < len(conv); i++ {
		require.Greater(t, conv[i].ID, conv[i-1].ID)
	}
}

func TestFileStoreConversationIsolation(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()

	pairs := []struct{ from, to int64 }{
		{1, 2}, {2, 1}, {1, 3}, {3, 2},
	}
	for _, p := range pairs {
		_, err := s.AppendMessage(ctx, &models.Message{SenderID: p.from, ReceiverID: p.to, Body: "x"})
		require.NoError(t, err)
	}

	conv, err := s.ConversationBetween(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, conv, 2)

	involving, err := s.MessagesInvolving(ctx, 2)
	require.NoError(t, err)
	require.Len(t, involving, 3)

	empty, err := s.ConversationBetween(ctx, 7, 8)
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestFileStoreReload(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewFileStore(dir)
	require.NoError(t, err)
	first, err := s.AppendMessage(ctx, &models.Message{SenderID: 1, ReceiverID: 2, Body: "before restart"})
	require.NoError(t, err)
	s.Close()

	s2, err := NewFileStore(dir)
	require.NoError(t, err)
	defer s2.Close()

	conv, err := s2.ConversationBetween(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, conv, 1)
	require.Equal(t, "before restart", conv[0].Body)

	// The id generator reseeds from the log, so new ids stay above old ones.
	next, err := s2.AppendMessage(ctx, &models.Message{SenderID: 2, ReceiverID: 1, Body: "after restart"})
	require.NoError(t, err)
	require.Greater(t, next.ID, first.ID)
}

func TestFileStoreImportsLegacyMessages(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	legacy := []models.Message{
		{ID: 1700000000000, SenderID: 1, ReceiverID: 2, Body: "old one", Timestamp: time.Now().UTC()},
		{ID: 1700000000001, SenderID: 2, ReceiverID: 1, Body: "old two", Timestamp: time.Now().UTC()},
	}
	raw, err := json.Marshal(legacy)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "messages.json"), raw, 0o644))

	s, err := NewFileStore(dir)
	require.NoError(t, err)
	defer s.Close()

	conv, err := s.ConversationBetween(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, conv, 2)
	require.Equal(t, "old one", conv[0].Body)

	_, err = os.Stat(filepath.Join(dir, "messages.jsonl"))
	require.NoError(t, err)
}

func TestFileStoreToleratesTornFinalLine(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	intact, err := json.Marshal(models.Message{ID: 10, SenderID: 1, ReceiverID: 2, Body: "safe", Timestamp: time.Now().UTC()})
	require.NoError(t, err)
	log := append(intact, '\n')
	log = append(log, []byte(`{"id":11,"senderId":1,"rece`)...)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "messages.jsonl"), log, 0o644))

	s, err := NewFileStore(dir)
	require.NoError(t, err)
	defer s.Close()

	conv, err := s.ConversationBetween(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, conv, 1)
	require.Equal(t, "safe", conv[0].Body)
}

func TestMessageIDGen(t *testing.T) {
	var g messageIDGen

	now := time.Now()
	first := g.next(now)
	require.Equal(t, now.UnixMilli(), first)

	// A stalled (or rewound) clock still yields strictly increasing ids.
	second := g.next(now)
	require.Equal(t, first+1, second)
	third := g.next(now.Add(-time.Hour))
	require.Equal(t, second+1, third)

	g2 := messageIDGen{}
	g2.seed(first + 1000)
	require.Equal(t, first+1001, g2.next(now))
}
