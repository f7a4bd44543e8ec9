package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/saumyabaranwal/campus-connect/internal/models"
)

func TestSeedPopulatesEmptyStore(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, s))

	demo, err := s.GetUserByEmail(ctx, "demo@jiit.ac.in")
	require.NoError(t, err)
	require.NotNil(t, demo)
	require.Equal(t, "Demo Student", demo.Name)
	require.Equal(t, "demo123", demo.Password)

	listings, err := s.ListListings(ctx, ListingFilter{})
	require.NoError(t, err)
	require.Len(t, listings, 3)
}

func TestSeedIsIdempotent(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, s))
	require.NoError(t, Seed(ctx, s))

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	listings, err := s.ListListings(ctx, ListingFilter{})
	require.NoError(t, err)
	require.Len(t, listings, 3)
}

func TestSeedSkipsNonEmptyStore(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, &models.User{Name: "Existing", Email: "existing@jiit.ac.in"})
	require.NoError(t, err)

	require.NoError(t, Seed(ctx, s))

	demo, err := s.GetUserByEmail(ctx, "demo@jiit.ac.in")
	require.NoError(t, err)
	require.Nil(t, demo)
}
