package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutriguide/apperr"
	"nutriguide/models"
	"nutriguide/store"
)

func strPtr(s string) *string { return &s }

func TestProfileCompletionPercentage(t *testing.T) {
	p := ProfileView{}
	assert.Equal(t, 0, ProfileCompletionPercentage(p))
	assert.False(t, IsProfileComplete(p))

	p.FirstName = "Alice"
	assert.Equal(t, 25, ProfileCompletionPercentage(p))

	p.LastName = "Smith"
	p.Bio = "I like cooking."
	assert.Equal(t, 75, ProfileCompletionPercentage(p))

	p.ProfilePictureURL = "https://cdn.example.com/alice.png"
	assert.Equal(t, 100, ProfileCompletionPercentage(p))
	assert.True(t, IsProfileComplete(p))

	// Whitespace-only values do not count.
	p.Bio = "   "
	assert.Equal(t, 75, ProfileCompletionPercentage(p))
}

func TestMissingProfileFields(t *testing.T) {
	p := ProfileView{}
	assert.Equal(t, []string{"firstName", "lastName", "bio", "profilePicture"}, MissingProfileFields(p))

	p.LastName = "Smith"
	assert.Equal(t, []string{"firstName", "bio", "profilePicture"}, MissingProfileFields(p))

	p.FirstName = "Alice"
	p.Bio = "hi"
	p.ProfilePictureURL = "x"
	assert.Equal(t, []string{}, MissingProfileFields(p))
}

func TestSanitizePatch(t *testing.T) {
	patch := ProfilePatch{
		Username:  strPtr("  Alice "),
		Email:     strPtr(" ALICE@Example.COM "),
		FirstName: strPtr("  Alice  "),
		Bio:       strPtr(" hello "),
	}
	SanitizePatch(&patch)

	assert.Equal(t, "alice", *patch.Username)
	assert.Equal(t, "alice@example.com", *patch.Email)
	assert.Equal(t, "Alice", *patch.FirstName) // case kept on name fields
	assert.Equal(t, "hello", *patch.Bio)
	assert.Nil(t, patch.LastName)
	assert.Nil(t, patch.ProfilePictureURL)
}

func TestToProfileTierGroups(t *testing.T) {
	p := ToProfile(regularUser())
	require.NotNil(t, p.MaxSavedRecipes)
	require.NotNil(t, p.MaxMealPlans)
	assert.Equal(t, 10, *p.MaxSavedRecipes)
	assert.Equal(t, 7, *p.MaxMealPlans)
	assert.Nil(t, p.SubscriptionEndsAt)
	assert.Nil(t, p.UnlimitedSavedRecipes)

	end := mustParseTime(t, "2026-09-30T00:00:00Z")
	p = ToProfile(premiumUser(end))
	require.NotNil(t, p.SubscriptionEndsAt)
	assert.True(t, p.SubscriptionEndsAt.Equal(end))
	require.NotNil(t, p.UnlimitedSavedRecipes)
	assert.True(t, *p.UnlimitedSavedRecipes)
	assert.Nil(t, p.MaxSavedRecipes)
	assert.Nil(t, p.MaxMealPlans)
}

func seedUser(t *testing.T, s store.UserStore, username, email string) *models.User {
	t.Helper()
	u, err := s.Create(context.Background(), &models.User{
		Username: username,
		Email:    email,
		Role:     models.RoleUser,
		Tier:     models.TierRegular,
		Regular:  models.DefaultRegularLimits(),
	})
	require.NoError(t, err)
	return u
}

func TestUpdateProfilePartialPatch(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryUserStore()
	u := seedUser(t, s, "alice", "alice@example.com")

	view, err := UpdateProfile(ctx, s, u.ID, ProfilePatch{Bio: strPtr("hello there")})
	require.NoError(t, err)
	assert.Equal(t, "hello there", view.Bio)
	assert.Equal(t, "alice", view.Username)
	assert.Equal(t, "alice@example.com", view.Email)

	// A second patch clears the bio without touching anything else.
	view, err = UpdateProfile(ctx, s, u.ID, ProfilePatch{Bio: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "", view.Bio)
	assert.Equal(t, "alice", view.Username)
}

func TestUpdateProfileValidation(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryUserStore()
	u := seedUser(t, s, "alice", "alice@example.com")

	_, err := UpdateProfile(ctx, s, u.ID, ProfilePatch{Username: strPtr("   ")})
	assert.Equal(t, apperr.KindValidationFailed, apperr.KindOf(err))

	_, err = UpdateProfile(ctx, s, u.ID, ProfilePatch{Email: strPtr("")})
	assert.Equal(t, apperr.KindValidationFailed, apperr.KindOf(err))

	_, err = UpdateProfile(ctx, s, u.ID, ProfilePatch{Bio: strPtr(strings.Repeat("x", 256))})
	assert.Equal(t, apperr.KindValidationFailed, apperr.KindOf(err))

	_, err = UpdateProfile(ctx, s, u.ID, ProfilePatch{Bio: strPtr(strings.Repeat("x", 255))})
	assert.NoError(t, err)

	// The cap counts characters, not bytes: 255 CJK runes are 765 bytes
	// and still fit.
	_, err = UpdateProfile(ctx, s, u.ID, ProfilePatch{Bio: strPtr(strings.Repeat("食", 255))})
	assert.NoError(t, err)

	_, err = UpdateProfile(ctx, s, u.ID, ProfilePatch{Bio: strPtr(strings.Repeat("食", 256))})
	assert.Equal(t, apperr.KindValidationFailed, apperr.KindOf(err))
}

func TestUpdateProfileUniqueness(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryUserStore()
	alice := seedUser(t, s, "alice", "alice@example.com")
	seedUser(t, s, "bob", "bob@example.com")

	// Sanitization runs before the uniqueness check, so " Bob " collides.
	_, err := UpdateProfile(ctx, s, alice.ID, ProfilePatch{Username: strPtr("  Bob ")})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = UpdateProfile(ctx, s, alice.ID, ProfilePatch{Email: strPtr("BOB@example.com")})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// Resubmitting your own username is not a conflict.
	view, err := UpdateProfile(ctx, s, alice.ID, ProfilePatch{Username: strPtr("Alice")})
	require.NoError(t, err)
	assert.Equal(t, "alice", view.Username)

	_, err = UpdateProfile(ctx, s, "missing", ProfilePatch{Bio: strPtr("x")})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
