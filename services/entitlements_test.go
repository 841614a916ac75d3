package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"nutriguide/models"
)

func regularUser() *models.User {
	return &models.User{
		ID:       "u-1",
		Username: "alice",
		Email:    "alice@example.com",
		Role:     models.RoleUser,
		Tier:     models.TierRegular,
		Regular:  models.DefaultRegularLimits(),
	}
}

func premiumUser(end time.Time) *models.User {
	return &models.User{
		ID:       "u-2",
		Username: "bob",
		Email:    "bob@example.com",
		Role:     models.RoleUser,
		Tier:     models.TierPremium,
		Premium: &models.PremiumEntitlements{
			SubscriptionEndsAt:    end,
			UnlimitedSavedRecipes: true,
			UnlimitedMealPlans:    true,
			AIRecommendations:     true,
			AdvancedAnalytics:     true,
		},
	}
}

func TestIsPremium(t *testing.T) {
	assert.False(t, IsPremium(regularUser()))
	assert.True(t, IsPremium(premiumUser(time.Now().Add(time.Hour))))
}

func TestHasActiveSubscription(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		user *models.User
		want bool
	}{
		{"regular user", regularUser(), false},
		{"premium, end in future", premiumUser(now.Add(time.Hour)), true},
		{"premium, end in past", premiumUser(now.Add(-time.Hour)), false},
		{"premium, end exactly now", premiumUser(now), false},
		{"premium, end unset", premiumUser(time.Time{}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasActiveSubscriptionAt(tt.user, now))
		})
	}
}

func TestSubscriptionFlipsAtExpiry(t *testing.T) {
	end := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	u := premiumUser(end)

	before := end.Add(-time.Minute)
	assert.True(t, HasActiveSubscriptionAt(u, before))
	assert.Equal(t, 0, RemainingSubscriptionDays(u, before)) // less than a whole day left

	wellBefore := end.AddDate(0, 0, -10)
	assert.Equal(t, 10, RemainingSubscriptionDays(u, wellBefore))

	// No mutation needed: once now passes the end, both flip.
	after := end.Add(time.Minute)
	assert.False(t, HasActiveSubscriptionAt(u, after))
	assert.Equal(t, 0, RemainingSubscriptionDays(u, after))
}

func TestRemainingSubscriptionDays(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, RemainingSubscriptionDays(regularUser(), now))
	assert.Equal(t, 0, RemainingSubscriptionDays(premiumUser(time.Time{}), now))
	assert.Equal(t, 30, RemainingSubscriptionDays(premiumUser(now.AddDate(0, 0, 30)), now))
	// Floor, not round
	assert.Equal(t, 2, RemainingSubscriptionDays(premiumUser(now.Add(71*time.Hour)), now))
	// Clamped at zero for expired subscriptions
	assert.Equal(t, 0, RemainingSubscriptionDays(premiumUser(now.AddDate(0, 0, -5)), now))
}

func TestCanAccessFeature(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	active := premiumUser(now.Add(24 * time.Hour))
	expired := premiumUser(now.Add(-24 * time.Hour))

	for _, feature := range []string{
		FeatureAIRecommendations, FeatureAdvancedAnalytics,
		FeatureUnlimitedRecipes, FeatureUnlimitedMealPlans,
	} {
		assert.True(t, canAccessFeatureAt(active, feature, now), feature)
		assert.False(t, canAccessFeatureAt(expired, feature, now), feature)
		// The premium gate comes first: a regular account never has access,
		// whatever its fields look like.
		assert.False(t, canAccessFeatureAt(regularUser(), feature, now), feature)
	}

	// Per-flag gating
	noAI := premiumUser(now.Add(24 * time.Hour))
	noAI.Premium.AIRecommendations = false
	assert.False(t, canAccessFeatureAt(noAI, FeatureAIRecommendations, now))
	assert.True(t, canAccessFeatureAt(noAI, FeatureAdvancedAnalytics, now))

	// Unknown names fail closed, never error.
	assert.False(t, canAccessFeatureAt(active, "TIME_TRAVEL", now))
	assert.False(t, canAccessFeatureAt(active, "ai_recommendations", now)) // case-sensitive
	assert.False(t, canAccessFeatureAt(active, "", now))
}

func TestMaxSavedRecipesAndMealPlans(t *testing.T) {
	now := time.Now()

	assert.Equal(t, 10, MaxSavedRecipes(regularUser()))
	assert.Equal(t, 7, MaxMealPlans(regularUser()))

	premium := premiumUser(now.Add(time.Hour))
	assert.Equal(t, Unlimited, MaxSavedRecipes(premium))
	assert.Equal(t, Unlimited, MaxMealPlans(premium))

	// Flags off fall back to the defaults even for premium accounts.
	capped := premiumUser(now.Add(time.Hour))
	capped.Premium.UnlimitedSavedRecipes = false
	capped.Premium.UnlimitedMealPlans = false
	assert.Equal(t, 10, MaxSavedRecipes(capped))
	assert.Equal(t, 7, MaxMealPlans(capped))

	// Missing regular payload reads as the defaults.
	bare := &models.User{Tier: models.TierRegular}
	assert.Equal(t, 10, MaxSavedRecipes(bare))
	assert.Equal(t, 7, MaxMealPlans(bare))

	custom := regularUser()
	custom.Regular.MaxSavedRecipes = 25
	assert.Equal(t, 25, MaxSavedRecipes(custom))
}

func TestSubscriptionStatusOf(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	status := SubscriptionStatusOf(premiumUser(now.AddDate(0, 0, 15)), now)
	assert.True(t, status.IsPremium)
	assert.True(t, status.HasActiveSubscription)
	assert.Equal(t, 15, status.RemainingDays)
	assert.True(t, status.AIRecommendations)
	assert.True(t, status.UnlimitedRecipes)

	status = SubscriptionStatusOf(regularUser(), now)
	assert.False(t, status.IsPremium)
	assert.False(t, status.HasActiveSubscription)
	assert.Equal(t, 0, status.RemainingDays)
	assert.False(t, status.AIRecommendations)
	assert.False(t, status.UnlimitedMealPlans)
}
