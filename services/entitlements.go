package services

import (
	"math"
	"time"

	"nutriguide/models"
)

// Unlimited is the sentinel returned by the limit functions when the
// matching premium flag is set.
const Unlimited = math.MaxInt32

// Premium feature names. The set is closed and case-sensitive; anything
// else is simply unavailable.
const (
	FeatureAIRecommendations  = "AI_RECOMMENDATIONS"
	FeatureAdvancedAnalytics  = "ADVANCED_ANALYTICS"
	FeatureUnlimitedRecipes   = "UNLIMITED_RECIPES"
	FeatureUnlimitedMealPlans = "UNLIMITED_MEAL_PLANS"
)

// SubscriptionStatus is the read model returned to clients asking what an
// account is currently entitled to.
type SubscriptionStatus struct {
	IsPremium             bool `json:"is_premium"`
	HasActiveSubscription bool `json:"has_active_subscription"`
	RemainingDays         int  `json:"remaining_days"`
	AIRecommendations     bool `json:"ai_recommendations"`
	AdvancedAnalytics     bool `json:"advanced_analytics"`
	UnlimitedRecipes      bool `json:"unlimited_recipes"`
	UnlimitedMealPlans    bool `json:"unlimited_meal_plans"`
}

func IsPremium(u *models.User) bool {
	return u.Tier == models.TierPremium
}

func HasActiveSubscription(u *models.User) bool {
	return HasActiveSubscriptionAt(u, time.Now())
}

func HasActiveSubscriptionAt(u *models.User, now time.Time) bool {
	if !IsPremium(u) || u.Premium == nil {
		return false
	}
	end := u.Premium.SubscriptionEndsAt
	return !end.IsZero() && end.After(now)
}

// RemainingSubscriptionDays reports the whole days left on the
// subscription, clamped to zero. Non-premium accounts always get 0.
func RemainingSubscriptionDays(u *models.User, now time.Time) int {
	if !IsPremium(u) || u.Premium == nil || u.Premium.SubscriptionEndsAt.IsZero() {
		return 0
	}
	days := int(u.Premium.SubscriptionEndsAt.Sub(now).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// CanAccessFeature is fail-closed: premium gate first, then an active
// subscription, then the flag matching the feature name.
func CanAccessFeature(u *models.User, feature string) bool {
	return canAccessFeatureAt(u, feature, time.Now())
}

func canAccessFeatureAt(u *models.User, feature string, now time.Time) bool {
	if !IsPremium(u) || !HasActiveSubscriptionAt(u, now) {
		return false
	}
	switch feature {
	case FeatureAIRecommendations:
		return u.Premium.AIRecommendations
	case FeatureAdvancedAnalytics:
		return u.Premium.AdvancedAnalytics
	case FeatureUnlimitedRecipes:
		return u.Premium.UnlimitedSavedRecipes
	case FeatureUnlimitedMealPlans:
		return u.Premium.UnlimitedMealPlans
	default:
		return false
	}
}

func MaxSavedRecipes(u *models.User) int {
	if IsPremium(u) && u.Premium != nil && u.Premium.UnlimitedSavedRecipes {
		return Unlimited
	}
	if u.Regular != nil {
		return u.Regular.MaxSavedRecipes
	}
	return models.DefaultMaxSavedRecipes
}

func MaxMealPlans(u *models.User) int {
	if IsPremium(u) && u.Premium != nil && u.Premium.UnlimitedMealPlans {
		return Unlimited
	}
	if u.Regular != nil {
		return u.Regular.MaxMealPlans
	}
	return models.DefaultMaxMealPlans
}

func SubscriptionStatusOf(u *models.User, now time.Time) SubscriptionStatus {
	return SubscriptionStatus{
		IsPremium:             IsPremium(u),
		HasActiveSubscription: HasActiveSubscriptionAt(u, now),
		RemainingDays:         RemainingSubscriptionDays(u, now),
		AIRecommendations:     canAccessFeatureAt(u, FeatureAIRecommendations, now),
		AdvancedAnalytics:     canAccessFeatureAt(u, FeatureAdvancedAnalytics, now),
		UnlimitedRecipes:      canAccessFeatureAt(u, FeatureUnlimitedRecipes, now),
		UnlimitedMealPlans:    canAccessFeatureAt(u, FeatureUnlimitedMealPlans, now),
	}
}
