package models

import (
	"time"
)

type Tier string

const (
	TierRegular Tier = "REGULAR"
	TierPremium Tier = "PREMIUM"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

const (
	DefaultMaxSavedRecipes = 10
	DefaultMaxMealPlans    = 7
)

// RegularLimits are the numeric caps that apply while an account is on the
// regular tier.
type RegularLimits struct {
	MaxSavedRecipes int `json:"max_saved_recipes"`
	MaxMealPlans    int `json:"max_meal_plans"`
}

// PremiumEntitlements are the subscription fields that apply while an
// account is premium.
type PremiumEntitlements struct {
	SubscriptionEndsAt    time.Time `json:"subscription_ends_at"`
	UnlimitedSavedRecipes bool      `json:"unlimited_saved_recipes"`
	UnlimitedMealPlans    bool      `json:"unlimited_meal_plans"`
	AIRecommendations     bool      `json:"ai_recommendations"`
	AdvancedAnalytics     bool      `json:"advanced_analytics"`
}

// User is one registered account. Exactly one of Regular/Premium is non-nil,
// selected by Tier; the inactive group is dropped on every tier transition
// so stale limits can never be read.
type User struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	PasswordHash      string `json:"-"`
	FirstName         string `json:"first_name,omitempty"`
	LastName          string `json:"last_name,omitempty"`
	Bio               string `json:"bio,omitempty"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
	Role              string `json:"role"`
	Tier              Tier   `json:"tier"`

	Regular *RegularLimits       `json:"regular,omitempty"`
	Premium *PremiumEntitlements `json:"premium,omitempty"`

	ExpiryNotified bool      `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func DefaultRegularLimits() *RegularLimits {
	return &RegularLimits{
		MaxSavedRecipes: DefaultMaxSavedRecipes,
		MaxMealPlans:    DefaultMaxMealPlans,
	}
}
