package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"nutriguide/apperr"
	"nutriguide/models"
	"nutriguide/store"
)

const maxBioLength = 255

// ProfileView is the flat client-facing projection of an account. Exactly
// one of the tier groups is present, following the account's tier.
type ProfileView struct {
	ID                string      `json:"id"`
	Username          string      `json:"username"`
	Email             string      `json:"email"`
	FirstName         string      `json:"first_name,omitempty"`
	LastName          string      `json:"last_name,omitempty"`
	Bio               string      `json:"bio,omitempty"`
	ProfilePictureURL string      `json:"profile_picture_url,omitempty"`
	Role              string      `json:"role"`
	Tier              models.Tier `json:"tier"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`

	// Premium group
	SubscriptionEndsAt    *time.Time `json:"subscription_ends_at,omitempty"`
	UnlimitedSavedRecipes *bool      `json:"unlimited_saved_recipes,omitempty"`
	UnlimitedMealPlans    *bool      `json:"unlimited_meal_plans,omitempty"`

	// Regular group
	MaxSavedRecipes *int `json:"max_saved_recipes,omitempty"`
	MaxMealPlans    *int `json:"max_meal_plans,omitempty"`
}

// ProfilePatch carries a partial profile update. Nil means leave the field
// untouched; a set empty string clears the optional fields. Username and
// email cannot be cleared.
type ProfilePatch struct {
	Username          *string `json:"username"`
	Email             *string `json:"email"`
	FirstName         *string `json:"first_name"`
	LastName          *string `json:"last_name"`
	Bio               *string `json:"bio"`
	ProfilePictureURL *string `json:"profile_picture_url"`
}

func ToProfile(u *models.User) ProfileView {
	p := ProfileView{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Bio:               u.Bio,
		ProfilePictureURL: u.ProfilePictureURL,
		Role:              u.Role,
		Tier:              u.Tier,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}

	if u.Tier == models.TierPremium && u.Premium != nil {
		if !u.Premium.SubscriptionEndsAt.IsZero() {
			end := u.Premium.SubscriptionEndsAt
			p.SubscriptionEndsAt = &end
		}
		unlimitedSaved := u.Premium.UnlimitedSavedRecipes
		unlimitedPlans := u.Premium.UnlimitedMealPlans
		p.UnlimitedSavedRecipes = &unlimitedSaved
		p.UnlimitedMealPlans = &unlimitedPlans
	} else {
		maxSaved := MaxSavedRecipes(u)
		maxPlans := MaxMealPlans(u)
		p.MaxSavedRecipes = &maxSaved
		p.MaxMealPlans = &maxPlans
	}

	return p
}

// The four completion checks, in the order clients display them.
var profileChecks = []struct {
	field string
	ok    func(ProfileView) bool
}{
	{"firstName", func(p ProfileView) bool { return strings.TrimSpace(p.FirstName) != "" }},
	{"lastName", func(p ProfileView) bool { return strings.TrimSpace(p.LastName) != "" }},
	{"bio", func(p ProfileView) bool { return strings.TrimSpace(p.Bio) != "" }},
	{"profilePicture", func(p ProfileView) bool { return strings.TrimSpace(p.ProfilePictureURL) != "" }},
}

func ProfileCompletionPercentage(p ProfileView) int {
	completed := 0
	for _, check := range profileChecks {
		if check.ok(p) {
			completed++
		}
	}
	return completed * 100 / len(profileChecks)
}

func MissingProfileFields(p ProfileView) []string {
	missing := []string{}
	for _, check := range profileChecks {
		if !check.ok(p) {
			missing = append(missing, check.field)
		}
	}
	return missing
}

func IsProfileComplete(p ProfileView) bool {
	return ProfileCompletionPercentage(p) == 100
}

// SanitizePatch trims every set field and lower-cases username and email.
// Must run before any uniqueness check so that " Alice " and "alice"
// collide.
func SanitizePatch(patch *ProfilePatch) {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		t := strings.TrimSpace(*s)
		return &t
	}
	lower := func(s *string) *string {
		if s == nil {
			return nil
		}
		l := strings.ToLower(*s)
		return &l
	}

	patch.Username = lower(trim(patch.Username))
	patch.Email = lower(trim(patch.Email))
	patch.FirstName = trim(patch.FirstName)
	patch.LastName = trim(patch.LastName)
	patch.Bio = trim(patch.Bio)
	patch.ProfilePictureURL = trim(patch.ProfilePictureURL)
}

// UpdateProfile applies the non-nil fields of patch onto the account,
// re-validating username/email uniqueness when they change. The whole
// read-modify-write runs in one store transaction.
func UpdateProfile(ctx context.Context, users store.UserStore, userID string, patch ProfilePatch) (ProfileView, error) {
	SanitizePatch(&patch)

	if patch.Username != nil && *patch.Username == "" {
		return ProfileView{}, apperr.ValidationFailed("username cannot be blank")
	}
	if patch.Email != nil && *patch.Email == "" {
		return ProfileView{}, apperr.ValidationFailed("email cannot be blank")
	}
	if patch.Bio != nil && utf8.RuneCountInString(*patch.Bio) > maxBioLength {
		return ProfileView{}, apperr.ValidationFailed("bio cannot exceed %d characters", maxBioLength)
	}

	var view ProfileView
	err := users.WithTx(ctx, func(tx store.UserStore) error {
		u, err := tx.Load(ctx, userID)
		if err != nil {
			return err
		}

		if patch.Username != nil && *patch.Username != strings.ToLower(u.Username) {
			taken, err := tx.ExistsByUsername(ctx, *patch.Username)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Conflict("username already taken")
			}
		}
		if patch.Email != nil && *patch.Email != strings.ToLower(u.Email) {
			taken, err := tx.ExistsByEmail(ctx, *patch.Email)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Conflict("email already registered")
			}
		}

		if patch.Username != nil {
			u.Username = *patch.Username
		}
		if patch.Email != nil {
			u.Email = *patch.Email
		}
		if patch.FirstName != nil {
			u.FirstName = *patch.FirstName
		}
		if patch.LastName != nil {
			u.LastName = *patch.LastName
		}
		if patch.Bio != nil {
			u.Bio = *patch.Bio
		}
		if patch.ProfilePictureURL != nil {
			u.ProfilePictureURL = *patch.ProfilePictureURL
		}

		u.UpdatedAt = time.Now()
		if err := tx.Update(ctx, u); err != nil {
			return err
		}
		view = ToProfile(u)
		return nil
	})
	if err != nil {
		return ProfileView{}, err
	}
	return view, nil
}
