package services

import (
	"context"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"nutriguide/apperr"
	"nutriguide/models"
	"nutriguide/store"
)

const passwordSymbols = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?"

// RegisterInput is the registration payload after HTTP binding.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Premium   bool
}

// UserService owns account lifecycle: registration, tier transitions,
// password changes, deletion. All mutations are read-modify-write inside a
// store transaction.
type UserService struct {
	users  store.UserStore
	mailer *Mailer
	now    func() time.Time
}

func NewUserService(users store.UserStore, mailer *Mailer) *UserService {
	return &UserService{users: users, mailer: mailer, now: time.Now}
}

// IsPasswordValid enforces the password policy: minimum 8 characters with
// at least one uppercase letter, one lowercase letter, one digit, and one
// symbol from the fixed punctuation set.
func IsPasswordValid(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if input.Username == "" {
		return nil, apperr.ValidationFailed("username is required")
	}
	if input.Email == "" {
		return nil, apperr.ValidationFailed("email is required")
	}
	if !IsPasswordValid(input.Password) {
		return nil, apperr.ValidationFailed("password does not meet security requirements")
	}

	if taken, err := s.users.ExistsByUsername(ctx, input.Username); err != nil {
		return nil, err
	} else if taken {
		return nil, apperr.Conflict("username already taken")
	}
	if taken, err := s.users.ExistsByEmail(ctx, input.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, apperr.Conflict("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	u := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         models.RoleUser,
	}
	if input.Premium {
		u.Tier = models.TierPremium
		u.Premium = s.newPremiumEntitlements()
	} else {
		u.Tier = models.TierRegular
		u.Regular = models.DefaultRegularLimits()
	}

	created, err := s.users.Create(ctx, u)
	if err != nil {
		return nil, err
	}

	log.Printf("registered user %s (%s)", created.Username, created.Tier)
	if s.mailer != nil {
		go s.mailer.SendWelcome(created)
	}
	return created, nil
}

func (s *UserService) newPremiumEntitlements() *models.PremiumEntitlements {
	return &models.PremiumEntitlements{
		SubscriptionEndsAt:    s.now().AddDate(0, 1, 0),
		UnlimitedSavedRecipes: true,
		UnlimitedMealPlans:    true,
		AIRecommendations:     true,
		AdvancedAnalytics:     true,
	}
}

// Authenticate verifies an email/password pair for login.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.LoadByEmail(ctx, email)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.Unauthorized("invalid credentials")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.users.Load(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]ProfileView, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]ProfileView, 0, len(users))
	for _, u := range users {
		views = append(views, ToProfile(u))
	}
	return views, nil
}

// UpgradeToPremium moves a regular account to premium with one month of
// subscription and every premium flag on. Upgrading an account that is
// already premium is reported as an invalid transition, never a silent
// extension.
func (s *UserService) UpgradeToPremium(ctx context.Context, id string) (*models.User, error) {
	return s.transition(ctx, id, func(u *models.User) error {
		if u.Tier == models.TierPremium {
			return apperr.InvalidTransition("user is already premium")
		}
		u.Tier = models.TierPremium
		u.Premium = s.newPremiumEntitlements()
		u.Regular = nil
		u.ExpiryNotified = false
		return nil
	})
}

// DowngradeToRegular clears the subscription and restores the default
// regular limits.
func (s *UserService) DowngradeToRegular(ctx context.Context, id string) (*models.User, error) {
	return s.transition(ctx, id, func(u *models.User) error {
		if u.Tier == models.TierRegular {
			return apperr.InvalidTransition("user is already regular")
		}
		u.Tier = models.TierRegular
		u.Regular = models.DefaultRegularLimits()
		u.Premium = nil
		u.ExpiryNotified = false
		return nil
	})
}

// ExtendSubscription adds months from max(current end, now): an expired
// subscription restarts from now, an active one keeps its remaining time.
func (s *UserService) ExtendSubscription(ctx context.Context, id string, months int) (*models.User, error) {
	if months <= 0 {
		return nil, apperr.ValidationFailed("months must be positive")
	}
	return s.transition(ctx, id, func(u *models.User) error {
		if u.Tier != models.TierPremium || u.Premium == nil {
			return apperr.InvalidTransition("user is not premium")
		}
		now := s.now()
		base := u.Premium.SubscriptionEndsAt
		if base.Before(now) {
			base = now
		}
		u.Premium.SubscriptionEndsAt = base.AddDate(0, months, 0)
		u.ExpiryNotified = false
		return nil
	})
}

func (s *UserService) ChangePassword(ctx context.Context, id, current, newPassword string) error {
	_, err := s.transition(ctx, id, func(u *models.User) error {
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
			return apperr.Unauthorized("current password is incorrect")
		}
		if !IsPasswordValid(newPassword) {
			return apperr.ValidationFailed("new password does not meet security requirements")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return apperr.Internal(err)
		}
		u.PasswordHash = string(hash)
		return nil
	})
	return err
}

// Delete removes the account; saved recipes, planner entries and chat
// history go with it via the schema's cascades.
func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}

// transition loads, mutates, stamps updated_at and persists one account
// inside a store transaction.
func (s *UserService) transition(ctx context.Context, id string, mutate func(*models.User) error) (*models.User, error) {
	var result *models.User
	err := s.users.WithTx(ctx, func(tx store.UserStore) error {
		u, err := tx.Load(ctx, id)
		if err != nil {
			return err
		}
		if err := mutate(u); err != nil {
			return err
		}
		u.UpdatedAt = s.now()
		if err := tx.Update(ctx, u); err != nil {
			return err
		}
		result = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AdminUpdate applies a profile patch and, when tier is set, the matching
// tier transition. A no-op tier value is tolerated here so admins can
// resubmit a form without tripping the transition guard.
func (s *UserService) AdminUpdate(ctx context.Context, id string, patch ProfilePatch, tier *models.Tier) (ProfileView, error) {
	view, err := UpdateProfile(ctx, s.users, id, patch)
	if err != nil {
		return ProfileView{}, err
	}

	if tier != nil && *tier != view.Tier {
		var u *models.User
		switch *tier {
		case models.TierPremium:
			u, err = s.UpgradeToPremium(ctx, id)
		case models.TierRegular:
			u, err = s.DowngradeToRegular(ctx, id)
		default:
			return ProfileView{}, apperr.ValidationFailed("unknown tier: %s", *tier)
		}
		if err != nil {
			return ProfileView{}, err
		}
		view = ToProfile(u)
	}
	return view, nil
}
