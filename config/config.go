package config

import "os"

type Features struct {
	AssistantEnabled     bool
	EmailEnabled         bool
	PremiumSignupEnabled bool
}

func LoadFeatures() Features {
	return Features{
		AssistantEnabled:     os.Getenv("ASSISTANT_ENABLED") != "false",
		EmailEnabled:         os.Getenv("EMAIL_ENABLED") == "true",
		PremiumSignupEnabled: os.Getenv("PREMIUM_SIGNUP_ENABLED") != "false",
	}
}

// AdminCredentials is the configuration-supplied admin login pair. Both
// values empty means the separate admin login path is disabled and only
// accounts with the ADMIN role can use admin endpoints.
type AdminCredentials struct {
	Email    string
	Password string
}

func LoadAdminCredentials() AdminCredentials {
	return AdminCredentials{
		Email:    os.Getenv("ADMIN_EMAIL"),
		Password: os.Getenv("ADMIN_PASSWORD"),
	}
}

// JWTSecret reads the signing key on every call rather than caching it at
// package init, so a value supplied through the .env file loaded in main
// is picked up.
func JWTSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
