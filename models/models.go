package models

import (
	"time"
)

type Recipe struct {
	ID           string    `json:"id"`
	ExternalID   string    `json:"external_id,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Area         string    `json:"area"`
	Category     string    `json:"category"`
	Instructions string    `json:"instructions"`
	Ingredients  []string  `json:"ingredients"`
	Measures     []string  `json:"measures"`
	CookingTime  *int      `json:"cooking_time,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type SavedRecipe struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	RecipeID string    `json:"recipe_id"`
	SavedAt  time.Time `json:"saved_at"`
	Recipe   *Recipe   `json:"recipe,omitempty"` // For list view
}

type PlannerEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	RecipeID    string    `json:"recipe_id"`
	PlannedDate string    `json:"planned_date"` // YYYY-MM-DD
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	Recipe      *Recipe   `json:"recipe,omitempty"`
}

type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}
