package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"nutriguide/db"
	"nutriguide/models"
	"nutriguide/services"
)

func ListSavedRecipes(c *gin.Context) {
	userID := currentUserID(c)

	rows, err := db.GetDB().Query(`
		SELECT s.id, s.recipe_id, s.saved_at, `+prefixedRecipeColumns("r")+`
		FROM saved_recipes s
		JOIN recipes r ON r.id = s.recipe_id
		WHERE s.user_id = $1
		ORDER BY s.saved_at DESC
	`, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	defer rows.Close()

	var saved []models.SavedRecipe
	for rows.Next() {
		var s models.SavedRecipe
		s.UserID = userID
		r, err := scanSavedRecipeRow(rows, &s)
		if err != nil {
			continue
		}
		s.Recipe = &r
		saved = append(saved, s)
	}
	if saved == nil {
		saved = []models.SavedRecipe{}
	}
	c.JSON(http.StatusOK, gin.H{"saved_recipes": saved})
}

type saveRecipeRequest struct {
	RecipeID string         `json:"recipe_id"`
	Recipe   *recipePayload `json:"recipe"`
}

func SaveRecipe(c *gin.Context) {
	userID := currentUserID(c)

	var req saveRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	user, err := userService.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	// Tier limit check before anything is written.
	limit := services.MaxSavedRecipes(user)
	if limit != services.Unlimited {
		var count int
		if err := db.GetDB().QueryRow("SELECT COUNT(*) FROM saved_recipes WHERE user_id = $1", userID).Scan(&count); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		if count >= limit {
			c.JSON(http.StatusForbidden, gin.H{"error": "Saved recipe limit reached", "limit": limit})
			return
		}
	}

	recipeID, err := resolveRecipe(req)
	if err != nil {
		respondError(c, err)
		return
	}

	var savedID string
	err = db.GetDB().QueryRow(`
		INSERT INTO saved_recipes (user_id, recipe_id) VALUES ($1, $2)
		ON CONFLICT (user_id, recipe_id) DO NOTHING
		RETURNING id
	`, userID, recipeID).Scan(&savedID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusConflict, gin.H{"error": "Recipe already saved"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save recipe"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": savedID, "recipe_id": recipeID})
}

func scanSavedRecipeRow(rows *sql.Rows, s *models.SavedRecipe) (models.Recipe, error) {
	var r models.Recipe
	var ingredientsRaw, measuresRaw []byte
	err := rows.Scan(&s.ID, &s.RecipeID, &s.SavedAt,
		&r.ID, &r.ExternalID, &r.Title, &r.Description, &r.ThumbnailURL,
		&r.Area, &r.Category, &r.Instructions, &ingredientsRaw, &measuresRaw, &r.CookingTime,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return r, err
	}
	_ = json.Unmarshal(ingredientsRaw, &r.Ingredients)
	_ = json.Unmarshal(measuresRaw, &r.Measures)
	if r.Ingredients == nil {
		r.Ingredients = []string{}
	}
	if r.Measures == nil {
		r.Measures = []string{}
	}
	return r, nil
}

func UnsaveRecipe(c *gin.Context) {
	userID := currentUserID(c)
	recipeID := c.Param("recipe_id")

	res, err := db.GetDB().Exec(`
		DELETE FROM saved_recipes
		WHERE user_id = $1 AND recipe_id IN (SELECT id FROM recipes WHERE id::text = $2 OR external_id = $2)
	`, userID, recipeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not saved by this user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recipe unsaved"})
}
