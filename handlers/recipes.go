package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"nutriguide/apperr"
	"nutriguide/db"
	"nutriguide/models"
)

const recipeColumns = `id, COALESCE(external_id, ''), title, description, thumbnail_url,
	area, category, instructions, ingredients, measures, cooking_time, created_at, updated_at`

// prefixedRecipeColumns qualifies the recipe column list for joins.
func prefixedRecipeColumns(alias string) string {
	return alias + `.id, COALESCE(` + alias + `.external_id, ''), ` + alias + `.title, ` + alias + `.description, ` +
		alias + `.thumbnail_url, ` + alias + `.area, ` + alias + `.category, ` + alias + `.instructions, ` +
		alias + `.ingredients, ` + alias + `.measures, ` + alias + `.cooking_time, ` + alias + `.created_at, ` + alias + `.updated_at`
}

func scanRecipe(row interface{ Scan(...any) error }) (models.Recipe, error) {
	var r models.Recipe
	var ingredientsRaw, measuresRaw []byte
	err := row.Scan(&r.ID, &r.ExternalID, &r.Title, &r.Description, &r.ThumbnailURL,
		&r.Area, &r.Category, &r.Instructions, &ingredientsRaw, &measuresRaw, &r.CookingTime,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return r, err
	}
	// Best effort: malformed arrays decode to empty lists.
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

func queryRecipes(c *gin.Context, query string, args ...any) {
	rows, err := db.GetDB().Query(query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	defer rows.Close()

	var recipes []models.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			continue
		}
		recipes = append(recipes, r)
	}
	if recipes == nil {
		recipes = []models.Recipe{}
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func ListRecipes(c *gin.Context) {
	if category := c.Query("category"); category != "" {
		queryRecipes(c, "SELECT "+recipeColumns+" FROM recipes WHERE category = $1 ORDER BY title", category)
		return
	}
	queryRecipes(c, "SELECT "+recipeColumns+" FROM recipes ORDER BY created_at DESC")
}

func SearchRecipes(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter q is required"})
		return
	}
	queryRecipes(c, "SELECT "+recipeColumns+" FROM recipes WHERE title ILIKE '%' || $1 || '%' ORDER BY title", q)
}

func GetRecipe(c *gin.Context) {
	row := db.GetDB().QueryRow("SELECT "+recipeColumns+" FROM recipes WHERE id::text = $1 OR external_id = $1", c.Param("id"))
	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, r)
}

type recipePayload struct {
	ExternalID   string   `json:"external_id"`
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	ThumbnailURL string   `json:"thumbnail_url"`
	Area         string   `json:"area"`
	Category     string   `json:"category"`
	Instructions string   `json:"instructions"`
	Ingredients  []string `json:"ingredients"`
	Measures     []string `json:"measures"`
	CookingTime  *int     `json:"cooking_time"`
}

func CreateRecipe(c *gin.Context) {
	var req recipePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := upsertRecipe(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create recipe"})
		return
	}

	row := db.GetDB().QueryRow("SELECT "+recipeColumns+" FROM recipes WHERE id = $1", id)
	r, err := scanRecipe(row)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusCreated, r)
}

// upsertRecipe inserts a recipe, or refreshes the stored copy when the
// external id is already known (clients re-send full recipe details when
// saving or planning).
func upsertRecipe(req recipePayload) (string, error) {
	ingredients, _ := json.Marshal(req.Ingredients)
	measures, _ := json.Marshal(req.Measures)
	if req.Ingredients == nil {
		ingredients = []byte("[]")
	}
	if req.Measures == nil {
		measures = []byte("[]")
	}

	var externalID any
	if req.ExternalID != "" {
		externalID = req.ExternalID
	}

	var id string
	err := db.GetDB().QueryRow(`
		INSERT INTO recipes (external_id, title, description, thumbnail_url, area, category,
			instructions, ingredients, measures, cooking_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (external_id) DO UPDATE
		SET title = EXCLUDED.title, description = EXCLUDED.description,
			thumbnail_url = EXCLUDED.thumbnail_url, area = EXCLUDED.area,
			category = EXCLUDED.category, instructions = EXCLUDED.instructions,
			ingredients = EXCLUDED.ingredients, measures = EXCLUDED.measures,
			cooking_time = EXCLUDED.cooking_time, updated_at = NOW()
		RETURNING id
	`, externalID, req.Title, req.Description, req.ThumbnailURL, req.Area, req.Category,
		req.Instructions, string(ingredients), string(measures), req.CookingTime).Scan(&id)
	return id, err
}

// resolveRecipe returns the internal id for a save/plan request: full
// recipe details are upserted, a bare id is looked up by internal or
// external id.
func resolveRecipe(req saveRecipeRequest) (string, error) {
	if req.Recipe != nil {
		if req.Recipe.ExternalID == "" {
			req.Recipe.ExternalID = req.RecipeID
		}
		id, err := upsertRecipe(*req.Recipe)
		if err != nil {
			return "", apperr.Internal(err)
		}
		return id, nil
	}

	if req.RecipeID == "" {
		return "", apperr.ValidationFailed("recipe_id is required")
	}

	var id string
	err := db.GetDB().QueryRow(
		"SELECT id FROM recipes WHERE id::text = $1 OR external_id = $1", req.RecipeID).Scan(&id)
	if err == sql.ErrNoRows {
		return "", apperr.NotFound("recipe not found")
	} else if err != nil {
		return "", apperr.Internal(err)
	}
	return id, nil
}
