package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nutriguide/db"
	"nutriguide/models"
	"nutriguide/services"
)

const dateLayout = "2006-01-02"

func GetPlan(c *gin.Context) {
	userID := currentUserID(c)

	start, err := time.Parse(dateLayout, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
		return
	}
	end, err := time.Parse(dateLayout, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
		return
	}

	rows, err := db.GetDB().Query(`
		SELECT p.id, p.recipe_id, p.planned_date, p.completed, p.created_at, `+prefixedRecipeColumns("r")+`
		FROM planner_entries p
		JOIN recipes r ON r.id = p.recipe_id
		WHERE p.user_id = $1 AND p.planned_date BETWEEN $2 AND $3
		ORDER BY p.planned_date, p.created_at
	`, userID, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	defer rows.Close()

	var entries []models.PlannerEntry
	for rows.Next() {
		var e models.PlannerEntry
		var plannedDate time.Time
		var r models.Recipe
		var ingredientsRaw, measuresRaw []byte
		err := rows.Scan(&e.ID, &e.RecipeID, &plannedDate, &e.Completed, &e.CreatedAt,
			&r.ID, &r.ExternalID, &r.Title, &r.Description, &r.ThumbnailURL,
			&r.Area, &r.Category, &r.Instructions, &ingredientsRaw, &measuresRaw, &r.CookingTime,
			&r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			continue
		}
		_ = json.Unmarshal(ingredientsRaw, &r.Ingredients)
		_ = json.Unmarshal(measuresRaw, &r.Measures)
		e.UserID = userID
		e.PlannedDate = plannedDate.Format(dateLayout)
		e.Recipe = &r
		entries = append(entries, e)
	}
	if entries == nil {
		entries = []models.PlannerEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func AddToPlan(c *gin.Context) {
	userID := currentUserID(c)

	var req struct {
		saveRecipeRequest
		PlannedDate string `json:"planned_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plannedDate, err := time.Parse(dateLayout, req.PlannedDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "planned_date must be YYYY-MM-DD"})
		return
	}

	user, err := userService.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	limit := services.MaxMealPlans(user)
	if limit != services.Unlimited {
		var count int
		if err := db.GetDB().QueryRow(
			"SELECT COUNT(*) FROM planner_entries WHERE user_id = $1 AND planned_date >= CURRENT_DATE",
			userID).Scan(&count); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		if count >= limit {
			c.JSON(http.StatusForbidden, gin.H{"error": "Meal plan limit reached", "limit": limit})
			return
		}
	}

	recipeID, err := resolveRecipe(req.saveRecipeRequest)
	if err != nil {
		respondError(c, err)
		return
	}

	var entry models.PlannerEntry
	entry.UserID = userID
	entry.RecipeID = recipeID
	entry.PlannedDate = req.PlannedDate
	err = db.GetDB().QueryRow(`
		INSERT INTO planner_entries (user_id, recipe_id, planned_date)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, userID, recipeID, plannedDate).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add to plan"})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func CompletePlannerEntry(c *gin.Context) {
	userID := currentUserID(c)

	var req struct {
		Completed *bool `json:"completed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := db.GetDB().Exec(`
		UPDATE planner_entries SET completed = $1 WHERE id = $2 AND user_id = $3
	`, *req.Completed, c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Planner entry not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Planner entry updated"})
}

func RemoveFromPlan(c *gin.Context) {
	userID := currentUserID(c)

	// Ownership is part of the WHERE clause: someone else's entry reads as
	// not found, not forbidden.
	res, err := db.GetDB().Exec(
		"DELETE FROM planner_entries WHERE id = $1 AND user_id = $2", c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Planner entry not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Planner entry removed"})
}
