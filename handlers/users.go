package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nutriguide/services"
)

func GetProfile(c *gin.Context) {
	user, err := userService.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	profile := services.ToProfile(user)
	c.JSON(http.StatusOK, gin.H{
		"profile":               profile,
		"completion_percentage": services.ProfileCompletionPercentage(profile),
		"missing_fields":        services.MissingProfileFields(profile),
		"is_complete":           services.IsProfileComplete(profile),
	})
}

func UpdateProfile(c *gin.Context) {
	var patch services.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	profile, err := services.UpdateProfile(c.Request.Context(), userStore, currentUserID(c), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := userService.ChangePassword(c.Request.Context(), currentUserID(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed"})
}

func GetSubscription(c *gin.Context) {
	user, err := userService.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.SubscriptionStatusOf(user, time.Now()))
}

func DeleteAccount(c *gin.Context) {
	if err := userService.Delete(c.Request.Context(), currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}
