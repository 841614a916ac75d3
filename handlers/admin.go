package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"nutriguide/config"
	"nutriguide/models"
	"nutriguide/services"
)

// AdminLogin validates against the configuration-supplied credential pair
// and issues a token carrying the ADMIN role. Accounts whose role column is
// ADMIN can skip this and use their regular token instead.
func AdminLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	creds := config.LoadAdminCredentials()
	if creds.Email == "" || creds.Password == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Admin login not configured"})
		return
	}
	if req.Email != creds.Email || req.Password != creds.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "admin",
		"email":   creds.Email,
		"role":    models.RoleAdmin,
		"exp":     time.Now().Add(time.Hour * 24).Unix(),
	})
	signed, err := token.SignedString(config.JWTSecret())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": signed, "role": models.RoleAdmin})
}

// AdminCreateUser is registration with the tier chosen directly, without
// the premium signup feature gate.
func AdminCreateUser(c *gin.Context) {
	var req struct {
		RegisterRequest
		Tier models.Tier `json:"tier"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := userService.Register(c.Request.Context(), services.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Premium:   req.Tier == models.TierPremium,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, services.ToProfile(user))
}

func AdminListUsers(c *gin.Context) {
	views, err := userService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": views})
}

func AdminGetUser(c *gin.Context) {
	user, err := userService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.ToProfile(user))
}

func AdminUpdateUser(c *gin.Context) {
	var req struct {
		services.ProfilePatch
		Tier *models.Tier `json:"tier"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	view, err := userService.AdminUpdate(c.Request.Context(), c.Param("id"), req.ProfilePatch, req.Tier)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func AdminDeleteUser(c *gin.Context) {
	if err := userService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

func AdminUpgradeUser(c *gin.Context) {
	user, err := userService.UpgradeToPremium(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.ToProfile(user))
}

func AdminDowngradeUser(c *gin.Context) {
	user, err := userService.DowngradeToRegular(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.ToProfile(user))
}

func AdminExtendSubscription(c *gin.Context) {
	var req struct {
		Months int `json:"months" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := userService.ExtendSubscription(c.Request.Context(), c.Param("id"), req.Months)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.ToProfile(user))
}
