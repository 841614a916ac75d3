package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"nutriguide/apperr"
	"nutriguide/services"
	"nutriguide/store"
)

var (
	userStore   store.UserStore
	userService *services.UserService
	assistant   *services.AssistantClient
)

// Init wires the handler package's collaborators. Called once from main.
func Init(users store.UserStore, svc *services.UserService, ai *services.AssistantClient) {
	userStore = users
	userService = svc
	assistant = ai
}

// respondError maps error kinds to HTTP statuses. Internal errors are
// logged with detail but answered with a generic message.
func respondError(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperr.KindConflict, apperr.KindInvalidTransition:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case apperr.KindValidationFailed:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperr.KindUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

func currentUserID(c *gin.Context) string {
	id, _ := c.Get("userID")
	s, _ := id.(string)
	return s
}
