package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"nutriguide/config"
	"nutriguide/db"
	"nutriguide/models"
)

func AssistantChat(c *gin.Context) {
	if !config.LoadFeatures().AssistantEnabled {
		c.JSON(http.StatusNotFound, gin.H{"error": "Assistant not enabled"})
		return
	}

	userID := currentUserID(c)

	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message cannot be blank"})
		return
	}

	reply, err := assistant.Chat(c.Request.Context(), message)
	if err != nil {
		respondError(c, err)
		return
	}

	var msg models.ChatMessage
	msg.UserID = userID
	msg.Message = message
	msg.Response = reply
	err = db.GetDB().QueryRow(`
		INSERT INTO chat_messages (user_id, message, response)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, userID, message, reply).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save chat message"})
		return
	}

	c.JSON(http.StatusOK, msg)
}

func AssistantHistory(c *gin.Context) {
	userID := currentUserID(c)

	rows, err := db.GetDB().Query(`
		SELECT id, message, response, created_at
		FROM chat_messages
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 100
	`, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	defer rows.Close()

	var history []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.Message, &m.Response, &m.CreatedAt); err != nil {
			continue
		}
		m.UserID = userID
		history = append(history, m)
	}
	if history == nil {
		history = []models.ChatMessage{}
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}
