package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"nutriguide/apperr"
	"nutriguide/config"
)

const assistantSystemPrompt = "You are NutriGuide, a friendly nutrition and meal-planning assistant. " +
	"Answer questions about recipes, ingredients, nutrition and meal plans. Keep answers short and practical."

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// AssistantClient talks to an OpenAI-compatible chat-completion endpoint.
type AssistantClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewAssistantClient() *AssistantClient {
	return &AssistantClient{
		apiKey:  config.GetEnv("ASSISTANT_API_KEY", ""),
		baseURL: config.GetEnv("ASSISTANT_BASE_URL", "https://api.openai.com/v1"),
		model:   config.GetEnv("ASSISTANT_MODEL", "gpt-4o-mini"),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Chat sends one user message and returns the assistant's reply. Upstream
// failures surface as internal errors without exposing the provider's
// response body to callers.
func (c *AssistantClient) Chat(ctx context.Context, userMessage string) (string, error) {
	if c.apiKey == "" {
		return "", apperr.Internal(fmt.Errorf("ASSISTANT_API_KEY not configured"))
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: assistantSystemPrompt},
			{Role: "user", Content: userMessage},
		},
		MaxTokens:   500,
		Temperature: 0.7,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", apperr.Internal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(payload))
	if err != nil {
		return "", apperr.Internal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperr.Internal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", apperr.Internal(fmt.Errorf("assistant API returned status %d", resp.StatusCode))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", apperr.Internal(err)
	}
	if len(parsed.Choices) == 0 {
		return "", apperr.Internal(fmt.Errorf("assistant API returned no choices"))
	}

	return parsed.Choices[0].Message.Content, nil
}
