package eventservices

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jiaming2012/rsa-tracker/src/models"
)

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequestDTO struct {
	Model       string                  `json:"model"`
	Messages    []chatCompletionMessage `json:"messages"`
	Temperature float64                 `json:"temperature"`
	MaxTokens   int                     `json:"max_tokens"`
	Stream      bool                    `json:"stream"`
}

type chatCompletionResponseDTO struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
	} `json:"choices"`
}

// AssistClient calls a chat-completions endpoint to produce conversational
// replies, feeding it the caller's recent conversation history.
type AssistClient struct {
	BaseURL      string
	BearerToken  string
	Model        string
	SystemPrompt string
}

func (c *AssistClient) QueryChatCompletion(history []models.ChatEntry, prompt string) (string, error) {
	client := http.Client{
		Timeout: 60 * time.Second,
	}

	messages := []chatCompletionMessage{
		{Role: "system", Content: c.SystemPrompt},
	}

	for _, entry := range history {
		messages = append(messages, chatCompletionMessage{Role: entry.Role, Content: entry.Content})
	}

	messages = append(messages, chatCompletionMessage{Role: "user", Content: prompt})

	dto := chatCompletionRequestDTO{
		Model:       c.Model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   600,
		Stream:      false,
	}

	payload, err := json.Marshal(dto)
	if err != nil {
		return "", fmt.Errorf("QueryChatCompletion: failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/chat/completions", c.BaseURL), bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("QueryChatCompletion: failed to create request: %w", err)
	}

	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.BearerToken))

	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("QueryChatCompletion: failed to fetch completion: %w", err)
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("QueryChatCompletion: failed to fetch completion, http code %v", res.Status)
	}

	var respDTO chatCompletionResponseDTO
	if err := json.NewDecoder(res.Body).Decode(&respDTO); err != nil {
		return "", fmt.Errorf("QueryChatCompletion: failed to decode json: %w", err)
	}

	if len(respDTO.Choices) == 0 {
		return "", fmt.Errorf("QueryChatCompletion: response contained no choices")
	}

	return respDTO.Choices[0].Message.Content, nil
}

func NewAssistClient(baseURL, bearerToken, model, systemPrompt string) *AssistClient {
	return &AssistClient{
		BaseURL:      baseURL,
		BearerToken:  bearerToken,
		Model:        model,
		SystemPrompt: systemPrompt,
	}
}
