package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"familyquest/logger"

	"go.uber.org/zap"
)

const (
	DefaultGroqURL = "https://api.groq.com/openai/v1/chat/completions"

	QuestDescriptionFallback = "An important mission for the family's heroes."
	BossTauntFallback        = "You will never get past me!"
)

type GroqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GroqRequest struct {
	Model       string        `json:"model"`
	Messages    []GroqMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type GroqResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

var groqHTTPClient = &http.Client{Timeout: 30 * time.Second}

// GroqConfigured reports whether an API key is present.
func GroqConfigured() bool {
	return os.Getenv("GROQ_API_KEY") != ""
}

// CallGroqAPI calls the chat completions endpoint and returns the first choice.
func CallGroqAPI(ctx context.Context, messages []GroqMessage, systemPrompt string) (string, error) {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GROQ_API_KEY not set")
	}

	allMessages := []GroqMessage{}
	if systemPrompt != "" {
		allMessages = append(allMessages, GroqMessage{Role: "system", Content: systemPrompt})
	}
	allMessages = append(allMessages, messages...)

	model := os.Getenv("GROQ_MODEL")
	if model == "" {
		model = "llama-3.1-8b-instant"
	}
	url := os.Getenv("GROQ_URL")
	if url == "" {
		url = DefaultGroqURL
	}

	jsonData, err := json.Marshal(GroqRequest{
		Model:       model,
		Messages:    allMessages,
		Temperature: 0.9,
		MaxTokens:   200,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := groqHTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("groq API error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var groqResp GroqResponse
	if err := json.NewDecoder(resp.Body).Decode(&groqResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(groqResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return strings.TrimSpace(groqResp.Choices[0].Message.Content), nil
}

// GenerateQuestDescription writes a short epic description for a chore.
// It never fails: without a key or on any error it returns fixed text.
func GenerateQuestDescription(ctx context.Context, title string) string {
	if !GroqConfigured() {
		return QuestDescriptionFallback
	}
	prompt := fmt.Sprintf("Write a short, funny, RPG-style quest description (max 2 sentences) for a household chore titled: %q. Make it sound epic.", title)
	out, err := CallGroqAPI(ctx, []GroqMessage{{Role: "user", Content: prompt}}, "")
	if err != nil || out == "" {
		logger.L().Warn("quest description generation failed", zap.Error(err))
		return QuestDescriptionFallback
	}
	return out
}

// GenerateBossTaunt writes a one-line taunt from a gate monster.
func GenerateBossTaunt(ctx context.Context, monsterName string) string {
	if !GroqConfigured() {
		return BossTauntFallback
	}
	prompt := fmt.Sprintf("Write a very short (1 sentence) funny taunt from a household monster named %q to a family member trying to clean up.", monsterName)
	out, err := CallGroqAPI(ctx, []GroqMessage{{Role: "user", Content: prompt}}, "")
	if err != nil || out == "" {
		logger.L().Warn("boss taunt generation failed", zap.Error(err))
		return BossTauntFallback
	}
	return out
}
