package openai_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/minutelab/minuted/internal/conversation"
)

const (
	openaiAPIURL = "https://api.openai.com/v1/chat/completions"
)

// client implements the client interface using OpenAI's API
type client struct {
	apiKey          string
	completionModel string
	temperature     float64
	maxTokens       int
	httpClient      *http.Client
	baseURL         string
}

// Message represents a message in a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// request represents a request to the OpenAI API
type request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// response represents a response from the OpenAI API
type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(apiKey, completionModel string, temperature float64, maxTokens int, timeout time.Duration) *client {
	return &client{
		apiKey:          apiKey,
		completionModel: completionModel,
		temperature:     temperature,
		maxTokens:       maxTokens,
		httpClient:      &http.Client{Timeout: timeout},
		baseURL:         openaiAPIURL,
	}
}

// classifyPrompt lists the taxonomy verbatim; the model must answer with
// one of these names and nothing else.
func classifyPrompt() string {
	var b strings.Builder
	b.WriteString("You label a single user request from a ChatGPT conversation with exactly one category.\n\nCategories:\n")
	for i, c := range conversation.Categories {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c)
	}
	b.WriteString("\nReturn only the category name. No numbering, no quotes, no explanation.")
	return b.String()
}

// ClassifyTurn labels userText with one of the flow categories. The raw
// model output is returned as-is; normalization against the taxonomy is
// the caller's concern.
func (c *client) ClassifyTurn(ctx context.Context, userText string) (string, error) {
	messages := []Message{
		{Role: "system", Content: classifyPrompt()},
		{Role: "user", Content: userText},
	}
	out, err := c.sendRequest(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("classify turn: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// FlowTitle produces a short title for a flow from its first user turn.
// lengthHint is a character band such as "15-20".
func (c *client) FlowTitle(ctx context.Context, userText string, lengthHint string) (string, error) {
	system := fmt.Sprintf(
		"Write a short title, %s characters, in the same language as the text, summarizing what the user is asking for. Return only the title, no quotes.",
		lengthHint,
	)
	messages := []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: userText},
	}
	out, err := c.sendRequest(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("flow title: %w", err)
	}
	return strings.Trim(strings.TrimSpace(out), `"“”`), nil
}

// sendRequest sends a request to the OpenAI API
func (c *client) sendRequest(ctx context.Context, messages []Message) (string, error) {
	requestBody := request{
		Model:       c.completionModel,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status: %d", resp.StatusCode)
	}

	var openaiResp response
	if err := json.NewDecoder(resp.Body).Decode(&openaiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(openaiResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return openaiResp.Choices[0].Message.Content, nil
}
