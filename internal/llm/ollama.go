package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"codeatlas/pkg/llm"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "llama3"
)

func init() {
	llm.RegisterProvider("ollama", newOllamaClient)
}

// ollamaClient implements llm.Client against a local Ollama server's chat
// API. No API key is required.
type ollamaClient struct {
	baseURL string
	model   string
	client  *http.Client
}

func newOllamaClient(cfg llm.Config) (llm.Client, error) {
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}

	return &ollamaClient{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{},
	}, nil
}

// ollamaRequest is the request body for the Ollama chat API.
type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaResponse struct {
	Message         ollamaMessage `json:"message"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
	Error           string        `json:"error"`
}

// Chat sends a system prompt and messages to the Ollama chat API and returns
// a response. The system prompt travels as a leading system-role message.
func (c *ollamaClient) Chat(ctx context.Context, systemPrompt string, messages []llm.Message) (*llm.Response, error) {
	apiMessages := make([]ollamaMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		apiMessages = append(apiMessages, ollamaMessage{
			Role:    string(llm.RoleSystem),
			Content: systemPrompt,
		})
	}
	for _, msg := range messages {
		apiMessages = append(apiMessages, ollamaMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	reqBody := ollamaRequest{
		Model:    c.model,
		Messages: apiMessages,
		Stream:   false,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr ollamaResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("Ollama API error (HTTP %d): %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("Ollama API error (HTTP %d): %s", resp.StatusCode, string(respBody))
	}

	var apiResp ollamaResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &llm.Response{
		Content: apiResp.Message.Content,
		Usage: llm.TokenUsage{
			InputTokens:  apiResp.PromptEvalCount,
			OutputTokens: apiResp.EvalCount,
		},
	}, nil
}

func (c *ollamaClient) Model() string {
	return c.model
}

func (c *ollamaClient) Provider() string {
	return "ollama"
}

func (c *ollamaClient) Close() error {
	return nil
}
