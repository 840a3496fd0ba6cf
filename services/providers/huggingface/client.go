package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/promptpilot/model-router/models"
	"github.com/promptpilot/model-router/services/providers"
)

const defaultBaseURL = "https://router.huggingface.co/v1"

// Config holds Hugging Face inference router client configuration
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client implements the providers.Client interface for Hugging Face hosted
// models via the OpenAI-compatible router endpoint.
type Client struct {
	config     Config
	modelName  string
	httpClient *http.Client
}

// NewClient creates a new Hugging Face client for one model
func NewClient(config Config, modelName string) (*Client, error) {
	if config.APIKey == "" {
		return nil, providers.ErrMissingCredentials
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		config:     config,
		modelName:  modelName,
		httpClient: &http.Client{Timeout: config.Timeout},
	}, nil
}

// Provider returns the vendor tag
func (c *Client) Provider() models.Provider {
	return models.ProviderHuggingFace
}

// ModelName returns the wire-level model name
func (c *Client) ModelName() string {
	return c.modelName
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends a prompt to the OpenAI-compatible chat endpoint
func (c *Client) Generate(ctx context.Context, prompt string, opts providers.GenerateOptions) (*providers.Generation, error) {
	start := time.Now()

	messages := make([]chatMessage, 0, 2)
	if opts.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: opts.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	req := chatRequest{
		Model:       c.modelName,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		Stop:        opts.StopSequences,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, providers.NewProviderError(c.Provider(), "MARSHAL_ERROR", "failed to marshal request", 0, false, err)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewProviderError(c.Provider(), "REQUEST_ERROR", "failed to create request", 0, false, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewProviderError(c.Provider(), "HTTP_ERROR", "HTTP request failed", 0, true, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.NewProviderError(c.Provider(), "READ_ERROR", "failed to read response", httpResp.StatusCode, false, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, providers.NewProviderError(c.Provider(), "PARSE_ERROR", "failed to parse response", httpResp.StatusCode, false, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("huggingface returned status %d", httpResp.StatusCode)
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		// 503 usually means the model is cold-loading.
		retryable := httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500
		return nil, providers.NewProviderError(c.Provider(), "API_ERROR", msg, httpResp.StatusCode, retryable, nil)
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, providers.NewProviderError(c.Provider(), "EMPTY_RESPONSE", "huggingface returned no content", httpResp.StatusCode, true, nil)
	}

	return &providers.Generation{
		Content:      parsed.Choices[0].Message.Content,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
		Latency:      time.Since(start),
		Timestamp:    time.Now(),
	}, nil
}

// IsAvailable checks reachability of the router endpoint
func (c *Client) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/models", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
