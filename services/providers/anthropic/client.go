package anthropic

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

const (
	defaultBaseURL = "https://api.anthropic.com/v1"
	apiVersion     = "2023-06-01"
)

// Config holds Anthropic client configuration
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client implements the providers.Client interface for Anthropic
type Client struct {
	config     Config
	modelName  string
	httpClient *http.Client
}

// NewClient creates a new Anthropic client for one model
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
	return models.ProviderAnthropic
}

// ModelName returns the wire-level model name
func (c *Client) ModelName() string {
	return c.modelName
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model         string    `json:"model"`
	MaxTokens     int       `json:"max_tokens"`
	Messages      []message `json:"messages"`
	System        string    `json:"system,omitempty"`
	Temperature   float64   `json:"temperature"`
	TopP          float64   `json:"top_p,omitempty"`
	StopSequences []string  `json:"stop_sequences,omitempty"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends a prompt to the messages endpoint
func (c *Client) Generate(ctx context.Context, prompt string, opts providers.GenerateOptions) (*providers.Generation, error) {
	start := time.Now()

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1500
	}

	req := messagesRequest{
		Model:         c.modelName,
		MaxTokens:     maxTokens,
		Messages:      []message{{Role: "user", Content: prompt}},
		System:        opts.SystemPrompt,
		Temperature:   opts.Temperature,
		TopP:          opts.TopP,
		StopSequences: opts.StopSequences,
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

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewProviderError(c.Provider(), "REQUEST_ERROR", "failed to create request", 0, false, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.config.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewProviderError(c.Provider(), "HTTP_ERROR", "HTTP request failed", 0, true, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.NewProviderError(c.Provider(), "READ_ERROR", "failed to read response", httpResp.StatusCode, false, err)
	}

	var parsed messagesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, providers.NewProviderError(c.Provider(), "PARSE_ERROR", "failed to parse response", httpResp.StatusCode, false, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("anthropic returned status %d", httpResp.StatusCode)
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		retryable := httpResp.StatusCode == http.StatusTooManyRequests ||
			httpResp.StatusCode == 529 || httpResp.StatusCode >= 500
		return nil, providers.NewProviderError(c.Provider(), "API_ERROR", msg, httpResp.StatusCode, retryable, nil)
	}

	text := ""
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return nil, providers.NewProviderError(c.Provider(), "EMPTY_RESPONSE", "anthropic returned no content", httpResp.StatusCode, true, nil)
	}

	return &providers.Generation{
		Content:      text,
		InputTokens:  parsed.Usage.InputTokens,
		OutputTokens: parsed.Usage.OutputTokens,
		Latency:      time.Since(start),
		Timestamp:    time.Now(),
	}, nil
}

// IsAvailable probes the API with a minimal request
func (c *Client) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/models", nil)
	if err != nil {
		return false
	}
	req.Header.Set("x-api-key", c.config.APIKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
