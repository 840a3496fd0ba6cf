package google

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

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Config holds Google Generative Language client configuration
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client implements the providers.Client interface for Google Gemini models
type Client struct {
	config     Config
	modelName  string
	httpClient *http.Client
}

// NewClient creates a new Google client for one model
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
	return models.ProviderGoogle
}

// ModelName returns the wire-level model name
func (c *Client) ModelName() string {
	return c.modelName
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature     float64  `json:"temperature"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	TopP            float64  `json:"topP,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends a prompt to the generateContent endpoint
func (c *Client) Generate(ctx context.Context, prompt string, opts providers.GenerateOptions) (*providers.Generation, error) {
	start := time.Now()

	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxTokens,
			TopP:            opts.TopP,
			StopSequences:   opts.StopSequences,
		},
	}
	if opts.SystemPrompt != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: opts.SystemPrompt}}}
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

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.config.BaseURL, c.modelName, c.config.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewProviderError(c.Provider(), "REQUEST_ERROR", "failed to create request", 0, false, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewProviderError(c.Provider(), "HTTP_ERROR", "HTTP request failed", 0, true, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.NewProviderError(c.Provider(), "READ_ERROR", "failed to read response", httpResp.StatusCode, false, err)
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, providers.NewProviderError(c.Provider(), "PARSE_ERROR", "failed to parse response", httpResp.StatusCode, false, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("google returned status %d", httpResp.StatusCode)
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		retryable := httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500
		return nil, providers.NewProviderError(c.Provider(), "API_ERROR", msg, httpResp.StatusCode, retryable, nil)
	}

	text := ""
	if len(parsed.Candidates) > 0 {
		for _, p := range parsed.Candidates[0].Content.Parts {
			text += p.Text
		}
	}
	if text == "" {
		return nil, providers.NewProviderError(c.Provider(), "EMPTY_RESPONSE", "google returned no content", httpResp.StatusCode, true, nil)
	}

	return &providers.Generation{
		Content:      text,
		InputTokens:  parsed.UsageMetadata.PromptTokenCount,
		OutputTokens: parsed.UsageMetadata.CandidatesTokenCount,
		Latency:      time.Since(start),
		Timestamp:    time.Now(),
	}, nil
}

// IsAvailable checks reachability of the model resource
func (c *Client) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/models/%s?key=%s", c.config.BaseURL, c.modelName, c.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
