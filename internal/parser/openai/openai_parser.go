package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"invoiceai/internal/config"
	"invoiceai/internal/domain"
	"invoiceai/internal/parser"
	"invoiceai/internal/port"
	"invoiceai/pkg/logger"
)

const (
	CerebrasBaseURL = "https://api.cerebras.ai/v1"
	OpenAIBaseURL   = "https://api.openai.com/v1"

	defaultMaxTokens = 2000
	defaultTimeout   = 60 * time.Second
)

type providerDefaults struct {
	baseURL string
	model   string
}

var defaults = map[string]providerDefaults{
	"cerebras": {baseURL: CerebrasBaseURL, model: "llama3.1-70b"},
	"openai":   {baseURL: OpenAIBaseURL, model: "gpt-4o-mini"},
}

func init() {
	for name := range defaults {
		parser.RegisterProvider(name, func(cfg *config.CompletionConfig, log *slog.Logger) (port.InvoiceExtractor, error) {
			return NewClient(cfg).WithLogger(log), nil
		})
	}
}

// Client implements port.InvoiceExtractor against an OpenAI-compatible
// chat completions endpoint. It makes exactly one call per extraction and
// never retries, so a failed request is never billed twice.
type Client struct {
	apiKey      string
	model       string
	endpoint    string
	temperature float64
	maxTokens   int
	client      *http.Client
	logger      *slog.Logger
}

// NewClient creates a completion client from config, filling provider defaults.
func NewClient(cfg *config.CompletionConfig) *Client {
	d := defaults[cfg.Provider]
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = d.baseURL
	}
	if baseURL == "" {
		baseURL = CerebrasBaseURL
	}
	return newClient(cfg, strings.TrimRight(baseURL, "/")+"/chat/completions")
}

// NewClientWithEndpoint creates a client pointing at a full chat completions URL (for testing).
func NewClientWithEndpoint(cfg *config.CompletionConfig, endpoint string) *Client {
	return newClient(cfg, endpoint)
}

func newClient(cfg *config.CompletionConfig, endpoint string) *Client {
	model := cfg.Model
	if model == "" {
		model = defaults[cfg.Provider].model
	}
	if model == "" {
		model = defaults["cerebras"].model
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:      cfg.APIKey,
		model:       model,
		endpoint:    endpoint,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		client:      &http.Client{Timeout: timeout},
		logger:      slog.Default(),
	}
}

// WithLogger replaces the client's logger.
func (c *Client) WithLogger(l *slog.Logger) *Client {
	if l != nil {
		c.logger = l
	}
	return c
}

// Model returns the model identifier sent with every request.
func (c *Client) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat responseFormat `json:"response_format"`
}

// apiResponse models the chat completions response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *Client) ExtractInvoice(ctx context.Context, text string) (*domain.InvoiceRecord, error) {
	log := logger.FromContext(ctx, c.logger)
	start := time.Now()
	log.Info("llm.extract.start", "model", c.model, "text_len", len(text))

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: parser.BuildSystemPrompt()},
			{Role: "user", Content: parser.BuildUserPrompt(text)},
		},
		Temperature:    c.temperature,
		MaxTokens:      c.maxTokens,
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	raw, err := c.post(ctx, reqBody)
	if err != nil {
		log.Error("llm.extract.http_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	record, err := parseResponse(raw)
	if err != nil {
		log.Error("llm.extract.parse_error",
			"kind", domain.KindOf(err), "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	log.Info("llm.extract.ok",
		"line_items", len(record.LineItems),
		"currency", record.Currency,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return record, nil
}

func (c *Client) post(ctx context.Context, body chatRequest) ([]byte, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.NewUpstreamError(0, "", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewUpstreamError(resp.StatusCode, "", fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.NewUpstreamError(resp.StatusCode, string(respBody), nil)
	}
	return respBody, nil
}

func parseResponse(body []byte) (*domain.InvoiceRecord, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, domain.NewMalformedUpstreamResponse("undecodable body", err)
	}
	if len(resp.Choices) == 0 {
		return nil, domain.NewMalformedUpstreamResponse("no choices", nil)
	}

	content := []byte(strings.TrimSpace(resp.Choices[0].Message.Content))

	var generic any
	if err := json.Unmarshal(content, &generic); err != nil {
		return nil, domain.NewInvalidJSON(err)
	}
	if err := parser.ValidateInvoice(generic); err != nil {
		return nil, domain.NewSchemaValidationError(err)
	}

	var record domain.InvoiceRecord
	if err := json.Unmarshal(content, &record); err != nil {
		return nil, domain.NewSchemaValidationError(err)
	}
	record.ApplyDefaults()
	return &record, nil
}
