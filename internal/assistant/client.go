// Package assistant talks to the generative-language API that powers the
// in-app vehicle assistant.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ukydev/engineeye/internal/apperr"
	"github.com/ukydev/engineeye/internal/metrics"
	"github.com/ukydev/engineeye/internal/models"
)

// SystemPrompt frames every question sent to the model.
const SystemPrompt = "You are an expert assistant on vehicle maintenance, vehicle problems, engines and automobiles. " +
	"Help the user with anything related to their vehicle. Keep your answers informative, thorough and technical, " +
	"but explain them in plain language an ordinary car owner can follow."

const (
	questionPrefix  = "\n\nUser question: "
	temperature     = 0.7
	maxOutputTokens = 800
	maxErrorBody    = 64 << 10
)

// Config configures a Client.
type Config struct {
	APIKey        string
	Model         string
	FallbackModel string
	BaseURL       string
	Timeout       time.Duration
	// Upstream requests allowed per minute. Zero means unlimited.
	RequestsPerMinute int
}

// Client sends questions to the model, retrying once against the fallback
// model when the primary model is reported missing.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
}

// NewClient creates a Client.
func NewClient(cfg Config, m *metrics.Metrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.RequestsPerMinute)
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		metrics:    m,
	}
}

// APIError is an error reported by the API itself.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("generative api %d %s: %s", e.StatusCode, e.Status, e.Message)
}

// modelMissing reports whether err says the requested model does not exist.
func modelMissing(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && strings.Contains(strings.ToLower(apiErr.Message), "not found")
}

// Part is a piece of message text.
type Part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Ask sends prompt to the model and returns its answer.
func (c *Client) Ask(ctx context.Context, prompt string) (*models.ChatResponse, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, apperr.Validation("prompt is required")
	}
	if c.cfg.APIKey == "" {
		return nil, apperr.ExternalAPI("assistant is not configured", nil)
	}

	text, err := c.generate(ctx, c.cfg.Model, prompt)
	if err == nil {
		c.metrics.ChatRequest(c.cfg.Model, "ok")
		return &models.ChatResponse{Text: text, Model: c.cfg.Model}, nil
	}
	c.metrics.ChatRequest(c.cfg.Model, "error")

	fallback := c.cfg.FallbackModel
	if !modelMissing(err) || fallback == "" || fallback == c.cfg.Model {
		log.WithError(err).WithField("model", c.cfg.Model).Warn("Chat request failed")
		return nil, apperr.ExternalAPI("the assistant could not answer", err)
	}

	log.WithFields(log.Fields{"model": c.cfg.Model, "fallback": fallback}).Info("Model not found, retrying with fallback model")
	c.metrics.IncrementChatFallbacks()

	text, err = c.generate(ctx, fallback, prompt)
	if err != nil {
		c.metrics.ChatRequest(fallback, "error")
		log.WithError(err).WithField("model", fallback).Warn("Fallback chat request failed")
		return nil, apperr.ExternalAPI("no model answered; check which models the API key can use", err)
	}
	c.metrics.ChatRequest(fallback, "ok")
	return &models.ChatResponse{Text: text, Model: fallback}, nil
}

func (c *Client) generate(ctx context.Context, model, prompt string) (string, error) {
	body := generateRequest{
		Contents: []content{{Parts: []Part{{Text: SystemPrompt + questionPrefix + prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxOutputTokens,
		},
	}

	var resp generateResponse
	if err := c.do(ctx, http.MethodPost, "/models/"+url.PathEscape(model)+":generateContent", body, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("response has no candidates")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// ModelInfo describes one model the API key can use.
type ModelInfo struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName"`
	Description                string   `json:"description,omitempty"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods,omitempty"`
}

// ListModels returns the models available to the configured API key.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	if c.cfg.APIKey == "" {
		return nil, apperr.ExternalAPI("assistant is not configured", nil)
	}
	var resp struct {
		Models []ModelInfo `json:"models"`
	}
	if err := c.do(ctx, http.MethodGet, "/models", nil, &resp); err != nil {
		return nil, apperr.ExternalAPI("list models", err)
	}
	return resp.Models, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	endpoint := c.cfg.BaseURL + path + "?" + url.Values{"key": {c.cfg.APIKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Keep the key out of logged errors.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
		var er errorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if json.Unmarshal(raw, &er) == nil && er.Error.Message != "" {
			apiErr.Message = er.Error.Message
			apiErr.Status = er.Error.Status
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
