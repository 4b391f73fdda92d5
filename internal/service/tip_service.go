package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-portal/internal/models"
)

// FallbackTip is served whenever the quote endpoint cannot be reached or answers badly.
var FallbackTip = models.Tip{
	Content:  "Push your limits — and your code — to the cloud.",
	Author:   "CS642",
	Fallback: true,
}

// TipService fetches a random technology quote.
type TipService struct {
	client *http.Client
	url    string
	logger *zap.Logger
}

// NewTipService builds the service with its own timeout-bound HTTP client.
func NewTipService(url string, timeout time.Duration, logger *zap.Logger) *TipService {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TipService{client: &http.Client{Timeout: timeout}, url: url, logger: logger}
}

type quotePayload struct {
	Content string `json:"content"`
	Author  string `json:"author"`
}

// Random returns a quote, or FallbackTip on any failure.
func (s *TipService) Random(ctx context.Context) models.Tip {
	tip, err := s.fetch(ctx)
	if err != nil {
		s.logger.Debug("tip fetch failed, using fallback", zap.Error(err))
		return FallbackTip
	}
	return tip
}

func (s *TipService) fetch(ctx context.Context) (models.Tip, error) {
	if s.url == "" {
		return models.Tip{}, fmt.Errorf("tip url not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return models.Tip{}, fmt.Errorf("build tip request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return models.Tip{}, fmt.Errorf("fetch tip: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Tip{}, fmt.Errorf("tip endpoint returned %d", resp.StatusCode)
	}

	var payload quotePayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload); err != nil {
		return models.Tip{}, fmt.Errorf("decode tip: %w", err)
	}
	if payload.Content == "" {
		return models.Tip{}, fmt.Errorf("tip endpoint returned empty content")
	}
	return models.Tip{Content: payload.Content, Author: payload.Author}, nil
}
