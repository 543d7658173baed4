// Package gemini adapts the Gemini API to the realtime link and OCR
// interfaces used by the rest of the service.
package gemini

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

const (
	DefaultOCRModel = "gemini-2.5-flash"
)

type Config struct {
	// BaseURL overrides the API endpoint. Empty uses the public endpoint.
	BaseURL    string
	OCRModel   string
	HTTPClient *http.Client
}

func newClient(ctx context.Context, cfg Config, apiKey string) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client, nil
}
