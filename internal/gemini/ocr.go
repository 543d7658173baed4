package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

var ErrMissingCredential = errors.New("api key is required for ocr")

const (
	ocrPrompt      = "قم باستخراج جميع النصوص الموجودة في هذه الصورة بدقة عالية باللغة العربية. لا تضف أي شرح، فقط النص الموجود."
	NoTextFallback = "لم يتم العثور على نص."
	ocrTimeout     = 60 * time.Second
)

type OCR struct {
	cfg Config
}

func NewOCR(cfg Config) *OCR {
	if cfg.OCRModel == "" {
		cfg.OCRModel = DefaultOCRModel
	}
	return &OCR{cfg: cfg}
}

// ExtractText transcribes the text in an image. A response with no text yields
// NoTextFallback rather than an error.
func (o *OCR) ExtractText(ctx context.Context, apiKey string, image []byte, mimeType string) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", ErrMissingCredential
	}
	if len(image) == 0 {
		return "", errors.New("no image data provided")
	}

	ctx, cancel := context.WithTimeout(ctx, ocrTimeout)
	defer cancel()

	client, err := newClient(ctx, o.cfg, apiKey)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{Data: image, MIMEType: mimeType}},
			{Text: ocrPrompt},
		},
	}}

	resp, err := client.Models.GenerateContent(ctx, o.cfg.OCRModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("ocr generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return NoTextFallback, nil
	}
	return text, nil
}
