package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/opensource-finance/gridpay/internal/domain"
)

// OpenAIExtractor implements Extractor using a vision-capable chat model.
type OpenAIExtractor struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	timeout time.Duration
	maxTok  int
	logger  *slog.Logger
}

// NewOpenAIExtractor creates an extractor from config.
func NewOpenAIExtractor(cfg domain.ExtractConfig, logger *slog.Logger) (*OpenAIExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}

	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 0.5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 90 * time.Second
	}

	maxTok := cfg.MaxTokens
	if maxTok == 0 {
		maxTok = 4000
	}

	return &OpenAIExtractor{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		timeout: timeout,
		maxTok:  maxTok,
		logger:  logger.With("component", "extract"),
	}, nil
}

// Extract sends the image to the vision model and parses the returned
// record array. Temperature is pinned to zero; extraction is not a place
// for creativity.
func (e *OpenAIExtractor) Extract(ctx context.Context, image []byte, mimeType string) ([]domain.RawRecord, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", domain.ErrExtraction)
	}
	if !supportedMimeType(mimeType) {
		return nil, fmt.Errorf("%w: unsupported file type %q", domain.ErrExtraction, mimeType)
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: extractionPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: dataURL,
						},
					},
				},
			},
		},
		MaxTokens:   e.maxTok,
		Temperature: 0.0,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty model response", domain.ErrExtraction)
	}

	records, err := ParseRecords(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	e.logger.Info("extract.completed",
		"records", len(records),
		"model", e.model,
		"tokens", resp.Usage.TotalTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return records, nil
}

func supportedMimeType(mimeType string) bool {
	switch mimeType {
	case "image/png", "image/jpeg", "image/jpg", "image/gif", "image/bmp", "image/tiff", "image/webp":
		return true
	}
	return false
}
