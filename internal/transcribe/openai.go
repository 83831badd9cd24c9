package transcribe

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements STT using the OpenAI audio transcriptions API
type OpenAIProvider struct {
	client   *openai.Client
	model    string
	language string
}

// NewOpenAIProvider creates a new OpenAI STT provider. The model is e.g.
// "gpt-4o-mini-transcribe"; language is an ISO-639-1 hint such as "en".
func NewOpenAIProvider(apiKey, model, language string) *OpenAIProvider {
	return &OpenAIProvider{
		client:   openai.NewClient(apiKey),
		model:    model,
		language: language,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Transcribe sends one segment file to the OpenAI API and returns the
// plain-text transcript. Failures are terminal for the caller's run: there
// is no retry here.
func (p *OpenAIProvider) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	startTime := time.Now()

	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.model,
		FilePath: audioPath,
		Language: p.language,
	})
	if err != nil {
		return nil, fmt.Errorf("openai transcription request failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, fmt.Errorf("no speech detected in audio segment")
	}

	log.Printf("[OpenAI STT] Transcription successful: model=%s, length=%d, duration=%v",
		p.model, len(text), time.Since(startTime))

	return &Result{
		Text:     text,
		Language: p.language,
		Provider: p.Name(),
	}, nil
}
