package transcribe

import "context"

// Provider defines the interface for speech-to-text providers
type Provider interface {
	// Transcribe transcribes one exported audio segment and returns the result
	Transcribe(ctx context.Context, audioPath string) (*Result, error)

	// Name returns the name of the provider (e.g., "openai")
	Name() string
}

// Result represents the result of a speech-to-text transcription
type Result struct {
	Text     string // The transcribed text
	Language string // Language hint that was sent with the request
	Provider string // The provider used
}
