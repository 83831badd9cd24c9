package pipeline

import "errors"

var (
	// ErrMissingCredential means no API key resolved from either
	// configuration channel; reported before any processing starts.
	ErrMissingCredential = errors.New("no API key configured: set OPENAI_API_KEY or supply one with the request")

	// ErrTranscription wraps the first failing segment call. The whole
	// run aborts on it; partial transcripts are discarded.
	ErrTranscription = errors.New("transcription failed")
)
