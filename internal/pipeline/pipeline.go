package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/saad-git-007/LLM-powered-audio-transcriber/internal/media"
	"github.com/saad-git-007/LLM-powered-audio-transcriber/internal/storage"
	"github.com/saad-git-007/LLM-powered-audio-transcriber/internal/transcribe"
)

// separator joins per-segment transcripts in the final output.
const separator = "\n\n"

// Pipeline runs one upload through decode, segmentation, transcription and
// aggregation. The run is strictly sequential: the next segment's API call
// is not issued until the previous one returns, and the first error aborts
// everything.
type Pipeline struct {
	normalizer *media.Normalizer
	chunker    *media.Chunker
	store      *storage.Store
}

func New(normalizer *media.Normalizer, chunker *media.Chunker, store *storage.Store) *Pipeline {
	return &Pipeline{
		normalizer: normalizer,
		chunker:    chunker,
		store:      store,
	}
}

// Run processes the recording with the given provider and returns the
// final transcript. Run state and per-segment progress are published to
// the store as the run advances, so the status endpoint can observe an
// in-flight run.
func (p *Pipeline) Run(ctx context.Context, recordingID string, provider transcribe.Provider) (string, error) {
	rec, ok := p.store.Get(recordingID)
	if !ok {
		return "", fmt.Errorf("recording not found: %s", recordingID)
	}

	startTime := time.Now()

	p.store.SetState(recordingID, storage.StateDecoding)
	audio, err := p.normalizer.Normalize(ctx, rec.Path, os.TempDir())
	if err != nil {
		p.store.SetError(recordingID, err.Error())
		return "", err
	}
	defer os.Remove(audio.Path)

	p.store.SetDuration(recordingID, audio.Duration)
	log.Printf("[Pipeline] Recording %s decoded: duration=%v", recordingID, audio.Duration)

	p.store.SetState(recordingID, storage.StateSegmenting)
	segments, err := p.chunker.Split(ctx, audio)
	if err != nil {
		p.store.SetError(recordingID, err.Error())
		return "", err
	}
	defer media.CleanupSegments(segments)

	log.Printf("[Pipeline] Recording %s split into %d segment(s)", recordingID, len(segments))

	p.store.SetState(recordingID, storage.StateTranscribing)
	p.store.SetProgress(recordingID, 0, len(segments))

	pieces := make([]string, 0, len(segments))
	for _, seg := range segments {
		result, err := provider.Transcribe(ctx, seg.Path)
		if err != nil {
			wrapped := fmt.Errorf("%w: segment %d/%d: %v", ErrTranscription, seg.Index+1, len(segments), err)
			p.store.SetError(recordingID, wrapped.Error())
			return "", wrapped
		}
		pieces = append(pieces, result.Text)
		p.store.SetProgress(recordingID, seg.Index+1, len(segments))
		log.Printf("[Pipeline] Recording %s: segment %d/%d transcribed (%d chars)",
			recordingID, seg.Index+1, len(segments), len(result.Text))
	}

	p.store.SetState(recordingID, storage.StateAggregating)
	transcript := strings.TrimSpace(strings.Join(pieces, separator))

	elapsed := time.Since(startTime)
	p.store.SetTranscript(recordingID, transcript, elapsed)
	p.store.SetState(recordingID, storage.StateDone)
	log.Printf("[Pipeline] Recording %s done: %d segment(s), %d chars, %v",
		recordingID, len(segments), len(transcript), elapsed)

	return transcript, nil
}
