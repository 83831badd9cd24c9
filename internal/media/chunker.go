package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Span is a contiguous time range inside the source audio.
type Span struct {
	Start time.Duration
	End   time.Duration
}

func (s Span) Duration() time.Duration { return s.End - s.Start }

// Segment is one exported slice of the normalized audio, ready to be sent
// to the transcription service. The caller owns the file and removes it
// after use.
type Segment struct {
	Path  string
	Index int
	Span
}

// SegmentBounds computes the chunk boundaries for a recording of the given
// total duration: ceil(total/chunk) sequential, non-overlapping spans whose
// union is the whole recording. The last span may be shorter than chunk.
// Zero or negative total duration is an invalid recording, not an empty
// plan.
func SegmentBounds(total, chunk time.Duration) ([]Span, error) {
	if total <= 0 {
		return nil, ErrEmptyAudio
	}
	if chunk <= 0 {
		return nil, fmt.Errorf("chunk duration must be positive, got %v", chunk)
	}

	var spans []Span
	for start := time.Duration(0); start < total; start += chunk {
		end := start + chunk
		if end > total {
			end = total
		}
		spans = append(spans, Span{Start: start, End: end})
	}
	return spans, nil
}

// Chunker cuts the normalized WAV into bounded-duration segment files.
type Chunker struct {
	ffmpegPath string
	chunk      time.Duration
	runner     Runner
}

func NewChunker(ffmpegPath string, chunk time.Duration) *Chunker {
	return &Chunker{ffmpegPath: ffmpegPath, chunk: chunk, runner: execRunner{}}
}

// NewChunkerWithRunner is used by tests to inject a fake ffmpeg.
func NewChunkerWithRunner(ffmpegPath string, chunk time.Duration, r Runner) *Chunker {
	return &Chunker{ffmpegPath: ffmpegPath, chunk: chunk, runner: r}
}

// Split exports one WAV file per chunk boundary into a fresh temp
// directory, in strictly increasing time order. A recording no longer than
// the chunk duration yields exactly one segment covering all of it.
func (c *Chunker) Split(ctx context.Context, audio *Audio) ([]Segment, error) {
	spans, err := SegmentBounds(audio.Duration, c.chunk)
	if err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp("", "transcriber-segments-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create segment directory: %w", err)
	}

	segments := make([]Segment, 0, len(spans))
	for i, span := range spans {
		segPath := filepath.Join(tempDir, fmt.Sprintf("segment_%03d.wav", i))
		if err := c.extract(ctx, audio.Path, segPath, span); err != nil {
			_ = os.RemoveAll(tempDir)
			return nil, err
		}
		segments = append(segments, Segment{Path: segPath, Index: i, Span: span})
	}

	return segments, nil
}

func (c *Chunker) extract(ctx context.Context, audioPath, segPath string, span Span) error {
	output, err := c.runner.CombinedOutput(ctx, c.ffmpegPath,
		"-y",
		"-i", audioPath,
		"-ss", formatFFmpegTime(span.Start),
		"-to", formatFFmpegTime(span.End),
		"-c:a", "pcm_s16le",
		segPath,
	)
	if err != nil {
		return fmt.Errorf("failed to extract segment %s: %v: %s", segPath, err, tail(output, 300))
	}
	return nil
}

// CleanupSegments removes segment files and their temp directory. Segment
// buffers are transient; nothing survives the run.
func CleanupSegments(segments []Segment) {
	if len(segments) == 0 {
		return
	}
	tempDir := filepath.Dir(segments[0].Path)
	if !strings.Contains(tempDir, "transcriber-segments-") {
		for _, s := range segments {
			_ = os.Remove(s.Path)
		}
		return
	}
	_ = os.RemoveAll(tempDir)
}

// formatFFmpegTime renders a duration for ffmpeg -ss/-to arguments.
func formatFFmpegTime(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := d.Seconds() - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}
