package storage

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Run states, in pipeline order. A run moves strictly forward through the
// processing states and ends in done or failed; a failed run is not
// resumable.
const (
	StateUploaded     = "uploaded"
	StateDecoding     = "decoding"
	StateSegmenting   = "segmenting"
	StateTranscribing = "transcribing"
	StateAggregating  = "aggregating"
	StateDone         = "done"
	StateFailed       = "failed"
)

type Recording struct {
	ID            string
	Filename      string
	Path          string
	Ext           string
	Size          int64
	State         string
	DurationMs    int64
	SegmentsDone  int
	SegmentsTotal int
	Transcript    string
	Error         string
	ElapsedMs     int64
	CreatedAt     string
}

// Store is an in-memory run registry. Nothing persists across process
// restarts; the uploaded file on disk is the only artifact.
type Store struct {
	mu         sync.Mutex
	recordings map[string]*Recording
	uploadDir  string
}

func NewStore(uploadDir string) *Store {
	return &Store{
		recordings: make(map[string]*Recording),
		uploadDir:  uploadDir,
	}
}

// SaveAudio saves an uploaded audio file and returns the recording ID
func (s *Store) SaveAudio(file *multipart.FileHeader) (string, error) {
	id := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(file.Filename))
	dst := filepath.Join(s.uploadDir, id+ext)

	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	if err := saveMultipartFile(file, dst); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	s.mu.Lock()
	s.recordings[id] = &Recording{
		ID:        id,
		Filename:  file.Filename,
		Path:      dst,
		Ext:       ext,
		Size:      file.Size,
		State:     StateUploaded,
		CreatedAt: time.Now().Format(time.RFC3339),
	}
	s.mu.Unlock()

	return id, nil
}

// Get retrieves a copy of a recording by ID
func (s *Store) Get(id string) (*Recording, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recordings[id]
	if !ok {
		return nil, false
	}
	recCopy := *rec
	return &recCopy, true
}

// SetState updates the run state of a recording
func (s *Store) SetState(id, state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.recordings[id]; ok {
		rec.State = state
	}
}

// SetDuration records the decoded audio duration
func (s *Store) SetDuration(id string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.recordings[id]; ok {
		rec.DurationMs = d.Milliseconds()
	}
}

// SetProgress updates the per-segment progress counters. The status
// endpoint reads these while a transcription run is in flight.
func (s *Store) SetProgress(id string, done, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.recordings[id]; ok {
		rec.SegmentsDone = done
		rec.SegmentsTotal = total
	}
}

// SetTranscript stores the final transcript and elapsed time
func (s *Store) SetTranscript(id, transcript string, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.recordings[id]; ok {
		rec.Transcript = transcript
		rec.ElapsedMs = elapsed.Milliseconds()
	}
}

// SetError marks a run failed with its terminal error message. Any
// transcript collected so far is discarded: partial results are never
// surfaced.
func (s *Store) SetError(id, errorMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.recordings[id]; ok {
		rec.State = StateFailed
		rec.Error = errorMsg
		rec.Transcript = ""
	}
}

/* helper */
func saveMultipartFile(file *multipart.FileHeader, dst string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = out.ReadFrom(src)
	return err
}
