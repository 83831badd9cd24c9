package storage

import (
	"bytes"
	"mime/multipart"
	"os"
	"testing"
	"time"
)

func audioFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("audio_file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("ReadForm: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["audio_file"][0]
}

func TestSaveAudio(t *testing.T) {
	store := NewStore(t.TempDir())

	id, err := store.SaveAudio(audioFileHeader(t, "meeting.mp3", []byte("fake mp3 bytes")))
	if err != nil {
		t.Fatalf("SaveAudio: %v", err)
	}

	rec, ok := store.Get(id)
	if !ok {
		t.Fatal("recording not found after save")
	}
	if rec.State != StateUploaded {
		t.Errorf("state %q, want %q", rec.State, StateUploaded)
	}
	if rec.Filename != "meeting.mp3" {
		t.Errorf("filename %q, want meeting.mp3", rec.Filename)
	}
	if rec.Ext != ".mp3" {
		t.Errorf("ext %q, want .mp3", rec.Ext)
	}
	if _, err := os.Stat(rec.Path); err != nil {
		t.Errorf("saved file missing: %v", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewStore(t.TempDir())
	id, err := store.SaveAudio(audioFileHeader(t, "a.wav", []byte("x")))
	if err != nil {
		t.Fatalf("SaveAudio: %v", err)
	}

	rec, _ := store.Get(id)
	rec.State = "mutated"

	fresh, _ := store.Get(id)
	if fresh.State != StateUploaded {
		t.Errorf("store copy was mutated through the returned pointer")
	}
}

func TestGetUnknown(t *testing.T) {
	store := NewStore(t.TempDir())
	if _, ok := store.Get("nope"); ok {
		t.Fatal("expected miss for unknown id")
	}
}

func TestRunProgression(t *testing.T) {
	store := NewStore(t.TempDir())
	id, err := store.SaveAudio(audioFileHeader(t, "a.wav", []byte("x")))
	if err != nil {
		t.Fatalf("SaveAudio: %v", err)
	}

	store.SetState(id, StateTranscribing)
	store.SetDuration(id, 25*time.Minute)
	store.SetProgress(id, 2, 3)

	rec, _ := store.Get(id)
	if rec.State != StateTranscribing {
		t.Errorf("state %q, want transcribing", rec.State)
	}
	if rec.DurationMs != (25 * time.Minute).Milliseconds() {
		t.Errorf("duration %d ms", rec.DurationMs)
	}
	if rec.SegmentsDone != 2 || rec.SegmentsTotal != 3 {
		t.Errorf("progress %d/%d, want 2/3", rec.SegmentsDone, rec.SegmentsTotal)
	}

	store.SetTranscript(id, "hello world", 1500*time.Millisecond)
	store.SetState(id, StateDone)

	rec, _ = store.Get(id)
	if rec.Transcript != "hello world" || rec.ElapsedMs != 1500 {
		t.Errorf("transcript %q elapsed %d", rec.Transcript, rec.ElapsedMs)
	}
}

func TestSetErrorDiscardsTranscript(t *testing.T) {
	store := NewStore(t.TempDir())
	id, err := store.SaveAudio(audioFileHeader(t, "a.wav", []byte("x")))
	if err != nil {
		t.Fatalf("SaveAudio: %v", err)
	}

	store.SetTranscript(id, "partial text from first segment", time.Second)
	store.SetError(id, "segment 2/3 failed")

	rec, _ := store.Get(id)
	if rec.State != StateFailed {
		t.Errorf("state %q, want failed", rec.State)
	}
	if rec.Transcript != "" {
		t.Errorf("partial transcript survived a failed run: %q", rec.Transcript)
	}
	if rec.Error == "" {
		t.Error("error message not recorded")
	}
}
