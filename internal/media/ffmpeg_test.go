package media

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    time.Duration
		wantErr bool
	}{
		{
			name:   "duration header",
			output: "Input #0, wav\n  Duration: 00:05:23.45, bitrate: 256 kb/s\n",
			want:   5*time.Minute + 23*time.Second + 450*time.Millisecond,
		},
		{
			name:   "progress fallback uses last time",
			output: "time=00:01:00.00 bitrate=N/A\ntime=00:25:00.00 bitrate=N/A\n",
			want:   25 * time.Minute,
		},
		{
			name:   "millisecond precision",
			output: "Duration: 01:02:03.456",
			want:   time.Hour + 2*time.Minute + 3*time.Second + 456*time.Millisecond,
		},
		{
			name:   "excess precision truncated",
			output: "Duration: 00:00:01.123456",
			want:   time.Second + 123*time.Millisecond,
		},
		{
			name:    "no duration",
			output:  "some unrelated ffmpeg noise",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDuration(tt.output)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDuration: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	runner := &fakeRunner{output: "Duration: 00:25:00.00, bitrate: 256 kb/s"}
	n := NewNormalizerWithRunner("ffmpeg", runner)

	audio, err := n.Normalize(context.Background(), "meeting.mp3", t.TempDir())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if audio.Duration != 25*time.Minute {
		t.Errorf("duration %v, want 25m", audio.Duration)
	}
	if audio.Path == "" {
		t.Error("empty normalized path")
	}

	// One conversion call, one probe call.
	if len(runner.calls) != 2 {
		t.Fatalf("got %d ffmpeg calls, want 2", len(runner.calls))
	}
}

func TestNormalizeDecodeFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("invalid data found when processing input")}
	n := NewNormalizerWithRunner("ffmpeg", runner)

	_, err := n.Normalize(context.Background(), "notes.txt", t.TempDir())
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("got %v, want ErrDecode", err)
	}
}

func TestNormalizeEmptyAudio(t *testing.T) {
	runner := &fakeRunner{output: "Duration: 00:00:00.00, bitrate: 0 kb/s"}
	n := NewNormalizerWithRunner("ffmpeg", runner)

	_, err := n.Normalize(context.Background(), "empty.wav", t.TempDir())
	if !errors.Is(err, ErrEmptyAudio) {
		t.Fatalf("got %v, want ErrEmptyAudio", err)
	}
}
