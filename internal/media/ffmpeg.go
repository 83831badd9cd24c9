package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrDecode means ffmpeg could not decode the upload into audio.
	ErrDecode = errors.New("could not decode audio file")
	// ErrEmptyAudio means the decoded audio has zero duration.
	ErrEmptyAudio = errors.New("audio has zero duration")
)

// Runner executes an external command and returns its combined output.
// It exists so tests can stub out the ffmpeg binary.
type Runner interface {
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Audio is the normalized in-memory representation of one upload:
// a mono 16kHz WAV on disk plus its total duration.
type Audio struct {
	Path     string
	Duration time.Duration
}

// Normalizer converts arbitrary audio containers into the uniform WAV
// representation the rest of the pipeline works with.
type Normalizer struct {
	ffmpegPath string
	runner     Runner
}

func NewNormalizer(ffmpegPath string) *Normalizer {
	return &Normalizer{ffmpegPath: ffmpegPath, runner: execRunner{}}
}

// NewNormalizerWithRunner is used by tests to inject a fake ffmpeg.
func NewNormalizerWithRunner(ffmpegPath string, r Runner) *Normalizer {
	return &Normalizer{ffmpegPath: ffmpegPath, runner: r}
}

// Normalize decodes inputPath into a mono 16kHz WAV in tmpDir and probes
// its duration. A file ffmpeg cannot decode surfaces as ErrDecode; a file
// that decodes to nothing surfaces as ErrEmptyAudio.
func (n *Normalizer) Normalize(ctx context.Context, inputPath, tmpDir string) (*Audio, error) {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	out := filepath.Join(tmpDir, base+"_16k.wav")

	// ffmpeg -y -i input -ac 1 -ar 16000 -f wav output
	output, err := n.runner.CombinedOutput(ctx, n.ffmpegPath,
		"-y", "-i", inputPath,
		"-ac", "1", "-ar", "16000",
		"-f", "wav",
		out,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %s", ErrDecode, err, tail(output, 300))
	}

	dur, err := n.probeDuration(ctx, out)
	if err != nil {
		_ = os.Remove(out)
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if dur <= 0 {
		_ = os.Remove(out)
		return nil, ErrEmptyAudio
	}

	return &Audio{Path: out, Duration: dur}, nil
}

// probeDuration reads the duration off ffmpeg's own stderr report.
func (n *Normalizer) probeDuration(ctx context.Context, audioPath string) (time.Duration, error) {
	output, err := n.runner.CombinedOutput(ctx, n.ffmpegPath,
		"-i", audioPath,
		"-f", "null", "-",
	)
	if err != nil && len(output) == 0 {
		// ffmpeg exits non-zero even on success here, so only a silent
		// failure is treated as fatal.
		return 0, err
	}
	return parseDuration(string(output))
}

var (
	durationRe = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)
	timeRe     = regexp.MustCompile(`time=(\d+):(\d+):(\d+)\.(\d+)`)
)

// parseDuration extracts a duration from ffmpeg stderr. It prefers the
// "Duration: HH:MM:SS.cc" header line and falls back to the last
// "time=HH:MM:SS.cc" progress line.
func parseDuration(output string) (time.Duration, error) {
	if m := durationRe.FindStringSubmatch(output); m != nil {
		return timeComponents(m[1], m[2], m[3], m[4]), nil
	}
	if all := timeRe.FindAllStringSubmatch(output, -1); len(all) > 0 {
		m := all[len(all)-1]
		return timeComponents(m[1], m[2], m[3], m[4]), nil
	}
	return 0, fmt.Errorf("no duration in ffmpeg output")
}

func timeComponents(hours, minutes, seconds, fractional string) time.Duration {
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)

	frac, _ := strconv.Atoi(fractional)
	ms := frac
	switch l := len(fractional); {
	case l == 1:
		ms = frac * 100
	case l == 2:
		ms = frac * 10
	case l > 3:
		for i := l; i > 3; i-- {
			ms /= 10
		}
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond
}

func tail(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		s = "..." + s[len(s)-n:]
	}
	return s
}
