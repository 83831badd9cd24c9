package api

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/saad-git-007/LLM-powered-audio-transcriber/internal/config"
	"github.com/saad-git-007/LLM-powered-audio-transcriber/internal/media"
	"github.com/saad-git-007/LLM-powered-audio-transcriber/internal/pipeline"
	"github.com/saad-git-007/LLM-powered-audio-transcriber/internal/storage"
	"github.com/saad-git-007/LLM-powered-audio-transcriber/internal/transcribe"
	"github.com/saad-git-007/LLM-powered-audio-transcriber/internal/utils"
	"github.com/saad-git-007/LLM-powered-audio-transcriber/internal/web"
)

// Containers accepted at the upload boundary.
var allowedExts = []string{".mp3", ".wav", ".m4a", ".ogg", ".flac", ".aac", ".amr", ".mpga", ".mpeg", ".webm"}

var previewContentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".aac":  "audio/aac",
	".webm": "audio/webm",
}

// ProviderFactory builds a transcription provider for a resolved API key.
// Tests substitute a stub here.
type ProviderFactory func(apiKey string) transcribe.Provider

type Handlers struct {
	cfg         *config.Config
	store       *storage.Store
	pipe        *pipeline.Pipeline
	newProvider ProviderFactory
}

func NewHandlers(cfg *config.Config, store *storage.Store, pipe *pipeline.Pipeline, factory ProviderFactory) *Handlers {
	return &Handlers{
		cfg:         cfg,
		store:       store,
		pipe:        pipe,
		newProvider: factory,
	}
}

func RegisterRoutes(r *gin.Engine, h *Handlers) {
	r.GET("/", h.indexPage)
	r.GET("/health", h.healthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/recordings", h.uploadRecording)
		v1.GET("/recordings/:recording_id", h.getRecording)
		v1.GET("/recordings/:recording_id/status", h.getRecordingStatus)
		v1.GET("/recordings/:recording_id/audio", h.getRecordingAudio)
		v1.POST("/recordings/:recording_id/transcribe", h.transcribeRecording)
	}
}

// indexPage serves the embedded single-page UI
func (h *Handlers) indexPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
}

// healthCheck returns server health status
func (h *Handlers) healthCheck(c *gin.Context) {
	utils.Success(c, gin.H{
		"status":  "ok",
		"service": "audio-transcriber",
	})
}

// uploadRecording handles audio file upload
func (h *Handlers) uploadRecording(c *gin.Context) {
	file, err := c.FormFile("audio_file")
	if err != nil {
		// Try alternative field names
		if file, err = c.FormFile("audio"); err != nil {
			if file, err = c.FormFile("file"); err != nil {
				utils.Error(c, http.StatusBadRequest, "audio_file is required. Error: "+err.Error())
				return
			}
		}
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	valid := false
	for _, allowed := range allowedExts {
		if ext == allowed {
			valid = true
			break
		}
	}
	if !valid {
		utils.Error(c, http.StatusBadRequest,
			"unsupported audio format. Supported: mp3, wav, m4a, ogg, flac, aac, amr, mpga, mpeg, webm")
		return
	}

	if file.Size > h.cfg.MaxUploadSize {
		utils.Error(c, http.StatusBadRequest, "file size exceeds upload limit")
		return
	}

	recordingID, err := h.store.SaveAudio(file)
	if err != nil {
		log.Printf("[Upload] Error saving audio: %v", err)
		utils.Error(c, http.StatusInternalServerError, "failed to save audio file")
		return
	}

	log.Printf("[Upload] Audio uploaded: %s (%s, %d bytes)", recordingID, file.Filename, file.Size)
	utils.Success(c, gin.H{
		"recording_id": recordingID,
		"filename":     file.Filename,
		"size_bytes":   file.Size,
		"status":       storage.StateUploaded,
	})
}

// transcribeRecording runs the full pipeline for one recording. The call
// blocks until the run finishes; progress can be observed concurrently via
// the status endpoint.
func (h *Handlers) transcribeRecording(c *gin.Context) {
	id := c.Param("recording_id")

	rec, ok := h.store.Get(id)
	if !ok {
		utils.Error(c, http.StatusNotFound, "recording not found")
		return
	}

	switch rec.State {
	case storage.StateDecoding, storage.StateSegmenting, storage.StateTranscribing, storage.StateAggregating:
		utils.Error(c, http.StatusConflict, "recording is already being processed")
		return
	case storage.StateDone:
		utils.Success(c, gin.H{
			"recording_id": id,
			"status":       storage.StateDone,
			"segments":     rec.SegmentsTotal,
			"transcript":   rec.Transcript,
			"elapsed_ms":   rec.ElapsedMs,
		})
		return
	}

	// Credential resolution happens before any processing: configured key
	// first, per-request header as the interactive fallback.
	apiKey := h.cfg.ResolveAPIKey(c.GetHeader("X-API-Key"))
	if apiKey == "" {
		utils.Error(c, http.StatusBadRequest, pipeline.ErrMissingCredential.Error())
		return
	}

	provider := h.newProvider(apiKey)
	log.Printf("[Transcribe] Starting run for recording %s (provider: %s)", id, provider.Name())

	transcript, err := h.pipe.Run(c.Request.Context(), id, provider)
	if err != nil {
		log.Printf("[Transcribe] Run failed for recording %s: %v", id, err)
		switch {
		case errors.Is(err, media.ErrEmptyAudio), errors.Is(err, media.ErrDecode):
			utils.Error(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, pipeline.ErrTranscription):
			utils.Error(c, http.StatusBadGateway, err.Error())
		default:
			utils.Error(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	rec, _ = h.store.Get(id)
	utils.Success(c, gin.H{
		"recording_id": id,
		"status":       storage.StateDone,
		"segments":     rec.SegmentsTotal,
		"transcript":   transcript,
		"elapsed_ms":   rec.ElapsedMs,
	})
}

// getRecording returns full recording information
func (h *Handlers) getRecording(c *gin.Context) {
	id := c.Param("recording_id")

	rec, ok := h.store.Get(id)
	if !ok {
		utils.Error(c, http.StatusNotFound, "recording not found")
		return
	}

	resp := gin.H{
		"recording_id": rec.ID,
		"filename":     rec.Filename,
		"size_bytes":   rec.Size,
		"status":       rec.State,
		"created_at":   rec.CreatedAt,
	}
	if rec.DurationMs > 0 {
		resp["duration_ms"] = rec.DurationMs
	}
	if rec.State == storage.StateDone {
		resp["transcript"] = rec.Transcript
		resp["segments"] = rec.SegmentsTotal
		resp["elapsed_ms"] = rec.ElapsedMs
	}
	if rec.Error != "" {
		resp["error_message"] = rec.Error
	}

	utils.Success(c, resp)
}

// getRecordingStatus returns the run state and per-segment progress
func (h *Handlers) getRecordingStatus(c *gin.Context) {
	id := c.Param("recording_id")

	rec, ok := h.store.Get(id)
	if !ok {
		utils.Error(c, http.StatusNotFound, "recording not found")
		return
	}

	utils.Success(c, gin.H{
		"recording_id":   rec.ID,
		"status":         rec.State,
		"segments_done":  rec.SegmentsDone,
		"segments_total": rec.SegmentsTotal,
	})
}

// getRecordingAudio streams the original upload for the preview player
func (h *Handlers) getRecordingAudio(c *gin.Context) {
	id := c.Param("recording_id")

	rec, ok := h.store.Get(id)
	if !ok {
		utils.Error(c, http.StatusNotFound, "recording not found")
		return
	}

	contentType := previewContentTypes[rec.Ext]
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.File(rec.Path)
}
