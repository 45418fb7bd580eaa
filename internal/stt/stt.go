// Package stt transcribes uploaded audio through an OpenAI-compatible
// transcription endpoint such as Groq's.
package stt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/starford/jarvis/internal/apperr"
)

const (
	DefaultModel    = "whisper-large-v3-turbo"
	DefaultFilename = "audio.webm"
	DefaultLanguage = "es"
)

// Transcriber turns audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Language   string
	Timeout    time.Duration
	MaxRetries int
}

// Client is a Transcriber backed by the audio transcriptions API.
type Client struct {
	api      openai.Client
	model    string
	language string
	enabled  bool
	logger   *slog.Logger
}

var _ Transcriber = (*Client)(nil)

func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []option.RequestOption{
		option.WithMaxRetries(cfg.MaxRetries),
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		api:      openai.NewClient(opts...),
		model:    model,
		language: cfg.Language,
		enabled:  cfg.APIKey != "",
		logger:   logger,
	}
}

// Transcribe uploads audio and returns the recognized text.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if !c.enabled {
		return "", apperr.New(apperr.KindCapabilityUnavailable, "transcription is not configured (stt.api_key)")
	}
	if audio == nil {
		return "", apperr.New(apperr.KindMissingParameter, "missing audio file")
	}
	if filename == "" {
		filename = DefaultFilename
	}
	params := openai.AudioTranscriptionNewParams{
		File:           openai.File(audio, filename, contentType(filename)),
		Model:          openai.AudioModel(c.model),
		Temperature:    openai.Float(0),
		ResponseFormat: openai.AudioResponseFormatJSON,
	}
	if c.language != "" {
		params.Language = openai.String(c.language)
	}

	start := time.Now()
	resp, err := c.api.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", apperr.Wrap(apperr.KindUpstreamFailure, err, "transcription failed with status %d", apiErr.StatusCode)
		}
		return "", apperr.Wrap(apperr.KindUpstreamFailure, err, "transcription failed")
	}
	text := strings.TrimSpace(resp.Text)
	c.logger.Debug("stt: transcribed",
		slog.String("file", filename),
		slog.Duration("took", time.Since(start)),
		slog.Int("chars", len(text)))
	return text, nil
}

func contentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".webm":
		return "audio/webm"
	case ".ogg", ".oga":
		return "audio/ogg"
	case ".m4a":
		return "audio/mp4"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
