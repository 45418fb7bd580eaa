package mcpserver

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

const maxAudioSize = 25 << 20 // 25 MB

var mimeToAudioExt = map[string]string{
	"audio/webm":  ".webm",
	"audio/ogg":   ".ogg",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/mpeg":  ".mp3",
	"audio/mp4":   ".m4a",
	"audio/flac":  ".flac",
}

func (s *Server) transcribeAudio(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := req.RequireString("audio")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var (
		data []byte
		name = req.GetString("filename", "")
	)
	if strings.HasPrefix(src, "data:") {
		var ext string
		data, ext, err = decodeDataURI(src)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if name == "" {
			name = uuid.NewString() + ext
		}
	} else {
		data, err = readLocalAudio(src)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if name == "" {
			name = filepath.Base(src)
		}
	}
	name = filepath.Base(name)
	if err := validateAudioMagic(data, strings.ToLower(filepath.Ext(name))); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := s.svc.Transcribe(ctx, bytes.NewReader(data), name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

// decodeDataURI parses a data:<audio mediatype>;base64,<data> URI.
func decodeDataURI(uri string) ([]byte, string, error) {
	rest := strings.TrimPrefix(uri, "data:")
	commaIdx := strings.Index(rest, ",")
	if commaIdx < 0 {
		return nil, "", fmt.Errorf("invalid data URI: missing comma separator")
	}

	meta := rest[:commaIdx]
	encoded := rest[commaIdx+1:]

	if !strings.Contains(meta, ";base64") {
		return nil, "", fmt.Errorf("only base64 data URIs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("invalid base64 data: %w", err)
		}
	}
	if len(data) > maxAudioSize {
		return nil, "", fmt.Errorf("audio too large: %d bytes (max %d)", len(data), maxAudioSize)
	}

	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	ext := mimeToAudioExt[mime]
	if ext == "" {
		return nil, "", fmt.Errorf("unsupported MIME type in data URI: %s", mime)
	}
	return data, ext, nil
}

func readLocalAudio(path string) ([]byte, error) {
	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("audio must be a data URI or an absolute file path")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxAudioSize+1))
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if len(data) > maxAudioSize {
		return nil, fmt.Errorf("audio too large: exceeds %d bytes", maxAudioSize)
	}
	return data, nil
}

// validateAudioMagic verifies the content matches the declared extension.
// Unknown extensions are left to the transcription service.
func validateAudioMagic(data []byte, ext string) error {
	var ok bool
	switch ext {
	case ".webm", ".mkv":
		ok = bytes.HasPrefix(data, []byte{0x1a, 0x45, 0xdf, 0xa3})
	case ".ogg", ".opus":
		ok = bytes.HasPrefix(data, []byte("OggS"))
	case ".wav":
		ok = len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE"
	case ".mp3":
		ok = bytes.HasPrefix(data, []byte("ID3")) || (len(data) >= 2 && data[0] == 0xff && data[1]&0xe0 == 0xe0)
	case ".m4a", ".mp4":
		ok = len(data) >= 8 && string(data[4:8]) == "ftyp"
	case ".flac":
		ok = bytes.HasPrefix(data, []byte("fLaC"))
	default:
		return nil
	}
	if !ok {
		head := data
		if len(head) > 8 {
			head = head[:8]
		}
		return fmt.Errorf("content does not match extension %s (starts with %s)", ext, hex.EncodeToString(head))
	}
	return nil
}
