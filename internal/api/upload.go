package api

import (
	"net/http"
	"path/filepath"
	"strings"
)

const maxUploadBytes = 25 << 20 // 25 MB, the transcription service limit

// STT handles POST /stt (multipart/form-data, field "file").
//
//	@Summary	Transcribe an audio recording
//	@Tags		voice
//	@Accept		multipart/form-data
//	@Produce	json
//	@Success	200	{object}	TranscriptResponse
//	@Failure	400	{object}	errResponse
//	@Failure	502	{object}	errResponse
//	@Router		/stt [post]
func (h *Handler) STT(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck // temp files only

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	text, err := h.svc.Transcribe(r.Context(), file, uploadName(header.Filename))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TranscriptResponse{Text: text})
}

// uploadName keeps only the base name the client sent; the extension tells
// the transcription service the audio format.
func uploadName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return ""
	}
	return name
}
