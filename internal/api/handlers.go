package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/starford/jarvis/internal/apperr"
	"github.com/starford/jarvis/internal/assistant"
	"github.com/starford/jarvis/internal/brain"
	"github.com/starford/jarvis/internal/history"
	"github.com/starford/jarvis/internal/intent"
	"github.com/starford/jarvis/internal/storage"
)

const maxBodyBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *assistant.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *assistant.Service) *Handler {
	return &Handler{svc: svc}
}

// Chat handles POST /chat.
//
//	@Summary	Interpret a message and run the requested actions
//	@Tags		assistant
//	@Accept		json,x-www-form-urlencoded
//	@Produce	json
//	@Param		body	body		ChatRequest	true	"Message"
//	@Success	200		{object}	Reply
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/chat [post]
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	req, err := decodeChat(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	reply, err := h.svc.Chat(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func decodeChat(r *http.Request) (assistant.ChatRequest, error) {
	var req assistant.ChatRequest
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, errors.New("invalid JSON body")
		}
		return req, nil
	}
	if err := r.ParseForm(); err != nil {
		return req, errors.New("invalid form body")
	}
	req.Message = r.PostFormValue("message")
	req.Session = r.PostFormValue("session")
	if raw := strings.TrimSpace(r.PostFormValue("context")); raw != "" {
		var ctx []brain.Exchange
		if err := json.Unmarshal([]byte(raw), &ctx); err != nil {
			return req, errors.New("context must be a JSON array of {user, assistant}")
		}
		req.Context = ctx
	}
	return req, nil
}

// Execute handles POST /execute with a raw intent, skipping the interpreter.
//
//	@Summary	Run a structured intent
//	@Tags		assistant
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	Reply
//	@Failure	400	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/execute [post]
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	req, err := intent.Decode(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Execute(r.Context(), req))
}

// Actions handles GET /actions.
//
//	@Summary	List every available action
//	@Tags		assistant
//	@Produce	json
//	@Success	200	{object}	ActionsResponse
//	@Router		/actions [get]
func (h *Handler) Actions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ActionsResponse{Actions: h.svc.Actions()})
}

// Trash handles GET /trash.
//
//	@Summary	List the trash
//	@Tags		trash
//	@Produce	json
//	@Success	200	{object}	TrashResponse
//	@Security	BearerAuth
//	@Router		/trash [get]
func (h *Handler) Trash(w http.ResponseWriter, _ *http.Request) {
	items, err := h.svc.Trash()
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []storage.TrashEntry{}
	}
	writeJSON(w, http.StatusOK, TrashResponse{Items: items})
}

// Restore handles POST /trash/restore.
//
//	@Summary	Restore a trashed file by its original name
//	@Tags		trash
//	@Accept		json
//	@Produce	json
//	@Param		body	body		RestoreRequest	true	"What to restore"
//	@Success	200		{object}	Reply
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/trash/restore [post]
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Restore(r.Context(), req.Name, req.Dest))
}

// History handles GET /history?session=&limit= and, with q, a search.
//
//	@Summary	Conversation history
//	@Tags		assistant
//	@Produce	json
//	@Param		session	query		string	false	"Session id"
//	@Param		q		query		string	false	"Search text"
//	@Param		limit	query		int		false	"Max turns"
//	@Success	200		{object}	HistoryResponse
//	@Security	BearerAuth
//	@Router		/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	var (
		turns []history.Turn
		err   error
	)
	if text := strings.TrimSpace(q.Get("q")); text != "" {
		turns, err = h.svc.SearchHistory(text, limit)
	} else {
		session := q.Get("session")
		if session == "" {
			writeError(w, apperr.New(apperr.KindMissingParameter, "session or q is required"))
			return
		}
		turns, err = h.svc.History(session, limit)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if turns == nil {
		turns = []history.Turn{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Turns: turns})
}
