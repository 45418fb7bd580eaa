package api

import (
	"github.com/starford/jarvis/internal/assistant"
	"github.com/starford/jarvis/internal/catalog"
	"github.com/starford/jarvis/internal/history"
	"github.com/starford/jarvis/internal/storage"
)

// ChatRequest is the JSON body of POST /chat. Form posts use the same field
// names, with context as a JSON-encoded string.
type ChatRequest = assistant.ChatRequest

// Reply is returned by /chat, /execute and /trash/restore.
type Reply = assistant.Reply

// RestoreRequest is the body of POST /trash/restore.
type RestoreRequest struct {
	Name string `json:"name" example:"informe.txt"`
	Dest string `json:"dest,omitempty" example:"/home/ana/Desktop"`
}

// TranscriptResponse is returned by POST /stt.
type TranscriptResponse struct {
	Text string `json:"text" example:"abrí chrome"`
}

// ActionsResponse lists the catalog.
type ActionsResponse struct {
	Actions []catalog.Spec `json:"actions"`
}

// TrashResponse lists the trash root.
type TrashResponse struct {
	Items []storage.TrashEntry `json:"items"`
}

// HistoryResponse lists conversation turns.
type HistoryResponse struct {
	Turns []history.Turn `json:"turns"`
}
