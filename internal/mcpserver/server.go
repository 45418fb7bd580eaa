// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes every assistant action as a tool over stdio.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/jarvis/internal/assistant"
	"github.com/starford/jarvis/internal/catalog"
	"github.com/starford/jarvis/internal/intent"
)

const (
	actionsURI = "jarvis://actions"
	formatURI  = "jarvis://intent-format"
)

// Server wraps the MCP server with the assistant tools.
type Server struct {
	mcp *server.MCPServer
	svc *assistant.Service
}

// New creates an MCP server with one tool per catalog action plus the
// natural-language and raw-intent tools.
func New(svc *assistant.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Jarvis",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	for _, spec := range svc.Actions() {
		s.mcp.AddTool(mcp.NewToolWithRawSchema(spec.ID, spec.Description, inputSchema(spec)), s.runAction(spec.ID))
	}

	s.mcp.AddTool(mcp.NewTool("ask",
		mcp.WithDescription("Give Jarvis an instruction in natural language (Spanish works best). "+
			"It is interpreted by the language model and the resulting actions are executed."),
		mcp.WithString("message", mcp.Required(), mcp.Description("What the user wants, e.g. 'abrí chrome y buscá el clima'")),
		mcp.WithString("session", mcp.Description("Conversation id; turns of the same session are used as context")),
	), s.ask)

	s.mcp.AddTool(mcp.NewTool("run_intent",
		mcp.WithDescription("Execute a structured intent JSON without the language model. "+
			"Read the jarvis://intent-format resource for the accepted shapes."),
		mcp.WithString("intent", mcp.Required(), mcp.Description(`Intent JSON, e.g. {"action":"listar_papelera"}`)),
	), s.runIntent)

	s.mcp.AddTool(mcp.NewTool("transcribe_audio",
		mcp.WithDescription("Transcribe a voice recording to text."),
		mcp.WithString("audio", mcp.Required(), mcp.Description("A base64 data URI (data:audio/webm;base64,...) or an absolute file path")),
		mcp.WithString("filename", mcp.Description("File name hint for the audio format")),
	), s.transcribeAudio)

	s.mcp.AddResource(
		mcp.NewResource(actionsURI, "Action Catalog",
			mcp.WithResourceDescription("Every action with its parameters."),
			mcp.WithMIMEType("application/json"),
		),
		s.readActions,
	)
	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Intent Format",
			mcp.WithResourceDescription("The JSON shapes accepted by run_intent."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormat,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// inputSchema renders the JSON schema of an action's parameters.
func inputSchema(spec catalog.Spec) json.RawMessage {
	props := make(map[string]any, len(spec.Params))
	required := []string{}
	for _, p := range spec.Params {
		prop := map[string]any{"type": string(p.Kind)}
		if p.Kind == catalog.KindList {
			prop["items"] = map[string]any{"type": "string"}
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema, err := json.Marshal(map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	})
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return schema
}

func (s *Server) runAction(id string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		if args == nil {
			args = map[string]any{}
		}
		return replyResult(s.svc.Run(ctx, id, args)), nil
	}
}

func (s *Server) ask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	msg, err := req.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reply, err := s.svc.Chat(ctx, assistant.ChatRequest{
		Session: req.GetString("session", "mcp"),
		Message: msg,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return replyResult(reply), nil
}

func (s *Server) runIntent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("intent")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	parsed, err := intent.Decode([]byte(raw))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return replyResult(s.svc.Execute(ctx, parsed)), nil
}

func replyResult(r assistant.Reply) *mcp.CallToolResult {
	if !r.Success {
		return mcp.NewToolResultError(r.Reply)
	}
	return mcp.NewToolResultText(r.Reply)
}

func (s *Server) readActions(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	text, err := json.MarshalIndent(s.svc.Actions(), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      actionsURI,
			MIMEType: "application/json",
			Text:     string(text),
		},
	}, nil
}

func (s *Server) readFormat(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     IntentFormatContract,
		},
	}, nil
}
