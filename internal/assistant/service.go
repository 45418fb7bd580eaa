// Package assistant ties the interpreter, the executor and the conversation
// history together. Every front end (HTTP, MCP, CLI) talks to a Service.
package assistant

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/jarvis/internal/apperr"
	"github.com/starford/jarvis/internal/brain"
	"github.com/starford/jarvis/internal/catalog"
	"github.com/starford/jarvis/internal/dispatch"
	"github.com/starford/jarvis/internal/history"
	"github.com/starford/jarvis/internal/intent"
	"github.com/starford/jarvis/internal/sse"
	"github.com/starford/jarvis/internal/storage"
	"github.com/starford/jarvis/internal/stt"
)

// Publisher receives one event per executed action.
type Publisher interface {
	PublishAction(ev sse.ActionExecuted)
}

// ChatRequest is one user message. When Context is nil the session's recent
// turns from the history are sent to the interpreter instead.
type ChatRequest struct {
	Session string           `json:"session,omitempty"`
	Message string           `json:"message"`
	Context []brain.Exchange `json:"context,omitempty"`
}

// Reply is what the user sees for a request.
type Reply struct {
	Reply   string            `json:"reply"`
	Success bool              `json:"success"`
	Session string            `json:"session,omitempty"`
	Results []dispatch.Result `json:"results,omitempty"`
}

// Service coordinates interpretation, execution and history.
type Service struct {
	exec         *dispatch.Executor
	fs           storage.Provider
	interpreter  brain.Interpreter
	transcriber  stt.Transcriber
	history      history.Store
	events       Publisher
	contextTurns int
	logger       *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithInterpreter(i brain.Interpreter) Option { return func(s *Service) { s.interpreter = i } }
func WithTranscriber(t stt.Transcriber) Option { return func(s *Service) { s.transcriber = t } }
func WithHistory(h history.Store) Option { return func(s *Service) { s.history = h } }
func WithEvents(p Publisher) Option { return func(s *Service) { s.events = p } }
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// WithContextTurns sets how many earlier turns are sent to the interpreter.
func WithContextTurns(n int) Option { return func(s *Service) { s.contextTurns = n } }

// New creates a service over exec. fs backs the trash listing.
func New(exec *dispatch.Executor, fs storage.Provider, opts ...Option) *Service {
	s := &Service{
		exec:         exec,
		fs:           fs,
		contextTurns: history.DefaultContextTurns,
		logger:       slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Chat interprets a message, runs the resulting actions and stores the turn.
// Interpreter failures become a failed reply rather than an error; only a
// blank message is rejected.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (Reply, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return Reply{}, apperr.New(apperr.KindMissingParameter, "missing message")
	}
	if s.interpreter == nil {
		return Reply{}, apperr.New(apperr.KindCapabilityUnavailable, "no interpreter configured")
	}
	session := req.Session
	if session == "" {
		session = uuid.NewString()
	}

	exchanges := req.Context
	if exchanges == nil {
		exchanges = s.recent(session)
	}

	parsed, err := s.interpreter.Interpret(ctx, msg, exchanges)
	var out Reply
	if err != nil {
		s.logger.Warn("assistant: interpret failed",
			slog.String("session", session),
			slog.String("error", err.Error()))
		out = Reply{Reply: dispatch.MarkFail + " " + err.Error()}
	} else {
		out = s.run(ctx, session, parsed)
	}
	out.Session = session

	if s.history != nil {
		if _, err := s.history.Append(history.Turn{Session: session, User: msg, Assistant: out.Reply, Success: out.Success}); err != nil {
			s.logger.Warn("assistant: history append failed", slog.String("error", err.Error()))
		}
	}
	return out, nil
}

// Execute runs an already structured request, bypassing the interpreter.
func (s *Service) Execute(ctx context.Context, req intent.Request) Reply {
	return s.run(ctx, "", req)
}

// Run executes a single action by id.
func (s *Service) Run(ctx context.Context, action string, params map[string]any) Reply {
	return s.Execute(ctx, intent.Single(intent.Intent{Action: action, Params: params}))
}

func (s *Service) run(ctx context.Context, session string, req intent.Request) Reply {
	report := s.exec.Execute(ctx, req)
	if s.events != nil {
		for _, res := range report.Results {
			if res.Action == intent.ActionNone {
				continue
			}
			s.events.PublishAction(sse.ActionExecuted{
				Session: session,
				Action:  res.Action,
				Success: res.Success,
				Message: res.Message,
				Kind:    string(res.Kind),
			})
		}
	}
	return Reply{
		Reply:   dispatch.Render(report),
		Success: report.OK(),
		Results: report.Results,
	}
}

func (s *Service) recent(session string) []brain.Exchange {
	if s.history == nil || s.contextTurns <= 0 {
		return nil
	}
	turns, err := s.history.Recent(session, s.contextTurns)
	if err != nil {
		s.logger.Warn("assistant: history read failed", slog.String("error", err.Error()))
		return nil
	}
	out := make([]brain.Exchange, len(turns))
	for i, t := range turns {
		out[i] = brain.Exchange{User: t.User, Assistant: t.Assistant}
	}
	return out
}

// Transcribe turns an uploaded audio file into text.
func (s *Service) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if s.transcriber == nil {
		return "", apperr.New(apperr.KindCapabilityUnavailable, "no transcriber configured")
	}
	return s.transcriber.Transcribe(ctx, audio, filename)
}

// Actions lists the catalog.
func (s *Service) Actions() []catalog.Spec {
	return s.exec.Dispatcher().Catalog().All()
}

// Trash lists the trash root.
func (s *Service) Trash() ([]storage.TrashEntry, error) {
	return s.fs.ListTrash()
}

// Restore brings a trashed object back through the regular action path, so
// the restore is journaled like any other action.
func (s *Service) Restore(ctx context.Context, name, dest string) Reply {
	params := map[string]any{"nombre_archivo": name}
	if dest != "" {
		params["destino"] = dest
	}
	return s.Run(ctx, "restaurar_desde_papelera", params)
}

// History returns the last n turns of a session, oldest first.
func (s *Service) History(session string, n int) ([]history.Turn, error) {
	if s.history == nil {
		return nil, apperr.New(apperr.KindCapabilityUnavailable, "history is disabled")
	}
	return s.history.Recent(session, n)
}

// SearchHistory finds earlier turns mentioning query.
func (s *Service) SearchHistory(query string, limit int) ([]history.Turn, error) {
	if s.history == nil {
		return nil, apperr.New(apperr.KindCapabilityUnavailable, "history is disabled")
	}
	return s.history.Search(query, limit)
}
