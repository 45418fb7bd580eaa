// Package dispatch turns intents into results. It resolves each intent in the
// action catalog, binds and runs it, journals the outcome and never lets an
// action failure escape as an error.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/starford/jarvis/internal/apperr"
	"github.com/starford/jarvis/internal/catalog"
	"github.com/starford/jarvis/internal/intent"
)

// DefaultAnswer is used when a "none" intent carries no text.
const DefaultAnswer = "I don't understand what you want to do."

// Result is the uniform outcome of one intent.
type Result struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Kind    apperr.Kind `json:"kind,omitempty"`
	Value   any         `json:"value,omitempty"`
	Action  string      `json:"action"`
	// Position is the 1-based index inside a batch, 0 for single intents.
	Position int `json:"position,omitempty"`
}

// Journal records executed actions.
type Journal interface {
	Append(action string, params map[string]any, result string, success bool) error
}

// Dispatcher executes single intents.
type Dispatcher struct {
	catalog *catalog.Catalog
	journal Journal
	logger  *slog.Logger
}

// New creates a dispatcher. journal may be nil.
func New(cat *catalog.Catalog, journal Journal, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{catalog: cat, journal: journal, logger: logger}
}

// Catalog returns the catalog the dispatcher resolves against.
func (d *Dispatcher) Catalog() *catalog.Catalog { return d.catalog }

// Dispatch runs one intent to completion and reports it. "none" intents pass
// their answer through untouched and are not journaled here; the sequencer
// journals them when they appear inside a batch.
func (d *Dispatcher) Dispatch(ctx context.Context, in intent.Intent) Result {
	if in.IsNone() {
		answer := in.Answer
		if answer == "" {
			answer = DefaultAnswer
		}
		return Result{Success: true, Message: answer, Action: intent.ActionNone}
	}

	res := d.execute(ctx, in)
	d.record(in, res)
	return res
}

func (d *Dispatcher) execute(ctx context.Context, in intent.Intent) (res Result) {
	res.Action = in.Action

	spec, ok := d.catalog.Resolve(in.Action)
	if !ok {
		return failure(res, apperr.New(apperr.KindUnknownAction, "unknown action: %q", in.Action))
	}
	req, err := catalog.Bind(spec, in.Params)
	if err != nil {
		return failure(res, err)
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatch: action panicked",
				slog.String("action", in.Action),
				slog.String("panic", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())))
			res = failure(Result{Action: in.Action}, apperr.New(apperr.KindInternal, "action %s failed unexpectedly: %v", in.Action, r))
		}
	}()

	out, err := req.Execute(ctx)
	if err != nil {
		return failure(res, err)
	}
	res.Success = true
	res.Message = out.Message
	res.Value = out.Value
	if res.Message == "" {
		res.Message = "Done: " + in.Action
	}
	return res
}

func failure(res Result, err error) Result {
	res.Success = false
	res.Kind = apperr.KindOf(err)
	res.Message = err.Error()
	res.Value = nil
	return res
}

// recordAnswer journals a "none" item of a batch.
func (d *Dispatcher) recordAnswer(in intent.Intent, res Result) {
	if d.journal == nil {
		return
	}
	if err := d.journal.Append(intent.ActionNone, in.Params, RenderResult(res), res.Success); err != nil {
		d.logger.Warn("dispatch: journal append failed", slog.String("error", err.Error()))
	}
}

// record journals res. Journal failures are only logged.
func (d *Dispatcher) record(in intent.Intent, res Result) {
	if res.Success {
		d.logger.Info("dispatch: action executed", slog.String("action", res.Action))
	} else {
		d.logger.Warn("dispatch: action failed",
			slog.String("action", res.Action),
			slog.String("kind", string(res.Kind)),
			slog.String("error", res.Message))
	}
	if d.journal == nil {
		return
	}
	if err := d.journal.Append(in.Action, in.Params, RenderResult(res), res.Success); err != nil {
		d.logger.Warn("dispatch: journal append failed", slog.String("error", err.Error()))
	}
}
