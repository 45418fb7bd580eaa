// Package intent decodes structured intents produced by the interpreter.
package intent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ActionNone is the conversational pass-through action.
const ActionNone = "none"

// Intent is one requested action with its untyped parameters.
type Intent struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params,omitempty"`
	Answer string         `json:"answer,omitempty"`
}

// IsNone reports whether the intent only carries a conversational answer.
func (i Intent) IsNone() bool { return i.Action == ActionNone }

// Request is either a single intent or an ordered batch.
type Request struct {
	Intents []Intent `json:"actions"`
	Batch   bool     `json:"-"`
}

// Single wraps one intent into a request.
func Single(i Intent) Request {
	return Request{Intents: []Intent{i}}
}

// Answer builds a "none" request carrying text.
func Answer(text string) Request {
	return Single(Intent{Action: ActionNone, Answer: text})
}

// MarshalJSON renders the request in the same shape it is decoded from.
func (r Request) MarshalJSON() ([]byte, error) {
	if !r.Batch && len(r.Intents) == 1 {
		return json.Marshal(r.Intents[0])
	}
	return json.Marshal(struct {
		Actions []Intent `json:"actions"`
	}{Actions: r.Intents})
}

// ErrEmpty is returned for blank input.
var ErrEmpty = errors.New("intent: empty input")

type envelope struct {
	Action  json.RawMessage   `json:"action"`
	Params  json.RawMessage   `json:"params"`
	Answer  json.RawMessage   `json:"answer"`
	Actions []json.RawMessage `json:"actions"`
}

// Decode parses one JSON object in any of the accepted shapes. A valid object
// with neither "action" nor "actions" is treated as a conversational answer.
func Decode(data []byte) (Request, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Request{}, ErrEmpty
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Request{}, fmt.Errorf("intent: decode: %w", err)
	}
	if env.Actions != nil {
		req := Request{Batch: true, Intents: make([]Intent, 0, len(env.Actions))}
		for _, raw := range env.Actions {
			var item envelope
			if err := json.Unmarshal(raw, &item); err != nil {
				// Keep the slot so positions stay aligned; the dispatcher
				// reports it as an unknown action.
				req.Intents = append(req.Intents, Intent{})
				continue
			}
			req.Intents = append(req.Intents, item.intent())
		}
		return req, nil
	}
	if env.Action == nil {
		return Answer(string(data)), nil
	}
	return Single(env.intent()), nil
}

func (e envelope) intent() Intent {
	var in Intent
	_ = json.Unmarshal(e.Action, &in.Action)
	_ = json.Unmarshal(e.Answer, &in.Answer)
	if len(e.Params) > 0 {
		var params map[string]any
		if err := json.Unmarshal(e.Params, &params); err == nil {
			in.Params = params
		}
	}
	if in.Params == nil {
		in.Params = map[string]any{}
	}
	return in
}
