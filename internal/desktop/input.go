package desktop

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

// Input simulates keyboard and pointer events on the focused window.
//
// Key names are lowercase: letters and digits, "space", "enter", "tab",
// "escape", "up", "down", "left", "right", "f1".."f12", the modifiers "ctrl",
// "alt", "shift", "meta", and the media keys "volumeup", "volumedown", "mute",
// "playpause", "nexttrack", "prevtrack".
type Input interface {
	// Name identifies the backend.
	Name() string
	// Press sends one chord, e.g. ("alt", "f4"). Modifiers come first.
	Press(ctx context.Context, keys ...string) error
	// Type enters text as if typed.
	Type(ctx context.Context, text string) error
	// Click clicks the primary button at the pointer count times.
	Click(ctx context.Context, count int) error
}

// Input backends.
const (
	InputAuto    = "auto"
	InputXdotool = "xdotool"
	InputRod     = "rod"
	InputNone    = "none"
)

// InputConfig selects and configures the input backend.
type InputConfig struct {
	Backend     string
	DebuggerURL string
}

// NewInput returns the configured backend, or nil when none is usable.
// "auto" prefers xdotool when it is installed and falls back to a browser
// reachable over the DevTools protocol.
func NewInput(cfg InputConfig, runner Runner, lookPath func(string) (string, error), logger *slog.Logger) Input {
	switch cfg.Backend {
	case InputNone:
		return nil
	case InputXdotool:
		if _, err := lookPath("xdotool"); err != nil {
			logger.Warn("input: xdotool not found, input simulation disabled")
			return nil
		}
		return &xdotoolInput{runner: runner}
	case InputRod:
		if cfg.DebuggerURL == "" {
			logger.Warn("input: rod backend needs browser.debugger_url, input simulation disabled")
			return nil
		}
		return NewRodInput(cfg.DebuggerURL)
	}

	if runtime.GOOS != "windows" {
		if _, err := lookPath("xdotool"); err == nil {
			return &xdotoolInput{runner: runner}
		}
	}
	if cfg.DebuggerURL != "" {
		return NewRodInput(cfg.DebuggerURL)
	}
	logger.Info("input: no input backend available")
	return nil
}

var modifiers = map[string]bool{"ctrl": true, "alt": true, "shift": true, "meta": true}

// splitChord separates modifiers from the main key.
func splitChord(keys []string) ([]string, string, error) {
	if len(keys) == 0 {
		return nil, "", fmt.Errorf("input: empty chord")
	}
	var mods []string
	for _, k := range keys[:len(keys)-1] {
		k = strings.ToLower(k)
		if !modifiers[k] {
			return nil, "", fmt.Errorf("input: %q is not a modifier", k)
		}
		mods = append(mods, k)
	}
	return mods, strings.ToLower(keys[len(keys)-1]), nil
}

var xdotoolKeys = map[string]string{
	"space":      "space",
	"enter":      "Return",
	"tab":        "Tab",
	"escape":     "Escape",
	"up":         "Up",
	"down":       "Down",
	"left":       "Left",
	"right":      "Right",
	"ctrl":       "ctrl",
	"alt":        "alt",
	"shift":      "shift",
	"meta":       "super",
	"volumeup":   "XF86AudioRaiseVolume",
	"volumedown": "XF86AudioLowerVolume",
	"mute":       "XF86AudioMute",
	"playpause":  "XF86AudioPlay",
	"nexttrack":  "XF86AudioNext",
	"prevtrack":  "XF86AudioPrev",
}

type xdotoolInput struct {
	runner Runner
}

func (x *xdotoolInput) Name() string { return InputXdotool }

func (x *xdotoolInput) Press(ctx context.Context, keys ...string) error {
	mods, key, err := splitChord(keys)
	if err != nil {
		return err
	}
	parts := make([]string, 0, len(mods)+1)
	for _, m := range mods {
		parts = append(parts, xdotoolKeys[m])
	}
	parts = append(parts, xdotoolKey(key))
	return x.run(ctx, "key", "--clearmodifiers", strings.Join(parts, "+"))
}

func (x *xdotoolInput) Type(ctx context.Context, text string) error {
	return x.run(ctx, "type", "--delay", "50", "--", text)
}

func (x *xdotoolInput) Click(ctx context.Context, count int) error {
	if count < 1 {
		count = 1
	}
	return x.run(ctx, "click", "--repeat", fmt.Sprint(count), "1")
}

func (x *xdotoolInput) run(ctx context.Context, args ...string) error {
	out, err := x.runner.Run(ctx, "", "xdotool", args...)
	if err != nil {
		return fmt.Errorf("xdotool %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

func xdotoolKey(k string) string {
	if v, ok := xdotoolKeys[k]; ok {
		return v
	}
	if len(k) >= 2 && k[0] == 'f' && k[1] >= '1' && k[1] <= '9' {
		return "F" + k[1:]
	}
	return k
}
