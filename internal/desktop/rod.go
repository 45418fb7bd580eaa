package desktop

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	"github.com/starford/jarvis/internal/apperr"
)

var rodKeys = map[string]input.Key{
	"enter":     input.Enter,
	"tab":       input.Tab,
	"escape":    input.Escape,
	"backspace": input.Backspace,
	"space":     input.Space,
	"delete":    input.Delete,
	"up":        input.ArrowUp,
	"down":      input.ArrowDown,
	"left":      input.ArrowLeft,
	"right":     input.ArrowRight,
	"home":      input.Home,
	"end":       input.End,
	"pageup":    input.PageUp,
	"pagedown":  input.PageDown,
	"ctrl":      input.ControlLeft,
	"alt":       input.AltLeft,
	"shift":     input.ShiftLeft,
	"meta":      input.MetaLeft,
}

// RodInput drives the focused tab of a browser started with remote debugging
// enabled. It only reaches web content, which covers the media and chat
// integrations.
type RodInput struct {
	controlURL string

	mu      sync.Mutex
	browser *rod.Browser
}

// NewRodInput connects lazily to the DevTools endpoint at controlURL.
func NewRodInput(controlURL string) *RodInput {
	return &RodInput{controlURL: controlURL}
}

func (r *RodInput) Name() string { return InputRod }

func (r *RodInput) page(ctx context.Context) (*rod.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		if _, err := r.browser.Version(); err != nil {
			_ = r.browser.Close()
			r.browser = nil
		}
	}
	if r.browser == nil {
		b := rod.New().ControlURL(r.controlURL)
		if err := b.Connect(); err != nil {
			return nil, apperr.Wrap(apperr.KindCapabilityUnavailable, err, "cannot reach browser at %s", r.controlURL)
		}
		r.browser = b
	}

	pages, err := r.browser.Pages()
	if err != nil {
		return nil, fmt.Errorf("rod: list pages: %w", err)
	}
	if len(pages) == 0 {
		p, err := r.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
		if err != nil {
			return nil, fmt.Errorf("rod: open page: %w", err)
		}
		return p.Context(ctx), nil
	}
	return pages.First().Context(ctx), nil
}

func (r *RodInput) Press(ctx context.Context, keys ...string) error {
	mods, key, err := splitChord(keys)
	if err != nil {
		return err
	}
	main, ok := rodKeys[key]
	if !ok {
		if len([]rune(key)) != 1 {
			return apperr.New(apperr.KindCapabilityUnavailable, "key %q cannot be sent to a browser tab", key)
		}
		main = input.Key([]rune(key)[0])
	}
	page, err := r.page(ctx)
	if err != nil {
		return err
	}

	held := make([]input.Key, 0, len(mods))
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			_ = page.Keyboard.Release(held[i])
		}
	}()
	for _, m := range mods {
		if err := page.Keyboard.Press(rodKeys[m]); err != nil {
			return fmt.Errorf("rod: modifier %s: %w", m, err)
		}
		held = append(held, rodKeys[m])
	}
	if err := page.Keyboard.Type(main); err != nil {
		return fmt.Errorf("rod: key %s: %w", key, err)
	}
	return nil
}

func (r *RodInput) Type(ctx context.Context, text string) error {
	page, err := r.page(ctx)
	if err != nil {
		return err
	}
	if err := page.InsertText(text); err != nil {
		return fmt.Errorf("rod: insert text: %w", err)
	}
	return nil
}

func (r *RodInput) Click(ctx context.Context, count int) error {
	if count < 1 {
		count = 1
	}
	page, err := r.page(ctx)
	if err != nil {
		return err
	}
	if err := page.Mouse.Click(proto.InputMouseButtonLeft, count); err != nil {
		return fmt.Errorf("rod: click: %w", err)
	}
	return nil
}

// CloseActive closes the focused tab.
func (r *RodInput) CloseActive(ctx context.Context) error {
	page, err := r.page(ctx)
	if err != nil {
		return err
	}
	if err := page.Close(); err != nil {
		return fmt.Errorf("rod: close page: %w", err)
	}
	return nil
}

// Close drops the browser connection without closing the browser.
func (r *RodInput) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.browser = nil
	return nil
}
