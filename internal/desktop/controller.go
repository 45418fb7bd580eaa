package desktop

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
)

// Controller discovers and drives local programs. Everything that touches the
// OS goes through injectable hooks so the cascades can be tested.
type Controller struct {
	goos     string
	plat     platform
	runner   Runner
	input    Input
	logger   *slog.Logger
	settle   time.Duration
	lookPath func(string) (string, error)
	exists   func(string) bool
	// rodLookPath is the last browser discovery step for Chromium browsers.
	rodLookPath func() (string, bool)
	home        func() (string, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithRunner sets the program runner.
func WithRunner(r Runner) Option { return func(c *Controller) { c.runner = r } }

// WithInput sets the input simulation backend; nil disables it.
func WithInput(in Input) Option { return func(c *Controller) { c.input = in } }

// WithGOOS selects the platform table.
func WithGOOS(goos string) Option {
	return func(c *Controller) {
		c.goos = goos
		c.plat = platformFor(goos)
	}
}

// WithLookPath overrides PATH lookup.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(c *Controller) { c.lookPath = fn }
}

// WithExists overrides the file existence probe.
func WithExists(fn func(string) bool) Option { return func(c *Controller) { c.exists = fn } }

// WithBrowserLookPath overrides the Chromium discovery fallback.
func WithBrowserLookPath(fn func() (string, bool)) Option {
	return func(c *Controller) { c.rodLookPath = fn }
}

// WithSettleDelay sets how long to wait after opening a page before sending input.
func WithSettleDelay(d time.Duration) Option { return func(c *Controller) { c.settle = d } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(c *Controller) { c.logger = l } }

// New returns a controller for the running OS.
func New(opts ...Option) *Controller {
	c := &Controller{
		goos:        runtime.GOOS,
		plat:        platformFor(runtime.GOOS),
		runner:      ExecRunner{},
		logger:      slog.Default(),
		settle:      2 * time.Second,
		lookPath:    exec.LookPath,
		exists:      fileExists,
		rodLookPath: launcher.LookPath,
		home:        os.UserHomeDir,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Input returns the input backend, or nil.
func (c *Controller) Input() Input { return c.input }

// HasInput reports whether input simulation is available.
func (c *Controller) HasInput() bool { return c.input != nil }

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func (c *Controller) expand(p string) string {
	if !strings.HasPrefix(p, "~") {
		return p
	}
	home, err := c.home()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimLeft(p[1:], `/\`))
}

// wait sleeps for d unless ctx ends first.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
