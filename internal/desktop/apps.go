package desktop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/starford/jarvis/internal/apperr"
)

// attempt is one strategy of a launch cascade.
type attempt struct {
	name string
	run  func() error
}

// cascade runs attempts in order until one succeeds. When all fail the last
// error is returned, labelled with the strategy that produced it.
func cascade(attempts []attempt) (string, error) {
	var lastErr error
	for _, a := range attempts {
		err := a.run()
		if err == nil {
			return a.name, nil
		}
		lastErr = fmt.Errorf("%s: %w", a.name, err)
	}
	if lastErr == nil {
		lastErr = errors.New("no strategy available")
	}
	return "", lastErr
}

// NormalizeApp maps well-known short names onto the platform's executable.
func (c *Controller) NormalizeApp(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if v, ok := c.plat.appAliases[lower]; ok {
		return v
	}
	if c.goos == "windows" && !strings.HasSuffix(lower, ".exe") {
		if fam := BrowserFamily(lower); fam != "" {
			return c.plat.appAliases[fam]
		}
	}
	return strings.TrimSpace(name)
}

// LaunchApp starts an application by name. Browsers are resolved through
// FindBrowser and started directly. Anything else goes through direct
// execution, executable search and a shell-level start in that order. It
// returns the strategy that worked.
func (c *Controller) LaunchApp(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.New(apperr.KindMissingParameter, "missing application name")
	}
	if BrowserFamily(name) != "" {
		if path, err := c.FindBrowser(name); err == nil {
			if err := c.runner.Start(ctx, path); err == nil {
				return "browser " + path, nil
			}
		}
	}

	app := c.NormalizeApp(name)
	used, err := cascade([]attempt{
		{name: "direct", run: func() error {
			return c.runner.Start(ctx, app)
		}},
		{name: "search", run: func() error {
			path, err := c.search(ctx, app)
			if err != nil {
				return err
			}
			return c.runner.Start(ctx, path)
		}},
		{name: "shell", run: func() error {
			if len(c.plat.shellStart) == 0 {
				return errors.New("no shell launcher")
			}
			args := append(append([]string{}, c.plat.shellStart[1:]...), app)
			out, err := c.runner.Run(ctx, "", c.plat.shellStart[0], args...)
			if err != nil {
				return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
			}
			return nil
		}},
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindNotFound, err, "could not launch %q", name)
	}
	c.logger.Debug("desktop: launched", slog.String("app", app), slog.String("strategy", used))
	return used, nil
}

// search resolves name with the system executable search tool.
func (c *Controller) search(ctx context.Context, name string) (string, error) {
	if c.plat.search == "" {
		return "", errors.New("no search tool")
	}
	out, err := c.runner.Run(ctx, "", c.plat.search, name)
	if err != nil {
		return "", err
	}
	first, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	first = strings.TrimSpace(first)
	if first == "" {
		return "", fmt.Errorf("%s found nothing for %s", c.plat.search, name)
	}
	return first, nil
}

// KillProcess force-terminates every process with the given image name. It
// does not report whether anything matched.
func (c *Controller) KillProcess(ctx context.Context, name string) error {
	if len(c.plat.kill) == 0 {
		return apperr.New(apperr.KindCapabilityUnavailable, "no process kill tool on %s", c.goos)
	}
	tool := c.plat.kill[0]
	if _, err := c.lookPath(tool); err != nil {
		return apperr.Wrap(apperr.KindCapabilityUnavailable, err, "%s is not available", tool)
	}
	image := strings.TrimSpace(name)
	if c.goos != "windows" {
		image = strings.TrimSuffix(image, ".exe")
	}
	args := append(append([]string{}, c.plat.kill[1:]...), image)
	if _, err := c.runner.Run(ctx, "", tool, args...); err != nil && exitCode(err) < 0 {
		return fmt.Errorf("desktop: kill %s: %w", image, err)
	}
	return nil
}

// windowCloser is implemented by input backends with a native close.
type windowCloser interface {
	CloseActive(ctx context.Context) error
}

// CloseActiveWindow closes the focused window with Alt+F4. Without input
// simulation a coarser platform tool is used instead; the returned string
// names the method.
func (c *Controller) CloseActiveWindow(ctx context.Context) (string, error) {
	if c.input != nil {
		if wc, ok := c.input.(windowCloser); ok {
			return "closed the active tab", wc.CloseActive(ctx)
		}
		return "sent Alt+F4", c.input.Press(ctx, "alt", "f4")
	}
	for _, cmd := range c.plat.closeWindow {
		if _, err := c.lookPath(cmd[0]); err != nil {
			continue
		}
		if _, err := c.runner.Run(ctx, "", cmd[0], cmd[1:]...); err != nil {
			c.logger.Warn("desktop: window close fallback failed", slog.String("tool", cmd[0]), slog.String("error", err.Error()))
			continue
		}
		return "closed via " + cmd[0], nil
	}
	return "", apperr.New(apperr.KindCapabilityUnavailable, "input simulation is not available to close the window")
}

// OpenFolder shows a directory in the file manager.
func (c *Controller) OpenFolder(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return apperr.New(apperr.KindNotFound, "folder not found: %s", path)
	}
	if c.goos == "windows" {
		return c.startOr(ctx, "explorer", path)
	}
	return c.openDefault(ctx, path)
}

func (c *Controller) startOr(ctx context.Context, name string, args ...string) error {
	if err := c.runner.Start(ctx, name, args...); err != nil {
		return apperr.Wrap(apperr.KindNotFound, err, "%s is not available", name)
	}
	return nil
}

// OpenVSCode opens VS Code on path, or on the working directory.
func (c *Controller) OpenVSCode(ctx context.Context, path string) error {
	if path == "" {
		path = "."
	}
	return c.startOr(ctx, "code", path)
}

// Screenshot captures the screen into path using the first capture tool that
// is installed and succeeds.
func (c *Controller) Screenshot(ctx context.Context, path string) error {
	var tried []string
	var lastErr error
	for _, tmpl := range c.plat.screenshot {
		if _, err := c.lookPath(tmpl[0]); err != nil {
			continue
		}
		tried = append(tried, tmpl[0])
		args := make([]string, 0, len(tmpl)-1)
		for _, a := range tmpl[1:] {
			args = append(args, strings.ReplaceAll(a, "{path}", path))
		}
		out, err := c.runner.Run(ctx, "", tmpl[0], args...)
		if err == nil && c.exists(path) {
			return nil
		}
		if err == nil {
			err = errors.New("no file written")
		}
		lastErr = fmt.Errorf("%s: %w: %s", tmpl[0], err, strings.TrimSpace(string(out)))
	}
	if len(tried) == 0 {
		return apperr.New(apperr.KindCapabilityUnavailable, "no screen capture tool is installed")
	}
	return apperr.Wrap(apperr.KindCapabilityUnavailable, lastErr, "screen capture failed")
}

// RunCommand runs argv in dir and returns its combined output. A non-zero
// exit status is an error that still carries the output.
func (c *Controller) RunCommand(ctx context.Context, argv []string, dir string) (string, error) {
	if len(argv) == 0 {
		return "", apperr.New(apperr.KindMissingParameter, "missing command")
	}
	if dir != "" {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return "", apperr.New(apperr.KindNotFound, "directory not found: %s", dir)
		}
	}
	if _, err := c.lookPath(argv[0]); err != nil && !strings.ContainsAny(argv[0], `/\`) {
		return "", apperr.Wrap(apperr.KindNotFound, err, "command not found: %s", argv[0])
	}
	out, err := c.runner.Run(ctx, dir, argv[0], argv[1:]...)
	if err != nil {
		if code := exitCode(err); code >= 0 {
			return string(out), apperr.New(apperr.KindUpstreamFailure, "command exited with status %d: %s", code, strings.TrimSpace(string(out)))
		}
		return string(out), apperr.Wrap(apperr.KindNotFound, err, "cannot run %s", argv[0])
	}
	return string(out), nil
}

// PromptCursor focuses Cursor's chat (Ctrl+L) and submits prompt. It needs
// input simulation.
func (c *Controller) PromptCursor(ctx context.Context, prompt string) error {
	if c.input == nil {
		return apperr.New(apperr.KindCapabilityUnavailable, "input simulation is not available to drive Cursor")
	}
	if _, err := c.LaunchApp(ctx, "cursor"); err != nil {
		c.logger.Warn("desktop: cursor launch failed, assuming it is open", slog.String("error", err.Error()))
	} else if err := wait(ctx, c.settle); err != nil {
		return err
	}
	if err := c.input.Press(ctx, "ctrl", "l"); err != nil {
		return err
	}
	if err := wait(ctx, c.settle/4); err != nil {
		return err
	}
	if err := c.input.Type(ctx, prompt); err != nil {
		return err
	}
	return c.input.Press(ctx, "enter")
}
