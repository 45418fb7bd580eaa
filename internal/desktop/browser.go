package desktop

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/starford/jarvis/internal/apperr"
)

// Well-known URLs.
const (
	YouTubeURL   = "https://www.youtube.com"
	TikTokURL    = "https://www.tiktok.com"
	InstagramURL = "https://www.instagram.com"
	ChatGPTURL   = "https://chat.openai.com"
	GeminiURL    = "https://gemini.google.com"
	CanvaURL     = "https://www.canva.com"
	GammaURL     = "https://gamma.app"
)

// GoogleSearchURL builds a Google results URL for q.
func GoogleSearchURL(q string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(q)
}

// YouTubeSearchURL builds a YouTube results URL for q.
func YouTubeSearchURL(q string) string {
	return YouTubeURL + "/results?search_query=" + url.QueryEscape(q)
}

// GoogleDocsCreateURL opens a new Google Docs document with a title.
func GoogleDocsCreateURL(title string) string {
	return "https://docs.google.com/document/create?title=" + url.QueryEscape(title)
}

// FindBrowser resolves a browser name to an executable. Install locations are
// probed first, then PATH, then (for Chromium) rod's own discovery. This is a
// best-effort heuristic.
func (c *Controller) FindBrowser(name string) (string, error) {
	family := BrowserFamily(name)
	if family == "" {
		return "", apperr.New(apperr.KindNotFound, "unknown browser %q", name)
	}
	for _, cand := range c.plat.browserPaths[family] {
		if p := c.expand(cand); c.exists(p) {
			return p, nil
		}
	}
	for _, bin := range c.plat.browserBins[family] {
		if p, err := c.lookPath(bin); err == nil {
			return p, nil
		}
	}
	if family == FamilyChrome && c.rodLookPath != nil {
		if p, ok := c.rodLookPath(); ok {
			return p, nil
		}
	}
	return "", apperr.New(apperr.KindNotFound, "browser %q is not installed", name)
}

// OpenURL opens target in the named browser, or in the default handler when
// browser is empty or cannot be found. It reports which was used.
func (c *Controller) OpenURL(ctx context.Context, target, browser string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", apperr.New(apperr.KindMissingParameter, "missing URL")
	}
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}
	if browser != "" {
		path, err := c.FindBrowser(browser)
		if err != nil {
			c.logger.Debug("desktop: browser not found, using default handler", slog.String("browser", browser))
		} else if err := c.runner.Start(ctx, path, target); err != nil {
			c.logger.Warn("desktop: browser launch failed, using default handler",
				slog.String("browser", path), slog.String("error", err.Error()))
		} else {
			return path, nil
		}
	}
	return "default browser", c.openDefault(ctx, target)
}

func (c *Controller) openDefault(ctx context.Context, target string) error {
	if len(c.plat.opener) == 0 {
		return apperr.New(apperr.KindCapabilityUnavailable, "no default handler on %s", c.goos)
	}
	args := append(append([]string{}, c.plat.opener[1:]...), target)
	if err := c.runner.Start(ctx, c.plat.opener[0], args...); err != nil {
		return apperr.Wrap(apperr.KindCapabilityUnavailable, err, "cannot open %s", target)
	}
	return nil
}

// SearchGoogle opens a Google search for q.
func (c *Controller) SearchGoogle(ctx context.Context, q, browser string) (string, error) {
	return c.OpenURL(ctx, GoogleSearchURL(q), browser)
}

// SearchYouTube opens a YouTube search for q.
func (c *Controller) SearchYouTube(ctx context.Context, q, browser string) (string, error) {
	return c.OpenURL(ctx, YouTubeSearchURL(q), browser)
}

// SendPrompt opens a chat web app and, when input simulation is available,
// types prompt into it once the page had time to load. It reports whether
// the prompt was typed.
func (c *Controller) SendPrompt(ctx context.Context, site, prompt, browser string) (bool, error) {
	if _, err := c.OpenURL(ctx, site, browser); err != nil {
		return false, err
	}
	if c.input == nil {
		return false, nil
	}
	if err := wait(ctx, c.settle+c.settle/2); err != nil {
		return false, err
	}
	if err := c.input.Type(ctx, prompt); err != nil {
		return false, err
	}
	return true, c.input.Press(ctx, "enter")
}
