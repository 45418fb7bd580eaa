package desktop

import (
	"context"
	"log/slog"
	"strings"

	"github.com/starford/jarvis/internal/apperr"
)

// Media platforms.
const (
	PlatformYouTube   = "youtube"
	PlatformTikTok    = "tiktok"
	PlatformInstagram = "instagram"
	PlatformSpotify   = "spotify"
)

// Gesture is the input that performs one media command.
type Gesture struct {
	Label  string
	Keys   []string
	Repeat int
	Clicks int
	// Launch starts the named application instead of sending input.
	Launch string
}

type mediaRule struct {
	words   []string
	gesture Gesture
}

type mediaPlatform struct {
	url   string
	rules []mediaRule
}

// Rules are matched in order by substring, so longer phrases come before
// the words they contain ("playlist" before "play").
var mediaPlatforms = map[string]mediaPlatform{
	PlatformYouTube: {url: YouTubeURL, rules: []mediaRule{
		{[]string{"lista", "playlist"}, Gesture{Label: "toggled the playlist", Keys: []string{"shift", "l"}}},
		{[]string{"pausar", "pausa", "pause"}, Gesture{Label: "paused", Keys: []string{"space"}}},
		{[]string{"reproducir", "play", "continuar"}, Gesture{Label: "resumed", Keys: []string{"space"}}},
		{[]string{"siguiente", "next"}, Gesture{Label: "skipped to the next video", Keys: []string{"shift", "n"}}},
		{[]string{"anterior", "previous", "atras", "atrás"}, Gesture{Label: "went back to the previous video", Keys: []string{"shift", "p"}}},
		{[]string{"volumen arriba", "subir volumen", "volume up"}, Gesture{Label: "raised the volume", Keys: []string{"up"}, Repeat: 5}},
		{[]string{"volumen abajo", "bajar volumen", "volume down"}, Gesture{Label: "lowered the volume", Keys: []string{"down"}, Repeat: 5}},
		{[]string{"silenciar", "mute"}, Gesture{Label: "toggled mute", Keys: []string{"m"}}},
	}},
	PlatformTikTok: {url: TikTokURL, rules: []mediaRule{
		{[]string{"pausar", "pausa", "pause", "reproducir", "play"}, Gesture{Label: "toggled playback", Clicks: 1}},
		{[]string{"siguiente", "next"}, Gesture{Label: "moved to the next video", Keys: []string{"down"}}},
		{[]string{"anterior", "previous", "atras", "atrás"}, Gesture{Label: "moved to the previous video", Keys: []string{"up"}}},
		{[]string{"like", "me gusta"}, Gesture{Label: "liked the video", Clicks: 2}},
	}},
	PlatformInstagram: {url: InstagramURL, rules: []mediaRule{
		{[]string{"siguiente", "next"}, Gesture{Label: "moved to the next post", Keys: []string{"right"}}},
		{[]string{"anterior", "previous", "atras", "atrás"}, Gesture{Label: "moved to the previous post", Keys: []string{"left"}}},
		{[]string{"like", "me gusta"}, Gesture{Label: "liked the post", Keys: []string{"l"}}},
		{[]string{"comentar", "comment"}, Gesture{Label: "opened comments", Keys: []string{"c"}}},
	}},
	PlatformSpotify: {rules: []mediaRule{
		{[]string{"pausar", "pausa", "pause"}, Gesture{Label: "paused", Keys: []string{"playpause"}}},
		{[]string{"reproducir", "play", "continuar"}, Gesture{Label: "resumed", Keys: []string{"playpause"}}},
		{[]string{"siguiente", "next"}, Gesture{Label: "skipped to the next track", Keys: []string{"nexttrack"}}},
		{[]string{"anterior", "previous", "atras", "atrás"}, Gesture{Label: "went back to the previous track", Keys: []string{"prevtrack"}}},
		{[]string{"volumen arriba", "subir volumen", "volume up"}, Gesture{Label: "raised the volume", Keys: []string{"volumeup"}, Repeat: 5}},
		{[]string{"volumen abajo", "bajar volumen", "volume down"}, Gesture{Label: "lowered the volume", Keys: []string{"volumedown"}, Repeat: 5}},
		{[]string{"abrir", "open"}, Gesture{Label: "opened Spotify", Launch: "spotify"}},
	}},
}

// MatchMedia maps a free-text command onto a platform gesture.
func MatchMedia(platformName, command string) (Gesture, error) {
	mp, ok := mediaPlatforms[platformName]
	if !ok {
		return Gesture{}, apperr.New(apperr.KindInvalidParameter, "unsupported media platform %q", platformName)
	}
	lower := strings.ToLower(strings.TrimSpace(command))
	for _, r := range mp.rules {
		for _, w := range r.words {
			if strings.Contains(lower, w) {
				return r.gesture, nil
			}
		}
	}
	return Gesture{}, apperr.New(apperr.KindUnrecognizedCommand, "unrecognized %s command: %q", platformName, command)
}

// ControlMedia performs command on a media platform. Input simulation is
// required for the whole family and is checked before anything else. When a
// browser is named the platform is opened in it first.
func (c *Controller) ControlMedia(ctx context.Context, platformName, command, browser string) (string, error) {
	if c.input == nil {
		return "", apperr.New(apperr.KindCapabilityUnavailable, "input simulation is not available to control %s", platformName)
	}
	g, err := MatchMedia(platformName, command)
	if err != nil {
		return "", err
	}
	if g.Launch != "" {
		if _, err := c.LaunchApp(ctx, g.Launch); err != nil {
			return "", err
		}
		return g.Label, nil
	}

	if mp := mediaPlatforms[platformName]; browser != "" && mp.url != "" {
		if path, err := c.FindBrowser(browser); err == nil {
			if err := c.runner.Start(ctx, path, mp.url); err != nil {
				c.logger.Warn("desktop: browser launch failed", slog.String("browser", path), slog.String("error", err.Error()))
			} else if err := wait(ctx, c.settle); err != nil {
				return "", err
			}
		}
	}

	if err := c.perform(ctx, g); err != nil {
		return "", err
	}
	return g.Label, nil
}

func (c *Controller) perform(ctx context.Context, g Gesture) error {
	if g.Clicks > 0 {
		return c.input.Click(ctx, g.Clicks)
	}
	n := g.Repeat
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		if err := c.input.Press(ctx, g.Keys...); err != nil {
			return err
		}
	}
	return nil
}
