package actions

import (
	"context"

	"github.com/starford/jarvis/internal/catalog"
	"github.com/starford/jarvis/internal/desktop"
)

var mediaTitles = map[string]string{
	desktop.PlatformYouTube:   "YouTube",
	desktop.PlatformTikTok:    "TikTok",
	desktop.PlatformInstagram: "Instagram",
	desktop.PlatformSpotify:   "Spotify",
}

func mediaSpecs(tb *Toolbox) []catalog.Spec {
	spec := func(id, platform string, withBrowser bool) catalog.Spec {
		params := []catalog.Param{param("accion", catalog.KindString, true, "What to do, e.g. pausar, siguiente, subir volumen")}
		if withBrowser {
			params = append(params, param("navegador", catalog.KindString, false, "Browser to open the site in first"))
		}
		return catalog.Spec{
			ID:          id,
			Category:    catalog.CategoryUI,
			Description: "Control " + mediaTitles[platform] + " playback with keyboard and mouse input.",
			Params:      params,
			New:         func() catalog.Request { return &controlMedia{tb: tb, platform: platform} },
		}
	}
	return []catalog.Spec{
		spec("control_youtube", desktop.PlatformYouTube, true),
		spec("control_tiktok", desktop.PlatformTikTok, true),
		spec("control_instagram", desktop.PlatformInstagram, true),
		spec("control_spotify", desktop.PlatformSpotify, false),
	}
}

type controlMedia struct {
	tb       *Toolbox
	platform string
	Command  string `json:"accion"`
	Browser  string `json:"navegador"`
}

func (r *controlMedia) Execute(ctx context.Context) (catalog.Outcome, error) {
	label, err := r.tb.Desktop.ControlMedia(ctx, r.platform, r.Command, r.Browser)
	if err != nil {
		return catalog.Outcome{}, err
	}
	msg := mediaTitles[r.platform] + ": " + label
	if r.Browser != "" {
		msg += " (" + r.Browser + ")"
	}
	return catalog.Outcome{Message: msg, Value: label}, nil
}
