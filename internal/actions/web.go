package actions

import (
	"context"

	"github.com/starford/jarvis/internal/catalog"
	"github.com/starford/jarvis/internal/desktop"
)

func webSpecs(tb *Toolbox) []catalog.Spec {
	browserParam := param("navegador", catalog.KindString, false, "Browser to use: chrome, brave, firefox or edge")
	return []catalog.Spec{
		{
			ID:          "abrir_url",
			Category:    catalog.CategoryBrowser,
			Description: "Open a web address.",
			Params:      []catalog.Param{param("url", catalog.KindString, true, "Address to open"), browserParam},
			New:         func() catalog.Request { return &openURL{tb: tb} },
		},
		{
			ID:          "buscar_google",
			Category:    catalog.CategoryBrowser,
			Description: "Search Google.",
			Params:      []catalog.Param{param("consulta", catalog.KindString, true, "Search terms"), browserParam},
			New:         func() catalog.Request { return &searchGoogle{tb: tb} },
		},
		{
			ID:          "buscar_youtube",
			Category:    catalog.CategoryBrowser,
			Description: "Search YouTube.",
			Params:      []catalog.Param{param("consulta", catalog.KindString, true, "Search terms"), browserParam},
			New:         func() catalog.Request { return &searchYouTube{tb: tb} },
		},
		{
			ID:          "abrir_youtube_en_navegador",
			Category:    catalog.CategoryBrowser,
			Description: "Open YouTube in a specific browser.",
			Params:      []catalog.Param{param("navegador", catalog.KindString, true, "Browser to use")},
			New:         func() catalog.Request { return &openYouTube{tb: tb} },
		},
	}
}

type openURL struct {
	tb      *Toolbox
	URL     string `json:"url"`
	Browser string `json:"navegador"`
}

func (r *openURL) Execute(ctx context.Context) (catalog.Outcome, error) {
	b := r.tb.browser(r.Browser)
	used, err := r.tb.Desktop.OpenURL(ctx, r.URL, b)
	if err != nil {
		return catalog.Outcome{}, err
	}
	return catalog.Outcome{Message: "URL opened" + via(used, b) + ": " + r.URL, Value: used}, nil
}

type searchGoogle struct {
	tb      *Toolbox
	Query   string `json:"consulta"`
	Browser string `json:"navegador"`
}

func (r *searchGoogle) Execute(ctx context.Context) (catalog.Outcome, error) {
	b := r.tb.browser(r.Browser)
	used, err := r.tb.Desktop.SearchGoogle(ctx, r.Query, b)
	if err != nil {
		return catalog.Outcome{}, err
	}
	return catalog.Outcome{Message: "Searching Google" + via(used, b) + ": " + r.Query, Value: desktop.GoogleSearchURL(r.Query)}, nil
}

type searchYouTube struct {
	tb      *Toolbox
	Query   string `json:"consulta"`
	Browser string `json:"navegador"`
}

func (r *searchYouTube) Execute(ctx context.Context) (catalog.Outcome, error) {
	b := r.tb.browser(r.Browser)
	used, err := r.tb.Desktop.SearchYouTube(ctx, r.Query, b)
	if err != nil {
		return catalog.Outcome{}, err
	}
	return catalog.Outcome{Message: "Searching YouTube" + via(used, b) + ": " + r.Query, Value: desktop.YouTubeSearchURL(r.Query)}, nil
}

type openYouTube struct {
	tb      *Toolbox
	Browser string `json:"navegador"`
}

func (r *openYouTube) Execute(ctx context.Context) (catalog.Outcome, error) {
	used, err := r.tb.Desktop.OpenURL(ctx, desktop.YouTubeURL, r.Browser)
	if err != nil {
		return catalog.Outcome{}, err
	}
	if used == "default browser" {
		return catalog.Outcome{Message: "YouTube opened in the default browser (" + r.Browser + " was not found)", Value: used}, nil
	}
	return catalog.Outcome{Message: "YouTube opened in " + r.Browser, Value: used}, nil
}
