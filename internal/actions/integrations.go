package actions

import (
	"context"
	"fmt"

	"github.com/starford/jarvis/internal/catalog"
	"github.com/starford/jarvis/internal/desktop"
)

func integrationSpecs(tb *Toolbox) []catalog.Spec {
	browserParam := param("navegador", catalog.KindString, false, "Browser to use")
	promptParam := param("prompt", catalog.KindString, true, "Text to send")
	return []catalog.Spec{
		{
			ID:          "crear_doc_google_docs",
			Category:    catalog.CategoryIntegration,
			Description: "Start a new Google Docs document.",
			Params: []catalog.Param{
				param("nombre", catalog.KindString, true, "Document title"),
				param("plantilla", catalog.KindString, false, "Template to duplicate by hand"),
				param("contenido", catalog.KindString, false, "Initial content"),
			},
			New: func() catalog.Request { return &createGoogleDoc{tb: tb} },
		},
		{
			ID:          "abrir_canva",
			Category:    catalog.CategoryIntegration,
			Description: "Open Canva.",
			New:         func() catalog.Request { return &openSite{tb: tb, url: desktop.CanvaURL, title: "Canva"} },
		},
		{
			ID:          "abrir_gamma",
			Category:    catalog.CategoryIntegration,
			Description: "Open Gamma.",
			New:         func() catalog.Request { return &openSite{tb: tb, url: desktop.GammaURL, title: "Gamma"} },
		},
		{
			ID:          "enviar_prompt_chatgpt",
			Category:    catalog.CategoryIntegration,
			Description: "Open ChatGPT and type a prompt into it.",
			Params:      []catalog.Param{promptParam, browserParam},
			New:         func() catalog.Request { return &sendPrompt{tb: tb, url: desktop.ChatGPTURL, title: "ChatGPT"} },
		},
		{
			ID:          "enviar_prompt_gemini",
			Category:    catalog.CategoryIntegration,
			Description: "Open Gemini and type a prompt into it.",
			Params:      []catalog.Param{promptParam, browserParam},
			New:         func() catalog.Request { return &sendPrompt{tb: tb, url: desktop.GeminiURL, title: "Gemini"} },
		},
		{
			ID:          "enviar_prompt_cursor",
			Category:    catalog.CategoryUI,
			Description: "Focus Cursor's chat and submit a prompt.",
			Params:      []catalog.Param{promptParam},
			New:         func() catalog.Request { return &promptCursor{tb: tb} },
		},
	}
}

type createGoogleDoc struct {
	tb       *Toolbox
	Name     string `json:"nombre"`
	Template string `json:"plantilla"`
	Content  string `json:"contenido"`
}

func (r *createGoogleDoc) Execute(ctx context.Context) (catalog.Outcome, error) {
	u := desktop.GoogleDocsCreateURL(r.Name)
	if _, err := r.tb.Desktop.OpenURL(ctx, u, r.tb.Browser); err != nil {
		return catalog.Outcome{}, err
	}
	msg := fmt.Sprintf("Document '%s' created in Google Docs", r.Name)
	if r.Template != "" {
		msg += fmt.Sprintf(". To use template '%s', duplicate it manually", r.Template)
	}
	if r.Content != "" {
		msg += ". Paste the content into the new document"
	}
	return catalog.Outcome{Message: msg + ".", Value: u}, nil
}

type openSite struct {
	tb    *Toolbox
	url   string
	title string
}

func (r *openSite) Execute(ctx context.Context) (catalog.Outcome, error) {
	if _, err := r.tb.Desktop.OpenURL(ctx, r.url, r.tb.Browser); err != nil {
		return catalog.Outcome{}, err
	}
	return catalog.Outcome{Message: r.title + " opened", Value: r.url}, nil
}

type sendPrompt struct {
	tb      *Toolbox
	url     string
	title   string
	Prompt  string `json:"prompt"`
	Browser string `json:"navegador"`
}

func (r *sendPrompt) Execute(ctx context.Context) (catalog.Outcome, error) {
	b := r.tb.browser(r.Browser)
	typed, err := r.tb.Desktop.SendPrompt(ctx, r.url, r.Prompt, b)
	if err != nil {
		return catalog.Outcome{}, err
	}
	suffix := ""
	if r.Browser != "" {
		suffix = " in " + r.Browser
	}
	if !typed {
		return catalog.Outcome{Message: r.title + " opened" + suffix + "; input simulation is unavailable, so paste the prompt yourself", Value: false}, nil
	}
	return catalog.Outcome{Message: "Prompt sent to " + r.title + suffix, Value: true}, nil
}

type promptCursor struct {
	tb     *Toolbox
	Prompt string `json:"prompt"`
}

func (r *promptCursor) Execute(ctx context.Context) (catalog.Outcome, error) {
	if err := r.tb.Desktop.PromptCursor(ctx, r.Prompt); err != nil {
		return catalog.Outcome{}, err
	}
	return catalog.Outcome{Message: "Prompt sent to Cursor"}, nil
}
