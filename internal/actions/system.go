package actions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/jarvis/internal/apperr"
	"github.com/starford/jarvis/internal/catalog"
	"github.com/starford/jarvis/internal/storage"
)

func systemSpecs(tb *Toolbox) []catalog.Spec {
	return []catalog.Spec{
		{
			ID:          "abrir_carpeta",
			Category:    catalog.CategoryProcess,
			Description: "Show a folder in the file manager.",
			Params:      []catalog.Param{param("ruta", catalog.KindString, true, "Folder to open")},
			New:         func() catalog.Request { return &openFolder{tb: tb} },
		},
		{
			ID:          "abrir_app",
			Category:    catalog.CategoryProcess,
			Description: "Launch an application by name.",
			Params:      []catalog.Param{param("nombre", catalog.KindString, true, "Application name, e.g. chrome or notepad")},
			New:         func() catalog.Request { return &openApp{tb: tb} },
		},
		{
			ID:          "cerrar_app",
			Category:    catalog.CategoryProcess,
			Description: "Force-close every process of an application.",
			Params:      []catalog.Param{param("nombre", catalog.KindString, true, "Process image name, e.g. chrome.exe")},
			New:         func() catalog.Request { return &closeApp{tb: tb} },
		},
		{
			ID:          "cerrar_ventana",
			Category:    catalog.CategoryUI,
			Description: "Close the focused window.",
			New:         func() catalog.Request { return &closeWindow{tb: tb} },
		},
		{
			ID:          "tomar_screenshot",
			Category:    catalog.CategoryUI,
			Description: "Capture the screen to a PNG file.",
			Params:      []catalog.Param{param("ruta", catalog.KindString, false, "Output file, the Desktop by default")},
			New:         func() catalog.Request { return &screenshot{tb: tb} },
		},
	}
}

type openFolder struct {
	tb   *Toolbox
	Path string `json:"ruta"`
}

func (r *openFolder) Execute(ctx context.Context) (catalog.Outcome, error) {
	p := storage.ExpandHome(strings.TrimSpace(r.Path))
	if err := r.tb.Desktop.OpenFolder(ctx, p); err != nil {
		return catalog.Outcome{}, err
	}
	return catalog.Outcome{Message: "Folder opened: " + r.Path}, nil
}

type openApp struct {
	tb   *Toolbox
	Name string `json:"nombre"`
}

func (r *openApp) Execute(ctx context.Context) (catalog.Outcome, error) {
	used, err := r.tb.Desktop.LaunchApp(ctx, r.Name)
	if err != nil {
		return catalog.Outcome{}, err
	}
	return catalog.Outcome{Message: fmt.Sprintf("Application '%s' opened.", r.Name), Value: used}, nil
}

type closeApp struct {
	tb   *Toolbox
	Name string `json:"nombre"`
}

func (r *closeApp) Execute(ctx context.Context) (catalog.Outcome, error) {
	if err := r.tb.Desktop.KillProcess(ctx, r.Name); err != nil {
		return catalog.Outcome{}, err
	}
	return catalog.Outcome{Message: fmt.Sprintf("Application '%s' closed.", r.Name)}, nil
}

type closeWindow struct {
	tb *Toolbox
}

func (r *closeWindow) Execute(ctx context.Context) (catalog.Outcome, error) {
	how, err := r.tb.Desktop.CloseActiveWindow(ctx)
	if err != nil {
		return catalog.Outcome{}, err
	}
	return catalog.Outcome{Message: "Window closed (" + how + ").", Value: how}, nil
}

type screenshot struct {
	tb   *Toolbox
	Path string `json:"ruta"`
}

func (r *screenshot) Execute(ctx context.Context) (catalog.Outcome, error) {
	p := storage.ExpandHome(strings.TrimSpace(r.Path))
	if p == "" {
		p = r.tb.onDesktop("screenshot_" + r.tb.now().Format("20060102_150405") + ".png")
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return catalog.Outcome{}, apperr.Wrap(apperr.KindInvalidParameter, err, "invalid path %s", p)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return catalog.Outcome{}, apperr.Wrap(apperr.KindPermissionDenied, err, "cannot create %s", filepath.Dir(abs))
	}
	if err := r.tb.Desktop.Screenshot(ctx, abs); err != nil {
		return catalog.Outcome{}, err
	}
	return catalog.Outcome{Message: "Screenshot saved: " + abs, Value: abs}, nil
}
