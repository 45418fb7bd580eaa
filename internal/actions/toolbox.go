// Package actions is the fixed action vocabulary of the assistant. Each
// action binds its parameters to a typed request that runs against the
// filesystem provider or the desktop controller.
package actions

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/starford/jarvis/internal/catalog"
	"github.com/starford/jarvis/internal/storage"
)

// Desktop is the process, browser and UI control the actions rely on.
type Desktop interface {
	OpenURL(ctx context.Context, target, browser string) (string, error)
	SearchGoogle(ctx context.Context, q, browser string) (string, error)
	SearchYouTube(ctx context.Context, q, browser string) (string, error)
	SendPrompt(ctx context.Context, site, prompt, browser string) (bool, error)
	LaunchApp(ctx context.Context, name string) (string, error)
	KillProcess(ctx context.Context, name string) error
	CloseActiveWindow(ctx context.Context) (string, error)
	OpenFolder(ctx context.Context, path string) error
	OpenVSCode(ctx context.Context, path string) error
	Screenshot(ctx context.Context, path string) error
	RunCommand(ctx context.Context, argv []string, dir string) (string, error)
	PromptCursor(ctx context.Context, prompt string) error
	ControlMedia(ctx context.Context, platform, command, browser string) (string, error)
}

// Toolbox carries the collaborators and settings shared by all actions.
type Toolbox struct {
	FS      storage.Provider
	Desktop Desktop
	// DesktopDir is where folders, projects and screenshots go by default.
	DesktopDir string
	// ReadLimitMB is the default leer_archivo limit.
	ReadLimitMB float64
	// Browser is used when an action names none.
	Browser string
	// PPTXTemplate is the deck crear_ppt starts from when none is given.
	PPTXTemplate string
	Now          func() time.Time
}

func (tb *Toolbox) now() time.Time {
	if tb.Now != nil {
		return tb.Now()
	}
	return time.Now()
}

func (tb *Toolbox) browser(name string) string {
	if strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	return tb.Browser
}

func (tb *Toolbox) onDesktop(name string) string {
	return filepath.Join(storage.ExpandHome(tb.DesktopDir), name)
}

// Display limits for rendered results.
const (
	maxListed     = 20
	maxFiles      = 10
	maxPreviewLen = 500
)

// NewCatalog builds the catalog of every action backed by tb.
func NewCatalog(tb *Toolbox) *catalog.Catalog {
	var specs []catalog.Spec
	specs = append(specs, fileSpecs(tb)...)
	specs = append(specs, trashSpecs(tb)...)
	specs = append(specs, systemSpecs(tb)...)
	specs = append(specs, webSpecs(tb)...)
	specs = append(specs, mediaSpecs(tb)...)
	specs = append(specs, officeSpecs(tb)...)
	specs = append(specs, devSpecs(tb)...)
	specs = append(specs, integrationSpecs(tb)...)
	return catalog.MustNew(specs...)
}

// preview cuts s to n runes and reports whether anything was dropped.
func preview(s string, n int) (string, bool) {
	if utf8.RuneCountInString(s) <= n {
		return s, false
	}
	r := []rune(s)
	return string(r[:n]), true
}

func withPreview(head, body string) string {
	p, cut := preview(body, maxPreviewLen)
	msg := head + "\n" + p
	if cut {
		msg += "\n... (truncated)"
	}
	return msg
}

func andMore(n int, noun string) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("... and %d more%s", n, noun)
}

// via names the browser an action used, if one was asked for and found.
func via(used, browser string) string {
	if browser == "" || used == "default browser" {
		return ""
	}
	return " in " + browser
}

func param(name string, kind catalog.ParamKind, required bool, desc string) catalog.Param {
	return catalog.Param{Name: name, Kind: kind, Required: required, Description: desc}
}

func withDefault(p catalog.Param, v any) catalog.Param {
	p.Default = v
	return p
}
