package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/jarvis/internal/apperr"
	"github.com/starford/jarvis/internal/catalog"
	"github.com/starford/jarvis/internal/storage"
)

type fakeDesktop struct {
	calls     []string
	argv      []string
	dir       string
	mediaErr  error
	shotPaths []string
}

func (f *fakeDesktop) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeDesktop) OpenURL(_ context.Context, target, browser string) (string, error) {
	f.record("open %s %s", target, browser)
	if browser == "" {
		return "default browser", nil
	}
	return "/usr/bin/" + browser, nil
}
func (f *fakeDesktop) SearchGoogle(ctx context.Context, q, b string) (string, error) {
	return f.OpenURL(ctx, "google:"+q, b)
}
func (f *fakeDesktop) SearchYouTube(ctx context.Context, q, b string) (string, error) {
	return f.OpenURL(ctx, "youtube:"+q, b)
}
func (f *fakeDesktop) SendPrompt(_ context.Context, site, prompt, _ string) (bool, error) {
	f.record("prompt %s %s", site, prompt)
	return true, nil
}
func (f *fakeDesktop) LaunchApp(_ context.Context, name string) (string, error) {
	f.record("launch %s", name)
	return "direct", nil
}
func (f *fakeDesktop) KillProcess(_ context.Context, name string) error {
	f.record("kill %s", name)
	return nil
}
func (f *fakeDesktop) CloseActiveWindow(context.Context) (string, error) {
	return "sent Alt+F4", nil
}
func (f *fakeDesktop) OpenFolder(_ context.Context, p string) error {
	f.record("folder %s", p)
	return nil
}
func (f *fakeDesktop) OpenVSCode(_ context.Context, p string) error {
	f.record("code %s", p)
	return nil
}
func (f *fakeDesktop) Screenshot(_ context.Context, p string) error {
	f.shotPaths = append(f.shotPaths, p)
	return nil
}
func (f *fakeDesktop) RunCommand(_ context.Context, argv []string, dir string) (string, error) {
	f.argv, f.dir = argv, dir
	return strings.Repeat("x", 600), nil
}
func (f *fakeDesktop) PromptCursor(_ context.Context, p string) error {
	f.record("cursor %s", p)
	return nil
}
func (f *fakeDesktop) ControlMedia(_ context.Context, platform, command, browser string) (string, error) {
	f.record("media %s %s %s", platform, command, browser)
	return "paused", f.mediaErr
}

type fixture struct {
	cat     *catalog.Catalog
	desk    *fakeDesktop
	root    string
	desktop string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	desktopDir := filepath.Join(root, "Desktop")
	now := func() time.Time { return time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local) }
	fs, err := storage.NewFS(filepath.Join(root, "trash"), desktopDir, storage.WithClock(now))
	require.NoError(t, err)
	desk := &fakeDesktop{}
	tb := &Toolbox{
		FS:         fs,
		Desktop:    desk,
		DesktopDir: desktopDir,
		Now:        now,
	}
	return &fixture{cat: NewCatalog(tb), desk: desk, root: root, desktop: desktopDir}
}

func (f *fixture) run(t *testing.T, id string, params map[string]any) (catalog.Outcome, error) {
	t.Helper()
	spec, ok := f.cat.Resolve(id)
	require.True(t, ok, "action %s not registered", id)
	req, err := catalog.Bind(spec, params)
	if err != nil {
		return catalog.Outcome{}, err
	}
	return req.Execute(context.Background())
}

func TestCatalogHasEveryAction(t *testing.T) {
	f := newFixture(t)
	want := []string{
		"crear_carpeta", "listar_carpeta", "leer_archivo", "crear_txt", "editar_archivo",
		"copiar_archivo", "mover_archivo", "eliminar", "duplicar", "buscar_texto_en_archivos",
		"listar_papelera", "restaurar_desde_papelera", "crear_proyecto",
		"abrir_carpeta", "abrir_app", "cerrar_app", "cerrar_ventana", "tomar_screenshot",
		"abrir_vscode", "ejecutar_comando",
		"abrir_url", "buscar_google", "buscar_youtube", "abrir_youtube_en_navegador",
		"control_youtube", "control_tiktok", "control_instagram", "control_spotify",
		"crear_doc_google_docs", "crear_docx", "crear_ppt", "abrir_canva", "abrir_gamma",
		"enviar_prompt_chatgpt", "enviar_prompt_gemini", "enviar_prompt_cursor",
	}
	assert.ElementsMatch(t, want, f.cat.Names())

	for _, s := range f.cat.All() {
		assert.NotEmpty(t, s.Description, s.ID)
		assert.NotEmpty(t, s.Category, s.ID)
	}
}

func TestCreateDirFallsBackToDesktop(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "crear_carpeta", nil)
	require.NoError(t, err)
	assert.Equal(t, "Folder 'CarpetaIA' created on the Desktop.", out.Message)
	assert.DirExists(t, filepath.Join(f.desktop, "CarpetaIA"))

	target := filepath.Join(f.root, "a", "b")
	out, err = f.run(t, "crear_carpeta", map[string]any{"ruta": target, "nombre": "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "Folder created: "+target, out.Message)
	assert.DirExists(t, target)
}

func TestListDirTruncates(t *testing.T) {
	f := newFixture(t)
	dir := filepath.Join(f.root, "many")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for i := 0; i < 25; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("f%02d.txt", i)), nil, 0o644))
	}
	out, err := f.run(t, "listar_carpeta", map[string]any{"ruta": dir})
	require.NoError(t, err)
	lines := strings.Split(out.Message, "\n")
	assert.Equal(t, "Found 25 items:", lines[0])
	assert.Len(t, lines, 22)
	assert.Equal(t, "... and 5 more", lines[21])
	assert.Len(t, out.Value, 25)
}

func TestReadFilePreview(t *testing.T) {
	f := newFixture(t)
	p := filepath.Join(f.root, "long.txt")
	require.NoError(t, os.WriteFile(p, []byte(strings.Repeat("ñ", 501)), 0o644))

	out, err := f.run(t, "leer_archivo", map[string]any{"ruta": p, "limite_mb": "1"})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out.Message, "\n... (truncated)"))
	assert.Equal(t, 500, strings.Count(out.Message, "ñ"))

	_, err = f.run(t, "leer_archivo", map[string]any{"ruta": p, "limite_mb": -2})
	assert.Equal(t, apperr.KindInvalidParameter, apperr.KindOf(err))
}

func TestEditFileModes(t *testing.T) {
	f := newFixture(t)
	p := filepath.Join(f.root, "notes", "n.txt")
	_, err := f.run(t, "crear_txt", map[string]any{"ruta": p, "contenido": "uno"})
	require.NoError(t, err)
	out, err := f.run(t, "editar_archivo", map[string]any{"ruta": p, "contenido": "+dos", "modo": "AGREGAR"})
	require.NoError(t, err)
	assert.Contains(t, out.Message, "(mode: agregar)")

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "uno+dos", string(data))

	_, err = f.run(t, "editar_archivo", map[string]any{"ruta": p, "modo": "borrar"})
	assert.Equal(t, apperr.KindInvalidParameter, apperr.KindOf(err))
}

func TestDeleteAcceptsStringFlag(t *testing.T) {
	f := newFixture(t)
	p := filepath.Join(f.root, "gone.txt")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	out, err := f.run(t, "eliminar", map[string]any{"ruta": p, "permanente": "true"})
	require.NoError(t, err)
	assert.Equal(t, "Permanently deleted: "+p, out.Message)
	assert.NoFileExists(t, p)

	trash, err := f.run(t, "listar_papelera", nil)
	require.NoError(t, err)
	assert.Equal(t, "The trash is empty.", trash.Message)
}

func TestTrashRoundTrip(t *testing.T) {
	f := newFixture(t)
	p := filepath.Join(f.root, "informe.txt")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	out, err := f.run(t, "eliminar", map[string]any{"ruta": p})
	require.NoError(t, err)
	assert.Contains(t, out.Message, "Moved to trash")

	listed, err := f.run(t, "listar_papelera", nil)
	require.NoError(t, err)
	assert.Contains(t, listed.Message, "Trash (1 items):\n- informe.txt (2025-03-14 09:26:53)")

	out, err = f.run(t, "restaurar_desde_papelera", map[string]any{"nombre_archivo": "informe.txt"})
	require.NoError(t, err)
	assert.Equal(t, "Restored: "+filepath.Join(f.desktop, "informe.txt"), out.Message)
}

func TestSearchTextRendering(t *testing.T) {
	f := newFixture(t)
	dir := filepath.Join(f.root, "src")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for i := 0; i < 12; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("m%02d.md", i)), []byte("a\nTODO here\n"), 0o644))
	}
	out, err := f.run(t, "buscar_texto_en_archivos", map[string]any{"ruta": dir, "texto": "todo", "extensiones": "md"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.Message, "Found 'todo' in 12 files:"))
	assert.Contains(t, out.Message, "(lines: 2)")
	assert.True(t, strings.HasSuffix(out.Message, "... and 2 more files"))

	out, err = f.run(t, "buscar_texto_en_archivos", map[string]any{"ruta": dir, "texto": "absent"})
	require.NoError(t, err)
	assert.Equal(t, "No matches for 'absent' in "+dir, out.Message)
}

func TestCreateProjectTemplates(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "crear_proyecto", map[string]any{"nombre": "web", "template": "react"})
	require.NoError(t, err)
	root := filepath.Join(f.desktop, "web")
	assert.Equal(t, root, out.Value)
	assert.DirExists(t, filepath.Join(root, "src"))
	assert.DirExists(t, filepath.Join(root, "public"))

	var pkg map[string]string
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &pkg))
	assert.Equal(t, map[string]string{"name": "web", "version": "1.0.0"}, pkg)

	py := filepath.Join(f.root, "py")
	_, err = f.run(t, "crear_proyecto", map[string]any{"nombre": "py", "template": "python", "ruta": py})
	require.NoError(t, err)
	gi, err := os.ReadFile(filepath.Join(py, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, "__pycache__/\n*.pyc\n.env\n", string(gi))
	readme, err := os.ReadFile(filepath.Join(py, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# py\n\nProyecto creado por Jarvis.", string(readme))

	_, err = f.run(t, "crear_proyecto", map[string]any{"nombre": "x", "template": "rust"})
	assert.Equal(t, apperr.KindInvalidParameter, apperr.KindOf(err))
}

func TestRunCommandSplitsStrings(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "ejecutar_comando", map[string]any{"comando": `git commit -m "first try"`, "directorio": f.root})
	require.NoError(t, err)
	assert.Equal(t, []string{"git", "commit", "-m", "first try"}, f.desk.argv)
	assert.Equal(t, f.root, f.desk.dir)
	assert.True(t, strings.HasSuffix(out.Message, "... (truncated)"))

	_, err = f.run(t, "ejecutar_comando", map[string]any{"comando": []any{"ls", "-la"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ls", "-la"}, f.desk.argv)

	_, err = f.run(t, "ejecutar_comando", map[string]any{"comando": []any{}})
	assert.Equal(t, apperr.KindInvalidParameter, apperr.KindOf(err))

	_, err = f.run(t, "ejecutar_comando", map[string]any{"comando": `echo "open`})
	assert.Equal(t, apperr.KindInvalidParameter, apperr.KindOf(err))
}

func TestScreenshotDefaultPath(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "tomar_screenshot", nil)
	require.NoError(t, err)
	want := filepath.Join(f.desktop, "screenshot_20250314_092653.png")
	assert.Equal(t, []string{want}, f.desk.shotPaths)
	assert.Equal(t, "Screenshot saved: "+want, out.Message)
}

func TestBrowserActions(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "buscar_youtube", map[string]any{"consulta": "lofi", "navegador": "brave"})
	require.NoError(t, err)
	assert.Equal(t, "Searching YouTube in brave: lofi", out.Message)

	out, err = f.run(t, "abrir_url", map[string]any{"url": "go.dev"})
	require.NoError(t, err)
	assert.Equal(t, "URL opened: go.dev", out.Message)

	_, err = f.run(t, "abrir_youtube_en_navegador", nil)
	assert.Equal(t, apperr.KindMissingParameter, apperr.KindOf(err))
}

func TestMediaActionsRouteToPlatform(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "control_tiktok", map[string]any{"accion": "pausa"})
	require.NoError(t, err)
	assert.Equal(t, "TikTok: paused", out.Message)
	assert.Equal(t, "media tiktok pausa ", f.desk.calls[len(f.desk.calls)-1])

	f.desk.mediaErr = apperr.New(apperr.KindUnrecognizedCommand, "nope")
	_, err = f.run(t, "control_spotify", map[string]any{"accion": "bailar"})
	assert.Equal(t, apperr.KindUnrecognizedCommand, apperr.KindOf(err))
}

func TestCreatePPTXNeedsTemplate(t *testing.T) {
	f := newFixture(t)
	_, err := f.run(t, "crear_ppt", map[string]any{"ruta": filepath.Join(f.root, "a.pptx")})
	assert.Equal(t, apperr.KindCapabilityUnavailable, apperr.KindOf(err))
}

func TestCreateDOCX(t *testing.T) {
	f := newFixture(t)
	p := filepath.Join(f.root, "docs", "carta.docx")
	out, err := f.run(t, "crear_docx", map[string]any{"ruta": p, "contenido": "Hola\nMundo"})
	require.NoError(t, err)
	assert.Equal(t, "DOCX file created: "+p, out.Message)
	assert.FileExists(t, p)
}

func TestSplitWords(t *testing.T) {
	got, err := splitWords(`  npm  run 'dev server' ""  `)
	require.NoError(t, err)
	assert.Equal(t, []string{"npm", "run", "dev server", ""}, got)
}
