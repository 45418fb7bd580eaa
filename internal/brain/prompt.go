package brain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/starford/jarvis/internal/catalog"
)

const promptHeader = `Sos un asistente de automatización de escritorio llamado Jarvis.
SIEMPRE devolvés SOLO un JSON válido, sin texto adicional, sin tokens especiales, sin markdown.

REGLA CRÍTICA: devolvé ÚNICAMENTE el JSON. No uses <|tokens|>, no uses bloques de código, no agregues explicaciones.

Formato para UNA acción:
{"action": "...", "params": {...}}

Formato para MÚLTIPLES acciones, en el orden en que deben ejecutarse:
{"actions": [{"action": "...", "params": {...}}, {"action": "...", "params": {...}}]}

Si el usuario solo conversa o pregunta algo que no requiere una acción:
{"action": "none", "answer": "tu respuesta"}

Ejemplos:
{"action":"abrir_app","params":{"nombre":"chrome"}}
{"actions":[{"action":"crear_carpeta","params":{"ruta":"%[1]s/Proyecto"}},{"action":"crear_txt","params":{"ruta":"%[1]s/Proyecto/notas.txt","contenido":"Ideas iniciales"}}]}
{"action":"control_youtube","params":{"accion":"pausar"}}
`

const promptRules = `
REGLAS:
- Usá siempre rutas absolutas. El escritorio del usuario es %[1]s.
- Si el usuario pide un informe, reporte, ensayo o resumen, generá contenido real y completo en "contenido", no solo el título.
- "eliminar" manda a la papelera salvo que el usuario pida borrar definitivamente ("permanente": true).
- Los parámetros opcionales se pueden omitir.
- No escribas nada fuera del JSON.
`

var categoryTitles = []struct {
	cat   catalog.Category
	title string
}{
	{catalog.CategoryFilesystem, "ARCHIVOS Y CARPETAS"},
	{catalog.CategoryProcess, "APLICACIONES Y SISTEMA"},
	{catalog.CategoryBrowser, "NAVEGADOR Y WEB"},
	{catalog.CategoryUI, "CONTROL DE PANTALLA Y MULTIMEDIA"},
	{catalog.CategoryIntegration, "INTEGRACIONES"},
}

// SystemPrompt builds the interpreter instructions for the given actions.
// desktopDir is shown to the model as the user's Desktop.
func SystemPrompt(specs []catalog.Spec, desktopDir string) string {
	var b strings.Builder
	fmt.Fprintf(&b, promptHeader, desktopDir)

	byCat := map[catalog.Category][]catalog.Spec{}
	for _, s := range specs {
		byCat[s.Category] = append(byCat[s.Category], s)
	}
	for i, ct := range categoryTitles {
		group := byCat[ct.cat]
		if len(group) == 0 {
			continue
		}
		sort.Slice(group, func(a, b int) bool { return group[a].ID < group[b].ID })
		fmt.Fprintf(&b, "\n=== %d. %s ===\n", i+1, ct.title)
		for _, s := range group {
			writeAction(&b, s)
		}
	}
	fmt.Fprintf(&b, promptRules, desktopDir)
	return b.String()
}

func writeAction(b *strings.Builder, s catalog.Spec) {
	fmt.Fprintf(b, "- %s: %s\n", s.ID, s.Description)
	if len(s.Params) == 0 {
		b.WriteString("    sin parámetros\n")
		return
	}
	for _, p := range s.Params {
		req := "opcional"
		if p.Required {
			req = "obligatorio"
		}
		line := fmt.Sprintf("    %s (%s, %s)", p.Name, p.Kind, req)
		if p.Default != nil && p.Default != "" {
			line += fmt.Sprintf(", por defecto %v", p.Default)
		}
		if p.Description != "" {
			line += ": " + p.Description
		}
		b.WriteString(line + "\n")
	}
}
