package actions

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/starford/jarvis/internal/apperr"
	"github.com/starford/jarvis/internal/catalog"
	"github.com/starford/jarvis/internal/office"
	"github.com/starford/jarvis/internal/storage"
)

func officeSpecs(tb *Toolbox) []catalog.Spec {
	return []catalog.Spec{
		{
			ID:          "crear_docx",
			Category:    catalog.CategoryIntegration,
			Description: "Create a Word document with one paragraph per line of contenido.",
			Params: []catalog.Param{
				param("ruta", catalog.KindString, true, "Output .docx file"),
				param("contenido", catalog.KindString, false, "Document text"),
				param("plantilla", catalog.KindString, false, "Existing .docx to start from"),
			},
			New: func() catalog.Request { return &createDOCX{tb: tb} },
		},
		{
			ID:          "crear_ppt",
			Category:    catalog.CategoryIntegration,
			Description: "Create a PowerPoint presentation from a template.",
			Params: []catalog.Param{
				param("ruta", catalog.KindString, true, "Output .pptx file"),
				withDefault(param("titulo", catalog.KindString, false, "Presentation title"), "Presentación"),
				param("plantilla", catalog.KindString, false, "Existing .pptx to start from"),
			},
			New: func() catalog.Request { return &createPPTX{tb: tb, Title: "Presentación"} },
		},
	}
}

func outputPath(p string) (string, error) {
	abs, err := filepath.Abs(storage.ExpandHome(strings.TrimSpace(p)))
	if err != nil {
		return "", apperr.Wrap(apperr.KindInvalidParameter, err, "invalid path %s", p)
	}
	return abs, nil
}

type createDOCX struct {
	tb       *Toolbox
	Path     string `json:"ruta"`
	Content  string `json:"contenido"`
	Template string `json:"plantilla"`
}

func (r *createDOCX) Execute(context.Context) (catalog.Outcome, error) {
	p, err := outputPath(r.Path)
	if err != nil {
		return catalog.Outcome{}, err
	}
	if err := office.WriteDOCX(p, r.Content, strings.TrimSpace(r.Template)); err != nil {
		return catalog.Outcome{}, err
	}
	return catalog.Outcome{Message: "DOCX file created: " + p, Value: p}, nil
}

type createPPTX struct {
	tb       *Toolbox
	Path     string `json:"ruta"`
	Title    string `json:"titulo"`
	Template string `json:"plantilla"`
}

func (r *createPPTX) Execute(context.Context) (catalog.Outcome, error) {
	p, err := outputPath(r.Path)
	if err != nil {
		return catalog.Outcome{}, err
	}
	tmpl := strings.TrimSpace(r.Template)
	if tmpl == "" {
		tmpl = r.tb.PPTXTemplate
	}
	if err := office.WritePPTX(p, r.Title, tmpl); err != nil {
		return catalog.Outcome{}, err
	}
	return catalog.Outcome{Message: "Presentation created: " + p, Value: p}, nil
}
