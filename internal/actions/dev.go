package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/jarvis/internal/catalog"
	"github.com/starford/jarvis/internal/storage"
)

// Project templates.
const (
	TemplateBasic  = "basico"
	TemplateReact  = "react"
	TemplatePython = "python"
)

func devSpecs(tb *Toolbox) []catalog.Spec {
	return []catalog.Spec{
		{
			ID:          "crear_proyecto",
			Category:    catalog.CategoryFilesystem,
			Description: "Scaffold a project folder from a template.",
			Params: []catalog.Param{
				param("nombre", catalog.KindString, true, "Project name"),
				withDefault(param("template", catalog.KindString, false, "basico, react or python"), TemplateBasic),
				param("ruta", catalog.KindString, false, "Project folder, the Desktop by default"),
			},
			New: func() catalog.Request { return &createProject{tb: tb, Template: TemplateBasic} },
		},
		{
			ID:          "abrir_vscode",
			Category:    catalog.CategoryProcess,
			Description: "Open VS Code, optionally on a folder.",
			Params:      []catalog.Param{param("ruta", catalog.KindString, false, "Folder or file to open")},
			New:         func() catalog.Request { return &openVSCode{tb: tb} },
		},
		{
			ID:          "ejecutar_comando",
			Category:    catalog.CategoryProcess,
			Description: "Run a program and return its output. No shell is involved.",
			Params: []catalog.Param{
				param("comando", catalog.KindList, true, "Program and arguments, as a list or a single string"),
				param("directorio", catalog.KindString, false, "Working directory"),
			},
			New: func() catalog.Request { return &runCommand{tb: tb} },
		},
	}
}

type scaffoldFile struct {
	name, content string
}

func scaffold(name, template string) (dirs []string, files []scaffoldFile) {
	readme := scaffoldFile{"README.md", fmt.Sprintf("# %s\n\nProyecto creado por Jarvis.", name)}
	switch template {
	case TemplateReact:
		pkg, _ := json.Marshal(map[string]string{"name": name, "version": "1.0.0"})
		return []string{"src", "public"}, []scaffoldFile{{"package.json", string(pkg)}, readme}
	case TemplatePython:
		return []string{"src"}, []scaffoldFile{
			{"requirements.txt", ""},
			readme,
			{".gitignore", "__pycache__/\n*.pyc\n.env\n"},
		}
	default:
		return nil, []scaffoldFile{readme}
	}
}

type createProject struct {
	tb       *Toolbox
	Name     string `json:"nombre"`
	Template string `json:"template"`
	Path     string `json:"ruta"`
}

func (r *createProject) Validate() error {
	r.Template = strings.ToLower(strings.TrimSpace(r.Template))
	switch r.Template {
	case "", "básico", "basic":
		r.Template = TemplateBasic
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.Template, validation.In(TemplateBasic, TemplateReact, TemplatePython)),
	)
}

func (r *createProject) Execute(context.Context) (catalog.Outcome, error) {
	root := strings.TrimSpace(r.Path)
	if root == "" {
		root = r.tb.onDesktop(r.Name)
	}
	fs := r.tb.FS
	if err := fs.CreateDir(root); err != nil {
		return catalog.Outcome{}, err
	}
	dirs, files := scaffold(r.Name, r.Template)
	for _, d := range dirs {
		if err := fs.CreateDir(filepath.Join(root, d)); err != nil {
			return catalog.Outcome{}, err
		}
	}
	for _, f := range files {
		if err := fs.WriteText(filepath.Join(root, f.name), f.content, storage.Overwrite); err != nil {
			return catalog.Outcome{}, err
		}
	}
	return catalog.Outcome{Message: fmt.Sprintf("Project '%s' created: %s", r.Name, root), Value: root}, nil
}

type openVSCode struct {
	tb   *Toolbox
	Path string `json:"ruta"`
}

func (r *openVSCode) Execute(ctx context.Context) (catalog.Outcome, error) {
	p := storage.ExpandHome(strings.TrimSpace(r.Path))
	if err := r.tb.Desktop.OpenVSCode(ctx, p); err != nil {
		return catalog.Outcome{}, err
	}
	if p == "" {
		return catalog.Outcome{Message: "VS Code opened"}, nil
	}
	return catalog.Outcome{Message: "VS Code opened in " + r.Path}, nil
}

// Argv is a command line given either as a list or as one string. Strings
// are split on whitespace; single and double quotes group words.
type Argv []string

func (a *Argv) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*a = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("argv: unsupported value %s", data)
	}
	words, err := splitWords(s)
	if err != nil {
		return err
	}
	*a = words
	return nil
}

func splitWords(s string) ([]string, error) {
	var (
		words []string
		cur   strings.Builder
		quote rune
		inTok bool
	)
	for _, c := range s {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteRune(c)
			}
		case c == '"' || c == '\'':
			quote = c
			inTok = true
		case c == ' ' || c == '\t' || c == '\n':
			if inTok {
				words = append(words, cur.String())
				cur.Reset()
				inTok = false
			}
		default:
			cur.WriteRune(c)
			inTok = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("argv: unterminated %c quote", quote)
	}
	if inTok {
		words = append(words, cur.String())
	}
	return words, nil
}

type runCommand struct {
	tb      *Toolbox
	Command Argv   `json:"comando"`
	Dir     string `json:"directorio"`
}

func (r *runCommand) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Command, validation.Required.Error("must name a program")),
	)
}

func (r *runCommand) Execute(ctx context.Context) (catalog.Outcome, error) {
	out, err := r.tb.Desktop.RunCommand(ctx, r.Command, storage.ExpandHome(strings.TrimSpace(r.Dir)))
	if err != nil {
		return catalog.Outcome{}, err
	}
	return catalog.Outcome{Message: withPreview("Command executed:", out), Value: out}, nil
}
