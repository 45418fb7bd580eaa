package actions

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/jarvis/internal/catalog"
	"github.com/starford/jarvis/internal/storage"
)

// Edit modes accepted by editar_archivo.
const (
	ModeOverwrite = "sobrescribir"
	ModeAppend    = "agregar"
)

func fileSpecs(tb *Toolbox) []catalog.Spec {
	return []catalog.Spec{
		{
			ID:          "crear_carpeta",
			Category:    catalog.CategoryFilesystem,
			Description: "Create a folder at ruta, or a folder called nombre on the Desktop.",
			Params: []catalog.Param{
				param("ruta", catalog.KindString, false, "Full path of the folder"),
				withDefault(param("nombre", catalog.KindString, false, "Folder name on the Desktop"), "CarpetaIA"),
			},
			New: func() catalog.Request { return &createDir{tb: tb, Name: "CarpetaIA"} },
		},
		{
			ID:          "listar_carpeta",
			Category:    catalog.CategoryFilesystem,
			Description: "List a folder, optionally only files with an extension such as .pdf.",
			Params: []catalog.Param{
				param("ruta", catalog.KindString, true, "Folder to list"),
				param("filtro", catalog.KindString, false, "Extension filter starting with a dot"),
			},
			New: func() catalog.Request { return &listDir{tb: tb} },
		},
		{
			ID:          "leer_archivo",
			Category:    catalog.CategoryFilesystem,
			Description: "Read a UTF-8 text file.",
			Params: []catalog.Param{
				param("ruta", catalog.KindString, true, "File to read"),
				withDefault(param("limite_mb", catalog.KindNumber, false, "Size limit in MB"), storage.DefaultReadLimitMB),
			},
			New: func() catalog.Request { return &readFile{tb: tb, LimitMB: catalog.Number(tb.readLimit())} },
		},
		{
			ID:          "crear_txt",
			Category:    catalog.CategoryFilesystem,
			Description: "Create a text file.",
			Params: []catalog.Param{
				param("ruta", catalog.KindString, true, "File to create"),
				withDefault(param("contenido", catalog.KindString, false, "Initial content"), ""),
			},
			New: func() catalog.Request { return &createText{tb: tb} },
		},
		{
			ID:          "editar_archivo",
			Category:    catalog.CategoryFilesystem,
			Description: "Overwrite or append to a text file.",
			Params: []catalog.Param{
				param("ruta", catalog.KindString, true, "File to edit"),
				withDefault(param("contenido", catalog.KindString, false, "Content to write"), ""),
				withDefault(param("modo", catalog.KindString, false, "sobrescribir or agregar"), ModeOverwrite),
			},
			New: func() catalog.Request { return &editFile{tb: tb, Mode: ModeOverwrite} },
		},
		{
			ID:          "copiar_archivo",
			Category:    catalog.CategoryFilesystem,
			Description: "Copy a file or folder.",
			Params: []catalog.Param{
				param("origen", catalog.KindString, true, "Source path"),
				param("destino", catalog.KindString, true, "Destination path or folder"),
			},
			New: func() catalog.Request { return &copyPath{tb: tb} },
		},
		{
			ID:          "mover_archivo",
			Category:    catalog.CategoryFilesystem,
			Description: "Move or rename a file or folder.",
			Params: []catalog.Param{
				param("origen", catalog.KindString, true, "Source path"),
				param("destino", catalog.KindString, true, "Destination path or folder"),
			},
			New: func() catalog.Request { return &movePath{tb: tb} },
		},
		{
			ID:          "eliminar",
			Category:    catalog.CategoryFilesystem,
			Description: "Move a file or folder to the trash, or delete it permanently.",
			Params: []catalog.Param{
				param("ruta", catalog.KindString, true, "Path to delete"),
				withDefault(param("permanente", catalog.KindBool, false, "Skip the trash"), false),
			},
			New: func() catalog.Request { return &deletePath{tb: tb} },
		},
		{
			ID:          "duplicar",
			Category:    catalog.CategoryFilesystem,
			Description: "Copy a file or folder next to itself.",
			Params: []catalog.Param{
				param("ruta", catalog.KindString, true, "Path to duplicate"),
				param("nuevo_nombre", catalog.KindString, false, "Name of the copy"),
			},
			New: func() catalog.Request { return &duplicatePath{tb: tb} },
		},
		{
			ID:          "buscar_texto_en_archivos",
			Category:    catalog.CategoryFilesystem,
			Description: "Search text inside the files of a folder tree.",
			Params: []catalog.Param{
				param("ruta", catalog.KindString, true, "Folder to search"),
				param("texto", catalog.KindString, true, "Text to find, case-insensitive"),
				param("extensiones", catalog.KindList, false, "File extensions to include"),
			},
			New: func() catalog.Request { return &searchText{tb: tb} },
		},
	}
}

func (tb *Toolbox) readLimit() float64 {
	if tb.ReadLimitMB > 0 {
		return tb.ReadLimitMB
	}
	return storage.DefaultReadLimitMB
}

type createDir struct {
	tb   *Toolbox
	Path string `json:"ruta"`
	Name string `json:"nombre"`
}

func (r *createDir) Execute(context.Context) (catalog.Outcome, error) {
	if strings.TrimSpace(r.Path) != "" {
		if err := r.tb.FS.CreateDir(r.Path); err != nil {
			return catalog.Outcome{}, err
		}
		return catalog.Outcome{Message: "Folder created: " + r.Path, Value: r.Path}, nil
	}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = "CarpetaIA"
	}
	p := r.tb.onDesktop(name)
	if err := r.tb.FS.CreateDir(p); err != nil {
		return catalog.Outcome{}, err
	}
	return catalog.Outcome{Message: fmt.Sprintf("Folder '%s' created on the Desktop.", name), Value: p}, nil
}

type listDir struct {
	tb     *Toolbox
	Path   string `json:"ruta"`
	Filter string `json:"filtro"`
}

func (r *listDir) Execute(context.Context) (catalog.Outcome, error) {
	entries, err := r.tb.FS.List(r.Path, r.Filter)
	if err != nil {
		return catalog.Outcome{}, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d items:", len(entries))
	for i, e := range entries {
		if i == maxListed {
			b.WriteString("\n" + andMore(len(entries)-maxListed, ""))
			break
		}
		b.WriteString("\n" + e.Name)
		if e.IsDir {
			b.WriteString("/")
		}
	}
	return catalog.Outcome{Message: b.String(), Value: entries}, nil
}

type readFile struct {
	tb      *Toolbox
	Path    string         `json:"ruta"`
	LimitMB catalog.Number `json:"limite_mb"`
}

func (r *readFile) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.LimitMB, validation.Min(catalog.Number(0)).Exclusive()),
	)
}

func (r *readFile) Execute(context.Context) (catalog.Outcome, error) {
	content, err := r.tb.FS.ReadText(r.Path, float64(r.LimitMB))
	if err != nil {
		return catalog.Outcome{}, err
	}
	return catalog.Outcome{Message: withPreview("Content of "+r.Path+":", content), Value: content}, nil
}

type createText struct {
	tb      *Toolbox
	Path    string `json:"ruta"`
	Content string `json:"contenido"`
}

func (r *createText) Execute(context.Context) (catalog.Outcome, error) {
	if err := r.tb.FS.WriteText(r.Path, r.Content, storage.Overwrite); err != nil {
		return catalog.Outcome{}, err
	}
	return catalog.Outcome{Message: "File created: " + r.Path, Value: r.Path}, nil
}

type editFile struct {
	tb      *Toolbox
	Path    string `json:"ruta"`
	Content string `json:"contenido"`
	Mode    string `json:"modo"`
}

func (r *editFile) Validate() error {
	r.Mode = strings.ToLower(strings.TrimSpace(r.Mode))
	if r.Mode == "" {
		r.Mode = ModeOverwrite
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.Mode, validation.In(ModeOverwrite, ModeAppend)),
	)
}

func (r *editFile) Execute(context.Context) (catalog.Outcome, error) {
	mode := storage.Overwrite
	if r.Mode == ModeAppend {
		mode = storage.Append
	}
	if err := r.tb.FS.WriteText(r.Path, r.Content, mode); err != nil {
		return catalog.Outcome{}, err
	}
	return catalog.Outcome{Message: fmt.Sprintf("File edited: %s (mode: %s)", r.Path, r.Mode), Value: r.Path}, nil
}

type copyPath struct {
	tb  *Toolbox
	Src string `json:"origen"`
	Dst string `json:"destino"`
}

func (r *copyPath) Execute(context.Context) (catalog.Outcome, error) {
	final, err := r.tb.FS.Copy(r.Src, r.Dst)
	if err != nil {
		return catalog.Outcome{}, err
	}
	return catalog.Outcome{Message: fmt.Sprintf("Copied: %s → %s", r.Src, final), Value: final}, nil
}

type movePath struct {
	tb  *Toolbox
	Src string `json:"origen"`
	Dst string `json:"destino"`
}

func (r *movePath) Execute(context.Context) (catalog.Outcome, error) {
	final, err := r.tb.FS.Move(r.Src, r.Dst)
	if err != nil {
		return catalog.Outcome{}, err
	}
	return catalog.Outcome{Message: fmt.Sprintf("Moved: %s → %s", r.Src, final), Value: final}, nil
}

type deletePath struct {
	tb        *Toolbox
	Path      string       `json:"ruta"`
	Permanent catalog.Flag `json:"permanente"`
}

func (r *deletePath) Execute(context.Context) (catalog.Outcome, error) {
	where, err := r.tb.FS.Delete(r.Path, bool(r.Permanent))
	if err != nil {
		return catalog.Outcome{}, err
	}
	if r.Permanent {
		return catalog.Outcome{Message: "Permanently deleted: " + r.Path}, nil
	}
	return catalog.Outcome{Message: fmt.Sprintf("Moved to trash: %s → %s", r.Path, where), Value: where}, nil
}

type duplicatePath struct {
	tb      *Toolbox
	Path    string `json:"ruta"`
	NewName string `json:"nuevo_nombre"`
}

func (r *duplicatePath) Execute(context.Context) (catalog.Outcome, error) {
	dst, err := r.tb.FS.Duplicate(r.Path, r.NewName)
	if err != nil {
		return catalog.Outcome{}, err
	}
	return catalog.Outcome{Message: "Duplicated: " + dst, Value: dst}, nil
}

type searchText struct {
	tb   *Toolbox
	Root string       `json:"ruta"`
	Text string       `json:"texto"`
	Exts catalog.List `json:"extensiones"`
}

func (r *searchText) Execute(context.Context) (catalog.Outcome, error) {
	matches, err := r.tb.FS.SearchText(r.Root, r.Text, r.Exts)
	if err != nil {
		return catalog.Outcome{}, err
	}
	if len(matches) == 0 {
		return catalog.Outcome{Message: fmt.Sprintf("No matches for '%s' in %s", r.Text, r.Root), Value: matches}, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found '%s' in %d files:", r.Text, len(matches))
	for i, m := range matches {
		if i == maxFiles {
			b.WriteString("\n" + andMore(len(matches)-maxFiles, " files"))
			break
		}
		fmt.Fprintf(&b, "\n- %s (lines: %s)", m.Path, joinInts(m.Lines))
	}
	return catalog.Outcome{Message: b.String(), Value: matches}, nil
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
