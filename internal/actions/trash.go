package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/jarvis/internal/catalog"
)

func trashSpecs(tb *Toolbox) []catalog.Spec {
	return []catalog.Spec{
		{
			ID:          "listar_papelera",
			Category:    catalog.CategoryFilesystem,
			Description: "List what is in the trash.",
			New:         func() catalog.Request { return &listTrash{tb: tb} },
		},
		{
			ID:          "restaurar_desde_papelera",
			Category:    catalog.CategoryFilesystem,
			Description: "Restore the most recently trashed object with the given name.",
			Params: []catalog.Param{
				param("nombre_archivo", catalog.KindString, true, "Original name of the trashed object"),
				param("destino", catalog.KindString, false, "Where to restore it, the Desktop by default"),
			},
			New: func() catalog.Request { return &restoreTrash{tb: tb} },
		},
	}
}

type listTrash struct {
	tb *Toolbox
}

func (r *listTrash) Execute(context.Context) (catalog.Outcome, error) {
	entries, err := r.tb.FS.ListTrash()
	if err != nil {
		return catalog.Outcome{}, err
	}
	if len(entries) == 0 {
		return catalog.Outcome{Message: "The trash is empty.", Value: entries}, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Trash (%d items):", len(entries))
	for i, e := range entries {
		if i == maxListed {
			b.WriteString("\n" + andMore(len(entries)-maxListed, ""))
			break
		}
		fmt.Fprintf(&b, "\n- %s (%s)", e.Original, e.DeletedAt.Format("2006-01-02 15:04:05"))
	}
	return catalog.Outcome{Message: b.String(), Value: entries}, nil
}

type restoreTrash struct {
	tb   *Toolbox
	Name string `json:"nombre_archivo"`
	Dest string `json:"destino"`
}

func (r *restoreTrash) Execute(context.Context) (catalog.Outcome, error) {
	p, err := r.tb.FS.Restore(r.Name, r.Dest)
	if err != nil {
		return catalog.Outcome{}, err
	}
	return catalog.Outcome{Message: "Restored: " + p, Value: p}, nil
}
