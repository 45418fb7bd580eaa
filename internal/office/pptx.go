package office

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/starford/jarvis/internal/apperr"
	"github.com/starford/jarvis/internal/storage"
)

const corePart = "docProps/core.xml"

var titleRe = regexp.MustCompile(`(?s)<dc:title>.*?</dc:title>|<dc:title/>`)

// WritePPTX writes a presentation at path from template and records title in
// its document properties. Building a deck from scratch needs a slide master
// and theme, so a template is required.
func WritePPTX(path, title, template string) error {
	if template == "" {
		return apperr.New(apperr.KindCapabilityUnavailable, "no presentation template configured (office.pptx_template)")
	}
	zr, err := zip.OpenReader(storage.ExpandHome(template))
	if err != nil {
		if os.IsNotExist(err) {
			return apperr.Wrap(apperr.KindNotFound, err, "template not found: %s", template)
		}
		return apperr.Wrap(apperr.KindInvalidParameter, err, "template is not a presentation: %s", template)
	}
	defer zr.Close()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		if f.Name != corePart || title == "" {
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("office: copy %s: %w", f.Name, err)
			}
			continue
		}
		body, err := readPart(f)
		if err != nil {
			return err
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: f.Modified})
		if err != nil {
			return fmt.Errorf("office: create %s: %w", f.Name, err)
		}
		if _, err := io.WriteString(w, setTitle(body, title)); err != nil {
			return fmt.Errorf("office: write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("office: close pptx: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperr.Wrap(apperr.KindPermissionDenied, err, "cannot create %s", filepath.Dir(path))
	}
	return storage.WriteAtomic(path, buf.Bytes())
}

func setTitle(core, title string) string {
	var esc strings.Builder
	_ = xml.EscapeText(&esc, []byte(title))
	elem := "<dc:title>" + esc.String() + "</dc:title>"
	if titleRe.MatchString(core) {
		return titleRe.ReplaceAllLiteralString(core, elem)
	}
	if end := strings.LastIndex(core, "</cp:coreProperties>"); end >= 0 {
		return core[:end] + elem + core[end:]
	}
	return core
}
