// Package office writes Word and PowerPoint documents.
package office

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/jarvis/internal/apperr"
	"github.com/starford/jarvis/internal/storage"
)

const documentPart = "word/document.xml"

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

const packageRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

const documentHead = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const documentTail = `<w:sectPr/></w:body></w:document>`

// Paragraphs splits content into lines, dropping blank ones.
func Paragraphs(content string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// WriteDOCX writes a Word document to path with one paragraph per non-blank
// line of content. With a template the template's parts are kept and the
// paragraphs are appended to its body.
func WriteDOCX(path, content, template string) error {
	paras := Paragraphs(content)

	var data []byte
	var err error
	if template != "" {
		data, err = fromTemplate(template, paras)
	} else {
		data, err = blankDocument(paras)
	}
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperr.Wrap(apperr.KindPermissionDenied, err, "cannot create %s", filepath.Dir(path))
	}
	return storage.WriteAtomic(path, data)
}

func paragraphXML(paras []string) string {
	var b strings.Builder
	for _, p := range paras {
		b.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		_ = xml.EscapeText(&b, []byte(p))
		b.WriteString(`</w:t></w:r></w:p>`)
	}
	return b.String()
}

func blankDocument(paras []string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct{ name, body string }{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", packageRels},
		{documentPart, documentHead + paragraphXML(paras) + documentTail},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, fmt.Errorf("office: create %s: %w", p.name, err)
		}
		if _, err := io.WriteString(w, p.body); err != nil {
			return nil, fmt.Errorf("office: write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("office: close docx: %w", err)
	}
	return buf.Bytes(), nil
}

func fromTemplate(template string, paras []string) ([]byte, error) {
	zr, err := zip.OpenReader(storage.ExpandHome(template))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.Wrap(apperr.KindNotFound, err, "template not found: %s", template)
		}
		return nil, apperr.Wrap(apperr.KindInvalidParameter, err, "template is not a document: %s", template)
	}
	defer zr.Close()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	found := false
	for _, f := range zr.File {
		if f.Name != documentPart {
			if err := zw.Copy(f); err != nil {
				return nil, fmt.Errorf("office: copy %s: %w", f.Name, err)
			}
			continue
		}
		found = true
		body, err := readPart(f)
		if err != nil {
			return nil, err
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: f.Modified})
		if err != nil {
			return nil, fmt.Errorf("office: create %s: %w", f.Name, err)
		}
		if _, err := io.WriteString(w, insertParagraphs(body, paragraphXML(paras))); err != nil {
			return nil, fmt.Errorf("office: write %s: %w", f.Name, err)
		}
	}
	if !found {
		return nil, apperr.New(apperr.KindInvalidParameter, "template has no %s: %s", documentPart, template)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("office: close docx: %w", err)
	}
	return buf.Bytes(), nil
}

func readPart(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("office: open %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("office: read %s: %w", f.Name, err)
	}
	return string(data), nil
}

// insertParagraphs places paras at the end of the body, before the trailing
// section properties when the body has them.
func insertParagraphs(doc, paras string) string {
	end := strings.LastIndex(doc, "</w:body>")
	if end < 0 {
		return doc
	}
	at := end
	if sect := strings.LastIndex(doc[:end], "<w:sectPr"); sect >= 0 {
		tail := doc[sect:end]
		if !strings.Contains(tail, "</w:p>") && !strings.Contains(tail, "</w:tbl>") {
			at = sect
		}
	}
	return doc[:at] + paras + doc[at:]
}
