package office

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/jarvis/internal/apperr"
)

func documentXML(t *testing.T, path string) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name == documentPart {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(data)
		}
	}
	t.Fatalf("%s has no %s", path, documentPart)
	return ""
}

func TestParagraphs(t *testing.T) {
	assert.Equal(t, []string{"uno", "  dos"}, Paragraphs("uno\r\n\n   \n  dos\n"))
	assert.Nil(t, Paragraphs(""))
}

func TestWriteDOCXBlank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "informe.docx")
	require.NoError(t, WriteDOCX(path, "Título\n\nA < B & C", ""))

	doc := documentXML(t, path)
	assert.Contains(t, doc, ">Título</w:t>")
	assert.Contains(t, doc, "A &lt; B &amp; C")
	assert.Equal(t, 2, strings.Count(doc, "<w:p>"))
	assert.True(t, strings.HasSuffix(doc, documentTail))
}

func TestWriteDOCXTemplateAppendsBeforeSectionProperties(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "plantilla.docx")
	require.NoError(t, WriteDOCX(tmpl, "Encabezado", ""))

	out := filepath.Join(dir, "salida.docx")
	require.NoError(t, WriteDOCX(out, "primera\nsegunda", tmpl))

	doc := documentXML(t, out)
	head := strings.Index(doc, "Encabezado")
	first := strings.Index(doc, "primera")
	second := strings.Index(doc, "segunda")
	sect := strings.LastIndex(doc, "<w:sectPr")
	assert.True(t, head < first && first < second && second < sect, doc)

	zr, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer zr.Close()
	assert.Len(t, zr.File, 3)
}

func TestWriteDOCXMissingTemplate(t *testing.T) {
	err := WriteDOCX(filepath.Join(t.TempDir(), "x.docx"), "a", "/nonexistent/t.docx")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestInsertParagraphsWithoutSectionProperties(t *testing.T) {
	got := insertParagraphs("<w:body><w:p/></w:body>", "<X/>")
	assert.Equal(t, "<w:body><w:p/><X/></w:body>", got)
}

func writeZip(t *testing.T, path string, parts map[string]string) {
	t.Helper()
	fh, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(fh)
	for name, body := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, fh.Close())
}

func readZipPart(t *testing.T, path, name string) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name == name {
			body, err := readPart(f)
			require.NoError(t, err)
			return body
		}
	}
	t.Fatalf("%s has no %s", path, name)
	return ""
}

func TestWritePPTX(t *testing.T) {
	dir := t.TempDir()
	err := WritePPTX(filepath.Join(dir, "a.pptx"), "x", "")
	assert.Equal(t, apperr.KindCapabilityUnavailable, apperr.KindOf(err))

	err = WritePPTX(filepath.Join(dir, "a.pptx"), "x", filepath.Join(dir, "missing.pptx"))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	tmpl := filepath.Join(dir, "base.pptx")
	writeZip(t, tmpl, map[string]string{
		"ppt/presentation.xml": "<p:presentation/>",
		corePart:               `<cp:coreProperties><dc:title>Old</dc:title></cp:coreProperties>`,
	})
	out := filepath.Join(dir, "deck", "charla.pptx")
	require.NoError(t, WritePPTX(out, "Go & yo", tmpl))

	assert.Equal(t, "<cp:coreProperties><dc:title>Go &amp; yo</dc:title></cp:coreProperties>", readZipPart(t, out, corePart))
	assert.Equal(t, "<p:presentation/>", readZipPart(t, out, "ppt/presentation.xml"))

	require.NoError(t, os.WriteFile(tmpl, []byte("not a zip"), 0o644))
	err = WritePPTX(out, "x", tmpl)
	assert.Equal(t, apperr.KindInvalidParameter, apperr.KindOf(err))
}

func TestSetTitleInsertsWhenAbsent(t *testing.T) {
	got := setTitle("<cp:coreProperties><dc:creator>a</dc:creator></cp:coreProperties>", "Plan")
	assert.Equal(t, "<cp:coreProperties><dc:creator>a</dc:creator><dc:title>Plan</dc:title></cp:coreProperties>", got)
}
