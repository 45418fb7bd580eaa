package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/jarvis/internal/apperr"
)

type fixture struct {
	fs      *FS
	work    string
	restore string
	clock   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()
	fx := &fixture{
		work:    filepath.Join(base, "work"),
		restore: filepath.Join(base, "Desktop"),
		clock:   time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local),
	}
	if err := os.MkdirAll(fx.work, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(fx.restore, 0o755); err != nil {
		t.Fatal(err)
	}
	s, err := NewFS(filepath.Join(base, "trash"), fx.restore, WithClock(func() time.Time { return fx.clock }))
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	fx.fs = s
	return fx
}

func (fx *fixture) write(t *testing.T, rel, content string) string {
	t.Helper()
	p := filepath.Join(fx.work, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("kind = %s, want %s (err: %v)", got, kind, err)
	}
}

func TestCreateDirIdempotent(t *testing.T) {
	fx := newFixture(t)
	p := filepath.Join(fx.work, "a", "b", "c")
	for i := 0; i < 2; i++ {
		if err := fx.fs.CreateDir(p); err != nil {
			t.Fatalf("CreateDir #%d: %v", i, err)
		}
	}
	if info, err := os.Stat(p); err != nil || !info.IsDir() {
		t.Fatalf("directory missing: %v", err)
	}
}

func TestListMissingAndEmpty(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.fs.List(filepath.Join(fx.work, "nope"), "")
	wantKind(t, err, apperr.KindNotFound)

	empty := filepath.Join(fx.work, "empty")
	_ = os.Mkdir(empty, 0o755)
	got, err := fx.fs.List(empty, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty listing, got %v", got)
	}
}

func TestListPermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	fx := newFixture(t)
	locked := filepath.Join(fx.work, "locked")
	if err := os.Mkdir(locked, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	_, err := fx.fs.List(locked, "")
	wantKind(t, err, apperr.KindPermissionDenied)
}

func TestListFilter(t *testing.T) {
	fx := newFixture(t)
	fx.write(t, "a.txt", "aaa")
	fx.write(t, "b.pdf", "b")
	_ = os.Mkdir(filepath.Join(fx.work, "sub"), 0o755)

	got, err := fx.fs.List(fx.work, ".txt")
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]Entry{}
	for _, e := range got {
		names[e.Name] = e
	}
	if _, ok := names["b.pdf"]; ok {
		t.Error("b.pdf should be filtered out")
	}
	if e, ok := names["a.txt"]; !ok || e.Size != 3 {
		t.Errorf("a.txt = %+v", e)
	}
	if e, ok := names["sub"]; !ok || !e.IsDir || e.Size != 0 {
		t.Errorf("directories are always listed, got %+v", e)
	}

	// A filter without a leading dot is ignored.
	all, err := fx.fs.List(fx.work, "txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("len = %d, want 3", len(all))
	}
}

func TestReadTextLimits(t *testing.T) {
	fx := newFixture(t)
	small := fx.write(t, "small.txt", "hola ñandú")
	got, err := fx.fs.ReadText(small, 0)
	if err != nil || got != "hola ñandú" {
		t.Fatalf("ReadText = %q, %v", got, err)
	}

	big := fx.write(t, "big.txt", strings.Repeat("x", 2*1024*1024+1))
	got, err = fx.fs.ReadText(big, 2)
	wantKind(t, err, apperr.KindSizeExceeded)
	if got != "" {
		t.Error("no content may be returned when the limit is exceeded")
	}

	bin := filepath.Join(fx.work, "bin.dat")
	_ = os.WriteFile(bin, []byte{0xff, 0xfe, 0x00, 0x80}, 0o644)
	_, err = fx.fs.ReadText(bin, 1)
	wantKind(t, err, apperr.KindEncodingError)

	_, err = fx.fs.ReadText(filepath.Join(fx.work, "missing.txt"), 1)
	wantKind(t, err, apperr.KindNotFound)

	// Limits beyond the int64 byte range still read small files.
	for _, limit := range []float64{1e13, 1e300} {
		got, err = fx.fs.ReadText(small, limit)
		if err != nil || got != "hola ñandú" {
			t.Errorf("ReadText(limit %g) = %q, %v", limit, got, err)
		}
	}
}

func TestWriteTextModes(t *testing.T) {
	fx := newFixture(t)
	p := filepath.Join(fx.work, "deep", "er", "note.txt")
	if err := fx.fs.WriteText(p, "one", Overwrite); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(p, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := fx.fs.WriteText(p, "two", Overwrite); err != nil {
		t.Fatal(err)
	}
	if err := fx.fs.WriteText(p, "+three", Append); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(p)
	if string(data) != "two+three" {
		t.Errorf("content = %q", data)
	}
	info, _ := os.Stat(p)
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestCopyFilePreservesMetadata(t *testing.T) {
	fx := newFixture(t)
	src := fx.write(t, "report.txt", "data")
	_ = os.Chmod(src, 0o640)
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	_ = os.Chtimes(src, mtime, mtime)

	destDir := filepath.Join(fx.work, "out")
	_ = os.Mkdir(destDir, 0o755)
	got, err := fx.fs.Copy(src, destDir)
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(destDir, "report.txt") {
		t.Errorf("dest = %s", got)
	}
	info, err := os.Stat(got)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Errorf("mode = %v", info.Mode().Perm())
	}
	if !info.ModTime().Equal(mtime) {
		t.Errorf("mtime = %v, want %v", info.ModTime(), mtime)
	}
}

func TestCopyDirectoryMerges(t *testing.T) {
	fx := newFixture(t)
	fx.write(t, "src/a.txt", "a")
	fx.write(t, "src/nested/b.txt", "b")
	fx.write(t, "dst/keep.txt", "keep")

	if _, err := fx.fs.Copy(filepath.Join(fx.work, "src"), filepath.Join(fx.work, "dst")); err != nil {
		t.Fatal(err)
	}
	for _, rel := range []string{"dst/a.txt", "dst/nested/b.txt", "dst/keep.txt"} {
		if _, err := os.Stat(filepath.Join(fx.work, rel)); err != nil {
			t.Errorf("%s missing: %v", rel, err)
		}
	}
	_, err := fx.fs.Copy(filepath.Join(fx.work, "src"), filepath.Join(fx.work, "src", "inner"))
	wantKind(t, err, apperr.KindInvalidParameter)
}

func TestMoveIntoDirectory(t *testing.T) {
	fx := newFixture(t)
	src := fx.write(t, "m.txt", "move me")
	dir := filepath.Join(fx.work, "target")
	_ = os.Mkdir(dir, 0o755)

	got, err := fx.fs.Move(src, dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(dir, "m.txt") {
		t.Errorf("dest = %s", got)
	}
	if _, err := os.Stat(src); !errors.Is(err, os.ErrNotExist) {
		t.Error("source should be gone")
	}

	_, err = fx.fs.Move(filepath.Join(fx.work, "ghost"), dir)
	wantKind(t, err, apperr.KindNotFound)
}

func TestDuplicateDefaultName(t *testing.T) {
	fx := newFixture(t)
	src := fx.write(t, "x/report.txt", "byte-identical\x00content")

	got, err := fx.fs.Duplicate(src, "")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(fx.work, "x", "report_copia.txt")
	if got != want {
		t.Errorf("dest = %s, want %s", got, want)
	}
	a, _ := os.ReadFile(src)
	b, _ := os.ReadFile(got)
	if !bytes.Equal(a, b) {
		t.Error("duplicate content differs")
	}

	_, err = fx.fs.Duplicate(filepath.Join(fx.work, "nope.txt"), "")
	wantKind(t, err, apperr.KindNotFound)
}

func TestSearchText(t *testing.T) {
	fx := newFixture(t)
	fx.write(t, "a.py", "def main():\n    print('Hello')\n")
	fx.write(t, "sub/b.MD", "hello\nnothing\nHELLO again\n")
	fx.write(t, "c.go", "hello from go")
	fx.write(t, "bad.txt", "hel\xfflo")
	var many strings.Builder
	for i := 0; i < 15; i++ {
		many.WriteString("hello\n")
	}
	fx.write(t, "many.txt", many.String())

	got, err := fx.fs.SearchText(fx.work, "hello", nil)
	if err != nil {
		t.Fatal(err)
	}
	byName := map[string][]int{}
	for _, m := range got {
		byName[filepath.Base(m.Path)] = m.Lines
	}
	if _, ok := byName["c.go"]; ok {
		t.Error(".go is not in the default extension set")
	}
	if lines := byName["b.MD"]; len(lines) != 2 || lines[0] != 1 || lines[1] != 3 {
		t.Errorf("b.MD lines = %v", lines)
	}
	if _, ok := byName["bad.txt"]; !ok {
		t.Error("invalid bytes should be dropped before matching")
	}
	if lines := byName["many.txt"]; len(lines) != 10 {
		t.Errorf("many.txt lines = %d, want 10", len(lines))
	}

	only, err := fx.fs.SearchText(fx.work, "HELLO", []string{"go"})
	if err != nil {
		t.Fatal(err)
	}
	if len(only) != 1 || filepath.Base(only[0].Path) != "c.go" {
		t.Errorf("extension filter without dot: %+v", only)
	}

	_, err = fx.fs.SearchText(filepath.Join(fx.work, "missing"), "x", nil)
	wantKind(t, err, apperr.KindNotFound)
}
