package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/jarvis/internal/apperr"
	"github.com/starford/jarvis/internal/assistant"
	"github.com/starford/jarvis/internal/brain"
	"github.com/starford/jarvis/internal/intent"
	"github.com/starford/jarvis/internal/sse"
	"github.com/starford/jarvis/internal/testutil"
)

// echoBrain turns "carpeta X" into crear_carpeta and anything else into a
// conversational answer.
type echoBrain struct {
	dir      string
	lastSeen []brain.Exchange
}

func (b *echoBrain) Interpret(_ context.Context, text string, h []brain.Exchange) (intent.Request, error) {
	b.lastSeen = h
	if name, ok := strings.CutPrefix(text, "carpeta "); ok {
		return intent.Single(intent.Intent{Action: "crear_carpeta", Params: map[string]any{"ruta": filepath.Join(b.dir, name)}}), nil
	}
	return intent.Answer("dijiste: " + text), nil
}

type fakeSTT struct {
	gotName  string
	gotAudio string
	err      error
}

func (f *fakeSTT) Transcribe(_ context.Context, audio io.Reader, filename string) (string, error) {
	data, _ := io.ReadAll(audio)
	f.gotName, f.gotAudio = filename, string(data)
	return "abrí chrome", f.err
}

type env struct {
	router http.Handler
	brain  *echoBrain
	stt    *fakeSTT
	dir    string
}

func testEnv(t *testing.T, authToken string) *env {
	t.Helper()
	return testEnvWith(t, RouterConfig{AuthEnabled: authToken != "", Token: authToken}, nil)
}

func testEnvWith(t *testing.T, cfg RouterConfig, sseHandler http.Handler) *env {
	t.Helper()
	ws := testutil.TestWorkspace(t)
	e := &env{brain: &echoBrain{dir: ws.Dir}, stt: &fakeSTT{}, dir: ws.Dir}
	svc := assistant.New(ws.Executor(nil), ws.FS,
		assistant.WithInterpreter(e.brain),
		assistant.WithTranscriber(e.stt),
		assistant.WithHistory(testutil.TestHistory(t)),
		assistant.WithLogger(testutil.Logger()))
	e.router = NewRouter(svc, cfg, sseHandler)
	return e
}

func (e *env) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func postJSON(path string, v any) *http.Request {
	body, _ := json.Marshal(v)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestChat_JSON(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(postJSON("/chat", map[string]string{"message": "carpeta Proyecto", "session": "web"}))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	reply := decode[Reply](t, w)
	want := "✅ Folder created: " + filepath.Join(e.dir, "Proyecto")
	if reply.Reply != want || !reply.Success || reply.Session != "web" {
		t.Errorf("reply = %+v, want %q", reply, want)
	}
	if _, err := os.Stat(filepath.Join(e.dir, "Proyecto")); err != nil {
		t.Errorf("folder not created: %v", err)
	}

	// The stored turn comes back as context on the next message.
	e.do(postJSON("/chat", map[string]string{"message": "hola", "session": "web"}))
	if len(e.brain.lastSeen) != 1 || e.brain.lastSeen[0].User != "carpeta Proyecto" {
		t.Errorf("context = %+v", e.brain.lastSeen)
	}
}

func TestChat_FormWithContext(t *testing.T) {
	e := testEnv(t, "")
	form := url.Values{
		"message": {"hola"},
		"context": {`[{"user":"antes","assistant":"ok"}]`},
	}
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := e.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[Reply](t, w).Reply; got != "dijiste: hola" {
		t.Errorf("reply = %q", got)
	}
	if len(e.brain.lastSeen) != 1 || e.brain.lastSeen[0].User != "antes" {
		t.Errorf("context = %+v", e.brain.lastSeen)
	}
}

func TestChat_BadInput(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(postJSON("/chat", map[string]string{"message": "  "}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank message = %d, want 400", w.Code)
	}
	if kind := decode[errResponse](t, w).Kind; kind != apperr.KindMissingParameter {
		t.Errorf("kind = %q", kind)
	}

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	if w := e.do(req); w.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", w.Code)
	}

	form := url.Values{"message": {"x"}, "context": {"nope"}}
	req = httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if w := e.do(req); w.Code != http.StatusBadRequest {
		t.Errorf("bad context = %d, want 400", w.Code)
	}
}

func TestExecute(t *testing.T) {
	e := testEnv(t, "")
	file := filepath.Join(e.dir, "a.txt")
	w := e.do(postJSON("/execute", map[string]any{"actions": []map[string]any{
		{"action": "crear_txt", "params": map[string]any{"ruta": file, "contenido": "hola"}},
		{"action": "no_existe"},
	}}))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	reply := decode[Reply](t, w)
	if reply.Success || len(reply.Results) != 2 {
		t.Fatalf("reply = %+v", reply)
	}
	if reply.Results[1].Kind != apperr.KindUnknownAction || reply.Results[1].Position != 2 {
		t.Errorf("second result = %+v", reply.Results[1])
	}
	if data, _ := os.ReadFile(file); string(data) != "hola" {
		t.Errorf("file content = %q", data)
	}

	req := httptest.NewRequest(http.MethodPost, "/execute", strings.NewReader("not json"))
	if w := e.do(req); w.Code != http.StatusBadRequest {
		t.Errorf("malformed intent = %d, want 400", w.Code)
	}
}

func TestActionsEndpoint(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(httptest.NewRequest(http.MethodGet, "/actions", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Actions []struct {
			ID string `json:"id"`
		} `json:"actions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, a := range body.Actions {
		if a.ID == "buscar_texto_en_archivos" {
			found = true
		}
	}
	if !found {
		t.Errorf("catalog missing buscar_texto_en_archivos: %d actions", len(body.Actions))
	}
}

func TestTrashAndRestore(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(httptest.NewRequest(http.MethodGet, "/trash", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"items":[]`) {
		t.Fatalf("empty trash = %d %s", w.Code, w.Body.String())
	}

	file := filepath.Join(e.dir, "informe.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	e.do(postJSON("/execute", map[string]any{"action": "eliminar", "params": map[string]any{"ruta": file}}))

	items := decode[TrashResponse](t, e.do(httptest.NewRequest(http.MethodGet, "/trash", nil))).Items
	if len(items) != 1 || items[0].Original != "informe.txt" {
		t.Fatalf("trash = %+v", items)
	}

	w = e.do(postJSON("/trash/restore", RestoreRequest{Name: "informe.txt"}))
	reply := decode[Reply](t, w)
	if !reply.Success {
		t.Fatalf("restore = %+v", reply)
	}
	if _, err := os.Stat(filepath.Join(e.dir, "Desktop", "informe.txt")); err != nil {
		t.Errorf("not restored: %v", err)
	}

	if w := e.do(postJSON("/trash/restore", RestoreRequest{})); w.Code != http.StatusBadRequest {
		t.Errorf("missing name = %d, want 400", w.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	e := testEnv(t, "")
	e.do(postJSON("/chat", map[string]string{"message": "hola jarvis", "session": "s"}))

	w := e.do(httptest.NewRequest(http.MethodGet, "/history?session=s", nil))
	turns := decode[HistoryResponse](t, w).Turns
	if len(turns) != 1 || turns[0].User != "hola jarvis" {
		t.Errorf("turns = %+v", turns)
	}

	w = e.do(httptest.NewRequest(http.MethodGet, "/history?q=jarvis", nil))
	if turns := decode[HistoryResponse](t, w).Turns; len(turns) != 1 {
		t.Errorf("search turns = %+v", turns)
	}

	if w := e.do(httptest.NewRequest(http.MethodGet, "/history", nil)); w.Code != http.StatusBadRequest {
		t.Errorf("no session = %d, want 400", w.Code)
	}
}

func multipartAudio(t *testing.T, field, name, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte(content))
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/stt", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSTT(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(multipartAudio(t, "file", "clip.webm", "OggS"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[TranscriptResponse](t, w).Text; got != "abrí chrome" {
		t.Errorf("text = %q", got)
	}
	if e.stt.gotName != "clip.webm" || e.stt.gotAudio != "OggS" {
		t.Errorf("transcriber got %q / %q", e.stt.gotName, e.stt.gotAudio)
	}

	if w := e.do(multipartAudio(t, "audio", "clip.webm", "x")); w.Code != http.StatusBadRequest {
		t.Errorf("wrong field = %d, want 400", w.Code)
	}

	e.stt.err = apperr.New(apperr.KindUpstreamFailure, "transcription failed")
	if w := e.do(multipartAudio(t, "file", "clip.webm", "x")); w.Code != http.StatusBadGateway {
		t.Errorf("upstream failure = %d, want 502", w.Code)
	}
}

func TestUploadName(t *testing.T) {
	cases := map[string]string{
		"clip.webm":            "clip.webm",
		"../../etc/passwd.ogg": "passwd.ogg",
		`C:\Users\ana\voz.m4a`: "voz.m4a",
		"":                     "",
	}
	for in, want := range cases {
		if got := uploadName(in); got != want {
			t.Errorf("uploadName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := testEnv(t, "secret123")
	req := httptest.NewRequest(http.MethodGet, "/actions", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	if w := e.do(req); w.Code != http.StatusOK {
		t.Errorf("authed = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	e := testEnv(t, "secret123")
	if w := e.do(httptest.NewRequest(http.MethodGet, "/trash", nil)); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	e := testEnv(t, "secret123")
	req := postJSON("/chat", map[string]string{"message": "hola"})
	req.Header.Set("Authorization", "Bearer wrong")
	if w := e.do(req); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	e := testEnvWith(t, RouterConfig{Limiter: NewRateLimiter(60, 2)}, nil)
	var codes []int
	for i := 0; i < 3; i++ {
		codes = append(codes, e.do(postJSON("/chat", map[string]string{"message": "hola"})).Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}
	// Listing routes are not throttled.
	if w := e.do(httptest.NewRequest(http.MethodGet, "/actions", nil)); w.Code != http.StatusOK {
		t.Errorf("actions = %d", w.Code)
	}
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))
	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}
	if call("10.0.0.1:1000") != http.StatusNoContent || call("10.0.0.1:1001") != http.StatusTooManyRequests {
		t.Error("same client should be throttled after burst")
	}
	if call("10.0.0.2:1000") != http.StatusNoContent {
		t.Error("other client should have its own bucket")
	}
}

func TestCORSPreflight(t *testing.T) {
	e := testEnv(t, "")
	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := e.do(req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow origin = %q", got)
	}
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	broker := sse.NewBroker(time.Second)
	defer broker.Close()
	e := testEnvWith(t, RouterConfig{AuthEnabled: true, Token: "tok"}, broker)

	if w := e.do(httptest.NewRequest(http.MethodGet, "/events", nil)); w.Code != http.StatusUnauthorized {
		t.Errorf("events without token = %d, want 401", w.Code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	if w := e.do(req); w.Code != http.StatusOK || w.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("events with token = %d %q", w.Code, w.Header().Get("Content-Type"))
	}
}
