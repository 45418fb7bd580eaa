package assistant

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/jarvis/internal/apperr"
	"github.com/starford/jarvis/internal/brain"
	"github.com/starford/jarvis/internal/history"
	"github.com/starford/jarvis/internal/intent"
	"github.com/starford/jarvis/internal/sse"
	"github.com/starford/jarvis/internal/testutil"
)

type scriptedBrain struct {
	reply intent.Request
	err   error
	seen  [][]brain.Exchange
}

func (b *scriptedBrain) Interpret(_ context.Context, _ string, h []brain.Exchange) (intent.Request, error) {
	b.seen = append(b.seen, h)
	return b.reply, b.err
}

type recordedEvents struct {
	mu     sync.Mutex
	events []sse.ActionExecuted
}

func (r *recordedEvents) PublishAction(ev sse.ActionExecuted) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

type fixture struct {
	svc     *Service
	brain   *scriptedBrain
	events  *recordedEvents
	history *history.DB
	dir     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ws := testutil.TestWorkspace(t)
	h := testutil.TestHistory(t)
	f := &fixture{brain: &scriptedBrain{}, events: &recordedEvents{}, history: h, dir: ws.Dir}
	f.svc = New(ws.Executor(nil), ws.FS,
		WithInterpreter(f.brain),
		WithHistory(h),
		WithEvents(f.events),
		WithLogger(testutil.Logger()),
		WithContextTurns(2))
	return f
}

func TestChat_RunsActionsAndStoresTurn(t *testing.T) {
	f := newFixture(t)
	target := filepath.Join(f.dir, "Proyecto")
	f.brain.reply = intent.Single(intent.Intent{Action: "crear_carpeta", Params: map[string]any{"ruta": target}})

	out, err := f.svc.Chat(context.Background(), ChatRequest{Session: "s1", Message: "creá la carpeta Proyecto"})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "s1", out.Session)
	assert.Equal(t, "✅ Folder created: "+target, out.Reply)
	assert.DirExists(t, target)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, "crear_carpeta", f.events.events[0].Action)
	assert.Equal(t, "s1", f.events.events[0].Session)

	turns, err := f.history.Recent("s1", 5)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "creá la carpeta Proyecto", turns[0].User)
	assert.Equal(t, out.Reply, turns[0].Assistant)
}

func TestChat_HistoryBecomesContext(t *testing.T) {
	f := newFixture(t)
	f.brain.reply = intent.Answer("hola")
	for _, m := range []string{"uno", "dos", "tres"} {
		_, err := f.svc.Chat(context.Background(), ChatRequest{Session: "s", Message: m})
		require.NoError(t, err)
	}
	last := f.brain.seen[len(f.brain.seen)-1]
	require.Len(t, last, 2)
	assert.Equal(t, "uno", last[0].User)
	assert.Equal(t, "dos", last[1].User)
	assert.Equal(t, "hola", last[1].Assistant)

	// Explicit context wins over the stored turns.
	_, err := f.svc.Chat(context.Background(), ChatRequest{Session: "s", Message: "x", Context: []brain.Exchange{}})
	require.NoError(t, err)
	assert.Empty(t, f.brain.seen[len(f.brain.seen)-1])
}

func TestChat_NoneIsNotPublished(t *testing.T) {
	f := newFixture(t)
	f.brain.reply = intent.Answer("Soy Jarvis.")
	out, err := f.svc.Chat(context.Background(), ChatRequest{Message: "¿quién sos?"})
	require.NoError(t, err)
	assert.Equal(t, "Soy Jarvis.", out.Reply)
	assert.NotEmpty(t, out.Session)
	assert.Empty(t, f.events.events)
}

func TestChat_InterpreterFailureIsAReply(t *testing.T) {
	f := newFixture(t)
	f.brain.err = apperr.New(apperr.KindUpstreamFailure, "interpreter unreachable")
	out, err := f.svc.Chat(context.Background(), ChatRequest{Session: "s", Message: "hola"})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "❌ interpreter unreachable", out.Reply)

	turns, _ := f.history.Recent("s", 1)
	require.Len(t, turns, 1)
	assert.False(t, turns[0].Success)
}

func TestChat_BlankMessage(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Chat(context.Background(), ChatRequest{Message: "  "})
	assert.Equal(t, apperr.KindMissingParameter, apperr.KindOf(err))
}

func TestExecuteBatchAndRestore(t *testing.T) {
	f := newFixture(t)
	file := filepath.Join(f.dir, "notas.txt")
	require.NoError(t, os.WriteFile(file, []byte("hola"), 0o644))

	out := f.svc.Execute(context.Background(), intent.Request{Batch: true, Intents: []intent.Intent{
		{Action: "eliminar", Params: map[string]any{"ruta": file}},
		{Action: "listar_papelera"},
	}})
	assert.True(t, out.Success)
	assert.True(t, strings.HasPrefix(out.Reply, "✅ Actions completed:\n\n1. ✅ Moved to trash: "))
	require.Len(t, out.Results, 2)

	trash, err := f.svc.Trash()
	require.NoError(t, err)
	require.Len(t, trash, 1)
	assert.Equal(t, "notas.txt", trash[0].Original)

	restored := f.svc.Restore(context.Background(), "notas.txt", "")
	assert.True(t, restored.Success, restored.Reply)
	assert.FileExists(t, filepath.Join(f.dir, "Desktop", "notas.txt"))
	assert.Len(t, f.events.events, 3)
}

func TestActionsAndTranscriberMissing(t *testing.T) {
	f := newFixture(t)
	assert.NotEmpty(t, f.svc.Actions())

	_, err := f.svc.Transcribe(context.Background(), strings.NewReader("x"), "a.webm")
	assert.Equal(t, apperr.KindCapabilityUnavailable, apperr.KindOf(err))
}
