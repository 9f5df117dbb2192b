package ipc

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipflow/clipflow/internal/content"
	"github.com/clipflow/clipflow/internal/relay"
)

type fakeControl struct {
	mu       sync.Mutex
	latest   *content.Envelope
	sessions []relay.SessionInfo
	injected []content.Content
	fail     error
}

func (f *fakeControl) Latest() (content.Envelope, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latest == nil {
		return content.Envelope{}, false
	}
	return *f.latest, true
}

func (f *fakeControl) Sessions() []relay.SessionInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions
}

func (f *fakeControl) Inject(_ context.Context, c content.Content) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.injected = append(f.injected, c)
	return nil
}

// startDaemon serves the control channel on a per-test socket. CLIPFLOW_SOCKET
// points Call at it.
func startDaemon(t *testing.T, ctrl Control) {
	t.Helper()
	t.Setenv("CLIPFLOW_SOCKET", filepath.Join(t.TempDir(), "clipflow.sock"))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ln, err := Listen()
	require.NoError(t, err)
	go Serve(ctx, ln, ctrl)
}

func TestStatusReportsLatestAndSessions(t *testing.T) {
	env := content.NewEnvelope(content.Text{Text: "current"}, "peer-a")
	ctrl := &fakeControl{
		latest: &env,
		sessions: []relay.SessionInfo{
			{Addr: "10.0.0.2:41234", ClientID: "peer-a", ConnectedAt: time.Now()},
		},
	}
	startDaemon(t, ctrl)

	resp, err := Call(Request{Op: OpStatus})
	require.NoError(t, err)
	require.NotNil(t, resp.Envelope)
	assert.Equal(t, content.Text{Text: "current"}, resp.Envelope.Content)
	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, "peer-a", resp.Sessions[0].ClientID)
}

func TestStatusWithNothingSynced(t *testing.T) {
	startDaemon(t, &fakeControl{})

	resp, err := Call(Request{Op: OpStatus})
	require.NoError(t, err)
	assert.Nil(t, resp.Envelope)
	assert.Empty(t, resp.Sessions)
}

func TestCopyInjectsText(t *testing.T) {
	ctrl := &fakeControl{}
	startDaemon(t, ctrl)

	_, err := Call(Request{Op: OpCopy, Text: "from stdin"})
	require.NoError(t, err)

	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	require.Len(t, ctrl.injected, 1)
	assert.Equal(t, content.Text{Text: "from stdin"}, ctrl.injected[0])
}

func TestCopyFailureSurfacesAsError(t *testing.T) {
	startDaemon(t, &fakeControl{fail: errors.New("backend unavailable")})

	_, err := Call(Request{Op: OpCopy, Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend unavailable")
}

func TestPasteReturnsLatest(t *testing.T) {
	env := content.NewEnvelope(content.Text{Text: "paste me"}, "")
	startDaemon(t, &fakeControl{latest: &env})

	resp, err := Call(Request{Op: OpPaste})
	require.NoError(t, err)
	require.NotNil(t, resp.Envelope)
	assert.Equal(t, content.Text{Text: "paste me"}, resp.Envelope.Content)
}

func TestUnknownOpRejected(t *testing.T) {
	startDaemon(t, &fakeControl{})

	_, err := Call(Request{Op: "restart"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown op")
}

func TestCallWithoutDaemon(t *testing.T) {
	t.Setenv("CLIPFLOW_SOCKET", filepath.Join(t.TempDir(), "nobody-home.sock"))

	_, err := Call(Request{Op: OpStatus})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no running clipflow daemon")
}

func TestListenReplacesStaleSocket(t *testing.T) {
	t.Setenv("CLIPFLOW_SOCKET", filepath.Join(t.TempDir(), "clipflow.sock"))

	first, err := Listen()
	require.NoError(t, err)
	require.NoError(t, first.Close())

	// A previous run's socket file must not block a fresh daemon.
	second, err := Listen()
	require.NoError(t, err)
	require.NoError(t, second.Close())
}
