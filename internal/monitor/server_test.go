package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Resonate-Protocol/noisemaker-go/internal/version"
	"github.com/Resonate-Protocol/noisemaker-go/pkg/engine"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu    sync.Mutex
	stats engine.Stats
	err   error
}

func (f *fakeSource) Stats() engine.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

func (f *fakeSource) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeSource) set(st engine.Stats) {
	f.mu.Lock()
	f.stats = st
	f.mu.Unlock()
}

func TestStatusEndpoint(t *testing.T) {
	src := &fakeSource{
		stats: engine.Stats{State: engine.StateRunning, Backend: "null", BlockCount: 8, Submitted: 12},
		err:   errors.New("block submission failed: block 2"),
	}
	srv := New(Config{Name: "studio"}, src)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var raw map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.Equal(t, "studio", raw["name"])
	assert.Equal(t, version.Product, raw["product"])
	assert.Equal(t, "block submission failed: block 2", raw["last_error"])

	eng := raw["engine"].(map[string]any)
	assert.Equal(t, "running", eng["state"])
	assert.Equal(t, float64(12), eng["submitted"])
}

func TestStatusEndpointRejectsPost(t *testing.T) {
	srv := New(Config{}, &fakeSource{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/status", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestWebSocketPushesStatus(t *testing.T) {
	src := &fakeSource{stats: engine.Stats{State: engine.StateRunning, Submitted: 1}}
	srv := New(Config{Addr: "127.0.0.1:0", Interval: 10 * time.Millisecond}, src)
	require.NoError(t, srv.Start())
	defer srv.Stop()
	assert.Positive(t, srv.Port())

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	var first envelope
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, TypeStatus, first.Type)

	src.set(engine.Stats{State: engine.StateRunning, Submitted: 42})
	require.Eventually(t, func() bool {
		var msg envelope
		if err := conn.ReadJSON(&msg); err != nil {
			return false
		}
		var st Status
		return json.Unmarshal(msg.Payload, &st) == nil && st.Engine.Submitted == 42
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, 1, srv.Clients())
}

func TestClientReceivesStatusAndErrors(t *testing.T) {
	src := &fakeSource{stats: engine.Stats{State: engine.StateRunning, Device: "null"}}
	srv := New(Config{Addr: "127.0.0.1:0", Interval: time.Hour}, src)
	require.NoError(t, srv.Start())
	defer srv.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := Dial(ctx, srv.Addr().String(), "")
	require.NoError(t, err)
	defer client.Close()

	select {
	case st := <-client.Statuses:
		assert.Equal(t, engine.StateRunning, st.Engine.State)
		assert.Equal(t, "null", st.Engine.Device)
	case <-ctx.Done():
		t.Fatal("no initial status")
	}

	srv.Publish(Message{Type: TypeError, Payload: ErrorReport{Message: "boom", Time: 1.5}})
	select {
	case report := <-client.Errors:
		assert.Equal(t, "boom", report.Message)
		assert.Equal(t, 1.5, report.Time)
	case <-ctx.Done():
		t.Fatal("no error report")
	}

	// Stopping the monitor ends the client connection
	srv.Stop()
	select {
	case <-client.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client not disconnected")
	}
	assert.False(t, client.IsConnected())
}

func TestStopRejectsNewSubscribers(t *testing.T) {
	srv := New(Config{}, &fakeSource{})
	srv.Stop()

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
