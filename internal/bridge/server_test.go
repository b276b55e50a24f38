package bridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/mlstack/launchpad/internal/console"
)

func newTestServer(t *testing.T, broker *console.Broker, status StatusProvider) *httptest.Server {
	t.Helper()
	if status == nil {
		status = func(context.Context) (StatusSnapshot, error) {
			return StatusSnapshot{}, nil
		}
	}
	server := httptest.NewServer(NewServer(broker, status).Handler())
	t.Cleanup(server.Close)
	return server
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, console.NewBroker(16), nil)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "OK\n", string(body))
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	status := func(context.Context) (StatusSnapshot, error) {
		return StatusSnapshot{Packages: []PackageStatus{
			{Name: "comfyui", Status: "installed", Running: true, PID: 4321, URL: "http://127.0.0.1:8188"},
		}}, nil
	}
	server := newTestServer(t, console.NewBroker(16), status)

	resp, err := http.Get(server.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var snapshot StatusSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	require.Len(t, snapshot.Packages, 1)
	require.Equal(t, "comfyui", snapshot.Packages[0].Name)
	require.Equal(t, "http://127.0.0.1:8188", snapshot.Packages[0].URL)
}

func TestWSStreamsReplayAndLiveEvents(t *testing.T) {
	t.Parallel()

	broker := console.NewBroker(16)
	broker.Publish(console.Event{Kind: console.EventLine, Package: "demo", Text: "replayed"})

	server := newTestServer(t, broker, nil)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	defer conn.Close()

	readEvent := func() console.Event {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var ev console.Event
		require.NoError(t, conn.ReadJSON(&ev))
		return ev
	}

	ev := readEvent()
	require.Equal(t, "replayed", ev.Text)

	broker.Publish(console.Event{Kind: console.EventReady, Package: "demo", URL: "http://127.0.0.1:7860"})
	ev = readEvent()
	require.Equal(t, console.EventReady, ev.Kind)
	require.Equal(t, "http://127.0.0.1:7860", ev.URL)
}
