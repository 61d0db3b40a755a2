//go:build !prod

package hcc

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHotReloadBroadcast(t *testing.T) {
	engine := newEngine(t, Config{Source: t.TempDir()})
	hr := newHotReload(engine)

	srv := httptest.NewServer(hr.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + HotReloadPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hr.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	hr.Broadcast(Notification{Type: "regenerated", Path: "/src/hcc.js", Files: 2, Apis: 1})

	var got Notification
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, Notification{Type: "regenerated", Path: "/src/hcc.js", Files: 2, Apis: 1}, got)

	require.NoError(t, hr.Stop(context.Background()))
	assert.Equal(t, 0, hr.Clients())
}

func TestHotReloadNilIsSafe(t *testing.T) {
	var hr *HotReload
	hr.Broadcast(Notification{Type: "regenerated"})
	assert.Equal(t, 0, hr.Clients())
}

func TestWatchRegeneratesOnChange(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "configuration.js", "api/index.js")

	engine := newEngine(t, Config{Source: root, Debounce: 20 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.Watch(ctx) }()

	entry := filepath.Join(root, "hcc.js")
	require.Eventually(t, func() bool {
		_, err := os.Stat(entry)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	writeSource(t, root, "lib/new.js")
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(entry)
		return err == nil && strings.Contains(string(data), "require('./lib/new.js');")
	}, 5*time.Second, 20*time.Millisecond)

	writeSource(t, root, "api/user.js")
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(entry)
		return err == nil && strings.Contains(string(data), "file: 'api/user.js'")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
