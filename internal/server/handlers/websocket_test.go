// internal/server/handlers/websocket_test.go

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// newTestConn returns the server side of a live WebSocket pair.
func newTestConn(t *testing.T) *websocket.Conn {
	t.Helper()

	upgraded := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		upgraded <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	peer, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { peer.Close() })

	return <-upgraded
}

// Both pumps tear the client down on exit; concurrent teardown must be
// safe and close the connection exactly once.
func TestCloseConnectionConcurrent(t *testing.T) {
	client := &analysisClient{
		conn: newTestConn(t),
		send: make(chan []byte, 1),
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client.closeConnection()
		}()
	}
	wg.Wait()

	// Repeat calls after teardown stay no-ops.
	client.closeConnection()
}
