package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestStreamHandler_DeliversSignals(t *testing.T) {
	env := newTestEnv(t)

	srv := httptest.NewServer(env.handler)
	defer srv.Close()

	if err := env.mgr.Start("demo-paris"); err != nil {
		t.Fatalf("failed to start observation: %v", err)
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events/demo-paris/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	// The handler sends the current state immediately on connect.
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("failed to set read deadline: %v", err)
	}

	var sig SignalsResponse
	if err := conn.ReadJSON(&sig); err != nil {
		t.Fatalf("failed to read signal: %v", err)
	}
	if sig.EventID != "demo-paris" {
		t.Errorf("got eventId %q, want demo-paris", sig.EventID)
	}
	if sig.Phase == "" {
		t.Error("expected a phase in the streamed signal")
	}
}
