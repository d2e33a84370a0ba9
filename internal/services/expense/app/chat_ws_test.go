package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/net/websocket"
)

func TestChatSocketAskAndClear(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, RuntimeConfig{})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	conn := dialChat(t, srv)
	sendFrame(t, conn, wsFrame{Type: "ask", RequestID: "r1", Payload: json.RawMessage(`{"prompt":"hello there"}`)})
	frame := readFrame(t, conn)
	if frame.Type != "reply" || frame.RequestID != "r1" {
		t.Fatalf("frame = %+v", frame)
	}
	var reply wsReply
	if err := json.Unmarshal(frame.Payload, &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if reply.Mode != "rules" || !strings.HasPrefix(reply.Response, "Hello!") || reply.MessageID == "" {
		t.Fatalf("reply = %+v", reply)
	}

	sendFrame(t, conn, wsFrame{Type: "clear", RequestID: "r2"})
	frame = readFrame(t, conn)
	if frame.Type != "cleared" || frame.RequestID != "r2" {
		t.Fatalf("clear frame = %+v", frame)
	}
	var cleared wsCleared
	if err := json.Unmarshal(frame.Payload, &cleared); err != nil {
		t.Fatalf("decode cleared: %v", err)
	}
	if cleared.Dropped != 2 {
		t.Fatalf("dropped = %d, want 2", cleared.Dropped)
	}

	sendFrame(t, conn, wsFrame{Type: "clear", RequestID: "r3"})
	frame = readFrame(t, conn)
	if err := json.Unmarshal(frame.Payload, &cleared); err != nil {
		t.Fatalf("decode cleared: %v", err)
	}
	if cleared.Dropped != 0 {
		t.Fatalf("second clear dropped = %d, want 0", cleared.Dropped)
	}
}

func TestChatSocketErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newTestHandler(t, RuntimeConfig{}))
	t.Cleanup(srv.Close)
	conn := dialChat(t, srv)

	sendFrame(t, conn, wsFrame{Type: "ask", RequestID: "empty", Payload: json.RawMessage(`{"prompt":"   "}`)})
	assertErrorFrame(t, readFrame(t, conn), "empty", "INVALID_ARGUMENT")

	sendFrame(t, conn, wsFrame{Type: "dance", RequestID: "bad"})
	assertErrorFrame(t, readFrame(t, conn), "bad", "INVALID_ARGUMENT")

	if _, err := conn.Write([]byte("{not json")); err != nil {
		t.Fatalf("write raw: %v", err)
	}
	assertErrorFrame(t, readFrame(t, conn), "", "INVALID_ARGUMENT")
}

func TestChatSocketCarriesHistoryToModel(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	gemini := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		n := calls.Add(1)
		if n == 2 && !strings.Contains(string(raw), "first question") {
			t.Errorf("second request missing history: %s", raw)
		}
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"answer"}]}}]}`)
	}))
	t.Cleanup(gemini.Close)

	srv := httptest.NewServer(newTestHandler(t, RuntimeConfig{GeminiBaseURL: gemini.URL, GeminiAPIKey: "server-key"}))
	t.Cleanup(srv.Close)
	conn := dialChat(t, srv)

	for i, prompt := range []string{"first question", "second question"} {
		payload, _ := json.Marshal(chatRequest{Prompt: prompt})
		sendFrame(t, conn, wsFrame{Type: "ask", Payload: payload})
		frame := readFrame(t, conn)
		var reply wsReply
		if err := json.Unmarshal(frame.Payload, &reply); err != nil {
			t.Fatalf("decode reply %d: %v", i, err)
		}
		if reply.Response != "answer" || reply.Mode != "llm" {
			t.Fatalf("reply %d = %+v", i, reply)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("model calls = %d, want 2", calls.Load())
	}
}

func dialChat(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	conn, err := websocket.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/chat", "", srv.URL)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, frame wsFrame) {
	t.Helper()

	if err := websocket.JSON.Send(conn, frame); err != nil {
		t.Fatalf("send frame: %v", err)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var frame wsFrame
	if err := websocket.JSON.Receive(conn, &frame); err != nil {
		t.Fatalf("receive frame: %v", err)
	}
	return frame
}

func assertErrorFrame(t *testing.T, frame wsFrame, requestID, code string) {
	t.Helper()

	if frame.Type != "error" || frame.RequestID != requestID {
		t.Fatalf("frame = %+v, want error for %q", frame, requestID)
	}
	var envelope wsErrorEnvelope
	if err := json.Unmarshal(frame.Payload, &envelope); err != nil {
		t.Fatalf("decode error frame: %v", err)
	}
	if envelope.Error.Code != code {
		t.Fatalf("error code = %q, want %q", envelope.Error.Code, code)
	}
}
