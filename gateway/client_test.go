package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/linanwx/serifu/conversation"
)

func listenLocal() (net.Listener, error) {
	return net.Listen("tcp", "127.0.0.1:0")
}

func TestClientChatEndToEnd(t *testing.T) {
	fp := &fakeProvider{reply: "hi there"}
	server := httptest.NewServer(NewHandler(HandlerConfig{Provider: fp, SystemPrompt: "sys"}))
	defer server.Close()

	c := NewClient(server.URL, 5*time.Second)
	reply, err := c.Chat(context.Background(), Request{
		Message: "hello",
		History: []conversation.HistoryMessage{
			{Role: "user", Content: "ab"},
			{Role: "assistant", Content: "c"},
		},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if reply != "hi there" {
		t.Fatalf("reply = %q", reply)
	}
	msgs := fp.got.Messages
	if len(msgs) != 4 || msgs[1].Role != "user" || msgs[2].Role != "assistant" || msgs[3].Content != "hello" {
		t.Fatalf("upstream messages = %+v", msgs)
	}
}

func TestRequestWireMapsRoles(t *testing.T) {
	wire := Request{
		Message: "m",
		History: []conversation.HistoryMessage{{Role: "user", Content: "a"}, {Role: "assistant", Content: "b"}},
	}.Wire()

	data, err := json.Marshal(wire)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"message":"m","conversationHistory":[{"type":"user","content":"a"},{"type":"response","content":"b"}]}`
	if string(data) != want {
		t.Fatalf("wire = %s, want %s", data, want)
	}

	empty, _ := json.Marshal(Request{Message: "m"}.Wire())
	if string(empty) != `{"message":"m","conversationHistory":[]}` {
		t.Fatalf("empty history wire = %s", empty)
	}
}

func TestClientChatFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr func(error) bool
	}{
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"error":"Internal server error"}`,
			wantErr: func(err error) bool {
				var se *StatusError
				return errors.As(err, &se) && se.StatusCode == 500 && se.Message == "Internal server error"
			},
		},
		{
			name:    "not json",
			status:  http.StatusOK,
			body:    `<html>`,
			wantErr: func(err error) bool { return errors.Is(err, ErrMalformedResponse) },
		},
		{
			name:    "missing response",
			status:  http.StatusOK,
			body:    `{"timestamp":"x"}`,
			wantErr: func(err error) bool { return errors.Is(err, ErrMalformedResponse) },
		},
		{
			name:    "non-string response",
			status:  http.StatusOK,
			body:    `{"response":12}`,
			wantErr: func(err error) bool { return errors.Is(err, ErrMalformedResponse) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.Copy(io.Discard, r.Body)
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			_, err := NewClient(server.URL, time.Second).Chat(context.Background(), Request{Message: "x"})
			if err == nil || !tt.wantErr(err) {
				t.Fatalf("Chat() error = %v", err)
			}
		})
	}
}

func TestClientChatEmptyReplyIsValid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"response":"","timestamp":"t"}`)
	}))
	defer server.Close()

	reply, err := NewClient(server.URL, time.Second).Chat(context.Background(), Request{Message: "x"})
	if err != nil || reply != "" {
		t.Fatalf("Chat() = (%q, %v), want empty reply", reply, err)
	}
}

func TestClientChatTransportError(t *testing.T) {
	ln, err := listenLocal()
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	if _, err := NewClient("http://"+addr, time.Second).Chat(context.Background(), Request{Message: "x"}); err == nil {
		t.Fatal("Chat() should fail when nothing listens")
	}
}
