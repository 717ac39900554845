package amora

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nhooyr.io/websocket"
)

func TestRealtimeDispatchesEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws" {
			t.Errorf("path = %q, want /ws", r.URL.Path)
		}
		if r.URL.Query().Get("token") != "test-token" {
			t.Errorf("token missing from dial URL")
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		ctx := r.Context()
		conn.Write(ctx, websocket.MessageText,
			[]byte(`{"type":"message.new","payload":{"id":10,"chat_id":1,"user_id":8,"content":"hi","created_at":"2026-02-01T10:00:00Z"}}`))
		conn.Write(ctx, websocket.MessageText,
			[]byte(`{"type":"notification.new","payload":{"id":"n-1","message":"New match!","created_at":"2026-02-01T10:00:01Z"}}`))
		// Hold the connection open until the client goes away.
		conn.Read(ctx)
		conn.Close(websocket.StatusNormalClosure, "")
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL))
	rc := client.Realtime()

	messages := make(chan Message, 1)
	notifications := make(chan Notification, 1)
	rc.OnMessageNew(func(m Message) { messages <- m })
	rc.OnNotification(func(n Notification) { notifications <- n })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Connect(ctx); err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	defer rc.Disconnect()

	if rc.State() != StateConnected {
		t.Errorf("state = %q, want connected", rc.State())
	}

	select {
	case m := <-messages:
		if m.ID != 10 || m.Content != "hi" {
			t.Errorf("unexpected message: %+v", m)
		}
	case <-ctx.Done():
		t.Fatal("message.new never dispatched")
	}
	select {
	case n := <-notifications:
		if n.ID != "n-1" {
			t.Errorf("unexpected notification: %+v", n)
		}
	case <-ctx.Done():
		t.Fatal("notification.new never dispatched")
	}
}

func TestRealtimeBindStoreAppliesEventsInArrivalOrder(t *testing.T) {
	events := []string{
		`{"type":"message.new","payload":{"id":10,"chat_id":1,"user_id":8,"content":"hi","created_at":"2026-02-01T10:00:00Z"}}`,
		`{"type":"message.updated","payload":{"id":10,"chat_id":1,"user_id":8,"content":"hi!","created_at":"2026-02-01T10:00:00Z"}}`,
		`{"type":"message.updated","payload":{"id":10,"chat_id":1,"user_id":8,"content":"hi!!","created_at":"2026-02-01T10:00:00Z"}}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		ctx := r.Context()
		for _, ev := range events {
			conn.Write(ctx, websocket.MessageText, []byte(ev))
		}
		conn.Read(ctx)
		conn.Close(websocket.StatusNormalClosure, "")
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL))
	store := NewChatStore()
	client.Realtime().BindStore(store)

	// Generic handlers run after the typed ones for the same event, so the
	// last signal means every store mutation has been applied.
	seen := make(chan struct{}, len(events))
	client.Realtime().On("message.new", func(string, json.RawMessage) { seen <- struct{}{} })
	client.Realtime().On("message.updated", func(string, json.RawMessage) { seen <- struct{}{} })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Realtime().Connect(ctx); err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	defer client.Realtime().Disconnect()

	for range events {
		select {
		case <-seen:
		case <-ctx.Done():
			t.Fatal("events never dispatched")
		}
	}

	m := store.Message(1, 10)
	if m == nil || m.Content != "hi!!" {
		t.Fatalf("store copy = %+v, want the last update to win", m)
	}
}

func TestReconnectorBackoff(t *testing.T) {
	r := reconnector{
		baseDelay:   100 * time.Millisecond,
		maxDelay:    time.Second,
		maxAttempts: 3,
	}

	var last time.Duration
	for i := 0; i < 3; i++ {
		if !r.shouldReconnect() {
			t.Fatalf("attempt %d refused", i)
		}
		d := r.nextDelay()
		if d < last {
			t.Errorf("delay shrank: %v after %v", d, last)
		}
		if d > r.maxDelay+r.baseDelay {
			t.Errorf("delay %v above cap", d)
		}
		last = d
	}
	if r.shouldReconnect() {
		t.Error("attempt budget not enforced")
	}
}

func TestReconnectorResetsAfterStableConnection(t *testing.T) {
	r := reconnector{baseDelay: 100 * time.Millisecond, maxDelay: time.Second}
	r.nextDelay()
	r.nextDelay()
	r.connectedAt = time.Now().Add(-2 * time.Minute)
	r.nextDelay()
	if r.attempt != 1 {
		t.Errorf("attempt = %d, want 1 after stable connection", r.attempt)
	}
}
