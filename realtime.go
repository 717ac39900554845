package amora

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// ============================================================================
// Event payload types
// ============================================================================

// MessageDeletedPayload is sent when a message is removed.
type MessageDeletedPayload struct {
	MessageID int64 `json:"message_id"`
	ChatID    int64 `json:"chat_id"`
}

// realtimeEnvelope is the wire format for all stream events.
type realtimeEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// RealtimeState represents the connection state.
type RealtimeState string

const (
	StateDisconnected RealtimeState = "disconnected"
	StateConnecting   RealtimeState = "connecting"
	StateConnected    RealtimeState = "connected"
	StateReconnecting RealtimeState = "reconnecting"
)

// RealtimeEventHandler is the generic event callback type.
type RealtimeEventHandler func(eventType string, payload json.RawMessage)

// ============================================================================
// Event dispatcher
// ============================================================================

type eventDispatcher struct {
	mu               sync.RWMutex
	generic          map[string][]RealtimeEventHandler
	onMessageNew     []func(Message)
	onMessageUpdated []func(Message)
	onMessageDeleted []func(MessageDeletedPayload)
	onNotification   []func(Notification)
	onConnected      []func()
	onDisconnected   []func(reason string)
	onReconnecting   []func(attempt int, delay time.Duration)
}

func newEventDispatcher() *eventDispatcher {
	return &eventDispatcher{
		generic: make(map[string][]RealtimeEventHandler),
	}
}

// dispatch invokes handlers synchronously on the read loop so events are
// delivered in arrival order. Store-bound handlers depend on that: a
// message.new applied after the same message's message.updated would clobber
// the newer copy.
func (d *eventDispatcher) dispatch(env realtimeEnvelope) {
	d.mu.RLock()
	typedNew := append(([]func(Message))(nil), d.onMessageNew...)
	typedUpdated := append(([]func(Message))(nil), d.onMessageUpdated...)
	typedDeleted := append(([]func(MessageDeletedPayload))(nil), d.onMessageDeleted...)
	typedNotification := append(([]func(Notification))(nil), d.onNotification...)
	generic := append([]RealtimeEventHandler(nil), d.generic[env.Type]...)
	d.mu.RUnlock()

	switch env.Type {
	case "message.new":
		var m Message
		if json.Unmarshal(env.Payload, &m) == nil {
			for _, h := range typedNew {
				h(m)
			}
		}
	case "message.updated":
		var m Message
		if json.Unmarshal(env.Payload, &m) == nil {
			for _, h := range typedUpdated {
				h(m)
			}
		}
	case "message.deleted":
		var p MessageDeletedPayload
		if json.Unmarshal(env.Payload, &p) == nil {
			for _, h := range typedDeleted {
				h(p)
			}
		}
	case "notification.new":
		var n Notification
		if json.Unmarshal(env.Payload, &n) == nil {
			for _, h := range typedNotification {
				h(n)
			}
		}
	}

	for _, h := range generic {
		h(env.Type, env.Payload)
	}
}

func (d *eventDispatcher) emitConnected() {
	d.mu.RLock()
	handlers := append([]func(){}, d.onConnected...)
	d.mu.RUnlock()
	for _, h := range handlers {
		go h()
	}
}

func (d *eventDispatcher) emitDisconnected(reason string) {
	d.mu.RLock()
	handlers := append([]func(string){}, d.onDisconnected...)
	d.mu.RUnlock()
	for _, h := range handlers {
		go h(reason)
	}
}

func (d *eventDispatcher) emitReconnecting(attempt int, delay time.Duration) {
	d.mu.RLock()
	handlers := append([]func(int, time.Duration){}, d.onReconnecting...)
	d.mu.RUnlock()
	for _, h := range handlers {
		go h(attempt, delay)
	}
}

// ============================================================================
// Reconnector
// ============================================================================

type reconnector struct {
	baseDelay   time.Duration
	maxDelay    time.Duration
	maxAttempts int
	attempt     int
	connectedAt time.Time
}

func (r *reconnector) shouldReconnect() bool {
	return r.maxAttempts == 0 || r.attempt < r.maxAttempts
}

func (r *reconnector) markConnected() {
	r.connectedAt = time.Now()
}

func (r *reconnector) nextDelay() time.Duration {
	if !r.connectedAt.IsZero() && time.Since(r.connectedAt) > 60*time.Second {
		r.attempt = 0
	}
	jitter := time.Duration(rand.Float64() * float64(r.baseDelay) * 0.5)
	delay := time.Duration(math.Min(
		float64(r.baseDelay)*math.Pow(2, float64(r.attempt))+float64(jitter),
		float64(r.maxDelay),
	))
	r.attempt++
	return delay
}

// ============================================================================
// RealtimeClient
// ============================================================================

// RealtimeClient is the platform's WebSocket event stream: message and
// notification events pushed as they happen. The stream is supplemental — the
// polling syncer is the always-on baseline, and merge-by-ID makes duplicate
// delivery between the two harmless.
//
// The stream is read-only; all writes go through the HTTP API.
//
// Handlers run synchronously on the connection's read loop, in arrival
// order. A slow handler delays the events behind it.
type RealtimeClient struct {
	client     *Client
	dispatcher *eventDispatcher
	recon      reconnector

	mu               sync.Mutex
	conn             *websocket.Conn
	state            RealtimeState
	intentionalClose bool
	cancel           context.CancelFunc
}

func newRealtimeClient(c *Client) *RealtimeClient {
	return &RealtimeClient{
		client:     c,
		dispatcher: newEventDispatcher(),
		state:      StateDisconnected,
		recon: reconnector{
			baseDelay:   time.Second,
			maxDelay:    30 * time.Second,
			maxAttempts: 10,
		},
	}
}

// OnMessageNew registers a handler for new messages.
func (rc *RealtimeClient) OnMessageNew(h func(Message)) {
	rc.dispatcher.mu.Lock()
	rc.dispatcher.onMessageNew = append(rc.dispatcher.onMessageNew, h)
	rc.dispatcher.mu.Unlock()
}

// OnMessageUpdated registers a handler for edited messages.
func (rc *RealtimeClient) OnMessageUpdated(h func(Message)) {
	rc.dispatcher.mu.Lock()
	rc.dispatcher.onMessageUpdated = append(rc.dispatcher.onMessageUpdated, h)
	rc.dispatcher.mu.Unlock()
}

// OnMessageDeleted registers a handler for deleted messages.
func (rc *RealtimeClient) OnMessageDeleted(h func(MessageDeletedPayload)) {
	rc.dispatcher.mu.Lock()
	rc.dispatcher.onMessageDeleted = append(rc.dispatcher.onMessageDeleted, h)
	rc.dispatcher.mu.Unlock()
}

// OnNotification registers a handler for new notifications.
func (rc *RealtimeClient) OnNotification(h func(Notification)) {
	rc.dispatcher.mu.Lock()
	rc.dispatcher.onNotification = append(rc.dispatcher.onNotification, h)
	rc.dispatcher.mu.Unlock()
}

// OnConnected registers a handler for the connected meta-event.
func (rc *RealtimeClient) OnConnected(h func()) {
	rc.dispatcher.mu.Lock()
	rc.dispatcher.onConnected = append(rc.dispatcher.onConnected, h)
	rc.dispatcher.mu.Unlock()
}

// OnDisconnected registers a handler for the disconnected meta-event.
func (rc *RealtimeClient) OnDisconnected(h func(reason string)) {
	rc.dispatcher.mu.Lock()
	rc.dispatcher.onDisconnected = append(rc.dispatcher.onDisconnected, h)
	rc.dispatcher.mu.Unlock()
}

// OnReconnecting registers a handler for the reconnecting meta-event.
func (rc *RealtimeClient) OnReconnecting(h func(attempt int, delay time.Duration)) {
	rc.dispatcher.mu.Lock()
	rc.dispatcher.onReconnecting = append(rc.dispatcher.onReconnecting, h)
	rc.dispatcher.mu.Unlock()
}

// On registers a generic event handler.
func (rc *RealtimeClient) On(eventType string, h RealtimeEventHandler) {
	rc.dispatcher.mu.Lock()
	rc.dispatcher.generic[eventType] = append(rc.dispatcher.generic[eventType], h)
	rc.dispatcher.mu.Unlock()
}

// BindStore wires the stream into a ChatStore: new and updated messages are
// upserted by ID, deletions are removed, so the store converges whether an
// event or a poll arrives first.
func (rc *RealtimeClient) BindStore(store *ChatStore) {
	rc.OnMessageNew(store.ApplyMessage)
	rc.OnMessageUpdated(store.ApplyMessage)
	rc.OnMessageDeleted(func(p MessageDeletedPayload) {
		store.RemoveMessage(p.ChatID, p.MessageID)
	})
}

// State returns the current connection state.
func (rc *RealtimeClient) State() RealtimeState {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.state
}

// Connect establishes the WebSocket connection and starts the read loop.
// Lost connections are retried with jittered exponential backoff until
// Disconnect is called or the attempt budget runs out.
func (rc *RealtimeClient) Connect(ctx context.Context) error {
	rc.mu.Lock()
	if rc.state == StateConnected || rc.state == StateConnecting {
		rc.mu.Unlock()
		return nil
	}
	rc.state = StateConnecting
	rc.intentionalClose = false
	rc.mu.Unlock()

	conn, err := rc.dial(ctx)
	if err != nil {
		rc.mu.Lock()
		rc.state = StateDisconnected
		rc.mu.Unlock()
		return err
	}

	rc.mu.Lock()
	rc.conn = conn
	rc.state = StateConnected
	rc.mu.Unlock()
	rc.recon.markConnected()
	rc.dispatcher.emitConnected()

	connCtx, cancel := context.WithCancel(ctx)
	rc.mu.Lock()
	rc.cancel = cancel
	rc.mu.Unlock()

	go rc.readLoop(connCtx)
	return nil
}

func (rc *RealtimeClient) dial(ctx context.Context) (*websocket.Conn, error) {
	wsURL := strings.Replace(rc.client.baseURL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL += "/ws?token=" + rc.client.token

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return conn, nil
}

// Disconnect gracefully closes the connection and stops reconnecting.
func (rc *RealtimeClient) Disconnect() error {
	rc.mu.Lock()
	rc.intentionalClose = true
	if rc.cancel != nil {
		rc.cancel()
		rc.cancel = nil
	}
	conn := rc.conn
	rc.conn = nil
	rc.state = StateDisconnected
	rc.mu.Unlock()

	if conn != nil {
		return conn.Close(websocket.StatusNormalClosure, "client disconnect")
	}
	return nil
}

func (rc *RealtimeClient) readLoop(ctx context.Context) {
	for {
		rc.mu.Lock()
		conn := rc.conn
		rc.mu.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.Read(ctx)
		if err != nil {
			rc.mu.Lock()
			intentional := rc.intentionalClose
			rc.conn = nil
			rc.state = StateDisconnected
			rc.mu.Unlock()

			if intentional || ctx.Err() != nil {
				return
			}
			rc.dispatcher.emitDisconnected(err.Error())
			rc.reconnectLoop(ctx)
			return
		}

		var env realtimeEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			rc.client.log.Warn("malformed realtime event", zap.Error(err))
			continue
		}
		rc.dispatcher.dispatch(env)
	}
}

func (rc *RealtimeClient) reconnectLoop(ctx context.Context) {
	for rc.recon.shouldReconnect() {
		delay := rc.recon.nextDelay()
		rc.mu.Lock()
		rc.state = StateReconnecting
		rc.mu.Unlock()
		rc.dispatcher.emitReconnecting(rc.recon.attempt, delay)

		select {
		case <-ctx.Done():
			rc.mu.Lock()
			rc.state = StateDisconnected
			rc.mu.Unlock()
			return
		case <-time.After(delay):
		}

		conn, err := rc.dial(ctx)
		if err != nil {
			rc.client.log.Warn("realtime reconnect failed",
				zap.Int("attempt", rc.recon.attempt), zap.Error(err))
			continue
		}

		rc.mu.Lock()
		rc.conn = conn
		rc.state = StateConnected
		rc.mu.Unlock()
		rc.recon.markConnected()
		rc.dispatcher.emitConnected()

		go rc.readLoop(ctx)
		return
	}

	rc.mu.Lock()
	rc.state = StateDisconnected
	rc.mu.Unlock()
}
