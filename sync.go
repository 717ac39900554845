package amora

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ============================================================================
// Syncer
// ============================================================================

const (
	// DefaultListInterval is the chat-list poll period.
	DefaultListInterval = 5 * time.Second
	// DefaultMessageInterval is the open-conversation poll period.
	DefaultMessageInterval = 3 * time.Second
)

// SyncOptions configures a Syncer. Zero fields take the defaults.
type SyncOptions struct {
	ListInterval    time.Duration
	MessageInterval time.Duration
}

// Syncer keeps a ChatStore converging toward server state by polling. Run
// drives the chat-list loop; Open starts a per-conversation Session.
//
// Every network failure on a poll path is logged and swallowed — the last
// good state stays in place and the next tick is the retry. Nothing on these
// loops returns an error to the caller.
type Syncer struct {
	client *Client
	store  *ChatStore
	userID int64
	log    *zap.Logger

	listInterval    time.Duration
	messageInterval time.Duration
}

// NewSyncer creates a syncer for the authenticated user. userID is the
// account's own ID, used to tell inbound messages from the user's own when
// reporting read receipts.
func NewSyncer(client *Client, store *ChatStore, userID int64, opts *SyncOptions) *Syncer {
	s := &Syncer{
		client:          client,
		store:           store,
		userID:          userID,
		log:             client.log,
		listInterval:    DefaultListInterval,
		messageInterval: DefaultMessageInterval,
	}
	if opts != nil {
		if opts.ListInterval > 0 {
			s.listInterval = opts.ListInterval
		}
		if opts.MessageInterval > 0 {
			s.messageInterval = opts.MessageInterval
		}
	}
	return s
}

// Store returns the store this syncer feeds.
func (s *Syncer) Store() *ChatStore {
	return s.store
}

// Run polls the chat list until ctx is cancelled: one fetch immediately, then
// one per ListInterval. Each successful fetch replaces the cached list
// wholesale, including with an empty result.
func (s *Syncer) Run(ctx context.Context) {
	s.fetchChats(ctx)

	ticker := time.NewTicker(s.listInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fetchChats(ctx)
		}
	}
}

func (s *Syncer) fetchChats(ctx context.Context) {
	chats, err := s.client.Chats().List(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn("chat list poll failed", zap.Error(err))
		}
		return
	}
	s.store.ReplaceChats(chats)
}

// ============================================================================
// Session
// ============================================================================

// Session is one open conversation. It polls the chat's messages every
// MessageInterval, merges batches into the store by ID, and reports read
// receipts for inbound unread messages. Close it before opening another
// session for the same display surface.
type Session struct {
	syncer *Syncer
	chatID int64

	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	gen       uint64              // bumped on Close; stale fetch results are discarded
	requested map[int64]struct{}  // message IDs already submitted for mark-as-read
	deleting  map[int64]struct{}  // message IDs with an in-flight delete
	closed    bool
}

// Open starts a Session for a chat: one message fetch immediately, then one
// per MessageInterval, until Close or ctx cancellation.
func (s *Syncer) Open(ctx context.Context, chatID int64) *Session {
	ctx, cancel := context.WithCancel(ctx)
	sess := &Session{
		syncer:    s,
		chatID:    chatID,
		cancel:    cancel,
		done:      make(chan struct{}),
		requested: make(map[int64]struct{}),
		deleting:  make(map[int64]struct{}),
	}
	go sess.run(ctx)
	return sess
}

// ChatID returns the conversation this session is bound to.
func (sess *Session) ChatID() int64 {
	return sess.chatID
}

// Messages returns the conversation's current merged sequence.
func (sess *Session) Messages() []Message {
	return sess.syncer.store.Messages(sess.chatID)
}

// Close stops the poll loop. Fetches already in flight are discarded when
// they come back; no response started before Close can mutate the store.
func (sess *Session) Close() {
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return
	}
	sess.closed = true
	sess.gen++
	sess.mu.Unlock()

	sess.cancel()
	<-sess.done
}

func (sess *Session) run(ctx context.Context) {
	defer close(sess.done)

	sess.fetchMessages(ctx)

	ticker := time.NewTicker(sess.syncer.messageInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sess.fetchMessages(ctx)
		}
	}
}

func (sess *Session) fetchMessages(ctx context.Context) {
	sess.mu.Lock()
	gen := sess.gen
	sess.mu.Unlock()

	batch, err := sess.syncer.client.Chats().History(ctx, sess.chatID)
	if err != nil {
		if ctx.Err() == nil {
			sess.syncer.log.Warn("message poll failed",
				zap.Int64("chat_id", sess.chatID), zap.Error(err))
		}
		return
	}

	sess.mu.Lock()
	stale := gen != sess.gen
	sess.mu.Unlock()
	if stale {
		return
	}

	sess.syncer.store.Merge(sess.chatID, batch)
	sess.reportRead(ctx, batch)
}

// ── Read receipts ────────────────────────────────────────

// reportRead submits a mark-as-read for each inbound message that arrived
// unread, at most once per session. Failures are logged and not retried; the
// receipt call is not assumed to be idempotent server-side.
func (sess *Session) reportRead(ctx context.Context, batch []Message) {
	for i := range batch {
		m := batch[i]
		if m.UserID == sess.syncer.userID || m.ReadAt != nil {
			continue
		}

		sess.mu.Lock()
		_, seen := sess.requested[m.ID]
		if !seen {
			sess.requested[m.ID] = struct{}{}
		}
		sess.mu.Unlock()
		if seen {
			continue
		}

		if err := sess.syncer.client.Messages().MarkRead(ctx, m.ID); err != nil {
			if ctx.Err() == nil {
				sess.syncer.log.Warn("mark-as-read failed",
					zap.Int64("message_id", m.ID), zap.Error(err))
			}
		}
	}
}

// ── Mutations ────────────────────────────────────────────

// Send submits a draft optimistically: a pending local copy appears in the
// merged sequence immediately, and is replaced by the canonical server
// message when the request resolves. On failure the pending copy is removed
// and the draft is left intact for resubmission.
func (sess *Session) Send(ctx context.Context, draft *MessageDraft) (*Message, error) {
	if draft == nil || !draft.sendable() {
		return nil, ErrEmptyDraft
	}

	local := Message{
		ChatID:    sess.chatID,
		UserID:    sess.syncer.userID,
		Content:   draft.Content,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		ClientID:  uuid.NewString(),
		Pending:   true,
	}
	if draft.File != nil {
		local.FileName = draft.File.Name
		local.FileType = draft.File.MIMEType
	}
	sess.syncer.store.AddPending(local)

	confirmed, err := sess.syncer.client.Chats().Send(ctx, sess.chatID, draft)
	if err != nil {
		sess.syncer.store.RemovePending(sess.chatID, local.ClientID)
		return nil, err
	}
	sess.syncer.store.ResolvePending(sess.chatID, local.ClientID, *confirmed)
	return confirmed, nil
}

// Edit submits a content change for a message. The content is trimmed before
// submission; when the trimmed content equals the current copy's, the edit is
// a no-op and no request is issued. Local state changes only on server
// success.
func (sess *Session) Edit(ctx context.Context, messageID int64, content string) error {
	content = strings.TrimSpace(content)
	current := sess.syncer.store.Message(sess.chatID, messageID)
	if current != nil && content == strings.TrimSpace(current.Content) {
		return nil
	}

	updated, err := sess.syncer.client.Messages().Edit(ctx, messageID, content)
	if err != nil {
		return err
	}
	sess.syncer.store.ApplyMessage(*updated)
	return nil
}

// Delete removes a message. A second Delete for the same ID while the first
// is in flight is a no-op. The cached copy is dropped only on server success.
func (sess *Session) Delete(ctx context.Context, messageID int64) error {
	sess.mu.Lock()
	if _, inFlight := sess.deleting[messageID]; inFlight {
		sess.mu.Unlock()
		return nil
	}
	sess.deleting[messageID] = struct{}{}
	sess.mu.Unlock()

	defer func() {
		sess.mu.Lock()
		delete(sess.deleting, messageID)
		sess.mu.Unlock()
	}()

	if err := sess.syncer.client.Messages().Delete(ctx, messageID); err != nil {
		return err
	}
	sess.syncer.store.RemoveMessage(sess.chatID, messageID)
	return nil
}
