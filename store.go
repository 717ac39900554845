package amora

import (
	"sort"
	"sync"
)

// ============================================================================
// ChatStore
// ============================================================================

// ChatStore is the goroutine-safe in-memory state shared by the pollers, the
// optimistic send path, and the realtime handlers.
//
// Messages are keyed by server ID per chat; merging a server batch replaces
// any local copy with the same ID (server wins). Optimistic sends live in a
// separate pending set keyed by client ID until their request resolves.
type ChatStore struct {
	mu       sync.RWMutex
	chats    []Chat
	messages map[int64]map[int64]*Message  // chatID → messageID → message
	pending  map[int64]map[string]*Message // chatID → clientID → optimistic copy
}

// NewChatStore creates an empty store.
func NewChatStore() *ChatStore {
	return &ChatStore{
		messages: make(map[int64]map[int64]*Message),
		pending:  make(map[int64]map[string]*Message),
	}
}

// ── Chat list ────────────────────────────────────────────

// ReplaceChats swaps the cached chat list for the server's current one.
// An empty server list empties the cache; the list endpoint always returns
// the complete set, so replacement is the only correct merge.
func (s *ChatStore) ReplaceChats(chats []Chat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = append([]Chat(nil), chats...)
}

// Chats returns a copy of the cached chat list.
func (s *ChatStore) Chats() []Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Chat(nil), s.chats...)
}

// Chat returns the cached chat with the given ID, or nil.
func (s *ChatStore) Chat(id int64) *Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.chats {
		if s.chats[i].ID == id {
			c := s.chats[i]
			return &c
		}
	}
	return nil
}

// ── Messages ─────────────────────────────────────────────

// Merge unions a server batch into a chat's message set. Server copies win
// by ID; messages only the client knows about (pending sends, or confirmed
// messages the batch predates) are left alone.
func (s *ChatStore) Merge(chatID int64, batch []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID := s.messages[chatID]
	if byID == nil {
		byID = make(map[int64]*Message)
		s.messages[chatID] = byID
	}
	for i := range batch {
		m := batch[i]
		byID[m.ID] = &m
	}
}

// ApplyMessage upserts a single server copy, replacing any cached one with
// the same ID. Used by edit responses and realtime updates.
func (s *ChatStore) ApplyMessage(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID := s.messages[m.ChatID]
	if byID == nil {
		byID = make(map[int64]*Message)
		s.messages[m.ChatID] = byID
	}
	byID[m.ID] = &m
}

// RemoveMessage drops a confirmed message from a chat.
func (s *ChatStore) RemoveMessage(chatID, messageID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages[chatID], messageID)
}

// Message returns the cached copy of a message, or nil.
func (s *ChatStore) Message(chatID, messageID int64) *Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.messages[chatID][messageID]
	if m == nil {
		return nil
	}
	cp := *m
	return &cp
}

// Messages returns a chat's messages in display order: (created_at, id)
// ascending, pending copies interleaved by timestamp. The order is recomputed
// on every read so optimistic appends and poll merges converge to the same
// sequence.
func (s *ChatStore) Messages(chatID int64) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Message, 0, len(s.messages[chatID])+len(s.pending[chatID]))
	for _, m := range s.messages[chatID] {
		result = append(result, *m)
	}
	for _, m := range s.pending[chatID] {
		result = append(result, *m)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		if a.Pending != b.Pending {
			return !a.Pending // confirmed before pending at the same instant
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.ClientID < b.ClientID
	})
	return result
}

// ── Optimistic sends ─────────────────────────────────────

// AddPending records an optimistic local message. The copy must carry a
// ClientID and Pending=true.
func (s *ChatStore) AddPending(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byClient := s.pending[m.ChatID]
	if byClient == nil {
		byClient = make(map[string]*Message)
		s.pending[m.ChatID] = byClient
	}
	byClient[m.ClientID] = &m
}

// ResolvePending replaces an optimistic copy with the confirmed server
// message. Inserting by server ID is idempotent, so a poll that delivered the
// same message first leaves exactly one copy behind.
func (s *ChatStore) ResolvePending(chatID int64, clientID string, confirmed Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending[chatID], clientID)
	byID := s.messages[chatID]
	if byID == nil {
		byID = make(map[int64]*Message)
		s.messages[chatID] = byID
	}
	byID[confirmed.ID] = &confirmed
}

// RemovePending drops an optimistic copy whose send failed.
func (s *ChatStore) RemovePending(chatID int64, clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending[chatID], clientID)
}

// PendingCount returns the number of unresolved optimistic sends in a chat.
func (s *ChatStore) PendingCount(chatID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending[chatID])
}
