package amora

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ============================================================================
// Chats
// ============================================================================

// ErrEmptyDraft is returned by Send when a draft has neither trimmed text
// content nor a file attachment. No request is issued for such drafts.
var ErrEmptyDraft = errors.New("amora: message draft has no content or attachment")

// ChatsClient handles the chat list and per-chat message operations.
type ChatsClient struct {
	client *Client
}

// DraftFile is an attachment on a MessageDraft.
type DraftFile struct {
	Name     string
	MIMEType string
	Reader   io.Reader
}

// MessageDraft is an outgoing message before submission. A draft is sendable
// when it has non-whitespace Content or a File.
type MessageDraft struct {
	Content string
	File    *DraftFile
}

// AttachSticker appends a sticker token to the draft text. Stickers ride in
// the content field, so a sticker-only draft is sendable.
func (d *MessageDraft) AttachSticker(sticker string) {
	d.Content += sticker
}

// sendable reports whether the draft would pass server validation.
func (d *MessageDraft) sendable() bool {
	return strings.TrimSpace(d.Content) != "" || d.File != nil
}

// List fetches every chat of the authenticated user. The result is the
// complete current list; callers replace any cached list with it wholesale.
func (cc *ChatsClient) List(ctx context.Context) ([]Chat, error) {
	data, err := cc.client.doRequest(ctx, http.MethodGet, "/chats", nil, nil)
	if err != nil {
		return nil, err
	}
	env, err := decodeJSON[chatListEnvelope](data)
	if err != nil {
		return nil, err
	}
	return env.Chats, nil
}

// History fetches the full message sequence of a chat, oldest first.
func (cc *ChatsClient) History(ctx context.Context, chatID int64) ([]Message, error) {
	data, err := cc.client.doRequest(ctx, http.MethodGet, fmt.Sprintf("/chats/%d/messages", chatID), nil, nil)
	if err != nil {
		return nil, err
	}
	env, err := decodeJSON[messageListEnvelope](data)
	if err != nil {
		return nil, err
	}
	return env.Messages, nil
}

// Send submits a draft to a chat and returns the canonical server message.
// Empty drafts fail with ErrEmptyDraft before any network traffic.
func (cc *ChatsClient) Send(ctx context.Context, chatID int64, draft *MessageDraft) (*Message, error) {
	if draft == nil || !draft.sendable() {
		return nil, ErrEmptyDraft
	}

	var fields []formField
	if strings.TrimSpace(draft.Content) != "" {
		fields = append(fields, formField{name: "content", value: draft.Content})
	}
	var file *formFile
	if draft.File != nil {
		file = &formFile{
			field:    "file",
			name:     draft.File.Name,
			mimeType: draft.File.MIMEType,
			reader:   draft.File.Reader,
		}
	}

	data, err := cc.client.doMultipart(ctx, fmt.Sprintf("/chats/%d/messages", chatID), fields, file)
	if err != nil {
		return nil, err
	}
	env, err := decodeJSON[messageEnvelope](data)
	if err != nil {
		return nil, err
	}
	return &env.Message, nil
}
