package amora

import (
	"context"
	"fmt"
	"net/http"
)

// ============================================================================
// Messages
// ============================================================================

// MessagesClient handles mutations on individual messages.
type MessagesClient struct {
	client *Client
}

// Edit replaces a message's text and returns the updated server copy.
// Only the author's own messages are editable; the backend rejects others.
func (mc *MessagesClient) Edit(ctx context.Context, messageID int64, content string) (*Message, error) {
	body := map[string]string{"content": content}
	data, err := mc.client.doRequest(ctx, http.MethodPut, fmt.Sprintf("/messages/%d", messageID), body, nil)
	if err != nil {
		return nil, err
	}
	env, err := decodeJSON[messageEnvelope](data)
	if err != nil {
		return nil, err
	}
	return &env.Message, nil
}

// Delete removes a message permanently.
func (mc *MessagesClient) Delete(ctx context.Context, messageID int64) error {
	_, err := mc.client.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/messages/%d", messageID), nil, nil)
	return err
}

// MarkRead records a read receipt for an inbound message.
func (mc *MessagesClient) MarkRead(ctx context.Context, messageID int64) error {
	_, err := mc.client.doRequest(ctx, http.MethodPost, fmt.Sprintf("/messages/%d/mark-as-read", messageID), nil, nil)
	return err
}
