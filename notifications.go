package amora

import (
	"context"
	"net/http"
	"net/url"
)

// ============================================================================
// Notifications
// ============================================================================

// NotificationsClient handles the notification inbox.
type NotificationsClient struct {
	client *Client
}

// List returns the inbox: the unread count plus the recent notifications.
func (nc *NotificationsClient) List(ctx context.Context) (*NotificationInbox, error) {
	data, err := nc.client.doRequest(ctx, http.MethodGet, "/notifications", nil, nil)
	if err != nil {
		return nil, err
	}
	env, err := decodeJSON[notificationsEnvelope](data)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// MarkAllRead marks every notification as read.
func (nc *NotificationsClient) MarkAllRead(ctx context.Context) error {
	_, err := nc.client.doRequest(ctx, http.MethodPatch, "/notifications/mark-all-as-read", nil, nil)
	return err
}

// MarkRead marks a single notification as read.
func (nc *NotificationsClient) MarkRead(ctx context.Context, id string) error {
	_, err := nc.client.doRequest(ctx, http.MethodPatch, "/notifications/mark-as-read/"+url.PathEscape(id), nil, nil)
	return err
}
