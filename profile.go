package amora

import (
	"context"
	"io"
	"net/http"
)

// ============================================================================
// Profile
// ============================================================================

// ProfileClient handles the authenticated user's own profile.
type ProfileClient struct {
	client *Client
}

// Update applies a partial profile update and returns the refreshed account.
func (pc *ProfileClient) Update(ctx context.Context, update *ProfileUpdate) (*User, error) {
	data, err := pc.client.doRequest(ctx, http.MethodPut, "/profile", update, nil)
	if err != nil {
		return nil, err
	}
	return decodeJSON[User](data)
}

// UploadAvatar replaces the profile picture and returns the refreshed account
// with the new avatar URL.
func (pc *ProfileClient) UploadAvatar(ctx context.Context, filename, mimeType string, r io.Reader) (*User, error) {
	file := &formFile{
		field:    "avatar",
		name:     filename,
		mimeType: mimeType,
		reader:   r,
	}
	data, err := pc.client.doMultipart(ctx, "/profile/avatar", nil, file)
	if err != nil {
		return nil, err
	}
	return decodeJSON[User](data)
}
