package amora

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ============================================================================
// Errors
// ============================================================================

// APIError is a non-2xx response from the platform. Validation failures carry
// the per-field messages the backend produced.
type APIError struct {
	Status  int                 `json:"-"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

// IsUnauthenticated reports whether err is an authentication failure
// (missing or expired token). Callers typically clear stored credentials and
// redirect to login.
func IsUnauthenticated(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

func apiErrorFrom(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	if len(body) > 0 {
		// Best effort — error bodies are not always JSON.
		json.Unmarshal(body, apiErr)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// ============================================================================
// Core entities
// ============================================================================

// User is the authenticated account profile returned by GET /user.
type User struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	AvatarURL         string  `json:"avatar_url,omitempty"`
	EmailVerifiedAt   *string `json:"email_verified_at"`
	Tariff            string  `json:"tariff,omitempty"`
	RemainingSearches int     `json:"remaining_searches,omitempty"`
}

// Chat is a conversation between the current user and one partner. Created
// server-side when a chat is initiated; the client only ever reads it.
type Chat struct {
	ID                 int64  `json:"id"`
	PartnerName        string `json:"partner_name"`
	PartnerAvatar      string `json:"partner_avatar,omitempty"`
	LastMessageContent string `json:"last_message_content,omitempty"`
	UnreadCount        int    `json:"unread_count"`
}

// Message is one unit of communication inside a Chat. At least one of
// Content, FileURL, or StickerURL is set.
//
// ClientID and Pending are client-side only: an optimistic local copy carries
// a generated ClientID and Pending=true until the send resolves and the
// server-assigned copy replaces it.
type Message struct {
	ID         int64   `json:"id"`
	ChatID     int64   `json:"chat_id"`
	UserID     int64   `json:"user_id"`
	Content    string  `json:"content,omitempty"`
	FileURL    string  `json:"file_url,omitempty"`
	FileType   string  `json:"file_type,omitempty"`
	FileName   string  `json:"file_name,omitempty"`
	StickerURL string  `json:"sticker_url,omitempty"`
	CreatedAt  string  `json:"created_at"`
	ReadAt     *string `json:"read_at"`

	ClientID string `json:"-"`
	Pending  bool   `json:"-"`
}

// Notification is one entry of the notification inbox.
type Notification struct {
	ID        string  `json:"id"`
	Type      string  `json:"type,omitempty"`
	Message   string  `json:"message"`
	ReadAt    *string `json:"read_at"`
	CreatedAt string  `json:"created_at"`
}

// NotificationInbox is the GET /notifications payload.
type NotificationInbox struct {
	UnreadCount   int            `json:"unread_count"`
	Notifications []Notification `json:"notifications"`
}

// PartnerProfile is a match candidate returned by the partner search.
type PartnerProfile struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Age       int      `json:"age"`
	ImageURL  string   `json:"image_url,omitempty"`
	Location  string   `json:"location,omitempty"`
	Interests []string `json:"interests,omitempty"`
}

// SearchFilters are the partner search query parameters. Zero-value fields
// are omitted from the query.
type SearchFilters struct {
	AgeRange  string
	Location  string
	Interests string
}

func (f *SearchFilters) query() map[string]string {
	if f == nil {
		return nil
	}
	q := map[string]string{}
	if f.AgeRange != "" {
		q["age_range"] = f.AgeRange
	}
	if f.Location != "" {
		q["location"] = f.Location
	}
	if f.Interests != "" {
		q["interests"] = f.Interests
	}
	if len(q) == 0 {
		return nil
	}
	return q
}

// ============================================================================
// Auth types
// ============================================================================

// AuthSession is the login/register response: the bearer token plus the
// account it belongs to.
type AuthSession struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// RegisterInterest is one selected interest; "Other" carries free text.
type RegisterInterest struct {
	Name      string `json:"name"`
	OtherText string `json:"other_text,omitempty"`
}

// SituationDetail is one life-situation entry of the registration wizard.
type SituationDetail struct {
	Type    string `json:"type"`
	Details string `json:"details,omitempty"`
}

// PsychologicalNeed is one selected need with optional detail text.
type PsychologicalNeed struct {
	Need    string `json:"need"`
	Details string `json:"details,omitempty"`
}

// RegisterOptions carries the flattened registration wizard payload.
type RegisterOptions struct {
	Name                 string              `json:"name"`
	Email                string              `json:"email"`
	Password             string              `json:"password"`
	PasswordConfirmation string              `json:"password_confirmation"`
	Gender               string              `json:"gender,omitempty"`
	Height               int                 `json:"height,omitempty"`
	Weight               int                 `json:"weight,omitempty"`
	AgeRange             string              `json:"age_range,omitempty"`
	Location             string              `json:"location,omitempty"`
	Interests            []RegisterInterest  `json:"interests,omitempty"`
	Situation            []SituationDetail   `json:"situation,omitempty"`
	PsychologicalNeeds   []PsychologicalNeed `json:"psychological_needs,omitempty"`
	LookingForGender     string              `json:"looking_for_gender,omitempty"`
	AgreedToTerms        bool                `json:"agreed_to_terms"`
}

// ResetPasswordOptions carries the forgot-password completion payload.
type ResetPasswordOptions struct {
	Token                string `json:"token"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// ProfileUpdate is the PUT /profile payload; zero-value fields are omitted.
type ProfileUpdate struct {
	Name             string   `json:"name,omitempty"`
	Bio              string   `json:"bio,omitempty"`
	Location         string   `json:"location,omitempty"`
	Interests        []string `json:"interests,omitempty"`
	LookingForGender string   `json:"looking_for_gender,omitempty"`
}

// ============================================================================
// Response envelopes
// ============================================================================

type chatListEnvelope struct {
	Chats []Chat `json:"chats"`
}

type messageListEnvelope struct {
	Messages []Message `json:"messages"`
}

type messageEnvelope struct {
	Message Message `json:"message"`
}

type notificationsEnvelope struct {
	Data NotificationInbox `json:"data"`
}

type partnerSearchEnvelope struct {
	Profile *PartnerProfile `json:"profile"`
}

type interestsEnvelope struct {
	Interests []string `json:"interests"`
}
