package amora_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	amora "github.com/amoralabs/amora-go"
)

// ============================================================================
// Test helpers
// ============================================================================

func testClient(t *testing.T, handler http.Handler) (*amora.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := amora.NewClient("test-token", amora.WithBaseURL(srv.URL))
	return client, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ============================================================================
// Auth
// ============================================================================

func TestLogin(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "jess@example.com" || body["password"] != "secret" {
			t.Errorf("unexpected credentials: %v", body)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"token": "tok-123",
			"user":  map[string]any{"id": 7, "name": "Jess", "email": "jess@example.com"},
		})
	}))

	sess, err := client.Auth().Login(context.Background(), "jess@example.com", "secret")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if sess.Token != "tok-123" {
		t.Errorf("token = %q, want tok-123", sess.Token)
	}
	if sess.User.ID != 7 || sess.User.Name != "Jess" {
		t.Errorf("unexpected user: %+v", sess.User)
	}
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"id": 7, "name": "Jess", "email": "j@x"})
	}))

	if _, err := client.Auth().Me(context.Background()); err != nil {
		t.Fatalf("Me error: %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want Bearer test-token", gotAuth)
	}
}

func TestUnauthenticatedError(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
	}))

	_, err := client.Chats().List(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !amora.IsUnauthenticated(err) {
		t.Errorf("IsUnauthenticated = false for %v", err)
	}
	var apiErr *amora.APIError
	if !asAPIError(err, &apiErr) {
		t.Fatalf("error is not *APIError: %v", err)
	}
	if apiErr.Message != "Unauthenticated." {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func asAPIError(err error, target **amora.APIError) bool {
	apiErr, ok := err.(*amora.APIError)
	if ok {
		*target = apiErr
	}
	return ok
}

func TestValidationErrorsSurfaced(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": "The given data was invalid.",
			"errors":  map[string][]string{"email": {"The email has already been taken."}},
		})
	}))

	_, err := client.Auth().Register(context.Background(), &amora.RegisterOptions{Email: "dup@x"})
	var apiErr *amora.APIError
	if !asAPIError(err, &apiErr) {
		t.Fatalf("error is not *APIError: %v", err)
	}
	if got := apiErr.Errors["email"]; len(got) != 1 || !strings.Contains(got[0], "taken") {
		t.Errorf("field errors = %v", apiErr.Errors)
	}
}

// ============================================================================
// Chats
// ============================================================================

func TestChatList(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chats" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"chats": []map[string]any{
				{"id": 1, "partner_name": "Sam", "last_message_content": "hey", "unread_count": 2},
				{"id": 2, "partner_name": "Riley", "unread_count": 0},
			},
		})
	}))

	chats, err := client.Chats().List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("len = %d, want 2", len(chats))
	}
	if chats[0].PartnerName != "Sam" || chats[0].UnreadCount != 2 {
		t.Errorf("unexpected chat: %+v", chats[0])
	}
}

func TestSendEmptyDraftIssuesNoRequest(t *testing.T) {
	hits := 0
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		writeJSON(w, http.StatusOK, map[string]any{})
	}))

	for _, draft := range []*amora.MessageDraft{
		nil,
		{},
		{Content: "   \n\t "},
	} {
		if _, err := client.Chats().Send(context.Background(), 1, draft); err != amora.ErrEmptyDraft {
			t.Errorf("Send(%+v) err = %v, want ErrEmptyDraft", draft, err)
		}
	}
	if hits != 0 {
		t.Errorf("server hit %d times for empty drafts", hits)
	}
}

func TestStickerOnlyDraftIsSendable(t *testing.T) {
	draft := &amora.MessageDraft{}
	draft.AttachSticker("🌹")

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		if got := r.FormValue("content"); got != "🌹" {
			t.Errorf("content = %q, want sticker token", got)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": map[string]any{"id": 9, "chat_id": 1, "user_id": 7, "content": "🌹", "created_at": "2026-02-01T10:00:00Z"},
		})
	}))

	msg, err := client.Chats().Send(context.Background(), 1, draft)
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if msg.ID != 9 {
		t.Errorf("id = %d, want 9", msg.ID)
	}
}

func TestSendMultipartWithFile(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chats/3/messages" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("not multipart: %v", err)
		}
		if got := r.FormValue("content"); got != "see attached" {
			t.Errorf("content = %q", got)
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("file part missing: %v", err)
		}
		defer f.Close()
		if header.Filename != "photo.jpg" {
			t.Errorf("filename = %q", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("file content-type = %q", ct)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": map[string]any{
				"id": 44, "chat_id": 3, "user_id": 7,
				"content": "see attached", "file_url": "/storage/photo.jpg",
				"file_type": "image/jpeg", "file_name": "photo.jpg",
				"created_at": "2026-02-01T10:00:00Z",
			},
		})
	}))

	draft := &amora.MessageDraft{
		Content: "see attached",
		File: &amora.DraftFile{
			Name:     "photo.jpg",
			MIMEType: "image/jpeg",
			Reader:   strings.NewReader("jpeg-bytes"),
		},
	}
	msg, err := client.Chats().Send(context.Background(), 3, draft)
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if msg.FileURL == "" || msg.FileName != "photo.jpg" {
		t.Errorf("unexpected message: %+v", msg)
	}
}

// ============================================================================
// Messages
// ============================================================================

func TestEditAndDelete(t *testing.T) {
	var gotMethod, gotPath string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		switch r.Method {
		case http.MethodPut:
			writeJSON(w, http.StatusOK, map[string]any{
				"message": map[string]any{"id": 5, "chat_id": 1, "user_id": 7, "content": "fixed", "created_at": "2026-02-01T10:00:00Z"},
			})
		default:
			writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
		}
	}))

	msg, err := client.Messages().Edit(context.Background(), 5, "fixed")
	if err != nil {
		t.Fatalf("Edit error: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/api/messages/5" {
		t.Errorf("edit request: %s %s", gotMethod, gotPath)
	}
	if msg.Content != "fixed" {
		t.Errorf("content = %q", msg.Content)
	}

	if err := client.Messages().Delete(context.Background(), 5); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/messages/5" {
		t.Errorf("delete request: %s %s", gotMethod, gotPath)
	}
}

func TestMarkRead(t *testing.T) {
	var gotPath string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}))

	if err := client.Messages().MarkRead(context.Background(), 12); err != nil {
		t.Fatalf("MarkRead error: %v", err)
	}
	if gotPath != "/api/messages/12/mark-as-read" {
		t.Errorf("path = %q", gotPath)
	}
}

// ============================================================================
// Partners
// ============================================================================

func TestPartnerSearchQuery(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("age_range") != "25-35" || q.Get("location") != "Berlin" || q.Get("interests") != "hiking,art" {
			t.Errorf("unexpected query: %v", q)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"profile": map[string]any{"id": 3, "name": "Alex", "age": 29, "location": "Berlin"},
		})
	}))

	profile, err := client.Partners().Search(context.Background(), &amora.SearchFilters{
		AgeRange:  "25-35",
		Location:  "Berlin",
		Interests: "hiking,art",
	})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if profile == nil || profile.Name != "Alex" {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestPartnerSearchNoMatch(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("empty filters should produce no query, got %q", r.URL.RawQuery)
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": nil})
	}))

	profile, err := client.Partners().Search(context.Background(), &amora.SearchFilters{})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if profile != nil {
		t.Errorf("profile = %+v, want nil", profile)
	}
}

// ============================================================================
// Profile
// ============================================================================

func TestUploadAvatarFieldName(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/profile/avatar" {
			t.Errorf("path = %q", r.URL.Path)
		}
		r.ParseMultipartForm(1 << 20)
		f, header, err := r.FormFile("avatar")
		if err != nil {
			t.Fatalf("avatar part missing: %v", err)
		}
		f.Close()
		if header.Filename != "me.png" {
			t.Errorf("filename = %q", header.Filename)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id": 7, "name": "Jess", "email": "j@x", "avatar_url": "/storage/me.png",
		})
	}))

	user, err := client.Profile().UploadAvatar(context.Background(), "me.png", "image/png", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("UploadAvatar error: %v", err)
	}
	if user.AvatarURL != "/storage/me.png" {
		t.Errorf("avatar_url = %q", user.AvatarURL)
	}
}

// ============================================================================
// Notifications
// ============================================================================

func TestNotifications(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{
				"unread_count": 1,
				"notifications": []map[string]any{
					{"id": "n-1", "message": "New match!", "created_at": "2026-02-01T10:00:00Z"},
				},
			},
		})
	}))

	inbox, err := client.Notifications().List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if inbox.UnreadCount != 1 || len(inbox.Notifications) != 1 {
		t.Errorf("unexpected inbox: %+v", inbox)
	}
}

func TestNotificationMarkRead(t *testing.T) {
	var gotMethod, gotPath string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}))

	if err := client.Notifications().MarkRead(context.Background(), "n-1"); err != nil {
		t.Fatalf("MarkRead error: %v", err)
	}
	if gotMethod != http.MethodPatch || gotPath != "/api/notifications/mark-as-read/n-1" {
		t.Errorf("request: %s %s", gotMethod, gotPath)
	}

	if err := client.Notifications().MarkAllRead(context.Background()); err != nil {
		t.Fatalf("MarkAllRead error: %v", err)
	}
	if gotPath != "/api/notifications/mark-all-as-read" {
		t.Errorf("path = %q", gotPath)
	}
}

// ============================================================================
// Session handshake
// ============================================================================

func TestEstablishSession(t *testing.T) {
	handshakes := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sanctum/csrf-cookie" {
			handshakes++
			http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "abc"})
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	}))
	defer srv.Close()

	client := amora.NewClient("", amora.WithBaseURL(srv.URL))
	if err := client.EstablishSession(context.Background()); err != nil {
		t.Fatalf("EstablishSession error: %v", err)
	}
	if handshakes != 1 {
		t.Errorf("handshakes = %d, want 1", handshakes)
	}
}

func TestAPIErrorMessage(t *testing.T) {
	err := &amora.APIError{Status: 404, Message: "Not Found"}
	want := fmt.Sprintf("api error (%d): %s", 404, "Not Found")
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
