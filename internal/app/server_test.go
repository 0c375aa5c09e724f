package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sendit/messenger/api/response"
	"sendit/messenger/internal/config"
	"sendit/messenger/internal/model"
	"sendit/messenger/internal/service"
	"sendit/messenger/internal/testutil"
)

type capturingGateway struct {
	mu    sync.Mutex
	codes map[string]string
}

func (g *capturingGateway) SendCode(_ context.Context, email, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.codes == nil {
		g.codes = make(map[string]string)
	}
	g.codes[email] = code
	return nil
}

func (g *capturingGateway) code(email string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.codes[email]
}

type testServer struct {
	handler http.Handler
	gateway *capturingGateway
}

func newTestServer(t *testing.T, authRequired bool) *testServer {
	t.Helper()

	cfg := &config.Config{
		JWTKey:           "test-key",
		TokenTTL:         time.Hour,
		OTPNotifyTimeout: time.Second,
		OTPMaxAttempts:   5,
		AuthRequired:     authRequired,
	}
	_, rdb := testutil.NewRedis(t)
	gateway := &capturingGateway{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a := Build(cfg, logger, testutil.NewDB(t), rdb, gateway)
	return &testServer{handler: a.Handler(), gateway: gateway}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func (s *testServer) signup(t *testing.T, username, phone string) service.AuthResult {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/api/user/signup", "", map[string]string{
		"username": username,
		"phone":    phone,
		"email":    username + "@example.com",
		"password": "Secret#123",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return decode[service.AuthResult](t, rr)
}

func TestCORSPreflightRequest(t *testing.T) {
	s := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/user/signup", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORSWithActualRequest(t *testing.T) {
	s := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://example.com")

	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, false)
	s.signup(t, "alice", "9876543210")

	rr := s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "sendit_signups_total")
}

func TestSignupErrors(t *testing.T) {
	s := newTestServer(t, false)
	s.signup(t, "alice", "9876543210")

	rr := s.do(t, http.MethodPost, "/api/user/signup", "", map[string]string{
		"username": "alice2",
		"phone":    "9876543211",
		"email":    "alice@example.com",
		"password": "Secret#123",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	body := decode[response.ErrorResponse](t, rr)
	assert.Equal(t, "DUPLICATE_IDENTITY", body.Code)
	assert.Equal(t, "email", body.Details["field"])

	req := httptest.NewRequest(http.MethodPost, "/api/user/signup", bytes.NewBufferString("{not json"))
	bad := httptest.NewRecorder()
	s.handler.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestConversationFlowOverHTTP(t *testing.T) {
	s := newTestServer(t, false)
	alice := s.signup(t, "alice", "9876543210")
	bob := s.signup(t, "bob", "9876543211")

	rr := s.do(t, http.MethodPost, "/api/chats/"+alice.Account.ID+"/newConv", "", map[string]any{
		"message":      "hi",
		"participants": []string{bob.Account.Phone},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[service.CreatedConversation](t, rr)
	assert.Len(t, created.Participants, 2)

	rr = s.do(t, http.MethodPost, "/api/chats/"+bob.Account.ID+"/"+created.ConversationID+"/sendMsg", "", map[string]string{
		"message": "hello",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	type conversationBody struct {
		Conversation model.ConversationView `json:"conversation"`
	}
	sent := decode[conversationBody](t, rr)
	require.Len(t, sent.Conversation.Thread.Messages, 2)
	assert.Equal(t, "hi", sent.Conversation.Thread.Messages[0].Text)
	assert.Equal(t, "hello", sent.Conversation.Thread.Messages[1].Text)

	msg1 := sent.Conversation.Thread.Messages[0].ID
	for _, value := range []string{"👍", "❤"} {
		rr = s.do(t, http.MethodPost, "/api/chats/"+alice.Account.ID+"/"+created.ConversationID+"/addReaction", "", map[string]string{
			"messageId": msg1,
			"senderId":  alice.Account.ID,
			"reaction":  value,
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	rr = s.do(t, http.MethodGet, "/api/chats/"+alice.Account.ID+"/"+created.ConversationID, "", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	got := decode[conversationBody](t, rr)
	assert.Equal(t, []model.ReactionView{{SenderID: alice.Account.ID, Reaction: "❤"}}, got.Conversation.Thread.Messages[0].Reactions)

	rr = s.do(t, http.MethodGet, "/api/user/"+bob.Account.ID+"/chats", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	chats := decode[struct {
		Chats []model.ChatSummary `json:"chats"`
	}](t, rr)
	require.Len(t, chats.Chats, 1)
	assert.Equal(t, created.ConversationID, chats.Chats[0].ID)

	rr = s.do(t, http.MethodGet, "/api/chats/"+alice.Account.ID+"/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestContactsOverHTTP(t *testing.T) {
	s := newTestServer(t, false)
	alice := s.signup(t, "alice", "9876543210")
	bob := s.signup(t, "bob", "9876543211")

	path := "/api/user/" + alice.Account.ID + "/add-new-contact"

	rr := s.do(t, http.MethodPost, path, "", map[string]string{"name": "Bobby", "phone": bob.Account.Phone})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = s.do(t, http.MethodPost, path, "", map[string]string{"name": "Bobby", "phone": bob.Account.Phone})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodPost, path, "", map[string]string{"name": "Myself", "phone": alice.Account.Phone})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = s.do(t, http.MethodPost, path, "", map[string]string{"name": "Ghost", "phone": "1234567890"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = s.do(t, http.MethodGet, "/api/user/"+alice.Account.ID+"/get-contacts", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	contacts := decode[struct {
		Contacts []model.ContactView `json:"contacts"`
	}](t, rr)
	require.Len(t, contacts.Contacts, 1)
	assert.Equal(t, "Bobby", contacts.Contacts[0].Name)

	rr = s.do(t, http.MethodGet, "/api/user/missing/get-contacts", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTwoFactorLoginOverHTTP(t *testing.T) {
	s := newTestServer(t, false)
	alice := s.signup(t, "alice", "9876543210")

	rr := s.do(t, http.MethodPut, "/api/user/"+alice.Account.ID+"/two-factor", "", map[string]bool{"enabled": true})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	credentials := map[string]string{"email": alice.Account.Email, "password": "Secret#123"}
	rr = s.do(t, http.MethodPost, "/api/user/login", "", credentials)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	pending := decode[struct {
		Pending bool   `json:"pending"`
		Email   string `json:"email"`
	}](t, rr)
	assert.True(t, pending.Pending)
	assert.Equal(t, alice.Account.Email, pending.Email)

	rr = s.do(t, http.MethodPost, "/api/user/login/verify-otp", "", map[string]string{"email": alice.Account.Email})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/user/login/verify-otp", "", map[string]string{"email": alice.Account.Email, "otp": "abcdef"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	code := s.gateway.code(alice.Account.Email)
	rr = s.do(t, http.MethodPost, "/api/user/login/verify-otp", "", map[string]string{"email": alice.Account.Email, "otp": code})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	auth := decode[service.AuthResult](t, rr)
	assert.NotEmpty(t, auth.Token)
	assert.Equal(t, alice.Account.ID, auth.Account.ID)

	rr = s.do(t, http.MethodPost, "/api/user/login/verify-otp", "", map[string]string{"email": alice.Account.Email, "otp": code})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "CHALLENGE_NOT_FOUND", decode[response.ErrorResponse](t, rr).Code)
}

func TestLoginErrorsOverHTTP(t *testing.T) {
	s := newTestServer(t, false)
	alice := s.signup(t, "alice", "9876543210")

	rr := s.do(t, http.MethodPost, "/api/user/login", "", map[string]string{"email": alice.Account.Email, "password": "Secret#123"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, decode[service.AuthResult](t, rr).Token)

	rr = s.do(t, http.MethodPost, "/api/user/login", "", map[string]string{"email": alice.Account.Email, "password": "Wrong#123"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/user/login", "", map[string]string{"email": "nobody@example.com", "password": "Secret#123"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	body := decode[response.ErrorResponse](t, rr)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.Equal(t, "Email does not exist", body.Message)

	rr = s.do(t, http.MethodPost, "/api/user/login/verify-otp", "", map[string]string{"email": alice.Account.Email, "otp": "123456"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "CHALLENGE_NOT_FOUND", decode[response.ErrorResponse](t, rr).Code)

	rr = s.do(t, http.MethodPost, "/api/user/login/verify-otp", "", map[string]string{"email": "nobody@example.com", "otp": "123456"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Email does not exist", decode[response.ErrorResponse](t, rr).Message)
}

func TestOwnerRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, true)
	alice := s.signup(t, "alice", "9876543210")
	bob := s.signup(t, "bob", "9876543211")

	path := "/api/user/" + alice.Account.ID + "/get-contacts"

	rr := s.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = s.do(t, http.MethodGet, path, "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = s.do(t, http.MethodGet, path, bob.Token, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = s.do(t, http.MethodGet, path, alice.Token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/chats/"+alice.Account.ID+"/newConv", "", map[string]any{
		"message":      "hi",
		"participants": []string{bob.Account.Phone},
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
