package http_test

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialog-app/dialog/internal/application/messaging"
	"github.com/dialog-app/dialog/internal/domain/message"
	"github.com/dialog-app/dialog/internal/domain/user"
	"github.com/dialog-app/dialog/internal/domain/uuid"
	handlerhttp "github.com/dialog-app/dialog/internal/handler/http"
	"github.com/dialog-app/dialog/internal/infrastructure/httpserver"
	"github.com/dialog-app/dialog/internal/middleware"
)

type stubService struct {
	sendResult   messaging.Result
	sendErr      error
	sendCmd      messaging.SendMessageCommand
	listResult   messaging.PagedResult
	listErr      error
	listQuery    messaging.ListMessagesQuery
	threadResult messaging.ThreadResult
	threadErr    error
	deleteErr    error
	deleteCmd    messaging.DeleteMessageCommand
}

func (s *stubService) Send(_ context.Context, cmd messaging.SendMessageCommand) (messaging.Result, error) {
	s.sendCmd = cmd
	return s.sendResult, s.sendErr
}

func (s *stubService) List(_ context.Context, query messaging.ListMessagesQuery) (messaging.PagedResult, error) {
	s.listQuery = query
	return s.listResult, s.listErr
}

func (s *stubService) Thread(_ context.Context, _ messaging.ThreadQuery) (messaging.ThreadResult, error) {
	return s.threadResult, s.threadErr
}

func (s *stubService) Delete(_ context.Context, cmd messaging.DeleteMessageCommand) error {
	s.deleteCmd = cmd
	return s.deleteErr
}

// fakeAuth injects a fixed username the way the auth middleware would.
func fakeAuth(username string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(string(middleware.ContextKeyUsername), username)
			return next(c)
		}
	}
}

func newHandlerEcho(t *testing.T, service handlerhttp.MessagingService, username string) *echo.Echo {
	t.Helper()

	e := echo.New()
	router := httpserver.NewRouter(e, httpserver.RouterConfig{
		AuthMiddleware: fakeAuth(username),
		APIPrefix:      "/api",
	})

	handler := handlerhttp.NewMessageHandler(service, nil, nil)
	handler.RegisterRoutes(router)

	return e
}

func mustMessage(t *testing.T, id int64, from, to user.User, content string) *message.Message {
	t.Helper()
	m, err := message.NewMessage(id, from, to, content)
	require.NoError(t, err)
	return m
}

func testUser(t *testing.T, username string) user.User {
	t.Helper()
	u, err := user.New(uuid.NewUUID(), username)
	require.NoError(t, err)
	return u
}

func TestSendMessage(t *testing.T) {
	alice := testUser(t, "alice")
	bob := testUser(t, "bob")

	service := &stubService{
		sendResult: messaging.Result{Value: mustMessage(t, 42, alice, bob, "hello")},
	}
	e := newHandlerEcho(t, service, "alice")

	body := `{"recipient_username":"bob","content":"hello"}`
	req := httptest.NewRequest(nethttp.MethodPost, "/api/messages", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, nethttp.StatusCreated, rec.Code)
	assert.Equal(t, "alice", service.sendCmd.SenderUsername)
	assert.Equal(t, "bob", service.sendCmd.RecipientUsername)
	assert.Contains(t, rec.Body.String(), `"id":42`)
	assert.Contains(t, rec.Body.String(), `"sender_username":"alice"`)
}

func TestSendMessage_ServiceError(t *testing.T) {
	service := &stubService{sendErr: messaging.ErrSelfMessage}
	e := newHandlerEcho(t, service, "alice")

	body := `{"recipient_username":"Alice","content":"hi me"}`
	req := httptest.NewRequest(nethttp.MethodPost, "/api/messages", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "SELF_MESSAGE")
}

func TestListMessages(t *testing.T) {
	alice := testUser(t, "alice")
	bob := testUser(t, "bob")

	service := &stubService{
		listResult: messaging.PagedResult{
			Items: []*message.Message{
				mustMessage(t, 2, bob, alice, "second"),
				mustMessage(t, 1, alice, bob, "first"),
			},
			CurrentPage: 2,
			PageSize:    10,
			TotalCount:  25,
			TotalPages:  3,
		},
	}
	e := newHandlerEcho(t, service, "alice")

	req := httptest.NewRequest(nethttp.MethodGet, "/api/messages?scope=inbox&page=2&page_size=10", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, "alice", service.listQuery.Username)
	assert.Equal(t, messaging.ScopeInbox, service.listQuery.Scope)
	assert.Equal(t, 2, service.listQuery.Page)

	header := rec.Header().Get("Pagination")
	require.NotEmpty(t, header)

	var paging struct {
		CurrentPage  int `json:"currentPage"`
		ItemsPerPage int `json:"itemsPerPage"`
		TotalItems   int `json:"totalItems"`
		TotalPages   int `json:"totalPages"`
	}
	require.NoError(t, json.Unmarshal([]byte(header), &paging))
	assert.Equal(t, 2, paging.CurrentPage)
	assert.Equal(t, 25, paging.TotalItems)
	assert.Equal(t, 3, paging.TotalPages)
}

func TestListMessages_InvalidScope(t *testing.T) {
	service := &stubService{listErr: messaging.ErrInvalidScope}
	e := newHandlerEcho(t, service, "alice")

	req := httptest.NewRequest(nethttp.MethodGet, "/api/messages?scope=unread", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_SCOPE")
}

func TestGetThread(t *testing.T) {
	alice := testUser(t, "alice")
	bob := testUser(t, "bob")

	service := &stubService{
		threadResult: messaging.ThreadResult{
			Items: []*message.Message{
				mustMessage(t, 1, alice, bob, "hi bob"),
				mustMessage(t, 2, bob, alice, "hi alice"),
			},
		},
	}
	e := newHandlerEcho(t, service, "alice")

	req := httptest.NewRequest(nethttp.MethodGet, "/api/messages/thread/bob", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hi bob")
	assert.Contains(t, rec.Body.String(), "hi alice")
}

func TestDeleteMessage(t *testing.T) {
	service := &stubService{}
	e := newHandlerEcho(t, service, "alice")

	req := httptest.NewRequest(nethttp.MethodDelete, "/api/messages/42", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, nethttp.StatusNoContent, rec.Code)
	assert.Equal(t, "alice", service.deleteCmd.Username)
	assert.Equal(t, int64(42), service.deleteCmd.MessageID)
}

func TestDeleteMessage_NonNumericID(t *testing.T) {
	service := &stubService{}
	e := newHandlerEcho(t, service, "alice")

	req := httptest.NewRequest(nethttp.MethodDelete, "/api/messages/abc", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, nethttp.StatusBadRequest, rec.Code)
}

func TestDeleteMessage_NotParticipant(t *testing.T) {
	service := &stubService{deleteErr: messaging.ErrNotParticipant}
	e := newHandlerEcho(t, service, "carol")

	req := httptest.NewRequest(nethttp.MethodDelete, "/api/messages/42", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, nethttp.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "MESSAGE_ACCESS_DENIED")
}

func TestSendMessage_ResponseTimestamps(t *testing.T) {
	alice := testUser(t, "alice")
	bob := testUser(t, "bob")

	service := &stubService{
		sendResult: messaging.Result{Value: mustMessage(t, 7, alice, bob, "when")},
	}
	e := newHandlerEcho(t, service, "alice")

	body := `{"recipient_username":"bob","content":"when"}`
	req := httptest.NewRequest(nethttp.MethodPost, "/api/messages", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, nethttp.StatusCreated, rec.Code)

	var envelope struct {
		Data struct {
			SentAt time.Time `json:"sent_at"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.WithinDuration(t, time.Now().UTC(), envelope.Data.SentAt, time.Minute)
}
