// Package http contains the HTTP handlers for the dialog API.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dialog-app/dialog/internal/application/messaging"
	"github.com/dialog-app/dialog/internal/domain/message"
	"github.com/dialog-app/dialog/internal/infrastructure/httpserver"
	"github.com/dialog-app/dialog/internal/infrastructure/metrics"
	"github.com/dialog-app/dialog/internal/middleware"
)

// MessagingService defines the messaging operations the handler consumes.
type MessagingService interface {
	Send(ctx context.Context, cmd messaging.SendMessageCommand) (messaging.Result, error)
	List(ctx context.Context, query messaging.ListMessagesQuery) (messaging.PagedResult, error)
	Thread(ctx context.Context, query messaging.ThreadQuery) (messaging.ThreadResult, error)
	Delete(ctx context.Context, cmd messaging.DeleteMessageCommand) error
}

// MessageHandler handles message endpoints.
type MessageHandler struct {
	service MessagingService
	metrics *metrics.MessagingMetrics
	logger  *slog.Logger
}

// NewMessageHandler creates a message handler. Metrics may be nil.
func NewMessageHandler(
	service MessagingService,
	m *metrics.MessagingMetrics,
	logger *slog.Logger,
) *MessageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageHandler{
		service: service,
		metrics: m,
		logger:  logger,
	}
}

// RegisterRoutes registers message routes on the authenticated group.
func (h *MessageHandler) RegisterRoutes(r *httpserver.Router) {
	g := r.Auth().Group("/messages")
	g.POST("", h.SendMessage)
	g.GET("", h.ListMessages)
	g.GET("/thread/:username", h.GetThread)
	g.DELETE("/:id", h.DeleteMessage)
}

// SendMessageRequest is the request body for sending a message.
type SendMessageRequest struct {
	RecipientUsername string `json:"recipient_username"`
	Content           string `json:"content"`
}

// MessageResponse is the API representation of a message.
type MessageResponse struct {
	ID                int64     `json:"id"`
	SenderUsername    string    `json:"sender_username"`
	RecipientUsername string    `json:"recipient_username"`
	Content           string    `json:"content"`
	SentAt            time.Time `json:"sent_at"`
}

// paginationHeader carries paging metadata in the Pagination response header.
// Field names are camelCase for compatibility with existing clients.
type paginationHeader struct {
	CurrentPage  int `json:"currentPage"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalItems   int `json:"totalItems"`
	TotalPages   int `json:"totalPages"`
}

// SendMessage handles POST /messages.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	start := time.Now()

	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return httpserver.RespondErrorWithCode(c, 400, "INVALID_REQUEST", "Invalid request body")
	}

	result, err := h.service.Send(c.Request().Context(), messaging.SendMessageCommand{
		SenderUsername:    middleware.GetUsername(c),
		RecipientUsername: req.RecipientUsername,
		Content:           req.Content,
	})
	h.observe("send", start, err)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	if h.metrics != nil {
		h.metrics.MessagesSent.Inc()
		h.metrics.MessageSizeBytes.Observe(float64(len(result.Value.Content())))
	}

	return httpserver.RespondCreated(c, toMessageResponse(result.Value))
}

// ListMessages handles GET /messages.
// Query parameters: scope (all/inbox/outbox), page, page_size.
func (h *MessageHandler) ListMessages(c echo.Context) error {
	start := time.Now()

	query := messaging.ListMessagesQuery{
		Username: middleware.GetUsername(c),
		Scope:    messaging.Scope(c.QueryParam("scope")),
		Page:     intQueryParam(c, "page"),
		PageSize: intQueryParam(c, "page_size"),
	}

	result, err := h.service.List(c.Request().Context(), query)
	h.observe("list", start, err)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	if h.metrics != nil {
		scope := query.Scope
		if scope == "" {
			scope = messaging.ScopeAll
		}
		h.metrics.MessagesListed.WithLabelValues(string(scope)).Inc()
	}

	setPaginationHeader(c, result)

	return httpserver.RespondOK(c, toMessageResponses(result.Items))
}

// GetThread handles GET /messages/thread/:username.
func (h *MessageHandler) GetThread(c echo.Context) error {
	start := time.Now()

	result, err := h.service.Thread(c.Request().Context(), messaging.ThreadQuery{
		Username:      middleware.GetUsername(c),
		OtherUsername: c.Param("username"),
	})
	h.observe("thread", start, err)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, toMessageResponses(result.Items))
}

// DeleteMessage handles DELETE /messages/:id.
func (h *MessageHandler) DeleteMessage(c echo.Context) error {
	start := time.Now()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return httpserver.RespondErrorWithCode(c, 400, "INVALID_REQUEST", "Message id must be an integer")
	}

	err = h.service.Delete(c.Request().Context(), messaging.DeleteMessageCommand{
		Username:  middleware.GetUsername(c),
		MessageID: id,
	})
	h.observe("delete", start, err)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	if h.metrics != nil {
		h.metrics.MessagesDeleted.WithLabelValues(metrics.OutcomeSoftDeleted).Inc()
	}

	return httpserver.RespondNoContent(c)
}

// observe records the operation duration when metrics are enabled.
func (h *MessageHandler) observe(operation string, start time.Time, err error) {
	if h.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	h.metrics.RequestDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

// setPaginationHeader writes paging metadata into the Pagination header.
func setPaginationHeader(c echo.Context, result messaging.PagedResult) {
	payload, err := json.Marshal(paginationHeader{
		CurrentPage:  result.CurrentPage,
		ItemsPerPage: result.PageSize,
		TotalItems:   result.TotalCount,
		TotalPages:   result.TotalPages,
	})
	if err != nil {
		return
	}
	c.Response().Header().Set(middleware.PaginationHeader, string(payload))
}

func intQueryParam(c echo.Context, name string) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return v
}

func toMessageResponse(m *message.Message) MessageResponse {
	return MessageResponse{
		ID:                m.ID(),
		SenderUsername:    m.SenderUsername(),
		RecipientUsername: m.RecipientUsername(),
		Content:           m.Content(),
		SentAt:            m.SentAt(),
	}
}

func toMessageResponses(items []*message.Message) []MessageResponse {
	responses := make([]MessageResponse, 0, len(items))
	for _, m := range items {
		responses = append(responses, toMessageResponse(m))
	}
	return responses
}
