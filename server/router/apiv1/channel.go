package apiv1

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/afterlinkhq/afterlink/chat"
	"github.com/afterlinkhq/afterlink/store"
)

type createChannelResponse struct {
	UID string `json:"uid"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type listMessagesResponse struct {
	Messages []*chat.Message `json:"messages"`
}

// CreateChannel opens a fresh conversation channel.
//
//	POST /api/v1/channels
func (s *APIV1Service) CreateChannel(c echo.Context) error {
	channel, err := s.Store.CreateChannel(c.Request().Context(), &store.Channel{
		UID: shortuuid.New(),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create channel").SetInternal(err)
	}
	return c.JSON(http.StatusOK, &createChannelResponse{UID: channel.UID})
}

// DeleteChannel discards a channel and its messages.
//
//	DELETE /api/v1/channels/:uid
func (s *APIV1Service) DeleteChannel(c echo.Context) error {
	ctx := c.Request().Context()
	channel, err := s.findChannel(c)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteChannel(ctx, &store.DeleteChannel{ID: channel.ID}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete channel").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SendChannelMessage appends a user message and hands it to the command
// dispatcher. The response to the command appears later in the message list;
// the client polls for it.
//
//	POST /api/v1/channels/:uid/messages
func (s *APIV1Service) SendChannelMessage(c echo.Context) error {
	ctx := c.Request().Context()
	channel, err := s.findChannel(c)
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	message, err := s.Store.CreateChannelMessage(ctx, &store.ChannelMessage{
		UID:       uuid.NewString(),
		ChannelID: channel.ID,
		Role:      store.ChannelMessageRoleUser,
		Content:   req.Text,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create message").SetInternal(err)
	}

	now := time.Now().Unix()
	if _, err := s.Store.UpdateChannel(ctx, &store.UpdateChannel{ID: channel.ID, UpdatedTs: &now}); err != nil {
		// Only delays sweeping; the message itself is already stored.
		c.Logger().Warnf("failed to touch channel %s: %v", channel.UID, err)
	}

	s.Dispatcher.DispatchAsync(channel.ID, req.Text)

	return c.JSON(http.StatusOK, toWireMessage(message))
}

// ListChannelMessages returns the channel's messages in append order.
//
//	GET /api/v1/channels/:uid/messages
func (s *APIV1Service) ListChannelMessages(c echo.Context) error {
	ctx := c.Request().Context()
	channel, err := s.findChannel(c)
	if err != nil {
		return err
	}

	messages, err := s.Store.ListChannelMessages(ctx, &store.FindChannelMessage{ChannelID: &channel.ID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list messages").SetInternal(err)
	}

	resp := &listMessagesResponse{Messages: make([]*chat.Message, 0, len(messages))}
	for _, message := range messages {
		resp.Messages = append(resp.Messages, toWireMessage(message))
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *APIV1Service) findChannel(c echo.Context) (*store.Channel, error) {
	uid := c.Param("uid")
	channel, err := s.Store.GetChannel(c.Request().Context(), &store.FindChannel{UID: &uid})
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to find channel").SetInternal(err)
	}
	if channel == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "channel not found")
	}
	return channel, nil
}

func toWireMessage(message *store.ChannelMessage) *chat.Message {
	return &chat.Message{
		ID:   message.UID,
		Role: string(message.Role),
		Text: message.Content,
	}
}
