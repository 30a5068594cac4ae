package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// HTTPChannelAPI drives a remote Afterlink server's channel surface over its
// REST API. It is what a non-browser client (CLI, integration test) uses.
type HTTPChannelAPI struct {
	baseURL string
	client  *http.Client
}

// NewHTTPChannelAPI creates a channel API client for the given base URL.
func NewHTTPChannelAPI(baseURL string) *HTTPChannelAPI {
	return &HTTPChannelAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Close releases idle transport connections.
func (a *HTTPChannelAPI) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

func (a *HTTPChannelAPI) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response body")
	}
	return nil
}

func (a *HTTPChannelAPI) CreateChannel(ctx context.Context) (string, error) {
	var resp struct {
		UID string `json:"uid"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/v1/channels", nil, &resp); err != nil {
		return "", err
	}
	return resp.UID, nil
}

func (a *HTTPChannelAPI) SendMessage(ctx context.Context, channelUID string, text string) (*Message, error) {
	var msg Message
	path := fmt.Sprintf("/api/v1/channels/%s/messages", channelUID)
	body := map[string]string{"text": text}
	if err := a.do(ctx, http.MethodPost, path, body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (a *HTTPChannelAPI) ListMessages(ctx context.Context, channelUID string) ([]*Message, error) {
	var resp struct {
		Messages []*Message `json:"messages"`
	}
	path := fmt.Sprintf("/api/v1/channels/%s/messages", channelUID)
	if err := a.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (a *HTTPChannelAPI) DeleteChannel(ctx context.Context, channelUID string) error {
	return a.do(ctx, http.MethodDelete, "/api/v1/channels/"+channelUID, nil, nil)
}
