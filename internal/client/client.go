package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"relay-back/internal/apperrors"
	"relay-back/internal/model"
)

const (
	defaultTimeout       = 10 * time.Second
	idempotencyKeyHeader = "Idempotency-Key"
)

// ErrUnexpectedStatus is returned for statuses that do not map to a relay
// error, such as 429 or 5xx.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client calls the relay HTTP API. baseURL includes the base path, for
// example http://localhost:8080/api.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(c *Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) Send(ctx context.Context, from, to, content string) (string, error) {
	return c.SendIdempotent(ctx, "", from, to, content)
}

// SendIdempotent sends with an Idempotency-Key header when key is not empty.
func (c *Client) SendIdempotent(ctx context.Context, key, from, to, content string) (string, error) {
	var header http.Header
	if key != "" {
		header = http.Header{idempotencyKeyHeader: []string{key}}
	}

	req := model.SendMessageRequest{From: from, To: to, Content: content}

	var resp model.SendMessageResponse
	if err := c.do(ctx, http.MethodPost, "/messages", nil, header, req, &resp); err != nil {
		return "", err
	}

	return resp.ID, nil
}

func (c *Client) Fetch(ctx context.Context, userID string) ([]model.Message, error) {
	var resp model.MessagesResponse
	if err := c.do(ctx, http.MethodGet, "/inbox", url.Values{"userId": {userID}}, nil, nil, &resp); err != nil {
		return nil, err
	}

	return resp.Messages, nil
}

func (c *Client) Get(ctx context.Context, id string) (model.Message, error) {
	var resp model.MessagesResponse
	if err := c.do(ctx, http.MethodGet, "/messages", url.Values{"messageId": {id}}, nil, nil, &resp); err != nil {
		return model.Message{}, err
	}

	if len(resp.Messages) == 0 {
		return model.Message{}, apperrors.ErrMessageDoesNotExist
	}

	return resp.Messages[0], nil
}

// List returns every stored message userID sent or receives, or all stored
// messages when userID is empty.
func (c *Client) List(ctx context.Context, userID string) ([]model.Message, error) {
	var query url.Values
	if userID != "" {
		query = url.Values{"userId": {userID}}
	}

	var resp model.MessagesResponse
	if err := c.do(ctx, http.MethodGet, "/messages", query, nil, nil, &resp); err != nil {
		return nil, err
	}

	return resp.Messages, nil
}

func (c *Client) Acknowledge(ctx context.Context, id string) (model.Message, error) {
	var message model.Message
	if err := c.do(ctx, http.MethodPatch, "/messages", nil, nil, model.AcknowledgeRequest{ID: id}, &message); err != nil {
		return model.Message{}, err
	}

	return message, nil
}

// Remove returns an error wrapping apperrors.ErrMessageDoesNotExist when the
// message was already removed.
func (c *Client) Remove(ctx context.Context, userID, id string) error {
	query := url.Values{"messageId": {id}}
	if userID != "" {
		query.Set("userId", userID)
	}

	return c.do(ctx, http.MethodDelete, "/messages", query, nil, nil, nil)
}

func (c *Client) ClearInbox(ctx context.Context, userID string, purge bool) ([]string, error) {
	query := url.Values{
		"userId": {userID},
		"purge":  {strconv.FormatBool(purge)},
	}

	var resp model.ClearInboxResponse
	if err := c.do(ctx, http.MethodDelete, "/inbox", query, nil, nil, &resp); err != nil {
		return nil, err
	}

	return resp.Dropped, nil
}

func (c *Client) Register(ctx context.Context, userID, password string) (model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodPost, "/users", nil, nil, model.CreateUserRequest{UserID: userID, Password: password}, &user); err != nil {
		return model.User{}, err
	}

	return user, nil
}

func (c *Client) Users(ctx context.Context) ([]string, error) {
	var resp model.UsersResponse
	if err := c.do(ctx, http.MethodGet, "/users", nil, nil, nil, &resp); err != nil {
		return nil, err
	}

	return resp.Users, nil
}

func (c *Client) Health(ctx context.Context) (model.Health, error) {
	var health model.Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, nil, &health); err != nil {
		return model.Health{}, err
	}

	return health, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, header http.Header, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}

		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	for k, v := range header {
		req.Header[k] = v
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("unmarshal response (status %d): %w", resp.StatusCode, err)
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp.StatusCode, env.Message)
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}

	return nil
}

func statusError(status int, message string) error {
	var sentinel error

	switch status {
	case http.StatusBadRequest:
		sentinel = apperrors.ErrInvalidInput
	case http.StatusForbidden:
		sentinel = apperrors.ErrPermissionDenied
	case http.StatusNotFound:
		sentinel = apperrors.ErrMessageDoesNotExist
	case http.StatusConflict:
		sentinel = apperrors.ErrUserAlreadyExists
	default:
		sentinel = ErrUnexpectedStatus
	}

	if message == "" {
		message = http.StatusText(status)
	}

	return fmt.Errorf("%w: %d %s", sentinel, status, message)
}
