package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/chat"
)

// ErrUnauthorized is returned when any endpoint answers 401. The caller is
// expected to drop back to sign-in.
var ErrUnauthorized = errors.New("unauthorized")

// Client wraps the server's REST surface. The session is cookie-based; the
// jar is shared with the WebSocket dialer via HTTPClient.
type Client struct {
	base *url.URL
	http *stdhttp.Client
	log  *zerolog.Logger
}

// New builds a REST client for the given http(s) base URL.
func New(serverURL string, logger *zerolog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &Client{
		base: base,
		http: &stdhttp.Client{
			Jar:     jar,
			Timeout: 15 * time.Second,
		},
		log: logger,
	}, nil
}

// HTTPClient exposes the session-carrying http client so the WebSocket
// dialer presents the same cookies.
func (c *Client) HTTPClient() *stdhttp.Client {
	return c.http
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type channelResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Private bool   `json:"is_private"`
}

// Login establishes a session. The server sets the session cookie.
func (c *Client) Login(ctx context.Context, email, password string) error {
	return c.do(ctx, stdhttp.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, nil)
}

// Me returns the identity behind the current session.
func (c *Client) Me(ctx context.Context) (*chat.User, error) {
	var resp userResponse
	if err := c.do(ctx, stdhttp.MethodGet, "/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return &chat.User{ID: resp.ID, Name: resp.Name, Email: resp.Email}, nil
}

// Logout tears the session down.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, stdhttp.MethodPost, "/auth/logout", nil, nil)
}

// Channels lists the channels visible to the user.
func (c *Client) Channels(ctx context.Context) ([]chat.Channel, error) {
	var resp []channelResponse
	if err := c.do(ctx, stdhttp.MethodGet, "/channels", nil, &resp); err != nil {
		return nil, err
	}
	return channelsFromResponse(resp), nil
}

// Users returns the user directory.
func (c *Client) Users(ctx context.Context) ([]chat.User, error) {
	return c.userList(ctx, "/users/")
}

// DMRecipients returns users eligible for a new direct message.
func (c *Client) DMRecipients(ctx context.Context) ([]chat.User, error) {
	return c.userList(ctx, "/dms/recipients")
}

// OpenDM creates or fetches the direct-message channel with a user.
func (c *Client) OpenDM(ctx context.Context, userID string) (*chat.Channel, error) {
	var resp channelResponse
	if err := c.do(ctx, stdhttp.MethodPost, "/dms/"+url.PathEscape(userID), nil, &resp); err != nil {
		return nil, err
	}
	ch := channelFromResponse(resp)
	return &ch, nil
}

func (c *Client) userList(ctx context.Context, path string) ([]chat.User, error) {
	var resp []userResponse
	if err := c.do(ctx, stdhttp.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	users := make([]chat.User, 0, len(resp))
	for _, u := range resp {
		users = append(users, chat.User{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	return users, nil
}

// do runs one round-trip: optional JSON body out, optional JSON body in.
// 401 maps to ErrUnauthorized regardless of endpoint.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := stdhttp.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == stdhttp.StatusUnauthorized:
		c.log.Debug().Str("path", path).Msg("session rejected")
		return ErrUnauthorized
	case resp.StatusCode >= 400:
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func channelFromResponse(r channelResponse) chat.Channel {
	return chat.Channel{ID: r.ID, Name: r.Name, Private: r.Private}
}

func channelsFromResponse(resp []channelResponse) []chat.Channel {
	channels := make([]chat.Channel, 0, len(resp))
	for _, r := range resp {
		channels = append(channels, channelFromResponse(r))
	}
	return channels
}
