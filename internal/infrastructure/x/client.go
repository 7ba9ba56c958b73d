package x

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dghubble/oauth1"

	"BlogPublisher/internal/config"
	"BlogPublisher/internal/domain"
	"BlogPublisher/internal/ports"
)

var (
	// ErrForbidden means the app lacks write permission.
	ErrForbidden = errors.New("x: forbidden, check app permissions (read+write)")
	// ErrNotFound means the credentials are invalid or revoked.
	ErrNotFound = errors.New("x: not found, regenerate access tokens")
)

const requestTimeout = 15 * time.Second

// Client posts teasers through the X API v2 create-tweet endpoint.
type Client struct {
	endpoint string
	bearer   string
	http     *http.Client
}

var _ ports.Announcer = (*Client)(nil)

// NewClient signs requests with OAuth1 user context when all four
// credentials are present, otherwise sends BearerToken as an OAuth2 user
// access token.
func NewClient(cfg config.XConfig) (*Client, error) {
	base := &http.Client{Timeout: requestTimeout}

	switch {
	case cfg.Configured():
		oauthCfg := oauth1.NewConfig(cfg.APIKey, cfg.APISecret)
		token := oauth1.NewToken(cfg.AccessToken, cfg.AccessTokenSecret)
		ctx := context.WithValue(context.Background(), oauth1.HTTPClient, base)
		signed := oauthCfg.Client(ctx, token)
		signed.Timeout = requestTimeout
		return &Client{endpoint: cfg.Endpoint, http: signed}, nil
	case cfg.BearerToken != "":
		return &Client{endpoint: cfg.Endpoint, bearer: cfg.BearerToken, http: base}, nil
	default:
		return nil, fmt.Errorf("x client misconfigured: no credentials")
	}
}

// Name identifies the channel inside the registry.
func (c *Client) Name() string {
	return "x"
}

type createResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Announce posts teaser.Text as a new post.
func (c *Client) Announce(ctx context.Context, _ domain.Article, teaser domain.TeaserMessage) error {
	_, err := c.Post(ctx, teaser.Text)
	return err
}

// Post creates a post and returns its id.
func (c *Client) Post(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("marshal post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%w: %s", ErrForbidden, readSnippet(resp.Body))
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnauthorized:
		return "", fmt.Errorf("%w: %s", ErrNotFound, readSnippet(resp.Body))
	case resp.StatusCode >= http.StatusBadRequest:
		return "", fmt.Errorf("x error %s: %s", resp.Status, readSnippet(resp.Body))
	}

	var decoded createResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if decoded.Data.ID == "" {
		return "", fmt.Errorf("x response carried no post id")
	}
	return decoded.Data.ID, nil
}

func readSnippet(r io.Reader) string {
	payload, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(payload))
}
