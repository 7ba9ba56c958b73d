package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"BlogPublisher/internal/domain"
	"BlogPublisher/internal/ports"
)

const defaultAPIBase = "https://api.telegram.org"

// Notifier sends teasers to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

var _ ports.Announcer = (*Notifier)(nil)

// Option tunes a Notifier.
type Option func(*Notifier)

// WithAPIBase points the notifier at another bot API host.
func WithAPIBase(base string) Option {
	return func(n *Notifier) {
		n.apiBase = strings.TrimSuffix(base, "/")
	}
}

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string, opts ...Option) *Notifier {
	n := &Notifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Name identifies the channel inside the registry.
func (n *Notifier) Name() string {
	return "telegram"
}

// Announce posts the teaser as a plain text message. Link previews stay on
// so the chat shows the article card.
func (n *Notifier) Announce(ctx context.Context, _ domain.Article, teaser domain.TeaserMessage) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", teaser.Text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}
