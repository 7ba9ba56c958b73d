package content

import (
	"errors"
	"strings"
	"time"

	"BlogPublisher/internal/domain"
)

// ErrEmptyContent is returned when the provider produced no usable text.
var ErrEmptyContent = errors.New("provider returned empty content")

// Parse turns raw provider output into an Article. The body is kept byte for
// byte unless the whole answer is wrapped in a ```markdown fence, which is removed.
func Parse(topic domain.Topic, raw string, createdAt time.Time) (domain.Article, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.Article{}, ErrEmptyContent
	}
	body := raw
	if inner, ok := stripFence(strings.TrimSpace(raw)); ok {
		body = inner
	}
	if strings.TrimSpace(body) == "" {
		return domain.Article{}, ErrEmptyContent
	}

	return domain.Article{
		Topic:     topic,
		Body:      body,
		CreatedAt: createdAt,
	}, nil
}

func stripFence(text string) (string, bool) {
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return "", false
	}

	firstLine := strings.IndexByte(text, '\n')
	if firstLine < 0 {
		return "", false
	}
	lang := strings.TrimSpace(text[3:firstLine])
	if lang != "" && lang != "markdown" && lang != "md" {
		return "", false
	}

	inner := text[firstLine+1 : len(text)-3]
	return inner, true
}
