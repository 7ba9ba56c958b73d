package distribution

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"BlogPublisher/internal/content"
	"BlogPublisher/internal/domain"
)

const ellipsis = "..."

// TeaserOptions bounds the announcement text. Lengths count runes.
type TeaserOptions struct {
	MaxLength    int
	ExcerptLimit int
	Hashtags     string
}

// FirstParagraph returns the plain text of the first non-empty paragraph of
// a markdown body. Headings, lists and code blocks are skipped.
func FirstParagraph(body string) string {
	html, err := content.RenderHTML(body)
	if err != nil {
		return fallbackParagraph(body)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fallbackParagraph(body)
	}

	var paragraph string
	doc.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := collapseSpace(p.Text())
		if text == "" {
			return true
		}
		paragraph = text
		return false
	})
	return paragraph
}

func fallbackParagraph(body string) string {
	for _, block := range strings.Split(body, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" || strings.HasPrefix(block, "#") {
			continue
		}
		return collapseSpace(block)
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// BuildTeaser composes excerpt, link and hashtags within opts.MaxLength.
// The excerpt is shortened first and the link is never cut; hashtags are
// dropped before the link would have to be.
func BuildTeaser(article domain.Article, link string, opts TeaserOptions) domain.TeaserMessage {
	excerpt := FirstParagraph(article.Body)
	if opts.ExcerptLimit > 0 {
		excerpt = truncate(excerpt, opts.ExcerptLimit)
	}

	tail := ""
	if link != "" {
		tail += "\n\n" + link
	}
	hashtags := strings.TrimSpace(opts.Hashtags)
	if hashtags != "" {
		tail += "\n" + hashtags
	}

	limit := opts.MaxLength
	if limit <= 0 {
		return domain.TeaserMessage{Text: strings.TrimSpace(excerpt + tail), Link: link}
	}

	if runes(tail) >= limit && hashtags != "" {
		tail = strings.TrimSuffix(tail, "\n"+hashtags)
	}

	room := limit - runes(tail)
	if room <= 0 {
		return domain.TeaserMessage{Text: cut(strings.TrimSpace(tail), limit), Link: link}
	}

	text := strings.TrimSpace(truncate(excerpt, room) + tail)
	return domain.TeaserMessage{Text: cut(text, limit), Link: link}
}

// truncate shortens s to at most limit runes, ending with an ellipsis when
// cut. Without room for more than the ellipsis, s is dropped entirely.
func truncate(s string, limit int) string {
	if runes(s) <= limit {
		return s
	}
	if limit <= len(ellipsis) {
		return ""
	}
	return strings.TrimRight(cut(s, limit-len(ellipsis)), " ") + ellipsis
}

func cut(s string, limit int) string {
	if runes(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit])
}

func runes(s string) int {
	return utf8.RuneCountInString(s)
}
