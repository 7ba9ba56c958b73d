package distribution

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BlogPublisher/internal/domain"
	"BlogPublisher/internal/ports"
)

var defaultOpts = TeaserOptions{MaxLength: 280, ExcerptLimit: 200, Hashtags: "#AI #DataScience #Python"}

const link = "https://example.github.io/portfolio/blogs/blog-2025-11-08-10-30-15.md"

func articleWith(body string) domain.Article {
	return domain.Article{Topic: "Vector Databases", Body: body, CreatedAt: time.Now()}
}

func TestFirstParagraph(t *testing.T) {
	t.Parallel()

	body := "# Vector Databases\n\n## Intro\n\nVector databases store\nembeddings for *semantic* search.\n\nSecond paragraph."
	assert.Equal(t, "Vector databases store embeddings for semantic search.", FirstParagraph(body))

	assert.Equal(t, "", FirstParagraph(""))
	assert.Equal(t, "", FirstParagraph("# Only a heading"))
	assert.Equal(t, "After list.", FirstParagraph("- item one\n- item two\n\nAfter list."))
}

func TestBuildTeaserNeverExceedsLimit(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 50, 279, 280, 10000} {
		body := "# Title\n\n" + strings.Repeat("a", n)
		for _, l := range []string{"", link} {
			teaser := BuildTeaser(articleWith(body), l, defaultOpts)
			assert.LessOrEqual(t, utf8.RuneCountInString(teaser.Text), 280, "body %d link %q", n, l)
			if l != "" {
				assert.Contains(t, teaser.Text, l, "link must never be cut")
			}
		}
	}
}

func TestBuildTeaserMultibyte(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("データ", 200)
	teaser := BuildTeaser(articleWith(body), link, TeaserOptions{MaxLength: 280, Hashtags: "#AI"})
	assert.LessOrEqual(t, utf8.RuneCountInString(teaser.Text), 280)
	assert.True(t, utf8.ValidString(teaser.Text))
	assert.Contains(t, teaser.Text, "...")
	assert.Contains(t, teaser.Text, link)
}

func TestBuildTeaserLayout(t *testing.T) {
	t.Parallel()

	teaser := BuildTeaser(articleWith("# Title\n\nShort intro."), link, defaultOpts)
	assert.Equal(t, "Short intro.\n\n"+link+"\n#AI #DataScience #Python", teaser.Text)
	assert.Equal(t, link, teaser.Link)

	noLink := BuildTeaser(articleWith("# Title\n\nShort intro."), "", defaultOpts)
	assert.Equal(t, "Short intro.\n#AI #DataScience #Python", noLink.Text)
	assert.Empty(t, noLink.Link)
}

func TestBuildTeaserExcerptLimit(t *testing.T) {
	t.Parallel()

	teaser := BuildTeaser(articleWith(strings.Repeat("word ", 100)), "", TeaserOptions{MaxLength: 280, ExcerptLimit: 20})
	assert.Equal(t, "word word word wo...", teaser.Text)
}

func TestBuildTeaserOversizedLink(t *testing.T) {
	t.Parallel()

	longLink := "https://example.org/" + strings.Repeat("x", 270)
	teaser := BuildTeaser(articleWith("Body text."), longLink, defaultOpts)
	assert.LessOrEqual(t, utf8.RuneCountInString(teaser.Text), 280)
	assert.NotContains(t, teaser.Text, "#AI")
}

func TestBuildTeaserDropsExcerptWithoutRoom(t *testing.T) {
	t.Parallel()

	for _, room := range []int{1, 2, 3} {
		// tail is "\n\n" + link, so the excerpt gets room runes.
		longLink := "https://example.org/" + strings.Repeat("x", 280-2-room-len("https://example.org/"))
		teaser := BuildTeaser(articleWith("Body text."), longLink, TeaserOptions{MaxLength: 280})
		assert.Equal(t, longLink, teaser.Text, "room %d", room)
	}

	teaser := BuildTeaser(articleWith("Body text."), "", TeaserOptions{MaxLength: 280, ExcerptLimit: 3})
	assert.Empty(t, teaser.Text)
}

type fakeChannel struct {
	name   string
	err    error
	posted []domain.TeaserMessage
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Announce(_ context.Context, _ domain.Article, teaser domain.TeaserMessage) error {
	f.posted = append(f.posted, teaser)
	return f.err
}

func TestDistributorAnnounce(t *testing.T) {
	t.Parallel()

	x := &fakeChannel{name: "x"}
	telegram := &fakeChannel{name: "telegram"}
	d := NewDistributor([]ports.Announcer{x, telegram}, defaultOpts, nil)

	ok := d.Announce(context.Background(), articleWith("# T\n\nIntro."), link)
	assert.True(t, ok)
	require.Len(t, x.posted, 1)
	require.Len(t, telegram.posted, 1)
	assert.Equal(t, link, x.posted[0].Link)
}

func TestDistributorSwallowsFailures(t *testing.T) {
	t.Parallel()

	broken := &fakeChannel{name: "x", err: errors.New("403 forbidden")}
	healthy := &fakeChannel{name: "telegram"}
	d := NewDistributor([]ports.Announcer{broken, healthy}, defaultOpts, nil)

	ok := d.Announce(context.Background(), articleWith("Intro."), "")
	assert.False(t, ok)
	assert.Len(t, healthy.posted, 1, "a failing channel does not stop the others")
}

func TestDistributorWithoutChannels(t *testing.T) {
	t.Parallel()

	assert.False(t, NewDistributor(nil, defaultOpts, nil).Announce(context.Background(), articleWith("x"), link))
}

func TestRegistrySelect(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(&fakeChannel{name: "x"})
	reg.Register(&fakeChannel{name: "nats"})

	found, missing := reg.Select([]string{"nats", "telegram", "x"})
	require.Len(t, found, 2)
	assert.Equal(t, "nats", found[0].Name())
	assert.Equal(t, "x", found[1].Name())
	assert.Equal(t, []string{"telegram"}, missing)

	_, err := reg.Resolve("mastodon")
	assert.Error(t, err)
}
