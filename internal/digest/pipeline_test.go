package digest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSummarizer returns "summary 1", "summary 2", ... in call order.
type stubSummarizer struct {
	err    error
	calls  int
	inputs []string
}

func (s *stubSummarizer) Summarize(ctx context.Context, articleText string) (string, error) {
	s.inputs = append(s.inputs, articleText)
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("summary %d", s.calls), nil
}

// captureSender records the result instead of sending mail.
type captureSender struct {
	err    error
	result *RunResult
	body   string
}

func (c *captureSender) SendDigest(ctx context.Context, result *RunResult) error {
	if c.err != nil {
		return c.err
	}
	c.result = result
	c.body = BuildDigest(result)
	return nil
}

type captureArchiver struct {
	err    error
	called bool
	got    []ArticleSummary
}

func (c *captureArchiver) ArchiveSummaries(ctx context.Context, summaries []ArticleSummary) error {
	c.called = true
	c.got = summaries
	return c.err
}

func rssItem(title, link, pubDate string, categories ...string) string {
	var cats strings.Builder
	for _, c := range categories {
		cats.WriteString("<category>" + c + "</category>")
	}
	return fmt.Sprintf("<item><title>%s</title><link>%s</link><pubDate>%s</pubDate>%s</item>",
		title, link, pubDate, cats.String())
}

func rssFeed(items ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>` +
		`<rss version="2.0"><channel>` +
		`<title>Pipeline Feed</title><link>https://example.com</link><description>test</description>` +
		strings.Join(items, "") +
		`</channel></rss>`
}

// newArticleServer serves two article pages and a broken link.
func newArticleServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/first", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><p>First article body.</p></body></html>"))
	})
	mux.HandleFunc("/second", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><p>Second article body.</p></body></html>"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	return httptest.NewServer(mux)
}

func newFeedServer(t *testing.T, feedXML string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feedXML))
	}))
}

// newTestRunner builds a Runner with test doubles instead of live
// OpenAI and SMTP clients.
func newTestRunner(feedURL string, now time.Time) (*Runner, *stubSummarizer, *captureSender) {
	cfg := &Config{}
	cfg.Feed.URL = feedURL

	summarizer := &stubSummarizer{}
	sender := &captureSender{}

	runner := &Runner{
		cfg:          cfg,
		Summarizer:   summarizer,
		Sender:       sender,
		FeedFetch:    DefaultFetchConfig(),
		ArticleFetch: ArticleFetchConfig(),
		now:          func() time.Time { return now },
	}
	return runner, summarizer, sender
}

func TestRunner_Run(t *testing.T) {
	articles := newArticleServer(t)
	defer articles.Close()

	feedXML := rssFeed(
		rssItem("Fresh Today", articles.URL+"/first", "Tue, 06 Jan 2026 09:00:00 +0100"),
		rssItem("First Article", articles.URL+"/first", "Mon, 05 Jan 2026 18:00:00 +0100", "News"),
		rssItem("Skipped Software", articles.URL+"/second", "Mon, 05 Jan 2026 15:00:00 +0100", "Software"),
		rssItem("Second Article", articles.URL+"/second", "Mon, 05 Jan 2026 12:00:00 +0100"),
	)
	feed := newFeedServer(t, feedXML)
	defer feed.Close()

	now := time.Date(2026, 1, 6, 10, 0, 0, 0, amsterdam(t))
	runner, summarizer, sender := newTestRunner(feed.URL, now)

	result, err := runner.Run(context.Background())

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Same(t, result, sender.result)

	require.Len(t, result.Summaries, 2)
	assert.Equal(t, "First Article", result.Summaries[0].Title)
	assert.Equal(t, "Mon, 05 Jan 2026 18:00:00 +0100", result.Summaries[0].Published)
	assert.Equal(t, articles.URL+"/first", result.Summaries[0].Link)
	assert.Equal(t, "summary 1", result.Summaries[0].Summary)
	assert.Equal(t, "Second Article", result.Summaries[1].Title)
	assert.Equal(t, "summary 2", result.Summaries[1].Summary)
	assert.Empty(t, result.Failures)

	// The summarizer received the extracted article text.
	require.Len(t, summarizer.inputs, 2)
	assert.Contains(t, summarizer.inputs[0], "First article body.")
	assert.Contains(t, summarizer.inputs[1], "Second article body.")

	assert.Contains(t, sender.body, "<h2>First Article</h2>")
	assert.Contains(t, sender.body, "<h2>Second Article</h2>")
	assert.NotContains(t, sender.body, "Skipped Software")
	assert.NotContains(t, sender.body, "Fresh Today")
}

func TestRunner_Run_BadArticleContinues(t *testing.T) {
	articles := newArticleServer(t)
	defer articles.Close()

	feedXML := rssFeed(
		rssItem("First Article", articles.URL+"/first", "Mon, 05 Jan 2026 18:00:00 +0100"),
		rssItem("Broken Article", articles.URL+"/missing", "Mon, 05 Jan 2026 15:00:00 +0100"),
		rssItem("Second Article", articles.URL+"/second", "Mon, 05 Jan 2026 12:00:00 +0100"),
	)
	feed := newFeedServer(t, feedXML)
	defer feed.Close()

	now := time.Date(2026, 1, 6, 10, 0, 0, 0, amsterdam(t))
	runner, _, sender := newTestRunner(feed.URL, now)

	result, err := runner.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Summaries, 2)
	assert.Equal(t, "First Article", result.Summaries[0].Title)
	assert.Equal(t, "Second Article", result.Summaries[1].Title)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "Broken Article", result.Failures[0].Title)
	assert.Contains(t, result.Failures[0].Reason, "fetching article")

	assert.Contains(t, sender.body, "1 article(s) could not be summarized: Broken Article")
}

func TestRunner_Run_SummarizerFailureContinues(t *testing.T) {
	articles := newArticleServer(t)
	defer articles.Close()

	feedXML := rssFeed(
		rssItem("First Article", articles.URL+"/first", "Mon, 05 Jan 2026 18:00:00 +0100"),
		rssItem("Second Article", articles.URL+"/second", "Mon, 05 Jan 2026 12:00:00 +0100"),
	)
	feed := newFeedServer(t, feedXML)
	defer feed.Close()

	now := time.Date(2026, 1, 6, 10, 0, 0, 0, amsterdam(t))
	runner, summarizer, sender := newTestRunner(feed.URL, now)
	summarizer.err = errors.New("model overloaded")

	result, err := runner.Run(context.Background())

	// The digest is still sent, with every entry recorded as skipped.
	require.NoError(t, err)
	assert.Empty(t, result.Summaries)
	require.Len(t, result.Failures, 2)
	assert.Contains(t, result.Failures[0].Reason, "summarizing article")
	assert.Contains(t, result.Failures[0].Reason, "model overloaded")
	assert.NotNil(t, sender.result)
}

func TestRunner_Run_FeedErrorAborts(t *testing.T) {
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer feed.Close()

	now := time.Date(2026, 1, 6, 10, 0, 0, 0, amsterdam(t))
	runner, _, sender := newTestRunner(feed.URL, now)

	result, err := runner.Run(context.Background())

	assert.Nil(t, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collecting feed")
	assert.Nil(t, sender.result)
}

func TestRunner_Run_SendErrorAborts(t *testing.T) {
	articles := newArticleServer(t)
	defer articles.Close()

	feedXML := rssFeed(
		rssItem("First Article", articles.URL+"/first", "Mon, 05 Jan 2026 18:00:00 +0100"),
	)
	feed := newFeedServer(t, feedXML)
	defer feed.Close()

	now := time.Date(2026, 1, 6, 10, 0, 0, 0, amsterdam(t))
	runner, _, sender := newTestRunner(feed.URL, now)
	sender.err = errors.New("smtp connection refused")

	result, err := runner.Run(context.Background())

	assert.Nil(t, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sending digest")
}

func TestRunner_Run_EmptyDigestStillSent(t *testing.T) {
	articles := newArticleServer(t)
	defer articles.Close()

	feedXML := rssFeed(
		rssItem("Fresh Today", articles.URL+"/first", "Tue, 06 Jan 2026 09:00:00 +0100"),
	)
	feed := newFeedServer(t, feedXML)
	defer feed.Close()

	now := time.Date(2026, 1, 6, 10, 0, 0, 0, amsterdam(t))
	runner, summarizer, sender := newTestRunner(feed.URL, now)

	result, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, result.Summaries)
	assert.Empty(t, result.Failures)
	assert.Zero(t, summarizer.calls)
	require.NotNil(t, sender.result)
	assert.Equal(t, "", sender.body)
}

func TestRunner_Run_Archiver(t *testing.T) {
	articles := newArticleServer(t)
	defer articles.Close()

	feedXML := rssFeed(
		rssItem("First Article", articles.URL+"/first", "Mon, 05 Jan 2026 18:00:00 +0100"),
	)
	feed := newFeedServer(t, feedXML)
	defer feed.Close()

	now := time.Date(2026, 1, 6, 10, 0, 0, 0, amsterdam(t))

	t.Run("ReceivesSummaries", func(t *testing.T) {
		runner, _, _ := newTestRunner(feed.URL, now)
		archiver := &captureArchiver{}
		runner.Archiver = archiver

		result, err := runner.Run(context.Background())

		require.NoError(t, err)
		assert.True(t, archiver.called)
		assert.Equal(t, result.Summaries, archiver.got)
	})

	t.Run("FailureDoesNotAbort", func(t *testing.T) {
		runner, _, _ := newTestRunner(feed.URL, now)
		runner.Archiver = &captureArchiver{err: errors.New("notion unavailable")}

		_, err := runner.Run(context.Background())

		assert.NoError(t, err)
	})
}

func TestRunner_Run_ArchiverSkippedWithoutSummaries(t *testing.T) {
	feedXML := rssFeed() // nothing published yesterday
	feed := newFeedServer(t, feedXML)
	defer feed.Close()

	now := time.Date(2026, 1, 6, 10, 0, 0, 0, amsterdam(t))
	runner, _, _ := newTestRunner(feed.URL, now)
	archiver := &captureArchiver{}
	runner.Archiver = archiver

	_, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.False(t, archiver.called)
}

func TestRunner_Run_ContextCancelled(t *testing.T) {
	articles := newArticleServer(t)
	defer articles.Close()

	feedXML := rssFeed(
		rssItem("First Article", articles.URL+"/first", "Mon, 05 Jan 2026 18:00:00 +0100"),
	)
	feed := newFeedServer(t, feedXML)
	defer feed.Close()

	now := time.Date(2026, 1, 6, 10, 0, 0, 0, amsterdam(t))
	runner, _, _ := newTestRunner(feed.URL, now)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := runner.Run(ctx)

	assert.Nil(t, result)
	assert.Error(t, err)
}
