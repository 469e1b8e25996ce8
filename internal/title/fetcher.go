package title

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/miniurl/miniurl/internal/shortener"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Fetcher retrieves page titles for shortened targets. Fetching is advisory:
// every failure degrades to the UnknownTitle sentinel, a single attempt is
// made per call, and no error is ever returned.
type Fetcher struct {
	client *http.Client
	logger *zap.Logger
}

// NewFetcher creates a fetcher with the given per-request timeout.
func NewFetcher(timeout time.Duration, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Fetch issues a GET to the target URL and extracts the document title.
func (f *Fetcher) Fetch(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		f.logger.Warn("title fetch request failed", zap.String("url", url), zap.Error(err))

		return shortener.UnknownTitle
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("title fetch failed", zap.String("url", url), zap.Error(err))

		return shortener.UnknownTitle
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		f.logger.Warn("title fetch got non-2xx status",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
		)

		return shortener.UnknownTitle
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		f.logger.Warn("title parse failed", zap.String("url", url), zap.Error(err))

		return shortener.UnknownTitle
	}

	title := strings.TrimSpace(findTitle(doc))
	if title == "" {
		return shortener.UnknownTitle
	}

	return title
}

// findTitle walks the parsed document for the first <title> element's text.
func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		var sb strings.Builder

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
		}

		return sb.String()
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := findTitle(c); title != "" {
			return title
		}
	}

	return ""
}
