// Package fetch retrieves content from RSS/Atom sources and feeds it
// into the live document, playing the role of the host page's own
// growth: items arrive out of band while the pipeline is scanning.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/abelbrown/sift/internal/feed"
)

// Source is one feed source configuration.
type Source struct {
	Name string // display name
	URL  string // feed URL
}

// DefaultSources is the out-of-the-box source list.
var DefaultSources = []Source{
	{Name: "BBC World", URL: "https://feeds.bbci.co.uk/news/world/rss.xml"},
	{Name: "NPR News", URL: "https://feeds.npr.org/1001/rss.xml"},
	{Name: "The Guardian", URL: "https://www.theguardian.com/world/rss"},
	{Name: "Techmeme", URL: "https://www.techmeme.com/feed.xml"},
}

// Fetcher retrieves items from feed sources. Requests are paced by a
// shared rate limiter so a burst of due sources does not hammer hosts.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewFetcher creates a Fetcher with the given HTTP timeout, allowing
// at most rps requests per second.
func NewFetcher(timeout time.Duration, rps float64) *Fetcher {
	if rps <= 0 {
		rps = 1
	}
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Fetch retrieves items from a source. Does not touch the document;
// the caller decides where the items go.
func (f *Fetcher) Fetch(ctx context.Context, src Source) ([]feed.Item, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "sift/0.1 (+https://github.com/abelbrown/sift)")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	return Convert(parsed, src, time.Now()), nil
}

// Convert maps a parsed feed to document items. The feed title doubles
// as the channel name when an item has no author.
func Convert(parsed *gofeed.Feed, src Source, now time.Time) []feed.Item {
	items := make([]feed.Item, 0, len(parsed.Items))
	for _, fi := range parsed.Items {
		items = append(items, convertItem(fi, parsed, src, now))
	}
	return items
}

func convertItem(fi *gofeed.Item, parsed *gofeed.Feed, src Source, now time.Time) feed.Item {
	channel := parsed.Title
	if fi.Author != nil && fi.Author.Name != "" {
		channel = fi.Author.Name
	}

	published := now
	if fi.PublishedParsed != nil {
		published = *fi.PublishedParsed
	} else if fi.UpdatedParsed != nil {
		published = *fi.UpdatedParsed
	}

	// Identity is assigned here, not by the document, so persistence
	// and the document agree on the same ID for the same item.
	return feed.Item{
		ID:          feed.NewItemID(fi.Link),
		Title:       fi.Title,
		Channel:     channel,
		Description: fi.Description,
		URL:         fi.Link,
		SourceName:  src.Name,
		Published:   published,
		Fetched:     now,
	}
}
