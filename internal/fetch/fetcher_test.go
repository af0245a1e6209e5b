package fetch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/abelbrown/sift/internal/feed"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example News</title>
    <link>https://example.com</link>
    <item>
      <title>Trump holds rally</title>
      <link>https://example.com/watch?v=abc123</link>
      <description>Campaign coverage</description>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    </item>
    <item>
      <title>Quiet nature walk</title>
      <link>https://example.com/news/nature-walk</link>
    </item>
  </channel>
</rss>`

func TestConvert(t *testing.T) {
	parsed, err := gofeed.NewParser().Parse(strings.NewReader(sampleRSS))
	if err != nil {
		t.Fatalf("parse sample feed: %v", err)
	}

	now := time.Now()
	items := Convert(parsed, Source{Name: "Example"}, now)

	if len(items) != 2 {
		t.Fatalf("Convert returned %d items, want 2", len(items))
	}

	first := items[0]
	if first.Title != "Trump holds rally" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Channel != "Example News" {
		t.Errorf("Channel = %q, want feed title fallback", first.Channel)
	}
	if first.Description != "Campaign coverage" {
		t.Errorf("Description = %q", first.Description)
	}
	if first.SourceName != "Example" {
		t.Errorf("SourceName = %q", first.SourceName)
	}
	if first.Published.Year() != 2006 {
		t.Errorf("Published = %v, want parsed pubDate", first.Published)
	}

	// No pubDate: falls back to fetch time.
	if !items[1].Published.Equal(now) {
		t.Errorf("Published fallback = %v, want %v", items[1].Published, now)
	}
}

func TestConvertAssignsStableIDs(t *testing.T) {
	parsed, err := gofeed.NewParser().Parse(strings.NewReader(sampleRSS))
	if err != nil {
		t.Fatalf("parse sample feed: %v", err)
	}

	items := Convert(parsed, Source{Name: "Example"}, time.Now())
	if len(items) != 2 {
		t.Fatalf("Convert returned %d items, want 2", len(items))
	}

	if items[0].ID != "abc123" {
		t.Errorf("ID = %q, want video id from link", items[0].ID)
	}
	if items[1].ID != "nature-walk" {
		t.Errorf("ID = %q, want last path segment", items[1].ID)
	}

	// A document append must keep the converted IDs, not mint new ones.
	doc := feed.NewDocument()
	doc.Append(items...)
	if _, ok := doc.Get("abc123"); !ok {
		t.Error("document did not keep converted ID")
	}
}

type stubFetcher struct {
	mu    sync.Mutex
	calls int
	items []feed.Item
	err   error
}

func (s *stubFetcher) Fetch(ctx context.Context, src Source) ([]feed.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.items, s.err
}

func TestCoordinatorAppendsFetchedItems(t *testing.T) {
	doc := feed.NewDocument()
	stub := &stubFetcher{items: []feed.Item{
		{Title: "a", URL: "https://example.com/watch?v=a"},
		{Title: "b", URL: "https://example.com/watch?v=b"},
	}}

	c := NewCoordinator(doc, stub, []Source{{Name: "stub", URL: "http://stub"}})
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx, time.Hour)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && doc.Len() < 2 {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	c.Wait()

	if doc.Len() != 2 {
		t.Errorf("document has %d items, want 2", doc.Len())
	}
}

func TestCoordinatorToleratesSourceFailure(t *testing.T) {
	doc := feed.NewDocument()
	stub := &stubFetcher{err: errors.New("connection refused")}

	c := NewCoordinator(doc, stub, []Source{{Name: "bad", URL: "http://bad"}})
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx, time.Hour)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		stub.mu.Lock()
		calls := stub.calls
		stub.mu.Unlock()
		if calls > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	c.Wait()

	if doc.Len() != 0 {
		t.Errorf("failed fetch added items: %d", doc.Len())
	}
}
