package feed

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Item is one content card in the live document. The host (fetcher or
// embedding application) owns these fields; the filter pipeline only
// reads them. Filter annotations live on the Document, not here.
type Item struct {
	ID          string
	Title       string
	Channel     string
	Description string
	URL         string
	SourceName  string
	Published   time.Time
	Fetched     time.Time
}

// FragmentText returns the concatenated text used as the unit of
// classification and as the cache key.
func (it Item) FragmentText() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{it.Title, it.Channel, it.Description} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// VideoID extracts a stable content identifier from a link:
// the "v" query parameter when present, otherwise the last non-empty
// path segment. Returns "" when nothing usable is found.
func VideoID(link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	if v := u.Query().Get("v"); v != "" {
		return v
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	return segs[len(segs)-1]
}

// NewItemID derives an item's identity: the video id parsed from its
// URL when available, otherwise a fresh UUID.
func NewItemID(link string) string {
	if id := VideoID(link); id != "" {
		return id
	}
	return uuid.NewString()
}
