// Package news merges a fixed list of RSS feeds into one deduplicated,
// newest-first list of headlines.
package news

import (
	"bytes"
	"context"
	"html"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/fplassistant/internal/cachex"
	"github.com/dmitrijs2005/fplassistant/internal/logging"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
)

// Feed names an RSS source.
type Feed struct {
	Name string
	URL  string
}

// Fetcher downloads a feed document. *netx.Client implements it.
type Fetcher interface {
	GetBytes(ctx context.Context, source, url string, timeout time.Duration) ([]byte, error)
}

type Aggregator struct {
	feeds   []Feed
	fetch   Fetcher
	timeout time.Duration
	cache   *cachex.Cache[[]Item]
	policy  *bluemonday.Policy
	log     logging.Logger
}

func NewAggregator(feeds []Feed, fetch Fetcher, timeout, ttl time.Duration, log logging.Logger, opts ...cachex.Option) *Aggregator {
	return &Aggregator{
		feeds:   feeds,
		fetch:   fetch,
		timeout: timeout,
		cache:   cachex.New[[]Item](ttl, opts...),
		policy:  bluemonday.StrictPolicy(),
		log:     log,
	}
}

// Items returns the cached headlines or refreshes them from every feed.
// A feed that fails is logged and skipped. When all of them fail nothing is
// cached and the previous items (or an empty list) are returned.
func (a *Aggregator) Items(ctx context.Context) []Item {
	if items, ok := a.cache.Fresh(); ok {
		a.log.Debug(ctx, "serving news from cache", "items", len(items))
		return items
	}

	perFeed := make([][]Item, len(a.feeds))
	ok := make([]bool, len(a.feeds))

	var g errgroup.Group
	for i, f := range a.feeds {
		g.Go(func() error {
			items, err := a.fetchFeed(ctx, f)
			if err != nil {
				a.log.Warn(ctx, "news feed failed", "source", f.Name, "url", f.URL, "error", err)
				return nil
			}
			perFeed[i], ok[i] = items, true
			return nil
		})
	}
	_ = g.Wait()

	if !slices.Contains(ok, true) {
		if old, _, has := a.cache.Peek(); has {
			a.log.Warn(ctx, "all news feeds failed, serving previous items")
			return old
		}
		return []Item{}
	}

	var merged []Item
	for _, items := range perFeed {
		merged = append(merged, items...)
	}
	items := Merge(merged)

	a.cache.Set(items)
	a.log.Info(ctx, "news refreshed", "items", len(items))
	return items
}

func (a *Aggregator) fetchFeed(ctx context.Context, f Feed) ([]Item, error) {
	body, err := a.fetch.GetBytes(ctx, f.Name, f.URL, a.timeout)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			title = "No Title"
		}

		raw := it.Content
		if strings.TrimSpace(raw) == "" {
			raw = it.Description
		}

		pub := it.PublishedParsed
		if pub == nil {
			pub = it.UpdatedParsed
		}

		items = append(items, Item{
			Title:           title,
			Link:            strings.TrimSpace(it.Link),
			PublicationDate: pub,
			SourceName:      f.Name,
			Snippet:         a.stripHTML(raw),
		})
	}
	return items, nil
}

func (a *Aggregator) stripHTML(s string) string {
	text := html.UnescapeString(a.policy.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

// Merge sorts items newest first (undated last, otherwise keeping input
// order), then drops items without a link and repeated links, keeping the
// first occurrence.
func Merge(items []Item) []Item {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b Item) int {
		switch {
		case a.PublicationDate != nil && b.PublicationDate != nil:
			return b.PublicationDate.Compare(*a.PublicationDate)
		case a.PublicationDate != nil:
			return -1
		case b.PublicationDate != nil:
			return 1
		}
		return 0
	})

	seen := make(map[string]bool, len(sorted))
	out := make([]Item, 0, len(sorted))
	for _, it := range sorted {
		if it.Link == "" || seen[it.Link] {
			continue
		}
		seen[it.Link] = true
		out = append(out, it)
	}
	return out
}
