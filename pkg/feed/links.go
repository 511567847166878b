package feed

import (
	"github.com/mmcdole/gofeed"
)

// LinkSource は、リンクアイテムのリストを提供できる任意の型を表します。
type LinkSource interface {
	GetLinks() []string
}

// FeedAdapter は gofeed.Feed を LinkSource に適合させるためのアダプターです。
type FeedAdapter struct {
	*gofeed.Feed
}

// NewFeedAdapter は gofeed.Feed から新しいアダプターを作成します。
func NewFeedAdapter(feed *gofeed.Feed) *FeedAdapter {
	return &FeedAdapter{Feed: feed}
}

// GetLinks はフィード内のアイテムのリンクを出現順に返します。空のリンクと重複は除かれます。
func (a *FeedAdapter) GetLinks() []string {
	if a == nil || a.Feed == nil || len(a.Items) == 0 {
		return []string{}
	}

	seen := make(map[string]struct{}, len(a.Items))
	urls := make([]string, 0, len(a.Items))
	for _, item := range a.Items {
		if item == nil || item.Link == "" {
			continue
		}
		if _, dup := seen[item.Link]; dup {
			continue
		}
		seen[item.Link] = struct{}{}
		urls = append(urls, item.Link)
	}
	return urls
}

// GetAllLinks は LinkSource からリンクを抽出します。limit が正の場合は先頭 limit 件に切り詰めます。
func GetAllLinks(source LinkSource, limit int) []string {
	if source == nil {
		return []string{}
	}
	links := source.GetLinks()
	if limit > 0 && len(links) > limit {
		links = links[:limit]
	}
	return links
}
