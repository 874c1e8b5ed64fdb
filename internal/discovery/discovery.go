// Package discovery finds podcasts via the iTunes search API and lists
// their episodes from the RSS feed.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"

	"podscrub/internal/logger"
	"podscrub/internal/types"
)

const searchEndpoint = "https://itunes.apple.com/search"

type Client struct {
	http   *http.Client
	parser *gofeed.Parser
	search string
	cache  map[string][]types.Episode
	log    *logrus.Entry
}

// New builds a discovery client. The episode cache is owned by the caller
// and passed in, so each invocation decides what it shares.
func New(cache map[string][]types.Episode, log *logger.Logger) *Client {
	return &Client{
		http:   &http.Client{Timeout: 30 * time.Second},
		parser: gofeed.NewParser(),
		search: searchEndpoint,
		cache:  cache,
		log:    log.WithField("component", "discovery"),
	}
}

// Search queries the iTunes directory for podcasts matching term.
func (c *Client) Search(ctx context.Context, term string, limit int) ([]types.Podcast, error) {
	if term == "" {
		return nil, fmt.Errorf("empty search term")
	}
	if limit <= 0 {
		limit = 10
	}

	q := url.Values{}
	q.Set("media", "podcast")
	q.Set("term", term)
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.search+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("podcast search failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("podcast search returned status %d", resp.StatusCode)
	}

	var payload struct {
		Results []struct {
			CollectionName string `json:"collectionName"`
			ArtistName     string `json:"artistName"`
			FeedURL        string `json:"feedUrl"`
			TrackCount     int    `json:"trackCount"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	podcasts := make([]types.Podcast, 0, len(payload.Results))
	for _, r := range payload.Results {
		// Directory entries without a feed can't be processed
		if r.FeedURL == "" {
			continue
		}
		podcasts = append(podcasts, types.Podcast{
			Name:     r.CollectionName,
			Author:   r.ArtistName,
			FeedURL:  r.FeedURL,
			Episodes: r.TrackCount,
		})
	}
	c.log.WithFields(logrus.Fields{"term": term, "hits": len(podcasts)}).Debug("search done")
	return podcasts, nil
}

// Episodes fetches and parses the feed, newest first as feeds list them.
// Items without an audio enclosure are skipped. Results land in the
// injected cache so repeat lookups within a run stay local.
func (c *Client) Episodes(ctx context.Context, feedURL string) ([]types.Episode, error) {
	if eps, ok := c.cache[feedURL]; ok {
		c.log.WithField("feed", feedURL).Debug("episode cache hit")
		return eps, nil
	}

	feed, err := c.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	eps := make([]types.Episode, 0, len(feed.Items))
	for _, item := range feed.Items {
		ep := types.Episode{
			Title:       item.Title,
			GUID:        item.GUID,
			Podcast:     feed.Title,
			PageURL:     item.Link,
			Description: item.Description,
		}
		if len(item.Enclosures) > 0 {
			ep.AudioURL = item.Enclosures[0].URL
		}
		if ep.AudioURL == "" {
			continue
		}
		if item.PublishedParsed != nil {
			ep.Published = *item.PublishedParsed
		}
		if item.ITunesExt != nil {
			ep.Duration = item.ITunesExt.Duration
		}
		eps = append(eps, ep)
	}
	if len(eps) == 0 {
		return nil, fmt.Errorf("feed contains no playable episodes")
	}

	if c.cache != nil {
		c.cache[feedURL] = eps
	}
	c.log.WithFields(logrus.Fields{"feed": feedURL, "episodes": len(eps)}).Debug("feed parsed")
	return eps, nil
}
