package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/nook/nook/internal/models"
	"github.com/sirupsen/logrus"
)

// HackerNewsCollector collects the current top stories from Hacker News
type HackerNewsCollector struct {
	client  *resty.Client
	limit   int
	baseURL string
}

type hackerNewsItem struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Text        string `json:"text"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Dead        bool   `json:"dead"`
	Deleted     bool   `json:"deleted"`
}

// NewHackerNewsCollector creates a collector for up to limit top stories
func NewHackerNewsCollector(limit int) *HackerNewsCollector {
	return &HackerNewsCollector{
		client: resty.New().
			SetTimeout(30 * time.Second).
			SetHeader("User-Agent", userAgent),
		limit:   limit,
		baseURL: "https://hacker-news.firebaseio.com/v0",
	}
}

func (h *HackerNewsCollector) Name() string {
	return "hacker_news"
}

func (h *HackerNewsCollector) Enabled() bool {
	return h.limit > 0 // Hacker News API doesn't require authentication
}

func (h *HackerNewsCollector) Collect(ctx context.Context) ([]models.Item, error) {
	itemIDs, err := h.topStories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get top stories: %w", err)
	}

	if len(itemIDs) > h.limit {
		itemIDs = itemIDs[:h.limit]
	}

	var items []models.Item
	for _, itemID := range itemIDs {
		select {
		case <-ctx.Done():
			return items, ctx.Err()
		default:
		}

		item, err := h.getItem(ctx, itemID)
		if err != nil {
			logrus.Debugf("Failed to get HN item %d: %v", itemID, err)
			continue
		}

		if item == nil || item.Dead || item.Deleted || item.Type != "story" {
			continue
		}

		entry := models.Item{
			ID:           fmt.Sprintf("hacker_news_%d", item.ID),
			Source:       h.Name(),
			Category:     "Top Stories",
			Title:        item.Title,
			URL:          fmt.Sprintf("https://news.ycombinator.com/item?id=%d", item.ID),
			Author:       item.By,
			Text:         item.Text,
			Score:        item.Score,
			CommentCount: item.Descendants,
			CreatedAt:    time.Unix(item.Time, 0).UTC(),
		}

		// Link stories point at the external article
		if item.URL != "" {
			entry.URL = item.URL
		}

		items = append(items, entry)
	}

	return items, nil
}

func (h *HackerNewsCollector) topStories(ctx context.Context) ([]int, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		Get(h.baseURL + "/topstories.json")
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("hacker news API returned status %d", resp.StatusCode())
	}

	var itemIDs []int
	if err := json.Unmarshal(resp.Body(), &itemIDs); err != nil {
		return nil, err
	}

	return itemIDs, nil
}

func (h *HackerNewsCollector) getItem(ctx context.Context, itemID int) (*hackerNewsItem, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("%s/item/%d.json", h.baseURL, itemID))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("hacker news API returned status %d for item %d", resp.StatusCode(), itemID)
	}

	var item hackerNewsItem
	if err := json.Unmarshal(resp.Body(), &item); err != nil {
		return nil, err
	}

	return &item, nil
}
