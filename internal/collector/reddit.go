package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/nook/nook/internal/models"
	"github.com/sirupsen/logrus"
)

const redditPostLimit = 10

// RedditCollector collects hot posts from a set of subreddits
type RedditCollector struct {
	clientID     string
	clientSecret string
	subreddits   []string
	client       *resty.Client
	authURL      string
	apiBaseURL   string
}

type redditAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type redditListingResponse struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Created     float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Stickied    bool    `json:"stickied"`
}

// NewRedditCollector creates a new reddit collector
func NewRedditCollector(clientID, clientSecret string, subreddits []string) *RedditCollector {
	return &RedditCollector{
		clientID:     clientID,
		clientSecret: clientSecret,
		subreddits:   subreddits,
		client:       resty.New().SetTimeout(30 * time.Second),
		authURL:      "https://www.reddit.com/api/v1/access_token",
		apiBaseURL:   "https://oauth.reddit.com",
	}
}

func (r *RedditCollector) Name() string {
	return "reddit"
}

func (r *RedditCollector) Enabled() bool {
	return r.clientID != "" && r.clientSecret != "" && len(r.subreddits) > 0
}

func (r *RedditCollector) Collect(ctx context.Context) ([]models.Item, error) {
	if !r.Enabled() {
		logrus.Debug("Reddit collector disabled - missing credentials or subreddits")
		return nil, nil
	}

	token, err := r.authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("reddit authentication failed: %w", err)
	}

	var items []models.Item
	for _, subreddit := range r.subreddits {
		posts, err := r.hotPosts(ctx, token, subreddit)
		if err != nil {
			logrus.Errorf("Failed to fetch subreddit %s: %v", subreddit, err)
			continue
		}
		items = append(items, posts...)
	}

	return items, nil
}

func (r *RedditCollector) authenticate(ctx context.Context) (string, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", userAgent).
		SetBasicAuth(r.clientID, r.clientSecret).
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
		}).
		Post(r.authURL)
	if err != nil {
		return "", err
	}

	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("reddit auth returned status %d", resp.StatusCode())
	}

	var authResp redditAuthResponse
	if err := json.Unmarshal(resp.Body(), &authResp); err != nil {
		return "", err
	}
	if authResp.AccessToken == "" {
		return "", fmt.Errorf("reddit auth returned no access token")
	}

	return authResp.AccessToken, nil
}

func (r *RedditCollector) hotPosts(ctx context.Context, token, subreddit string) ([]models.Item, error) {
	listingURL := fmt.Sprintf("%s/r/%s/hot?limit=%d", r.apiBaseURL, url.PathEscape(subreddit), redditPostLimit)

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetHeader("User-Agent", userAgent).
		Get(listingURL)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reddit API returned status %d", resp.StatusCode())
	}

	var listing redditListingResponse
	if err := json.Unmarshal(resp.Body(), &listing); err != nil {
		return nil, err
	}

	var items []models.Item
	for _, child := range listing.Data.Children {
		post := child.Data
		if post.Stickied {
			continue
		}

		items = append(items, models.Item{
			ID:           fmt.Sprintf("reddit_%s", post.ID),
			Source:       r.Name(),
			Category:     fmt.Sprintf("r/%s", post.Subreddit),
			Title:        post.Title,
			URL:          fmt.Sprintf("https://www.reddit.com%s", post.Permalink),
			Author:       post.Author,
			Text:         post.Selftext,
			Score:        post.Score,
			CommentCount: post.NumComments,
			CreatedAt:    time.Unix(int64(post.Created), 0).UTC(),
		})
	}

	return items, nil
}
