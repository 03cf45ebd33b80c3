package models

import "time"

// Item is a single entry collected from an external service
type Item struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`   // service name, e.g. "reddit", "hacker_news"
	Category     string    `json:"category"` // subreddit, feed or section within the source
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	Author       string    `json:"author"`
	Text         string    `json:"text"`
	Score        int       `json:"score"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Digest is the set of items of one service for one day
type Digest struct {
	Service string    `json:"service"`
	Date    time.Time `json:"date"`
	Items   []Item    `json:"items"`
	Key     string    `json:"key,omitempty"` // set once saved
	Content string    `json:"-"`             // rendered Markdown
}

// Report summarizes one digest run
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Date        time.Time `json:"date"`
	Digests     []Digest  `json:"digests"`
	ErrorCount  int       `json:"error_count"`
	Errors      []string  `json:"errors,omitempty"`
}
