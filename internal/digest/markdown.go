package digest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nook/nook/internal/models"
)

const excerptLength = 280

var serviceTitles = map[string]string{
	"reddit":      "Reddit",
	"hacker_news": "Hacker News",
}

var linkTextEscaper = strings.NewReplacer("[", `\[`, "]", `\]`)

// RenderMarkdown renders a digest as a Markdown document, with items grouped
// by category in order of first appearance.
func RenderMarkdown(d models.Digest) string {
	title, ok := serviceTitles[d.Service]
	if !ok {
		title = d.Service
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s (%s)\n", title, d.Date.Format("2006-01-02"))

	var categories []string
	byCategory := make(map[string][]models.Item)
	for _, item := range d.Items {
		if _, seen := byCategory[item.Category]; !seen {
			categories = append(categories, item.Category)
		}
		byCategory[item.Category] = append(byCategory[item.Category], item)
	}

	for _, category := range categories {
		if category != "" {
			fmt.Fprintf(&b, "\n## %s\n", category)
		}

		for _, item := range byCategory[category] {
			fmt.Fprintf(&b, "\n### [%s](%s)\n\n", linkTextEscaper.Replace(item.Title), item.URL)
			fmt.Fprintf(&b, "Score: %d | Comments: %d", item.Score, item.CommentCount)
			if item.Author != "" {
				fmt.Fprintf(&b, " | by %s", item.Author)
			}
			b.WriteString("\n")

			if text := excerpt(item.Text); text != "" {
				fmt.Fprintf(&b, "\n> %s\n", text)
			}

			b.WriteString("\n---\n")
		}
	}

	return b.String()
}

func excerpt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= excerptLength {
		return text
	}

	runes := []rune(text)
	return string(runes[:excerptLength]) + "…"
}
