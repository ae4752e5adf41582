package parse

import (
	"regexp"
	"strings"

	"github.com/troupelabs/troupe/pkg/models"
)

var (
	markerPattern = regexp.MustCompile(`^\s*(?:\d{1,3}[.)]|[-*•])\s+`)
	urlPattern    = regexp.MustCompile(`https?://[^\s)\]>]+`)
)

// NewsArticles extracts article records from digest text. A numbered or
// bulleted line starts a record; following lines extend its summary until
// the next marker or a URL, which closes the record. Lines before the first
// marker are ignored.
func NewsArticles(text string) []models.NewsArticle {
	var articles []models.NewsArticle
	var current *models.NewsArticle
	closed := false

	flush := func() {
		if current != nil && current.Title != "" {
			current.Summary = strings.TrimSpace(current.Summary)
			articles = append(articles, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if marker := markerPattern.FindString(line); marker != "" {
			flush()
			closed = false
			rest := strings.TrimSpace(line[len(marker):])
			current = startArticle(rest)
			continue
		}

		if current == nil || closed {
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if url := urlPattern.FindString(trimmed); url != "" {
			if current.URL == "" {
				current.URL = cleanURL(url)
			}
			// A URL ends the record's description.
			closed = true
			continue
		}

		if current.Summary != "" {
			current.Summary += " "
		}
		current.Summary += trimmed
	}
	flush()

	return articles
}

// startArticle builds a record from the text after a list marker. Headline
// and summary may share the line, separated by a dash.
func startArticle(rest string) *models.NewsArticle {
	article := &models.NewsArticle{}

	if url := urlPattern.FindString(rest); url != "" {
		article.URL = cleanURL(url)
		rest = strings.TrimSpace(strings.Replace(rest, url, "", 1))
	}

	title := rest
	for _, sep := range []string{" - ", " — ", " – ", ": "} {
		if i := strings.Index(rest, sep); i > 0 {
			title = rest[:i]
			article.Summary = strings.TrimSpace(rest[i+len(sep):])
			break
		}
	}

	article.Title = strings.Trim(strings.TrimSpace(title), "*_ ")
	return article
}

func cleanURL(url string) string {
	return strings.TrimRight(url, ".,;")
}
