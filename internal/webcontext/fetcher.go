package webcontext

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher pulls short listing snippets from configured market sources so
// insight prompts can reference current asking prices. Everything here is
// best effort: a dead source just contributes nothing.
type Fetcher struct {
	client      *http.Client
	sources     []string
	selector    string
	maxSnippets int
	userAgent   string
}

func NewFetcher(sources []string, selector string, maxSnippets int, timeout time.Duration, userAgent string) *Fetcher {
	if selector == "" {
		selector = "article, .listing, .property-card"
	}
	if maxSnippets <= 0 {
		maxSnippets = 5
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		client:      &http.Client{Timeout: timeout},
		sources:     sources,
		selector:    selector,
		maxSnippets: maxSnippets,
		userAgent:   userAgent,
	}
}

// Snippets fetches listing text near the given location. Sources may embed
// %s which is replaced with the URL-escaped location.
func (f *Fetcher) Snippets(ctx context.Context, location string) []string {
	var snippets []string
	for _, source := range f.sources {
		if len(snippets) >= f.maxSnippets {
			break
		}
		target := source
		if strings.Contains(source, "%s") {
			target = fmt.Sprintf(source, url.QueryEscape(location))
		}
		found, err := f.fetchOne(ctx, target)
		if err != nil {
			log.Printf("WebContext: source %s failed: %v", source, err)
			continue
		}
		snippets = append(snippets, found...)
	}
	if len(snippets) > f.maxSnippets {
		snippets = snippets[:f.maxSnippets]
	}
	return snippets
}

func (f *Fetcher) fetchOne(ctx context.Context, target string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	var snippets []string
	doc.Find(f.selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := normalizeWhitespace(s.Text())
		if len(text) < 40 {
			return true // skip navigation fragments
		}
		if len(text) > 400 {
			text = text[:400]
		}
		snippets = append(snippets, text)
		return len(snippets) < f.maxSnippets
	})

	return snippets, nil
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
