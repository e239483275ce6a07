package adapter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/polyseek/polyseek/internal/domain"
	"github.com/polyseek/polyseek/internal/domain/result"
)

// HTMLRules selects result fields out of an HTML upstream payload via CSS
// selectors, relative to each result node.
type HTMLRules struct {
	// Results selects one node per result item.
	Results string
	// URL selects the link element; the href attribute is taken.
	URL string
	// Title and Content select text nodes. Title defaults to the URL element.
	Title   string
	Content string
	// Suggestions optionally selects suggestion links/text anywhere in the page.
	Suggestions string
}

// HTMLParser extracts standard items from HTML payloads by CSS selectors.
type HTMLParser struct {
	rules HTMLRules
}

// NewHTMLParser creates an HTML payload parser.
func NewHTMLParser(rules HTMLRules) (*HTMLParser, error) {
	if rules.Results == "" || rules.URL == "" {
		return nil, fmt.Errorf("html rules need results and url selectors")
	}
	return &HTMLParser{rules: rules}, nil
}

// Parse implements Parser.
func (p *HTMLParser) Parse(body []byte) ([]result.Partial, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	var out []result.Partial

	doc.Find(p.rules.Results).Each(func(_ int, s *goquery.Selection) {
		link := s.Find(p.rules.URL).First()
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}

		title := strings.TrimSpace(link.Text())
		if p.rules.Title != "" {
			title = strings.TrimSpace(s.Find(p.rules.Title).First().Text())
		}
		if title == "" {
			return
		}

		content := ""
		if p.rules.Content != "" {
			content = strings.TrimSpace(s.Find(p.rules.Content).First().Text())
		}

		out = append(out, result.Standard(href, title, content))
	})

	if p.rules.Suggestions != "" {
		doc.Find(p.rules.Suggestions).Each(func(_ int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); text != "" {
				out = append(out, result.Suggestion(text))
			}
		})
	}

	return out, nil
}
