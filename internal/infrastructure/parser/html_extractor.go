package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"FakeNewsDetector/internal/ports"
)

const (
	noiseSelector = "script, style, noscript, nav, header, footer, aside, form, iframe"
	blockSelector = "h1, h2, h3, h4, h5, h6, p, li, blockquote"
)

var (
	markupExpr = regexp.MustCompile(`(?i)<\s*(html|body|article|div|p|br|span|h[1-6])\b`)
	spaceExpr  = regexp.MustCompile(`\s+`)
)

// ErrNoText is returned when a document carries no readable text.
var ErrNoText = errors.New("document has no text")

// HTMLExtractor turns an article page into plain text with one block per line, so headlines
// and paragraphs become separate sentences. Input that is not markup is returned as is.
type HTMLExtractor struct {
	client *http.Client
}

var _ ports.TextExtractor = (*HTMLExtractor)(nil)

// NewHTMLExtractor wires an HTTP client used by Fetch; a nil client gets a 20 second timeout.
func NewHTMLExtractor(client *http.Client) *HTMLExtractor {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTMLExtractor{client: client}
}

// Extract implements ports.TextExtractor.
func (e *HTMLExtractor) Extract(raw []byte) (string, error) {
	if !markupExpr.Match(raw) {
		text := strings.TrimSpace(string(raw))
		if text == "" {
			return "", ErrNoText
		}
		return text, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}
	return articleText(doc)
}

// Fetch downloads a page and extracts its article text.
func (e *HTMLExtractor) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "FakeNewsDetector/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}
	return articleText(doc)
}

func articleText(doc *goquery.Document) (string, error) {
	doc.Find(noiseSelector).Remove()

	root := doc.Find("article").First()
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	if root.Length() == 0 {
		root = doc.Selection
	}

	var lines []string
	root.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		// nested blocks are reported by their innermost element only
		if s.Find(blockSelector).Length() > 0 {
			return
		}
		if line := collapse(s.Text()); line != "" {
			lines = append(lines, line)
		}
	})

	if len(lines) == 0 {
		if text := collapse(root.Text()); text != "" {
			lines = append(lines, text)
		}
	}
	if len(lines) == 0 {
		return "", ErrNoText
	}
	return strings.Join(lines, "\n"), nil
}

func collapse(s string) string {
	return strings.TrimSpace(spaceExpr.ReplaceAllString(s, " "))
}
