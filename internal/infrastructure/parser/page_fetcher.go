package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"Veritas/internal/domain"
	"Veritas/internal/resolver"
)

const (
	defaultMaxChars   = 8000
	defaultMaxBytes   = 2 << 20
	defaultUserAgent  = "Veritas/1.0"
	truncationMarker  = "…"
	droppedSelections = "script, style, noscript"
)

var errEmptyPage = errors.New("page has no readable text")

// PageFetcher downloads a link and extracts readable text for the model.
type PageFetcher struct {
	client    *http.Client
	maxChars  int
	maxBytes  int64
	userAgent string
}

var _ resolver.Strategy = (*PageFetcher)(nil)

// Option customizes the fetcher.
type Option func(*PageFetcher)

// WithMaxChars caps the extracted text length (in characters).
func WithMaxChars(n int) Option {
	return func(p *PageFetcher) {
		if n > 0 {
			p.maxChars = n
		}
	}
}

// WithMaxBytes caps how much of the response body is read.
func WithMaxBytes(n int64) Option {
	return func(p *PageFetcher) {
		if n > 0 {
			p.maxBytes = n
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(p *PageFetcher) {
		if ua = strings.TrimSpace(ua); ua != "" {
			p.userAgent = ua
		}
	}
}

// NewPageFetcher wires an HTTP client; a nil client gets a 20s timeout.
func NewPageFetcher(client *http.Client, opts ...Option) *PageFetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	p := &PageFetcher{
		client:    client,
		maxChars:  defaultMaxChars,
		maxBytes:  defaultMaxBytes,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Mode identifies the strategy inside the registry.
func (p *PageFetcher) Mode() domain.Mode {
	return domain.ModeLink
}

// Resolve fetches pageURL and returns its text prefixed with the URL.
func (p *PageFetcher) Resolve(ctx context.Context, pageURL string) (domain.ResolvedContent, error) {
	pageURL = strings.TrimSpace(pageURL)

	doc, err := p.fetchDocument(ctx, pageURL)
	if err != nil {
		return domain.ResolvedContent{}, err
	}

	text := Truncate(ExtractText(doc), p.maxChars)
	if text == "" {
		return domain.ResolvedContent{}, fmt.Errorf("%s: %w", pageURL, errEmptyPage)
	}

	return domain.ResolvedContent{
		Text:      fmt.Sprintf("Source URL: %s\n\nExtracted page text:\n%s", pageURL, text),
		SourceURL: pageURL,
		Mode:      domain.ModeLink,
		Fetched:   true,
	}, nil
}

func (p *PageFetcher) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, p.maxBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decode charset: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

// ExtractText drops script and style blocks (and noscript, whose body the
// parser keeps as raw markup) and returns the remaining text nodes joined by
// single spaces. Entities are decoded by the HTML parser.
func ExtractText(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	doc.Find(droppedSelections).Remove()

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Truncate shortens value to limit characters, appending an ellipsis when cut.
func Truncate(value string, limit int) string {
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + truncationMarker
}
