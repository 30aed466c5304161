// Package extract turns a validated article page into a crawler.ArticleRecord.
package extract

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-article-crawler/internal/crawler"
)

// Page-level selectors. Blocks are the direct div children of <article>.
const (
	canonicalURLSelector = `meta[property="og:url"]`
	timestampSelector    = "article time"
	headlineSelector     = "#main-heading"
	blockSelector        = "article > div"
	tagSelector          = `section[data-component*="tag-list"] ul > li`
)

// Extractor builds ArticleRecords from raw HTML. Missing fields degrade to
// their sentinel values; extraction never fails.
type Extractor struct {
	logger *zap.Logger
}

var _ crawler.Extractor = (*Extractor)(nil)

// New returns an Extractor. A nil logger disables gap logging.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger.Named("extract")}
}

// Extract parses body fetched from pageURL. The record URL is the page's
// og:url when present and valid, otherwise pageURL.
func (e *Extractor) Extract(pageURL string, body []byte) crawler.ArticleRecord {
	record := emptyRecord(pageURL)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		e.logger.Warn("Unparseable page; storing empty record", zap.String("url", pageURL), zap.Error(err))
		return record
	}

	record.URL = canonicalURL(doc, pageURL)

	rawTime, _ := attr(doc.Find(timestampSelector).First(), "datetime")
	record.CreatedAt = decomposeTimestamp(rawTime)
	if rawTime != "" && !record.CreatedAt.Decomposed() {
		e.logger.Debug("Unparseable article timestamp", zap.String("url", pageURL), zap.String("datetime", rawTime))
	}

	record.Headline = headline(doc)

	acc := &accumulator{pageURL: record.URL}
	doc.Find(blockSelector).Each(func(_ int, sel *goquery.Selection) {
		classify(sel).apply(acc)
	})
	if acc.authors != nil {
		record.Authors = acc.authors
	}
	if acc.images != nil {
		record.Images = acc.images
	}
	record.Text = acc.text.String()

	doc.Find(tagSelector).Each(func(_ int, li *goquery.Selection) {
		if tag := firstRun(li, "a"); tag != "" {
			record.Tags = append(record.Tags, tag)
		}
	})

	if record.Headline == crawler.HeadlineNotFound {
		e.logger.Debug("Page has no headline", zap.String("url", pageURL))
	}
	return record
}

func emptyRecord(pageURL string) crawler.ArticleRecord {
	return crawler.ArticleRecord{
		URL:      pageURL,
		Headline: crawler.HeadlineNotFound,
		Authors:  [][]string{},
		Images:   []crawler.Image{},
		Tags:     []string{},
	}
}

func canonicalURL(doc *goquery.Document, pageURL string) string {
	og, ok := attr(doc.Find(canonicalURLSelector).First(), "content")
	if !ok || og == "" {
		return pageURL
	}
	normalized, err := crawler.NormalizeURL(og)
	if err != nil {
		return pageURL
	}
	return normalized
}

func headline(doc *goquery.Document) string {
	sel := doc.Find(headlineSelector).First()
	if text := ownText(sel); text != "" {
		return text
	}
	if text := strings.Join(strings.Fields(sel.Text()), " "); text != "" {
		return text
	}
	return crawler.HeadlineNotFound
}

// resolveReference resolves a possibly relative src against the page URL.
// Unresolvable values are returned unchanged.
func resolveReference(pageURL, src string) string {
	ref, err := url.Parse(src)
	if err != nil || ref.IsAbs() {
		return src
	}
	base, err := url.Parse(pageURL)
	if err != nil || !base.IsAbs() {
		return src
	}
	return base.ResolveReference(ref).String()
}
