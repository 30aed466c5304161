package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/news-article-crawler/internal/crawler"
)

// Block kinds carried in the data-component attribute of article children.
const (
	componentByline        = "byline-block"
	componentText          = "text-block"
	componentUnorderedList = "unordered-list-block"
	componentImage         = "image-block"
	componentSubheadline   = "subheadline-block"
)

// accumulator collects the block-derived fields of a record in document order.
type accumulator struct {
	authors  [][]string
	text     strings.Builder
	images   []crawler.Image
	imageSeq int
	pageURL  string
}

// block is one classified article child. The set of implementations is closed:
// classify is the only constructor.
type block interface {
	apply(acc *accumulator)
}

type (
	bylineBlock        struct{ sel *goquery.Selection }
	textBlock          struct{ sel *goquery.Selection }
	unorderedListBlock struct{ sel *goquery.Selection }
	imageBlock         struct{ sel *goquery.Selection }
	subheadlineBlock   struct{ sel *goquery.Selection }
	ignoredBlock       struct{}
)

// classify maps an article child to its block variant.
func classify(sel *goquery.Selection) block {
	component, _ := attr(sel, "data-component")
	switch component {
	case componentByline:
		return bylineBlock{sel: sel}
	case componentText:
		return textBlock{sel: sel}
	case componentUnorderedList:
		return unorderedListBlock{sel: sel}
	case componentImage:
		return imageBlock{sel: sel}
	case componentSubheadline:
		return subheadlineBlock{sel: sel}
	default:
		return ignoredBlock{}
	}
}

// apply appends one co-author group parsed from "By A and B".
func (b bylineBlock) apply(acc *accumulator) {
	line := firstRun(b.sel, "div")
	if line == "" {
		return
	}
	line = strings.TrimSpace(strings.TrimPrefix(line, "By "))
	var group []string
	for _, name := range strings.Split(line, " and ") {
		if name = strings.TrimSpace(name); name != "" {
			group = append(group, name)
		}
	}
	if len(group) > 0 {
		acc.authors = append(acc.authors, group)
	}
}

func (b textBlock) apply(acc *accumulator) {
	acc.text.WriteString(firstRun(b.sel, "p", "a", "b"))
	acc.text.WriteByte('\n')
}

func (b unorderedListBlock) apply(acc *accumulator) {
	b.sel.Find("ul li").Each(func(_ int, li *goquery.Selection) {
		acc.text.WriteString("- ")
		acc.text.WriteString(strings.Join(textRuns(li, "li", "p", "a", "b"), " "))
		acc.text.WriteByte('\n')
	})
}

func (b imageBlock) apply(acc *accumulator) {
	// A block with no <img> still takes a marker, with source and
	// description left null.
	img := b.sel.Find("img").First()
	alt, hasAlt := attr(img, "alt")
	if alt == crawler.DecorativeImageAlt {
		return
	}
	ref := fmt.Sprintf("Image-%d", acc.imageSeq)
	acc.imageSeq++

	image := crawler.Image{Ref: ref}
	if hasAlt {
		image.Description = &alt
	}
	if src, ok := attr(img, "src"); ok && src != "" {
		resolved := resolveReference(acc.pageURL, src)
		image.Source = &resolved
	}
	acc.images = append(acc.images, image)
	fmt.Fprintf(&acc.text, "@%s\n", ref)
}

func (b subheadlineBlock) apply(acc *accumulator) {
	heading := firstRun(b.sel, "span")
	if heading == "" {
		heading = strings.TrimSpace(b.sel.Text())
	}
	if heading == "" {
		return
	}
	fmt.Fprintf(&acc.text, "---%s---\n", heading)
}

func (ignoredBlock) apply(*accumulator) {}
