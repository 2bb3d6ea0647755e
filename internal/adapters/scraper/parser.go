package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"stream-resolver/internal/domain"
	"stream-resolver/pkg/log"
)

// NarrowToContainer returns the outer HTML of the first element matching
// container. When the selector is empty or invalid, matches nothing, or
// the markup cannot be parsed, the whole document is returned.
func NarrowToContainer(html, container string) string {
	if container == "" {
		return html
	}
	sel, err := cascadia.Compile(container)
	if err != nil {
		return html
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	block := doc.FindMatcher(sel).First()
	if block.Length() == 0 {
		return html
	}
	out, err := goquery.OuterHtml(block)
	if err != nil || out == "" {
		return html
	}
	return out
}

// ExtractTopTen collects, in document order, every item whose id attribute
// is numeric and which holds an image with a non-empty image attribute.
// Items that miss either are skipped; no match yields an empty slice.
func ExtractTopTen(fragment string, rules ListingRules) []domain.TopTenItem {
	items := []domain.TopTenItem{}

	itemSel, err := cascadia.Compile(rules.Item)
	if err != nil {
		return items
	}
	imageSels := make([]goquery.Matcher, 0, len(rules.ImageAttrs))
	for _, attr := range rules.ImageAttrs {
		if sel, err := cascadia.Compile(imageSelector(attr)); err == nil {
			imageSels = append(imageSels, sel)
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return items
	}

	doc.FindMatcher(itemSel).Each(func(_ int, s *goquery.Selection) {
		id := strings.TrimSpace(s.AttrOr(rules.IDAttr, ""))
		if !isDigits(id) {
			return
		}
		poster := findPoster(s, rules.ImageAttrs, imageSels)
		if poster == "" {
			return
		}
		items = append(items, domain.TopTenItem{ID: id, Poster: poster})
	})

	return items
}

// findPoster returns the first non-empty image attribute, trying the
// attributes in priority order.
func findPoster(item *goquery.Selection, attrs []string, sels []goquery.Matcher) string {
	for i, sel := range sels {
		var poster string
		item.FindMatcher(sel).EachWithBreak(func(_ int, img *goquery.Selection) bool {
			poster = strings.TrimSpace(img.AttrOr(attrs[i], ""))
			return poster == ""
		})
		if poster != "" {
			return poster
		}
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// TopTenParser runs both extraction stages with the current rules and
// makes posters absolute against the listing URL.
type TopTenParser struct {
	selectors *SelectorConfig
	base      *url.URL
}

// NewTopTenParser creates a parser. listingURL resolves relative posters;
// when it does not parse, relative posters are dropped.
func NewTopTenParser(selectors *SelectorConfig, listingURL string) *TopTenParser {
	base, err := url.Parse(listingURL)
	if err != nil || !base.IsAbs() {
		base = nil
	}
	return &TopTenParser{selectors: selectors, base: base}
}

// Parse never fails: parse trouble degrades to fewer (or zero) items.
func (p *TopTenParser) Parse(html string) (items []domain.TopTenItem) {
	defer func() {
		if r := recover(); r != nil {
			log.GlobalError("top10 parse panicked, returning empty list", "panic", r)
			items = []domain.TopTenItem{}
		}
	}()

	rules := p.selectors.Rules()
	block := NarrowToContainer(html, rules.Container)
	if block == html && rules.Container != "" {
		log.GlobalDebug("top10 container not found, scanning whole page", "container", rules.Container)
	}

	raw := ExtractTopTen(block, rules)
	items = make([]domain.TopTenItem, 0, len(raw))
	for _, it := range raw {
		poster, ok := p.absolute(it.Poster)
		if !ok {
			continue
		}
		items = append(items, domain.TopTenItem{ID: it.ID, Poster: poster})
	}
	return items
}

func (p *TopTenParser) absolute(poster string) (string, bool) {
	u, err := url.Parse(poster)
	if err != nil {
		return "", false
	}
	if u.IsAbs() {
		return u.String(), true
	}
	if p.base == nil {
		return "", false
	}
	return p.base.ResolveReference(u).String(), true
}
