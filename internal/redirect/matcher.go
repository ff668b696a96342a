// Package redirect maps dead storefront URLs onto live product and collection
// pages by keyword overlap.
package redirect

import (
	"net/url"
	"regexp"
	"strings"
)

// Kind is the page type a URL points at.
type Kind string

const (
	KindUnknown    Kind = ""
	KindProduct    Kind = "product"
	KindCollection Kind = "collection"
)

// HomePath is the fallback redirect target.
const HomePath = "/"

// DefaultThreshold is the score a similarity match must exceed.
const DefaultThreshold = 0.3

// Reasons reported on a Decision.
const (
	ReasonHomeKeyword   = "home-keyword"
	ReasonExact         = "exact"
	ReasonSimilarity    = "similarity"
	ReasonNoKeywords    = "no-keywords"
	ReasonNoMatch       = "no-match"
	ReasonInvalidTarget = "invalid-target"
)

var (
	leadingSection = regexp.MustCompile(`^/+(products|collections)/+`)
	trailingSlash  = regexp.MustCompile(`/+$`)
	nonWord        = regexp.MustCompile(`[^a-zA-Z0-9\-\s]`)
	productHandle  = regexp.MustCompile(`/products/([^/?]+)`)
	collectionPath = regexp.MustCompile(`/collections/([^/?]+)`)
)

var stopWords = map[string]bool{
	"the": true, "and": true, "or": true, "but": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "of": true, "with": true, "by": true,
	"from": true, "up": true, "about": true, "into": true, "over": true, "after": true,
}

// Item is a product or collection that can receive redirects. Products carry
// ProductType and Tags, collections carry Description.
type Item struct {
	Kind        Kind
	Title       string
	Handle      string
	ProductType string
	Tags        []string
	Description string
}

// Path is the storefront path of the item.
func (i Item) Path() string {
	return Path(i.Kind, i.Handle)
}

func (i Item) text() string {
	return strings.ToLower(strings.Join([]string{
		i.Title, i.Handle, i.ProductType, strings.Join(i.Tags, " "), i.Description,
	}, " "))
}

// Match is a candidate redirect target with its score.
type Match struct {
	Item  Item
	Score float64
}

// Decision is the outcome of resolving one URL.
type Decision struct {
	Target   string
	Reason   string
	Score    float64
	Keywords []string
	Match    *Item
}

// Path builds /products/<handle> or /collections/<handle>.
func Path(kind Kind, handle string) string {
	if kind == KindCollection {
		return "/collections/" + handle
	}
	return "/products/" + handle
}

// pathOf extracts the path from absolute or relative URLs.
func pathOf(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	return u.Path, true
}

// Keywords tokenizes the path of rawURL into lower-case search terms.
func Keywords(rawURL string) []string {
	p, ok := pathOf(rawURL)
	if !ok {
		return nil
	}

	p = leadingSection.ReplaceAllString(p, "")
	p = trailingSlash.ReplaceAllString(p, "")
	p = nonWord.ReplaceAllString(p, " ")
	p = strings.ReplaceAll(p, "-", " ")
	p = strings.ToLower(p)

	var keywords []string
	for _, word := range strings.Fields(p) {
		if len(word) > 2 && !stopWords[word] {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

// URLKind reports whether rawURL points at a collection or a product page.
func URLKind(rawURL string) Kind {
	p, ok := pathOf(rawURL)
	if !ok {
		return KindUnknown
	}
	switch {
	case strings.Contains(p, "/collections/"):
		return KindCollection
	case strings.Contains(p, "/products/"):
		return KindProduct
	}
	return KindUnknown
}

// Score weighs each keyword found in the item: 3 for a title hit, 2 for a
// handle hit, 1 for anywhere else. The sum is averaged over all keywords.
func Score(keywords []string, item Item) float64 {
	if len(keywords) == 0 {
		return 0
	}

	text := item.text()
	title := strings.ToLower(item.Title)
	handle := strings.ToLower(item.Handle)

	var score int
	for _, kw := range keywords {
		if !strings.Contains(text, kw) {
			continue
		}
		switch {
		case strings.Contains(title, kw):
			score += 3
		case strings.Contains(handle, kw):
			score += 2
		default:
			score++
		}
	}
	return float64(score) / float64(len(keywords))
}

// BestMatch scores candidates of the preferred kind, or products followed by
// collections when the kind is unknown. Ties keep the earliest candidate. A
// match is returned only when its score exceeds threshold.
func BestMatch(keywords []string, products, collections []Item, preferred Kind, threshold float64) (Match, bool) {
	var candidates [][]Item
	switch preferred {
	case KindProduct:
		candidates = [][]Item{products}
	case KindCollection:
		candidates = [][]Item{collections}
	default:
		candidates = [][]Item{products, collections}
	}

	var best Match
	for _, group := range candidates {
		for _, item := range group {
			if s := Score(keywords, item); s > best.Score {
				best = Match{Item: item, Score: s}
			}
		}
	}

	if best.Score > threshold {
		return best, true
	}
	return Match{}, false
}

// ExactMatch finds the item whose handle appears verbatim in rawURL.
func ExactMatch(rawURL string, products, collections []Item) (Item, bool) {
	p, ok := pathOf(rawURL)
	if !ok {
		return Item{}, false
	}

	if m := productHandle.FindStringSubmatch(p); m != nil {
		if item, ok := findHandle(products, m[1]); ok {
			return item, true
		}
	}
	if m := collectionPath.FindStringSubmatch(p); m != nil {
		if item, ok := findHandle(collections, m[1]); ok {
			return item, true
		}
	}
	return Item{}, false
}

// Validate reports whether target is the home page or names a catalog item.
func Validate(target string, products, collections []Item) bool {
	clean := strings.TrimPrefix(target, "/")
	switch {
	case strings.HasPrefix(clean, "products/"):
		_, ok := findHandle(products, strings.TrimPrefix(clean, "products/"))
		return ok
	case strings.HasPrefix(clean, "collections/"):
		_, ok := findHandle(collections, strings.TrimPrefix(clean, "collections/"))
		return ok
	}
	return clean == "" || clean == "/"
}

func findHandle(items []Item, handle string) (Item, bool) {
	for _, item := range items {
		if item.Handle == handle {
			return item, true
		}
	}
	return Item{}, false
}

// Matcher resolves dead URLs against a loaded catalog.
type Matcher struct {
	Products     []Item
	Collections  []Item
	Threshold    float64
	HomeKeywords []string
}

// Resolve picks the redirect target for rawURL. Every path through Resolve
// yields a target; HomePath is used when nothing better is found.
func (m *Matcher) Resolve(rawURL string) Decision {
	lower := strings.ToLower(rawURL)
	for _, kw := range m.HomeKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return Decision{Target: HomePath, Reason: ReasonHomeKeyword}
		}
	}

	if item, ok := ExactMatch(rawURL, m.Products, m.Collections); ok {
		return Decision{Target: item.Path(), Reason: ReasonExact, Score: 1, Match: &item}
	}

	keywords := Keywords(rawURL)
	if len(keywords) == 0 {
		return Decision{Target: HomePath, Reason: ReasonNoKeywords}
	}

	best, ok := BestMatch(keywords, m.Products, m.Collections, URLKind(rawURL), m.Threshold)
	if !ok {
		return Decision{Target: HomePath, Reason: ReasonNoMatch, Keywords: keywords}
	}

	target := best.Item.Path()
	if !Validate(target, m.Products, m.Collections) {
		return Decision{Target: HomePath, Reason: ReasonInvalidTarget, Score: best.Score, Keywords: keywords, Match: &best.Item}
	}
	return Decision{Target: target, Reason: ReasonSimilarity, Score: best.Score, Keywords: keywords, Match: &best.Item}
}
