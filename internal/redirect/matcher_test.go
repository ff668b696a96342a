package redirect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testProducts = []Item{
		{Kind: KindProduct, Title: "Desk Lamp", Handle: "desk-lamp", ProductType: "Lighting", Tags: []string{"office", "brass"}},
		{Kind: KindProduct, Title: "Oak Office Chair", Handle: "oak-office-chair", ProductType: "Furniture", Tags: []string{"wood"}},
		{Kind: KindProduct, Title: "Floor Lamp", Handle: "floor-lamp-tall", ProductType: "Lighting"},
	}
	testCollections = []Item{
		{Kind: KindCollection, Title: "Lighting", Handle: "lighting", Description: "Lamps for every room"},
		{Kind: KindCollection, Title: "Office Furniture", Handle: "office-furniture", Description: "Desks and chairs"},
	}
)

func TestKeywords(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want []string
	}{
		{"product path", "https://shop.example.com/products/the-red-desk-lamp/", []string{"red", "desk", "lamp"}},
		{"other path", "https://shop.example.com/pages/about-us", []string{"pages"}},
		{"escaped chars", "/collections/Summer_Sale%20Items", []string{"summer", "sale", "items"}},
		{"query ignored", "https://shop.example.com/products/oak-chair?variant=123", []string{"oak", "chair"}},
		{"home page", "https://shop.example.com/", nil},
		{"short words only", "https://shop.example.com/products/a-to-of", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Keywords(tt.url))
		})
	}
}

func TestURLKind(t *testing.T) {
	assert.Equal(t, KindCollection, URLKind("https://shop.example.com/collections/lighting"))
	assert.Equal(t, KindCollection, URLKind("https://shop.example.com/collections/lighting/products/desk-lamp"))
	assert.Equal(t, KindProduct, URLKind("/products/desk-lamp"))
	assert.Equal(t, KindUnknown, URLKind("https://shop.example.com/blogs/news"))
	assert.Equal(t, KindUnknown, URLKind("://bad"))
}

func TestScore(t *testing.T) {
	item := Item{Title: "Desk Lamp", Handle: "desk-lamp-red", Tags: []string{"brass"}}

	assert.InDelta(t, 8.0/3.0, Score([]string{"red", "desk", "lamp"}, item), 1e-9)
	assert.InDelta(t, 1.0, Score([]string{"brass"}, item), 1e-9)
	assert.InDelta(t, 0.5, Score([]string{"brass", "chair"}, item), 1e-9)
	assert.Zero(t, Score([]string{"chair"}, item))
	assert.Zero(t, Score(nil, item))
}

func TestBestMatch(t *testing.T) {
	t.Run("picks highest score", func(t *testing.T) {
		m, ok := BestMatch([]string{"floor", "lamp"}, testProducts, testCollections, KindUnknown, DefaultThreshold)
		require.True(t, ok)
		assert.Equal(t, "floor-lamp-tall", m.Item.Handle)
		assert.InDelta(t, 3.0, m.Score, 1e-9)
	})

	t.Run("ties keep the earliest", func(t *testing.T) {
		m, ok := BestMatch([]string{"lamp"}, testProducts, testCollections, KindUnknown, DefaultThreshold)
		require.True(t, ok)
		assert.Equal(t, "desk-lamp", m.Item.Handle)
	})

	t.Run("preferred kind restricts candidates", func(t *testing.T) {
		m, ok := BestMatch([]string{"desk", "lamp"}, testProducts, testCollections, KindCollection, DefaultThreshold)
		require.True(t, ok)
		assert.Equal(t, KindCollection, m.Item.Kind)
	})

	t.Run("score must exceed threshold", func(t *testing.T) {
		keywords := []string{"desk", "aaa", "bbb", "ccc", "ddd", "eee", "fff", "ggg", "hhh", "iii"}
		items := []Item{{Kind: KindProduct, Title: "Desk", Handle: "x"}}
		assert.InDelta(t, 0.3, Score(keywords, items[0]), 1e-12)

		_, ok := BestMatch(keywords, items, nil, KindProduct, DefaultThreshold)
		assert.False(t, ok)
	})

	t.Run("no candidates", func(t *testing.T) {
		_, ok := BestMatch([]string{"lamp"}, nil, nil, KindUnknown, DefaultThreshold)
		assert.False(t, ok)
	})
}

func TestExactMatch(t *testing.T) {
	item, ok := ExactMatch("https://shop.example.com/products/desk-lamp?variant=1", testProducts, testCollections)
	require.True(t, ok)
	assert.Equal(t, "/products/desk-lamp", item.Path())

	item, ok = ExactMatch("https://shop.example.com/collections/lighting/products/gone", testProducts, testCollections)
	require.True(t, ok)
	assert.Equal(t, "/collections/lighting", item.Path())

	_, ok = ExactMatch("https://shop.example.com/products/desk", testProducts, testCollections)
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	assert.True(t, Validate("/", testProducts, testCollections))
	assert.True(t, Validate("", testProducts, testCollections))
	assert.True(t, Validate("/products/desk-lamp", testProducts, testCollections))
	assert.True(t, Validate("collections/lighting", testProducts, testCollections))
	assert.False(t, Validate("/products/lighting", testProducts, testCollections))
	assert.False(t, Validate("/pages/contact", testProducts, testCollections))
}

func TestMatcherResolve(t *testing.T) {
	m := &Matcher{
		Products:     testProducts,
		Collections:  testCollections,
		Threshold:    DefaultThreshold,
		HomeKeywords: []string{"abdos"},
	}

	tests := []struct {
		name   string
		url    string
		target string
		reason string
	}{
		{"home keyword", "https://shop.example.com/products/ABDOS-belt", HomePath, ReasonHomeKeyword},
		{"exact product", "https://shop.example.com/products/desk-lamp", "/products/desk-lamp", ReasonExact},
		{"exact collection", "https://shop.example.com/collections/office-furniture", "/collections/office-furniture", ReasonExact},
		{"no keywords", "https://shop.example.com/", HomePath, ReasonNoKeywords},
		{"similar product", "https://shop.example.com/products/tall-floor-lamp-black", "/products/floor-lamp-tall", ReasonSimilarity},
		{"similar collection keeps kind", "https://shop.example.com/collections/office-chairs", "/collections/office-furniture", ReasonSimilarity},
		{"no match", "https://shop.example.com/products/garden-hose", HomePath, ReasonNoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := m.Resolve(tt.url)
			assert.Equal(t, tt.target, d.Target)
			assert.Equal(t, tt.reason, d.Reason)
			assert.True(t, strings.HasPrefix(d.Target, "/"))
		})
	}
}

func TestMatcherResolve_InvalidTarget(t *testing.T) {
	m := &Matcher{
		Products:  []Item{{Kind: KindCollection, Title: "Ghost Lamp", Handle: "ghost-lamp"}},
		Threshold: DefaultThreshold,
	}

	d := m.Resolve("https://shop.example.com/products/ghost-lamp-old")
	assert.Equal(t, HomePath, d.Target)
	assert.Equal(t, ReasonInvalidTarget, d.Reason)
	require.NotNil(t, d.Match)
	assert.Equal(t, "ghost-lamp", d.Match.Handle)
}
