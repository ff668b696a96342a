package shopify

import "strings"

// PageInfo is the relay-style cursor block returned by connection fields.
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type edge[T any] struct {
	Node   T      `json:"node"`
	Cursor string `json:"cursor"`
}

// Connection is a GraphQL connection of T nodes.
type Connection[T any] struct {
	Edges    []edge[T] `json:"edges"`
	PageInfo PageInfo  `json:"pageInfo"`
}

func (c Connection[T]) Nodes() []T {
	nodes := make([]T, 0, len(c.Edges))
	for _, e := range c.Edges {
		nodes = append(nodes, e.Node)
	}
	return nodes
}

// Variant is a product variant as seen by the price sync.
type Variant struct {
	ID             string  `json:"id"`
	SKU            string  `json:"sku"`
	Title          string  `json:"title"`
	Price          string  `json:"price"`
	CompareAtPrice *string `json:"compareAtPrice"`
}

// VariantDetails is a variant together with its parent product's media.
type VariantDetails struct {
	ID      string         `json:"id"`
	SKU     string         `json:"sku"`
	Title   string         `json:"title"`
	Product ProductDetails `json:"product"`
}

type ProductDetails struct {
	ID       string              `json:"id"`
	Title    string              `json:"title"`
	Media    Connection[Media]   `json:"media"`
	Variants Connection[Variant] `json:"variants"`
}

type Image struct {
	URL string `json:"url"`
}

type MediaSource struct {
	URL string `json:"url"`
}

type Media struct {
	ID      string        `json:"id"`
	Alt     *string       `json:"alt"`
	Image   *Image        `json:"image"`
	Sources []MediaSource `json:"sources"`
}

// IsImage reports whether the media item is a MediaImage. Videos and 3D models are not.
func (m Media) IsImage() bool {
	return m.Image != nil
}

func (m Media) AltText() string {
	if m.Alt == nil {
		return ""
	}
	return *m.Alt
}

// CatalogProduct is the subset of product fields used for redirect matching.
type CatalogProduct struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Handle      string   `json:"handle"`
	ProductType string   `json:"productType"`
	Tags        []string `json:"tags"`
}

type Collection struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Handle      string `json:"handle"`
	Description string `json:"description"`
}

// UserError is a validation error reported by a mutation payload.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func (e UserError) String() string {
	if len(e.Field) == 0 {
		return e.Message
	}
	return strings.Join(e.Field, ".") + ": " + e.Message
}
