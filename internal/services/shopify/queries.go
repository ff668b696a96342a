package shopify

const variantBySKUQuery = `
query variantBySKU($query: String!) {
	productVariants(first: 1, query: $query) {
		edges {
			node {
				id
				sku
				title
				price
				compareAtPrice
			}
		}
	}
}`

const productDetailsBySKUQuery = `
query productDetailsBySKU($query: String!) {
	productVariants(first: 1, query: $query) {
		edges {
			node {
				id
				sku
				title
				product {
					id
					title
					media(first: 50) {
						edges {
							node {
								id
								alt
								... on MediaImage {
									image {
										url
									}
								}
								... on Video {
									sources {
										url
									}
								}
							}
						}
					}
					variants(first: 50) {
						edges {
							node {
								id
								title
								sku
							}
						}
					}
				}
			}
		}
	}
}`

const variantUpdateMutation = `
mutation productVariantUpdate($input: ProductVariantInput!) {
	productVariantUpdate(input: $input) {
		productVariant {
			id
			price
			compareAtPrice
		}
		userErrors {
			field
			message
		}
	}
}`

const mediaUpdateMutation = `
mutation mediaUpdate($media: [UpdateMediaInput!]!) {
	mediaUpdate(media: $media) {
		media {
			id
			alt
		}
		mediaUserErrors {
			field
			message
		}
	}
}`

const productsPageQuery = `
query productsPage($cursor: String) {
	products(first: 250, after: $cursor) {
		edges {
			node {
				id
				title
				handle
				productType
				tags
			}
			cursor
		}
		pageInfo {
			hasNextPage
			endCursor
		}
	}
}`

const collectionsPageQuery = `
query collectionsPage($cursor: String) {
	collections(first: 250, after: $cursor) {
		edges {
			node {
				id
				title
				handle
				description
			}
			cursor
		}
		pageInfo {
			hasNextPage
			endCursor
		}
	}
}`
