package seo

import "context"

type UseCase interface {
	// Meta resolves route (and slug for product and category pages) into head metadata.
	Meta(ctx context.Context, route, slug, lang string) (*Meta, error)
	// Sitemap returns the encoded sitemap, from cache when fresh.
	Sitemap(ctx context.Context) ([]byte, error)
	// GenerateSitemap rebuilds the sitemap and refreshes the cache.
	GenerateSitemap(ctx context.Context) ([]byte, error)
}
