package catalog

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// FacetCatalog is the read-only reference data the filter widgets choose from. It is loaded
// per request and passed explicitly to whoever needs it.
type FacetCatalog struct {
	Colors     []Color    `json:"colors"`
	Materials  []Material `json:"materials"`
	Categories []Category `json:"categories"`
}

// LoadFacets fetches colors, materials and categories concurrently.
func LoadFacets(ctx context.Context, source Catalog) (FacetCatalog, error) {
	var out FacetCatalog
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		colors, err := source.Colors(gctx)
		out.Colors = colors
		return err
	})
	g.Go(func() error {
		materials, err := source.Materials(gctx)
		out.Materials = materials
		return err
	})
	g.Go(func() error {
		categories, err := source.Categories(gctx)
		out.Categories = categories
		return err
	})
	if err := g.Wait(); err != nil {
		return FacetCatalog{}, err
	}
	return out, nil
}
