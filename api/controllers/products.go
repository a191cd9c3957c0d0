package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/afrifurn-storefront/api/responses"
	"github.com/angelmondragon/afrifurn-storefront/api/validators"
	"github.com/angelmondragon/afrifurn-storefront/internal/catalog"
	"github.com/angelmondragon/afrifurn-storefront/internal/filters"
	pkgerrors "github.com/angelmondragon/afrifurn-storefront/pkg/errors"
	"github.com/angelmondragon/afrifurn-storefront/pkg/logger"
	"github.com/angelmondragon/afrifurn-storefront/pkg/pagination"
)

const maxShortNameLen = 128

// ListProducts is the stateless listing: the query string is a filter snapshot in wire form,
// plus view_page and view_size for the client-side pager.
func ListProducts(source catalog.Catalog, defaultSize int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if source == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product catalog unavailable"))
			return
		}

		snap, err := filters.ParseQuery(r.URL.Query())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		size := snap.PageSize
		if size <= 0 {
			size = defaultSize
		}
		viewSize, err := validators.ParseQueryInt(r, "view_size", pagination.NormalizeSize(size), 1, pagination.MaxSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		viewPage, err := validators.ParseQueryInt(r, "view_page", 1, 1, 1<<20)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, err := source.FilterProducts(r.Context(), filters.Serialize(snap))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, window := pagination.Slice(products, viewPage, viewSize)
		responses.WriteList(w, items, window)
	}
}

func GetProduct(source catalog.Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if source == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product catalog unavailable"))
			return
		}

		shortName := validators.SanitizeString(chi.URLParam(r, "shortName"), maxShortNameLen)
		if shortName == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "short name is required"))
			return
		}

		product, err := source.ProductByShortName(r.Context(), shortName)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ListFacets returns the reference data the filter widgets render their options from.
func ListFacets(source catalog.Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if source == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product catalog unavailable"))
			return
		}

		facets, err := catalog.LoadFacets(r.Context(), source)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, facets)
	}
}
