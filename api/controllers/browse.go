package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/afrifurn-storefront/api/responses"
	"github.com/angelmondragon/afrifurn-storefront/api/validators"
	"github.com/angelmondragon/afrifurn-storefront/internal/browse"
	"github.com/angelmondragon/afrifurn-storefront/internal/filters"
	"github.com/angelmondragon/afrifurn-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/afrifurn-storefront/pkg/errors"
	"github.com/angelmondragon/afrifurn-storefront/pkg/logger"
)

// BrowseSessions is the session registry the browse handlers work against.
type BrowseSessions interface {
	Create(ctx context.Context, initial filters.Snapshot) (*browse.Session, error)
	Get(id string) (*browse.Session, error)
	Delete(ctx context.Context, id string) error
}

var errSessionsUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "browse sessions unavailable")

// filterBody is the JSON form of a filter snapshot or of a facet edit. Absent keys mean
// "unchanged" on PATCH and "unset" on create.
type filterBody struct {
	PriceMin  *decimal.Decimal `json:"start_price,omitempty"`
	PriceMax  *decimal.Decimal `json:"end_price,omitempty"`
	Colors    []string         `json:"colors,omitempty" validate:"omitempty,max=50,dive,max=64"`
	Materials []string         `json:"materials,omitempty" validate:"omitempty,max=50,dive,max=64"`
	Width     *decimal.Decimal `json:"width,omitempty"`
	Length    *decimal.Decimal `json:"length,omitempty"`
	Depth     *decimal.Decimal `json:"depth,omitempty"`
	Height    *decimal.Decimal `json:"height,omitempty"`
	Category  *string          `json:"category,omitempty" validate:"omitempty,max=128"`
	ShortName *string          `json:"short_name,omitempty" validate:"omitempty,max=128"`
	SortBy    *string          `json:"sort_by,omitempty" validate:"omitempty,max=64"`
	SortOrder *string          `json:"sort_order,omitempty" validate:"omitempty,oneof=asc desc ascending descending 1 -1"`
	Name      *string          `json:"name,omitempty" validate:"omitempty,max=256"`
}

type createSessionBody struct {
	filterBody
	Page     *int `json:"page,omitempty" validate:"omitempty,gte=1"`
	PageSize *int `json:"page_size,omitempty" validate:"omitempty,gte=1,max=100"`
}

type updateFiltersBody struct {
	filterBody
	Clear []string `json:"clear,omitempty" validate:"omitempty,max=16,dive,required"`
}

func (b filterBody) toPartial() (filters.Partial, error) {
	p := filters.Partial{
		PriceMin:  b.PriceMin,
		PriceMax:  b.PriceMax,
		Width:     b.Width,
		Length:    b.Length,
		Depth:     b.Depth,
		Height:    b.Height,
		Category:  b.Category,
		ShortName: b.ShortName,
		SortBy:    b.SortBy,
		Name:      b.Name,
	}
	if b.Colors != nil {
		colors := filters.NewSet(b.Colors...)
		p.Colors = &colors
	}
	if b.Materials != nil {
		materials := filters.NewSet(b.Materials...)
		p.Materials = &materials
	}
	if b.SortOrder != nil {
		order, err := enums.ParseSortOrder(*b.SortOrder)
		if err != nil {
			return filters.Partial{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid filters").
				WithDetails(map[string]string{string(filters.FacetSortOrder): "must be asc or desc"})
		}
		p.SortOrder = &order
	}
	return p, nil
}

func (b createSessionBody) toSnapshot() (filters.Snapshot, error) {
	partial, err := b.toPartial()
	if err != nil {
		return filters.Snapshot{}, err
	}
	snap := filters.Snapshot{}.Apply(partial)
	if b.Page != nil {
		snap.Page = *b.Page
	}
	if b.PageSize != nil {
		snap.PageSize = *b.PageSize
	}
	return snap, nil
}

func (b updateFiltersBody) toPartial() (filters.Partial, error) {
	partial, err := b.filterBody.toPartial()
	if err != nil {
		return filters.Partial{}, err
	}
	for _, name := range b.Clear {
		facet, err := filters.ParseFacet(name)
		if err != nil {
			return filters.Partial{}, err
		}
		partial.Clear = append(partial.Clear, facet)
	}
	return partial, nil
}

func CreateBrowseSession(sessions BrowseSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, errSessionsUnavailable)
			return
		}
		var body createSessionBody
		if err := validators.DecodeJSONBody(w, r, &body, true); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		initial, err := body.toSnapshot()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := sessions.Create(r.Context(), initial)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set("Location", "/api/v1/browse/sessions/"+session.ID())
		responses.WriteSuccessStatus(w, http.StatusCreated, session.View())
	}
}

// GetBrowseSession renders the session. ?page= moves the client-side pager first.
func GetBrowseSession(sessions BrowseSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := lookupSession(w, r, sessions, logg)
		if !ok {
			return
		}
		if strings.TrimSpace(r.URL.Query().Get("page")) != "" {
			page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<20)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if err := session.SetViewPage(page); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		responses.WriteSuccess(w, session.View())
	}
}

// UpdateBrowseFilters applies a facet edit. The fetch is debounced unless ?flush=true.
func UpdateBrowseFilters(sessions BrowseSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := lookupSession(w, r, sessions, logg)
		if !ok {
			return
		}
		flush, err := validators.ParseQueryBool(r, "flush", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateFiltersBody
		if err := validators.DecodeJSONBody(w, r, &body, false); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partial, err := body.toPartial()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := session.Filters().Apply(partial).Validate(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := session.Update(partial); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if flush {
			if _, err := session.Flush(); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, session.View())
	}
}

func ResetBrowseSession(sessions BrowseSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := lookupSession(w, r, sessions, logg)
		if !ok {
			return
		}
		if _, err := session.Reset(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, session.View())
	}
}

// RefreshBrowseSession retries the committed snapshot, typically after a failed fetch.
func RefreshBrowseSession(sessions BrowseSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := lookupSession(w, r, sessions, logg)
		if !ok {
			return
		}
		if err := session.Refresh(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, session.View())
	}
}

func DeleteBrowseSession(sessions BrowseSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, errSessionsUnavailable)
			return
		}
		id := strings.TrimSpace(chi.URLParam(r, "sessionId"))
		if err := sessions.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func lookupSession(w http.ResponseWriter, r *http.Request, sessions BrowseSessions, logg *logger.Logger) (*browse.Session, bool) {
	if sessions == nil {
		responses.WriteError(r.Context(), logg, w, errSessionsUnavailable)
		return nil, false
	}
	id := strings.TrimSpace(chi.URLParam(r, "sessionId"))
	if id == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session id is required"))
		return nil, false
	}
	session, err := sessions.Get(id)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	return session, true
}
