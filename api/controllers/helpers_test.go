package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/afrifurn-storefront/internal/catalog"
	"github.com/angelmondragon/afrifurn-storefront/internal/filters"
	pkgerrors "github.com/angelmondragon/afrifurn-storefront/pkg/errors"
)

func products(n int) []catalog.Product {
	out := make([]catalog.Product, n)
	for i := range out {
		out[i] = catalog.Product{ID: fmt.Sprintf("p%02d", i), ShortName: fmt.Sprintf("item-%d", i), Name: fmt.Sprintf("Item %d", i)}
	}
	return out
}

// stubCatalog serves canned data and records filter requests.
type stubCatalog struct {
	mu        sync.Mutex
	calls     []filters.QueryParameters
	products  []catalog.Product
	filterErr error
	facetErr  error
}

func (s *stubCatalog) FilterProducts(_ context.Context, params filters.QueryParameters) ([]catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, params)
	if s.filterErr != nil {
		return nil, s.filterErr
	}
	return append([]catalog.Product(nil), s.products...), nil
}

func (s *stubCatalog) ProductByShortName(_ context.Context, shortName string) (*catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.ShortName == shortName {
			found := p
			return &found, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (s *stubCatalog) Colors(context.Context) ([]catalog.Color, error) {
	if s.facetErr != nil {
		return nil, s.facetErr
	}
	return []catalog.Color{{ID: "c1", Name: "Red", Code: "#ff0000"}}, nil
}

func (s *stubCatalog) Materials(context.Context) ([]catalog.Material, error) {
	return []catalog.Material{{ID: "m1", Name: "Oak"}}, nil
}

func (s *stubCatalog) Categories(context.Context) ([]catalog.Category, error) {
	return []catalog.Category{{ID: "k1", Name: "Sofas"}}, nil
}

func (s *stubCatalog) Calls() []filters.QueryParameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]filters.QueryParameters(nil), s.calls...)
}

func (s *stubCatalog) setProducts(items []catalog.Product, err error) {
	s.mu.Lock()
	s.products = items
	s.filterErr = err
	s.mu.Unlock()
}

type request struct {
	method string
	target string
	body   string
	params map[string]string
}

func serve(t *testing.T, h http.Handler, req request) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if req.body != "" {
		body = strings.NewReader(req.body)
	}
	r := httptest.NewRequest(req.method, req.target, body)
	if len(req.params) > 0 {
		routeCtx := chi.NewRouteContext()
		for k, v := range req.params {
			routeCtx.URLParams.Add(k, v)
		}
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, routeCtx))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
	Pagination *struct {
		Page       int  `json:"page"`
		Size       int  `json:"size"`
		TotalItems int  `json:"total_items"`
		TotalPages int  `json:"total_pages"`
		HasNext    bool `json:"has_next"`
	} `json:"pagination"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

type sessionView struct {
	ID         string            `json:"id"`
	Query      string            `json:"query"`
	Pending    bool              `json:"pending"`
	Loading    bool              `json:"loading"`
	Filters    map[string]any    `json:"filters"`
	Committed  map[string]any    `json:"committed"`
	Products   []json.RawMessage `json:"products"`
	Error      *struct {
		Code string `json:"code"`
		Kind string `json:"kind"`
	} `json:"error"`
	Pagination struct {
		Page       int `json:"page"`
		TotalPages int `json:"total_pages"`
		TotalItems int `json:"total_items"`
	} `json:"pagination"`
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) sessionView {
	t.Helper()
	env := decodeEnvelope(t, rec)
	var view sessionView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	return view
}
