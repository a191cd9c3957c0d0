package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/afrifurn-storefront/internal/browse"
	"github.com/angelmondragon/afrifurn-storefront/internal/filters"
	pkgerrors "github.com/angelmondragon/afrifurn-storefront/pkg/errors"
	"github.com/angelmondragon/afrifurn-storefront/pkg/logger"
	"github.com/angelmondragon/afrifurn-storefront/pkg/metrics"
)

// newSessions runs with a zero debounce so every edit commits synchronously.
func newSessions(t *testing.T, source *stubCatalog) *browse.Manager {
	t.Helper()
	manager := browse.NewManager(source, browse.ManagerConfig{
		PageSize:    12,
		SessionTTL:  time.Hour,
		MaxSessions: 2,
	}, logger.Nop(), metrics.NewBrowseMetrics(prometheus.NewRegistry()))
	t.Cleanup(func() { _ = manager.Close() })
	return manager
}

func createSession(t *testing.T, sessions *browse.Manager, body string) sessionView {
	t.Helper()
	rec := serve(t, CreateBrowseSession(sessions, logger.Nop()), request{method: http.MethodPost, target: "/api/v1/browse/sessions", body: body})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view := decodeView(t, rec)
	require.NotEmpty(t, view.ID)
	assert.Equal(t, "/api/v1/browse/sessions/"+view.ID, rec.Header().Get("Location"))
	return view
}

func waitSession(t *testing.T, sessions *browse.Manager, id string) {
	t.Helper()
	session, err := sessions.Get(id)
	require.NoError(t, err)
	session.Wait()
}

func getView(t *testing.T, sessions *browse.Manager, id, query string) sessionView {
	t.Helper()
	rec := serve(t, GetBrowseSession(sessions, logger.Nop()), request{
		method: http.MethodGet,
		target: "/api/v1/browse/sessions/" + id + query,
		params: map[string]string{"sessionId": id},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeView(t, rec)
}

func TestBrowseSessionColorSelectionEndToEnd(t *testing.T) {
	source := &stubCatalog{products: products(12)}
	sessions := newSessions(t, source)

	created := createSession(t, sessions, `{"start_price":0,"end_price":1000,"page":1,"page_size":12}`)
	waitSession(t, sessions, created.ID)
	require.Len(t, source.Calls(), 1)
	assert.Equal(t, "start_price=0&end_price=1000&page=1&page_size=12", source.Calls()[0].Encode())

	rec := serve(t, UpdateBrowseFilters(sessions, logger.Nop()), request{
		method: http.MethodPatch,
		target: "/api/v1/browse/sessions/" + created.ID + "/filters",
		body:   `{"colors":["#ff0000"]}`,
		params: map[string]string{"sessionId": created.ID},
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	waitSession(t, sessions, created.ID)

	calls := source.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "start_price=0&end_price=1000&colors=%5B%22%23ff0000%22%5D&page=1&page_size=12", calls[1].Encode())

	view := getView(t, sessions, created.ID, "")
	assert.Equal(t, calls[1].Encode(), view.Query)
	assert.False(t, view.Loading)
	assert.Nil(t, view.Error)
	assert.Len(t, view.Products, 12)
	assert.Equal(t, 1, view.Pagination.TotalPages)
	assert.Equal(t, []any{"#ff0000"}, view.Committed["colors"])
}

func TestBrowseSessionViewPageAndReset(t *testing.T) {
	source := &stubCatalog{products: products(25)}
	sessions := newSessions(t, source)

	created := createSession(t, sessions, `{"category":"sofas","page_size":10}`)
	waitSession(t, sessions, created.ID)

	view := getView(t, sessions, created.ID, "?page=3")
	assert.Equal(t, 3, view.Pagination.Page)
	assert.Len(t, view.Products, 5)

	rec := serve(t, UpdateBrowseFilters(sessions, logger.Nop()), request{
		method: http.MethodPatch,
		target: "/api/v1/browse/sessions/" + created.ID + "/filters?flush=true",
		body:   `{"name":"corner"}`,
		params: map[string]string{"sessionId": created.ID},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	waitSession(t, sessions, created.ID)

	view = getView(t, sessions, created.ID, "")
	assert.Equal(t, 1, view.Pagination.Page, "a facet edit moves the pager back to the first page")
	assert.Equal(t, "corner", view.Filters["name"])

	rec = serve(t, ResetBrowseSession(sessions, logger.Nop()), request{
		method: http.MethodPost,
		target: "/api/v1/browse/sessions/" + created.ID + "/reset",
		params: map[string]string{"sessionId": created.ID},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	waitSession(t, sessions, created.ID)

	view = getView(t, sessions, created.ID, "")
	assert.NotContains(t, view.Filters, "name")
	assert.Equal(t, "sofas", view.Committed["category"])
}

func TestBrowseSessionClearFacets(t *testing.T) {
	source := &stubCatalog{products: products(3)}
	sessions := newSessions(t, source)
	created := createSession(t, sessions, `{"colors":["#00ff00","#ff0000"],"materials":["oak"]}`)
	waitSession(t, sessions, created.ID)

	rec := serve(t, UpdateBrowseFilters(sessions, logger.Nop()), request{
		method: http.MethodPatch,
		target: "/api/v1/browse/sessions/" + created.ID + "/filters",
		body:   `{"clear":["colors"]}`,
		params: map[string]string{"sessionId": created.ID},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	waitSession(t, sessions, created.ID)

	calls := source.Calls()
	last := calls[len(calls)-1]
	_, hasColors := last.Get("colors")
	assert.False(t, hasColors)
	materials, ok := last.Get("materials")
	require.True(t, ok)
	assert.Equal(t, `["oak"]`, materials)
}

func TestBrowseSessionRejectsInvalidEdits(t *testing.T) {
	source := &stubCatalog{}
	sessions := newSessions(t, source)
	created := createSession(t, sessions, `{"end_price":100}`)
	waitSession(t, sessions, created.ID)
	before := len(source.Calls())

	cases := map[string]string{
		"min above max":  `{"start_price":500}`,
		"negative width": `{"width":-1}`,
		"unknown facet":  `{"clear":["texture"]}`,
		"unknown field":  `{"texture":"rough"}`,
		"bad sort order": `{"sort_order":"sideways"}`,
		"empty body":     ``,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := serve(t, UpdateBrowseFilters(sessions, logger.Nop()), request{
				method: http.MethodPatch,
				target: "/api/v1/browse/sessions/" + created.ID + "/filters",
				body:   body,
				params: map[string]string{"sessionId": created.ID},
			})
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, string(pkgerrors.CodeValidation), decodeEnvelope(t, rec).Error.Code)
		})
	}
	assert.Len(t, source.Calls(), before)
}

func TestBrowseSessionCreateValidation(t *testing.T) {
	sessions := newSessions(t, &stubCatalog{})

	rec := serve(t, CreateBrowseSession(sessions, logger.Nop()), request{method: http.MethodPost, target: "/api/v1/browse/sessions", body: `{"page_size":500}`})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, CreateBrowseSession(sessions, logger.Nop()), request{method: http.MethodPost, target: "/api/v1/browse/sessions", body: `{"start_price":10,"end_price":1}`})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, sessions.Len())
}

func TestBrowseSessionCreateWithoutBodyUsesDefaults(t *testing.T) {
	source := &stubCatalog{}
	sessions := newSessions(t, source)
	created := createSession(t, sessions, ``)
	waitSession(t, sessions, created.ID)

	require.Len(t, source.Calls(), 1)
	assert.Equal(t, "page=1&page_size=12", source.Calls()[0].Encode())
}

func TestBrowseSessionCapacity(t *testing.T) {
	sessions := newSessions(t, &stubCatalog{})
	createSession(t, sessions, ``)
	createSession(t, sessions, ``)

	rec := serve(t, CreateBrowseSession(sessions, logger.Nop()), request{method: http.MethodPost, target: "/api/v1/browse/sessions"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBrowseSessionErrorThenRefresh(t *testing.T) {
	source := &stubCatalog{filterErr: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("boom"), "filter products request failed")}
	sessions := newSessions(t, source)
	created := createSession(t, sessions, ``)
	waitSession(t, sessions, created.ID)

	view := getView(t, sessions, created.ID, "")
	require.NotNil(t, view.Error)
	assert.Equal(t, string(pkgerrors.CodeDependency), view.Error.Code)
	assert.Empty(t, view.Products)

	source.setProducts(products(4), nil)
	rec := serve(t, RefreshBrowseSession(sessions, logger.Nop()), request{
		method: http.MethodPost,
		target: "/api/v1/browse/sessions/" + created.ID + "/refresh",
		params: map[string]string{"sessionId": created.ID},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	waitSession(t, sessions, created.ID)

	view = getView(t, sessions, created.ID, "")
	assert.Nil(t, view.Error)
	assert.Len(t, view.Products, 4)
	assert.Len(t, source.Calls(), 2)
}

func TestBrowseSessionDelete(t *testing.T) {
	sessions := newSessions(t, &stubCatalog{})
	created := createSession(t, sessions, ``)

	del := DeleteBrowseSession(sessions, logger.Nop())
	rec := serve(t, del, request{method: http.MethodDelete, target: "/api/v1/browse/sessions/" + created.ID, params: map[string]string{"sessionId": created.ID}})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(t, del, request{method: http.MethodDelete, target: "/api/v1/browse/sessions/" + created.ID, params: map[string]string{"sessionId": created.ID}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, GetBrowseSession(sessions, logger.Nop()), request{method: http.MethodGet, target: "/api/v1/browse/sessions/" + created.ID, params: map[string]string{"sessionId": created.ID}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBrowseSessionRejectsBadViewPage(t *testing.T) {
	sessions := newSessions(t, &stubCatalog{})
	created := createSession(t, sessions, ``)

	rec := serve(t, GetBrowseSession(sessions, logger.Nop()), request{
		method: http.MethodGet,
		target: "/api/v1/browse/sessions/" + created.ID + "?page=zero",
		params: map[string]string{"sessionId": created.ID},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

var _ BrowseSessions = (*browse.Manager)(nil)

func TestBrowseSessionsInterfaceUsesContext(t *testing.T) {
	sessions := newSessions(t, &stubCatalog{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sessions.Create(ctx, filters.Snapshot{})
	require.NoError(t, err, "session lifetime is independent of the creating request")
}
