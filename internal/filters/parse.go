package filters

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/afrifurn-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/afrifurn-storefront/pkg/errors"
)

// ParseQuery reads a snapshot from query values using the wire names Serialize emits. Set
// facets accept a JSON array or a comma separated list. Unknown keys are ignored.
func ParseQuery(values url.Values) (Snapshot, error) {
	var (
		snap    Snapshot
		details = map[string]string{}
	)

	decimals := []struct {
		facet Facet
		dst   **decimal.Decimal
	}{
		{FacetPriceMin, &snap.PriceMin},
		{FacetPriceMax, &snap.PriceMax},
		{FacetWidth, &snap.Width},
		{FacetLength, &snap.Length},
		{FacetDepth, &snap.Depth},
		{FacetHeight, &snap.Height},
	}
	for _, d := range decimals {
		raw := strings.TrimSpace(values.Get(string(d.facet)))
		if raw == "" {
			continue
		}
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			details[string(d.facet)] = "must be a number"
			continue
		}
		*d.dst = Dec(parsed)
	}

	snap.Colors = ParseSet(values[string(FacetColors)])
	snap.Materials = ParseSet(values[string(FacetMaterials)])

	snap.Category = strings.TrimSpace(values.Get(string(FacetCategory)))
	snap.ShortName = strings.TrimSpace(values.Get(string(FacetShortName)))
	snap.SortBy = strings.TrimSpace(values.Get(string(FacetSortBy)))
	snap.Name = strings.TrimSpace(values.Get(string(FacetName)))

	ints := []struct {
		facet Facet
		dst   *int
	}{
		{FacetPage, &snap.Page},
		{FacetPageSize, &snap.PageSize},
	}
	for _, i := range ints {
		raw := strings.TrimSpace(values.Get(string(i.facet)))
		if raw == "" {
			continue
		}
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			details[string(i.facet)] = "must be a positive integer"
			continue
		}
		*i.dst = parsed
	}

	if raw := strings.TrimSpace(values.Get(string(FacetSortOrder))); raw != "" {
		order, err := enums.ParseSortOrder(raw)
		if err != nil {
			details[string(FacetSortOrder)] = "must be asc or desc"
		} else {
			snap.SortOrder = order
		}
	}

	if len(details) > 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid filters").WithDetails(details)
	}
	if err := snap.Validate(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// ParseSet reads set facet values. Each value is either a JSON array of strings or a comma
// separated list; repeated keys are merged.
func ParseSet(raw []string) Set {
	var items []string
	for _, value := range raw {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if strings.HasPrefix(value, "[") {
			var decoded []string
			if err := json.Unmarshal([]byte(value), &decoded); err == nil {
				items = append(items, decoded...)
				continue
			}
		}
		items = append(items, strings.Split(value, ",")...)
	}
	set := NewSet(items...)
	if len(set) == 0 {
		return nil
	}
	return set
}
