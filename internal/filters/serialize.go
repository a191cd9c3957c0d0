package filters

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Param is one serialized query parameter.
type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// QueryParameters is the ordered, serialized form of a Snapshot.
type QueryParameters []Param

func (q QueryParameters) Len() int {
	return len(q)
}

// Get returns the value of the named parameter.
func (q QueryParameters) Get(name string) (string, bool) {
	for _, p := range q {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

func (q QueryParameters) Values() url.Values {
	values := make(url.Values, len(q))
	for _, p := range q {
		values.Add(p.Name, p.Value)
	}
	return values
}

// Encode renders the parameters as a query string, keeping their order.
func (q QueryParameters) Encode() string {
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// Key is a stable digest of the parameters, suitable for cache keys.
func (q QueryParameters) Key() string {
	sum := sha256.Sum256([]byte(q.Encode()))
	return hex.EncodeToString(sum[:])
}

// Serialize maps a snapshot onto the product service query parameters. Absent facets are
// omitted, never rendered as empty or zero.
func Serialize(s Snapshot) QueryParameters {
	params := make(QueryParameters, 0, len(facetOrder))
	for _, facet := range facetOrder {
		if value, ok := s.wireValue(facet); ok {
			params = append(params, Param{Name: string(facet), Value: value})
		}
	}
	return params
}

func (s Snapshot) wireValue(facet Facet) (string, bool) {
	switch facet {
	case FacetPriceMin:
		return decimalValue(s.PriceMin)
	case FacetPriceMax:
		return decimalValue(s.PriceMax)
	case FacetColors:
		return setValue(s.Colors)
	case FacetMaterials:
		return setValue(s.Materials)
	case FacetWidth:
		return decimalValue(s.Width)
	case FacetLength:
		return decimalValue(s.Length)
	case FacetDepth:
		return decimalValue(s.Depth)
	case FacetHeight:
		return decimalValue(s.Height)
	case FacetCategory:
		return stringValue(s.Category)
	case FacetShortName:
		return stringValue(s.ShortName)
	case FacetPage:
		return intValue(s.Page)
	case FacetPageSize:
		return intValue(s.PageSize)
	case FacetSortBy:
		return stringValue(s.SortBy)
	case FacetSortOrder:
		if s.SortOrder == "" {
			return "", false
		}
		return s.SortOrder.WireValue(), true
	case FacetName:
		return stringValue(s.Name)
	}
	return "", false
}

func decimalValue(d *decimal.Decimal) (string, bool) {
	if d == nil {
		return "", false
	}
	return d.String(), true
}

func setValue(s Set) (string, bool) {
	if len(s) == 0 {
		return "", false
	}
	encoded, err := json.Marshal([]string(s))
	if err != nil {
		return "", false
	}
	return string(encoded), true
}

func stringValue(v string) (string, bool) {
	v = strings.TrimSpace(v)
	return v, v != ""
}

func intValue(v int) (string, bool) {
	if v <= 0 {
		return "", false
	}
	return strconv.Itoa(v), true
}
