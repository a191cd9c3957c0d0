package filters

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/afrifurn-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/afrifurn-storefront/pkg/errors"
)

// Facet names one filter dimension. The value doubles as the product service query parameter.
type Facet string

const (
	FacetPriceMin  Facet = "start_price"
	FacetPriceMax  Facet = "end_price"
	FacetColors    Facet = "colors"
	FacetMaterials Facet = "materials"
	FacetWidth     Facet = "width"
	FacetLength    Facet = "length"
	FacetDepth     Facet = "depth"
	FacetHeight    Facet = "height"
	FacetCategory  Facet = "category"
	FacetShortName Facet = "short_name"
	FacetPage      Facet = "page"
	FacetPageSize  Facet = "page_size"
	FacetSortBy    Facet = "sort_by"
	FacetSortOrder Facet = "sort_order"
	FacetName      Facet = "name"
)

// facetOrder is the fixed order parameters are emitted in.
var facetOrder = []Facet{
	FacetPriceMin,
	FacetPriceMax,
	FacetColors,
	FacetMaterials,
	FacetWidth,
	FacetLength,
	FacetDepth,
	FacetHeight,
	FacetCategory,
	FacetShortName,
	FacetPage,
	FacetPageSize,
	FacetSortBy,
	FacetSortOrder,
	FacetName,
}

// ParseFacet validates a facet name.
func ParseFacet(value string) (Facet, error) {
	trimmed := Facet(strings.ToLower(strings.TrimSpace(value)))
	for _, f := range facetOrder {
		if f == trimmed {
			return f, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown facet").WithDetails(map[string]any{"facet": value})
}

// Set is a canonical set of identifiers: trimmed, de-duplicated and sorted.
type Set []string

// NewSet builds a canonical set from arbitrary input.
func NewSet(values ...string) Set {
	seen := make(map[string]struct{}, len(values))
	out := make(Set, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	sort.Strings(out)
	return out
}

func (s Set) Len() int {
	return len(s)
}

func (s Set) Contains(value string) bool {
	i := sort.SearchStrings(s, value)
	return i < len(s) && s[i] == value
}

// Toggle adds the value when missing and removes it when present, like a checkbox.
func (s Set) Toggle(value string) Set {
	if s.Contains(value) {
		out := make([]string, 0, len(s))
		for _, v := range s {
			if v != value {
				out = append(out, v)
			}
		}
		return NewSet(out...)
	}
	return NewSet(append(s.clone(), value)...)
}

func (s Set) clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	copy(out, s)
	return out
}

// Snapshot is one coherent filter state. Treat it as a value: Store and Debouncer hand out clones.
type Snapshot struct {
	PriceMin  *decimal.Decimal `json:"start_price,omitempty"`
	PriceMax  *decimal.Decimal `json:"end_price,omitempty"`
	Colors    Set              `json:"colors,omitempty"`
	Materials Set              `json:"materials,omitempty"`
	Width     *decimal.Decimal `json:"width,omitempty"`
	Length    *decimal.Decimal `json:"length,omitempty"`
	Depth     *decimal.Decimal `json:"depth,omitempty"`
	Height    *decimal.Decimal `json:"height,omitempty"`
	Category  string           `json:"category,omitempty"`
	ShortName string           `json:"short_name,omitempty"`
	Page      int              `json:"page,omitempty"`
	PageSize  int              `json:"page_size,omitempty"`
	SortBy    string           `json:"sort_by,omitempty"`
	SortOrder enums.SortOrder  `json:"sort_order,omitempty"`
	Name      string           `json:"name,omitempty"`
}

// Dec returns a pointer to a copy of d.
func Dec(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// Amount is shorthand for Dec(decimal.NewFromInt(v)).
func Amount(v int64) *decimal.Decimal {
	return Dec(decimal.NewFromInt(v))
}

func cloneDec(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	return Dec(*d)
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.PriceMin = cloneDec(s.PriceMin)
	out.PriceMax = cloneDec(s.PriceMax)
	out.Width = cloneDec(s.Width)
	out.Length = cloneDec(s.Length)
	out.Depth = cloneDec(s.Depth)
	out.Height = cloneDec(s.Height)
	out.Colors = s.Colors.clone()
	out.Materials = s.Materials.clone()
	return out
}

// Validate checks the snapshot invariants. The store itself never validates; callers at the
// edge of the system do.
func (s Snapshot) Validate() error {
	details := map[string]string{}
	for facet, v := range map[Facet]*decimal.Decimal{
		FacetPriceMin: s.PriceMin,
		FacetPriceMax: s.PriceMax,
		FacetWidth:    s.Width,
		FacetLength:   s.Length,
		FacetDepth:    s.Depth,
		FacetHeight:   s.Height,
	} {
		if v != nil && v.IsNegative() {
			details[string(facet)] = "must not be negative"
		}
	}
	if s.PriceMin != nil && s.PriceMax != nil && s.PriceMin.GreaterThan(*s.PriceMax) {
		details[string(FacetPriceMin)] = "must not exceed end_price"
	}
	if s.Page < 0 {
		details[string(FacetPage)] = "must be at least 1"
	}
	if s.PageSize < 0 {
		details[string(FacetPageSize)] = "must be positive"
	}
	if s.SortOrder != "" && !s.SortOrder.IsValid() {
		details[string(FacetSortOrder)] = "must be asc or desc"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid filters").WithDetails(details)
	}
	return nil
}

// Partial carries the facets a widget changed. Nil fields are left untouched; Clear lists
// facets to drop back to "absent".
type Partial struct {
	PriceMin  *decimal.Decimal
	PriceMax  *decimal.Decimal
	Colors    *Set
	Materials *Set
	Width     *decimal.Decimal
	Length    *decimal.Decimal
	Depth     *decimal.Decimal
	Height    *decimal.Decimal
	Category  *string
	ShortName *string
	SortBy    *string
	SortOrder *enums.SortOrder
	Name      *string
	Clear     []Facet
}

// IsEmpty reports whether applying the partial would change nothing but the page.
func (p Partial) IsEmpty() bool {
	return p.PriceMin == nil && p.PriceMax == nil && p.Colors == nil && p.Materials == nil &&
		p.Width == nil && p.Length == nil && p.Depth == nil && p.Height == nil &&
		p.Category == nil && p.ShortName == nil && p.SortBy == nil && p.SortOrder == nil &&
		p.Name == nil && len(p.Clear) == 0
}

// Apply merges the partial into s and resets the page to 1.
func (s Snapshot) Apply(p Partial) Snapshot {
	out := s.Clone()
	for _, facet := range p.Clear {
		out.clear(facet)
	}
	if p.PriceMin != nil {
		out.PriceMin = cloneDec(p.PriceMin)
	}
	if p.PriceMax != nil {
		out.PriceMax = cloneDec(p.PriceMax)
	}
	if p.Colors != nil {
		out.Colors = NewSet(*p.Colors...)
	}
	if p.Materials != nil {
		out.Materials = NewSet(*p.Materials...)
	}
	if p.Width != nil {
		out.Width = cloneDec(p.Width)
	}
	if p.Length != nil {
		out.Length = cloneDec(p.Length)
	}
	if p.Depth != nil {
		out.Depth = cloneDec(p.Depth)
	}
	if p.Height != nil {
		out.Height = cloneDec(p.Height)
	}
	if p.Category != nil {
		out.Category = strings.TrimSpace(*p.Category)
	}
	if p.ShortName != nil {
		out.ShortName = strings.TrimSpace(*p.ShortName)
	}
	if p.SortBy != nil {
		out.SortBy = strings.TrimSpace(*p.SortBy)
	}
	if p.SortOrder != nil {
		out.SortOrder = *p.SortOrder
	}
	if p.Name != nil {
		out.Name = strings.TrimSpace(*p.Name)
	}
	out.Page = 1
	return out
}

func (s *Snapshot) clear(facet Facet) {
	switch facet {
	case FacetPriceMin:
		s.PriceMin = nil
	case FacetPriceMax:
		s.PriceMax = nil
	case FacetColors:
		s.Colors = nil
	case FacetMaterials:
		s.Materials = nil
	case FacetWidth:
		s.Width = nil
	case FacetLength:
		s.Length = nil
	case FacetDepth:
		s.Depth = nil
	case FacetHeight:
		s.Height = nil
	case FacetCategory:
		s.Category = ""
	case FacetShortName:
		s.ShortName = ""
	case FacetSortBy:
		s.SortBy = ""
	case FacetSortOrder:
		s.SortOrder = ""
	case FacetName:
		s.Name = ""
	}
}
