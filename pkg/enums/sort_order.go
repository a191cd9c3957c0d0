package enums

import (
	"fmt"
	"strings"
)

// SortOrder is the direction applied to the sort_by field of a product listing.
type SortOrder string

const (
	SortOrderAscending  SortOrder = "asc"
	SortOrderDescending SortOrder = "desc"
)

var validSortOrders = []SortOrder{
	SortOrderAscending,
	SortOrderDescending,
}

// String implements fmt.Stringer.
func (s SortOrder) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SortOrder.
func (s SortOrder) IsValid() bool {
	for _, candidate := range validSortOrders {
		if candidate == s {
			return true
		}
	}
	return false
}

// WireValue renders the order the way the product service expects it (1 / -1).
func (s SortOrder) WireValue() string {
	if s == SortOrderDescending {
		return "-1"
	}
	return "1"
}

// ParseSortOrder accepts asc/desc (any case) as well as the numeric 1 / -1 form.
func ParseSortOrder(value string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "asc", "ascending", "1":
		return SortOrderAscending, nil
	case "desc", "descending", "-1":
		return SortOrderDescending, nil
	}
	return "", fmt.Errorf("invalid sort order %q", value)
}
