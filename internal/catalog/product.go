package catalog

import (
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Product mirrors the product service document returned by /products/filter.
type Product struct {
	ID          string           `json:"id"`
	ShortName   string           `json:"short_name,omitempty"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Price       decimal.Decimal  `json:"price"`
	Currency    string           `json:"currency,omitempty"`
	ColorCodes  []string         `json:"color_codes,omitempty"`
	Material    string           `json:"material,omitempty"`
	Dimensions  *Dimensions      `json:"dimensions,omitempty"`
	Category    *Category        `json:"category,omitempty"`
	IsNew       bool             `json:"is_new"`
	Discount    *decimal.Decimal `json:"discount,omitempty"`
	Views       int              `json:"views"`
	Images      []string         `json:"images,omitempty"`
}

// UnmarshalJSON accepts the document id under either "id" or "_id".
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	var wire struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*p = Product(wire.plain)
	if p.ID == "" {
		p.ID = wire.MongoID
	}
	return nil
}

type Dimensions struct {
	Width  *decimal.Decimal `json:"width,omitempty"`
	Length *decimal.Decimal `json:"length,omitempty"`
	Depth  *decimal.Decimal `json:"depth,omitempty"`
	Height *decimal.Decimal `json:"height,omitempty"`
	Weight *decimal.Decimal `json:"weight,omitempty"`
}

// Color is a selectable color facet value. Filters reference colors by Code.
type Color struct {
	ID        string `json:"id,omitempty"`
	ShortName string `json:"short_name,omitempty"`
	Name      string `json:"name"`
	Code      string `json:"color_code"`
	Image     string `json:"image,omitempty"`
}

// Material is a selectable material facet value.
type Material struct {
	ID        string `json:"id,omitempty"`
	ShortName string `json:"short_name,omitempty"`
	Name      string `json:"name"`
}

// Category is a level-2 category; filters reference it by ShortName.
type Category struct {
	ID          string   `json:"id,omitempty"`
	ShortName   string   `json:"short_name,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Images      []string `json:"images,omitempty"`
}
