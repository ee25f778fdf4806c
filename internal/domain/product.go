package domain

import "time"

type ProductStatus string

const (
	ProductOnSale       ProductStatus = "on_sale"
	ProductOutOfStock   ProductStatus = "out_of_stock"
	ProductDiscontinued ProductStatus = "discontinued"
	// ProductPharmacyOnly items are dispensed at the counter and never sold online.
	ProductPharmacyOnly ProductStatus = "pharmacy_only"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductOnSale, ProductOutOfStock, ProductDiscontinued, ProductPharmacyOnly:
		return true
	}
	return false
}

// SellableOnline reports whether the status allows adding the product to a cart.
func (s ProductStatus) SellableOnline() bool {
	return s != ProductPharmacyOnly && s != ProductDiscontinued
}

type Product struct {
	ID          string         `json:"id"`
	SKU         string         `json:"sku"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Price       int64          `json:"price"`
	Quantity    int            `json:"quantity"`
	Status      ProductStatus  `json:"status"`
	CategoryID  *string        `json:"categoryId,omitempty"`
	UnitID      *string        `json:"unitId,omitempty"`
	TrademarkID *string        `json:"trademarkId,omitempty"`
	Category    *Lookup        `json:"category,omitempty"`
	Unit        *Lookup        `json:"unit,omitempty"`
	Trademark   *Lookup        `json:"trademark,omitempty"`
	Images      []ProductImage `json:"images"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type ProductImage struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Position int    `json:"position"`
}
