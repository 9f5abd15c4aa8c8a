package models

import "time"

// Product 代表賣家上架的商品
type Product struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"seller_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"image_url,omitempty"`
	Category    string    `json:"category"`
	UnitLabel   string    `json:"unit_label"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToCartLine snapshots the product into a cart line with the given quantity.
func (p *Product) ToCartLine(quantity uint64) CartLine {
	return CartLine{
		ProductID:   p.ID,
		DisplayName: p.Name,
		UnitPrice:   p.Price,
		ImageRef:    p.ImageURL,
		Quantity:    quantity,
		UnitLabel:   p.UnitLabel,
	}
}
