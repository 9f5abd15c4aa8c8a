package models

// CartLine 代表購物車中的單個商品項目
//
// UnitPrice and DisplayName are snapshots taken when the line is first added;
// merging more quantity of the same product never overwrites them.
type CartLine struct {
	ProductID   string  `json:"product_id"`
	DisplayName string  `json:"display_name"`
	UnitPrice   float64 `json:"unit_price"`
	ImageRef    string  `json:"image_ref"`
	Quantity    uint64  `json:"quantity"`
	UnitLabel   string  `json:"unit_label"`
}

// Subtotal returns the line's contribution to the cart subtotal.
func (l CartLine) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// TotalItems sums the quantities over the given lines.
func TotalItems(lines []CartLine) uint64 {
	var n uint64
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

// TotalPrice sums unit price times quantity over the given lines.
func TotalPrice(lines []CartLine) float64 {
	var total float64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}

// FindLineIndex returns the index of the line with the given product id, or -1.
func FindLineIndex(lines []CartLine, productID string) int {
	for i := range lines {
		if lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}
