package domain

// Product is the slice of catalog data the cart and checkout need.
type Product struct {
	ID     int64
	Name   string
	Image  string
	Price  Money
	Heavy  bool
	Active bool
	// ShippingCharge overrides the default shipping charge when set.
	ShippingCharge *Money
}
