package domain

import "time"

// MaxLineQuantity caps how many units of one product a cart line can hold.
const MaxLineQuantity = 99

type Cart struct {
	ID        string     `bson:"_id" json:"id"`
	GuestID   string     `bson:"guest_id" json:"guest_id"`
	Items     []CartItem `bson:"items" json:"items"`
	Version   int64      `bson:"version" json:"version"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

type CartItem struct {
	ProductID int64     `bson:"product_id" json:"product_id"`
	Name      string    `bson:"name" json:"name"`
	Image     string    `bson:"image" json:"image"`
	Price     Money     `bson:"price" json:"price"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
}

// AddItem appends a line or merges the quantity into the existing line for the
// same product. Name, image and price are refreshed from the incoming item.
func (c *Cart) AddItem(item CartItem) error {
	if item.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	for i := range c.Items {
		if c.Items[i].ProductID != item.ProductID {
			continue
		}
		merged := c.Items[i].Quantity + item.Quantity
		if merged > MaxLineQuantity {
			return ErrQuantityLimit
		}
		c.Items[i].Quantity = merged
		c.Items[i].Name = item.Name
		c.Items[i].Image = item.Image
		c.Items[i].Price = item.Price
		return nil
	}
	if item.Quantity > MaxLineQuantity {
		return ErrQuantityLimit
	}
	c.Items = append(c.Items, item)
	return nil
}

// SetQuantity replaces the quantity of a line. Zero removes the line, so it
// behaves exactly like RemoveItem.
func (c *Cart) SetQuantity(productID int64, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if quantity == 0 {
		return c.RemoveItem(productID)
	}
	if quantity > MaxLineQuantity {
		return ErrQuantityLimit
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return nil
		}
	}
	return ErrItemNotFound
}

// RemoveItem drops the line for productID. Removing an absent line is a no-op.
func (c *Cart) RemoveItem(productID int64) error {
	for i, item := range c.Items {
		if item.ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c *Cart) View() CartView {
	view := CartView{
		CartID:  c.ID,
		GuestID: c.GuestID,
		Lines:   make([]CartLine, len(c.Items)),
		Version: c.Version,
	}
	for i, item := range c.Items {
		view.Lines[i] = CartLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Price:     item.Price,
			Quantity:  item.Quantity,
		}
	}
	view.Subtotal = view.computeSubtotal()
	view.ItemCount = view.computeItemCount()
	return view
}

// CartView is the client-facing shape of a cart. The server owns it; clients
// keep a cached copy that is replaced after every mutation.
type CartView struct {
	CartID    string     `json:"cartId"`
	GuestID   string     `json:"guestId"`
	Lines     []CartLine `json:"lines"`
	Subtotal  Money      `json:"subtotal"`
	ItemCount int        `json:"itemCount"`
	Version   int64      `json:"version"`
}

type CartLine struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Price     Money  `json:"price"`
	Quantity  int    `json:"quantity"`
}

func (l CartLine) Total() Money {
	return l.Price.Times(l.Quantity)
}

func EmptyCartView(guestID string) CartView {
	return CartView{GuestID: guestID, Lines: []CartLine{}}
}

func (v CartView) IsEmpty() bool {
	return len(v.Lines) == 0
}

func (v CartView) ProductIDs() []int64 {
	ids := make([]int64, len(v.Lines))
	for i, line := range v.Lines {
		ids[i] = line.ProductID
	}
	return ids
}

// GrandTotal adds the shipping charge to the subtotal. Shipping is computed
// downstream and never stored on the view itself.
func (v CartView) GrandTotal(shipping ShippingConfig) Money {
	return v.computeSubtotal() + shipping.ShippingCharge
}

// Line returns the line for productID, if present.
func (v CartView) Line(productID int64) (CartLine, bool) {
	for _, line := range v.Lines {
		if line.ProductID == productID {
			return line, true
		}
	}
	return CartLine{}, false
}

func (v CartView) computeSubtotal() Money {
	var subtotal Money
	for _, line := range v.Lines {
		subtotal += line.Total()
	}
	return subtotal
}

func (v CartView) computeItemCount() int {
	var count int
	for _, line := range v.Lines {
		count += line.Quantity
	}
	return count
}
