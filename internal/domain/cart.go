package domain

// CartLine is one line in the cart: a product frozen at the moment it was
// first added, plus the accumulated quantity. Merging a product that is
// already in the cart increments Quantity without refreshing the frozen
// product fields, so the price a shopper saw when adding is the price
// they keep.
type CartLine struct {
	Product
	Quantity int `json:"quantity"`
}

// LineTotal returns the price contribution of this line in minor units.
func (l CartLine) LineTotal() int64 {
	return l.Price * int64(l.Quantity)
}

// Snapshot is an immutable point-in-time view of the cart contents,
// ordered by insertion.
type Snapshot []CartLine

// TotalItems returns the sum of quantities across all lines.
func (s Snapshot) TotalItems() int {
	total := 0
	for _, l := range s {
		total += l.Quantity
	}
	return total
}

// TotalPrice returns the cart total in minor units.
func (s Snapshot) TotalPrice() int64 {
	var total int64
	for _, l := range s {
		total += l.LineTotal()
	}
	return total
}

// FindLine returns the index of the line holding the given product ID,
// or -1 when the product is not in the cart.
func (s Snapshot) FindLine(productID string) int {
	for i, l := range s {
		if l.ID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a deep-enough copy of the snapshot. Line structs are
// copied by value; callers must not mutate the shared Images slice or
// Specifications map of the embedded products.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}
