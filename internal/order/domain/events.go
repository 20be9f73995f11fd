package domain

import "github.com/shopspring/decimal"

// OrderPlaced is raised once an order has been committed.
type OrderPlaced struct {
	OrderID    int64
	UserID     int64
	TotalPrice decimal.Decimal
	ItemCount  int
}

func (o Order) Placed() OrderPlaced {
	return OrderPlaced{OrderID: o.ID, UserID: o.UserID, TotalPrice: o.TotalPrice, ItemCount: len(o.Items)}
}
