package domain

import "time"

// OrderSide is the direction of an order.
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// OrderType distinguishes market from limit orders.
type OrderType string

const (
	TypeMarket OrderType = "MKT"
	TypeLimit  OrderType = "LMT"
)

// OrderStatus represents the lifecycle of a simulated order. An order leaves
// StatusPending exactly once.
type OrderStatus string

const (
	StatusPending  OrderStatus = "PENDING"
	StatusFilled   OrderStatus = "FILLED"
	StatusCanceled OrderStatus = "CANCELED"
)

// Terminal reports whether no further transition is allowed.
func (s OrderStatus) Terminal() bool {
	return s == StatusFilled || s == StatusCanceled
}

// Order is a simulated order owned by one backtest run.
type Order struct {
	ID         int
	Side       OrderSide
	Type       OrderType
	LimitPrice *float64 // nil for market orders
	Size       int
	Status     OrderStatus
	Submitted  time.Time
	FillDate   *time.Time
	FillPrice  *float64
	CanceledAt *time.Time
}

// BlotterEntry is an audit snapshot of an Order, appended at creation and at
// every status transition.
type BlotterEntry struct {
	OrderID    int
	LongShort  string // always "long": the strategy never shorts
	Submitted  time.Time
	Action     OrderSide
	Size       int
	Symbol     string
	Price      *float64 // limit price, nil for market orders
	Type       OrderType
	Status     OrderStatus
	FillPrice  *float64
	ClosedAt   *time.Time // filled or canceled date
	RecordedAt time.Time
}

// Snapshot builds the blotter entry for the order's current state.
func (o Order) Snapshot(symbol string, at time.Time) BlotterEntry {
	e := BlotterEntry{
		OrderID:    o.ID,
		LongShort:  "long",
		Submitted:  o.Submitted,
		Action:     o.Side,
		Size:       o.Size,
		Symbol:     symbol,
		Price:      o.LimitPrice,
		Type:       o.Type,
		Status:     o.Status,
		FillPrice:  o.FillPrice,
		RecordedAt: at,
	}
	switch o.Status {
	case StatusFilled:
		e.ClosedAt = o.FillDate
	case StatusCanceled:
		e.ClosedAt = o.CanceledAt
	}
	return e
}
