package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusCreated   Status = "created"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
)

// event is a lifecycle action applied to an order.
type event int

const (
	eventPay event = iota
	eventCancel
	eventShip
	eventComplete
)

// transition is the whole lifecycle table in one place. Given the current
// status and an event it returns the next status, or the domain error
// explaining why the move is not allowed. Cancelled and completed are
// terminal: no event moves an order out of them.
func transition(s Status, e event) (Status, error) {
	switch e {
	case eventPay:
		switch s {
		case StatusCreated:
			return StatusPaid, nil
		case StatusCancelled:
			return s, ErrOrderCancelled
		default:
			// paid, shipped, completed: the payment already happened
			return s, ErrOrderAlreadyPaid
		}
	case eventCancel:
		switch s {
		case StatusCreated:
			return StatusCancelled, nil
		case StatusPaid:
			// paid orders cannot be cancelled
			return s, ErrOrderAlreadyPaid
		default:
			return s, ErrInvalidTransition
		}
	case eventShip:
		if s == StatusPaid {
			return StatusShipped, nil
		}
		return s, ErrInvalidTransition
	case eventComplete:
		if s == StatusShipped {
			return StatusCompleted, nil
		}
		return s, ErrInvalidTransition
	}
	return s, ErrInvalidTransition
}

type Order struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Status      Status
	Items       []OrderItem
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
	History     []StatusChange
}

type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductName string
	Price       decimal.Decimal
	Quantity    int
}

type StatusChange struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Status    Status
	ChangedAt time.Time
}

// New builds a fresh order in the created state and records the first
// history entry. Repositories rehydrate stored rows into the struct
// directly and must not go through this path.
func New(userID uuid.UUID) *Order {
	o := &Order{
		ID:          uuid.New(),
		UserID:      userID,
		Status:      StatusCreated,
		TotalAmount: decimal.Zero,
		CreatedAt:   time.Now(),
	}
	o.recordChange(StatusCreated)
	return o
}

// NewOrderItem validates price and quantity before the item is attached to
// an order.
func NewOrderItem(orderID uuid.UUID, productName string, price decimal.Decimal, quantity int) (OrderItem, error) {
	if price.IsNegative() {
		return OrderItem{}, ErrInvalidPrice
	}
	if quantity < 1 {
		return OrderItem{}, ErrInvalidQuantity
	}

	return OrderItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductName: productName,
		Price:       price,
		Quantity:    quantity,
	}, nil
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// AddItem appends a validated line item and recomputes the total. Items can
// be added in any non-cancelled status without changing the status itself.
func (o *Order) AddItem(productName string, price decimal.Decimal, quantity int) (*OrderItem, error) {
	if o.Status == StatusCancelled {
		return nil, ErrOrderCancelled
	}

	item, err := NewOrderItem(o.ID, productName, price, quantity)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, item)
	o.recalculateTotal()
	return &o.Items[len(o.Items)-1], nil
}

// recalculateTotal sums the item subtotals with exact decimal arithmetic.
func (o *Order) recalculateTotal() {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	o.TotalAmount = total
}

func (o *Order) Pay() error      { return o.apply(eventPay) }
func (o *Order) Cancel() error   { return o.apply(eventCancel) }
func (o *Order) Ship() error     { return o.apply(eventShip) }
func (o *Order) Complete() error { return o.apply(eventComplete) }

func (o *Order) apply(e event) error {
	next, err := transition(o.Status, e)
	if err != nil {
		return err
	}

	o.Status = next
	o.recordChange(next)
	return nil
}

func (o *Order) recordChange(s Status) {
	o.History = append(o.History, StatusChange{
		ID:        uuid.New(),
		OrderID:   o.ID,
		Status:    s,
		ChangedAt: time.Now(),
	})
}
