package httpx

import (
	"time"

	"marketplace-be/internal/order"
	"marketplace-be/internal/user"

	"github.com/shopspring/decimal"
)

type RegisterUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type CreateOrderRequest struct {
	UserID string `json:"user_id"`
}

type AddItemRequest struct {
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type OrderResponse struct {
	ID          string              `json:"id"`
	UserID      string              `json:"user_id"`
	Status      string              `json:"status"`
	TotalAmount string              `json:"total_amount"`
	Items       []OrderItemResponse `json:"items"`
	CreatedAt   time.Time           `json:"created_at"`
}

type OrderItemResponse struct {
	ID          string `json:"id"`
	ProductName string `json:"product_name"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantity"`
	Subtotal    string `json:"subtotal"`
}

type StatusChangeResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func mapUserToResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}

func mapOrderToResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = mapItemToResponse(it)
	}

	return OrderResponse{
		ID:          o.ID.String(),
		UserID:      o.UserID.String(),
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount.StringFixed(2),
		Items:       items,
		CreatedAt:   o.CreatedAt,
	}
}

func mapItemToResponse(it order.OrderItem) OrderItemResponse {
	return OrderItemResponse{
		ID:          it.ID.String(),
		ProductName: it.ProductName,
		Price:       it.Price.String(),
		Quantity:    it.Quantity,
		Subtotal:    it.Subtotal().String(),
	}
}

func mapHistoryToResponse(changes []order.StatusChange) []StatusChangeResponse {
	out := make([]StatusChangeResponse, len(changes))
	for i, c := range changes {
		out[i] = StatusChangeResponse{
			ID:        c.ID.String(),
			Status:    string(c.Status),
			ChangedAt: c.ChangedAt,
		}
	}
	return out
}
