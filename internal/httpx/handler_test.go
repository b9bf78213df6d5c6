package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace-be/internal/order"
	"marketplace-be/internal/user"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, email, name string) (*user.User, error) {
	args := m.Called(ctx, email, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]*user.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.User), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, userID uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) AddItem(ctx context.Context, orderID uuid.UUID, productName string, price decimal.Decimal, quantity int) (*order.OrderItem, error) {
	args := m.Called(ctx, orderID, productName, price, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.OrderItem), args.Error(1)
}

func (m *MockOrderService) PayOrder(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) CancelOrder(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ShipOrder(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) CompleteOrder(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, userID *uuid.UUID) ([]*order.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderService) GetOrderHistory(ctx context.Context, id uuid.UUID) ([]order.StatusChange, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.StatusChange), args.Error(1)
}

func newTestRouter(userSvc user.Service, orderSvc order.Service) http.Handler {
	return NewRouter(NewHandler(userSvc, orderSvc))
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestHandler_Health(t *testing.T) {
	router := newTestRouter(new(MockUserService), new(MockOrderService))

	rec := doJSON(t, router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandler_RegisterUser(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		userSvc := new(MockUserService)
		router := newTestRouter(userSvc, new(MockOrderService))

		u := &user.User{ID: uuid.New(), Email: "alice@example.com", Name: "Alice"}
		userSvc.On("Register", mock.Anything, "alice@example.com", "Alice").Return(u, nil)

		rec := doJSON(t, router, http.MethodPost, "/api/users",
			RegisterUserRequest{Email: "alice@example.com", Name: "Alice"})

		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp UserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "alice@example.com", resp.Email)
		userSvc.AssertExpectations(t)
	})

	t.Run("DuplicateEmailConflict", func(t *testing.T) {
		userSvc := new(MockUserService)
		router := newTestRouter(userSvc, new(MockOrderService))

		userSvc.On("Register", mock.Anything, "alice@example.com", "").Return(nil, user.ErrEmailExists)

		rec := doJSON(t, router, http.MethodPost, "/api/users",
			RegisterUserRequest{Email: "alice@example.com"})

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "email_already_exists")
	})

	t.Run("InvalidEmailUnprocessable", func(t *testing.T) {
		userSvc := new(MockUserService)
		router := newTestRouter(userSvc, new(MockOrderService))

		userSvc.On("Register", mock.Anything, "nope", "").Return(nil, user.ErrInvalidEmail)

		rec := doJSON(t, router, http.MethodPost, "/api/users", RegisterUserRequest{Email: "nope"})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("MissingEmail", func(t *testing.T) {
		router := newTestRouter(new(MockUserService), new(MockOrderService))

		rec := doJSON(t, router, http.MethodPost, "/api/users", RegisterUserRequest{})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_CreateOrder(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		router := newTestRouter(new(MockUserService), orderSvc)

		userID := uuid.New()
		o := order.New(userID)
		orderSvc.On("CreateOrder", mock.Anything, userID).Return(o, nil)

		rec := doJSON(t, router, http.MethodPost, "/api/orders",
			CreateOrderRequest{UserID: userID.String()})

		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp OrderResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "created", resp.Status)
		assert.Equal(t, "0.00", resp.TotalAmount)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		router := newTestRouter(new(MockUserService), orderSvc)

		userID := uuid.New()
		orderSvc.On("CreateOrder", mock.Anything, userID).Return(nil, user.ErrUserNotFound)

		rec := doJSON(t, router, http.MethodPost, "/api/orders",
			CreateOrderRequest{UserID: userID.String()})

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("BadUserID", func(t *testing.T) {
		router := newTestRouter(new(MockUserService), new(MockOrderService))

		rec := doJSON(t, router, http.MethodPost, "/api/orders",
			CreateOrderRequest{UserID: "not-a-uuid"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_AddItem(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		router := newTestRouter(new(MockUserService), orderSvc)

		orderID := uuid.New()
		price := decimal.RequireFromString("9.99")
		item := order.OrderItem{ID: uuid.New(), OrderID: orderID, ProductName: "widget", Price: price, Quantity: 3}

		orderSvc.On("AddItem", mock.Anything, orderID, "widget", mock.MatchedBy(func(d decimal.Decimal) bool {
			return d.Equal(price)
		}), 3).Return(&item, nil)

		rec := doJSON(t, router, http.MethodPost, "/api/orders/"+orderID.String()+"/items",
			AddItemRequest{ProductName: "widget", Price: price, Quantity: 3})

		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp OrderItemResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "29.97", resp.Subtotal)
	})

	t.Run("CancelledOrderConflict", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		router := newTestRouter(new(MockUserService), orderSvc)

		orderID := uuid.New()
		orderSvc.On("AddItem", mock.Anything, orderID, "widget", mock.Anything, 1).
			Return(nil, order.ErrOrderCancelled)

		rec := doJSON(t, router, http.MethodPost, "/api/orders/"+orderID.String()+"/items",
			AddItemRequest{ProductName: "widget", Price: decimal.NewFromInt(1), Quantity: 1})

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("InvalidQuantityUnprocessable", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		router := newTestRouter(new(MockUserService), orderSvc)

		orderID := uuid.New()
		orderSvc.On("AddItem", mock.Anything, orderID, "widget", mock.Anything, 0).
			Return(nil, order.ErrInvalidQuantity)

		rec := doJSON(t, router, http.MethodPost, "/api/orders/"+orderID.String()+"/items",
			AddItemRequest{ProductName: "widget", Price: decimal.NewFromInt(1), Quantity: 0})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestHandler_Transitions(t *testing.T) {
	orderID := uuid.New()

	t.Run("PaySucceeds", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		router := newTestRouter(new(MockUserService), orderSvc)

		paid := order.New(uuid.New())
		require.NoError(t, paid.Pay())
		orderSvc.On("PayOrder", mock.Anything, orderID).Return(paid, nil)

		rec := doJSON(t, router, http.MethodPost, "/api/orders/"+orderID.String()+"/pay", nil)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp OrderResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "paid", resp.Status)
	})

	t.Run("PayTwiceConflicts", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		router := newTestRouter(new(MockUserService), orderSvc)

		orderSvc.On("PayOrder", mock.Anything, orderID).Return(nil, order.ErrOrderAlreadyPaid)

		rec := doJSON(t, router, http.MethodPost, "/api/orders/"+orderID.String()+"/pay", nil)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "order_already_paid")
	})

	t.Run("ShipBeforePayConflicts", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		router := newTestRouter(new(MockUserService), orderSvc)

		orderSvc.On("ShipOrder", mock.Anything, orderID).Return(nil, order.ErrInvalidTransition)

		rec := doJSON(t, router, http.MethodPost, "/api/orders/"+orderID.String()+"/ship", nil)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_transition")
	})

	t.Run("UnknownOrder", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		router := newTestRouter(new(MockUserService), orderSvc)

		orderSvc.On("CompleteOrder", mock.Anything, orderID).Return(nil, order.ErrOrderNotFound)

		rec := doJSON(t, router, http.MethodPost, "/api/orders/"+orderID.String()+"/complete", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("BadID", func(t *testing.T) {
		router := newTestRouter(new(MockUserService), new(MockOrderService))

		rec := doJSON(t, router, http.MethodPost, "/api/orders/abc/pay", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_ListOrders(t *testing.T) {
	t.Run("FilteredByUser", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		router := newTestRouter(new(MockUserService), orderSvc)

		userID := uuid.New()
		orderSvc.On("ListOrders", mock.Anything, mock.MatchedBy(func(id *uuid.UUID) bool {
			return id != nil && *id == userID
		})).Return([]*order.Order{order.New(userID)}, nil)

		rec := doJSON(t, router, http.MethodGet, "/api/orders?user_id="+userID.String(), nil)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp []OrderResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp, 1)
	})

	t.Run("All", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		router := newTestRouter(new(MockUserService), orderSvc)

		orderSvc.On("ListOrders", mock.Anything, (*uuid.UUID)(nil)).
			Return([]*order.Order{}, nil)

		rec := doJSON(t, router, http.MethodGet, "/api/orders", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHandler_GetOrderHistory(t *testing.T) {
	orderSvc := new(MockOrderService)
	router := newTestRouter(new(MockUserService), orderSvc)

	o := order.New(uuid.New())
	require.NoError(t, o.Pay())
	orderSvc.On("GetOrderHistory", mock.Anything, o.ID).Return(o.History, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/orders/"+o.ID.String()+"/history", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp []StatusChangeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "created", resp[0].Status)
	assert.Equal(t, "paid", resp[1].Status)
}
