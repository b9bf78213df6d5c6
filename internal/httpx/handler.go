package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"marketplace-be/internal/logger"
	"marketplace-be/internal/order"
	"marketplace-be/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler exposes the user and order services over HTTP. Parsing, id
// decoding, and error-to-status mapping happen here; business rules stay in
// the services.
type Handler struct {
	userSvc  user.Service
	orderSvc order.Service
}

func NewHandler(userSvc user.Service, orderSvc order.Service) *Handler {
	return &Handler{userSvc: userSvc, orderSvc: orderSvc}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	u, err := h.userSvc.Register(r.Context(), req.Email, req.Name)
	if err != nil {
		writeDomainError(r, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, mapUserToResponse(u))
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userSvc.ListUsers(r.Context())
	if err != nil {
		writeDomainError(r, w, err)
		return
	}

	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = mapUserToResponse(u)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	u, err := h.userSvc.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(r, w, err)
		return
	}

	writeJSON(w, http.StatusOK, mapUserToResponse(u))
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id must be a valid uuid")
		return
	}

	o, err := h.orderSvc.CreateOrder(r.Context(), userID)
	if err != nil {
		writeDomainError(r, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, mapOrderToResponse(o))
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var userID *uuid.UUID
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "user_id must be a valid uuid")
			return
		}
		userID = &id
	}

	orders, err := h.orderSvc.ListOrders(r.Context(), userID)
	if err != nil {
		writeDomainError(r, w, err)
		return
	}

	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = mapOrderToResponse(o)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	o, err := h.orderSvc.GetOrder(r.Context(), id)
	if err != nil {
		writeDomainError(r, w, err)
		return
	}

	writeJSON(w, http.StatusOK, mapOrderToResponse(o))
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.ProductName == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "product_name is required")
		return
	}

	item, err := h.orderSvc.AddItem(r.Context(), id, req.ProductName, req.Price, req.Quantity)
	if err != nil {
		writeDomainError(r, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, mapItemToResponse(*item))
}

func (h *Handler) PayOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orderSvc.PayOrder)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orderSvc.CancelOrder)
}

func (h *Handler) ShipOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orderSvc.ShipOrder)
}

func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orderSvc.CompleteOrder)
}

func (h *Handler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	history, err := h.orderSvc.GetOrderHistory(r.Context(), id)
	if err != nil {
		writeDomainError(r, w, err)
		return
	}

	writeJSON(w, http.StatusOK, mapHistoryToResponse(history))
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, move func(ctx context.Context, id uuid.UUID) (*order.Order, error)) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	o, err := move(r.Context(), id)
	if err != nil {
		writeDomainError(r, w, err)
		return
	}

	writeJSON(w, http.StatusOK, mapOrderToResponse(o))
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be a valid uuid")
		return uuid.Nil, false
	}
	return id, true
}

// writeDomainError maps domain failures to transport status codes. Anything
// unrecognized is an infrastructure fault and comes back as a 500.
func writeDomainError(r *http.Request, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, order.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, user.ErrEmailExists):
		writeError(w, http.StatusConflict, "email_already_exists", err.Error())
	case errors.Is(err, order.ErrOrderAlreadyPaid):
		writeError(w, http.StatusConflict, "order_already_paid", err.Error())
	case errors.Is(err, order.ErrOrderCancelled):
		writeError(w, http.StatusConflict, "order_cancelled", err.Error())
	case errors.Is(err, order.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, user.ErrInvalidEmail):
		writeError(w, http.StatusUnprocessableEntity, "invalid_email", err.Error())
	case errors.Is(err, order.ErrInvalidPrice):
		writeError(w, http.StatusUnprocessableEntity, "invalid_price", err.Error())
	case errors.Is(err, order.ErrInvalidQuantity):
		writeError(w, http.StatusUnprocessableEntity, "invalid_quantity", err.Error())
	default:
		logger.FromCtx(r.Context()).Error("unhandled service error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
