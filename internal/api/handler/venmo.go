// internal/api/handler/venmo.go
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"minivenmo/internal/api/types"
	"minivenmo/internal/domain"
	"minivenmo/internal/service"
	"minivenmo/internal/util" // For custom errors
)

// DefaultTimeout is the per-request timeout applied by the router.
const DefaultTimeout = 60 * time.Second

var validate = validator.New()

// VenmoHandler handles HTTP requests against the payment simulator.
type VenmoHandler struct {
	service service.VenmoService
	logger  *slog.Logger
}

// NewVenmoHandler creates a new VenmoHandler.
func NewVenmoHandler(svc service.VenmoService, logger *slog.Logger) *VenmoHandler {
	return &VenmoHandler{
		service: svc,
		logger:  logger,
	}
}

// Helper function to send JSON responses.
func (h *VenmoHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses.
func (h *VenmoHandler) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	var usernameErr *domain.UsernameError
	var cardErr *domain.CreditCardError
	var paymentErr *domain.PaymentError

	switch {
	case util.IsError(err, util.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case util.IsError(err, util.ErrNotFound), util.IsError(err, util.ErrUserNotFound):
		statusCode = http.StatusNotFound
		message = "Resource not found"
	case util.IsError(err, util.ErrDuplicateEntry):
		statusCode = http.StatusConflict
		message = "Username already taken"
	case errors.As(err, &usernameErr):
		statusCode = http.StatusBadRequest
		message = usernameErr.Reason
	case errors.As(err, &cardErr):
		statusCode = http.StatusBadRequest
		message = cardErr.Reason
	case errors.As(err, &paymentErr):
		statusCode = http.StatusPaymentRequired // 402 Payment Required
		message = paymentErr.Reason
	default:
		h.logger.Error("Unhandled service error", "error", err)
	}

	h.respondWithJSON(w, statusCode, map[string]string{"error": message})
}

// userID pulls and parses the {userID} URL parameter.
func (h *VenmoHandler) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return uuid.Nil, false
	}
	return id, true
}

// decodeAndValidate decodes the JSON body into req and runs struct
// validation on it.
func (h *VenmoHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return false
	}
	if err := validate.Struct(req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return false
	}
	return true
}

// CreateUserRequest represents the request body for user creation.
type CreateUserRequest struct {
	Username         string          `json:"username" validate:"required"`
	Balance          decimal.Decimal `json:"balance"`
	CreditCardNumber string          `json:"credit_card_number"`
}

// CreateUser handles the create user request. This is the factory path: the
// card number is accepted without validation.
// POST /users
func (h *VenmoHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.service.CreateUser(r.Context(), req.Username, req.Balance, req.CreditCardNumber)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, userView(user))
}

// ListUsers handles the list users request.
// GET /users
func (h *VenmoHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	views := make([]map[string]interface{}, 0, len(users))
	for _, user := range users {
		views = append(views, userView(user))
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": views})
}

// GetUser handles the get user request.
// GET /users/{userID}
func (h *VenmoHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, userView(user))
}

// PayRequest represents the request body for a payment.
type PayRequest struct {
	TargetID uuid.UUID       `json:"target_id" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Note     string          `json:"note"`
}

// Pay handles the payment request. Routing between the balance path and the
// card path is decided by the payer's current balance; amount validation is
// deliberately left to the card path so the simulator's semantics stay
// intact.
// POST /users/{userID}/payments
func (h *VenmoHandler) Pay(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req PayRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.Pay(r.Context(), actorID, req.TargetID, req.Amount, req.Note)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "Payment successful",
		"payment_id":     result.Payment.ID,
		"actor_balance":  result.ActorBalance,
		"target_balance": result.TargetBalance,
	})
}

// AddCreditCardRequest represents the request body for card association.
type AddCreditCardRequest struct {
	CreditCardNumber string `json:"credit_card_number" validate:"required"`
}

// AddCreditCard handles the card association request. Unlike the factory
// path, this one enforces the card validator.
// POST /users/{userID}/card
func (h *VenmoHandler) AddCreditCard(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req AddCreditCardRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.AddCreditCard(r.Context(), id, req.CreditCardNumber); err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Credit card added"})
}

// AddToBalanceRequest represents the request body for a balance top-up.
type AddToBalanceRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// AddToBalance handles the balance top-up request.
// POST /users/{userID}/balance
func (h *VenmoHandler) AddToBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req AddToBalanceRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	newBalance, err := h.service.AddToBalance(r.Context(), id, req.Amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Balance updated",
		"new_balance": newBalance,
	})
}

// AddFriendRequest represents the request body for a friend addition.
type AddFriendRequest struct {
	FriendID uuid.UUID `json:"friend_id" validate:"required"`
}

// AddFriend handles the friend addition request. The friendship is
// one-directional: only the caller's friend set gains an entry.
// POST /users/{userID}/friends
func (h *VenmoHandler) AddFriend(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req AddFriendRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.AddFriend(r.Context(), id, req.FriendID); err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Friend added"})
}

// GetFeed handles the feed retrieval request.
// GET /users/{userID}/feed
func (h *VenmoHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	// Parse query parameters for pagination
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 50 // Default limit
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0 // Default offset
	}

	feed, total, err := h.service.GetFeed(r.Context(), id, limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[string]{
		Data:       feed,
		Limit:      limit,
		Offset:     offset,
		TotalCount: int64(total),
	})
}

// userView builds the JSON view of a user snapshot. The friend set is
// rendered as identifiers in insertion order.
func userView(user domain.UserSnapshot) map[string]interface{} {
	return map[string]interface{}{
		"id":                 user.ID,
		"username":           user.Username,
		"balance":            user.Balance,
		"credit_card_number": user.CreditCardNumber,
		"friends":            user.Friends,
	}
}
