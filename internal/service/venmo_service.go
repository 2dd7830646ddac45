// internal/service/venmo_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"minivenmo/internal/domain"
	"minivenmo/internal/repository"
	"minivenmo/internal/util"
)

// PaymentResult carries the payment record plus both parties' balances as
// they stood when the payment settled, captured while the pair lock was
// still held.
type PaymentResult struct {
	Payment       *domain.Payment
	ActorBalance  decimal.Decimal
	TargetBalance decimal.Decimal
}

// VenmoService defines the interface for the simulator's business logic.
// It is the concurrent front over the single-threaded domain entities: every
// operation takes the participating users' locks before touching them, and
// cross-user operations take both locks in a fixed global order. Read
// operations never leak live entity state; they return detached snapshots
// taken under the user's lock.
type VenmoService interface {
	// CreateUser is the user factory. It validates the username but stores
	// the given card number without validation; only post-construction
	// AddCreditCard calls enforce the card validator.
	CreateUser(ctx context.Context, username string, balance decimal.Decimal, creditCardNumber string) (domain.UserSnapshot, error)
	GetUser(ctx context.Context, userID uuid.UUID) (domain.UserSnapshot, error)
	// ListUsers returns snapshots of all users in creation order.
	ListUsers(ctx context.Context) ([]domain.UserSnapshot, error)
	Pay(ctx context.Context, actorID, targetID uuid.UUID, amount decimal.Decimal, note string) (*PaymentResult, error)
	AddCreditCard(ctx context.Context, userID uuid.UUID, number string) error
	// AddToBalance credits the user's balance and returns the new balance.
	AddToBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	AddFriend(ctx context.Context, userID, friendID uuid.UUID) error
	// GetFeed returns a window of the user's feed in insertion order plus the
	// total feed length.
	GetFeed(ctx context.Context, userID uuid.UUID, limit, offset int) ([]string, int, error)
}

// venmoService implements the VenmoService interface.
type venmoService struct {
	store     repository.UserStore
	validator domain.CardValidator
	charger   domain.CardCharger
	logger    *slog.Logger

	mu    sync.Mutex // Guards locks
	locks map[uuid.UUID]*sync.Mutex
}

// NewVenmoService creates a new instance of VenmoService.
func NewVenmoService(
	store repository.UserStore,
	validator domain.CardValidator,
	charger domain.CardCharger,
	logger *slog.Logger,
) VenmoService {
	return &venmoService{
		store:     store,
		validator: validator,
		charger:   charger,
		logger:    logger,
		locks:     make(map[uuid.UUID]*sync.Mutex),
	}
}

// lockFor returns the exclusive lock guarding the given user's state,
// creating it on first use.
func (s *venmoService) lockFor(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// lockPair locks both users' state in a fixed global order (by identifier)
// to avoid deadlock, and returns the matching unlock. A pair with equal
// identifiers takes a single lock.
func (s *venmoService) lockPair(a, b uuid.UUID) func() {
	if a == b {
		l := s.lockFor(a)
		l.Lock()
		return l.Unlock
	}
	first, second := s.lockFor(a), s.lockFor(b)
	if strings.Compare(a.String(), b.String()) > 0 {
		first, second = second, first
	}
	first.Lock()
	second.Lock()
	return func() {
		second.Unlock()
		first.Unlock()
	}
}

// resolveUser looks up the live entity behind an identifier. The caller
// must take the user's lock before reading or mutating it.
func (s *venmoService) resolveUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	return user, nil
}

// CreateUser creates a user with the given starting balance and card number.
func (s *venmoService) CreateUser(ctx context.Context, username string, balance decimal.Decimal, creditCardNumber string) (domain.UserSnapshot, error) {
	_, err := s.store.GetByUsername(ctx, username)
	if err == nil {
		return domain.UserSnapshot{}, fmt.Errorf("create user: user with username '%s' already exists: %w", username, util.ErrDuplicateEntry)
	}
	if !errors.Is(err, util.ErrNotFound) {
		return domain.UserSnapshot{}, fmt.Errorf("create user: failed to check existing user: %w", err)
	}

	user, err := domain.NewUser(username)
	if err != nil {
		return domain.UserSnapshot{}, fmt.Errorf("create user: %w", err)
	}

	// Factory path: the card number is stored as given, bypassing the card
	// validator, and the balance is set directly.
	if creditCardNumber != "" {
		user.SetCreditCard(creditCardNumber)
	}
	user.Balance = balance

	// Snapshot before the user becomes visible through the store; after that
	// point only its lock makes reads safe.
	snapshot := user.Snapshot()

	if err := s.store.Create(ctx, user); err != nil {
		return domain.UserSnapshot{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "User created", "user_id", user.ID, "username", user.Username)
	return snapshot, nil
}

// GetUser returns a detached snapshot of the user, taken under the user's
// lock so concurrent payments or friend additions cannot tear the read.
func (s *venmoService) GetUser(ctx context.Context, userID uuid.UUID) (domain.UserSnapshot, error) {
	user, err := s.resolveUser(ctx, userID)
	if err != nil {
		return domain.UserSnapshot{}, err
	}

	l := s.lockFor(userID)
	l.Lock()
	snapshot := user.Snapshot()
	l.Unlock()

	return snapshot, nil
}

// ListUsers returns snapshots of all users in creation order.
func (s *venmoService) ListUsers(ctx context.Context) ([]domain.UserSnapshot, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	snapshots := make([]domain.UserSnapshot, 0, len(users))
	for _, user := range users {
		l := s.lockFor(user.ID)
		l.Lock()
		snapshots = append(snapshots, user.Snapshot())
		l.Unlock()
	}
	return snapshots, nil
}

// Pay routes a payment from actor to target. Routing between the balance
// path and the card path happens inside the domain entity; this layer only
// resolves the participants and serializes access to them. The returned
// balances are captured before the pair lock is released.
func (s *venmoService) Pay(ctx context.Context, actorID, targetID uuid.UUID, amount decimal.Decimal, note string) (*PaymentResult, error) {
	actor, err := s.resolveUser(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("pay: failed to resolve actor: %w", err)
	}
	target, err := s.resolveUser(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("pay: failed to resolve target: %w", err)
	}

	unlock := s.lockPair(actorID, targetID)
	defer unlock()

	payment, err := actor.Pay(ctx, s.charger, target, amount, note)
	if err != nil {
		return nil, fmt.Errorf("pay: %w", err)
	}

	result := &PaymentResult{
		Payment:       payment,
		ActorBalance:  actor.Balance,
		TargetBalance: target.Balance,
	}

	s.logger.InfoContext(ctx, "Payment completed",
		"payment_id", payment.ID,
		"actor", actor.Username,
		"target", target.Username,
		"amount", amount.StringFixed(2),
	)
	return result, nil
}

// AddCreditCard associates a card with the user through the validated path.
func (s *venmoService) AddCreditCard(ctx context.Context, userID uuid.UUID, number string) error {
	user, err := s.resolveUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("add credit card: %w", err)
	}

	l := s.lockFor(userID)
	l.Lock()
	defer l.Unlock()

	if err := user.AddCreditCard(s.validator, number); err != nil {
		return fmt.Errorf("add credit card: %w", err)
	}
	s.logger.InfoContext(ctx, "Credit card added", "user_id", userID)
	return nil
}

// AddToBalance credits the user's balance and returns the new balance as it
// stood under the user's lock.
func (s *venmoService) AddToBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	user, err := s.resolveUser(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("add to balance: %w", err)
	}

	l := s.lockFor(userID)
	l.Lock()
	defer l.Unlock()

	user.AddToBalance(amount)
	return user.Balance, nil
}

// AddFriend adds friendID to userID's friend set. The relation is
// one-directional: the friend's own set is not updated, although both feeds
// record the addition.
func (s *venmoService) AddFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	user, err := s.resolveUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("add friend: failed to resolve user: %w", err)
	}
	friend, err := s.resolveUser(ctx, friendID)
	if err != nil {
		return fmt.Errorf("add friend: failed to resolve friend: %w", err)
	}

	unlock := s.lockPair(userID, friendID)
	defer unlock()

	user.AddFriend(friend)
	s.logger.InfoContext(ctx, "Friend added", "user", user.Username, "friend", friend.Username)
	return nil
}

// GetFeed returns a window of the user's feed plus the total entry count.
func (s *venmoService) GetFeed(ctx context.Context, userID uuid.UUID, limit, offset int) ([]string, int, error) {
	user, err := s.resolveUser(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("get feed: %w", err)
	}

	l := s.lockFor(userID)
	l.Lock()
	feed := user.RetrieveFeed()
	l.Unlock()

	if offset < 0 {
		offset = 0
	}
	total := len(feed)
	if offset >= total {
		return []string{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return feed[offset:end], total, nil
}

// RenderFeed writes each feed entry to w, one per line, in order.
func RenderFeed(w io.Writer, feed []string) {
	for _, row := range feed {
		fmt.Fprintln(w, row)
	}
}
