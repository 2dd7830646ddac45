// internal/domain/user.go
package domain

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// usernamePattern is the accepted username format: 4 to 15 characters,
// letters, digits, underscore or hyphen.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{4,15}$`)

// IsValidUsername reports whether the candidate string is a well-formed
// username.
func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// CardValidator decides whether a card number may be associated with a user.
// The production implementation is an allow-list stub standing in for a real
// card-network validation service.
type CardValidator interface {
	Valid(number string) bool
}

// CardCharger charges a credit card through an external processor.
type CardCharger interface {
	Charge(ctx context.Context, number string, amount decimal.Decimal) error
}

// User is a participant in the payment simulator. It owns a balance, an
// optional credit card, an append-only activity feed and a friend set.
// A User is not safe for concurrent use; callers that share users across
// goroutines must serialize access (see service.VenmoService).
type User struct {
	ID       uuid.UUID       // Assigned at creation, immutable
	Username string          // Immutable after validation
	Balance  decimal.Decimal // May go negative on the balance path

	creditCard  string // Empty means no card on file; immutable once set
	feed        []string
	friends     map[uuid.UUID]*User
	friendOrder []uuid.UUID // Insertion order of friend additions
}

// NewUser validates the username and creates a User with a zero balance and
// no card on file. An invalid username returns a UsernameError and no User.
func NewUser(username string) (*User, error) {
	if !IsValidUsername(username) {
		return nil, ErrUsernameInvalid
	}
	return &User{
		ID:       uuid.New(),
		Username: username,
		Balance:  decimal.Zero,
		friends:  make(map[uuid.UUID]*User),
	}, nil
}

// CreditCard returns the card number on file, or the empty string if none.
func (u *User) CreditCard() string {
	return u.creditCard
}

// HasCreditCard reports whether a card is on file.
func (u *User) HasCreditCard() bool {
	return u.creditCard != ""
}

// AddCreditCard associates a card with the user after running it through the
// given validator. A user holds at most one card for its lifetime; a second
// association attempt fails with ErrCardAlreadySet and a rejected number
// fails with ErrCardInvalid, in both cases leaving the card state unchanged.
func (u *User) AddCreditCard(v CardValidator, number string) error {
	if u.creditCard != "" {
		return ErrCardAlreadySet
	}
	if !v.Valid(number) {
		return ErrCardInvalid
	}
	u.creditCard = number
	return nil
}

// SetCreditCard stores a card number without validation. This is the factory
// path: users created through the facade accept any string as a card number,
// while post-construction AddCreditCard calls enforce the validator.
func (u *User) SetCreditCard(number string) {
	u.creditCard = number
}

// AddToBalance credits the user's balance.
func (u *User) AddToBalance(amount decimal.Decimal) {
	u.Balance = u.Balance.Add(amount)
}

// Pay transfers amount to target and records the payment on both feeds.
//
// Routing: the balance path is taken iff amount is strictly below the payer's
// current balance; a payment exactly equal to the balance is charged to the
// card. The card path validates and may fail; on failure no balance or feed
// mutation has happened. On success an identical feed line is appended to
// both parties.
func (u *User) Pay(ctx context.Context, charger CardCharger, target *User, amount decimal.Decimal, note string) (*Payment, error) {
	var payment *Payment
	if amount.LessThan(u.Balance) {
		payment = u.PayWithBalance(target, amount, note)
	} else {
		p, err := u.PayWithCard(ctx, charger, target, amount, note)
		if err != nil {
			return nil, err
		}
		payment = p
	}

	entry := fmt.Sprintf("%s paid %s $%s for %s", u.Username, target.Username, amount.StringFixed(2), note)
	u.feed = append(u.feed, entry)
	target.feed = append(target.feed, entry)

	return payment, nil
}

// PayWithBalance settles a payment entirely from the payer's stored balance.
// No checks are made at this layer: the balance may go negative, and the
// payer and target may be the same user. It cannot fail.
func (u *User) PayWithBalance(target *User, amount decimal.Decimal, note string) *Payment {
	u.Balance = u.Balance.Sub(amount)
	target.Balance = target.Balance.Add(amount)
	return NewPayment(amount, u, target, note)
}

// PayWithCard settles a payment by charging the payer's card and crediting
// the target's balance. Validation is ordered and fails fast: self-payment,
// then non-positive amount, then missing card.
func (u *User) PayWithCard(ctx context.Context, charger CardCharger, target *User, amount decimal.Decimal, note string) (*Payment, error) {
	if u.Username == target.Username {
		return nil, ErrSelfPayment
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrNonPositiveAmount
	}
	if u.creditCard == "" {
		return nil, ErrNoCreditCard
	}

	if err := charger.Charge(ctx, u.creditCard, amount); err != nil {
		return nil, fmt.Errorf("failed to charge card: %w", err)
	}

	target.AddToBalance(amount)
	return NewPayment(amount, u, target, note), nil
}

// AddFriend adds newFriend to the caller's friend set and records the
// friendship on both feeds. The relation is one-directional: only the
// caller's set is updated. The set itself is keyed by identifier and will
// not hold duplicates, but repeated calls still append duplicate feed lines.
func (u *User) AddFriend(newFriend *User) {
	if _, ok := u.friends[newFriend.ID]; !ok {
		u.friends[newFriend.ID] = newFriend
		u.friendOrder = append(u.friendOrder, newFriend.ID)
	}

	entry := fmt.Sprintf("%s added %s as friend", u.Username, newFriend.Username)
	u.feed = append(u.feed, entry)
	newFriend.feed = append(newFriend.feed, entry)
}

// HasFriend reports whether the user with the given ID is in the caller's
// friend set.
func (u *User) HasFriend(id uuid.UUID) bool {
	_, ok := u.friends[id]
	return ok
}

// Friends returns the friend set in insertion order.
func (u *User) Friends() []*User {
	friends := make([]*User, 0, len(u.friendOrder))
	for _, id := range u.friendOrder {
		friends = append(friends, u.friends[id])
	}
	return friends
}

// RetrieveFeed returns the user's feed in insertion order. The returned
// slice is a copy; mutating it does not affect the user's feed.
func (u *User) RetrieveFeed() []string {
	feed := make([]string, len(u.feed))
	copy(feed, u.feed)
	return feed
}

// UserSnapshot is a detached copy of a user's externally visible state.
// Unlike the live entity it is safe to read after the lock guarding the
// user has been released.
type UserSnapshot struct {
	ID               uuid.UUID
	Username         string
	Balance          decimal.Decimal
	CreditCardNumber string
	Friends          []uuid.UUID // Friend identifiers in insertion order
}

// Snapshot copies the user's externally visible state. Callers that share
// the user across goroutines must hold its lock while taking the snapshot.
func (u *User) Snapshot() UserSnapshot {
	friends := make([]uuid.UUID, len(u.friendOrder))
	copy(friends, u.friendOrder)
	return UserSnapshot{
		ID:               u.ID,
		Username:         u.Username,
		Balance:          u.Balance,
		CreditCardNumber: u.creditCard,
		Friends:          friends,
	}
}

// Equal reports whether two users match on username, card number, balance
// and identifier.
func (u *User) Equal(other *User) bool {
	if other == nil {
		return false
	}
	return u.Username == other.Username &&
		u.creditCard == other.creditCard &&
		u.Balance.Equal(other.Balance) &&
		u.ID == other.ID
}

func (u *User) String() string {
	return fmt.Sprintf("User(username=%s, credit_card_number=%s, balance=%s)", u.Username, u.creditCard, u.Balance)
}
