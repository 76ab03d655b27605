package shop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/aydenstechdungeon/qpick/checkout"
	"github.com/aydenstechdungeon/qpick/state"
	"github.com/aydenstechdungeon/qpick/store"
)

const (
	// DefaultTTL is how long an idle session's state is kept.
	DefaultTTL = 24 * time.Hour
	// DefaultTimeout bounds a single storage or broadcast call.
	DefaultTimeout = 2 * time.Second
)

// ErrUnknownProduct is returned when adding a product the catalog lacks.
var ErrUnknownProduct = errors.New("shop: unknown product")

// Channel returns the broadcast channel of a session.
func Channel(sessionID string) string {
	return "qpick.session." + sessionID
}

func stateKey(sessionID string) string {
	return "session:" + sessionID
}

// change is broadcast after every mutation. Receivers reload the state from
// storage unless they published it themselves.
type change struct {
	Origin string `json:"origin"`
	Reason string `json:"reason"`
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets how long session state is kept after its last change.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// WithTimeout bounds each storage call made by session actions.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithLogger sets the logger for background reload failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithCatalog sets the product catalog.
func WithCatalog(c *Catalog) Option {
	return func(s *Store) { s.catalog = c }
}

// Store hands out sessions backed by shared storage. Connections of the same
// session in one process share a Session; other processes are kept in step
// through the PubSub.
type Store struct {
	storage store.Storage
	pubsub  store.PubSub
	catalog *Catalog
	origin  string
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// New creates a Store.
func New(storage store.Storage, pubsub store.PubSub, opts ...Option) *Store {
	s := &Store{
		storage:  storage,
		pubsub:   pubsub,
		catalog:  DefaultCatalog(),
		origin:   uuid.NewString(),
		ttl:      DefaultTTL,
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the product catalog.
func (s *Store) Catalog() *Catalog {
	return s.catalog
}

// Open returns the session with the given ID, loading it from storage on
// first use. Every Open must be paired with Session.Close.
func (s *Store) Open(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.refs++
		return sess, nil
	}

	st, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	sess := &Session{id: id, store: s, st: st, rev: state.NewRune(uint64(0)), refs: 1}

	unsub, err := s.pubsub.Subscribe(ctx, Channel(id), sess.onMessage)
	if err != nil {
		return nil, fmt.Errorf("subscribe session %s: %w", id, err)
	}
	sess.unsub = unsub
	s.sessions[id] = sess
	return sess, nil
}

// Sessions returns the number of sessions open in this process.
func (s *Store) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) load(ctx context.Context, id string) (State, error) {
	b, err := s.storage.Get(ctx, stateKey(id))
	if errors.Is(err, store.ErrNotFound) {
		return NewState(), nil
	}
	if err != nil {
		return State{}, fmt.Errorf("load session %s: %w", id, err)
	}
	return DecodeState(b)
}

func (s *Store) release(sess *Session) {
	s.mu.Lock()
	sess.refs--
	last := sess.refs == 0
	if last {
		delete(s.sessions, sess.id)
	}
	s.mu.Unlock()

	if last && sess.unsub != nil {
		sess.unsub()
	}
}

// Session is the state of one shopper. It implements checkout.Reader and
// checkout.Actions and is safe for concurrent use.
type Session struct {
	id    string
	store *Store

	mu sync.RWMutex
	st State

	rev   *state.Rune[uint64]
	refs  int
	unsub func()
}

var (
	_ checkout.Reader    = (*Session)(nil)
	_ checkout.Actions   = (*Session)(nil)
	_ checkout.Watchable = (*Session)(nil)
)

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// State returns a copy of the session state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.clone()
}

// Order implements checkout.Reader.
func (s *Session) Order() checkout.Order {
	return s.State().Order
}

// UserErrors implements checkout.Reader.
func (s *Session) UserErrors() checkout.UserErrors {
	return s.State().User.Errors
}

// AddressValid implements checkout.Reader.
func (s *Session) AddressValid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.Address.Valid
}

// Observables implements checkout.Watchable. The revision changes after
// every local or remote update.
func (s *Session) Observables() []state.Observable {
	return []state.Observable{s.rev}
}

// OnChange calls fn after every update. fn runs on the goroutine that made
// the change.
func (s *Session) OnChange(fn func()) state.Unsubscribe {
	return s.rev.Subscribe(func(uint64) { fn() })
}

// Close releases the session. The last Close stops listening for remote
// changes.
func (s *Session) Close() {
	s.store.release(s)
}

// mutate applies fn, persists the result and tells other processes. The
// local state changes even when persisting fails.
func (s *Session) mutate(reason string, fn func(*State) error) error {
	s.mu.Lock()
	next := s.st.clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.st = next
	s.mu.Unlock()

	err := s.persist(reason, next)
	s.rev.Update(func(v uint64) uint64 { return v + 1 })
	return err
}

func (s *Session) persist(reason string, st State) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.store.timeout)
	defer cancel()

	b, err := st.Encode()
	if err != nil {
		return err
	}
	if err := s.store.storage.Set(ctx, stateKey(s.id), b, s.store.ttl); err != nil {
		return fmt.Errorf("%s: save session %s: %w", reason, s.id, err)
	}
	msg, err := json.Marshal(change{Origin: s.store.origin, Reason: reason})
	if err != nil {
		return err
	}
	if err := s.store.pubsub.Publish(ctx, Channel(s.id), msg); err != nil {
		return fmt.Errorf("%s: broadcast session %s: %w", reason, s.id, err)
	}
	return nil
}

func (s *Session) onMessage(msg []byte) {
	var c change
	if err := json.Unmarshal(msg, &c); err != nil {
		s.store.logger.Warn("discarding malformed session message", "session", s.id, "error", err)
		return
	}
	if c.Origin == s.store.origin {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.store.timeout)
	defer cancel()
	st, err := s.store.load(ctx, s.id)
	if err != nil {
		s.store.logger.Error("reloading session", "session", s.id, "reason", c.Reason, "error", err)
		return
	}

	s.mu.Lock()
	s.st = st
	s.mu.Unlock()
	s.rev.Update(func(v uint64) uint64 { return v + 1 })
}

// AddProduct puts one unit of a catalog product in the cart.
func (s *Session) AddProduct(id string) error {
	p, ok := s.store.catalog.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProduct, id)
	}
	return s.mutate("add-product", func(st *State) error {
		for i := range st.Order.Products {
			if st.Order.Products[i].ID == id {
				st.Order.Products[i].Quantity++
				return nil
			}
		}
		st.Order.Products = append(st.Order.Products, p)
		return nil
	})
}

// SetQuantity changes a cart line. A quantity below one removes the line.
func (s *Session) SetQuantity(id string, qty int) error {
	return s.mutate("set-quantity", func(st *State) error {
		for i := range st.Order.Products {
			if st.Order.Products[i].ID != id {
				continue
			}
			if qty < 1 {
				st.Order.Products = append(st.Order.Products[:i], st.Order.Products[i+1:]...)
			} else {
				st.Order.Products[i].Quantity = qty
			}
			return nil
		}
		return nil
	})
}

// RemoveProduct drops a cart line.
func (s *Session) RemoveProduct(id string) error {
	return s.SetQuantity(id, 0)
}

// SetDeliveryType chooses pickup or delivery.
func (s *Session) SetDeliveryType(t checkout.DeliveryType) error {
	if t != checkout.Pickup && t != checkout.Delivery {
		return fmt.Errorf("shop: unknown delivery type %q", t)
	}
	return s.mutate("set-delivery-type", func(st *State) error {
		st.Order.Type = t
		return nil
	})
}

// SetPickup selects pickup points. An empty selection clears it.
func (s *Session) SetPickup(points ...string) error {
	return s.mutate("set-pickup", func(st *State) error {
		st.Order.Pickup = append([]string(nil), points...)
		return nil
	})
}

// SetUserField stores a contact field and records its validation error.
func (s *Session) SetUserField(field, value string) error {
	return s.mutate("set-user-field", func(st *State) error {
		st.User.Fields[field] = value
		st.User.Errors[field] = validateUserField(field, value)
		return nil
	})
}

// SetAddress stores the delivery address. It is valid once street and house
// are filled in.
func (s *Session) SetAddress(a Address) error {
	return s.mutate("set-address", func(st *State) error {
		a.Valid = addressValid(a)
		st.Address = a
		return nil
	})
}

// SetForm stores the comment and payment choice.
func (s *Session) SetForm(f Form) error {
	return s.mutate("set-form", func(st *State) error {
		st.Form = f
		return nil
	})
}

// ClearCart implements checkout.Actions.
func (s *Session) ClearCart() error {
	return s.mutate("clear-cart", func(st *State) error {
		st.Order.Products = nil
		return nil
	})
}

// ClearForm implements checkout.Actions. It resets the checkout form and the
// fulfilment choice.
func (s *Session) ClearForm() error {
	return s.mutate("clear-form", func(st *State) error {
		st.Form = Form{}
		st.Order.Type = checkout.Delivery
		st.Order.Pickup = nil
		return nil
	})
}

// ClearFormUser implements checkout.Actions.
func (s *Session) ClearFormUser() error {
	return s.mutate("clear-form-user", func(st *State) error {
		st.User = User{Fields: map[string]string{}, Errors: checkout.UserErrors{}}
		return nil
	})
}

// ClearAddress implements checkout.Actions.
func (s *Session) ClearAddress() error {
	return s.mutate("clear-address", func(st *State) error {
		st.Address = Address{}
		return nil
	})
}
