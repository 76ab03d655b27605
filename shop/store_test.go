package shop

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aydenstechdungeon/qpick/checkout"
	"github.com/aydenstechdungeon/qpick/schedule"
	"github.com/aydenstechdungeon/qpick/scroll"
	"github.com/aydenstechdungeon/qpick/store"
	qredis "github.com/aydenstechdungeon/qpick/store/redis"
)

func newMemoryStore(t *testing.T, opts ...Option) (*Store, *store.MemoryStorage) {
	t.Helper()
	storage := store.NewMemoryStorage(time.Hour)
	t.Cleanup(func() { _ = storage.Close() })
	return New(storage, store.NewMemoryPubSub(), opts...), storage
}

func openSession(t *testing.T, s *Store, id string) *Session {
	t.Helper()
	sess, err := s.Open(context.Background(), id)
	require.NoError(t, err)
	t.Cleanup(sess.Close)
	return sess
}

func TestNewSessionIsEmptyDelivery(t *testing.T) {
	s, _ := newMemoryStore(t)
	sess := openSession(t, s, "a")

	assert.Equal(t, checkout.Delivery, sess.Order().Type)
	assert.Empty(t, sess.Order().Products)
	assert.Empty(t, sess.UserErrors())
	assert.False(t, sess.AddressValid())
}

func TestCartActions(t *testing.T) {
	s, _ := newMemoryStore(t)
	sess := openSession(t, s, "a")

	require.NoError(t, sess.AddProduct("apple-earpods"))
	require.NoError(t, sess.AddProduct("apple-earpods"))
	require.NoError(t, sess.AddProduct("gerlax-gh-04"))

	products := sess.Order().Products
	require.Len(t, products, 2)
	assert.Equal(t, 2, products[0].Quantity)
	assert.EqualValues(t, 2*2327+6527+checkout.DeliverySurcharge, checkout.Total(sess.Order()))

	require.NoError(t, sess.SetQuantity("gerlax-gh-04", 3))
	assert.Equal(t, 3, sess.Order().Products[1].Quantity)

	require.NoError(t, sess.RemoveProduct("apple-earpods"))
	assert.Len(t, sess.Order().Products, 1)

	err := sess.AddProduct("nope")
	assert.True(t, errors.Is(err, ErrUnknownProduct))
}

func TestFormActionsDriveTheGate(t *testing.T) {
	s, _ := newMemoryStore(t)
	sess := openSession(t, s, "a")
	ready := func() bool {
		return checkout.IsPurchasable(sess.Order(), sess.UserErrors(), sess.AddressValid())
	}

	assert.False(t, ready(), "delivery needs an address")

	require.NoError(t, sess.SetAddress(Address{City: "Moscow", Street: "Tverskaya"}))
	assert.False(t, sess.AddressValid())
	require.NoError(t, sess.SetAddress(Address{City: "Moscow", Street: "Tverskaya", House: "7"}))
	assert.True(t, sess.AddressValid())
	assert.True(t, ready())

	require.NoError(t, sess.SetUserField(FieldPhone, " "))
	assert.False(t, ready())
	require.NoError(t, sess.SetUserField(FieldPhone, "+7 900 000-00-00"))
	assert.True(t, ready())

	require.NoError(t, sess.SetDeliveryType(checkout.Pickup))
	assert.False(t, ready(), "pickup needs a point")
	require.NoError(t, sess.SetPickup(PickupPoints()[0]))
	assert.True(t, ready())

	assert.Error(t, sess.SetDeliveryType("Drone"))
}

func TestClearActions(t *testing.T) {
	s, _ := newMemoryStore(t)
	sess := openSession(t, s, "a")

	require.NoError(t, sess.AddProduct("apple-airpods"))
	require.NoError(t, sess.SetDeliveryType(checkout.Pickup))
	require.NoError(t, sess.SetPickup("qpick-store-north"))
	require.NoError(t, sess.SetUserField(FieldName, ""))
	require.NoError(t, sess.SetAddress(Address{Street: "Lenina", House: "1"}))
	require.NoError(t, sess.SetForm(Form{Comment: "ring twice", Payment: "card"}))

	require.NoError(t, sess.ClearCart())
	require.NoError(t, sess.ClearForm())
	require.NoError(t, sess.ClearFormUser())
	require.NoError(t, sess.ClearAddress())

	st := sess.State()
	assert.Empty(t, st.Order.Products)
	assert.Equal(t, checkout.Delivery, st.Order.Type)
	assert.Empty(t, st.Order.Pickup)
	assert.Empty(t, st.User.Errors)
	assert.Empty(t, st.User.Fields)
	assert.Equal(t, Address{}, st.Address)
	assert.Equal(t, Form{}, st.Form)

	require.NoError(t, sess.ClearCart(), "clearing twice is harmless")
}

func TestSessionPersists(t *testing.T) {
	s, storage := newMemoryStore(t)
	sess, err := s.Open(context.Background(), "a")
	require.NoError(t, err)
	require.NoError(t, sess.AddProduct("borofone-bo4"))
	sess.Close()
	assert.Equal(t, 0, s.Sessions())

	b, err := storage.Get(context.Background(), stateKey("a"))
	require.NoError(t, err)
	st, err := DecodeState(b)
	require.NoError(t, err)
	assert.Equal(t, "borofone-bo4", st.Order.Products[0].ID)

	again := openSession(t, s, "a")
	assert.Len(t, again.Order().Products, 1)
}

func TestOpenSharesSessionInProcess(t *testing.T) {
	s, _ := newMemoryStore(t)
	a := openSession(t, s, "a")
	b := openSession(t, s, "a")
	assert.Same(t, a, b)
	assert.Equal(t, 1, s.Sessions())
}

func TestOnChangeAndSidebarRecompute(t *testing.T) {
	s, _ := newMemoryStore(t)
	sess := openSession(t, s, "a")

	var changes atomic.Int32
	unsub := sess.OnChange(func() { changes.Add(1) })
	defer unsub()

	sidebar := checkout.New(checkout.Config{
		Reader:    sess,
		Actions:   sess,
		Scheduler: schedule.NewManual(),
		Locker:    scroll.NewLocker(),
	})
	defer sidebar.Dispose()
	assert.EqualValues(t, checkout.DeliverySurcharge, sidebar.Total())

	require.NoError(t, sess.AddProduct("apple-earpods"))
	assert.EqualValues(t, 2327+checkout.DeliverySurcharge, sidebar.Total())
	assert.Equal(t, int32(1), changes.Load())
}

type failingStorage struct{ store.Storage }

func (failingStorage) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("disk full")
}

func TestPersistFailureKeepsLocalChange(t *testing.T) {
	storage := store.NewMemoryStorage(time.Hour)
	defer storage.Close()
	s := New(failingStorage{storage}, store.NewMemoryPubSub())
	sess := openSession(t, s, "a")

	err := sess.AddProduct("apple-earpods")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Len(t, sess.Order().Products, 1)
}

func TestRemoteChangesAcrossProcesses(t *testing.T) {
	mr := miniredis.RunT(t)
	newStore := func() *Store {
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		return New(qredis.NewStore(client, "qpick:"), qredis.NewPubSub(client))
	}
	a, b := newStore(), newStore()

	left := openSession(t, a, "shared")
	right := openSession(t, b, "shared")

	var seen atomic.Int32
	right.OnChange(func() { seen.Add(1) })

	require.NoError(t, left.AddProduct("apple-airpods"))
	assert.Eventually(t, func() bool {
		return len(right.Order().Products) == 1 && seen.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, mr.Exists("qpick:"+stateKey("shared")))
}

func TestDecodeStateRejectsGarbage(t *testing.T) {
	_, err := DecodeState([]byte{0xc1})
	assert.Error(t, err)
}
