package handoff

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/logger"
)

type memoryKV struct {
	data   map[string][]byte
	getErr error
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string][]byte{}}
}

func (m *memoryKV) Get(key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.data[key], nil
}

func (m *memoryKV) Set(key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *memoryKV) Delete(key string) error {
	delete(m.data, key)
	return nil
}

func newTestStore(kv KV, now time.Time) *Store {
	s := NewStore(kv, logger.Discard())
	s.now = func() time.Time { return now }
	return s
}

func sampleHandoff() PaymentHandoff {
	return PaymentHandoff{
		Email:            "jane@example.com",
		PlanID:           "starter",
		BillingPeriod:    "annual",
		StripeCustomerID: "cus_123",
		SubscriptionID:   "sub_456",
	}
}

func TestStore_SetStampsAndGetReturnsRecord(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	kv := newMemoryKV()
	store := newTestStore(kv, now)

	require.NoError(t, store.Set(sampleHandoff()))
	assert.Contains(t, string(kv.data[StorageKey]), `"stripeCustomerId":"cus_123"`)

	got, err := store.Get()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, now.UnixMilli(), got.Timestamp)
	assert.Equal(t, "sub_456", got.SubscriptionID)
}

func TestStore_SetReplacesWholesale(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := newTestStore(newMemoryKV(), now)

	first := sampleHandoff()
	first.IsTrial = true
	require.NoError(t, store.Set(first))

	second := PaymentHandoff{Email: "other@example.com", StripeCustomerID: "cus_9"}
	require.NoError(t, store.Set(second))

	got, err := store.Get()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "other@example.com", got.Email)
	assert.Empty(t, got.SubscriptionID)
	assert.False(t, got.IsTrial)
}

func TestStore_GetPurgesExpiredRecord(t *testing.T) {
	written := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	kv := newMemoryKV()
	require.NoError(t, newTestStore(kv, written).Set(sampleHandoff()))

	justBefore := newTestStore(kv, written.Add(MaxAge-time.Millisecond))
	got, err := justBefore.Get()
	require.NoError(t, err)
	assert.NotNil(t, got)

	atLimit := newTestStore(kv, written.Add(MaxAge))
	got, err = atLimit.Get()
	require.NoError(t, err)
	assert.Nil(t, got)
	_, present := kv.data[StorageKey]
	assert.False(t, present, "expired record must be removed")
}

func TestStore_GetPurgesUnreadableRecord(t *testing.T) {
	kv := newMemoryKV()
	kv.data[StorageKey] = []byte("{not json")
	store := newTestStore(kv, time.Now())

	got, err := store.Get()
	require.NoError(t, err)
	assert.Nil(t, got)
	_, present := kv.data[StorageKey]
	assert.False(t, present)
}

func TestStore_GetAbsentAndBackendError(t *testing.T) {
	kv := newMemoryKV()
	store := newTestStore(kv, time.Now())

	got, err := store.Get()
	require.NoError(t, err)
	assert.Nil(t, got)

	kv.getErr = errors.New("redis down")
	_, err = store.Get()
	assert.ErrorContains(t, err, "redis down")
}

func TestStore_Clear(t *testing.T) {
	kv := newMemoryKV()
	store := newTestStore(kv, time.Now())
	require.NoError(t, store.Set(sampleHandoff()))

	require.NoError(t, store.Clear())
	got, err := store.Get()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPaymentHandoff_HasPaymentDetails(t *testing.T) {
	h := sampleHandoff()
	assert.True(t, h.HasPaymentDetails())

	h.SubscriptionID = " "
	assert.False(t, h.HasPaymentDetails())
}
