package handoff

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// KV is the per-visitor storage the handoff record is kept in. Get returns
// nil without error when the key is absent.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Store reads and writes the payment handoff under StorageKey. Every read
// enforces MaxAge; expired or undecodable records are purged and reported
// as absent.
type Store struct {
	kv  KV
	log logrus.FieldLogger
	now func() time.Time
}

func NewStore(kv KV, log logrus.FieldLogger) *Store {
	return &Store{kv: kv, log: log, now: time.Now}
}

// Get returns the stored handoff, or nil when there is none that is still valid.
func (s *Store) Get() (*PaymentHandoff, error) {
	raw, err := s.kv.Get(StorageKey)
	if err != nil {
		return nil, fmt.Errorf("read payment handoff: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var h PaymentHandoff
	if err := json.Unmarshal(raw, &h); err != nil {
		s.log.WithError(err).Warn("discarding unreadable payment handoff")
		return nil, s.purge()
	}

	if h.Expired(s.now()) {
		s.log.WithFields(logrus.Fields{
			"subscription_id": h.SubscriptionID,
			"state":           StateExpired,
			"age":             s.now().Sub(h.WrittenAt()).Round(time.Second).String(),
		}).Info("payment handoff expired")
		return nil, s.purge()
	}
	return &h, nil
}

// Set replaces the stored handoff wholesale. A zero Timestamp is stamped with
// the current time.
func (s *Store) Set(h PaymentHandoff) error {
	if h.Timestamp == 0 {
		h.Timestamp = s.now().UnixMilli()
	}
	raw, err := json.Marshal(h)
	if err != nil {
		return err
	}
	if err := s.kv.Set(StorageKey, raw); err != nil {
		return fmt.Errorf("write payment handoff: %w", err)
	}
	return nil
}

// Clear removes the stored handoff.
func (s *Store) Clear() error {
	if err := s.kv.Delete(StorageKey); err != nil {
		return fmt.Errorf("clear payment handoff: %w", err)
	}
	return nil
}

func (s *Store) purge() error {
	if err := s.kv.Delete(StorageKey); err != nil {
		return fmt.Errorf("purge payment handoff: %w", err)
	}
	return nil
}
