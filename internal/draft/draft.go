// Package draft persists in-progress form submissions to durable key-value
// storage so a multi-step workout creation can be recovered after the app is
// killed mid-submission or the call fails after exhausting retries.
//
// Every operation is best-effort: draft recovery is a convenience, not a
// correctness requirement, so storage failures are logged and reported as
// "no data" instead of propagated.
package draft

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// DefaultMaxAge is how long a saved draft stays loadable.
const DefaultMaxAge = 24 * time.Hour

// KV is the durable string-keyed storage the store writes through.
type KV interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Del(ctx context.Context, key string) error
}

// envelope wraps the caller's payload with its capture time.
type envelope struct {
	SavedAt time.Time       `json:"savedAt"`
	Data    json.RawMessage `json:"data"`
}

// Store saves, loads and clears form drafts under caller-supplied keys.
type Store struct {
	kv     KV
	maxAge time.Duration
	now    func() time.Time
}

// NewStore creates a draft store with the default 24h max age.
func NewStore(kv KV) *Store {
	return &Store{kv: kv, maxAge: DefaultMaxAge, now: time.Now}
}

func draftKey(key string) string {
	return "draft:" + key
}

// Save serializes data with a capture timestamp under the given key.
func (s *Store) Save(ctx context.Context, key string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("WARN: failed to serialize draft %q: %v", key, err)
		return
	}
	env, err := json.Marshal(envelope{SavedAt: s.now().UTC(), Data: raw})
	if err != nil {
		log.Printf("WARN: failed to serialize draft envelope %q: %v", key, err)
		return
	}
	if err := s.kv.Set(ctx, draftKey(key), string(env), s.maxAge); err != nil {
		log.Printf("WARN: failed to persist draft %q: %v", key, err)
	}
}

// Load unmarshals the draft stored under key into out and reports whether a
// fresh draft was found. Stale drafts are evicted and reported absent.
func (s *Store) Load(ctx context.Context, key string, out any) bool {
	value, found, err := s.kv.Get(ctx, draftKey(key))
	if err != nil {
		log.Printf("WARN: failed to read draft %q: %v", key, err)
		return false
	}
	if !found {
		return false
	}

	var env envelope
	if err := json.Unmarshal([]byte(value), &env); err != nil {
		log.Printf("WARN: discarding corrupt draft %q: %v", key, err)
		s.Clear(ctx, key)
		return false
	}
	if s.now().Sub(env.SavedAt) > s.maxAge {
		s.Clear(ctx, key)
		return false
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		log.Printf("WARN: discarding unreadable draft %q: %v", key, err)
		s.Clear(ctx, key)
		return false
	}
	return true
}

// Clear removes the draft stored under key unconditionally.
func (s *Store) Clear(ctx context.Context, key string) {
	if err := s.kv.Del(ctx, draftKey(key)); err != nil {
		log.Printf("WARN: failed to clear draft %q: %v", key, err)
	}
}
