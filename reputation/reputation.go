// Package reputation tracks per-address throttle/ban state for factories and
// paymasters, the way EIP-7562 expects a bundler to punish entities whose
// validation-phase rule violations would otherwise let them grief the mempool
// for free.
package reputation

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aa-bundler/useropvalidator/config"
)

// Status is the derived reputation state of an address.
type Status int

const (
	OK Status = iota
	THROTTLED
	BANNED
)

func (s Status) String() string {
	switch s {
	case THROTTLED:
		return "THROTTLED"
	case BANNED:
		return "BANNED"
	default:
		return "OK"
	}
}

// Default thresholds, intentionally configurable constants rather than the
// EIP-7562-recommended values.
const (
	DefaultThrottleThreshold = config.ThrottleThreshold
	DefaultBanThreshold      = config.BanThreshold
)

// Entry is the observable state kept for one address.
type Entry struct {
	OpsSeen   uint64
	OpsFailed uint64
	Status    Status
}

// Store is the interface boundary separating the reputation tracker from its
// default in-memory implementation, so tests can substitute deterministic
// stubs. No wall-clock dependence: status is derived purely from the
// counters.
type Store interface {
	Status(addr common.Address) Status
	Update(addr common.Address, successful bool)
	Clear(addr common.Address)
	Entry(addr common.Address) (Entry, bool)
}

// InMemoryStore is the default Store: a mutex-guarded map keyed by address.
// The mutex makes individual map accesses safe; concurrent simulations
// sharing a Store must still serialize their update phases themselves.
type InMemoryStore struct {
	mu                sync.Mutex
	entries           map[common.Address]*Entry
	throttleThreshold uint64
	banThreshold      uint64
}

// NewInMemoryStore builds a store with the default thresholds.
func NewInMemoryStore() *InMemoryStore {
	return NewInMemoryStoreWithThresholds(DefaultThrottleThreshold, DefaultBanThreshold)
}

// NewInMemoryStoreWithThresholds builds a store with caller-supplied
// thresholds, for tests that want to exercise throttle/ban transitions
// without five/two-deep update loops.
func NewInMemoryStoreWithThresholds(throttleThreshold, banThreshold uint64) *InMemoryStore {
	return &InMemoryStore{
		entries:           make(map[common.Address]*Entry),
		throttleThreshold: throttleThreshold,
		banThreshold:      banThreshold,
	}
}

// Status returns OK for any address never previously seen.
func (s *InMemoryStore) Status(addr common.Address) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[addr]
	if !ok {
		return OK
	}
	return e.Status
}

// Update increments opsSeen, and opsFailed when successful is false, then
// recomputes status purely from opsFailed.
func (s *InMemoryStore) Update(addr common.Address, successful bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[addr]
	if !ok {
		e = &Entry{}
		s.entries[addr] = e
	}
	e.OpsSeen++
	if !successful {
		e.OpsFailed++
	}
	e.Status = deriveStatus(e.OpsFailed, s.throttleThreshold, s.banThreshold)
}

func deriveStatus(opsFailed, throttleThreshold, banThreshold uint64) Status {
	switch {
	case opsFailed >= banThreshold:
		return BANNED
	case opsFailed >= throttleThreshold:
		return THROTTLED
	default:
		return OK
	}
}

// Clear removes the entry for addr entirely.
func (s *InMemoryStore) Clear(addr common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, addr)
}

// Entry returns the stored entry, if any, for introspection.
func (s *InMemoryStore) Entry(addr common.Address) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[addr]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}
