package pde

import "github.com/geopde/propmat/utils"

// Ledger is the lazy memoization table for mass matrices. Each property
// registers the exact set of slot keys that depend on it; a write to the
// property clears that whole set unconditionally. There is no partial
// invalidation: forward, inverse and derivative slots live and die together
// so they can never diverge.
type Ledger struct {
	slots map[SlotKey]utils.CSR
	deps  map[string][]SlotKey
}

func NewLedger() *Ledger {
	return &Ledger{
		slots: make(map[SlotKey]utils.CSR),
		deps:  make(map[string][]SlotKey),
	}
}

// Register adds keys to the invalidation list of prop.
func (l *Ledger) Register(prop string, keys ...SlotKey) {
	l.deps[prop] = append(l.deps[prop], keys...)
}

// InvalidationList enumerates every slot cleared when prop is reassigned.
func (l *Ledger) InvalidationList(prop string) []SlotKey {
	out := make([]SlotKey, len(l.deps[prop]))
	copy(out, l.deps[prop])
	return out
}

// Invalidate clears every slot registered under prop. Assignment is the
// trigger; the new value is never compared against the old one.
func (l *Ledger) Invalidate(prop string) {
	for _, key := range l.deps[prop] {
		delete(l.slots, key)
	}
}

// Get returns the cached matrix for key, building and storing it on first
// access. A second read without an intervening invalidation returns the
// identical object, which keeps derivative caches built on top of it valid.
func (l *Ledger) Get(key SlotKey, build func() (utils.CSR, error)) (utils.CSR, error) {
	if m, ok := l.slots[key]; ok {
		return m, nil
	}
	m, err := build()
	if err != nil {
		return utils.CSR{}, err
	}
	l.slots[key] = m
	return m, nil
}

// Cached reports whether key currently holds a value, without building.
func (l *Ledger) Cached(key SlotKey) bool {
	_, ok := l.slots[key]
	return ok
}
