package srcache

import "sync"

// directory is the shared key -> entry map. It is the only state shared
// across entries and the coordinator, and it carries no business logic:
// entries self-register here on creation and the coordinator consults it
// before creating or destroying anything.
type directory struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func newDirectory() *directory {
	return &directory{entries: make(map[string]*entry)}
}

// register associates key with e. It reports false and leaves the
// directory unchanged if the key is already taken, so two concurrent
// registrations of the same key can never both succeed.
func (d *directory) register(key string, e *entry) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.entries[key]; ok {
		return false
	}
	d.entries[key] = e
	return true
}

func (d *directory) exists(key string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.entries[key]
	return ok
}

func (d *directory) lookup(key string) (*entry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[key]
	return e, ok
}

// unregister removes the association. Removing an absent key is a no-op.
func (d *directory) unregister(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, key)
}

func (d *directory) count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// snapshot returns the live entries at call time, in no particular order.
func (d *directory) snapshot() []*entry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*entry, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, e)
	}
	return out
}
