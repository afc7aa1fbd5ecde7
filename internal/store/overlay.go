package store

import "sync"

// Overlay holds the in-memory, non-persistent super properties. It lives and
// dies with the process and is cleared on reset; it never touches the file.
type Overlay struct {
	mu    sync.Mutex
	props map[string]any
}

func NewOverlay() *Overlay {
	return &Overlay{props: make(map[string]any)}
}

func (o *Overlay) Register(props map[string]any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for k, v := range props {
		o.props[k] = v
	}
}

// RegisterOnce sets each key only if it is absent, or if its current value
// equals defaultValue (when non-nil).
func (o *Overlay) RegisterOnce(props map[string]any, defaultValue any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for k, v := range props {
		existing, ok := o.props[k]
		if !ok || defaultMatches(existing, defaultValue) {
			o.props[k] = v
		}
	}
}

func (o *Overlay) Unregister(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.props, key)
}

func (o *Overlay) Get(key string) (any, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	v, ok := o.props[key]
	return v, ok
}

func (o *Overlay) Snapshot() map[string]any {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]any, len(o.props))
	for k, v := range o.props {
		out[k] = v
	}
	return out
}

func (o *Overlay) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.props = make(map[string]any)
}
