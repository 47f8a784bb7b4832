package timedcontent

// Hook system allows observing cache behavior without modifying core code.
// Hooks run synchronously on the calling goroutine and must not block.

// Hooks defines all available cache hooks
type Hooks struct {
	// OnHit runs when Lookup serves an existing artifact
	OnHit []HitHook

	// OnMiss runs when Lookup finds the bucket below capacity
	OnMiss []MissHook

	// OnStore runs after Store writes an artifact
	OnStore []StoreHook

	// OnError runs when a cache operation fails
	OnError []ErrorHook
}

// HitHook is called with the category, the bucket size and the served key
type HitHook func(category Category, count int, key string)

// MissHook is called with the category and the bucket size that caused the miss
type MissHook func(category Category, count int)

// StoreHook is called with the category and the written key
type StoreHook func(category Category, key string)

// ErrorHook is called with the category, the operation name and the error
type ErrorHook func(category Category, operation string, err error)

// Merge appends the hooks of other to h
func (h *Hooks) Merge(other Hooks) {
	h.OnHit = append(h.OnHit, other.OnHit...)
	h.OnMiss = append(h.OnMiss, other.OnMiss...)
	h.OnStore = append(h.OnStore, other.OnStore...)
	h.OnError = append(h.OnError, other.OnError...)
}

func (h *Hooks) hit(category Category, count int, key string) {
	for _, hook := range h.OnHit {
		hook(category, count, key)
	}
}

func (h *Hooks) miss(category Category, count int) {
	for _, hook := range h.OnMiss {
		hook(category, count)
	}
}

func (h *Hooks) stored(category Category, key string) {
	for _, hook := range h.OnStore {
		hook(category, key)
	}
}

func (h *Hooks) failed(category Category, operation string, err error) {
	for _, hook := range h.OnError {
		hook(category, operation, err)
	}
}
