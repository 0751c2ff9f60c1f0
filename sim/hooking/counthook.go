package hooking

import (
	"sync"
)

// A CountHook counts how many times each hook position is triggered.
type CountHook struct {
	lock sync.Mutex

	posNames []string
	posCount map[string]uint64
}

// NewCountHook creates a new CountHook.
func NewCountHook() *CountHook {
	return &CountHook{
		posCount: make(map[string]uint64),
	}
}

// Func counts the position of the hook.
func (h *CountHook) Func(ctx HookCtx) {
	h.lock.Lock()
	defer h.lock.Unlock()

	_, ok := h.posCount[ctx.Pos.Name]
	if !ok {
		h.posNames = append(h.posNames, ctx.Pos.Name)
	}

	h.posCount[ctx.Pos.Name]++
}

// PosNames returns the names of the positions seen, in first-seen order.
func (h *CountHook) PosNames() []string {
	h.lock.Lock()
	defer h.lock.Unlock()

	names := make([]string, len(h.posNames))
	copy(names, h.posNames)

	return names
}

// Count returns the number of times a position with the name is triggered.
func (h *CountHook) Count(posName string) uint64 {
	h.lock.Lock()
	defer h.lock.Unlock()

	return h.posCount[posName]
}

// Counts returns a snapshot of all the counters.
func (h *CountHook) Counts() map[string]uint64 {
	h.lock.Lock()
	defer h.lock.Unlock()

	counts := make(map[string]uint64, len(h.posCount))
	for k, v := range h.posCount {
		counts[k] = v
	}

	return counts
}
